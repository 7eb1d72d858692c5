// Package connectors groups the source-specific fetchers. Each
// connector knows how to turn one kind of source (web pages, JSON
// endpoints, notebooks, GitHub repositories) into domain.Documents.
package connectors
