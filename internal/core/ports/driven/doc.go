// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core code depends on these interfaces, and infrastructure adapters
// implement them:
//
//   - LLMService: chat completions (Anthropic adapter)
//   - EmbeddingService: vector embeddings (OpenAI adapter)
//   - VectorStore: chunk embedding storage and similarity search
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
