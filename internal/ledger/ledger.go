// Package ledger tracks which sources and document hashes have already
// been indexed. The ledger is the single source of truth for "has this
// content been indexed": it is loaded when a build starts, mutated during
// the build, and persisted atomically only after the build succeeds, so a
// failed build leaves the prior state intact.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FileName is the ledger's file name inside the storage directory.
const FileName = "ledger.json"

// Ledger is the persisted bookkeeping for the incremental index builder.
// Invariant: after a successful build, every key in DocumentHashes is a
// member of ProcessedURLs.
type Ledger struct {
	// LastUpdate is when the last successful insert/build completed.
	// Nil until the first build.
	LastUpdate *time.Time

	// DocumentHashes maps source URL to that document's content hash.
	DocumentHashes map[string]string

	// ProcessedURLs is the set of URLs already indexed.
	ProcessedURLs map[string]struct{}

	// ProcessedOrgs is the set of organizations already swept.
	ProcessedOrgs map[string]struct{}
}

// ledgerFile is the on-disk JSON shape: sets serialize as arrays.
type ledgerFile struct {
	LastUpdate     *time.Time        `json:"last_update"`
	DocumentHashes map[string]string `json:"document_hashes"`
	ProcessedURLs  []string          `json:"processed_urls"`
	ProcessedOrgs  []string          `json:"processed_orgs"`
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		DocumentHashes: make(map[string]string),
		ProcessedURLs:  make(map[string]struct{}),
		ProcessedOrgs:  make(map[string]struct{}),
	}
}

// Load reads the ledger from dir. A missing file yields an empty ledger;
// a malformed file is an error so the builder can decide to rebuild.
func Load(dir string) (*Ledger, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var f ledgerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse ledger: %w", err)
	}

	l := New()
	l.LastUpdate = f.LastUpdate
	for url, hash := range f.DocumentHashes {
		l.DocumentHashes[url] = hash
	}
	for _, url := range f.ProcessedURLs {
		l.ProcessedURLs[url] = struct{}{}
	}
	for _, org := range f.ProcessedOrgs {
		l.ProcessedOrgs[org] = struct{}{}
	}
	return l, nil
}

// Save persists the ledger to dir atomically: it writes a temp file and
// renames it over the target, so readers never observe a partial ledger.
func (l *Ledger) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	f := ledgerFile{
		LastUpdate:     l.LastUpdate,
		DocumentHashes: l.DocumentHashes,
		ProcessedURLs:  sortedKeys(l.ProcessedURLs),
		ProcessedOrgs:  sortedKeys(l.ProcessedOrgs),
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close ledger: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, FileName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename ledger: %w", err)
	}
	return nil
}

// HasURL reports whether a URL has already been indexed.
func (l *Ledger) HasURL(url string) bool {
	_, ok := l.ProcessedURLs[url]
	return ok
}

// HasOrg reports whether an organization has already been swept.
func (l *Ledger) HasOrg(org string) bool {
	_, ok := l.ProcessedOrgs[org]
	return ok
}

// HashMatches reports whether the stored hash for url equals hash.
func (l *Ledger) HashMatches(url, hash string) bool {
	stored, ok := l.DocumentHashes[url]
	return ok && stored == hash
}

// Record marks a document's URL as processed with its content hash.
func (l *Ledger) Record(url, hash string) {
	l.ProcessedURLs[url] = struct{}{}
	l.DocumentHashes[url] = hash
}

// RecordURL marks a source URL as processed without storing a hash.
// Used for container URLs whose documents carry their own URLs.
func (l *Ledger) RecordURL(url string) {
	l.ProcessedURLs[url] = struct{}{}
}

// RecordOrg marks an organization as swept.
func (l *Ledger) RecordOrg(org string) {
	l.ProcessedOrgs[org] = struct{}{}
}

// Stamp sets LastUpdate to the current UTC time.
func (l *Ledger) Stamp() {
	now := time.Now().UTC()
	l.LastUpdate = &now
}

// sortedKeys returns the set members in sorted order so the persisted
// ledger stays diff-friendly.
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
