package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/custodia-labs/corpora/internal/core/domain"
)

// DocumentKey identifies a document in the hash ledger. Documents from
// repository and directory walks all share their container's URL, so
// the file path disambiguates them; standalone documents key by URL.
func DocumentKey(doc *domain.Document) string {
	url := doc.URL()
	if fp := doc.FilePath(); fp != "" {
		return url + "#" + fp
	}
	return url
}

// DocumentHash computes a deterministic content hash for a document.
// The hash is a pure function of (text, metadata): identical content and
// metadata always hash identically, and any change to either changes the
// hash. Metadata keys are visited in sorted order so map iteration order
// never leaks into the digest.
func DocumentHash(doc *domain.Document) string {
	h := sha256.New()
	h.Write([]byte(doc.Text))
	h.Write([]byte{0})

	keys := make([]string, 0, len(doc.Metadata))
	for k := range doc.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write(canonicalValue(doc.Metadata[k]))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}

// canonicalValue renders a metadata value to stable bytes. JSON encoding
// covers scalars and collections; values JSON cannot represent fall back
// to fmt, which is still deterministic for the scalar types connectors
// produce.
func canonicalValue(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Appendf(nil, "%v", v)
	}
	return b
}
