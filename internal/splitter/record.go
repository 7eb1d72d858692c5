package splitter

import "strings"

// splitRecords cuts flattened structured documents on record lines and
// packs whole records into chunks. A record never straddles a chunk
// boundary unless it alone exceeds the chunk size.
func (s *Splitter) splitRecords(text string) []string {
	var records []string
	for _, line := range strings.Split(text, "\n") {
		if notBlank(line) {
			records = append(records, line)
		}
	}
	return s.pack(records, "\n")
}
