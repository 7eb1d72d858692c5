package splitter

import "strings"

// splitMarkdown cuts markdown at heading lines so a chunk never spans
// two sections, then packs sections up to the chunk size. Sections
// larger than the chunk size fall back to sentence splitting.
func (s *Splitter) splitMarkdown(text string) []string {
	sections := splitIntoSections(text)

	var segments []string
	for _, section := range sections {
		if len(section) <= s.chunkSize {
			segments = append(segments, section)
			continue
		}
		segments = append(segments, splitIntoSentences(section)...)
	}
	return s.pack(segments, "\n")
}

// splitIntoSections groups markdown lines under their nearest heading.
// Headings inside fenced code blocks are ignored.
func splitIntoSections(text string) []string {
	var sections []string
	var buf strings.Builder
	inFence := false

	flush := func() {
		if notBlank(buf.String()) {
			sections = append(sections, strings.TrimRight(buf.String(), "\n"))
		}
		buf.Reset()
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}
		if !inFence && isHeading(trimmed) {
			flush()
		}
		buf.WriteString(line)
	}
	flush()
	return sections
}

func isHeading(line string) bool {
	if !strings.HasPrefix(line, "#") {
		return false
	}
	rest := strings.TrimLeft(line, "#")
	return rest == "" || strings.HasPrefix(rest, " ")
}
