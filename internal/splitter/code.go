package splitter

import "strings"

// splitCode cuts source text at top-level definition boundaries so a
// chunk holds whole functions or classes where possible, then packs
// the blocks up to the chunk size.
func (s *Splitter) splitCode(text string) []string {
	return s.pack(splitIntoBlocks(text), "\n")
}

// splitIntoBlocks groups lines into blocks separated by top-level
// definitions. A new block starts at an unindented def, class,
// decorator or comment banner following a blank line.
func splitIntoBlocks(text string) []string {
	var blocks []string
	var buf strings.Builder
	prevBlank := true

	flush := func() {
		if notBlank(buf.String()) {
			blocks = append(blocks, strings.TrimRight(buf.String(), "\n"))
		}
		buf.Reset()
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		if prevBlank && startsTopLevelBlock(line) {
			flush()
		}
		buf.WriteString(line)
		prevBlank = strings.TrimSpace(line) == ""
	}
	flush()
	return blocks
}

// startsTopLevelBlock reports whether the line opens a new unindented
// definition.
func startsTopLevelBlock(line string) bool {
	if len(line) == 0 || line[0] == ' ' || line[0] == '\t' {
		return false
	}
	for _, prefix := range []string{"def ", "class ", "async def ", "@"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
