package splitter

import "strings"

// sentenceEnders terminate a sentence when followed by whitespace.
var sentenceEnders = map[byte]bool{'.': true, '!': true, '?': true}

// splitSentences is the default strategy. Text is cut into sentences,
// then sentences are packed into chunks up to the configured size.
func (s *Splitter) splitSentences(text string) []string {
	return s.pack(splitIntoSentences(text), " ")
}

// splitIntoSentences cuts text at sentence-ending punctuation followed
// by whitespace. Paragraph breaks also end a sentence.
func splitIntoSentences(text string) []string {
	var sentences []string
	var start int

	for i := 0; i < len(text); i++ {
		c := text[i]

		if sentenceEnders[c] && i+1 < len(text) && isSpace(text[i+1]) {
			sentences = append(sentences, text[start:i+1])
			start = i + 1
			continue
		}

		// A blank line ends the current sentence even without
		// terminal punctuation.
		if c == '\n' && i+1 < len(text) && text[i+1] == '\n' {
			sentences = append(sentences, text[start:i])
			start = i + 1
		}
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// notBlank reports whether the string has any non-whitespace content.
func notBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}
