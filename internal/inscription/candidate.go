package inscription

import (
	"strings"
	"unicode/utf8"
)

const TextPlain = "text/plain"

// IsText reports whether the envelope declares a text/plain body, parameters included.
func (e Envelope) IsText() bool {
	return strings.HasPrefix(e.ContentType, TextPlain)
}

// Text returns the body as a string together with its length in runes.
func (e Envelope) Text() (string, int) {
	text := string(e.Body)
	return text, utf8.RuneCountInString(text)
}
