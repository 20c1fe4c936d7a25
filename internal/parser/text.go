package parser

import (
	"strings"
	"unicode/utf8"
)

// TextParser handles plain text. Line endings are normalised to "\n" and
// invalid UTF-8 is replaced, otherwise the text is kept as-is.
type TextParser struct{}

func (p *TextParser) Parse(data []byte, filename string) (*Document, error) {
	s := string(data)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")

	return &Document{
		Title:  titleFromFilename(filename),
		Format: "txt",
		Text:   s,
	}, nil
}
