package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by ForFile for unknown extensions.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Document is the text extracted from one uploaded file.
type Document struct {
	Title  string // From document metadata or the filename.
	Format string // Lowercase extension without the dot.
	Pages  int    // PDF page count; 0 for formats without pages.
	Text   string // Full text in reading order, no page markers.
}

// Parser turns raw file bytes into a Document.
type Parser interface {
	Parse(data []byte, filename string) (*Document, error)
}

// Options tunes parser construction.
type Options struct {
	PDFFallbackPdftotext bool
}

var supportedExtensions = map[string]bool{
	".pdf":      true,
	".docx":     true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".txt":      true,
}

// ForFile returns the parser for a filename's extension.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// IsSupportedExtension reports whether ForFile accepts filename.
func IsSupportedExtension(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Parse picks the parser for filename and runs it.
func Parse(data []byte, filename string, opts Options) (*Document, error) {
	p, err := ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	return p.Parse(data, filename)
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func formatOf(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// blockWriter joins non-empty text blocks with a blank line.
type blockWriter struct {
	sb strings.Builder
}

func (b *blockWriter) add(block string) {
	block = strings.TrimSpace(block)
	if block == "" {
		return
	}
	if b.sb.Len() > 0 {
		b.sb.WriteString("\n\n")
	}
	b.sb.WriteString(block)
}

func (b *blockWriter) String() string {
	return b.sb.String()
}
