package parser

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser extracts page text with ledongthuc/pdf and optionally falls
// back to poppler's pdftotext.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(data []byte, filename string) (*Document, error) {
	text, pages, err := extractPDFText(data)
	if err != nil && p.FallbackPdftotext {
		fbText, fbPages, fbErr := extractPdftotext(data)
		if fbErr == nil {
			text, pages, err = fbText, fbPages, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	return &Document{
		Title:  titleFromFilename(filename),
		Format: "pdf",
		Pages:  pages,
		Text:   text,
	}, nil
}

// extractPDFText concatenates the plain text of every page in order.
// The library panics on some malformed files; that becomes an error.
func extractPDFText(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}

	var buf strings.Builder
	pages = reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(pageText)
	}
	return buf.String(), pages, nil
}

func extractPdftotext(data []byte) (string, int, error) {
	tmp, err := os.CreateTemp("", "papersum-*.pdf")
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmp.Name(), "-").Output()
	if err != nil {
		return "", 0, fmt.Errorf("pdftotext: %w", err)
	}
	text, pages := splitPdftotextOutput(string(out))
	return text, pages, nil
}

// splitPdftotextOutput strips the form feed pdftotext writes after every
// page and returns the page count it implies.
func splitPdftotextOutput(out string) (string, int) {
	pages := strings.Count(out, "\f")
	if pages == 0 && strings.TrimSpace(out) != "" {
		pages = 1
	}
	return strings.ReplaceAll(out, "\f", ""), pages
}
