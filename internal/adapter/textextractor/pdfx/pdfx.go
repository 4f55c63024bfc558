// Package pdfx implements the TextExtractor port for uploaded CVs.
// PDF files are parsed page by page; anything else is treated as plain
// text. Either way the result is sanitized for prompt use.
package pdfx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/talentloop/ai-interviewer/internal/domain"
	"github.com/talentloop/ai-interviewer/pkg/textx"
)

// Extractor converts uploaded document bytes to plain text.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns sanitized plain text for the uploaded file. Pages that
// fail to parse are skipped; a document yielding no text at all is an
// invalid upload.
func (e *Extractor) Extract(_ context.Context, filename string, data []byte) (string, error) {
	var text string
	if isPDF(filename, data) {
		extracted, err := extractPDF(data)
		if err != nil {
			return "", fmt.Errorf("op=pdfx.Extract: %w: %v", domain.ErrInvalidArgument, err)
		}
		text = extracted
	} else {
		text = string(data)
	}

	text = textx.CollapseBlankLines(textx.SanitizeText(text))
	if text == "" {
		return "", fmt.Errorf("op=pdfx.Extract: %w: document contains no extractable text", domain.ErrInvalidArgument)
	}
	return text, nil
}

func isPDF(filename string, data []byte) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf") || bytes.HasPrefix(data, []byte("%PDF-"))
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}
