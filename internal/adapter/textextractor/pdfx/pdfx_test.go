package pdfx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentloop/ai-interviewer/internal/adapter/textextractor/pdfx"
	"github.com/talentloop/ai-interviewer/internal/domain"
)

func TestExtract_PlainText(t *testing.T) {
	t.Parallel()
	e := pdfx.New()
	got, err := e.Extract(context.Background(), "cv.txt", []byte("  Jane Doe \n\n\n Go developer  \n"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nGo developer", got)
}

func TestExtract_StripsControlCharacters(t *testing.T) {
	t.Parallel()
	e := pdfx.New()
	got, err := e.Extract(context.Background(), "cv.txt", []byte("Jane\x00Doe\x07"))
	require.NoError(t, err)
	assert.Equal(t, "JaneDoe", got)
}

func TestExtract_EmptyDocument(t *testing.T) {
	t.Parallel()
	e := pdfx.New()
	_, err := e.Extract(context.Background(), "cv.txt", []byte("   \n\t  "))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestExtract_CorruptPDF(t *testing.T) {
	t.Parallel()
	e := pdfx.New()
	_, err := e.Extract(context.Background(), "cv.pdf", []byte("%PDF-1.7 not really a pdf"))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
