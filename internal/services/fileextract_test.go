package services

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractText(t *testing.T) {
	svc := NewFileExtractService()

	t.Run("txt", func(t *testing.T) {
		got, err := svc.ExtractText("notes.TXT", []byte("  Cells\r\n\r\n\r\n  divide  \n"))
		require.NoError(t, err)
		assert.Equal(t, "Cells\n\ndivide", got)
	})

	t.Run("empty txt", func(t *testing.T) {
		_, err := svc.ExtractText("notes.txt", []byte(" \n "))
		assert.Error(t, err)
	})

	t.Run("docx", func(t *testing.T) {
		doc := buildDOCX(t, `<w:document><w:body><w:p><w:r><w:t>Mitosis &amp; meiosis</w:t></w:r></w:p><w:p><w:r><w:t>Phase</w:t><w:tab/><w:t>one</w:t></w:r></w:p></w:body></w:document>`)
		got, err := svc.ExtractText("bio.docx", doc)
		require.NoError(t, err)
		assert.Equal(t, "Mitosis & meiosis\nPhase\tone", got)
	})

	t.Run("docx without body", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		_, _ = zw.Create("other.xml")
		require.NoError(t, zw.Close())
		_, err := svc.ExtractText("bio.docx", buf.Bytes())
		assert.EqualError(t, err, "docx document.xml not found")
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := svc.ExtractText("slides.pptx", []byte("x"))
		var uerr *UnsupportedFormatError
		assert.ErrorAs(t, err, &uerr)
	})

	t.Run("broken pdf", func(t *testing.T) {
		_, err := svc.ExtractText("paper.pdf", []byte("not a pdf"))
		assert.Error(t, err)
	})
}

func TestDocumentHelpers(t *testing.T) {
	assert.True(t, SupportedDocument("a.PDF"))
	assert.True(t, SupportedDocument("a.md"))
	assert.False(t, SupportedDocument("a.png"))
	assert.Equal(t, "pdf", DocumentType("A.Pdf"))
	assert.Equal(t, "txt", DocumentType("readme.md"))
}
