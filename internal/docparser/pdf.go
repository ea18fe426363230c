package docparser

import (
	"bytes"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
)

// parsePDF extracts plain text from a PDF stream page by page, via
// ledongthuc/pdf — a pure-Go text extractor. No repo in the example pack
// parses PDFs itself, so this dependency is named rather than grounded (see
// DESIGN.md): it is the smallest real library that gets GetPlainText-style
// extraction without shelling out to poppler or similar.
func parsePDF(r io.Reader, size int64) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", apperrors.NewPipelineError(apperrors.KindParseFailure, err, "read pdf stream")
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", apperrors.NewPipelineError(apperrors.KindParseFailure, err, "pdf is not a valid document")
	}

	var b strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single malformed page (e.g. scanned image with no text
			// layer) shouldn't fail the whole document; skip and continue.
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}
