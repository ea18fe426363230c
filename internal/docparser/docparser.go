// Package docparser implements the Document Parser (C2): extracting plain
// UTF-8 text from PDF, DOCX, DOC, TXT, and MD streams ahead of the Text
// Processor (C1). The one-library-per-format texture mirrors the teacher's
// own format-specific clients (goquery for HTML, chromedp for rendered
// pages): each extension gets a dedicated extractor behind one Parse call.
package docparser

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
)

// Extension names one of the formats §4.2 requires support for.
type Extension string

const (
	ExtPDF  Extension = ".pdf"
	ExtDOCX Extension = ".docx"
	ExtDOC  Extension = ".doc"
	ExtTXT  Extension = ".txt"
	ExtMD   Extension = ".md"
)

// SupportedExtensions lists every extension Parse accepts, in the order
// reported by a capabilities query.
var SupportedExtensions = []Extension{ExtPDF, ExtDOCX, ExtDOC, ExtTXT, ExtMD}

// Parser is the Document Parser's interface: turn (stream, filename, size)
// into plain text, detecting format from the filename's extension.
type Parser struct {
	maxSizeBytes int64
}

// New builds a Parser that rejects uploads over maxSizeBytes (§4.2 default
// 50 MB, wired from config maxFileSizeMB).
func New(maxSizeBytes int64) *Parser {
	if maxSizeBytes <= 0 {
		maxSizeBytes = 50 * 1024 * 1024
	}
	return &Parser{maxSizeBytes: maxSizeBytes}
}

// extensionOf lower-cases and extracts filename's suffix, including the dot.
func extensionOf(filename string) Extension {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return Extension(strings.ToLower(filename[i:]))
}

// IsSupported reports whether filename's extension is one Parse handles.
func IsSupported(filename string) bool {
	ext := extensionOf(filename)
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Parse extracts plain text from r, sized size bytes, named filename.
// Unsupported extensions, oversize uploads, and documents that parse to
// nothing all surface as typed AppErrors per §4.2.
func (p *Parser) Parse(r io.Reader, filename string, size int64) (string, error) {
	if size > p.maxSizeBytes {
		return "", apperrors.NewBadRequestError(apperrors.KindTooLarge,
			"file %s is %d bytes, exceeds the %d byte limit", filename, size, p.maxSizeBytes)
	}

	ext := extensionOf(filename)
	var (
		text string
		err  error
	)
	switch ext {
	case ExtTXT, ExtMD:
		text, err = parsePlainText(r)
	case ExtDOCX:
		text, err = parseDOCX(r, size)
	case ExtDOC:
		text, err = parseLegacyDOC(r)
	case ExtPDF:
		text, err = parsePDF(r, size)
	default:
		return "", apperrors.NewBadRequestError(apperrors.KindUnsupportedFormat,
			"unsupported document extension %q", ext)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.NewBadRequestError(apperrors.KindEmptyDocument,
			"document %s produced no extractable text", filename)
	}
	return text, nil
}

// parsePlainText reads a TXT/MD stream verbatim, replacing any invalid
// UTF-8 byte sequences rather than rejecting the whole document — uploads
// coming through a browser's file input are not guaranteed clean UTF-8.
func parsePlainText(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", apperrors.NewPipelineError(apperrors.KindParseFailure, err, "read plain text stream")
	}
	if !utf8.Valid(raw) {
		raw = bytes.ToValidUTF8(raw, []byte{})
	}
	return string(raw), nil
}
