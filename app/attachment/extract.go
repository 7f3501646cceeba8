package attachment

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF parses at most maxPages pages of a PDF document.
func extractPDF(data []byte, maxPages int) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	total := reader.NumPage()
	if total > maxPages {
		total = maxPages
	}

	var sb strings.Builder
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(text)
	}

	return sb.String(), nil
}

// extractZippedXML pulls paragraph text out of an OOXML/ODF archive. Both
// docx (word/document.xml, w:p/w:t) and odt (content.xml, text:p) reduce to
// the same shape: character data inside paragraph elements.
func extractZippedXML(data []byte, member string, maxParagraphs int) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}

	var doc io.ReadCloser
	for _, file := range archive.File {
		if file.Name == member {
			doc, err = file.Open()
			if err != nil {
				return "", fmt.Errorf("failed to open %s: %w", member, err)
			}
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("archive has no %s", member)
	}
	defer doc.Close()

	decoder := xml.NewDecoder(doc)

	var sb strings.Builder
	var current strings.Builder
	paragraphs := 0

	for paragraphs < maxParagraphs {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", member, err)
		}

		switch t := token.(type) {
		case xml.CharData:
			current.Write(t)
		case xml.EndElement:
			if t.Name.Local != "p" {
				continue
			}
			paragraph := strings.TrimSpace(current.String())
			current.Reset()
			if paragraph == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(paragraph)
			paragraphs++
		}
	}

	return sb.String(), nil
}

func extractPlainText(data []byte, maxParagraphs int) string {
	lines := strings.Split(string(data), "\n")
	if len(lines) > maxParagraphs {
		lines = lines[:maxParagraphs]
	}
	return strings.Join(lines, "\n")
}
