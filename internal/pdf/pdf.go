// Package pdf extracts per-page text from PDF documents.
package pdf

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/edgecity/opsmail/internal/chunker"
)

// yLineTolerance is the maximum vertical distance (in PDF units) between
// two text fragments considered part of the same line.
const yLineTolerance = 2.0

// Extract extracts the text of each page of a PDF document.
// Pages with no extractable text are skipped; page numbers are 1-based
// and refer to the position in the document, not the output slice.
func Extract(data []byte) ([]chunker.PageText, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	var pages []chunker.PageText
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text := assembleLines(page.Content().Text)
		if text == "" {
			continue
		}

		pages = append(pages, chunker.PageText{PageNumber: i, Text: text})
	}

	return pages, nil
}

// ExtractFile reads and extracts a PDF from disk.
func ExtractFile(path string) ([]chunker.PageText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Extract(data)
}

// assembleLines reconstructs text lines from positioned fragments.
// Fragments whose vertical position differs by more than yLineTolerance
// start a new line; blank lines are dropped.
func assembleLines(fragments []pdflib.Text) string {
	var lines []string
	var current strings.Builder
	lastY := math.NaN()

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			lines = append(lines, s)
		}
		current.Reset()
	}

	for _, frag := range fragments {
		if !math.IsNaN(lastY) && math.Abs(frag.Y-lastY) > yLineTolerance {
			flush()
		}
		current.WriteString(frag.S)
		lastY = frag.Y
	}
	flush()

	return strings.Join(lines, "\n")
}
