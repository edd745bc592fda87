package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// odsContentPath is the path to the main content inside an .ods zip (OpenDocument Spreadsheet).
const odsContentPath = "content.xml"

const (
	odsTableNS = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"
	odsTextNS  = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"
)

// namesFromODS reads the first column of the first table in an .ods file.
func namesFromODS(content []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract ODS: not a zip: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != odsContentPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("extract ODS: open %s: %w", f.Name, err)
		}
		defer rc.Close()
		rows, err := odsFirstColumn(rc)
		if err != nil {
			return nil, fmt.Errorf("extract ODS: %w", err)
		}
		return firstColumn(rows), nil
	}
	return nil, fmt.Errorf("extract ODS: %s not found", odsContentPath)
}

// odsFirstColumn streams content.xml and returns the text of the first cell of
// each row of the first table, as single-cell rows.
func odsFirstColumn(r io.Reader) ([][]string, error) {
	dec := xml.NewDecoder(r)
	var (
		rows        [][]string
		inTable     bool
		cellInRow   int
		inFirstCell bool
		paragraphs  int
		cell        strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Space == odsTableNS && t.Name.Local == "table":
				inTable = true
			case inTable && t.Name.Space == odsTableNS && t.Name.Local == "table-row":
				cellInRow = 0
			case inTable && t.Name.Space == odsTableNS && t.Name.Local == "table-cell":
				cellInRow++
				if cellInRow == 1 {
					inFirstCell = true
					paragraphs = 0
					cell.Reset()
				}
			case inFirstCell && t.Name.Space == odsTextNS && t.Name.Local == "p":
				if paragraphs > 0 {
					cell.WriteByte(' ')
				}
				paragraphs++
			case inFirstCell && t.Name.Space == odsTextNS && t.Name.Local == "s":
				cell.WriteByte(' ')
			}
		case xml.CharData:
			if inFirstCell {
				cell.Write(t)
			}
		case xml.EndElement:
			switch {
			case t.Name.Space == odsTableNS && t.Name.Local == "table":
				return rows, nil
			case inFirstCell && t.Name.Space == odsTableNS && t.Name.Local == "table-cell":
				inFirstCell = false
				rows = append(rows, []string{cell.String()})
			}
		}
	}
}
