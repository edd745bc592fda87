// Package extract reads name lists from plain text, CSV and spreadsheet files.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// headerName is the first-column header that is skipped in tabular files.
const headerName = "name"

// SupportedExtensions lists the file extensions ReadNames understands.
var SupportedExtensions = []string{".txt", ".lst", ".csv", ".xlsx", ".ods"}

// IsSupported reports whether path has an extension ReadNames understands.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// ReadNames reads the file at path and returns its names in file order.
// Blank entries are dropped; duplicates are kept.
func ReadNames(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseNames(content, strings.ToLower(filepath.Ext(path)))
}

// ParseNames extracts names from content based on the given extension.
// ext should include the leading dot (e.g. ".csv"). Unknown extensions are
// read as one name per line.
func ParseNames(content []byte, ext string) ([]string, error) {
	switch ext {
	case ".csv":
		return namesFromCSV(content)
	case ".xlsx":
		return namesFromExcel(content)
	case ".ods":
		return namesFromODS(content)
	default:
		return namesFromLines(content), nil
	}
}

// firstColumn collects the trimmed first cell of each row, skipping a leading
// "name" header and blank cells.
func firstColumn(rows [][]string) []string {
	var names []string
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if i == 0 && strings.EqualFold(cell, headerName) {
			continue
		}
		if cell != "" {
			names = append(names, cell)
		}
	}
	return names
}
