package extract

import (
	"encoding/csv"
	"fmt"
	"strings"
)

func namesFromCSV(content []byte) ([]string, error) {
	r := csv.NewReader(strings.NewReader(toValidUTF8(content)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	return firstColumn(rows), nil
}
