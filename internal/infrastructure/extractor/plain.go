package extractor

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

func extractPlain(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("not valid UTF-8 text")
	}
	return string(raw), nil
}

func extractCSV(r io.Reader) (string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var sb strings.Builder
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read csv row: %w", err)
		}
		sb.WriteString(strings.Join(record, " "))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
