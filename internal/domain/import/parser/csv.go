package parser

import "strings"

// ParseCSV splits text into rows keyed by the header line.
//
// Quoting is not supported: a value containing a comma shifts the remaining
// cells of its line. Cells missing relative to the header are empty strings
// and extra cells are ignored.
func ParseCSV(text string) []RawRow {
	text = strings.TrimSpace(text)
	if text == "" {
		return []RawRow{}
	}

	lines := strings.Split(text, "\n")
	var headers []string
	rows := make([]RawRow, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}

		cells := strings.Split(line, ",")
		if headers == nil {
			headers = make([]string, len(cells))
			for i, h := range cells {
				headers[i] = strings.TrimSpace(h)
			}
			continue
		}

		row := NewRawRow(len(headers))
		for i, h := range headers {
			value := ""
			if i < len(cells) {
				value = strings.TrimSpace(cells[i])
			}
			row.Set(h, value)
		}
		rows = append(rows, row)
	}

	return rows
}
