package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON reads an array of objects. Any other top-level value, including
// blank input, yields no rows. Elements that are not objects become rows
// with no fields.
//
// Strings are kept verbatim, numbers as their literal text and null as "".
// Booleans, objects and arrays are kept as JSON text.
func ParseJSON(text string) ([]RawRow, error) {
	if strings.TrimSpace(text) == "" {
		return []RawRow{}, nil
	}

	data := []byte(text)
	if !json.Valid(data) {
		return nil, ErrMalformedJSON
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, ErrMalformedJSON
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return []RawRow{}, nil
	}

	rows := make([]RawRow, 0)
	for dec.More() {
		var elem json.RawMessage
		if err := dec.Decode(&elem); err != nil {
			return nil, ErrMalformedJSON
		}
		row, err := objectRow(elem)
		if err != nil {
			return nil, ErrMalformedJSON
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func objectRow(elem json.RawMessage) (RawRow, error) {
	elem = bytes.TrimSpace(elem)
	if len(elem) == 0 || elem[0] != '{' {
		return NewRawRow(0), nil
	}

	dec := json.NewDecoder(bytes.NewReader(elem))
	if _, err := dec.Token(); err != nil {
		return RawRow{}, err
	}

	row := NewRawRow(8)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return RawRow{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return RawRow{}, fmt.Errorf("unexpected key token %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return RawRow{}, err
		}
		text, err := scalarText(value)
		if err != nil {
			return RawRow{}, err
		}
		row.Set(key, text)
	}

	return row, nil
}

func scalarText(value json.RawMessage) (string, error) {
	value = bytes.TrimSpace(value)
	switch {
	case len(value) == 0, bytes.Equal(value, []byte("null")):
		return "", nil
	case value[0] == '"':
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(value), nil
}
