package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList stores a string slice as a JSON column so the same model works
// on postgres and the sqlite test store.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value any) error {
	return scanJSON(value, l)
}

// Contains reports whether the list holds the given value.
func (l StringList) Contains(v string) bool {
	for _, s := range l {
		if s == v {
			return true
		}
	}
	return false
}

// JSONMap stores loosely-typed provider metadata as a JSON column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "null", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(value any) error {
	return scanJSON(value, m)
}

// Header is one raw internet message header.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HeaderList stores raw headers as a JSON column.
type HeaderList []Header

func (h HeaderList) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (h *HeaderList) Scan(value any) error {
	return scanJSON(value, h)
}

func scanJSON(value, out any) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, out)
	case string:
		return json.Unmarshal([]byte(v), out)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}
}
