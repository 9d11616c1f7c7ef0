package store

import (
	"fmt"
	"strings"
)

// textArray scans a Postgres text[] column into a []string. The stdlib
// driver hands arrays over in their literal form ({a,b,"c d"}), so this
// parses that representation directly.
type textArray struct {
	dest *[]string
}

func (a textArray) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*a.dest = []string{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan text array: unsupported type %T", src)
	}
	parsed, err := parseTextArray(raw)
	if err != nil {
		return err
	}
	*a.dest = parsed
	return nil
}

func parseTextArray(raw string) ([]string, error) {
	if len(raw) < 2 || raw[0] != '{' || raw[len(raw)-1] != '}' {
		return nil, fmt.Errorf("scan text array: malformed literal %q", raw)
	}
	body := raw[1 : len(raw)-1]
	if body == "" {
		return []string{}, nil
	}

	var (
		out      []string
		elem     strings.Builder
		inQuotes bool
		escaped  bool
	)
	flush := func() {
		value := elem.String()
		if value == "NULL" {
			value = ""
		}
		out = append(out, value)
		elem.Reset()
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case escaped:
			elem.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inQuotes = !inQuotes
			if inQuotes {
				// a quoted element may be the literal string NULL
				elem.WriteByte(0)
			}
		case c == ',' && !inQuotes:
			flush()
		default:
			elem.WriteByte(c)
		}
	}
	flush()

	// strip the quote markers
	for i, value := range out {
		out[i] = strings.ReplaceAll(value, "\x00", "")
	}
	return out, nil
}
