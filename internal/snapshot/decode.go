package snapshot

import (
	"fmt"
	"strconv"
	"strings"
)

// DecodeError reports where in the input a parse failed.
type DecodeError struct {
	Offset int
	Msg    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("snapshot: offset %d: %s", e.Offset, e.Msg)
}

// Unmarshal parses a single document into the snapshot value model:
// nil, bool, float64, string, []any, and map[string]any. All numbers
// come back as float64. Trailing content after the value is an error.
func Unmarshal(data []byte) (any, error) {
	d := &decoder{data: data}
	d.skipSpace()
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	d.skipSpace()
	if d.off != len(d.data) {
		return nil, d.errf("trailing data after value")
	}
	return v, nil
}

type decoder struct {
	data []byte
	off  int
}

func (d *decoder) errf(format string, args ...any) error {
	return &DecodeError{Offset: d.off, Msg: fmt.Sprintf(format, args...)}
}

func (d *decoder) skipSpace() {
	for d.off < len(d.data) {
		switch d.data[d.off] {
		case ' ', '\t', '\n', '\r':
			d.off++
		default:
			return
		}
	}
}

func (d *decoder) value() (any, error) {
	if d.off >= len(d.data) {
		return nil, d.errf("unexpected end of input")
	}
	switch c := d.data[d.off]; {
	case c == '{':
		return d.object()
	case c == '[':
		return d.array()
	case c == '"':
		return d.str()
	case c == 't':
		return true, d.literal("true")
	case c == 'f':
		return false, d.literal("false")
	case c == 'n':
		return nil, d.literal("null")
	case c == '-' || (c >= '0' && c <= '9'):
		return d.number()
	default:
		return nil, d.errf("unexpected character %q", c)
	}
}

func (d *decoder) literal(lit string) error {
	if len(d.data)-d.off < len(lit) || string(d.data[d.off:d.off+len(lit)]) != lit {
		return d.errf("invalid literal")
	}
	d.off += len(lit)
	return nil
}

func isNumberByte(c byte) bool {
	return c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' ||
		(c >= '0' && c <= '9')
}

func (d *decoder) number() (any, error) {
	start := d.off
	for d.off < len(d.data) && isNumberByte(d.data[d.off]) {
		d.off++
	}
	tok := string(d.data[start:d.off])
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		d.off = start
		return nil, d.errf("invalid number %q", tok)
	}
	return f, nil
}

func (d *decoder) str() (string, error) {
	d.off++ // opening quote
	var sb strings.Builder
	for d.off < len(d.data) {
		c := d.data[d.off]
		switch c {
		case '"':
			d.off++
			return sb.String(), nil
		case '\\':
			d.off++
			if d.off >= len(d.data) {
				return "", d.errf("unterminated escape")
			}
			switch e := d.data[d.off]; e {
			case '"', '\\':
				sb.WriteByte(e)
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			default:
				return "", d.errf("unsupported escape \\%c", e)
			}
			d.off++
		default:
			sb.WriteByte(c)
			d.off++
		}
	}
	return "", d.errf("unterminated string")
}

func (d *decoder) array() (any, error) {
	d.off++ // '['
	out := []any{}
	d.skipSpace()
	if d.off < len(d.data) && d.data[d.off] == ']' {
		d.off++
		return out, nil
	}
	for {
		d.skipSpace()
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		d.skipSpace()
		if d.off >= len(d.data) {
			return nil, d.errf("unterminated array")
		}
		switch d.data[d.off] {
		case ',':
			d.off++
		case ']':
			d.off++
			return out, nil
		default:
			return nil, d.errf("expected ',' or ']' in array")
		}
	}
}

func (d *decoder) object() (any, error) {
	d.off++ // '{'
	out := map[string]any{}
	d.skipSpace()
	if d.off < len(d.data) && d.data[d.off] == '}' {
		d.off++
		return out, nil
	}
	for {
		d.skipSpace()
		if d.off >= len(d.data) || d.data[d.off] != '"' {
			return nil, d.errf("expected object key")
		}
		key, err := d.str()
		if err != nil {
			return nil, err
		}
		d.skipSpace()
		if d.off >= len(d.data) || d.data[d.off] != ':' {
			return nil, d.errf("expected ':' after key %q", key)
		}
		d.off++
		d.skipSpace()
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		out[key] = v
		d.skipSpace()
		if d.off >= len(d.data) {
			return nil, d.errf("unterminated object")
		}
		switch d.data[d.off] {
		case ',':
			d.off++
		case '}':
			d.off++
			return out, nil
		default:
			return nil, d.errf("expected ',' or '}' in object")
		}
	}
}
