package fixturesql

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// NormalizeJSON parses text and re-serializes it compactly. Object key order and
// number literals are kept as written, and strings are re-encoded without HTML escaping.
func NormalizeJSON(text string) (string, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var out bytes.Buffer
	if err := writeJSONValue(dec, &out); err != nil {
		return "", &MalformedJSONError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return "", &MalformedJSONError{Err: err}
	}
	return out.String(), nil
}

// CompareJSON reports whether expected and actual are the same document after
// normalization. Key order is significant.
func CompareJSON(expected, actual string) error {
	want, err := NormalizeJSON(expected)
	if err != nil {
		return withOperand(err, "expected")
	}
	got, err := NormalizeJSON(actual)
	if err != nil {
		return withOperand(err, "actual")
	}
	if want != got {
		return &JSONMismatchError{Expected: want, Actual: got}
	}
	return nil
}

// JSONArrayLength returns the element count of a top-level JSON array.
func JSONArrayLength(text string) (int, error) {
	if _, err := NormalizeJSON(text); err != nil {
		return 0, err
	}

	dec := json.NewDecoder(strings.NewReader(text))
	tok, err := dec.Token()
	if err != nil {
		return 0, &MalformedJSONError{Err: err}
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return 0, ErrNotJSONArray
	}

	n := 0
	for dec.More() {
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return 0, &MalformedJSONError{Err: err}
		}
		n++
	}
	return n, nil
}

func withOperand(err error, operand string) error {
	var mj *MalformedJSONError
	if errors.As(err, &mj) {
		return &MalformedJSONError{Operand: operand, Err: mj.Err}
	}
	return err
}

// writeJSONValue copies one value from dec to out token by token
func writeJSONValue(dec *json.Decoder, out *bytes.Buffer) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			out.WriteByte('{')
			for i := 0; dec.More(); i++ {
				if i > 0 {
					out.WriteByte(',')
				}
				keyTok, err := dec.Token()
				if err != nil {
					return err
				}
				key, ok := keyTok.(string)
				if !ok {
					return fmt.Errorf("object key must be a string, got %v", keyTok)
				}
				if err := writeJSONString(out, key); err != nil {
					return err
				}
				out.WriteByte(':')
				if err := writeJSONValue(dec, out); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			out.WriteByte('}')
		case '[':
			out.WriteByte('[')
			for i := 0; dec.More(); i++ {
				if i > 0 {
					out.WriteByte(',')
				}
				if err := writeJSONValue(dec, out); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			out.WriteByte(']')
		default:
			return fmt.Errorf("unexpected delimiter %v", v)
		}
	case string:
		return writeJSONString(out, v)
	case json.Number:
		out.WriteString(v.String())
	case bool:
		if v {
			out.WriteString("true")
		} else {
			out.WriteString("false")
		}
	case nil:
		out.WriteString("null")
	default:
		return fmt.Errorf("unexpected token %v", v)
	}
	return nil
}

func writeJSONString(out *bytes.Buffer, s string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	out.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return nil
}
