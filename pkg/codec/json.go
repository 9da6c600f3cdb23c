package codec

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// appendJSON writes the compact JSON text of an intermediate value.
func appendJSON(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(x))
	case int64:
		buf.WriteString(strconv.FormatInt(x, 10))
	case float64:
		s, err := formatFloat(x)
		if err != nil {
			return err
		}
		buf.WriteString(s)
	case string:
		buf.WriteString(quoteString(x))
	case []any:
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Object:
		if x == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		for i, m := range x.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(quoteString(m.Key))
			buf.WriteByte(':')
			if err := appendJSON(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		data, err := marshal(v)
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	return nil
}

// marshal is json.Marshal without HTML escaping or the trailing newline.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// quoteString renders s as a JSON string literal.
func quoteString(s string) string {
	data, err := marshal(s)
	if err != nil {
		// strings always marshal
		panic(err)
	}
	return string(data)
}

// formatFloat renders f the way encoding/json does. NaN and infinities have
// no JSON form.
func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("unsupported float value %v", f)
	}
	data, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// toJSON returns the compact JSON text of an intermediate value.
func toJSON(v any) (string, error) {
	var buf bytes.Buffer
	if err := appendJSON(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// compareScalar orders set elements: numbers numerically, strings and
// bools naturally, anything else by JSON text.
func compareScalar(a, b any) int {
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return cmp.Compare(x, y)
		case float64:
			return cmp.Compare(float64(x), y)
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return cmp.Compare(x, y)
		case int64:
			return cmp.Compare(x, float64(y))
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	ja, _ := toJSON(a)
	jb, _ := toJSON(b)
	return strings.Compare(ja, jb)
}
