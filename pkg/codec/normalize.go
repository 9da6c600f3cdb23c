package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/ssargent/typeline/pkg/errors"
	"github.com/ssargent/typeline/pkg/schema"
)

// Normalize checks a value produced by encoding/json (decoded with
// UseNumber) against t and returns the canonical intermediate value:
// int64 for Int, float64 for Float, []any for sequences and sets, and
// *Object for maps and records. Integers widen to Float; integral numbers
// are accepted for Int. Set elements are deduplicated and sorted.
func Normalize(t *schema.Type, raw any) (any, error) {
	return normalize(t, raw, nil)
}

func normalize(t *schema.Type, raw any, path []string) (any, error) {
	switch t.Kind {
	case schema.KindOptional:
		if raw == nil {
			return nil, nil
		}
		return normalize(t.Elem, raw, path)
	case schema.KindNull:
		if raw != nil {
			return nil, decodeMismatch(path, t, raw)
		}
		return nil, nil
	}
	if raw == nil {
		return nil, decodeMismatch(path, t, raw)
	}

	switch t.Kind {
	case schema.KindUnion:
		return normalizeUnion(t, raw, path)

	case schema.KindBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}

	case schema.KindInt:
		if n, ok := asInt(raw); ok {
			return n, nil
		}

	case schema.KindFloat:
		if f, ok := asFloat(raw); ok {
			return f, nil
		}

	case schema.KindString:
		if s, ok := raw.(string); ok {
			return s, nil
		}

	case schema.KindList:
		if seq, ok := raw.([]any); ok {
			return normalizeSeq(t.Elem, seq, path)
		}

	case schema.KindTuple:
		if seq, ok := raw.([]any); ok {
			if len(seq) != t.Len {
				return nil, errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
					Path(clonePath(path)...).
					Value(raw).
					Detail("expected %s, got %d elements", t, len(seq)).
					Build()
			}
			return normalizeSeq(t.Elem, seq, path)
		}

	case schema.KindSet:
		if seq, ok := raw.([]any); ok {
			elems, err := normalizeSeq(t.Elem, seq, path)
			if err != nil {
				return nil, err
			}
			return sortedSet(elems), nil
		}

	case schema.KindMap:
		if m, ok := raw.(map[string]any); ok {
			return normalizeMap(t, m, path)
		}

	case schema.KindRecord:
		if m, ok := raw.(map[string]any); ok {
			return normalizeRecord(t.Record, m, path)
		}
	}

	return nil, decodeMismatch(path, t, raw)
}

func asInt(raw any) (int64, bool) {
	switch x := raw.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		f, err := x.Float64()
		if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	case int64:
		return x, true
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}

func asFloat(raw any) (float64, bool) {
	switch x := raw.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func normalizeSeq(elem *schema.Type, seq []any, path []string) ([]any, error) {
	out := make([]any, len(seq))
	for i, e := range seq {
		v, err := normalize(elem, e, appendPath(path, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func normalizeMap(t *schema.Type, m map[string]any, path []string) (any, error) {
	type entry struct {
		key   any
		value any
	}
	entries := make([]entry, 0, len(m))
	for k, raw := range m {
		key, err := parseKey(t.Key, k, path)
		if err != nil {
			return nil, err
		}
		value, err := normalize(t.Elem, raw, appendPath(path, k))
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: key, value: value})
	}
	slices.SortFunc(entries, func(a, b entry) int { return compareScalar(a.key, b.key) })

	obj := NewObject(len(entries))
	for _, e := range entries {
		obj.Set(keyText(e.key), e.value)
	}
	return obj, nil
}

// parseKey reads a JSON object key as a value of the map key type.
func parseKey(t *schema.Type, k string, path []string) (any, error) {
	switch t.Kind {
	case schema.KindString:
		return k, nil
	case schema.KindInt:
		if n, err := strconv.ParseInt(k, 10, 64); err == nil {
			return n, nil
		}
	case schema.KindBool:
		if b, err := strconv.ParseBool(strings.ToLower(k)); err == nil {
			return b, nil
		}
	}
	return nil, errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
		Path(appendPath(path, k)...).
		Value(k).
		Detail("map key %q is not a valid %s", k, t).
		Build()
}

func normalizeRecord(s *schema.Schema, m map[string]any, path []string) (any, error) {
	obj := NewObject(s.Len())
	for i := 0; i < s.Len(); i++ {
		f := s.Field(i)
		v, err := normalize(f.Type, m[f.Name], appendPath(path, f.Name))
		if err != nil {
			return nil, err
		}
		obj.Set(f.Name, v)
	}
	return obj, nil
}

// normalizeUnion narrows by the JSON kind of raw. Integer literals prefer
// an int member and fall back to float; members of the same kind are tried
// in declaration order.
func normalizeUnion(t *schema.Type, raw any, path []string) (any, error) {
	var kinds []schema.Kind
	switch x := raw.(type) {
	case bool:
		kinds = []schema.Kind{schema.KindBool}
	case json.Number:
		if strings.ContainsAny(x.String(), ".eE") {
			kinds = []schema.Kind{schema.KindFloat, schema.KindInt}
		} else {
			kinds = []schema.Kind{schema.KindInt, schema.KindFloat}
		}
	case int64:
		kinds = []schema.Kind{schema.KindInt, schema.KindFloat}
	case float64:
		kinds = []schema.Kind{schema.KindFloat, schema.KindInt}
	case string:
		kinds = []schema.Kind{schema.KindString}
	case []any:
		kinds = []schema.Kind{schema.KindList, schema.KindTuple, schema.KindSet}
	case map[string]any:
		kinds = []schema.Kind{schema.KindRecord, schema.KindMap}
	}

	var firstErr error
	for _, kind := range kinds {
		for _, m := range t.Members {
			if m.Kind != kind {
				continue
			}
			v, err := normalize(m, raw, path)
			if err == nil {
				return v, nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, decodeMismatch(path, t, raw)
}

func decodeMismatch(path []string, t *schema.Type, raw any) error {
	return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
		Path(clonePath(path)...).
		Value(raw).
		Detail("expected %s, got %s", t, describeRaw(raw)).
		Build()
}

// describeRaw names decoded JSON the way it appeared in the text.
func describeRaw(raw any) string {
	switch x := raw.(type) {
	case nil:
		return "null"
	case bool:
		return "bool " + strconv.FormatBool(x)
	case json.Number:
		return "number " + x.String()
	case string:
		return "string " + strconv.Quote(x)
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", raw)
}
