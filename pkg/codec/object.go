package codec

import (
	"bytes"
)

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is an ordered JSON object. Records keep their schema field order
// and maps are stored with sorted keys, so marshaling an Object is
// deterministic.
type Object struct {
	members []Member
	index   map[string]int
}

// NewObject creates an empty object with room for n members.
func NewObject(n int) *Object {
	return &Object{
		members: make([]Member, 0, n),
		index:   make(map[string]int, n),
	}
}

// Set adds or replaces a member. New keys are appended.
func (o *Object) Set(key string, value any) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[key]; ok {
		o.members[i].Value = value
		return
	}
	o.index[key] = len(o.members)
	o.members = append(o.members, Member{Key: key, Value: value})
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.members[i].Value, true
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.members)
}

// Keys returns the member keys in order.
func (o *Object) Keys() []string {
	keys := make([]string, o.Len())
	for i := range keys {
		keys[i] = o.members[i].Key
	}
	return keys
}

// Members returns a copy of the members in order.
func (o *Object) Members() []Member {
	out := make([]Member, o.Len())
	copy(out, o.members)
	return out
}

// Map converts the object and everything nested in it to plain Go values:
// objects become map[string]any, arrays []any and integers int.
func (o *Object) Map() map[string]any {
	return Plain(o).(map[string]any)
}

// MarshalJSON renders the object compactly, in member order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := appendJSON(&buf, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Plain converts an intermediate value into plain Go values. Objects become
// map[string]any and int64 becomes int; everything else is unchanged.
func Plain(v any) any {
	switch x := v.(type) {
	case int64:
		return int(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Plain(e)
		}
		return out
	case *Object:
		if x == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(x.members))
		for _, m := range x.members {
			out[m.Key] = Plain(m.Value)
		}
		return out
	default:
		return v
	}
}
