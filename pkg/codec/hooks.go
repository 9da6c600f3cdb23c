package codec

import (
	"github.com/ssargent/typeline/pkg/schema"
)

// EncodeHook overrides the fragment written for a field. It receives the
// field's declared type and its Go value and runs after the default
// encoding; when it reports true its result replaces the default fragment,
// even if the default failed.
type EncodeHook func(t *schema.Type, value any) (string, bool)

// DecodeHook overrides how a raw fragment becomes JSON text. When it
// reports true its result is used as the field's JSON text instead of
// Textualize. Literal control characters inside string literals of the
// result are still escaped.
type DecodeHook func(t *schema.Type, fragment string) (string, bool)

// Hooks groups the optional per-field overrides of a Codec.
type Hooks struct {
	Encode EncodeHook
	Decode DecodeHook
}

// ChainEncode tries hooks in order; the first that handles the field wins.
func ChainEncode(hooks ...EncodeHook) EncodeHook {
	return func(t *schema.Type, value any) (string, bool) {
		for _, h := range hooks {
			if h == nil {
				continue
			}
			if s, ok := h(t, value); ok {
				return s, true
			}
		}
		return "", false
	}
}

// ChainDecode tries hooks in order; the first that handles the field wins.
func ChainDecode(hooks ...DecodeHook) DecodeHook {
	return func(t *schema.Type, fragment string) (string, bool) {
		for _, h := range hooks {
			if h == nil {
				continue
			}
			if s, ok := h(t, fragment); ok {
				return s, true
			}
		}
		return "", false
	}
}
