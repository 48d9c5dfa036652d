package compiler

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/pqlc/pkg/pl"
)

// DecodeAnnotation decodes a resolved `@{...}` tuple annotation (spec
// §3.2) into a typed Go struct, e.g. a query's `target`/`version`
// metadata or a user-defined `@{owner: "...", tags: [...]}` tag block.
// Grounded on the teacher's own use of mapstructure to decode a koanf
// tree into a typed Config (internal/cli/config/loader.go): here the
// "loosely typed tree" is a resolved PL tuple instead of a koanf map.
func DecodeAnnotation(e *pl.Expr, out any) error {
	if e == nil {
		return fmt.Errorf("compiler: nil annotation")
	}
	raw, err := annotationToGo(e)
	if err != nil {
		return fmt.Errorf("compiler: %w", err)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "annotation",
	})
	if err != nil {
		return fmt.Errorf("compiler: building annotation decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("compiler: decoding annotation: %w", err)
	}
	return nil
}

// annotationToGo converts a resolved PL literal/tuple/array expression
// into plain Go values (map[string]any, []any, string, ...) suitable for
// mapstructure.Decode.
func annotationToGo(e *pl.Expr) (any, error) {
	switch e.Kind {
	case pl.KindTuple:
		out := make(map[string]any, len(e.Elems))
		for _, elem := range e.Elems {
			v, err := annotationToGo(elem)
			if err != nil {
				return nil, err
			}
			out[elem.Alias] = v
		}
		return out, nil
	case pl.KindArray:
		out := make([]any, 0, len(e.Elems))
		for _, elem := range e.Elems {
			v, err := annotationToGo(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case pl.KindLiteral:
		return e.Raw, nil
	case pl.KindIdent:
		if len(e.Parts) > 0 {
			return e.Parts[len(e.Parts)-1], nil
		}
		return e.Raw, nil
	default:
		return nil, fmt.Errorf("unsupported annotation value kind %v", e.Kind)
	}
}
