package ast

import "github.com/leapstack-labs/pqlc/pkg/types"

// Ty is the type-syntax representation used by parse-level nodes (`let x
// <ty>`, function parameter/return annotations). It is the same
// representation the resolver and lowering passes use for resolved types
// (pkg/types.Ty): an unresolved reference parses as Kind == KindIdent and
// is replaced in place once the resolver looks it up, so one struct spans
// both "type as written" and "type as resolved" per spec §3.3.
type Ty = types.Ty
