// Package stdlib embeds the built-in std.prql module (spec §1, §4.4),
// the same way leapsql embeds its static web assets under
// internal/ui/resources via go:embed rather than reading them off disk
// at runtime.
package stdlib

import _ "embed"

// Source is the literal contents of std.prql.
//
//go:embed std.prql
var Source string

// Path is the well-known module path std.prql is always loaded from
// (spec §4.4 rule 4), used as the synthetic source key moduletree.Compose
// feeds to the parser.
const Path = "std.prql"
