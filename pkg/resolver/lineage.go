package resolver

import (
	"github.com/leapstack-labs/pqlc/pkg/pl"
	"github.com/leapstack-labs/pqlc/pkg/types"
)

// selectLineage builds the Lineage of a Select/Aggregate output: exactly
// the given assigns, each becoming one column (or, for a KindAll node, a
// wildcard column scoped to its own input) — spec §4.5.6.
func selectLineage(assigns []*pl.Expr) *pl.Lineage {
	cols := make([]pl.LineageColumn, 0, len(assigns))
	for _, a := range assigns {
		if a.Kind == pl.KindAll {
			cols = append(cols, pl.LineageColumn{Kind: pl.ColAll, InputID: a.AllWithin, Except: a.AllExcept})
			continue
		}
		name := columnNameOf(a)
		cols = append(cols, pl.LineageColumn{Kind: pl.ColSingle, Name: name, TargetID: a.ID, TargetName: name})
	}
	return &pl.Lineage{Columns: cols}
}

// deriveLineage builds the Lineage of a Derive output: the base relation's
// columns, with any assign sharing a name replacing its predecessor in
// place and any new name appended — spec §4.5.6's Derive rule.
func deriveLineage(base *pl.Lineage, assigns []*pl.Expr) *pl.Lineage {
	merged := append([]pl.LineageColumn{}, base.Columns...)
	for _, a := range assigns {
		name := columnNameOf(a)
		replaced := false
		for i := range merged {
			if merged[i].Kind == pl.ColSingle && merged[i].Name == name {
				merged[i] = pl.LineageColumn{Kind: pl.ColSingle, Name: name, TargetID: a.ID, TargetName: name}
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, pl.LineageColumn{Kind: pl.ColSingle, Name: name, TargetID: a.ID, TargetName: name})
		}
	}
	return &pl.Lineage{Columns: merged, Inputs: base.Inputs}
}

// joinLineage concatenates both sides' columns, per standard SQL join
// column-set semantics (spec §4.5.6's Join rule).
func joinLineage(left, right *pl.Lineage) *pl.Lineage {
	cols := make([]pl.LineageColumn, 0, len(left.Columns)+len(right.Columns))
	cols = append(cols, left.Columns...)
	cols = append(cols, right.Columns...)
	inputs := append(append([]pl.LineageInput{}, left.Inputs...), right.Inputs...)
	return &pl.Lineage{Columns: cols, Inputs: inputs}
}

// relationTyFromLineage derives the relation type implied by a Lineage's
// column list, used to type-annotate every transform's output node.
func relationTyFromLineage(lineage *pl.Lineage) *types.Ty {
	fields := make([]types.Field, 0, len(lineage.Columns))
	for _, c := range lineage.Columns {
		if c.Kind == pl.ColAll {
			fields = append(fields, types.Field{Kind: types.FieldUnpack})
			continue
		}
		fields = append(fields, types.Field{Kind: types.FieldSingle, Name: c.Name})
	}
	return types.RelationTy(fields...)
}

// inputsOrSelf returns lineage's own Inputs if it already names any, or a
// single self-referencing LineageInput otherwise — every transform's
// output must name at least one input relation (spec §4.5.6).
func inputsOrSelf(lineage *pl.Lineage, selfID pl.ID) []pl.LineageInput {
	if lineage != nil && len(lineage.Inputs) > 0 {
		return lineage.Inputs
	}
	return []pl.LineageInput{{ID: selfID}}
}
