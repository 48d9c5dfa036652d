// Package lowering implements spec §4.7: the single forward pass that
// turns resolved PL into RQ, allocating CIDs and TIDs as it walks each
// pipeline from its source outward. It is grounded on the teacher's
// `pkg/dialects`/compile-plan builders (a single forward pass assembling
// an ordered operator list from a resolved tree), generalized from SQL
// plan assembly to PQL's relation-typed PL pipelines.
package lowering

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/pqlc/pkg/decl"
	"github.com/leapstack-labs/pqlc/pkg/pl"
	"github.com/leapstack-labs/pqlc/pkg/rq"
)

// lowering carries the mutable CID/TID counters and node-id mappings of
// spec §4.7's algorithm for one compile job.
type lowering struct {
	nextCID rq.CID
	nextTID rq.TID

	columnMapping map[pl.ID]rq.CID
	tableMapping  map[pl.ID]rq.TID
	tables        []*rq.TableDecl

	// currentPartition/currentSort are copied into nested Take/Compute
	// steps. lowerGroup sets currentPartition for its inner pipeline; no
	// lowering step assigns currentSort, so the emitted TakeSort and a
	// window's Sort are always empty.
	currentPartition []rq.CID
	currentSort      []rq.SortItem

	// currentFrame* carry a Window's frame bounds down into nested Compute
	// steps ("each Compute inside picks up the frame").
	currentFrameKind string
	currentFrameLow  *int
	currentFrameHigh *int
}

func newLowering() *lowering {
	return &lowering{columnMapping: map[pl.ID]rq.CID{}, tableMapping: map[pl.ID]rq.TID{}}
}

func (l *lowering) allocCID() rq.CID { l.nextCID++; return l.nextCID }
func (l *lowering) allocTID() rq.TID { l.nextTID++; return l.nextTID }

// LowerToIR is the library-surface entry point (spec §6.1): it looks up
// `mainPath` in the resolved RootModule and lowers the relation it names.
func LowerToIR(root *decl.RootModule, mainPath []string) (*rq.RelationalQuery, *decl.RootModule, error) {
	d, err := decl.Lookup(root.Module, mainPath)
	if err != nil {
		return nil, root, fmt.Errorf("lowering: %w", err)
	}
	if d.Kind != decl.KindExpr || d.Expr == nil {
		return nil, root, fmt.Errorf("lowering: %v does not name a relation expression", mainPath)
	}

	l := newLowering()
	transforms, err := l.lowerPipeline(d.Expr)
	if err != nil {
		return nil, root, fmt.Errorf("lowering: %w", err)
	}

	rel := rq.Relation{Kind: rq.RelPipeline, Columns: lineageToRelCols(d.Expr.Lineage), Pipeline: transforms}
	return &rq.RelationalQuery{Tables: l.tables, Relation: rel}, root, nil
}

// lowerPipeline returns the ordered RQ transform sequence ending at e,
// per spec §4.7's algorithm: recurse into a TransformCall's Input first,
// then append this node's own step(s); anything else is a pipeline
// source and lowers to a single From.
func (l *lowering) lowerPipeline(e *pl.Expr) ([]rq.Transform, error) {
	if e.Kind != pl.KindTransformCall {
		ref, err := l.relationToTableRef(e)
		if err != nil {
			return nil, err
		}
		return []rq.Transform{{Kind: rq.TFrom, From: ref}}, nil
	}
	prefix, err := l.lowerPipeline(e.Transform.Input)
	if err != nil {
		return nil, err
	}
	steps, err := l.lowerTransformStepOnly(e)
	if err != nil {
		return nil, err
	}
	return append(prefix, steps...), nil
}

// lowerTransformStepOnly lowers e's own transform step(s), assuming its
// Input has already been lowered by the caller (used directly by
// lowerPipeline, and by Group/Window/Loop to lower their inner pipeline
// without re-lowering the shared Input prefix).
func (l *lowering) lowerTransformStepOnly(e *pl.Expr) ([]rq.Transform, error) {
	tc := e.Transform
	switch tc.Kind {
	case pl.TSelect:
		return l.lowerSelect(e)
	case pl.TDerive:
		return l.lowerDerive(e)
	case pl.TFilter:
		return l.lowerFilter(e)
	case pl.TAggregate:
		return l.lowerAggregate(e)
	case pl.TSort:
		return l.lowerSort(e)
	case pl.TTake:
		return l.lowerTake(e)
	case pl.TJoin:
		return l.lowerJoin(e)
	case pl.TGroup:
		return l.lowerGroup(e)
	case pl.TWindow:
		return l.lowerWindow(e)
	case pl.TAppend:
		return l.lowerAppend(e)
	case pl.TLoop:
		return l.lowerLoop(e)
	default:
		return nil, fmt.Errorf("lowering: unhandled transform kind %v", tc.Kind)
	}
}

// windowActive reports whether any Group/Window context is currently
// threaded onto this lowering pass, per spec §4.7's Compute rule.
func (l *lowering) windowActive() bool {
	return len(l.currentPartition) > 0 || len(l.currentSort) > 0 || l.currentFrameKind != ""
}

func (l *lowering) windowSpec() *rq.WindowSpec {
	if !l.windowActive() {
		return nil
	}
	return &rq.WindowSpec{
		Partition: append([]rq.CID{}, l.currentPartition...),
		Sort:      append([]rq.SortItem{}, l.currentSort...),
		FrameKind: l.currentFrameKind,
		FrameLow:  l.currentFrameLow,
		FrameHigh: l.currentFrameHigh,
	}
}

// lowerAssign lowers one Select/Derive/Aggregate/Sort-key/Group-by
// expression to a CID, per spec §4.7: a bare reference to an
// already-mapped column reuses its CID with no new step; a wildcard
// allocates a single new CID that the backend interprets as "all
// remaining columns of this input"; anything else becomes a Compute step
// over a freshly allocated CID.
func (l *lowering) lowerAssign(a *pl.Expr, isAggregation bool) (rq.CID, []rq.Transform, error) {
	if a.Kind == pl.KindAll {
		return l.allocCID(), nil, nil
	}
	if a.Kind == pl.KindIdent && a.TargetID != 0 {
		if cid, ok := l.columnMapping[a.TargetID]; ok {
			l.columnMapping[a.ID] = cid
			return cid, nil, nil
		}
	}
	expr, err := l.lowerScalarExpr(a)
	if err != nil {
		return 0, nil, err
	}
	cid := l.allocCID()
	l.columnMapping[a.ID] = cid
	if a.TargetID != 0 {
		l.columnMapping[a.TargetID] = cid
	}
	cd := &rq.ColumnDecl{ID: cid, Expr: expr, IsAggregation: isAggregation, Window: l.windowSpec()}
	return cid, []rq.Transform{{Kind: rq.TCompute, Compute: cd}}, nil
}

// lowerAssignList lowers an ordered list of assigns, threading the
// resulting Compute steps and CIDs in source order.
func (l *lowering) lowerAssignList(assigns []*pl.Expr, isAggregation bool) ([]rq.CID, []rq.Transform, error) {
	cids := make([]rq.CID, 0, len(assigns))
	var steps []rq.Transform
	for _, a := range assigns {
		cid, s, err := l.lowerAssign(a, isAggregation)
		if err != nil {
			return nil, nil, err
		}
		cids = append(cids, cid)
		steps = append(steps, s...)
	}
	return cids, steps, nil
}

// lowerScalarExpr converts a resolved PL scalar expression into its RQ
// equivalent, per spec §4.7.
func (l *lowering) lowerScalarExpr(e *pl.Expr) (rq.Expr, error) {
	switch e.Kind {
	case pl.KindLiteral:
		return rq.Expr{Kind: rq.ELiteral, Literal: e.Raw}, nil

	case pl.KindIdent:
		cid, ok := l.columnMapping[e.TargetID]
		if !ok {
			return rq.Expr{}, fmt.Errorf("lowering: reference to unmapped column (target id %d)", e.TargetID)
		}
		return rq.Expr{Kind: rq.EColumnRef, ColumnRef: cid}, nil

	case pl.KindIndirection:
		// RQ has no dedicated tuple-field-access variant, so a resolved
		// positional indirection lowers to an "indirection" operator over
		// its base and a literal 1-based position, the same simplification
		// SString/FString get folding into ESString.
		if len(e.Args) != 1 {
			return rq.Expr{}, fmt.Errorf("lowering: malformed indirection node")
		}
		base, err := l.lowerScalarExpr(e.Args[0])
		if err != nil {
			return rq.Expr{}, err
		}
		return rq.Expr{Kind: rq.EOperator, OpName: "indirection", Args: []rq.Expr{
			base,
			{Kind: rq.ELiteral, Literal: strconv.Itoa(e.Position)},
		}}, nil

	case pl.KindParam:
		return rq.Expr{Kind: rq.EParam, Param: e.ParamName}, nil

	case pl.KindRqOperator:
		args := make([]rq.Expr, 0, len(e.Args))
		for _, a := range e.Args {
			ra, err := l.lowerScalarExpr(a)
			if err != nil {
				return rq.Expr{}, err
			}
			args = append(args, ra)
		}
		return rq.Expr{Kind: rq.EOperator, OpName: e.OpName, Args: args}, nil

	case pl.KindSString, pl.KindFString:
		parts, err := l.lowerInterp(e.Interp)
		if err != nil {
			return rq.Expr{}, err
		}
		return rq.Expr{Kind: rq.ESString, SString: parts}, nil

	case pl.KindCase:
		arms := make([]rq.CaseArm, 0, len(e.Branches))
		for _, b := range e.Branches {
			cond, err := l.lowerScalarExpr(b.Cond)
			if err != nil {
				return rq.Expr{}, err
			}
			val, err := l.lowerScalarExpr(b.Value)
			if err != nil {
				return rq.Expr{}, err
			}
			arms = append(arms, rq.CaseArm{Cond: cond, Value: val})
		}
		return rq.Expr{Kind: rq.ECase, Case: arms}, nil

	default:
		return rq.Expr{}, fmt.Errorf("lowering: unhandled scalar expression kind %v", e.Kind)
	}
}

func (l *lowering) lowerInterp(parts []pl.InterpPart) ([]rq.InterpPart, error) {
	out := make([]rq.InterpPart, 0, len(parts))
	for _, p := range parts {
		if p.Expr == nil {
			out = append(out, rq.InterpPart{Text: p.Text})
			continue
		}
		e, err := l.lowerScalarExpr(p.Expr)
		if err != nil {
			return nil, err
		}
		out = append(out, rq.InterpPart{Expr: &e})
	}
	return out, nil
}

// lowerSelect implements spec §4.7's Select rule: lower each assign,
// reusing CIDs for bare column references, then narrow to exactly the
// selected columns in order.
func (l *lowering) lowerSelect(e *pl.Expr) ([]rq.Transform, error) {
	cids, steps, err := l.lowerAssignList(e.Transform.Assigns, false)
	if err != nil {
		return nil, err
	}
	return append(steps, rq.Transform{Kind: rq.TSelect, Select: cids}), nil
}

// lowerDerive implements spec §4.7's Derive rule: lower each assign as a
// Compute; the column list grows and nothing is pruned, so there is no
// trailing Select (RQ has no distinct Derive transform tag).
func (l *lowering) lowerDerive(e *pl.Expr) ([]rq.Transform, error) {
	_, steps, err := l.lowerAssignList(e.Transform.Assigns, false)
	return steps, err
}

// lowerFilter implements spec §4.7's Filter rule.
func (l *lowering) lowerFilter(e *pl.Expr) ([]rq.Transform, error) {
	pred, err := l.lowerScalarExpr(e.Transform.Predicate)
	if err != nil {
		return nil, err
	}
	return []rq.Transform{{Kind: rq.TFilter, Filter: &pred}}, nil
}

// lowerAggregate implements spec §4.7's Aggregate rule: each assign
// becomes an aggregation Compute; the partition comes from the enclosing
// Group's context, since buildAggregate itself never populates By.
func (l *lowering) lowerAggregate(e *pl.Expr) ([]rq.Transform, error) {
	cids, steps, err := l.lowerAssignList(e.Transform.Assigns, true)
	if err != nil {
		return nil, err
	}
	steps = append(steps, rq.Transform{
		Kind:               rq.TAggregate,
		AggregatePartition: append([]rq.CID{}, l.currentPartition...),
		AggregateCompute:   cids,
	})
	return steps, nil
}

// lowerSort implements spec §4.7's Sort rule. Desc/Asc is already resolved
// upstream by the resolver's sortKeysFrom (std.neg stripping happens
// there, not here).
func (l *lowering) lowerSort(e *pl.Expr) ([]rq.Transform, error) {
	var steps []rq.Transform
	items := make([]rq.SortItem, 0, len(e.Transform.Sort))
	for _, k := range e.Transform.Sort {
		cid, s, err := l.lowerAssign(k.Column, false)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s...)
		dir := rq.Asc
		if k.Desc {
			dir = rq.Desc
		}
		items = append(items, rq.SortItem{Direction: dir, Column: cid})
	}
	steps = append(steps, rq.Transform{Kind: rq.TSort, SortKeys: items})
	return steps, nil
}

// lowerTake lowers a Take: the range bound comes from its own argument,
// and partition and sort are copied from currentPartition/currentSort.
// currentSort is never set, so TakeSort is always empty; a preceding
// sort is not captured.
func (l *lowering) lowerTake(e *pl.Expr) ([]rq.Transform, error) {
	tr, err := l.takeRangeFrom(e.Transform.Range)
	if err != nil {
		return nil, err
	}
	return []rq.Transform{{
		Kind:          rq.TTake,
		TakeRange:     tr,
		TakePartition: append([]rq.CID{}, l.currentPartition...),
		TakeSort:      append([]rq.SortItem{}, l.currentSort...),
	}}, nil
}

// takeRangeFrom reads a Take argument that is either a plain upper-bound
// literal (`take 10`) or the {start, end} tuple that astexpand's Range
// rewrite (or the resolver's rangeToTuple) produces for `take 5..10`.
func (l *lowering) takeRangeFrom(rng *pl.Expr) (*rq.TakeRange, error) {
	if rng == nil {
		return nil, nil
	}
	if rng.Kind == pl.KindTuple && len(rng.Elems) == 2 {
		low, err := literalIntPtr(rng.Elems[0])
		if err != nil {
			return nil, err
		}
		high, err := literalIntPtr(rng.Elems[1])
		if err != nil {
			return nil, err
		}
		return &rq.TakeRange{Low: low, High: high}, nil
	}
	high, err := literalIntPtr(rng)
	if err != nil {
		return nil, err
	}
	return &rq.TakeRange{High: high}, nil
}

// literalIntPtr reads an integer bound out of a resolved literal, treating
// an empty Raw (the Range-to-Tuple encoding of a nil Start/End) as unbounded.
func literalIntPtr(e *pl.Expr) (*int, error) {
	if e == nil || e.Kind != pl.KindLiteral || e.Raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(e.Raw)
	if err != nil {
		return nil, fmt.Errorf("lowering: expected an integer bound, got %q", e.Raw)
	}
	return &n, nil
}

// lowerJoin implements spec §4.7's Join rule.
func (l *lowering) lowerJoin(e *pl.Expr) ([]rq.Transform, error) {
	withRef, err := l.relationToTableRef(e.Transform.With)
	if err != nil {
		return nil, err
	}
	pred, err := l.lowerScalarExpr(e.Transform.Predicate)
	if err != nil {
		return nil, err
	}
	return []rq.Transform{{
		Kind:     rq.TJoin,
		JoinSide: joinSideToRQ(e.Transform.Side),
		JoinWith: withRef,
		Filter:   &pred,
	}}, nil
}

func joinSideToRQ(s pl.JoinSide) rq.JoinSide {
	switch s {
	case pl.JoinLeft:
		return rq.Left
	case pl.JoinRight:
		return rq.Right
	case pl.JoinFull:
		return rq.Full
	default:
		return rq.Inner
	}
}

// lowerInnerPipeline lowers a Group/Window/Loop's Pipeline field, which
// resolvePartialPipeline either spliced onto the same Input node already
// lowered as this transform's own prefix (a real nested TransformCall,
// lowered here via lowerTransformStepOnly so the shared Input is never
// re-lowered) or passed through unchanged (no transform call at all, so
// there is nothing further to lower).
func (l *lowering) lowerInnerPipeline(pipeline *pl.Expr) ([]rq.Transform, error) {
	if pipeline == nil || pipeline.Kind != pl.KindTransformCall {
		return nil, nil
	}
	return l.lowerTransformStepOnly(pipeline)
}

// lowerGroup implements spec §4.7's Group rule: lower `by` to CIDs, push
// them as the partition context for the inner pipeline (and any nested
// Take/Compute within it), then lower that inner pipeline.
func (l *lowering) lowerGroup(e *pl.Expr) ([]rq.Transform, error) {
	byCIDs, steps, err := l.lowerAssignList(e.Transform.By, false)
	if err != nil {
		return nil, err
	}

	saved := l.currentPartition
	l.currentPartition = byCIDs
	defer func() { l.currentPartition = saved }()

	inner, err := l.lowerInnerPipeline(e.Transform.Pipeline)
	if err != nil {
		return nil, err
	}
	return append(steps, inner...), nil
}

// lowerWindow implements spec §4.7's Window rule: lower the frame bounds
// and push them (plus any partition already pushed by an enclosing Group)
// as context for the inner pipeline.
func (l *lowering) lowerWindow(e *pl.Expr) ([]rq.Transform, error) {
	savedKind, savedLow, savedHigh := l.currentFrameKind, l.currentFrameLow, l.currentFrameHigh
	defer func() {
		l.currentFrameKind, l.currentFrameLow, l.currentFrameHigh = savedKind, savedLow, savedHigh
	}()

	if frame := e.Transform.Frame; frame != nil {
		low, err := literalIntPtr(frame.Start)
		if err != nil {
			return nil, err
		}
		high, err := literalIntPtr(frame.End)
		if err != nil {
			return nil, err
		}
		l.currentFrameKind, l.currentFrameLow, l.currentFrameHigh = frame.Kind, low, high
	}

	return l.lowerInnerPipeline(e.Transform.Pipeline)
}

// lowerAppend implements spec §4.7's Append rule.
func (l *lowering) lowerAppend(e *pl.Expr) ([]rq.Transform, error) {
	ref, err := l.relationToTableRef(e.Transform.With)
	if err != nil {
		return nil, err
	}
	return []rq.Transform{{Kind: rq.TAppend, Append: ref}}, nil
}

// lowerLoop implements spec §4.7's Loop rule: the inner pipeline becomes a
// nested transform sequence re-run until it stops producing new rows.
func (l *lowering) lowerLoop(e *pl.Expr) ([]rq.Transform, error) {
	inner, err := l.lowerInnerPipeline(e.Transform.Pipeline)
	if err != nil {
		return nil, err
	}
	return []rq.Transform{{Kind: rq.TLoop, Loop: inner}}, nil
}

// relationToTableRef resolves e (a From result, or any other
// relation-typed expression) to a TableRef, registering a fresh TableDecl
// the first time e's underlying node id is seen.
func (l *lowering) relationToTableRef(e *pl.Expr) (*rq.TableRef, error) {
	if e.Kind == pl.KindTransformCall {
		transforms, err := l.lowerPipeline(e)
		if err != nil {
			return nil, err
		}
		tid := l.allocTID()
		cols := lineageToRelCols(e.Lineage)
		l.tables = append(l.tables, &rq.TableDecl{ID: tid, Relation: rq.Relation{Kind: rq.RelPipeline, Columns: cols, Pipeline: transforms}})
		refCols := make([]rq.TableRefColumn, 0, len(e.Lineage.Columns))
		for i, c := range e.Lineage.Columns {
			cid := l.allocCID()
			if c.Kind != pl.ColAll {
				l.columnMapping[c.TargetID] = cid
			}
			refCols = append(refCols, rq.TableRefColumn{Column: cols[i], CID: cid})
		}
		return &rq.TableRef{Source: tid, Columns: refCols, PreferCTE: true}, nil
	}

	if tid, ok := l.tableMapping[e.ID]; ok {
		return l.tableRefForExistingTable(tid, e)
	}

	tid := l.allocTID()
	l.tableMapping[e.ID] = tid
	cols := lineageToRelCols(e.Lineage)
	l.tables = append(l.tables, &rq.TableDecl{ID: tid, Name: lastPart(e.Parts), Relation: rq.Relation{Kind: relationKind(e), Columns: cols, ExternRef: e.Parts}})

	refCols := make([]rq.TableRefColumn, 0, len(cols))
	for i, c := range e.Lineage.Columns {
		cid := l.allocCID()
		if c.Kind != pl.ColAll {
			l.columnMapping[c.TargetID] = cid
		}
		refCols = append(refCols, rq.TableRefColumn{Column: cols[i], CID: cid})
	}
	return &rq.TableRef{Source: tid, Columns: refCols, Name: lastPart(e.Parts)}, nil
}

func (l *lowering) tableRefForExistingTable(tid rq.TID, e *pl.Expr) (*rq.TableRef, error) {
	cols := lineageToRelCols(e.Lineage)
	refCols := make([]rq.TableRefColumn, 0, len(cols))
	for i, c := range e.Lineage.Columns {
		cid, ok := l.columnMapping[c.TargetID]
		if !ok {
			cid = l.allocCID()
			l.columnMapping[c.TargetID] = cid
		}
		refCols = append(refCols, rq.TableRefColumn{Column: cols[i], CID: cid})
	}
	return &rq.TableRef{Source: tid, Columns: refCols, Name: lastPart(e.Parts)}, nil
}

func relationKind(e *pl.Expr) rq.RelationKindTag {
	switch e.Kind {
	case pl.KindSString:
		return rq.RelSString
	default:
		return rq.RelExternRef
	}
}

func lastPart(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func lineageToRelCols(lineage *pl.Lineage) []rq.RelationColumn {
	if lineage == nil {
		return nil
	}
	cols := make([]rq.RelationColumn, 0, len(lineage.Columns))
	for _, c := range lineage.Columns {
		if c.Kind == pl.ColAll {
			cols = append(cols, rq.RelationColumn{Kind: rq.ColumnWildcard})
			continue
		}
		cols = append(cols, rq.RelationColumn{Kind: rq.ColumnSingle, Name: c.Name})
	}
	return cols
}
