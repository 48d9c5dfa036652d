package format

import "github.com/leapstack-labs/pqlc/pkg/ast"

// Unparse renders a statement list back to PQL source text, the
// `pl_to_source` operation of spec §6.1 (implemented over PR, the stage
// at which the original spec's textual surface syntax is still
// reconstructible — once astexpand has folded operators into `std.*`
// calls, the literal `a + b` spelling is gone for good).
func Unparse(stmts []ast.Stmt) string {
	p := newPrinter()
	p.stmts(stmts)
	return p.String()
}

// Module renders a composed module tree (typically the output of
// moduletree.Compose or pkg/parser) back to source text.
func Module(m *ast.ModuleDef) string {
	if m == nil {
		return ""
	}
	return Unparse(m.Stmts)
}
