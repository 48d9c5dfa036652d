// Package ast defines PR, the parse-level representation of spec §3.2:
// the tree the parser produces directly from tokens, sugar intact. It is
// grounded on the teacher's pkg/core node-interface shape
// (Node/Expr/Stmt marker interfaces, struct-per-variant) generalized from
// SQL clauses to PQL's pipeline grammar.
package ast

import "github.com/leapstack-labs/pqlc/pkg/token"

// Node is the base interface implemented by every PR node.
type Node interface {
	Span() token.Span
}

// Stmt is a marker interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}
