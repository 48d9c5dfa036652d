// Package moduletree implements spec §4.4: composing the independently
// parsed PR of each project source file into a single logical module
// tree rooted at path "", with the built-in `std` module always present.
// It is grounded on the teacher's own "compose many files into one
// logical unit" shape (internal/docs/manifest.go walks a project
// directory into one merged manifest); generalized here from a doc
// manifest to a nested ast.ModuleDef tree.
package moduletree

import (
	"sort"
	"strings"
	"unicode"

	"github.com/leapstack-labs/pqlc/internal/stdlib"
	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/diagnostics"
	"github.com/leapstack-labs/pqlc/pkg/parser"
)

// Compose turns `files` (project path -> source text) into one
// `ast.ModuleDef` tree, plus the source-id table used to interpret every
// `token.Span.SourceID` in the result (index i is the path parsed with
// sourceID i). std.prql (internal/stdlib) is always parsed and inserted
// as the `std` submodule, independent of whatever root-selection the
// caller's own files need (spec §4.4 rule 4 is unconditional; it is not
// a candidate in rule 1's root-selection pool).
func Compose(files map[string]string) (*ast.ModuleDef, []string, diagnostics.Errors) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	sourceTable := append([]string{stdlib.Path}, paths...)

	var errs diagnostics.Errors
	root := &ast.ModuleDef{Name: ""}

	stdStmts, stdErrs := parser.Parse(0, stdlib.Source)
	errs = append(errs, stdErrs...)
	insertAt(root, modulePath(stdlib.Path), stdStmts)

	rootPath, rootErr := selectRootPath(paths)
	if rootErr != nil {
		errs.Add(rootErr)
		return root, sourceTable, errs
	}

	for i, p := range paths {
		sourceID := i + 1 // 0 is reserved for std.prql above
		stmts, perrs := parser.Parse(sourceID, files[p])
		errs = append(errs, perrs...)
		if p == rootPath {
			root.Stmts = append(root.Stmts, stmts...)
			continue
		}
		insertAt(root, modulePath(p), stmts)
	}

	return root, sourceTable, errs
}

// selectRootPath implements spec §4.4 rule 1: a file at path "" is the
// root; otherwise the only file if there is exactly one; otherwise the
// file whose first path component begins with an uppercase letter, if
// there is exactly one such file; otherwise composition fails.
func selectRootPath(paths []string) (string, *diagnostics.Error) {
	for _, p := range paths {
		if p == "" {
			return p, nil
		}
	}
	if len(paths) == 1 {
		return paths[0], nil
	}
	var candidates []string
	for _, p := range paths {
		first := p
		if idx := strings.IndexByte(p, '/'); idx >= 0 {
			first = p[:idx]
		}
		if first != "" && unicode.IsUpper(rune(first[0])) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	if len(candidates) > 1 {
		return "", diagnostics.New(diagnostics.KindSimple, nil,
			"cannot find root module: multiple candidate root files %v", candidates)
	}
	return "", diagnostics.New(diagnostics.KindSimple, nil, "cannot find root module")
}

// modulePath implements spec §4.4 rule 2: `foo/bar.prql` -> [foo, bar].
func modulePath(p string) []string {
	p = strings.TrimSuffix(p, ".prql")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// insertAt implements spec §4.4 rule 3: descend `root`'s statement list
// by `segs`, creating intermediate empty ModuleDefs as needed, and append
// `stmts` to the ModuleDef found or created at the leaf. An empty `segs`
// (the root path itself) appends directly to `root`.
func insertAt(root *ast.ModuleDef, segs []string, stmts []ast.Stmt) {
	cur := root
	for _, seg := range segs {
		var child *ast.ModuleDef
		for _, s := range cur.Stmts {
			if m, ok := s.(*ast.ModuleDef); ok && m.Name == seg {
				child = m
				break
			}
		}
		if child == nil {
			child = &ast.ModuleDef{Name: seg}
			cur.Stmts = append(cur.Stmts, child)
		}
		cur = child
	}
	cur.Stmts = append(cur.Stmts, stmts...)
}
