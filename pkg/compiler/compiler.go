// Package compiler exposes the library surface of spec §6.1: the four
// pipeline stages (parse, resolve, lower, unparse) as small composable
// functions plus one convenience entry point, `ResolveAndLower`, that
// chains resolve and lower for the common case. It is grounded on the
// teacher's `pkg/core` + `internal/engine` split (a small orchestration
// layer sitting above the independently testable passes, never owning
// their logic itself), and on `internal/state`/`pkg/adapter` for the
// `log/slog` + `google/uuid` job-tagging convention threaded through
// here via ResolveOptions.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/leapstack-labs/pqlc/pkg/ast"
	"github.com/leapstack-labs/pqlc/pkg/astexpand"
	"github.com/leapstack-labs/pqlc/pkg/decl"
	"github.com/leapstack-labs/pqlc/pkg/format"
	"github.com/leapstack-labs/pqlc/pkg/lowering"
	"github.com/leapstack-labs/pqlc/pkg/moduletree"
	"github.com/leapstack-labs/pqlc/pkg/resolver"
	"github.com/leapstack-labs/pqlc/pkg/rq"
)

// Version identifies this compiler's PQL language-version support, the
// way `leapsql`'s own `Version`/`BuildDate`/`GitCommit` vars report the
// engine's build provenance (cmd/leapsql/main.go), scaled down to a
// single const since there is no separate build pipeline stamping this
// value in here.
const Version = "0.1.0"

// ResolveOptions configures a Resolve call (spec §6.1's ResolveOptions).
type ResolveOptions struct {
	// AllowModuleDecls is passed to the resolver, which does not consult
	// it: `module` statements are resolved whatever its value.
	AllowModuleDecls bool
	// Logger receives DEBUG records marking the start and the completion
	// (or failure) of the resolve pass, tagged with a per-call compile_id;
	// no per-declaration records or warnings are emitted. Defaults to
	// slog.Default() when nil.
	Logger *slog.Logger
}

func (o ResolveOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Parse composes the given project files (path -> source text) into one
// module tree via moduletree.Compose, then desugars it in place with
// astexpand.Expand, per spec §4.4/§4.3. The returned tree is ready for
// Resolve.
func Parse(sources map[string]string) (*ast.ModuleDef, error) {
	root, _, errs := moduletree.Compose(sources)
	if errs.HasErrors() {
		errs.Sort()
		return nil, errs.AsError()
	}
	root.Stmts = astexpand.Expand(root.Stmts)
	return root, nil
}

// Resolve runs name resolution and type inference over an already-parsed
// (and astexpand-desugared) module tree, per spec §4.5.
func Resolve(pr *ast.ModuleDef, opts ResolveOptions) (*decl.RootModule, error) {
	jobID := uuid.New()
	log := opts.logger().With("compile_id", jobID.String())
	log.Debug("resolve starting")

	root, err := resolver.Resolve(pr, resolver.Options{AllowModuleDecls: opts.AllowModuleDecls})
	if err != nil {
		log.Debug("resolve failed", "error", err)
		return root, err
	}
	log.Debug("resolve complete")
	return root, nil
}

// LowerToIR lowers the relation named by mainPath (typically
// []string{decl.NsMain}) in an already-resolved root module to RQ, per
// spec §4.7.
func LowerToIR(root *decl.RootModule, mainPath []string) (*rq.RelationalQuery, *decl.RootModule, error) {
	return lowering.LowerToIR(root, mainPath)
}

// ResolveAndLower chains Resolve and LowerToIR, the common case of
// compiling a desugared tree straight through to RQ.
func ResolveAndLower(pr *ast.ModuleDef, mainPath []string) (*rq.RelationalQuery, error) {
	jobID := uuid.New()
	log := slog.Default().With("compile_id", jobID.String())

	root, err := Resolve(pr, ResolveOptions{Logger: log})
	if err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}

	ir, _, err := LowerToIR(root, mainPath)
	if err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}
	log.Debug("lowering complete", "tables", len(ir.Tables))
	return ir, nil
}

// PLToSource renders a module tree back to PQL source text (spec §6.1's
// `pl_to_source`), delegating to pkg/format.
func PLToSource(m *ast.ModuleDef) string {
	return format.Module(m)
}
