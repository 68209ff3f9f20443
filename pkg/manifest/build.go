package manifest

import (
	"fmt"
	"strings"

	"github.com/xplshn/gpyc/pkg/config"
	"github.com/xplshn/gpyc/pkg/facts"
	"github.com/xplshn/gpyc/pkg/ident"
	"github.com/xplshn/gpyc/pkg/scope"
	"github.com/xplshn/gpyc/pkg/util"
)

// Resolution records how a referenced name was resolved.
type Resolution struct {
	Scope      string
	Name       string
	Identifier ident.Identifier
}

func (r Resolution) String() string {
	return fmt.Sprintf("%s: %s -> %s", r.Scope, r.Name, r.Identifier)
}

// Result is a unit with every context created and all nested code
// registered at the root.
type Result struct {
	Global      *scope.GlobalContext
	Root        scope.RootContext
	Resolutions []Resolution
}

// Report lists the resolutions, one per line.
func (r *Result) Report() string {
	var sb strings.Builder
	for _, res := range r.Resolutions {
		sb.WriteString(res.String() + "\n")
	}
	return sb.String()
}

// builtins never trigger -Wundefined-global.
var builtins = map[string]bool{
	"abs": true, "all": true, "any": true, "bool": true, "chr": true, "dict": true,
	"dir": true, "enumerate": true, "filter": true, "float": true, "frozenset": true,
	"getattr": true, "hasattr": true, "hash": true, "id": true, "int": true,
	"isinstance": true, "iter": true, "len": true, "list": true, "long": true,
	"map": true, "max": true, "min": true, "next": true, "object": true, "open": true,
	"ord": true, "range": true, "repr": true, "reversed": true, "set": true,
	"setattr": true, "sorted": true, "str": true, "sum": true, "super": true,
	"tuple": true, "type": true, "unicode": true, "xrange": true, "zip": true,
	"None": true, "True": true, "False": true, "Exception": true,
	"__name__": true, "__file__": true, "__doc__": true,
}

type builder struct {
	cfg         *config.Config
	module      *facts.ModuleDecl
	resolutions []Resolution
}

// Build creates the contexts for u below a fresh global context.
func Build(u *Unit, cfg *config.Config) (*Result, error) {
	global, err := scope.NewGlobalContext(cfg)
	if err != nil {
		return nil, err
	}

	var root scope.RootContext
	if u.Package {
		root = scope.NewPackageContext(u.Module, global)
	} else {
		root = scope.NewModuleContext(u.Module, u.CodeName, u.File, global)
	}
	util.Info(cfg, "building %s", root)

	b := &builder{cfg: cfg, module: &facts.ModuleDecl{ModuleName: u.Module, Code: root.ModuleCodeName(), File: u.File}}
	if err := b.node(root, "<module>", u.Node); err != nil {
		return nil, err
	}

	defined := make(map[string]bool, len(u.Defines))
	for _, n := range u.Defines {
		defined[n] = true
	}
	for _, n := range root.GlobalVariableNames() {
		if !defined[n] && !builtins[n] {
			util.Warn(cfg, config.WarnUndefinedGlobal, "%s: global name '%s' is never defined", u.Module, n)
		}
	}

	return &Result{Global: global, Root: root, Resolutions: b.resolutions}, nil
}

// node pools the constants of a region, builds its nested declarations and
// then resolves its references, so that loop variables leaked by list
// contractions are visible.
func (b *builder) node(s scope.Scope, label string, n Node) error {
	for _, c := range n.Constants {
		if _, err := s.ConstantHandle(c.Value); err != nil {
			return err
		}
	}
	for i, d := range n.Body {
		if err := b.decl(s, label, d); err != nil {
			return fmt.Errorf("%s: body[%d]: %w", label, i, err)
		}
	}
	for _, name := range n.Refs {
		b.resolutions = append(b.resolutions, Resolution{Scope: label, Name: name, Identifier: scope.Resolve(s, name)})
	}
	return nil
}

func (b *builder) decl(parent scope.Scope, label string, d Decl) error {
	switch {
	case d.Function != nil:
		return b.function(parent, label, d.Function)
	case d.Class != nil:
		return b.class(parent, label, d.Class)
	case d.Lambda != nil:
		return b.lambda(parent, label, d.Lambda)
	case d.Contraction != nil:
		return b.contraction(parent, label, d.Contraction)
	}
	return fmt.Errorf("empty declaration")
}

func (b *builder) function(parent scope.Scope, label string, f *Function) error {
	fn := &facts.FunctionDecl{
		FuncName:   f.Name,
		Qualified:  orDefault(f.FullName, f.Name),
		Code:       orDefault(f.CodeName, f.Name),
		Locals:     f.Locals,
		Closure:    f.Closure,
		Parameters: f.Parameters,
		Module:     b.module,
	}
	if f.Generator {
		fn.MarkAsGenerator()
	}
	if f.LocalsDict {
		fn.MarkAsLocalsDict()
	}
	if f.TryExcept {
		fn.MarkAsTryExceptContaining()
	}
	if f.Exec {
		fn.MarkAsExecContaining()
	}
	if f.ExceptionBreakContinue {
		fn.MarkAsExceptionBreakContinue()
	}

	ctx, err := scope.NewFunctionContext(parent, fn)
	if err != nil {
		return err
	}
	sub := label + "." + fn.Name()
	b.defaults(sub, ctx, f.Defaults)
	if err := b.node(ctx, sub, f.Node); err != nil {
		return err
	}
	util.Info(b.cfg, "registering %s", ctx)
	return parent.AddFunctionCodes(fn, ctx, f.Code)
}

func (b *builder) class(parent scope.Scope, label string, c *Class) error {
	cls := &facts.ClassDecl{
		ClassName:      c.Name,
		Code:           orDefault(c.CodeName, c.Name),
		ClassVariables: c.Variables,
		Closure:        c.Closure,
		Module:         b.module,
	}
	if c.LocalsDict {
		cls.MarkAsLocalsDict()
	}
	if c.TryExcept {
		cls.MarkAsTryExceptContaining()
	}

	ctx := scope.NewClassContext(parent, cls)
	if err := b.node(ctx, label+"."+c.Name, c.Node); err != nil {
		return err
	}
	util.Info(b.cfg, "registering %s", ctx)
	return parent.AddClassCodes(cls, ctx, c.Code)
}

func (b *builder) lambda(parent scope.Scope, label string, l *Lambda) error {
	name := l.Name
	if name == "" {
		name = scope.LambdaIdentifier(parent)
		if name == "" {
			return fmt.Errorf("%s: no enclosing context names unnamed lambdas", label)
		}
	}
	decl := &facts.LambdaDecl{Qualified: name, Parameters: l.Parameters}

	ctx, err := scope.NewLambdaContext(parent, decl)
	if err != nil {
		return err
	}
	sub := label + "." + name
	b.defaults(sub, ctx, l.Defaults)
	if err := b.node(ctx, sub, l.Node); err != nil {
		return err
	}
	util.Info(b.cfg, "registering %s", ctx)
	return parent.AddLambdaCodes(decl, l.Code, ctx)
}

var contractionKinds = map[string]facts.ContractionKind{
	"list":      facts.ListContraction,
	"set":       facts.SetContraction,
	"dict":      facts.DictContraction,
	"generator": facts.GeneratorExpression,
}

func (b *builder) contraction(parent scope.Scope, label string, c *Contraction) error {
	kind, ok := contractionKinds[c.Kind]
	if !ok {
		return fmt.Errorf("unknown contraction kind %q", c.Kind)
	}
	decl := &facts.ContractionDecl{Qualified: c.Name, Kind: kind, LoopVariables: c.LoopVariables}

	ctx, err := scope.NewContractionContext(parent, decl)
	if err != nil {
		return err
	}
	sub := label + "." + c.Name
	if err := b.node(ctx, sub, c.Node); err != nil {
		return err
	}

	identifier := c.Name
	if ctx.IsGeneratorExpression() {
		identifier = ctx.GeneratorExpressionCodeHandle(decl)
	}
	var loopVarCodes []string
	for _, v := range c.LoopVariables {
		id := scope.Resolve(ctx, v)
		b.resolutions = append(b.resolutions, Resolution{Scope: sub, Name: v, Identifier: id})
		loopVarCodes = append(loopVarCodes, id.Code())
	}

	util.Info(b.cfg, "registering %s", ctx)
	return parent.AddContractionCodes(scope.ContractionCode{
		Contraction:  decl,
		Identifier:   identifier,
		Context:      ctx,
		Code:         c.Code,
		LoopVarCodes: loopVarCodes,
		Conditions:   c.Conditions,
		Iterateds:    c.Iterateds,
	})
}

func (b *builder) defaults(label string, p scope.DefaultProvider, names []string) {
	for _, n := range names {
		b.resolutions = append(b.resolutions, Resolution{Scope: label, Name: n + " (default)", Identifier: p.DefaultHandle(n)})
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
