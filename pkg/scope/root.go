package scope

import (
	"fmt"

	"github.com/xplshn/gpyc/pkg/constant"
	"github.com/xplshn/gpyc/pkg/facts"
	"github.com/xplshn/gpyc/pkg/ident"
	"github.com/xplshn/gpyc/pkg/util"
)

// root is the state shared by module and package contexts: the reference to
// the global context, the declaration code gathered from nested contexts
// and the set of global names used anywhere in the unit.
type root struct {
	base
	global   *GlobalContext
	name     string
	codeName string

	functions    []FunctionCode
	classes      []ClassCode
	lambdas      []LambdaCode
	contractions []ContractionCode
	seen         map[any]string

	globalNames map[string]bool
}

func newRoot(global *GlobalContext, name, codeName string) root {
	return root{
		base:        newBase(),
		global:      global,
		name:        name,
		codeName:    codeName,
		seen:        make(map[any]string),
		globalNames: make(map[string]bool),
	}
}

func (r *root) Parent() Scope { return nil }

func (r *root) ConstantHandle(v constant.Value) (ident.Identifier, error) {
	return r.global.ConstantHandle(v)
}

func (r *root) Global() *GlobalContext { return r.global }
func (r *root) ModuleName() string     { return r.name }
func (r *root) ModuleCodeName() string { return r.codeName }

// Roots have no local or closure variables: every name resolves to a
// module global.
func (r *root) HasLocalVariable(string) bool   { return false }
func (r *root) HasClosureVariable(string) bool { return false }
func (r *root) IsClosureViaContext() bool      { return false }

func (r *root) LocalHandle(name string) ident.Identifier {
	return ident.NewGlobal(r.codeName, name)
}

func (r *root) ClosureHandle(name string) ident.Identifier {
	return ident.NewGlobal(r.codeName, name)
}

func (r *root) AddGlobalVariableNameUsage(name string) { r.globalNames[name] = true }

// GlobalVariableNames returns the global names used in the unit, sorted.
func (r *root) GlobalVariableNames() []string { return facts.Sorted(r.globalNames) }

func (r *root) GeneratorExpressionCodeHandle(def facts.Contraction) string {
	return "_python_generatorfunction_" + def.FullName()
}

// register rejects a declaration that was already registered.
func (r *root) register(kind string, decl any, name string) error {
	if prev, ok := r.seen[decl]; ok {
		return util.Internal("register "+kind, fmt.Sprintf("%s (already registered as %s)", name, prev), util.ErrDuplicateDeclaration)
	}
	r.seen[decl] = kind + " " + name
	return nil
}

func (r *root) AddFunctionCodes(fn facts.Function, ctx *FunctionContext, code string) error {
	if err := r.register("function", fn, fn.FullName()); err != nil {
		return err
	}
	r.functions = append(r.functions, FunctionCode{Function: fn, Context: ctx, Code: code})
	return nil
}

func (r *root) AddClassCodes(cls facts.Class, ctx *ClassContext, code string) error {
	if err := r.register("class", cls, cls.Name()); err != nil {
		return err
	}
	r.classes = append(r.classes, ClassCode{Class: cls, Context: ctx, Code: code})
	return nil
}

func (r *root) AddLambdaCodes(l facts.Lambda, code string, ctx *LambdaContext) error {
	if err := r.register("lambda", l, l.FullName()); err != nil {
		return err
	}
	r.lambdas = append(r.lambdas, LambdaCode{Lambda: l, Code: code, Context: ctx})
	return nil
}

func (r *root) AddContractionCodes(c ContractionCode) error {
	if err := r.register("contraction", c.Contraction, c.Contraction.FullName()); err != nil {
		return err
	}
	r.contractions = append(r.contractions, c)
	return nil
}

// Accumulated declaration code, in registration order.
func (r *root) FunctionsCode() []FunctionCode       { return r.functions }
func (r *root) ClassesCode() []ClassCode            { return r.classes }
func (r *root) LambdasCode() []LambdaCode           { return r.lambdas }
func (r *root) ContractionsCode() []ContractionCode { return r.contractions }
