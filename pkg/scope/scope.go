// Package scope implements the code generation contexts: one per lexical
// region of a module. A context answers how each name of its region is
// accessed, hands out numbers for synthetic identifiers, and forwards
// constants and generated code of nested declarations to the root context
// of its module.
//
// Contexts are not safe for concurrent use. A compile invocation owns its
// GlobalContext and every context created below it.
package scope

import (
	"github.com/xplshn/gpyc/pkg/constant"
	"github.com/xplshn/gpyc/pkg/facts"
	"github.com/xplshn/gpyc/pkg/ident"
)

// Owner is what a nested context delegates to its parent: constants,
// accumulated declaration code, global name bookkeeping and the identity of
// the owning module. Roots implement it themselves.
type Owner interface {
	ConstantHandle(v constant.Value) (ident.Identifier, error)
	AddGlobalVariableNameUsage(name string)
	ModuleName() string
	ModuleCodeName() string
	TracebackFilename() string
	GeneratorExpressionCodeHandle(def facts.Contraction) string
	Registrar
}

// Registrar accumulates the generated code of nested declarations along with
// the context that produced it.
type Registrar interface {
	AddFunctionCodes(fn facts.Function, ctx *FunctionContext, code string) error
	AddClassCodes(cls facts.Class, ctx *ClassContext, code string) error
	AddLambdaCodes(l facts.Lambda, code string, ctx *LambdaContext) error
	AddContractionCodes(c ContractionCode) error
}

// Scope is implemented by every context.
type Scope interface {
	Owner

	Parent() Scope

	HasLocalVariable(name string) bool
	HasClosureVariable(name string) bool
	LocalHandle(name string) ident.Identifier
	ClosureHandle(name string) ident.Identifier

	IsClosureViaContext() bool
	IsParametersViaContext() bool
	HasLocalsDict() bool
	CanHaveLocalVariables() bool

	AddVariable(name string)
	Variables() []string
	AllocateForLoopNumber() int
	AllocateWhileLoopNumber() int
	AllocateTryNumber() int
	AllocateWithNumber() int
	TempObjectVariable() ident.Identifier

	adoptLoopVariable(name string)
}

// RootContext is a module or package context: the end of every delegation
// chain, holding the accumulated declaration code of the unit.
type RootContext interface {
	Scope
	GlobalVariableNames() []string
	FunctionsCode() []FunctionCode
	ClassesCode() []ClassCode
	LambdasCode() []LambdaCode
	ContractionsCode() []ContractionCode
}

// DefaultProvider is implemented by contexts that have parameters with
// default values.
type DefaultProvider interface {
	DefaultHandle(name string) ident.Identifier
}

// LambdaAllocator is implemented by contexts that name lambdas declared in
// them.
type LambdaAllocator interface {
	AllocateLambdaIdentifier() string
}

type FunctionCode struct {
	Function facts.Function
	Context  *FunctionContext
	Code     string
}

type ClassCode struct {
	Class   facts.Class
	Context *ClassContext
	Code    string
}

type LambdaCode struct {
	Lambda  facts.Lambda
	Code    string
	Context *LambdaContext
}

type ContractionCode struct {
	Contraction  facts.Contraction
	Identifier   string
	Context      *ContractionContext
	Code         string
	LoopVarCodes []string
	Conditions   []string
	Iterateds    []string
}

// Resolve returns the descriptor for a reference to name from s. Names that
// are neither local nor closure variables are module globals; their use is
// recorded at the root.
func Resolve(s Scope, name string) ident.Identifier {
	switch {
	case s.HasLocalVariable(name):
		return s.LocalHandle(name)
	case s.HasClosureVariable(name):
		return s.ClosureHandle(name)
	}
	s.AddGlobalVariableNameUsage(name)
	return ident.NewGlobal(s.ModuleCodeName(), name)
}

// LambdaIdentifier allocates a lambda name from the nearest context that
// numbers lambdas.
func LambdaIdentifier(s Scope) string {
	for p := s; p != nil; p = p.Parent() {
		if a, ok := p.(LambdaAllocator); ok {
			return a.AllocateLambdaIdentifier()
		}
	}
	return ""
}

// Root walks up to the context without a parent.
func Root(s Scope) Scope {
	for s.Parent() != nil {
		s = s.Parent()
	}
	return s
}

// enclosingBinds reports whether a scope above s binds name in a way nested
// code can close over. Class bodies are skipped: their names are not
// visible to nested functions.
func enclosingBinds(s Scope, name string) bool {
	for p := s; p != nil; p = p.Parent() {
		if _, isClass := p.(*ClassContext); isClass {
			continue
		}
		if p.HasLocalVariable(name) || p.HasClosureVariable(name) {
			return true
		}
	}
	return false
}
