package facts

import (
	"fmt"
	"sort"
)

// Declarations are compared by identity when registered with a module, so
// implementations must be pointer types.

type Module interface {
	Name() string
	CodeName() string
	Filename() string
}

type Function interface {
	Name() string
	FullName() string
	CodeName() string
	LocalVariableNames() []string
	ClosureVariableNames() []string
	ParameterNames() []string
	IsGenerator() bool
	HasLocalsDict() bool
	NeedsFrameExceptionKeeper() bool
	IsExecContaining() bool
	NeedsExceptionBreakContinue() bool
	ParentModule() Module
}

type Class interface {
	Name() string
	CodeName() string
	ClassVariableNames() []string
	ClosureVariableNames() []string
	HasLocalsDict() bool
	NeedsFrameExceptionKeeper() bool
	ParentModule() Module
}

type Lambda interface {
	FullName() string
	ParameterNames() []string
}

type ContractionKind int

const (
	ListContraction ContractionKind = iota
	SetContraction
	DictContraction
	GeneratorExpression
)

func (k ContractionKind) String() string {
	switch k {
	case ListContraction:
		return "list contraction"
	case SetContraction:
		return "set contraction"
	case DictContraction:
		return "dict contraction"
	case GeneratorExpression:
		return "generator expression"
	}
	return fmt.Sprintf("contraction kind %d", int(k))
}

type Contraction interface {
	FullName() string
	ContractionKind() ContractionKind
	LoopVariableNames() []string
}

type ModuleDecl struct {
	ModuleName string
	Code       string
	File       string
}

func (m *ModuleDecl) Name() string     { return m.ModuleName }
func (m *ModuleDecl) CodeName() string { return m.Code }
func (m *ModuleDecl) Filename() string { return m.File }

type FunctionDecl struct {
	Indicators
	FuncName   string
	Qualified  string
	Code       string
	Locals     []string
	Closure    []string
	Parameters []string
	Module     Module
}

func (f *FunctionDecl) Name() string                   { return f.FuncName }
func (f *FunctionDecl) FullName() string               { return f.Qualified }
func (f *FunctionDecl) CodeName() string               { return f.Code }
func (f *FunctionDecl) LocalVariableNames() []string   { return f.Locals }
func (f *FunctionDecl) ClosureVariableNames() []string { return f.Closure }
func (f *FunctionDecl) ParameterNames() []string       { return f.Parameters }
func (f *FunctionDecl) ParentModule() Module           { return f.Module }

type ClassDecl struct {
	Indicators
	ClassName      string
	Code           string
	ClassVariables []string
	Closure        []string
	Module         Module
}

func (c *ClassDecl) Name() string                   { return c.ClassName }
func (c *ClassDecl) CodeName() string               { return c.Code }
func (c *ClassDecl) ClassVariableNames() []string   { return c.ClassVariables }
func (c *ClassDecl) ClosureVariableNames() []string { return c.Closure }
func (c *ClassDecl) ParentModule() Module           { return c.Module }

type LambdaDecl struct {
	Qualified  string
	Parameters []string
}

func (l *LambdaDecl) FullName() string         { return l.Qualified }
func (l *LambdaDecl) ParameterNames() []string { return l.Parameters }

type ContractionDecl struct {
	Qualified     string
	Kind          ContractionKind
	LoopVariables []string
}

func (c *ContractionDecl) FullName() string                 { return c.Qualified }
func (c *ContractionDecl) ContractionKind() ContractionKind { return c.Kind }
func (c *ContractionDecl) LoopVariableNames() []string      { return c.LoopVariables }

// Contains reports whether name is in names.
func Contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Sorted returns a sorted copy of the keys of set.
func Sorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
