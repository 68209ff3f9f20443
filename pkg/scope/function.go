package scope

import (
	"fmt"

	"github.com/xplshn/gpyc/pkg/facts"
	"github.com/xplshn/gpyc/pkg/ident"
)

// FunctionContext is the context of a function body. Generator functions
// keep their locals and parameters in a heap context object that outlives
// the call, so their accesses go through _python_context.
type FunctionContext struct {
	child
	function facts.Function
	lambdas  int
}

// NewFunctionContext pools the local variable names of fn.
func NewFunctionContext(parent Scope, fn facts.Function) (*FunctionContext, error) {
	ctx := &FunctionContext{child: newChild(parent), function: fn}
	if err := ctx.registerNames(fn.LocalVariableNames()); err != nil {
		return nil, err
	}
	return ctx, nil
}

func (f *FunctionContext) String() string {
	return fmt.Sprintf("<FunctionContext for function '%s'>", f.function.Name())
}

func (f *FunctionContext) Function() facts.Function { return f.function }
func (f *FunctionContext) CodeName() string         { return f.function.CodeName() }
func (f *FunctionContext) TracebackName() string    { return f.function.Name() }

func (f *FunctionContext) TracebackFilename() string {
	if m := f.function.ParentModule(); m != nil {
		return m.Filename()
	}
	return f.parent.TracebackFilename()
}

func (f *FunctionContext) HasLocalVariable(name string) bool {
	return facts.Contains(f.function.LocalVariableNames(), name) || f.hasAdopted(name)
}

func (f *FunctionContext) HasClosureVariable(name string) bool {
	return facts.Contains(f.function.ClosureVariableNames(), name)
}

func (f *FunctionContext) CanHaveLocalVariables() bool  { return true }
func (f *FunctionContext) IsParametersViaContext() bool { return f.function.IsGenerator() }
func (f *FunctionContext) HasLocalsDict() bool          { return f.function.HasLocalsDict() }

func (f *FunctionContext) LocalHandle(name string) ident.Identifier {
	return ident.NewLocal(name, f.function.IsGenerator())
}

// ClosureHandle takes one more hop for generators: their closure lives in
// the common context shared by all iterations.
func (f *FunctionContext) ClosureHandle(name string) ident.Identifier {
	if f.function.IsGenerator() {
		return ident.NewClosure(name, ident.CommonContextPrefix)
	}
	return ident.NewClosure(name, ident.ContextPrefix)
}

func (f *FunctionContext) DefaultHandle(name string) ident.Identifier { return ident.NewDefault(name) }

func (f *FunctionContext) AllocateLambdaIdentifier() string {
	f.lambdas++
	return fmt.Sprintf("_python_lambda_%d_%s", f.lambdas, f.function.FullName())
}
