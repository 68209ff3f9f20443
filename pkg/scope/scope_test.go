package scope

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xplshn/gpyc/pkg/config"
	"github.com/xplshn/gpyc/pkg/constant"
	"github.com/xplshn/gpyc/pkg/facts"
	"github.com/xplshn/gpyc/pkg/ident"
	"github.com/xplshn/gpyc/pkg/util"
)

func newModule(t *testing.T) (*GlobalContext, *ModuleContext) {
	t.Helper()
	g, err := NewGlobalContext(config.NewConfig())
	require.NoError(t, err)
	return g, NewModuleContext("demo", "demo", "demo.py", g)
}

func generator() *facts.FunctionDecl {
	fn := &facts.FunctionDecl{
		FuncName: "gen", Qualified: "gen", Code: "gen",
		Locals: []string{"x"}, Closure: []string{"y"},
	}
	fn.MarkAsGenerator()
	return fn
}

func TestGlobalContextPresets(t *testing.T) {
	g, _ := newModule(t)
	require.Equal(t, "const_tuple_empty", g.ConstTupleEmpty)
	require.Equal(t, "const_str_empty", g.ConstStringEmpty)
	require.Equal(t, "const_bool_True", g.ConstBoolTrue)
	require.Equal(t, "const_bool_False", g.ConstBoolFalse)
	require.Equal(t, "const_str_plain___module__", g.ConstModule)

	n := g.Pool().Len()
	id, err := g.ConstantHandle(constant.Str("__doc__"))
	require.NoError(t, err)
	require.Equal(t, g.ConstDoc, id.Code())
	require.Equal(t, n, g.Pool().Len())
}

func TestCountersStartAtOne(t *testing.T) {
	_, m := newModule(t)
	fn, err := NewFunctionContext(m, &facts.FunctionDecl{FuncName: "f", Qualified: "f", Code: "f"})
	require.NoError(t, err)

	for _, s := range []Scope{m, fn} {
		require.Equal(t, 1, s.AllocateForLoopNumber())
		require.Equal(t, 2, s.AllocateForLoopNumber())
		require.Equal(t, 1, s.AllocateWhileLoopNumber())
		require.Equal(t, 1, s.AllocateTryNumber())
		require.Equal(t, 1, s.AllocateWithNumber())
		require.Equal(t, 2, s.AllocateWithNumber())
	}
}

func TestTempSlotsAreDistinct(t *testing.T) {
	_, m := newModule(t)
	a, b := m.TempObjectVariable(), m.TempObjectVariable()
	require.Equal(t, "_expression_temps[0]", a.Code())
	require.Equal(t, "_expression_temps[1]", b.Code())
	require.Equal(t, 2, m.TempCount())
}

func TestFunctionPoolsLocalNames(t *testing.T) {
	g, m := newModule(t)
	before := g.Pool().Len()
	_, err := NewFunctionContext(m, &facts.FunctionDecl{FuncName: "f", Qualified: "f", Code: "f", Locals: []string{"alpha", "beta"}})
	require.NoError(t, err)
	require.Equal(t, before+2, g.Pool().Len())
	require.Contains(t, g.Pool().Symbols(), "const_str_plain_alpha")
}

func TestGeneratorAccessPaths(t *testing.T) {
	_, m := newModule(t)
	fn, err := NewFunctionContext(m, generator())
	require.NoError(t, err)

	require.True(t, fn.IsParametersViaContext())
	require.True(t, fn.IsClosureViaContext())

	local := Resolve(fn, "x")
	require.Equal(t, "_python_context->python_var_x", local.Code())
	require.Equal(t, 1, local.Indirections)

	closure := Resolve(fn, "y")
	require.Equal(t, "_python_context->common_context->python_closure_y", closure.Code())
	require.Equal(t, 2, closure.Indirections)
}

func TestPlainFunctionAccessPaths(t *testing.T) {
	_, m := newModule(t)
	fn, err := NewFunctionContext(m, &facts.FunctionDecl{
		FuncName: "f", Qualified: "f", Code: "f", Locals: []string{"x"}, Closure: []string{"y"},
	})
	require.NoError(t, err)

	require.False(t, fn.IsParametersViaContext())
	require.Equal(t, "python_var_x", Resolve(fn, "x").Code())
	require.Equal(t, 0, Resolve(fn, "x").Indirections)

	closure := Resolve(fn, "y")
	require.Equal(t, "_python_context->python_closure_y", closure.Code())
	require.Equal(t, 1, closure.Indirections)
	require.Equal(t, "_python_context->default_value_x", fn.DefaultHandle("x").Code())
}

func TestUnresolvedNamesAreGlobals(t *testing.T) {
	_, m := newModule(t)
	fn, err := NewFunctionContext(m, &facts.FunctionDecl{FuncName: "f", Qualified: "f", Code: "f"})
	require.NoError(t, err)

	id := Resolve(fn, "print_it")
	require.Equal(t, ident.Global, id.Kind)
	require.Equal(t, "_mvar_demo_print_it", id.Code())
	Resolve(m, "another")

	if diff := cmp.Diff([]string{"another", "print_it"}, m.GlobalVariableNames()); diff != "" {
		t.Errorf("global names mismatch (-want +got):\n%s", diff)
	}
}

func TestClassContext(t *testing.T) {
	_, m := newModule(t)
	mod := &facts.ModuleDecl{ModuleName: "demo", Code: "demo", File: "other.py"}
	cls := NewClassContext(m, &facts.ClassDecl{
		ClassName: "C", Code: "C", ClassVariables: []string{"attr"}, Closure: []string{"outer"}, Module: mod,
	})

	require.False(t, cls.IsClosureViaContext())
	require.Equal(t, "python_closure_outer", Resolve(cls, "outer").Code())
	require.Equal(t, 0, Resolve(cls, "outer").Indirections)
	require.Equal(t, "python_var_attr", Resolve(cls, "attr").Code())
	require.Equal(t, "C", cls.TracebackName())
	require.Equal(t, "other.py", cls.TracebackFilename())
}

func TestLambdaContext(t *testing.T) {
	g, m := newModule(t)
	fn, err := NewFunctionContext(m, &facts.FunctionDecl{FuncName: "f", Qualified: "f", Code: "f", Locals: []string{"k"}})
	require.NoError(t, err)

	before := g.Pool().Len()
	l, err := NewLambdaContext(fn, &facts.LambdaDecl{Qualified: "f_lambda", Parameters: []string{"p"}})
	require.NoError(t, err)
	require.Equal(t, before+1, g.Pool().Len())

	require.Equal(t, "python_var_p", Resolve(l, "p").Code())
	require.Equal(t, "_python_context->python_closure_k", Resolve(l, "k").Code())
	require.Equal(t, ident.Global, Resolve(l, "len").Kind)
	require.Equal(t, "demo.py", l.TracebackFilename())
}

func TestLambdaIdentifiers(t *testing.T) {
	_, m := newModule(t)
	fn, err := NewFunctionContext(m, &facts.FunctionDecl{FuncName: "f", Qualified: "pkg__f", Code: "f"})
	require.NoError(t, err)
	cls := NewClassContext(fn, &facts.ClassDecl{ClassName: "C", Code: "C"})

	require.Equal(t, "_python_modulelambda_1_demo", m.AllocateLambdaIdentifier())
	require.Equal(t, "_python_modulelambda_2_demo", LambdaIdentifier(m))
	require.Equal(t, "_python_lambda_1_pkg__f", fn.AllocateLambdaIdentifier())
	require.Equal(t, "_python_lambda_2_pkg__f", LambdaIdentifier(cls))
}

func TestListContractionLeaks(t *testing.T) {
	_, m := newModule(t)
	fn, err := NewFunctionContext(m, &facts.FunctionDecl{FuncName: "f", Qualified: "f", Code: "f"})
	require.NoError(t, err)
	require.False(t, fn.HasLocalVariable("i"))

	lc, err := NewContractionContext(fn, &facts.ContractionDecl{Qualified: "f_lc", Kind: facts.ListContraction, LoopVariables: []string{"i"}})
	require.NoError(t, err)
	require.True(t, lc.LeaksLoopVariables())
	require.False(t, lc.IsClosureViaContext())
	require.Equal(t, "python_closure_i", Resolve(lc, "i").Code())

	id := Resolve(fn, "i")
	require.Equal(t, ident.Local, id.Kind)
	require.Equal(t, 0, id.Indirections)
	require.Contains(t, fn.Variables(), "i")
}

func TestOtherContractionsDoNotLeak(t *testing.T) {
	kinds := []facts.ContractionKind{facts.SetContraction, facts.DictContraction, facts.GeneratorExpression}
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			_, m := newModule(t)
			fn, err := NewFunctionContext(m, &facts.FunctionDecl{FuncName: "f", Qualified: "f", Code: "f", Locals: []string{"z"}})
			require.NoError(t, err)

			c, err := NewContractionContext(fn, &facts.ContractionDecl{Qualified: "f_c", Kind: kind, LoopVariables: []string{"i"}})
			require.NoError(t, err)
			require.False(t, c.LeaksLoopVariables())
			require.False(t, c.IsClosureViaContext())
			require.False(t, fn.HasLocalVariable("i"))
			require.Equal(t, ident.Global, Resolve(fn, "i").Kind)
			require.Equal(t, kind == facts.GeneratorExpression, c.IsGeneratorExpression())

			local := Resolve(c, "i")
			closure := Resolve(c, "z")
			if kind == facts.GeneratorExpression {
				require.Equal(t, "_python_context->python_var_i", local.Code())
				require.Equal(t, "_python_context->python_closure_z", closure.Code())
			} else {
				require.Equal(t, "python_var_i", local.Code())
				require.Equal(t, "python_closure_z", closure.Code())
			}
		})
	}
}

func TestUnknownContractionKind(t *testing.T) {
	_, m := newModule(t)
	fn, err := NewFunctionContext(m, &facts.FunctionDecl{FuncName: "f", Qualified: "f", Code: "f"})
	require.NoError(t, err)

	c, err := NewContractionContext(fn, &facts.ContractionDecl{Qualified: "f_c", Kind: facts.ContractionKind(9), LoopVariables: []string{"i"}})
	require.Error(t, err)
	require.Nil(t, c)
	ie, ok := util.AsInternal(err)
	require.True(t, ok)
	require.Equal(t, "contraction context", ie.Op)
	require.Equal(t, "f_c", ie.Subject)
	require.ErrorContains(t, err, "contraction kind 9")
	require.False(t, fn.HasLocalVariable("i"))
}

func TestRegistrationReachesModule(t *testing.T) {
	_, m := newModule(t)
	fnDecl := &facts.FunctionDecl{FuncName: "f", Qualified: "f", Code: "f"}
	fn, err := NewFunctionContext(m, fnDecl)
	require.NoError(t, err)
	clsDecl := &facts.ClassDecl{ClassName: "C", Code: "C"}
	cls := NewClassContext(fn, clsDecl)
	lDecl := &facts.LambdaDecl{Qualified: "l"}
	l, err := NewLambdaContext(cls, lDecl)
	require.NoError(t, err)
	gDecl := &facts.ContractionDecl{Qualified: "g", Kind: facts.GeneratorExpression}
	gen, err := NewContractionContext(l, gDecl)
	require.NoError(t, err)

	require.NoError(t, gen.AddContractionCodes(ContractionCode{Contraction: gDecl, Identifier: "g", Context: gen, Code: "gen code"}))
	require.NoError(t, l.AddLambdaCodes(lDecl, "lambda code", l))
	require.NoError(t, cls.AddClassCodes(clsDecl, cls, "class code"))
	require.NoError(t, fn.AddFunctionCodes(fnDecl, fn, "function code"))

	require.Len(t, m.FunctionsCode(), 1)
	require.Same(t, fn, m.FunctionsCode()[0].Context)
	require.Equal(t, "class code", m.ClassesCode()[0].Code)
	require.Equal(t, "lambda code", m.LambdasCode()[0].Code)
	require.Equal(t, "gen code", m.ContractionsCode()[0].Code)
	require.Equal(t, "_python_generatorfunction_g", gen.GeneratorExpressionCodeHandle(gDecl))
	require.Same(t, Scope(m), Root(gen))
}

func TestDuplicateRegistration(t *testing.T) {
	_, m := newModule(t)
	decl := &facts.FunctionDecl{FuncName: "f", Qualified: "f", Code: "f"}
	fn, err := NewFunctionContext(m, decl)
	require.NoError(t, err)

	require.NoError(t, m.AddFunctionCodes(decl, fn, "one"))
	err = m.AddFunctionCodes(decl, fn, "two")
	require.True(t, errors.Is(err, util.ErrDuplicateDeclaration))
	require.Len(t, m.FunctionsCode(), 1)

	// A different declaration with the same name is fine.
	other := &facts.FunctionDecl{FuncName: "f", Qualified: "f", Code: "f"}
	require.NoError(t, m.AddFunctionCodes(other, fn, "three"))
}

func TestPackageContext(t *testing.T) {
	g, _ := newModule(t)
	p := NewPackageContext("outer.inner", g)

	require.Equal(t, "outer.inner", p.ModuleName())
	require.Equal(t, "package_outer_inner", p.ModuleCodeName())
	require.False(t, p.IsClosureViaContext())
	require.Equal(t, "_mvar_package_outer_inner_x", Resolve(p, "x").Code())

	decl := &facts.FunctionDecl{FuncName: "f", Qualified: "f", Code: "f"}
	fn, err := NewFunctionContext(p, decl)
	require.NoError(t, err)
	require.NoError(t, fn.AddFunctionCodes(decl, fn, "code"))
	require.Len(t, p.FunctionsCode(), 1)
}

func TestPackageLambdaIdentifiers(t *testing.T) {
	g, _ := newModule(t)
	p := NewPackageContext("outer.inner", g)
	cls := NewClassContext(p, &facts.ClassDecl{ClassName: "C", Code: "C"})

	require.Equal(t, "_python_packagelambda_1_package_outer_inner", LambdaIdentifier(p))
	require.Equal(t, "_python_packagelambda_2_package_outer_inner", LambdaIdentifier(cls))

	other := NewPackageContext("other", g)
	require.Equal(t, "_python_packagelambda_1_package_other", LambdaIdentifier(other))
}

func TestModuleIdentity(t *testing.T) {
	_, m := newModule(t)
	fn, err := NewFunctionContext(m, &facts.FunctionDecl{FuncName: "f", Qualified: "f", Code: "f"})
	require.NoError(t, err)

	require.Equal(t, "<module>", m.TracebackName())
	require.Equal(t, "demo.py", fn.TracebackFilename())
	require.Equal(t, "demo", fn.ModuleName())
	require.Equal(t, "<FunctionContext for function 'f'>", fn.String())
}
