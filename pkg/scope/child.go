package scope

import (
	"github.com/xplshn/gpyc/pkg/constant"
	"github.com/xplshn/gpyc/pkg/facts"
	"github.com/xplshn/gpyc/pkg/ident"
)

// child is embedded by every nested context. It forwards the Owner
// capability to the parent, so constants and declaration code always end up
// at the root.
type child struct {
	base
	parent Scope
}

func newChild(parent Scope) child {
	return child{base: newBase(), parent: parent}
}

func (c *child) Parent() Scope { return c.parent }

func (c *child) ConstantHandle(v constant.Value) (ident.Identifier, error) {
	return c.parent.ConstantHandle(v)
}

func (c *child) AddGlobalVariableNameUsage(name string) { c.parent.AddGlobalVariableNameUsage(name) }

func (c *child) ModuleName() string        { return c.parent.ModuleName() }
func (c *child) ModuleCodeName() string    { return c.parent.ModuleCodeName() }
func (c *child) TracebackFilename() string { return c.parent.TracebackFilename() }

func (c *child) GeneratorExpressionCodeHandle(def facts.Contraction) string {
	return c.parent.GeneratorExpressionCodeHandle(def)
}

func (c *child) AddFunctionCodes(fn facts.Function, ctx *FunctionContext, code string) error {
	return c.parent.AddFunctionCodes(fn, ctx, code)
}

func (c *child) AddClassCodes(cls facts.Class, ctx *ClassContext, code string) error {
	return c.parent.AddClassCodes(cls, ctx, code)
}

func (c *child) AddLambdaCodes(l facts.Lambda, code string, ctx *LambdaContext) error {
	return c.parent.AddLambdaCodes(l, code, ctx)
}

func (c *child) AddContractionCodes(rec ContractionCode) error {
	return c.parent.AddContractionCodes(rec)
}

// registerNames pools every name as a str constant; the generated code
// needs them for error messages and locals dicts.
func (c *child) registerNames(names []string) error {
	for _, n := range names {
		if _, err := c.ConstantHandle(constant.Str(n)); err != nil {
			return err
		}
	}
	return nil
}
