package scope

import (
	"fmt"

	"github.com/xplshn/gpyc/pkg/facts"
	"github.com/xplshn/gpyc/pkg/ident"
)

// LambdaContext is a function context reduced to parameter locals. Lambdas
// are never generators.
type LambdaContext struct {
	child
	lambda facts.Lambda
}

// NewLambdaContext pools the parameter names of l.
func NewLambdaContext(parent Scope, l facts.Lambda) (*LambdaContext, error) {
	ctx := &LambdaContext{child: newChild(parent), lambda: l}
	if err := ctx.registerNames(l.ParameterNames()); err != nil {
		return nil, err
	}
	return ctx, nil
}

func (l *LambdaContext) String() string {
	return fmt.Sprintf("<LambdaContext for lambda %s>", l.lambda.FullName())
}

func (l *LambdaContext) Lambda() facts.Lambda        { return l.lambda }
func (l *LambdaContext) CanHaveLocalVariables() bool { return true }

func (l *LambdaContext) HasLocalVariable(name string) bool {
	return facts.Contains(l.lambda.ParameterNames(), name) || l.hasAdopted(name)
}

// HasClosureVariable reports names bound by an enclosing function, lambda
// or contraction.
func (l *LambdaContext) HasClosureVariable(name string) bool {
	return !l.HasLocalVariable(name) && enclosingBinds(l.parent, name)
}

func (l *LambdaContext) LocalHandle(name string) ident.Identifier {
	return ident.NewLocal(name, false)
}

func (l *LambdaContext) ClosureHandle(name string) ident.Identifier {
	return ident.NewClosure(name, ident.ContextPrefix)
}

func (l *LambdaContext) DefaultHandle(name string) ident.Identifier { return ident.NewDefault(name) }
