package scope

import (
	"fmt"

	"github.com/xplshn/gpyc/pkg/facts"
	"github.com/xplshn/gpyc/pkg/ident"
	"github.com/xplshn/gpyc/pkg/util"
)

// contractionPolicy is what differs between the four contraction kinds.
type contractionPolicy struct {
	// leaks is set when the loop variables belong to the enclosing scope
	// after the contraction has run.
	leaks         bool
	closurePrefix string
	fromContext   bool

	// localAsClosure makes loop variables accessed like closure variables,
	// since their storage is the enclosing scope's.
	localAsClosure bool
}

var contractionPolicies = map[facts.ContractionKind]contractionPolicy{
	facts.ListContraction:     {leaks: true, localAsClosure: true},
	facts.SetContraction:      {},
	facts.DictContraction:     {},
	facts.GeneratorExpression: {closurePrefix: ident.ContextPrefix, fromContext: true},
}

// ContractionContext is the context of a list, set or dict contraction or a
// generator expression.
type ContractionContext struct {
	child
	contraction facts.Contraction
	policy      contractionPolicy
}

// NewContractionContext creates the context for c. The loop variables of a
// list contraction are handed to parent right away.
func NewContractionContext(parent Scope, c facts.Contraction) (*ContractionContext, error) {
	policy, ok := contractionPolicies[c.ContractionKind()]
	if !ok {
		return nil, util.Internal("contraction context", c.FullName(), fmt.Errorf("unknown %s", c.ContractionKind()))
	}
	ctx := &ContractionContext{
		child:       newChild(parent),
		contraction: c,
		policy:      policy,
	}
	if policy.leaks {
		for _, v := range c.LoopVariableNames() {
			parent.adoptLoopVariable(v)
		}
	}
	return ctx, nil
}

func (c *ContractionContext) String() string {
	return fmt.Sprintf("<ContractionContext for %s %s>", c.contraction.ContractionKind(), c.contraction.FullName())
}

func (c *ContractionContext) Contraction() facts.Contraction { return c.contraction }
func (c *ContractionContext) Kind() facts.ContractionKind    { return c.contraction.ContractionKind() }
func (c *ContractionContext) LeaksLoopVariables() bool       { return c.policy.leaks }
func (c *ContractionContext) IsClosureViaContext() bool      { return false }

func (c *ContractionContext) IsGeneratorExpression() bool {
	return c.contraction.ContractionKind() == facts.GeneratorExpression
}

func (c *ContractionContext) HasLocalVariable(name string) bool {
	return facts.Contains(c.contraction.LoopVariableNames(), name) || c.hasAdopted(name)
}

func (c *ContractionContext) HasClosureVariable(name string) bool {
	return !c.HasLocalVariable(name) && enclosingBinds(c.parent, name)
}

func (c *ContractionContext) LocalHandle(name string) ident.Identifier {
	if c.policy.localAsClosure {
		return c.ClosureHandle(name)
	}
	return ident.NewLocal(name, c.policy.fromContext)
}

func (c *ContractionContext) ClosureHandle(name string) ident.Identifier {
	return ident.NewClosure(name, c.policy.closurePrefix)
}
