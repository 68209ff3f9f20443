package scope

import (
	"github.com/xplshn/gpyc/pkg/facts"
	"github.com/xplshn/gpyc/pkg/ident"
)

// base carries the state every context has: numbering for synthetic
// identifiers and the set of variable names in use. Concrete contexts embed
// it and override the predicates that differ.
type base struct {
	variables map[string]bool
	adopted   map[string]bool

	forLoops   int
	whileLoops int
	tries      int
	withs      int
	temps      int
}

func newBase() base {
	return base{variables: make(map[string]bool), adopted: make(map[string]bool)}
}

func (b *base) AllocateForLoopNumber() int   { b.forLoops++; return b.forLoops }
func (b *base) AllocateWhileLoopNumber() int { b.whileLoops++; return b.whileLoops }
func (b *base) AllocateTryNumber() int       { b.tries++; return b.tries }
func (b *base) AllocateWithNumber() int      { b.withs++; return b.withs }

// TempObjectVariable hands out the next expression temporary slot. Slots are
// never reused within a context.
func (b *base) TempObjectVariable() ident.Identifier {
	id := ident.NewTemp(b.temps)
	b.temps++
	return id
}

func (b *base) TempCount() int { return b.temps }

func (b *base) AddVariable(name string) { b.variables[name] = true }
func (b *base) Variables() []string     { return facts.Sorted(b.variables) }

func (b *base) IsClosureViaContext() bool    { return true }
func (b *base) IsParametersViaContext() bool { return false }
func (b *base) HasLocalsDict() bool          { return false }
func (b *base) CanHaveLocalVariables() bool  { return false }

// adoptLoopVariable takes over a loop variable leaked by a list
// contraction. It stays resolvable from this context afterwards.
func (b *base) adoptLoopVariable(name string) {
	b.adopted[name] = true
	b.variables[name] = true
}

func (b *base) hasAdopted(name string) bool { return b.adopted[name] }
