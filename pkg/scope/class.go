package scope

import (
	"fmt"

	"github.com/xplshn/gpyc/pkg/facts"
	"github.com/xplshn/gpyc/pkg/ident"
)

// ClassContext is the context of a class body. Closure variables are passed
// to the body function directly.
type ClassContext struct {
	child
	class facts.Class
}

func NewClassContext(parent Scope, cls facts.Class) *ClassContext {
	return &ClassContext{child: newChild(parent), class: cls}
}

func (c *ClassContext) String() string {
	return fmt.Sprintf("<ClassContext for class %s>", c.class.Name())
}

func (c *ClassContext) Class() facts.Class        { return c.class }
func (c *ClassContext) CodeName() string          { return c.class.CodeName() }
func (c *ClassContext) TracebackName() string     { return c.class.Name() }
func (c *ClassContext) IsClosureViaContext() bool { return false }
func (c *ClassContext) HasLocalsDict() bool       { return c.class.HasLocalsDict() }

func (c *ClassContext) TracebackFilename() string {
	if m := c.class.ParentModule(); m != nil {
		return m.Filename()
	}
	return c.parent.TracebackFilename()
}

func (c *ClassContext) HasLocalVariable(name string) bool {
	return facts.Contains(c.class.ClassVariableNames(), name) || c.hasAdopted(name)
}

func (c *ClassContext) HasClosureVariable(name string) bool {
	return facts.Contains(c.class.ClosureVariableNames(), name)
}

func (c *ClassContext) LocalHandle(name string) ident.Identifier {
	return ident.NewLocal(name, false)
}

func (c *ClassContext) ClosureHandle(name string) ident.Identifier {
	return ident.NewClosure(name, "")
}
