// Package ident holds the descriptors name resolution produces. The emitter
// turns a descriptor into an access expression with Code.
package ident

import "fmt"

type Kind int

const (
	Plain Kind = iota
	Constant
	Local
	Closure
	Default
	Global
	Temp
)

func (k Kind) String() string {
	switch k {
	case Constant:
		return "constant"
	case Local:
		return "local"
	case Closure:
		return "closure"
	case Default:
		return "default"
	case Global:
		return "global"
	case Temp:
		return "temp"
	}
	return "plain"
}

// Access path prefixes for variables that live in a context object.
const (
	ContextPrefix       = "_python_context->"
	CommonContextPrefix = "_python_context->common_context->"
)

// Identifier is a resolved reference. Prefix is the access path to the
// storage and Indirections the number of pointer hops it takes.
type Identifier struct {
	Kind         Kind
	Name         string
	Prefix       string
	Indirections int
	RefCount     int

	// FromContext marks locals stored in a persistent context rather than
	// on the C stack.
	FromContext bool

	// Module is the code name of the owning module, for globals only.
	Module string
}

func (id Identifier) Code() string {
	switch id.Kind {
	case Local:
		if id.FromContext {
			return ContextPrefix + "python_var_" + id.Name
		}
		return "python_var_" + id.Name
	case Closure:
		return id.Prefix + "python_closure_" + id.Name
	case Default:
		return ContextPrefix + "default_value_" + id.Name
	case Global:
		return "_mvar_" + id.Module + "_" + id.Name
	}
	return id.Prefix + id.Name
}

func (id Identifier) String() string { return fmt.Sprintf("%s(%s)", id.Kind, id.Code()) }

func NewPlain(code string, refCount int) Identifier {
	return Identifier{Kind: Plain, Name: code, RefCount: refCount}
}

// NewConstant refers to a pooled constant. The reference is borrowed.
func NewConstant(symbol string) Identifier { return Identifier{Kind: Constant, Name: symbol} }

func NewLocal(name string, fromContext bool) Identifier {
	id := Identifier{Kind: Local, Name: name, FromContext: fromContext}
	if fromContext {
		id.Indirections = 1
	}
	return id
}

func NewClosure(name, prefix string) Identifier {
	id := Identifier{Kind: Closure, Name: name, Prefix: prefix}
	switch prefix {
	case "":
	case CommonContextPrefix:
		id.Indirections = 2
	default:
		id.Indirections = 1
	}
	return id
}

func NewDefault(name string) Identifier {
	return Identifier{Kind: Default, Name: name, Prefix: ContextPrefix, Indirections: 1}
}

func NewGlobal(module, name string) Identifier {
	return Identifier{Kind: Global, Name: name, Module: module}
}

func NewTemp(slot int) Identifier {
	return Identifier{Kind: Temp, Name: fmt.Sprintf("_expression_temps[%d]", slot), RefCount: 0}
}
