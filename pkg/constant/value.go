// Package constant models the literal values a compiled module can carry
// as constants, and the equality used to deduplicate them.
package constant

import "math/big"

// Kind is the runtime type tag of a constant.
type Kind int

const (
	KindNone Kind = iota
	KindEllipsis
	KindBool
	KindInt
	KindLong
	KindFloat
	KindComplex
	KindStr
	KindUnicode
	KindTuple
	KindList
	KindDict
	KindSet
	KindFrozenSet
)

var kindNames = [...]string{
	KindNone:      "NoneType",
	KindEllipsis:  "ellipsis",
	KindBool:      "bool",
	KindInt:       "int",
	KindLong:      "long",
	KindFloat:     "float",
	KindComplex:   "complex",
	KindStr:       "str",
	KindUnicode:   "unicode",
	KindTuple:     "tuple",
	KindList:      "list",
	KindDict:      "dict",
	KindSet:       "set",
	KindFrozenSet: "frozenset",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// KindByName returns the kind whose type tag is name.
func KindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// A Value is a literal constant. Implementations outside this package are
// not poolable; the constant pool rejects them.
type Value interface {
	Kind() Kind
	Repr() string
}

type (
	noneValue     struct{}
	ellipsisValue struct{}
)

var (
	None     Value = noneValue{}
	Ellipsis Value = ellipsisValue{}
)

type Bool bool
type Int int64
type Float float64
type Complex complex128

// Str is a byte string, Unicode a text string.
type Str string
type Unicode string

// Long is an arbitrary-precision integer.
type Long struct{ v *big.Int }

func NewLong(v *big.Int) Long { return Long{v: new(big.Int).Set(v)} }

// Big returns a copy of the integer.
func (l Long) Big() *big.Int {
	if l.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(l.v)
}

type Tuple []Value
type List []Value
type Set []Value
type FrozenSet []Value

type Item struct{ Key, Value Value }

// Dict keeps its items in insertion order.
type Dict []Item

func (noneValue) Kind() Kind     { return KindNone }
func (ellipsisValue) Kind() Kind { return KindEllipsis }
func (Bool) Kind() Kind          { return KindBool }
func (Int) Kind() Kind           { return KindInt }
func (Long) Kind() Kind          { return KindLong }
func (Float) Kind() Kind         { return KindFloat }
func (Complex) Kind() Kind       { return KindComplex }
func (Str) Kind() Kind           { return KindStr }
func (Unicode) Kind() Kind       { return KindUnicode }
func (Tuple) Kind() Kind         { return KindTuple }
func (List) Kind() Kind          { return KindList }
func (Dict) Kind() Kind          { return KindDict }
func (Set) Kind() Kind           { return KindSet }
func (FrozenSet) Kind() Kind     { return KindFrozenSet }

// NewSet builds a set, dropping elements equal to an earlier one.
func NewSet(elems ...Value) Set { return Set(dedup(elems)) }

func NewFrozenSet(elems ...Value) FrozenSet { return FrozenSet(dedup(elems)) }

func dedup(elems []Value) []Value {
	out := make([]Value, 0, len(elems))
next:
	for _, e := range elems {
		for _, o := range out {
			if Equal(e, o) {
				continue next
			}
		}
		out = append(out, e)
	}
	return out
}

// IsBuiltin reports whether v is one of the values defined in this package.
func IsBuiltin(v Value) bool {
	switch v.(type) {
	case noneValue, ellipsisValue, Bool, Int, Long, Float, Complex, Str, Unicode,
		Tuple, List, Dict, Set, FrozenSet:
		return true
	}
	return false
}

// Len is the element count of a collection, 0 for scalars.
func Len(v Value) int {
	switch c := v.(type) {
	case Tuple:
		return len(c)
	case List:
		return len(c)
	case Dict:
		return len(c)
	case Set:
		return len(c)
	case FrozenSet:
		return len(c)
	}
	return 0
}
