package ir

import (
	"fmt"
	"sort"
)

type Op int

const (
	OpCall Op = iota
	OpStore
	OpRet
)

type Type int

const (
	TypeNone Type = iota
	TypeB         // byte (8-bit)
	TypeW         // word (32-bit)
	TypeL         // long (64-bit)
	TypeD         // double float (64-bit)
)

type Value interface {
	isValue()
	String() string
}

type Const struct{ Value int64 }
type FloatConst struct{ Value float64; Typ Type }
type Global struct{ Name string }
type Temporary struct{ ID int }
type Label struct{ Name string }

// Bytes is raw data, only valid as a DataItem value.
type Bytes struct{ Data []byte }

func (c *Const) isValue()      {}
func (f *FloatConst) isValue() {}
func (g *Global) isValue()     {}
func (t *Temporary) isValue()  {}
func (l *Label) isValue()      {}
func (b *Bytes) isValue()      {}

func (c *Const) String() string      { return "" }
func (f *FloatConst) String() string { return "" }
func (g *Global) String() string     { return g.Name }
func (t *Temporary) String() string  { return fmt.Sprintf("t%d", t.ID) }
func (l *Label) String() string      { return l.Name }
func (b *Bytes) String() string      { return string(b.Data) }

type Func struct {
	Name       string
	Exported   bool
	ReturnType Type
	Blocks     []*BasicBlock
}

type BasicBlock struct{ Label *Label; Instructions []*Instruction }

type Instruction struct {
	Op       Op
	Typ      Type
	Result   Value
	Args     []Value
	ArgTypes []Type
}

// Section is already-formatted code for one nested declaration, emitted
// verbatim in declaration order.
type Section struct {
	Kind string // "function", "class", "lambda" or "contraction"
	Name string
	Code string
}

type Program struct {
	Unit       string
	Globals    []*Data
	Funcs      []*Func
	ExtrnFuncs []string
	Sections   []Section
	WordSize   int
	TempCount  int
}

type Data struct {
	Name  string
	Align int
	Items []DataItem
}

type DataItem struct{ Typ Type; Value Value }

// WordType is the integer type matching the target word.
func WordType(wordSize int) Type {
	if wordSize == 4 {
		return TypeW
	}
	return TypeL
}

func (p *Program) NewTemp() *Temporary {
	t := &Temporary{ID: p.TempCount}
	p.TempCount++
	return t
}

// UseExtrn records an external function the program calls.
func (p *Program) UseExtrn(name string) {
	i := sort.SearchStrings(p.ExtrnFuncs, name)
	if i < len(p.ExtrnFuncs) && p.ExtrnFuncs[i] == name { return }
	p.ExtrnFuncs = append(p.ExtrnFuncs, "")
	copy(p.ExtrnFuncs[i+1:], p.ExtrnFuncs[i:])
	p.ExtrnFuncs[i] = name
}

func (p *Program) FindFunc(name string) *Func {
	for _, f := range p.Funcs {
		if f.Name == name { return f }
	}
	return nil
}

func (p *Program) FindGlobal(name string) *Data {
	for _, g := range p.Globals {
		if g.Name == name { return g }
	}
	return nil
}
