// Package constpool keeps the table of literal constants shared by every
// context of a compile invocation, and emits their initialization code.
package constpool

import (
	"fmt"
	"math"
	"sort"

	"github.com/xplshn/gpyc/pkg/config"
	"github.com/xplshn/gpyc/pkg/constant"
	"github.com/xplshn/gpyc/pkg/ident"
	"github.com/xplshn/gpyc/pkg/marshal"
	"github.com/xplshn/gpyc/pkg/util"
)

// Runtime symbols the emitted initialization code calls or references.
const (
	NoneSymbol     = "Py_None"
	EllipsisSymbol = "Py_Ellipsis"
	FnFromLong     = "PyInt_FromLong"
	FnBoolFromLong = "PyBool_FromLong"
	FnFromDouble   = "PyFloat_FromDouble"
	FnFromString   = "PyString_FromStringAndSize"
	FnUnstream     = "UNSTREAM_CONSTANT"
)

// entry is one pooled constant. The key is (kind, repr, value): all three
// must match for two requests to share the symbol.
type entry struct {
	kind   constant.Kind
	repr   string
	value  constant.Value
	symbol string
}

type Pool struct {
	cfg     *config.Config
	buckets map[uint64][]*entry
	symbols map[string]*entry

	namer  func(constant.Value) string
	encode func(constant.Value) ([]byte, error)
	decode func([]byte) (constant.Value, error)
}

func New(cfg *config.Config) *Pool {
	return &Pool{
		cfg:     cfg,
		buckets: make(map[uint64][]*entry),
		symbols: make(map[string]*entry),
		namer:   Namify,
		encode:  marshal.Encode,
		decode:  marshal.Decode,
	}
}

// Handle returns the identifier of the pooled symbol for v, adding v to the
// pool on first use. None and Ellipsis are runtime singletons and are never
// pooled.
func (p *Pool) Handle(v constant.Value) (ident.Identifier, error) {
	if !constant.Supported(v) {
		return ident.Identifier{}, util.Internal("constant handle", describe(v), util.ErrUnsupportedConstant)
	}
	switch v.Kind() {
	case constant.KindNone:
		return ident.NewPlain(NoneSymbol, 0), nil
	case constant.KindEllipsis:
		return ident.NewPlain(EllipsisSymbol, 0), nil
	}

	kind, repr := v.Kind(), v.Repr()
	h := keyHash(kind, repr)
	for _, e := range p.buckets[h] {
		if e.kind == kind && e.repr == repr && constant.Equal(e.value, v) {
			return ident.NewConstant(e.symbol), nil
		}
	}

	symbol := p.namer(v)
	if other, ok := p.symbols[symbol]; ok {
		subject := fmt.Sprintf("%s %s and %s %s -> %s", other.kind, other.repr, kind, repr, symbol)
		return ident.Identifier{}, util.Internal("constant handle", subject, util.ErrSymbolCollision)
	}

	e := &entry{kind: kind, repr: repr, value: v, symbol: symbol}
	p.buckets[h] = append(p.buckets[h], e)
	p.symbols[symbol] = e
	p.checkWarnings(e)
	return ident.NewConstant(symbol), nil
}

func (p *Pool) checkWarnings(e *entry) {
	if n := constant.Len(e.value); p.cfg.LargeConstant > 0 && n > p.cfg.LargeConstant {
		util.Warn(p.cfg, config.WarnLargeConstant, "%s constant %s has %d elements", e.kind, e.symbol, n)
	}
	if f, ok := e.value.(constant.Float); ok && math.IsNaN(float64(f)) {
		util.Warn(p.cfg, config.WarnNaNConstant, "not-a-number float pooled as %s", e.symbol)
	}
}

func describe(v constant.Value) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T %s", v, v.Repr())
}

func (p *Pool) Len() int { return len(p.symbols) }

// Symbols returns all pooled symbol names, sorted.
func (p *Pool) Symbols() []string {
	out := make([]string, 0, len(p.symbols))
	for s := range p.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Declarations returns one C declaration per pooled constant, sorted by
// symbol name. Header declarations are extern.
func (p *Pool) Declarations(forHeader bool) []string {
	format := "PyObject *%s;"
	if forHeader {
		format = "extern PyObject *%s;"
	}
	var out []string
	for _, s := range p.Symbols() {
		out = append(out, fmt.Sprintf(format, s))
	}
	return out
}

func (p *Pool) sorted() []*entry {
	out := make([]*entry, 0, len(p.symbols))
	for _, s := range p.Symbols() {
		out = append(out, p.symbols[s])
	}
	return out
}
