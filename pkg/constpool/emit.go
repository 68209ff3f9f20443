package constpool

import (
	"fmt"
	"math"

	"github.com/xplshn/gpyc/pkg/config"
	"github.com/xplshn/gpyc/pkg/constant"
	"github.com/xplshn/gpyc/pkg/ir"
	"github.com/xplshn/gpyc/pkg/util"
)

// InitFuncName is the exported function that builds every pooled constant.
const InitFuncName = "_initConstants"

type InitKind int

const (
	InitSmallInt InitKind = iota
	InitBool
	InitFloat
	InitStr
	InitBlob
)

// Init is the initialization statement of one pooled constant.
type Init struct {
	Symbol string
	Kind   InitKind
	Value  constant.Value
	// Data is the serialized blob for InitBlob and the raw bytes for InitStr.
	Data []byte
}

// Initializations returns one statement per pooled constant, sorted by
// symbol name. Every blob is decoded again and compared with the original
// value; a mismatch is a fatal internal error.
func (p *Pool) Initializations() ([]Init, error) {
	var out []Init
	for _, e := range p.sorted() {
		in, err := p.initFor(e)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func (p *Pool) initFor(e *entry) (Init, error) {
	in := Init{Symbol: e.symbol, Value: e.value}

	switch v := e.value.(type) {
	case constant.Int:
		if p.cfg.SmallIntFits(int64(v)) {
			in.Kind = InitSmallInt
			return in, nil
		}
	case constant.Bool:
		if p.cfg.IsFeatureEnabled(config.FeatDirectBool) {
			in.Kind = InitBool
			return in, nil
		}
	case constant.Float:
		f := float64(v)
		if p.cfg.IsFeatureEnabled(config.FeatDirectFloat) && !math.IsNaN(f) && !math.IsInf(f, 0) {
			in.Kind = InitFloat
			return in, nil
		}
	case constant.Str:
		if p.cfg.IsFeatureEnabled(config.FeatDirectStr) {
			in.Kind, in.Data = InitStr, []byte(v)
			return in, nil
		}
	}

	blob, err := p.encode(e.value)
	if err != nil {
		return in, util.Internal("constant blob", e.repr, fmt.Errorf("%w: %v", util.ErrUnsupportedConstant, err))
	}
	restored, err := p.decode(blob)
	if err != nil {
		return in, util.Internal("constant blob", e.repr, fmt.Errorf("%w: %v", util.ErrRoundTrip, err))
	}
	if !constant.Equal(restored, e.value) {
		return in, util.Internal("constant blob", e.repr+" != "+restored.Repr(), util.ErrRoundTrip)
	}
	in.Kind, in.Data = InitBlob, blob
	return in, nil
}

// Emit adds the constant declarations, their blobs and the initialization
// function to prog.
func (p *Pool) Emit(prog *ir.Program) error {
	inits, err := p.Initializations()
	if err != nil {
		return err
	}

	wt := ir.WordType(prog.WordSize)
	block := &ir.BasicBlock{Label: &ir.Label{Name: "start"}}

	for _, in := range inits {
		prog.Globals = append(prog.Globals, &ir.Data{
			Name: in.Symbol, Align: prog.WordSize,
			Items: []ir.DataItem{{Typ: wt, Value: &ir.Const{Value: 0}}},
		})

		var callee string
		var args []ir.Value
		var argTypes []ir.Type

		switch in.Kind {
		case InitSmallInt:
			callee = FnFromLong
			args, argTypes = []ir.Value{&ir.Const{Value: int64(in.Value.(constant.Int))}}, []ir.Type{wt}
		case InitBool:
			var b int64
			if in.Value.(constant.Bool) {
				b = 1
			}
			callee = FnBoolFromLong
			args, argTypes = []ir.Value{&ir.Const{Value: b}}, []ir.Type{wt}
		case InitFloat:
			callee = FnFromDouble
			args, argTypes = []ir.Value{&ir.FloatConst{Value: float64(in.Value.(constant.Float)), Typ: ir.TypeD}}, []ir.Type{ir.TypeD}
		case InitStr, InitBlob:
			prefix := "_blob_"
			callee = FnUnstream
			if in.Kind == InitStr {
				prefix, callee = "_str_", FnFromString
			}
			data := &ir.Data{Name: prefix + in.Symbol, Align: 1, Items: []ir.DataItem{{Typ: ir.TypeB, Value: &ir.Bytes{Data: in.Data}}}}
			prog.Globals = append(prog.Globals, data)
			args = []ir.Value{&ir.Global{Name: data.Name}, &ir.Const{Value: int64(len(in.Data))}}
			argTypes = []ir.Type{wt, wt}
		}

		t := prog.NewTemp()
		block.Instructions = append(block.Instructions,
			&ir.Instruction{Op: ir.OpCall, Typ: wt, Result: t, Args: append([]ir.Value{&ir.Global{Name: callee}}, args...), ArgTypes: argTypes},
			&ir.Instruction{Op: ir.OpStore, Typ: wt, Args: []ir.Value{t, &ir.Global{Name: in.Symbol}}},
		)
		prog.UseExtrn(callee)
	}
	block.Instructions = append(block.Instructions, &ir.Instruction{Op: ir.OpRet})

	prog.Funcs = append(prog.Funcs, &ir.Func{Name: InitFuncName, Exported: true, Blocks: []*ir.BasicBlock{block}})
	return nil
}
