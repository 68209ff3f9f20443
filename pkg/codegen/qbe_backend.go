package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xplshn/gpyc/pkg/config"
	"github.com/xplshn/gpyc/pkg/ir"
)

type qbeBackend struct {
	out  *strings.Builder
	prog *ir.Program
}

func NewQBEBackend() Backend { return &qbeBackend{} }

func (b *qbeBackend) GenerateIR(prog *ir.Program, cfg *config.Config) (string, error) {
	var qbeIRBuilder strings.Builder
	b.out = &qbeIRBuilder
	b.prog = prog

	if err := b.gen(); err != nil {
		return "", err
	}
	return qbeIRBuilder.String(), nil
}

func (b *qbeBackend) gen() error {
	fmt.Fprintf(b.out, "# unit %s\n", b.prog.Unit)
	if len(b.prog.ExtrnFuncs) > 0 {
		fmt.Fprintf(b.out, "# extern %s\n", strings.Join(b.prog.ExtrnFuncs, ", "))
	}

	if len(b.prog.Globals) > 0 {
		b.out.WriteString("\n")
	}
	for _, g := range b.prog.Globals {
		if err := b.genGlobal(g); err != nil {
			return err
		}
	}

	for _, fn := range b.prog.Funcs {
		if err := b.genFunc(fn); err != nil {
			return err
		}
	}

	for _, s := range b.prog.Sections {
		fmt.Fprintf(b.out, "\n# %s %s\n", s.Kind, s.Name)
		b.out.WriteString(s.Code)
		if !strings.HasSuffix(s.Code, "\n") {
			b.out.WriteString("\n")
		}
	}
	return nil
}

func (b *qbeBackend) genGlobal(g *ir.Data) error {
	alignStr := ""
	if g.Align > 0 { alignStr = fmt.Sprintf("align %d ", g.Align) }

	fmt.Fprintf(b.out, "data $%s = %s{ ", g.Name, alignStr)
	for i, item := range g.Items {
		switch {
		case item.Typ == ir.TypeB:
			data, ok := item.Value.(*ir.Bytes)
			if !ok {
				return fmt.Errorf("data $%s: byte item needs raw data, got %T", g.Name, item.Value)
			}
			b.out.WriteString(formatBytes(data.Data))
		default:
			fmt.Fprintf(b.out, "%s %s", b.formatType(item.Typ), b.formatValue(item.Value))
		}
		if i < len(g.Items)-1 { b.out.WriteString(", ") }
	}
	b.out.WriteString(" }\n")
	return nil
}

// formatBytes writes printable runs as string items and everything else as
// numeric bytes, so no escape sequence ever reaches the assembler.
func formatBytes(data []byte) string {
	if len(data) == 0 {
		return "z 1"
	}
	var items []string
	var run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			items = append(items, "b \""+run.String()+"\"")
			run.Reset()
		}
	}
	for _, c := range data {
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			run.WriteByte(c)
			continue
		}
		flush()
		items = append(items, "b "+strconv.Itoa(int(c)))
	}
	flush()
	return strings.Join(items, ", ")
}

func (b *qbeBackend) genFunc(fn *ir.Func) error {
	retTypeStr := b.formatType(fn.ReturnType)
	if retTypeStr != "" { retTypeStr = " " + retTypeStr }

	export := ""
	if fn.Exported { export = "export " }
	fmt.Fprintf(b.out, "\n%sfunction%s $%s() {\n", export, retTypeStr, fn.Name)

	for _, block := range fn.Blocks {
		if err := b.genBlock(block); err != nil {
			return fmt.Errorf("function $%s: %w", fn.Name, err)
		}
	}

	b.out.WriteString("}\n")
	return nil
}

func (b *qbeBackend) genBlock(block *ir.BasicBlock) error {
	fmt.Fprintf(b.out, "@%s\n", block.Label.Name)
	for _, instr := range block.Instructions {
		if err := b.genInstr(instr); err != nil {
			return err
		}
	}
	return nil
}

func (b *qbeBackend) genInstr(instr *ir.Instruction) error {
	b.out.WriteString("\t")
	switch instr.Op {
	case ir.OpCall:
		b.genCall(instr)
	case ir.OpStore:
		if len(instr.Args) != 2 {
			return fmt.Errorf("store takes 2 arguments, got %d", len(instr.Args))
		}
		fmt.Fprintf(b.out, "store%s %s, %s\n", b.formatType(instr.Typ), b.formatValue(instr.Args[0]), b.formatValue(instr.Args[1]))
	case ir.OpRet:
		b.out.WriteString("ret")
		if len(instr.Args) > 0 {
			b.out.WriteString(" " + b.formatValue(instr.Args[0]))
		}
		b.out.WriteString("\n")
	default:
		return fmt.Errorf("unknown op %d", instr.Op)
	}
	return nil
}

func (b *qbeBackend) genCall(instr *ir.Instruction) {
	if instr.Result != nil {
		fmt.Fprintf(b.out, "%s =%s ", b.formatValue(instr.Result), b.formatType(instr.Typ))
	}

	fmt.Fprintf(b.out, "call %s(", b.formatValue(instr.Args[0]))

	for i, arg := range instr.Args[1:] {
		argType := ir.WordType(b.prog.WordSize)
		if instr.ArgTypes != nil && i < len(instr.ArgTypes) {
			argType = instr.ArgTypes[i]
		}
		fmt.Fprintf(b.out, "%s %s", b.formatType(argType), b.formatValue(arg))
		if i < len(instr.Args)-2 { b.out.WriteString(", ") }
	}
	b.out.WriteString(")\n")
}

func (b *qbeBackend) formatValue(v ir.Value) string {
	if v == nil { return "" }
	switch val := v.(type) {
	case *ir.Const: return strconv.FormatInt(val.Value, 10)
	case *ir.FloatConst: return b.formatType(val.Typ) + "_" + strconv.FormatFloat(val.Value, 'e', -1, 64)
	case *ir.Global: return "$" + val.Name
	case *ir.Temporary: return "%" + val.String()
	case *ir.Label: return "@" + val.Name
	default: return ""
	}
}

func (b *qbeBackend) formatType(t ir.Type) string {
	switch t {
	case ir.TypeB: return "b"
	case ir.TypeW: return "w"
	case ir.TypeL: return "l"
	case ir.TypeD: return "d"
	default: return ""
	}
}
