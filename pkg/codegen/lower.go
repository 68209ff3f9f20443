package codegen

import (
	"fmt"
	"strings"

	"github.com/xplshn/gpyc/pkg/constpool"
	"github.com/xplshn/gpyc/pkg/ir"
	"github.com/xplshn/gpyc/pkg/scope"
)

// Unit is a module or package root whose nested code has been registered.
type Unit interface {
	ModuleName() string
	ModuleCodeName() string
	GlobalVariableNames() []string
	FunctionsCode() []scope.FunctionCode
	ClassesCode() []scope.ClassCode
	LambdasCode() []scope.LambdaCode
	ContractionsCode() []scope.ContractionCode
}

// InitFuncName returns the exported entry point of a unit.
func InitFuncName(codeName string) string { return "init" + codeName }

// Lower builds the program for unit: the constant table and its
// initialization, one slot per global name and the code of every nested
// declaration in registration order.
func Lower(unit Unit, global *scope.GlobalContext) (*ir.Program, error) {
	prog := &ir.Program{Unit: unit.ModuleCodeName(), WordSize: global.Config().WordSize}

	if err := global.Pool().Emit(prog); err != nil {
		return nil, err
	}

	wt := ir.WordType(prog.WordSize)
	for _, name := range unit.GlobalVariableNames() {
		prog.Globals = append(prog.Globals, &ir.Data{
			Name:  fmt.Sprintf("_mvar_%s_%s", unit.ModuleCodeName(), name),
			Align: prog.WordSize,
			Items: []ir.DataItem{{Typ: wt, Value: &ir.Const{Value: 0}}},
		})
	}

	for _, fc := range unit.FunctionsCode() {
		prog.Sections = append(prog.Sections, ir.Section{Kind: "function", Name: fc.Function.FullName(), Code: fc.Code})
	}
	for _, cc := range unit.ClassesCode() {
		prog.Sections = append(prog.Sections, ir.Section{Kind: "class", Name: cc.Class.Name(), Code: cc.Code})
	}
	for _, lc := range unit.LambdasCode() {
		prog.Sections = append(prog.Sections, ir.Section{Kind: "lambda", Name: lc.Lambda.FullName(), Code: lc.Code})
	}
	for _, cc := range unit.ContractionsCode() {
		name := cc.Identifier
		if name == "" {
			name = cc.Contraction.FullName()
		}
		prog.Sections = append(prog.Sections, ir.Section{Kind: "contraction", Name: name, Code: cc.Code})
	}

	entry := &ir.BasicBlock{Label: &ir.Label{Name: "start"}}
	entry.Instructions = append(entry.Instructions,
		&ir.Instruction{Op: ir.OpCall, Args: []ir.Value{&ir.Global{Name: constpool.InitFuncName}}},
		&ir.Instruction{Op: ir.OpRet},
	)
	prog.Funcs = append(prog.Funcs, &ir.Func{Name: InitFuncName(unit.ModuleCodeName()), Exported: true, Blocks: []*ir.BasicBlock{entry}})

	return prog, nil
}

// Header returns the C declarations of the pooled constants, for
// translation units that reference them.
func Header(unit Unit, global *scope.GlobalContext) string {
	var sb strings.Builder
	guard := "__GPYC_" + strings.ToUpper(unit.ModuleCodeName()) + "_CONSTANTS_H__"
	fmt.Fprintf(&sb, "#ifndef %s\n#define %s\n\n", guard, guard)
	for _, decl := range global.Pool().Declarations(true) {
		sb.WriteString(decl + "\n")
	}
	fmt.Fprintf(&sb, "\nextern void %s(void);\n\n#endif\n", constpool.InitFuncName)
	return sb.String()
}
