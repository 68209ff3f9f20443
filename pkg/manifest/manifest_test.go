package manifest

import (
	"bytes"
	"math"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xplshn/gpyc/pkg/codegen"
	"github.com/xplshn/gpyc/pkg/config"
	"github.com/xplshn/gpyc/pkg/constant"
	"github.com/xplshn/gpyc/pkg/util"
)

const unitYAML = `
module: demo.mod
file: demo/mod.py
defines: [f, C, total]
refs: [f, i, total, len, missing]
constants:
  - {int: 5}
  - {tuple: [{int: 1}, {str: a}]}
body:
  - function:
      name: f
      locals: [x]
      closure: [y]
      parameters: [x]
      defaults: [x]
      generator: true
      refs: [x, y, z]
      code: "function $f() {\n@start\n\tret\n}"
      body:
        - lambda:
            parameters: [p]
            refs: [p, x]
  - class:
      name: C
      variables: [attr]
      refs: [attr]
  - contraction:
      kind: list
      name: lc
      loop_variables: [i]
      iterateds: [range]
  - contraction:
      kind: generator
      name: ge
      loop_variables: [j]
`

func decode(t *testing.T, src string) *Unit {
	t.Helper()
	u, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	return u
}

func TestDecodeUnit(t *testing.T) {
	u := decode(t, unitYAML)
	require.Equal(t, "demo_mod", u.CodeName)
	require.Len(t, u.Body, 4)
	require.NotNil(t, u.Body[0].Function)
	require.True(t, u.Body[0].Function.Generator)
	require.Len(t, u.Body[0].Function.Body, 1)
	require.Equal(t, "list", u.Body[2].Contraction.Kind)
	require.True(t, constant.Equal(constant.Int(5), u.Constants[0].Value))
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("module: m\nbogus: 1\n"))
	require.Error(t, err)
	_, err = Decode(strings.NewReader("file: x.py\n"))
	require.ErrorContains(t, err, "no module name")
}

func TestDecodeConstants(t *testing.T) {
	src := `
module: m
constants:
  - {none: ~}
  - {ellipsis: ~}
  - {bool: true}
  - {int: -0x10}
  - {long: "123456789012345678901234567890"}
  - {float: .nan}
  - {float: -.inf}
  - {complex: [0, -1.5]}
  - {unicode: "hé"}
  - {list: [{str: ""}]}
  - {set: [{int: 1}, {int: 1}, {int: 2}]}
  - {frozenset: []}
  - {dict: [{key: {str: k}, value: {tuple: []}}]}
`
	u := decode(t, src)
	long, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	want := []constant.Value{
		constant.None,
		constant.Ellipsis,
		constant.Bool(true),
		constant.Int(-16),
		constant.NewLong(long),
		constant.Float(math.NaN()),
		constant.Float(math.Inf(-1)),
		constant.Complex(complex(0, -1.5)),
		constant.Unicode("hé"),
		constant.List{constant.Str("")},
		constant.Set{constant.Int(1), constant.Int(2)},
		constant.FrozenSet{},
		constant.Dict{{Key: constant.Str("k"), Value: constant.Tuple{}}},
	}
	require.Len(t, u.Constants, len(want))
	for i, w := range want {
		require.True(t, constant.Equal(w, u.Constants[i].Value), "constant %d: want %s got %s", i, w.Repr(), u.Constants[i].Repr())
	}
}

func TestDecodeBadConstants(t *testing.T) {
	for _, c := range []string{
		"{int: x}",
		"{long: 1.5}",
		"{float: abc}",
		"{complex: [1]}",
		"{dict: [{key: {int: 1}}]}",
		"{widget: 1}",
		"{int: 1, str: a}",
	} {
		_, err := Decode(strings.NewReader("module: m\nconstants:\n  - " + c + "\n"))
		require.Error(t, err, c)
	}
}

func TestBuild(t *testing.T) {
	cfg := config.NewConfig()
	res, err := Build(decode(t, unitYAML), cfg)
	require.NoError(t, err)

	got := make(map[string]string)
	for _, r := range res.Resolutions {
		got[r.Scope+" "+r.Name] = r.Identifier.Code()
	}
	want := map[string]string{
		"<module> f":                      "_mvar_demo_mod_f",
		"<module> i":                      "_mvar_demo_mod_i",
		"<module> total":                  "_mvar_demo_mod_total",
		"<module> len":                    "_mvar_demo_mod_len",
		"<module> missing":                "_mvar_demo_mod_missing",
		"<module>.f x":                    "_python_context->python_var_x",
		"<module>.f y":                    "_python_context->common_context->python_closure_y",
		"<module>.f z":                    "_mvar_demo_mod_z",
		"<module>.f x (default)":          "_python_context->default_value_x",
		"<module>.f._python_lambda_1_f p": "python_var_p",
		"<module>.f._python_lambda_1_f x": "_python_context->python_closure_x",
		"<module>.C attr":                 "python_var_attr",
		"<module>.lc i":                   "python_closure_i",
		"<module>.ge j":                   "_python_context->python_var_j",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolutions mismatch (-want +got):\n%s", diff)
	}

	root := res.Root
	require.Len(t, root.FunctionsCode(), 1)
	require.Len(t, root.ClassesCode(), 1)
	require.Len(t, root.LambdasCode(), 1)
	require.Len(t, root.ContractionsCode(), 2)

	lc, ge := root.ContractionsCode()[0], root.ContractionsCode()[1]
	require.Equal(t, "lc", lc.Identifier)
	require.Equal(t, []string{"python_closure_i"}, lc.LoopVarCodes)
	require.Equal(t, []string{"range"}, lc.Iterateds)
	require.Equal(t, "_python_generatorfunction_ge", ge.Identifier)

	require.Contains(t, res.Global.Pool().Symbols(), "const_int_pos_5")
	require.Contains(t, res.Global.Pool().Symbols(), "const_str_plain_p")
	require.Contains(t, res.Report(), "<module>.f: y -> closure(_python_context->common_context->python_closure_y)\n")
}

func TestUndefinedGlobalWarning(t *testing.T) {
	var buf bytes.Buffer
	old := util.Stderr
	util.Stderr = &buf
	defer func() { util.Stderr = old }()

	cfg := config.NewConfig()
	cfg.SetWarning(config.WarnUndefinedGlobal, true)
	_, err := Build(decode(t, unitYAML), cfg)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "global name 'missing' is never defined [-Wundefined-global]")
	require.Contains(t, out, "global name 'z' is never defined")
	require.NotContains(t, out, "'len'")
	require.NotContains(t, out, "'total'")
}

func TestDuplicateLambdaNamesAreDistinctDeclarations(t *testing.T) {
	src := `
module: m
body:
  - lambda: {name: l}
  - lambda: {name: l}
`
	res, err := Build(decode(t, src), config.NewConfig())
	require.NoError(t, err)
	require.Len(t, res.Root.LambdasCode(), 2)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(decode(t, "module: m\nbody:\n  - {}\n"), config.NewConfig())
	require.ErrorContains(t, err, "empty declaration")

	_, err = Build(decode(t, "module: m\nbody:\n  - contraction: {kind: tuple, name: t}\n"), config.NewConfig())
	require.ErrorContains(t, err, "unknown contraction kind")

	src := "module: m\nconstants:\n  - {float: 1.5}\n"
	cfg := config.NewConfig()
	res, err := Build(decode(t, src), cfg)
	require.NoError(t, err)
	require.Contains(t, res.Global.Pool().Symbols(), "const_float_1_5")
}

func TestPackageUnit(t *testing.T) {
	res, err := Build(decode(t, "module: pkg.sub\npackage: true\nrefs: [x]\n"), config.NewConfig())
	require.NoError(t, err)
	require.Equal(t, "package_pkg_sub", res.Root.ModuleCodeName())
	require.Equal(t, "_mvar_package_pkg_sub_x", res.Resolutions[0].Identifier.Code())
}

func TestPackageUnitNamesLambdas(t *testing.T) {
	src := "module: pkg.sub\npackage: true\nbody:\n  - lambda:\n      parameters: [p]\n  - lambda:\n      parameters: [q]\n"
	res, err := Build(decode(t, src), config.NewConfig())
	require.NoError(t, err)

	var names []string
	for _, l := range res.Root.LambdasCode() {
		names = append(names, l.Lambda.FullName())
	}
	want := []string{"_python_packagelambda_1_package_pkg_sub", "_python_packagelambda_2_package_pkg_sub"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("lambda names mismatch (-want +got):\n%s", diff)
	}
}

func TestTestdataManifests(t *testing.T) {
	files, err := filepath.Glob("../../testdata/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			u, err := Load(f)
			require.NoError(t, err)
			cfg := config.NewConfig()
			res, err := Build(u, cfg)
			require.NoError(t, err)

			prog, err := codegen.Lower(res.Root, res.Global)
			require.NoError(t, err)
			require.NotNil(t, prog.FindFunc(codegen.InitFuncName(res.Root.ModuleCodeName())))

			ir, err := codegen.NewQBEBackend().GenerateIR(prog, cfg)
			require.NoError(t, err)
			require.Contains(t, ir, "export function $_initConstants()")
		})
	}
}
