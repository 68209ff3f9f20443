// Package manifest reads unit descriptions: the module or package, its
// declaration tree with the facts analysis found, the names each region
// references, the literal constants it uses and the code already generated
// for every nested declaration.
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/big"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xplshn/gpyc/pkg/constant"
)

type Unit struct {
	Module   string   `yaml:"module"`
	CodeName string   `yaml:"code_name"`
	File     string   `yaml:"file"`
	Package  bool     `yaml:"package"`
	Defines  []string `yaml:"defines"`
	Node     `yaml:",inline"`
}

// Node is the part every region has.
type Node struct {
	Refs      []string   `yaml:"refs"`
	Constants []Constant `yaml:"constants"`
	Body      []Decl     `yaml:"body"`
}

// Decl holds exactly one nested declaration.
type Decl struct {
	Function    *Function    `yaml:"function"`
	Class       *Class       `yaml:"class"`
	Lambda      *Lambda      `yaml:"lambda"`
	Contraction *Contraction `yaml:"contraction"`
}

type Function struct {
	Name                   string   `yaml:"name"`
	FullName               string   `yaml:"full_name"`
	CodeName               string   `yaml:"code_name"`
	Locals                 []string `yaml:"locals"`
	Closure                []string `yaml:"closure"`
	Parameters             []string `yaml:"parameters"`
	Defaults               []string `yaml:"defaults"`
	Generator              bool     `yaml:"generator"`
	LocalsDict             bool     `yaml:"locals_dict"`
	TryExcept              bool     `yaml:"try_except"`
	Exec                   bool     `yaml:"exec"`
	ExceptionBreakContinue bool     `yaml:"exception_break_continue"`
	Code                   string   `yaml:"code"`
	Node                   `yaml:",inline"`
}

type Class struct {
	Name       string   `yaml:"name"`
	CodeName   string   `yaml:"code_name"`
	Variables  []string `yaml:"variables"`
	Closure    []string `yaml:"closure"`
	LocalsDict bool     `yaml:"locals_dict"`
	TryExcept  bool     `yaml:"try_except"`
	Code       string   `yaml:"code"`
	Node       `yaml:",inline"`
}

type Lambda struct {
	// Name is allocated from the enclosing context when empty.
	Name       string   `yaml:"name"`
	Parameters []string `yaml:"parameters"`
	Defaults   []string `yaml:"defaults"`
	Code       string   `yaml:"code"`
	Node       `yaml:",inline"`
}

type Contraction struct {
	Kind          string   `yaml:"kind"`
	Name          string   `yaml:"name"`
	LoopVariables []string `yaml:"loop_variables"`
	Conditions    []string `yaml:"conditions"`
	Iterateds     []string `yaml:"iterateds"`
	Code          string   `yaml:"code"`
	Node          `yaml:",inline"`
}

// Load reads a unit description from a YAML file.
func Load(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	u, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

func Decode(r io.Reader) (*Unit, error) {
	var u Unit
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&u); err != nil {
		return nil, err
	}
	if u.Module == "" {
		return nil, fmt.Errorf("unit has no module name")
	}
	if u.CodeName == "" {
		u.CodeName = codeName(u.Module)
	}
	return &u, nil
}

func codeName(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, name)
}

// Constant is a literal written in tagged form, e.g. {int: 5},
// {float: nan}, {tuple: [{str: a}, {none: ~}]} or
// {dict: [{key: {str: k}, value: {int: 1}}]}.
type Constant struct {
	constant.Value
}

func (c *Constant) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeConstant(node)
	if err != nil {
		return err
	}
	c.Value = v
	return nil
}

func decodeConstant(node *yaml.Node) (constant.Value, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, fmt.Errorf("line %d: constant must be a mapping with a single kind key", node.Line)
	}
	tag, body := node.Content[0].Value, node.Content[1]

	switch tag {
	case "none":
		return constant.None, nil
	case "ellipsis":
		return constant.Ellipsis, nil
	case "bool":
		var b bool
		if err := body.Decode(&b); err != nil {
			return nil, err
		}
		return constant.Bool(b), nil
	case "int":
		n, err := strconv.ParseInt(body.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", body.Line, err)
		}
		return constant.Int(n), nil
	case "long":
		n, ok := new(big.Int).SetString(body.Value, 0)
		if !ok {
			return nil, fmt.Errorf("line %d: invalid long %q", body.Line, body.Value)
		}
		return constant.NewLong(n), nil
	case "float":
		f, err := parseFloat(body)
		if err != nil {
			return nil, err
		}
		return constant.Float(f), nil
	case "complex":
		if body.Kind != yaml.SequenceNode || len(body.Content) != 2 {
			return nil, fmt.Errorf("line %d: complex needs [real, imag]", body.Line)
		}
		re, err := parseFloat(body.Content[0])
		if err != nil {
			return nil, err
		}
		im, err := parseFloat(body.Content[1])
		if err != nil {
			return nil, err
		}
		return constant.Complex(complex(re, im)), nil
	case "str", "unicode":
		var s string
		if err := body.Decode(&s); err != nil {
			return nil, err
		}
		if tag == "unicode" {
			return constant.Unicode(s), nil
		}
		return constant.Str(s), nil
	case "tuple", "list", "set", "frozenset":
		elems, err := decodeSequence(body)
		if err != nil {
			return nil, err
		}
		switch tag {
		case "tuple":
			return constant.Tuple(elems), nil
		case "list":
			return constant.List(elems), nil
		case "set":
			return constant.NewSet(elems...), nil
		}
		return constant.NewFrozenSet(elems...), nil
	case "dict":
		return decodeDict(body)
	}
	return nil, fmt.Errorf("line %d: unknown constant kind %q", node.Line, tag)
}

func decodeSequence(node *yaml.Node) ([]constant.Value, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a sequence", node.Line)
	}
	elems := make([]constant.Value, 0, len(node.Content))
	for _, n := range node.Content {
		v, err := decodeConstant(n)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	return elems, nil
}

func decodeDict(node *yaml.Node) (constant.Value, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: dict needs a sequence of {key, value} items", node.Line)
	}
	var d constant.Dict
	for _, item := range node.Content {
		var kv struct {
			Key   Constant `yaml:"key"`
			Value Constant `yaml:"value"`
		}
		if err := item.Decode(&kv); err != nil {
			return nil, err
		}
		if kv.Key.Value == nil || kv.Value.Value == nil {
			return nil, fmt.Errorf("line %d: dict item needs key and value", item.Line)
		}
		d = append(d, constant.Item{Key: kv.Key.Value, Value: kv.Value.Value})
	}
	return d, nil
}

// parseFloat also accepts the YAML spellings .nan, .inf and -.inf.
func parseFloat(node *yaml.Node) (float64, error) {
	switch strings.ToLower(node.Value) {
	case ".nan", "nan":
		return math.NaN(), nil
	case ".inf", "+.inf", "inf", "+inf":
		return math.Inf(1), nil
	case "-.inf", "-inf":
		return math.Inf(-1), nil
	}
	f, err := strconv.ParseFloat(node.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", node.Line, err)
	}
	return f, nil
}
