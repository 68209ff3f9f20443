package constant

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

type widget struct{}

func (widget) Kind() Kind   { return KindInt }
func (widget) Repr() string { return "<widget>" }

func TestEqual(t *testing.T) {
	nan := Float(math.NaN())
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nan", nan, nan, true},
		{"nested nan", Tuple{Int(1), nan}, Tuple{Int(1), nan}, true},
		{"complex nan", Complex(complex(math.NaN(), 1)), Complex(complex(math.NaN(), 1)), true},
		{"complex nan differs", Complex(complex(math.NaN(), 1)), Complex(complex(math.NaN(), 2)), false},
		{"nan payload", nan, Float(math.Float64frombits(0x7ff8000000000001)), true},
		{"negative nan", nan, Float(math.Float64frombits(0xfff8000000000000)), true},
		{"complex nan payload", Complex(complex(math.NaN(), 1)), Complex(complex(math.Float64frombits(0x7ff8000000000001), 1)), true},
		{"set with nan", NewSet(nan, Int(1)), NewSet(Int(1), Float(math.Float64frombits(0xfff8000000000000))), true},
		{"tuple vs list", Tuple{Int(1), Int(2)}, List{Int(1), Int(2)}, false},
		{"int vs bool", Int(1), Bool(true), false},
		{"int vs float", Int(1), Float(1), false},
		{"str vs unicode", Str("a"), Unicode("a"), false},
		{"dict order", Dict{{Int(1), Str("a")}, {Int(2), Str("b")}}, Dict{{Int(2), Str("b")}, {Int(1), Str("a")}}, true},
		{"dict value", Dict{{Int(1), Str("a")}}, Dict{{Int(1), Str("b")}}, false},
		{"set order", NewSet(Int(1), Int(2)), NewSet(Int(2), Int(1)), true},
		{"set vs frozenset", NewSet(Int(1)), NewFrozenSet(Int(1)), false},
		{"long", NewLong(big.NewInt(7)), NewLong(big.NewInt(7)), true},
		{"sequence length", Tuple{Int(1)}, Tuple{Int(1), Int(1)}, false},
		{"none", None, None, true},
		{"nil", nil, None, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, Equal(c.a, c.b))
			require.Equal(t, c.want, Equal(c.b, c.a))
		})
	}
}

func TestNewSetDropsDuplicates(t *testing.T) {
	nan := Float(math.NaN())
	s := NewSet(Int(1), nan, Int(1), nan)
	require.Len(t, s, 2)
	require.Len(t, NewFrozenSet(), 0)
}

func TestRepr(t *testing.T) {
	long, _ := new(big.Int).SetString("-123456789012345678901234567890", 10)
	cases := []struct {
		v    Value
		want string
	}{
		{None, "None"},
		{Ellipsis, "Ellipsis"},
		{Bool(false), "False"},
		{Int(-42), "-42"},
		{NewLong(long), "-123456789012345678901234567890L"},
		{Float(1), "1.0"},
		{Float(0.5), "0.5"},
		{Float(1e16), "1e+16"},
		{Float(1e-05), "1e-05"},
		{Float(math.Inf(-1)), "-inf"},
		{Complex(complex(0, 2)), "2j"},
		{Complex(complex(1, -2)), "(1-2j)"},
		{Str("it's"), `"it's"`},
		{Str("a\n\x00"), `'a\n\x00'`},
		{Unicode("é中"), `u'\xe9\u4e2d'`},
		{Tuple{Int(1)}, "(1,)"},
		{Tuple{}, "()"},
		{List{Str("a"), None}, "['a', None]"},
		{Dict{{Str("b"), Int(2)}, {Str("a"), Int(1)}}, "{'a': 1, 'b': 2}"},
		{NewSet(Int(2), Int(1)), "set([1, 2])"},
		{NewFrozenSet(), "frozenset([])"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.v.Repr())
	}
}

func TestSupported(t *testing.T) {
	require.True(t, Supported(Dict{{Str("k"), Tuple{Int(1), NewSet(Float(1))}}}))
	require.False(t, Supported(widget{}))
	require.False(t, Supported(Tuple{Int(1), widget{}}))
	require.False(t, Supported(Dict{{Str("k"), widget{}}}))
	require.False(t, Supported(nil))
}

func TestKinds(t *testing.T) {
	k, ok := KindByName("frozenset")
	require.True(t, ok)
	require.Equal(t, KindFrozenSet, k)
	_, ok = KindByName("widget")
	require.False(t, ok)
	require.Equal(t, "unknown", Kind(99).String())
	require.Equal(t, 3, Len(List{None, None, None}))
	require.Equal(t, 0, Len(Str("abc")))
}
