package marshal

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/xplshn/gpyc/pkg/constant"
)

type opaque struct{}

func (opaque) Kind() constant.Kind { return constant.KindStr }
func (opaque) Repr() string        { return "<opaque>" }

func TestRoundTrip(t *testing.T) {
	huge, _ := new(big.Int).SetString("-98765432109876543210987654321", 10)
	values := []constant.Value{
		constant.None,
		constant.Ellipsis,
		constant.Bool(true),
		constant.Int(math.MinInt64),
		constant.Int(300),
		constant.NewLong(huge),
		constant.NewLong(new(big.Int)),
		constant.Float(-0.0),
		constant.Float(math.Inf(1)),
		constant.Complex(complex(1.5, math.NaN())),
		constant.Str("\x00\xffbytes"),
		constant.Unicode("héllo"),
		constant.Tuple{},
		constant.List{constant.Int(1), constant.Tuple{constant.Str("a")}},
		constant.NewSet(constant.Int(1), constant.Float(2)),
		constant.NewFrozenSet(constant.Str("x")),
		constant.Dict{{Key: constant.Str("k"), Value: constant.List{constant.None}}},
	}
	for _, v := range values {
		blob, err := Encode(v)
		require.NoError(t, err, v.Repr())
		got, err := Decode(blob)
		require.NoError(t, err, v.Repr())
		require.True(t, constant.Equal(v, got), "want %s got %s", v.Repr(), got.Repr())
	}
}

func TestFloatBitsSurvive(t *testing.T) {
	nan := math.Float64frombits(0x7ff8000000000abc)
	blob, err := Encode(constant.Float(nan))
	require.NoError(t, err)
	got, err := Decode(blob)
	require.NoError(t, err)
	require.Equal(t, uint64(0x7ff8000000000abc), math.Float64bits(float64(got.(constant.Float))))

	blob, err = Encode(constant.Float(math.Copysign(0, -1)))
	require.NoError(t, err)
	got, err = Decode(blob)
	require.NoError(t, err)
	require.True(t, math.Signbit(float64(got.(constant.Float))))
}

func TestEncodeUnsupported(t *testing.T) {
	_, err := Encode(opaque{})
	require.ErrorContains(t, err, "cannot marshal")
	_, err = Encode(constant.Tuple{constant.Int(1), opaque{}})
	require.Error(t, err)
	_, err = Encode(nil)
	require.Error(t, err)
}

func TestDecodeMalformed(t *testing.T) {
	kind := func(k constant.Kind) []byte {
		b := protowire.AppendTag(nil, fieldKind, protowire.VarintType)
		return protowire.AppendVarint(b, uint64(k))
	}
	elem := func(b []byte) []byte {
		inner, _ := Encode(constant.Int(1))
		b = protowire.AppendTag(b, fieldElem, protowire.BytesType)
		return protowire.AppendBytes(b, inner)
	}

	cases := map[string][]byte{
		"truncated tag":   {0xff},
		"truncated value": protowire.AppendTag(nil, fieldKind, protowire.VarintType),
		"missing kind":    protowire.AppendVarint(protowire.AppendTag(nil, fieldInt, protowire.VarintType), 2),
		"wrong wire type": protowire.AppendFixed32(protowire.AppendTag(kind(constant.KindInt), fieldInt, protowire.Fixed32Type), 1),
		"unknown kind":    kind(99),
		"odd dict":        elem(kind(constant.KindDict)),
		"bad element":     protowire.AppendBytes(protowire.AppendTag(kind(constant.KindTuple), fieldElem, protowire.BytesType), []byte{0xff}),
	}
	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(blob)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}
