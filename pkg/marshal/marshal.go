// Package marshal serialises constants into the blobs the generated code
// rebuilds them from at module load time.
//
// A blob is a protobuf-wire message:
//
//	1: kind       varint
//	2: integer    zigzag varint (int, bool)
//	3: real part  fixed64 IEEE-754 bits (float, complex)
//	4: imag part  fixed64 IEEE-754 bits (complex)
//	5: payload    bytes (str, unicode, long magnitude, big endian)
//	6: negative   varint (long)
//	7: element    embedded message, repeated (dict items alternate key, value)
//
// Float payloads are stored bit-exactly so NaN values survive the trip.
package marshal

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/xplshn/gpyc/pkg/constant"
)

const (
	fieldKind     protowire.Number = 1
	fieldInt      protowire.Number = 2
	fieldReal     protowire.Number = 3
	fieldImag     protowire.Number = 4
	fieldPayload  protowire.Number = 5
	fieldNegative protowire.Number = 6
	fieldElem     protowire.Number = 7
)

var ErrMalformed = errors.New("malformed constant blob")

// Encode serialises v. It fails for values outside the constant package.
func Encode(v constant.Value) ([]byte, error) { return appendValue(nil, v) }

func appendValue(b []byte, v constant.Value) ([]byte, error) {
	if v == nil || !constant.IsBuiltin(v) {
		return nil, fmt.Errorf("cannot marshal %T", v)
	}
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(v.Kind()))

	var err error
	switch x := v.(type) {
	case constant.Bool:
		b = protowire.AppendTag(b, fieldInt, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(bool(x)))
	case constant.Int:
		b = protowire.AppendTag(b, fieldInt, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(x)))
	case constant.Long:
		n := x.Big()
		if n.Sign() < 0 {
			b = protowire.AppendTag(b, fieldNegative, protowire.VarintType)
			b = protowire.AppendVarint(b, 1)
		}
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, new(big.Int).Abs(n).Bytes())
	case constant.Float:
		b = appendFloat(b, fieldReal, float64(x))
	case constant.Complex:
		b = appendFloat(b, fieldReal, real(x))
		b = appendFloat(b, fieldImag, imag(x))
	case constant.Str:
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendString(b, string(x))
	case constant.Unicode:
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendString(b, string(x))
	case constant.Tuple:
		b, err = appendElems(b, x)
	case constant.List:
		b, err = appendElems(b, x)
	case constant.Set:
		b, err = appendElems(b, x)
	case constant.FrozenSet:
		b, err = appendElems(b, x)
	case constant.Dict:
		for _, it := range x {
			if b, err = appendElems(b, []constant.Value{it.Key, it.Value}); err != nil {
				break
			}
		}
	}
	return b, err
}

func appendFloat(b []byte, num protowire.Number, f float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(f))
}

func appendElems(b []byte, elems []constant.Value) ([]byte, error) {
	for _, e := range elems {
		inner, err := appendValue(nil, e)
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, fieldElem, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	return b, nil
}

type fields struct {
	kind       constant.Kind
	hasKind    bool
	integer    uint64
	real, imag uint64
	payload    []byte
	negative   bool
	elems      [][]byte
}

// Decode rebuilds a value from a blob produced by Encode.
func Decode(b []byte) (constant.Value, error) {
	var f fields
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			f.kind, f.hasKind, b = constant.Kind(v), true, b[n:]
		case (num == fieldInt || num == fieldNegative) && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			if num == fieldInt {
				f.integer = v
			} else {
				f.negative = v != 0
			}
			b = b[n:]
		case (num == fieldReal || num == fieldImag) && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			if num == fieldReal {
				f.real = v
			} else {
				f.imag = v
			}
			b = b[n:]
		case (num == fieldPayload || num == fieldElem) && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			if num == fieldPayload {
				f.payload = v
			} else {
				f.elems = append(f.elems, v)
			}
			b = b[n:]
		default:
			return nil, fmt.Errorf("%w: unexpected field %d (wire type %d)", ErrMalformed, num, typ)
		}
	}
	if !f.hasKind {
		return nil, fmt.Errorf("%w: missing kind", ErrMalformed)
	}
	return f.value()
}

func (f *fields) value() (constant.Value, error) {
	switch f.kind {
	case constant.KindNone:
		return constant.None, nil
	case constant.KindEllipsis:
		return constant.Ellipsis, nil
	case constant.KindBool:
		return constant.Bool(protowire.DecodeBool(f.integer)), nil
	case constant.KindInt:
		return constant.Int(protowire.DecodeZigZag(f.integer)), nil
	case constant.KindLong:
		n := new(big.Int).SetBytes(f.payload)
		if f.negative {
			n.Neg(n)
		}
		return constant.NewLong(n), nil
	case constant.KindFloat:
		return constant.Float(math.Float64frombits(f.real)), nil
	case constant.KindComplex:
		return constant.Complex(complex(math.Float64frombits(f.real), math.Float64frombits(f.imag))), nil
	case constant.KindStr:
		return constant.Str(f.payload), nil
	case constant.KindUnicode:
		return constant.Unicode(f.payload), nil
	}

	elems := make([]constant.Value, len(f.elems))
	for i, e := range f.elems {
		v, err := Decode(e)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	switch f.kind {
	case constant.KindTuple:
		return constant.Tuple(elems), nil
	case constant.KindList:
		return constant.List(elems), nil
	case constant.KindSet:
		return constant.Set(elems), nil
	case constant.KindFrozenSet:
		return constant.FrozenSet(elems), nil
	case constant.KindDict:
		if len(elems)%2 != 0 {
			return nil, fmt.Errorf("%w: dict with odd element count %d", ErrMalformed, len(elems))
		}
		d := make(constant.Dict, 0, len(elems)/2)
		for i := 0; i < len(elems); i += 2 {
			d = append(d, constant.Item{Key: elems[i], Value: elems[i+1]})
		}
		return d, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformed, f.kind)
}
