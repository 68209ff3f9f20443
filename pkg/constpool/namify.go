package constpool

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/xplshn/gpyc/pkg/constant"
)

const (
	symbolPrefix   = "const_"
	maxPlainLen    = 40
	maxSequenceLen = 64
)

// Namify derives the symbol name of a constant from its kind and canonical
// form. Readable names are used where the value allows it, a digest of the
// canonical form otherwise.
func Namify(v constant.Value) string { return symbolPrefix + namify(v, false) }

func namify(v constant.Value, nested bool) string {
	kind := v.Kind().String()
	switch x := v.(type) {
	case constant.Bool:
		return kind + "_" + x.Repr()
	case constant.Int:
		if x < 0 {
			return kind + "_neg_" + strings.TrimPrefix(x.Repr(), "-")
		}
		return kind + "_pos_" + x.Repr()
	case constant.Long:
		n := x.Big()
		digits := new(big.Int).Abs(n).String()
		if len(digits) > maxPlainLen {
			return kind + "_digest_" + digest(v)
		}
		if n.Sign() < 0 {
			return kind + "_neg_" + digits
		}
		return kind + "_pos_" + digits
	case constant.Float:
		return kind + "_" + floatName(float64(x))
	case constant.Complex:
		return kind + "_" + floatName(real(complex128(x))) + "_" + floatName(imag(complex128(x)))
	case constant.Str:
		return stringName(kind, string(x), v, nested)
	case constant.Unicode:
		return stringName(kind, string(x), v, nested)
	case constant.Tuple:
		return sequenceName(kind, x, v)
	case constant.List:
		return sequenceName(kind, x, v)
	}
	if constant.Len(v) == 0 {
		return kind + "_empty"
	}
	return kind + "_digest_" + digest(v)
}

func stringName(kind, s string, v constant.Value, nested bool) string {
	if s == "" {
		return kind + "_empty"
	}
	// Inside a sequence name an underscore would make element boundaries
	// ambiguous.
	if len(s) <= maxPlainLen && isPlain(s) && !(nested && strings.ContainsRune(s, '_')) {
		return kind + "_plain_" + s
	}
	return kind + "_digest_" + digest(v)
}

func sequenceName(kind string, elems []constant.Value, v constant.Value) string {
	if len(elems) == 0 {
		return kind + "_empty"
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = namify(e, true)
	}
	joined := strings.Join(parts, "_")
	if len(joined) > maxSequenceLen {
		return kind + "_digest_" + digest(v)
	}
	return kind + "_" + strconv.Itoa(len(elems)) + "_" + joined
}

func floatName(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "minus_inf"
	}
	r := constant.Float(f).Repr()
	r = strings.ReplaceAll(r, "-", "minus_")
	r = strings.ReplaceAll(r, "+", "")
	return strings.ReplaceAll(r, ".", "_")
}

func isPlain(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func digest(v constant.Value) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(v.Kind().String()+":"+v.Repr()))
}

// keyHash buckets pool entries. Two values can only share an entry when kind
// and canonical form both match, so those are all the hash needs.
func keyHash(kind constant.Kind, repr string) uint64 {
	return xxhash.Sum64String(kind.String() + "\x00" + repr)
}
