package constant

import "math"

// Equal reports whether a and b are the same constant. Unlike plain value
// comparison it treats NaN as equal to NaN, at any nesting depth, and compares
// mappings and sets without regard to order.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	if nativeEqual(a, b) {
		return true
	}

	// Either the values differ, or a NaN somewhere made the native
	// comparison fail.
	switch x := a.(type) {
	case Complex:
		y := b.(Complex)
		return Equal(Float(real(x)), Float(real(y))) && Equal(Float(imag(x)), Float(imag(y)))
	case Float:
		return math.IsNaN(float64(x)) && math.IsNaN(float64(b.(Float)))
	case Tuple:
		return sequenceEqual(x, b.(Tuple))
	case List:
		return sequenceEqual(x, b.(List))
	case Dict:
		y := b.(Dict)
		return len(x) == len(y) && itemsCovered(x, y) && itemsCovered(y, x)
	case Set:
		return elementsCovered(x, b.(Set))
	case FrozenSet:
		return elementsCovered(x, b.(FrozenSet))
	}
	return false
}

func nativeEqual(a, b Value) bool {
	switch x := a.(type) {
	case noneValue, ellipsisValue:
		return true
	case Bool:
		return x == b.(Bool)
	case Int:
		return x == b.(Int)
	case Long:
		return x.Big().Cmp(b.(Long).Big()) == 0
	case Float:
		return x == b.(Float)
	case Complex:
		return x == b.(Complex)
	case Str:
		return x == b.(Str)
	case Unicode:
		return x == b.(Unicode)
	}
	// Containers have no cheap native comparison that would be correct in
	// the presence of NaN, so they always take the recursive path.
	return false
}

func sequenceEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// itemsCovered reports whether every item of a has an equal item in b.
func itemsCovered(a, b Dict) bool {
	for _, ia := range a {
		found := false
		for _, ib := range b {
			if Equal(ia.Key, ib.Key) && Equal(ia.Value, ib.Value) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// elementsCovered compares every element against all of b, NaN elements are
// not equal to themselves natively so no lookup shortcut is possible.
func elementsCovered(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for _, ea := range a {
		found := false
		for _, eb := range b {
			if Equal(ea, eb) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Supported reports whether v and everything nested in it are values of
// this package.
func Supported(v Value) bool {
	if v == nil || !IsBuiltin(v) {
		return false
	}
	switch c := v.(type) {
	case Tuple:
		return allSupported(c)
	case List:
		return allSupported(c)
	case Set:
		return allSupported(c)
	case FrozenSet:
		return allSupported(c)
	case Dict:
		for _, it := range c {
			if !Supported(it.Key) || !Supported(it.Value) {
				return false
			}
		}
	}
	return true
}

func allSupported(vs []Value) bool {
	for _, v := range vs {
		if !Supported(v) {
			return false
		}
	}
	return true
}
