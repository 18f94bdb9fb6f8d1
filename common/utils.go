package common

// Unsigned is the set of unsigned integer types accepted by AlignUp.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Coalesce picks the first value that is not the zero value of its type. Config defaults and
// derived output paths are filled this way.
//
// Parameters:
//   - values: candidates in priority order
//
// Returns:
//   - T: the first non-zero candidate, or the zero value when every candidate is zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// AlignUp rounds n up to the next multiple of align. An align of zero returns n unchanged.
//
// Parameters:
//   - n: the size to round
//   - align: the granularity
//
// Returns:
//   - T: the smallest multiple of align that is >= n
func AlignUp[T Unsigned](n, align T) T {
	if align == 0 {
		return n
	}
	return (n + align - 1) / align * align
}
