// Package ptrx has helpers for optional values expressed as pointers.
package ptrx

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Value dereferences p, returning the zero value when p is nil.
func Value[T any](p *T) T {
	var zero T
	return ValueOr(p, zero)
}

func ValueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// NonZero returns a pointer to v, or nil when v is the zero value.
func NonZero[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

func String(v string) *string { return To(v) }
