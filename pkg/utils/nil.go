package utils

// ZeroUnless dereferences p, or returns the zero value when p is nil.
//
// Useful to flatten optional fields of request payloads.
func ZeroUnless[T any](p *T) T {
	if p != nil {
		return *p
	}
	return *new(T)
}
