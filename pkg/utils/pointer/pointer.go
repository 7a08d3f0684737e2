package pointer

// Ref returns a pointer to a copy of t.
//
// Handy to build optional fields from literals.
func Ref[T any](t T) *T {
	return &t
}
