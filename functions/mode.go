package functions

// Mode is the passing mode of a parameter of a native function.
type Mode int

//go:generate go tool enumer -type=Mode mode.go

const (
	// IN parameters are only read by the native function. It is the default mode.
	IN Mode = iota

	// OUT parameters receive a result written by the native function through a pointer.
	OUT

	// INOUT parameters are both read and written by the native function.
	INOUT
)

// IsOutput returns whether the mode makes the parameter one of the function's outputs (OUT or INOUT).
func (m Mode) IsOutput() bool {
	return m == OUT || m == INOUT
}
