package xirt

import "fmt"

// Error is a wrapper for specific types of errors for which there is no additional information
// necessary. These errors are defined as global variables.
type Error struct{ string }

func (err Error) Error() string {
	return err.string
}

// These are the global errors that may be returned or panicked.
var (
	ErrNetNotFinalized = Error{"Network has not been finalized"}
	ErrNetFinalized    = Error{"Network has already been finalized"}
	ErrNoCostFunction  = Error{"Network has no CostFunction"}
	ErrNoOptimizer     = Error{"Node has no Optimizer and there is no default"}
	ErrNoInitializer   = Error{"Node has no Initializer and there is no default"}
	ErrNoHP            = Error{"HyperParameter not found"}
	ErrNoInputs        = Error{"Node has no inputs"}
)

// NilArgError documents errors resulting from certain arguments provided to a function being nil.
// Arg is the name of the argument.
type NilArgError struct{ Arg string }

func (err NilArgError) Error() string {
	return err.Arg + " is nil"
}

// SizeMismatchError results from a set of values not having the size that was expected of them.
type SizeMismatchError struct {
	Expected, Got int
	What          string
}

func (err SizeMismatchError) Error() string {
	return fmt.Sprintf("Size of %s does not match (expected %d, got %d)", err.What, err.Expected, err.Got)
}
