package tool

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// PanicError is produced when a tool panics during init or render
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// guard runs fn and converts a panic into a *PanicError
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// traceOf renders the diagnostic trace for err: the panic stack when
// one was captured, otherwise every message in the wrap chain.
func traceOf(err error) string {
	if err == nil {
		return ""
	}

	var pe *PanicError
	if errors.As(err, &pe) {
		return pe.Error() + "\n\n" + string(pe.Stack)
	}

	var b strings.Builder
	for depth := 0; err != nil; depth++ {
		fmt.Fprintf(&b, "%s%T: %s\n", strings.Repeat("  ", depth), err, err.Error())
		err = errors.Unwrap(err)
	}
	return b.String()
}
