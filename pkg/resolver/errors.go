package resolver

import (
	"errors"
	"strings"
)

var (
	ErrEmptyInput = errors.New("empty input")
	ErrNoOrders   = errors.New("no chunk could be resolved")
)

// NoOrdersError is returned when every chunk failed. Warnings holds one entry
// per chunk.
type NoOrdersError struct {
	Warnings []string
}

func (e *NoOrdersError) Error() string {
	if len(e.Warnings) == 0 {
		return ErrNoOrders.Error()
	}
	return ErrNoOrders.Error() + ": " + strings.Join(e.Warnings, "; ")
}

func (e *NoOrdersError) Is(target error) bool {
	return target == ErrNoOrders
}
