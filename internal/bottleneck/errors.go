package bottleneck

import (
	"errors"
	"fmt"
	"strings"

	"rigcheck/internal/models"
)

// ErrNotFound is matched by every *NotFoundError via errors.Is
var ErrNotFound = errors.New("component not found")

// NotFoundError reports free text that matched no catalog entry.
// It is a user-correctable input error, not a system fault.
type NotFoundError struct {
	Kind        models.ComponentKind `json:"kind"`
	Input       string               `json:"input"`
	Suggestions []string             `json:"suggestions"`
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("unknown %s %q", e.Kind, e.Input)
	if len(e.Suggestions) > 0 {
		msg += " (did you mean: " + strings.Join(e.Suggestions, ", ") + ")"
	}
	return msg
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// UnknownComponentsError collects every unresolved component of a request
type UnknownComponentsError struct {
	Components []*NotFoundError
}

func (e *UnknownComponentsError) Error() string {
	parts := make([]string, 0, len(e.Components))
	for _, c := range e.Components {
		parts = append(parts, c.Error())
	}
	return strings.Join(parts, "; ")
}

func (e *UnknownComponentsError) Unwrap() []error {
	errs := make([]error, 0, len(e.Components))
	for _, c := range e.Components {
		errs = append(errs, c)
	}
	return errs
}
