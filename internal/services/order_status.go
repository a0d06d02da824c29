package services

import (
	"fmt"
	"strings"

	"qrdine_backend/internal/models"
)

// statusGraph enumerates the allowed forward transitions. Completed and
// cancelled are terminal and have no outgoing edges.
var statusGraph = map[string][]string{
	models.StatusPending:   {models.StatusPreparing, models.StatusCancelled},
	models.StatusPreparing: {models.StatusReady, models.StatusCancelled},
	models.StatusReady:     {models.StatusServed, models.StatusCancelled},
	models.StatusServed:    {models.StatusCompleted, models.StatusCancelled},
	models.StatusCompleted: {},
	models.StatusCancelled: {},
}

// IsKnownStatus reports whether s is one of the defined order statuses.
func IsKnownStatus(s string) bool {
	_, ok := statusGraph[s]
	return ok
}

// AllowedNextStatuses returns the statuses reachable from current in one step.
func AllowedNextStatuses(current string) []string {
	next, ok := statusGraph[current]
	if !ok {
		return nil
	}
	return append([]string(nil), next...)
}

// IsValidTransition reports whether current -> next is an allowed edge.
// A same-status "transition" is not an edge; callers treat it as a no-op.
func IsValidTransition(current, next string) bool {
	for _, allowed := range statusGraph[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition returns a descriptive error when current -> next is not
// allowed, listing the statuses that would have been accepted.
func ValidateTransition(current, next string) error {
	if !IsKnownStatus(next) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, next)
	}
	if current == next {
		return nil
	}
	if IsValidTransition(current, next) {
		return nil
	}
	allowed := AllowedNextStatuses(current)
	if len(allowed) == 0 {
		return fmt.Errorf("%w: order is %s, a terminal status", ErrInvalidTransition, current)
	}
	return fmt.Errorf("%w: cannot move order from %s to %s, allowed next statuses: [%s]",
		ErrInvalidTransition, current, next, strings.Join(allowed, ", "))
}
