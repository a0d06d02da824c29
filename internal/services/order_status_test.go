package services

import (
	"errors"
	"strings"
	"testing"

	"qrdine_backend/internal/models"
)

func TestIsValidTransitionMatrix(t *testing.T) {
	allStatuses := []string{
		models.StatusPending, models.StatusPreparing, models.StatusReady,
		models.StatusServed, models.StatusCompleted, models.StatusCancelled,
	}
	allowed := map[string][]string{
		models.StatusPending:   {models.StatusPreparing, models.StatusCancelled},
		models.StatusPreparing: {models.StatusReady, models.StatusCancelled},
		models.StatusReady:     {models.StatusServed, models.StatusCancelled},
		models.StatusServed:    {models.StatusCompleted, models.StatusCancelled},
		models.StatusCompleted: {},
		models.StatusCancelled: {},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			if got := IsValidTransition(from, to); got != want {
				t.Errorf("IsValidTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestValidateTransitionSameStatusIsNoOp(t *testing.T) {
	for status := range map[string]struct{}{
		models.StatusPending: {}, models.StatusPreparing: {}, models.StatusReady: {},
		models.StatusServed: {}, models.StatusCompleted: {}, models.StatusCancelled: {},
	} {
		if err := ValidateTransition(status, status); err != nil {
			t.Errorf("ValidateTransition(%s, %s) = %v, want nil", status, status, err)
		}
	}
}

func TestValidateTransitionListsAllowedStatuses(t *testing.T) {
	err := ValidateTransition(models.StatusPending, models.StatusReady)
	if err == nil {
		t.Fatal("expected pending -> ready to be rejected")
	}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, models.StatusPreparing) || !strings.Contains(msg, models.StatusCancelled) {
		t.Errorf("error should list allowed next statuses [preparing, cancelled], got %q", msg)
	}
}

func TestValidateTransitionTerminalStatuses(t *testing.T) {
	for _, terminal := range []string{models.StatusCompleted, models.StatusCancelled} {
		err := ValidateTransition(terminal, models.StatusPreparing)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("transition out of %s should fail, got %v", terminal, err)
		}
	}
}

func TestValidateTransitionUnknownStatus(t *testing.T) {
	if err := ValidateTransition(models.StatusPending, "shipped"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus for unknown target, got %v", err)
	}
}

func TestAllowedNextStatuses(t *testing.T) {
	got := AllowedNextStatuses(models.StatusReady)
	want := []string{models.StatusServed, models.StatusCancelled}
	if len(got) != len(want) {
		t.Fatalf("AllowedNextStatuses(ready) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AllowedNextStatuses(ready)[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if next := AllowedNextStatuses(models.StatusCompleted); len(next) != 0 {
		t.Errorf("completed should have no outgoing edges, got %v", next)
	}
}
