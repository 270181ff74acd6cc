package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_Is(t *testing.T) {
	err := InsufficientFunds("need 1500, have 1000")

	if !Is(err, ErrInsufficientFunds) {
		t.Error("expected error to match ErrInsufficientFunds")
	}
	if Is(err, ErrUnknownService) {
		t.Error("error should not match a different code")
	}
}

func TestError_IsThroughWrapping(t *testing.T) {
	inner := UnknownService("no such service")
	wrapped := fmt.Errorf("redeem failed: %w", inner)

	if !Is(wrapped, ErrUnknownService) {
		t.Error("expected wrapped error to match ErrUnknownService")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Internal("write failed", cause)

	if !Is(err, cause) {
		t.Error("expected error chain to contain the cause")
	}
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeUnknownService, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeFeatureDisabled, http.StatusForbidden},
		{CodeInsufficientFunds, http.StatusConflict},
		{CodeEmptyCatalog, http.StatusConflict},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestError_WithDetails(t *testing.T) {
	base := InsufficientFunds("not enough money")
	detailed := base.WithDetails(map[string]int64{"have": 1000, "need": 1500})

	if base.Details != nil {
		t.Error("WithDetails must not mutate the original error")
	}
	if detailed.Details == nil {
		t.Error("expected details to be set")
	}
	if !Is(detailed, ErrInsufficientFunds) {
		t.Error("details must not change the code")
	}
}
