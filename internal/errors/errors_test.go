package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")

	err := Wrap(cause, "redis set session")
	if err.Code != ErrCodeInternal {
		t.Errorf("Wrap().Code = %v, want %v", err.Code, ErrCodeInternal)
	}
	if err.Message != "redis set session" {
		t.Errorf("Wrap().Message = %v, want %v", err.Message, "redis set session")
	}
	if !errors.Is(err, cause) {
		t.Error("Wrap() should preserve the cause for errors.Is")
	}
}

func TestWrap_NilError(t *testing.T) {
	if err := Wrap(nil, "ignored"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestWrapf(t *testing.T) {
	cause := errors.New("permission denied")

	err := Wrapf(cause, "failed to remove blob %q", "jobs/a/b.png")
	if err.Code != ErrCodeInternal {
		t.Errorf("Wrapf().Code = %v, want %v", err.Code, ErrCodeInternal)
	}
	want := `failed to remove blob "jobs/a/b.png"`
	if err.Message != want {
		t.Errorf("Wrapf().Message = %v, want %v", err.Message, want)
	}

	if err := Wrapf(nil, "ignored"); err != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", err)
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{
			name: "app error",
			err:  NotFound("job not found"),
			want: ErrCodeNotFound,
		},
		{
			name: "wrapped app error",
			err:  fmt.Errorf("list jobs: %w", Permission("viewer cannot edit")),
			want: ErrCodePermission,
		},
		{
			name: "plain error maps to internal",
			err:  errors.New("driver: bad connection"),
			want: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}
