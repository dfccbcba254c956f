package validation

import (
	"testing"

	"github.com/vnykmshr/gopin/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		module    string
		field     string
		value     int
		wantError bool
	}{
		{"positive value", "test", "count", 10, false},
		{"positive value 1", "test", "count", 1, false},
		{"zero value", "test", "count", 0, true},
		{"negative value", "test", "count", -1, true},
		{"large positive", "test", "count", 1000000, false},
		{"large negative", "test", "count", -1000000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive(tt.module, tt.field, tt.value)

			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				if !errors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidatePositiveFloat(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		wantError bool
	}{
		{"positive value", 1.5, false},
		{"small positive", 0.0001, false},
		{"zero value", 0, true},
		{"negative value", -0.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositiveFloat("test", "rate", tt.value)

			if tt.wantError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		wantError bool
	}{
		{"positive value", 2.5, false},
		{"zero value", 0, false},
		{"negative value", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNonNegative("test", "tokens", tt.value)

			if tt.wantError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateNotNil(t *testing.T) {
	if err := ValidateNotNil("test", "launcher", nil); err == nil {
		t.Error("expected error for nil value")
	}
	if err := ValidateNotNil("test", "launcher", struct{}{}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidateNotEmpty(t *testing.T) {
	if err := ValidateNotEmpty("test", "id", ""); err == nil {
		t.Error("expected error for empty string")
	}
	if err := ValidateNotEmpty("test", "id", "task-1"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
