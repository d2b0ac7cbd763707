package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

type sample struct {
	Name  string  `json:"name" validate:"required"`
	Area  float64 `json:"area" validate:"gt=0"`
	Inner inner   `json:"inner"`
}

type inner struct {
	Code string `json:"code" validate:"even_len"`
}

func TestFieldErrorsUseJSONNames(t *testing.T) {
	v := New()
	if err := v.RegisterValidation("even_len", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String())%2 == 0
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := v.Struct(sample{Inner: inner{Code: "abc"}})
	if err == nil {
		t.Fatalf("expected validation error")
	}

	fields := FieldErrors(err)
	if fields["name"] != "required" {
		t.Fatalf("expected name=required, got %v", fields)
	}
	if fields["area"] != "gt=0" {
		t.Fatalf("expected area=gt=0, got %v", fields)
	}
	if fields["inner.code"] != "even_len" {
		t.Fatalf("expected inner.code=even_len, got %v", fields)
	}
}

func TestStructValidation(t *testing.T) {
	v := New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		s := sl.Current().Interface().(sample)
		if s.Name == "forbidden" {
			sl.ReportError(s.Name, "name", "Name", "not_forbidden", "")
		}
	}, sample{})

	err := v.Struct(sample{Name: "forbidden", Area: 1, Inner: inner{Code: "ab"}})
	if FieldErrors(err)["name"] != "not_forbidden" {
		t.Fatalf("expected struct rule to fire, got %v", err)
	}
}
