package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/moviemind/moviemind/internal/domain"
)

type sample struct {
	Query  string `json:"query" validate:"notblank,max=10"`
	Page   int    `query:"page" validate:"gte=0"`
	Period string `query:"period" validate:"omitempty,oneof=day month"`
}

func TestStruct_Valid(t *testing.T) {
	if err := Struct(&sample{Query: "科幻", Page: 1, Period: "day"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStruct_FieldNames(t *testing.T) {
	err := Struct(&sample{Query: "  ", Page: -1, Period: "year"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	got := map[string]string{}
	for _, f := range verr.Fields {
		got[f.Field] = f.Tag
	}
	want := map[string]string{"query": "notblank", "page": "gte", "period": "oneof"}
	for field, tag := range want {
		if got[field] != tag {
			t.Errorf("field %s: expected tag %q, got %q", field, tag, got[field])
		}
	}
	if !strings.Contains(err.Error(), "query is required") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestStruct_MaxLength(t *testing.T) {
	err := Struct(&sample{Query: "01234567890"})
	if err == nil || !strings.Contains(err.Error(), "query must be at most 10") {
		t.Errorf("expected max error, got %v", err)
	}
}

func TestValidator_Singleton(t *testing.T) {
	if Validator() != Validator() {
		t.Error("expected the same validator instance")
	}
}
