package validation

import (
	"strings"
	"testing"
)

type pageView struct {
	Path     string  `json:"path"     validate:"required,startswith=/,max=16"`
	Referrer *string `json:"referrer" validate:"omitempty,max=4"`
	Device   string  `json:"device"   validate:"omitempty,oneof=desktop mobile"`
	Internal string  `json:"-"        validate:"omitempty,max=1"`
}

func TestGet_Singleton(t *testing.T) {
	if Get() == nil || Get() != Get() {
		t.Fatalf("Get() should return one shared instance")
	}
}

func TestStruct_Valid(t *testing.T) {
	if err := Struct(&pageView{Path: "/blog/x"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestStruct_FieldErrorsUseJSONNames(t *testing.T) {
	ref := "https://example.com"
	err := Struct(&pageView{Path: "blog", Referrer: &ref, Device: "fridge"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !IsValidationError(err) {
		t.Fatalf("expected *RequestValidationError, got %T", err)
	}
	ve := err.(*RequestValidationError)
	got := map[string]string{}
	for _, f := range ve.Fields {
		got[f.Field] = f.Tag
	}
	want := map[string]string{"path": "startswith", "referrer": "max", "device": "oneof"}
	for field, tag := range want {
		if got[field] != tag {
			t.Fatalf("field %s: tag=%q want %q (all: %+v)", field, got[field], tag, ve.Fields)
		}
	}
	if !strings.Contains(err.Error(), `path must start with "/"`) ||
		!strings.Contains(err.Error(), "referrer must be at most 4 characters") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestStruct_Required(t *testing.T) {
	err := Struct(&pageView{})
	if err == nil || !strings.Contains(err.Error(), "path is required") {
		t.Fatalf("expected required error, got %v", err)
	}
}

func TestValidSlug(t *testing.T) {
	for _, s := range []string{"hello-world", "Go_1", "a", strings.Repeat("a", 200)} {
		if !ValidSlug(s) {
			t.Fatalf("ValidSlug(%q) = false; want true", s)
		}
	}
	for _, s := range []string{"", "-lead", "_lead", "has space", "a/b", "../etc", strings.Repeat("a", 201)} {
		if ValidSlug(s) {
			t.Fatalf("ValidSlug(%q) = true; want false", s)
		}
	}
}

func TestRequestValidationError_EmptyMessage(t *testing.T) {
	var ve *RequestValidationError
	if ve.Error() != "validation failed" {
		t.Fatalf("nil error message unexpected: %q", ve.Error())
	}
}
