package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

type sample struct {
	LinkID string `json:"linkId" validate:"required,linkid"`
	Title  string `json:"title" validate:"notblank"`
}

func TestCustomTags(t *testing.T) {
	val := New()

	if err := val.Struct(sample{LinkID: "summer-listing_01", Title: "Canal house"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	err := val.Struct(sample{LinkID: "has space", Title: "   "})
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
	if verrs[0].Field() != "linkId" || verrs[1].Field() != "title" {
		t.Fatalf("expected json field names, got %s and %s", verrs[0].Field(), verrs[1].Field())
	}
}
