package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "invalid query", err: NewInvalidQueryError("empty"), check: IsInvalidQuery},
		{name: "catalog unavailable", err: NewCatalogUnavailableError("missing file", nil), check: IsCatalogUnavailable},
		{name: "index unavailable", err: NewIndexUnavailableError("not loaded", nil), check: IsIndexUnavailable},
		{name: "reranker unavailable", err: NewRerankerUnavailableError("timeout", nil), check: IsRerankerUnavailable},
		{name: "store miss", err: ErrStoreNotFound, check: IsStoreNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Fatalf("predicate rejected its own error: %v", tt.err)
			}
			if tt.check(errors.New("unrelated")) {
				t.Fatal("predicate matched an unrelated error")
			}
			if tt.check(nil) {
				t.Fatal("predicate matched nil")
			}
		})
	}
}

func TestErrorPredicatesSeeThroughWrapping(t *testing.T) {
	inner := NewIndexUnavailableError("not loaded", nil)
	wrapped := fmt.Errorf("recall stage: %w", inner)
	if !IsIndexUnavailable(wrapped) {
		t.Fatal("IsIndexUnavailable must see through fmt.Errorf wrapping")
	}
	if IsInvalidQuery(wrapped) {
		t.Fatal("wrong predicate matched a wrapped error")
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewIndexUnavailableError("search failed", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause must stay reachable via errors.Is")
	}
	if got := err.Error(); got != "index: search failed: connection refused" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestPredicatesDistinguishModules(t *testing.T) {
	// Same code constant could in principle appear under another module;
	// predicates must match module+code together.
	err := NewDomainError(ModulePipeline, ErrorCodeInvalidQuery, "misplaced")
	if IsInvalidQuery(err) {
		t.Fatal("IsInvalidQuery must require the query module")
	}
}
