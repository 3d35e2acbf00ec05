package activity

import (
	"context"
	"testing"

	"github.com/ginkoai/ginko/internal/errs"
)

func TestRecord_RejectsInvalidActivityType(t *testing.T) {
	s := NewStore(nil)
	err := s.Record(context.Background(), "g-1", "u-1", "not_a_real_type")
	if se := errs.As(err); se == nil || se.Code != errs.InvalidActivityType {
		t.Fatalf("Record() error = %v, want ErrInvalidActivityType", err)
	}
}

func TestValidTypes_CoversNamedConstants(t *testing.T) {
	for _, typ := range []string{TypeSessionStart, TypeTaskStart, TypeTaskComplete, TypeTaskBlock, TypeEventLogged} {
		if !validTypes[typ] {
			t.Errorf("validTypes[%q] = false, want true", typ)
		}
	}
}
