package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ginkoai/ginko/internal/identity"
)

type fakeGate struct {
	calls int
	caps  identity.CapabilitySet
	err   error
}

func (f *fakeGate) Resolve(ctx context.Context, userID, graphID string) (identity.CapabilitySet, error) {
	f.calls++
	return f.caps, f.err
}

func TestCapabilityCache_CachesOnHit(t *testing.T) {
	gate := &fakeGate{caps: identity.CapabilitySet{identity.CapRead: true}}
	cc := NewCapabilityCache(gate, time.Minute)

	for i := 0; i < 3; i++ {
		caps, err := cc.Resolve(context.Background(), "u1", "g1")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !caps.Has(identity.CapRead) {
			t.Fatal("caps missing read")
		}
	}
	if gate.calls != 1 {
		t.Fatalf("gate.calls = %d, want 1 (cached after first call)", gate.calls)
	}
}

func TestCapabilityCache_DoesNotCacheErrors(t *testing.T) {
	gate := &fakeGate{err: errors.New("boom")}
	cc := NewCapabilityCache(gate, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cc.Resolve(context.Background(), "u1", "g1"); err == nil {
			t.Fatal("Resolve() error = nil, want boom")
		}
	}
	if gate.calls != 2 {
		t.Fatalf("gate.calls = %d, want 2 (errors must not be cached)", gate.calls)
	}
}

func TestCapabilityCache_InvalidateGraph(t *testing.T) {
	gate := &fakeGate{caps: identity.CapabilitySet{identity.CapRead: true}}
	cc := NewCapabilityCache(gate, time.Minute)

	cc.Resolve(context.Background(), "u1", "g1")
	cc.Resolve(context.Background(), "u2", "g1")
	cc.Resolve(context.Background(), "u1", "g2")

	cc.InvalidateGraph("g1")

	cc.Resolve(context.Background(), "u1", "g1")
	cc.Resolve(context.Background(), "u2", "g1")
	cc.Resolve(context.Background(), "u1", "g2")

	if gate.calls != 5 {
		t.Fatalf("gate.calls = %d, want 5 (g1 entries re-fetched, g2 still cached)", gate.calls)
	}
}

func TestCapabilityCache_DefaultsTTL(t *testing.T) {
	gate := &fakeGate{caps: identity.CapabilitySet{}}
	cc := NewCapabilityCache(gate, 0)
	if cc.ttl != 10*time.Second {
		t.Fatalf("ttl = %v, want 10s default", cc.ttl)
	}
}
