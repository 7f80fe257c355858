package token_test

import (
	"fmt"
	"testing"

	"github.com/goliatone/go-formkit/pkg/token"
)

func TestMemoryStoreEvictsOldest(t *testing.T) {
	store := token.NewMemoryStore("salt", 3)
	for i := 0; i < 5; i++ {
		if err := store.Register(fmt.Sprintf("t%d", i)); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	if store.Len() != 3 {
		t.Fatalf("expected 3 tokens, got %d", store.Len())
	}
	for _, evicted := range []string{"t0", "t1"} {
		if ok, _ := store.Verify(evicted); ok {
			t.Errorf("expected %s to be evicted", evicted)
		}
	}
	for _, kept := range []string{"t2", "t3", "t4"} {
		if ok, _ := store.Verify(kept); !ok {
			t.Errorf("expected %s to be kept", kept)
		}
		if ok, _ := store.Verify(kept); ok {
			t.Errorf("expected %s to be consumed", kept)
		}
	}
}

func TestMemoryStoreDefaultCapacity(t *testing.T) {
	store := token.NewMemoryStore("salt", 0)
	for i := 0; i < token.DefaultCapacity+5; i++ {
		_ = store.Register(fmt.Sprintf("t%d", i))
	}
	if store.Len() != token.DefaultCapacity {
		t.Fatalf("expected %d tokens, got %d", token.DefaultCapacity, store.Len())
	}
}

func TestSessions(t *testing.T) {
	sessions := token.NewSessions(2)
	a := sessions.Store("a", "agent")
	if a != sessions.Store("a", "other agent") {
		t.Fatalf("expected the same store for one session")
	}
	if a.ClientSalt() != "agenta" {
		t.Fatalf("unexpected salt %q", a.ClientSalt())
	}
	b := sessions.Store("b", "agent")
	_ = a.Register("x")
	if ok, _ := b.Verify("x"); ok {
		t.Fatalf("sessions must not share tokens")
	}

	sessions.Forget("a")
	if sessions.Store("a", "agent") == a {
		t.Fatalf("expected a fresh store after Forget")
	}
}
