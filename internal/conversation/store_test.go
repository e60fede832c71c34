package conversation

import (
	"fmt"
	"testing"

	"github.com/SaucerHedge/agents/internal/llm"
)

func TestStoreAppendAndGet(t *testing.T) {
	store := NewStore(0)
	store.Append("u1", llm.Turn{Role: llm.RoleUser, Content: "hi"})
	store.Append("u1", llm.Turn{Role: llm.RoleAssistant, Content: "hello"})

	turns := store.Get("u1")
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Content != "hi" || turns[1].Content != "hello" {
		t.Fatalf("unexpected order: %+v", turns)
	}
}

func TestStoreEvictsOldestBeyondCap(t *testing.T) {
	store := NewStore(50)
	for i := 0; i < 60; i++ {
		store.Append("u1", llm.Turn{Role: llm.RoleUser, Content: fmt.Sprintf("m%d", i)})
	}

	turns := store.Get("u1")
	if len(turns) != 50 {
		t.Fatalf("expected 50 turns, got %d", len(turns))
	}
	if turns[0].Content != "m10" {
		t.Fatalf("expected oldest surviving turn m10, got %s", turns[0].Content)
	}
	if turns[49].Content != "m59" {
		t.Fatalf("expected newest turn m59, got %s", turns[49].Content)
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	store := NewStore(0)
	store.Append("u1", llm.Turn{Role: llm.RoleUser, Content: "original"})

	turns := store.Get("u1")
	turns[0].Content = "mutated"

	if got := store.Get("u1")[0].Content; got != "original" {
		t.Fatalf("stored turn was mutated: %s", got)
	}
}

func TestStoreClearAndActiveUsers(t *testing.T) {
	store := NewStore(0)
	store.Append("u1", llm.Turn{Role: llm.RoleUser, Content: "a"})
	store.Append("u2", llm.Turn{Role: llm.RoleUser, Content: "b"})

	if got := store.ActiveUsers(); got != 2 {
		t.Fatalf("expected 2 active users, got %d", got)
	}

	store.Clear("u1")
	if turns := store.Get("u1"); len(turns) != 0 {
		t.Fatalf("expected empty history after clear, got %d", len(turns))
	}
	if got := store.ActiveUsers(); got != 1 {
		t.Fatalf("expected 1 active user, got %d", got)
	}
}
