package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/SaucerHedge/agents/internal/ability"
	xerrors "github.com/SaucerHedge/agents/internal/errors"
	"github.com/SaucerHedge/agents/internal/hedera"
)

type stubInvoker struct {
	invocation *hedera.Invocation
	err        error
	calls      int
	lastDesc   ability.Descriptor
}

func (s *stubInvoker) Invoke(_ context.Context, desc ability.Descriptor, _ map[string]any) (*hedera.Invocation, error) {
	s.calls++
	s.lastDesc = desc
	if s.err != nil {
		return nil, s.err
	}
	return s.invocation, nil
}

func testCatalog(t *testing.T) *ability.Catalog {
	t.Helper()
	cat, err := ability.NewCatalog([]ability.Descriptor{
		{Identifier: "@saucerhedgevault/open-hedged-position-ability", Description: "opens"},
		{Identifier: "@saucerhedgevault/deposit-to-vault-ability", Description: "deposits"},
	})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return cat
}

func TestResolveShortName(t *testing.T) {
	cat := testCatalog(t)

	id, err := Resolve(cat, "open-hedged-position")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "@saucerhedgevault/open-hedged-position-ability" {
		t.Fatalf("unexpected identifier: %s", id)
	}

	// 完整标识符同样可解析。
	id, err = Resolve(cat, "@saucerhedgevault/deposit-to-vault-ability")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "@saucerhedgevault/deposit-to-vault-ability" {
		t.Fatalf("unexpected identifier: %s", id)
	}
}

func TestResolveUnknownTool(t *testing.T) {
	cat := testCatalog(t)

	_, err := Resolve(cat, "make-coffee")
	if err == nil {
		t.Fatal("expected unknown tool error")
	}
	var coded *xerrors.Error
	if !errors.As(err, &coded) {
		t.Fatalf("expected coded error, got %T", err)
	}
	if coded.Code() != xerrors.CodeUnknownTool {
		t.Fatalf("unexpected code: %s", coded.Code())
	}
}

func TestExecuteSuccess(t *testing.T) {
	invoker := &stubInvoker{invocation: &hedera.Invocation{
		TransactionRef: "0xfeed",
		Payload:        map[string]any{"position_id": 9},
	}}
	d := NewDispatcher(invoker)
	cat := testCatalog(t)

	outcome := d.Execute(context.Background(), cat, "@saucerhedgevault/open-hedged-position-ability", map[string]any{"amount_usdc": 200.0})
	if !outcome.OK() {
		t.Fatalf("expected success, got failure: %s", outcome.Reason())
	}
	if outcome.TransactionRef() != "0xfeed" {
		t.Fatalf("unexpected tx ref: %s", outcome.TransactionRef())
	}
	if invoker.lastDesc.ShortName != "open-hedged-position" {
		t.Fatalf("unexpected descriptor: %+v", invoker.lastDesc)
	}
	if d.History().Len() != 1 {
		t.Fatalf("expected 1 history entry, got %d", d.History().Len())
	}
}

func TestExecuteMissingDescriptor(t *testing.T) {
	invoker := &stubInvoker{}
	d := NewDispatcher(invoker)
	cat := testCatalog(t)

	outcome := d.Execute(context.Background(), cat, "@saucerhedgevault/unknown-ability", nil)
	if outcome.OK() {
		t.Fatal("expected failure")
	}
	if outcome.Reason() != "Ability not found" {
		t.Fatalf("unexpected reason: %s", outcome.Reason())
	}
	if invoker.calls != 0 {
		t.Fatalf("backend must not be called, got %d calls", invoker.calls)
	}
}

func TestExecuteFoldsBackendError(t *testing.T) {
	invoker := &stubInvoker{err: xerrors.New(xerrors.CodeAbilityExecution, "链上交易回滚")}
	d := NewDispatcher(invoker)
	cat := testCatalog(t)

	outcome := d.Execute(context.Background(), cat, "@saucerhedgevault/open-hedged-position-ability", nil)
	if outcome.OK() {
		t.Fatal("expected failure")
	}
	if outcome.Reason() == "" {
		t.Fatal("expected failure reason")
	}
}

func TestRegisteredHandlerOverridesDefault(t *testing.T) {
	invoker := &stubInvoker{invocation: &hedera.Invocation{TransactionRef: "0xdefault"}}
	d := NewDispatcher(invoker)
	cat := testCatalog(t)

	d.Register("@saucerhedgevault/open-hedged-position-ability",
		func(_ context.Context, _ ability.Descriptor, _ map[string]any) (*hedera.Invocation, error) {
			return &hedera.Invocation{TransactionRef: "0xcustom"}, nil
		})

	outcome := d.Execute(context.Background(), cat, "@saucerhedgevault/open-hedged-position-ability", nil)
	if outcome.TransactionRef() != "0xcustom" {
		t.Fatalf("expected custom handler result, got %s", outcome.TransactionRef())
	}
	if invoker.calls != 0 {
		t.Fatalf("default invoker must not be called, got %d", invoker.calls)
	}
}
