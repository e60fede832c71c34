package formatter

import (
	"strings"
	"testing"
)

func TestRenderOpenHedgedPosition(t *testing.T) {
	r := NewRegistry("testnet")
	out := r.Render("@saucerhedgevault/open-hedged-position-ability", "0xabc123", map[string]any{
		"position_id":      42,
		"lp_allocation":    158.0,
		"short_allocation": 42.0,
	}, "Opening your hedge now.")

	if !strings.Contains(out, "Position ID: #42") {
		t.Fatalf("missing position id:\n%s", out)
	}
	if !strings.Contains(out, "LP Allocation: $158.00") {
		t.Fatalf("missing lp allocation:\n%s", out)
	}
	if !strings.Contains(out, "https://hashscan.io/testnet/transaction/0xabc123") {
		t.Fatalf("missing hashscan link:\n%s", out)
	}
	if !strings.Contains(out, "Opening your hedge now.") {
		t.Fatalf("missing model context:\n%s", out)
	}
}

func TestRenderCloseHedgedPosition(t *testing.T) {
	r := NewRegistry("testnet")
	out := r.Render("@saucerhedgevault/close-hedged-position-ability", "0xdef", map[string]any{
		"usdc_return": 101.35,
		"hbar_return": 40.5,
	}, "")

	if !strings.Contains(out, "$101.35") || !strings.Contains(out, "$40.50") {
		t.Fatalf("missing returns:\n%s", out)
	}
	if !strings.Contains(out, "Successfully Closed!") {
		t.Fatalf("missing status:\n%s", out)
	}
}

func TestRenderPositionStatusHasNoTxLink(t *testing.T) {
	r := NewRegistry("testnet")
	out := r.Render("@saucerhedgevault/get-position-status-ability", "", map[string]any{
		"position_id":   7,
		"lp_value":      159.25,
		"short_value":   41.80,
		"il_protection": 87.5,
	}, "")

	if !strings.Contains(out, "Position #7 Status Report") {
		t.Fatalf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "| IL Protection | 87.5% |") {
		t.Fatalf("missing il protection row:\n%s", out)
	}
	if strings.Contains(out, "hashscan.io") {
		t.Fatalf("status report should not link a transaction:\n%s", out)
	}
}

func TestRenderMissingFieldsUsePlaceholders(t *testing.T) {
	r := NewRegistry("testnet")
	out := r.Render("@saucerhedgevault/open-hedged-position-ability", "0x1", map[string]any{}, "")

	if !strings.Contains(out, "Position ID: #n/a") {
		t.Fatalf("expected placeholder for position id:\n%s", out)
	}
	if !strings.Contains(out, "LP Allocation: $n/a") {
		t.Fatalf("expected placeholder for lp allocation:\n%s", out)
	}
}

func TestRenderUnknownAbilityFallsBack(t *testing.T) {
	r := NewRegistry("testnet")
	out := r.Render("@saucerhedgevault/some-new-ability", "0x99", nil, "")

	if !strings.Contains(out, "**@saucerhedgevault/some-new-ability** executed successfully!") {
		t.Fatalf("unexpected fallback:\n%s", out)
	}
	if !strings.Contains(out, "https://hashscan.io/testnet/transaction/0x99") {
		t.Fatalf("missing tx link:\n%s", out)
	}
}

func TestRenderNeverPanicsOnWeirdPayloads(t *testing.T) {
	r := NewRegistry("mainnet")
	payloads := []map[string]any{
		nil,
		{"position_id": map[string]any{"nested": true}},
		{"lp_allocation": "not-a-number"},
	}
	for _, payload := range payloads {
		for _, name := range []string{
			"@saucerhedgevault/open-hedged-position-ability",
			"@saucerhedgevault/close-hedged-position-ability",
			"@saucerhedgevault/deposit-to-vault-ability",
			"@saucerhedgevault/get-position-status-ability",
			"@saucerhedgevault/open-vault-hedged-position-ability",
			"@saucerhedgevault/close-vault-hedged-position-ability",
		} {
			if out := r.Render(name, "0x1", payload, ""); out == "" {
				t.Fatalf("empty render for %s with payload %v", name, payload)
			}
		}
	}
}
