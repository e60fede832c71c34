package ability

import (
	"errors"
	"testing"

	xerrors "github.com/SaucerHedge/agents/internal/errors"
)

func TestShortNameOf(t *testing.T) {
	cases := []struct {
		identifier string
		want       string
	}{
		{"@saucerhedgevault/open-hedged-position-ability", "open-hedged-position"},
		{"@saucerhedgevault/deposit-to-vault-ability", "deposit-to-vault"},
		{"plain-ability", "plain"},
		{"no-suffix", "no-suffix"},
		{"@scope/no-suffix", "no-suffix"},
	}
	for _, tc := range cases {
		if got := ShortNameOf(tc.identifier); got != tc.want {
			t.Fatalf("ShortNameOf(%q) = %q, want %q", tc.identifier, got, tc.want)
		}
	}
}

func TestNewCatalogFillsShortNames(t *testing.T) {
	cat, err := NewCatalog([]Descriptor{
		{Identifier: "@saucerhedgevault/open-hedged-position-ability", Description: "opens"},
		{Identifier: "@saucerhedgevault/close-hedged-position-ability", Description: "closes"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	desc, ok := cat.ByShortName("open-hedged-position")
	if !ok {
		t.Fatal("expected short name lookup to succeed")
	}
	if desc.Identifier != "@saucerhedgevault/open-hedged-position-ability" {
		t.Fatalf("unexpected identifier: %s", desc.Identifier)
	}

	if _, ok := cat.ByIdentifier("@saucerhedgevault/close-hedged-position-ability"); !ok {
		t.Fatal("expected identifier lookup to succeed")
	}
	if _, ok := cat.ByShortName("missing"); ok {
		t.Fatal("unexpected hit for missing short name")
	}
}

func TestNewCatalogRejectsShortNameCollision(t *testing.T) {
	_, err := NewCatalog([]Descriptor{
		{Identifier: "@a/open-hedged-position-ability"},
		{Identifier: "@b/open-hedged-position-ability"},
	})
	if err == nil {
		t.Fatal("expected collision error")
	}
	var coded *xerrors.Error
	if !errors.As(err, &coded) {
		t.Fatalf("expected coded error, got %T", err)
	}
	if coded.Code() != xerrors.CodeConfiguration {
		t.Fatalf("unexpected code: %s", coded.Code())
	}
}

func TestNewCatalogRejectsDuplicateIdentifier(t *testing.T) {
	_, err := NewCatalog([]Descriptor{
		{Identifier: "@a/one-ability"},
		{Identifier: "@a/one-ability"},
	})
	if err == nil {
		t.Fatal("expected duplicate identifier error")
	}
}

func TestToolsProjectsDescriptorsVerbatim(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"amount_usdc": map[string]any{"type": "number"},
		},
		"required": []any{"amount_usdc"},
	}
	cat, err := NewCatalog([]Descriptor{
		{Identifier: "@saucerhedgevault/open-hedged-position-ability", Description: "opens a hedge", InputSchema: schema},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tools := cat.Tools()
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	if tools[0].Name != "open-hedged-position" {
		t.Fatalf("unexpected tool name: %s", tools[0].Name)
	}
	if tools[0].Description != "opens a hedge" {
		t.Fatalf("unexpected description: %s", tools[0].Description)
	}
	if tools[0].InputSchema["type"] != "object" {
		t.Fatalf("unexpected schema: %v", tools[0].InputSchema)
	}
}

func TestNilCatalogIsSafe(t *testing.T) {
	var cat *Catalog
	if cat.Len() != 0 {
		t.Fatal("expected zero length")
	}
	if tools := cat.Tools(); tools != nil {
		t.Fatalf("expected nil tools, got %v", tools)
	}
	if _, ok := cat.ByShortName("x"); ok {
		t.Fatal("unexpected lookup hit on nil catalog")
	}
}
