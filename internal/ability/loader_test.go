package ability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func fakeRegistry(t *testing.T, packages map[string]packageInfo, metadata map[string]abilityMetadata) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if strings.HasSuffix(path, "/latest/dist/src/generated/vincent-ability-metadata.json") {
			name := strings.TrimSuffix(path, "/latest/dist/src/generated/vincent-ability-metadata.json")
			meta, ok := metadata[name]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(meta)
			return
		}
		if strings.HasSuffix(path, "/latest") {
			name := strings.TrimSuffix(path, "/latest")
			pkg, ok := packages[name]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(pkg)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

func TestLoaderRefreshBuildsCatalog(t *testing.T) {
	name := "@saucerhedgevault/open-hedged-position-ability"
	srv := fakeRegistry(t,
		map[string]packageInfo{
			name: {Version: "1.2.3", Description: "opens a hedged LP position"},
		},
		map[string]abilityMetadata{
			name: {
				IPFSCid:           "QmTest",
				SupportedPolicies: []string{"spending-limit"},
				Inputs: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"amount_usdc": map[string]any{"type": "number"},
					},
				},
			},
		})
	defer srv.Close()

	loader := NewLoader(Manifest{Registry: srv.URL, Abilities: []string{name}})
	if err := loader.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	cat := loader.Snapshot()
	if cat.Len() != 1 {
		t.Fatalf("expected 1 ability, got %d", cat.Len())
	}
	desc, ok := cat.ByShortName("open-hedged-position")
	if !ok {
		t.Fatal("expected short name lookup to succeed")
	}
	if desc.Version != "1.2.3" {
		t.Fatalf("unexpected version: %s", desc.Version)
	}
	if desc.IPFSCid != "QmTest" {
		t.Fatalf("unexpected cid: %s", desc.IPFSCid)
	}
	if desc.InputSchema["type"] != "object" {
		t.Fatalf("unexpected schema: %v", desc.InputSchema)
	}
}

func TestLoaderSkipsFailedFetches(t *testing.T) {
	good := "@saucerhedgevault/get-position-status-ability"
	bad := "@saucerhedgevault/missing-ability"
	srv := fakeRegistry(t,
		map[string]packageInfo{good: {Version: "0.1.0", Description: "status"}},
		map[string]abilityMetadata{good: {}})
	defer srv.Close()

	loader := NewLoader(Manifest{Registry: srv.URL, Abilities: []string{good, bad}})
	if err := loader.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	cat := loader.Snapshot()
	if cat.Len() != 1 {
		t.Fatalf("expected failed ability to be skipped, got %d", cat.Len())
	}
	if _, ok := cat.ByShortName("missing"); ok {
		t.Fatal("missing ability should not be present")
	}
}

func TestLoaderDefaultsEmptySchema(t *testing.T) {
	name := "@saucerhedgevault/close-hedged-position-ability"
	srv := fakeRegistry(t,
		map[string]packageInfo{name: {Version: "2.0.0"}},
		map[string]abilityMetadata{name: {}})
	defer srv.Close()

	loader := NewLoader(Manifest{Registry: srv.URL, Abilities: []string{name}})
	if err := loader.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	desc, ok := loader.Snapshot().ByShortName("close-hedged-position")
	if !ok {
		t.Fatal("expected ability to be present")
	}
	if desc.InputSchema == nil {
		t.Fatal("expected defaulted schema")
	}
	if desc.InputSchema["type"] != "object" {
		t.Fatalf("unexpected schema: %v", desc.InputSchema)
	}
}

func TestLoaderKeepsOldSnapshotOnCollision(t *testing.T) {
	first := "@a/open-hedged-position-ability"
	second := "@b/open-hedged-position-ability"
	srv := fakeRegistry(t,
		map[string]packageInfo{first: {}, second: {}},
		map[string]abilityMetadata{first: {}, second: {}})
	defer srv.Close()

	loader := NewLoader(Manifest{Registry: srv.URL, Abilities: []string{first}})
	if err := loader.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// 两个包投影到同一短名，刷新必须失败且保留旧快照。
	loader.names = []string{first, second}
	if err := loader.Refresh(context.Background()); err == nil {
		t.Fatal("expected collision error")
	}
	if loader.Snapshot().Len() != 1 {
		t.Fatalf("expected old snapshot to survive, got %d", loader.Snapshot().Len())
	}
}
