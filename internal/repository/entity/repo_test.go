package entity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/georecon/internal/domain"
)

// --- Publish ---

func TestPublish_WritesHashesAndActiveKey(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, "", time.Hour)
	es := testEntityStore(t, 3)

	res, err := repo.Publish(context.Background(), "gen1", es)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil {
		t.Fatal("expected resolver")
	}
	if len(ms.hashes) != 3 {
		t.Fatalf("expected 3 hashes, got %d", len(ms.hashes))
	}
	h := ms.hashes["georecon:gen1:e:id1"]
	if h["name"] != "Place id1" || h["featureClass"] != "P" || h["featureCode"] != "PPL" {
		t.Errorf("unexpected hash: %v", h)
	}
	if ms.values["georecon:active"] != "gen1" {
		t.Errorf("active = %q, want gen1", ms.values["georecon:active"])
	}
}

func TestPublish_Chunks(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, "geo:", 0)
	es := testEntityStore(t, publishChunk+1)

	if _, err := repo.Publish(context.Background(), "g", es); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms.hsetMultiCalls != 2 {
		t.Errorf("expected 2 pipelined writes, got %d", ms.hsetMultiCalls)
	}
	if _, ok := ms.hashes["geo:g:e:id0"]; !ok {
		t.Error("expected trailing ':' in prefix to be trimmed")
	}
}

func TestPublish_StoreError(t *testing.T) {
	ms := newMockStore()
	ms.hsetMultiErr = errors.New("OOM")
	repo := New(ms, "", 0)

	if _, err := repo.Publish(context.Background(), "g", testEntityStore(t, 1)); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := ms.values["georecon:active"]; ok {
		t.Error("active key must not be set after a failed publish")
	}
}

// --- Resolver ---

func TestResolver_GetByID(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, "", 0)
	es := testEntityStore(t, 2)
	res, err := repo.Publish(context.Background(), "g", es)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	e, err := res.GetByID(context.Background(), "id1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.PrimaryName() != "Place id1" || e.Population() != 10 || e.CountryCode() != "FR" {
		t.Errorf("unexpected entity: %+v", e)
	}
	if e.Coordinates() == nil || e.Coordinates().Latitude != 48.8 {
		t.Errorf("Coordinates() = %v", e.Coordinates())
	}

	_, err = res.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolver_GetManySkipsMisses(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, "", 0)
	res, err := repo.Publish(context.Background(), "g", testEntityStore(t, 3))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	got, err := res.GetMany(context.Background(), []string{"id2", "nope", "id0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID() != "id2" || got[1].ID() != "id0" {
		t.Errorf("unexpected result: %v", got)
	}

	empty, err := res.GetMany(context.Background(), nil)
	if err != nil || empty != nil {
		t.Errorf("GetMany(nil) = %v, %v", empty, err)
	}
}

func TestResolver_CorruptRecord(t *testing.T) {
	ms := newMockStore()
	ms.hashes["georecon:g:e:x"] = map[string]string{"id": "x", "name": "X", "featureClass": "Q"}
	res := &Resolver{repo: New(ms, "", 0), genID: "g"}

	if _, err := res.GetByID(context.Background(), "x"); err == nil {
		t.Fatal("expected error for corrupt record")
	}
	if _, err := res.GetMany(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error for corrupt record")
	}
}

func TestResolver_StoreError(t *testing.T) {
	ms := newMockStore()
	ms.hgetAllErr = context.DeadlineExceeded
	res := &Resolver{repo: New(ms, "", 0), genID: "g"}

	_, err := res.GetMany(context.Background(), []string{"a"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped deadline error, got %v", err)
	}
}

// --- Retire ---

func TestRetire_ExpiresGenerationKeys(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, "", 10*time.Minute)
	ctx := context.Background()
	if _, err := repo.Publish(ctx, "old", testEntityStore(t, 2)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := repo.Publish(ctx, "new", testEntityStore(t, 2)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if err := repo.Retire(ctx, "old"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ms.expired) != 2 {
		t.Fatalf("expected 2 expired keys, got %v", ms.expired)
	}
	for k, ttl := range ms.expired {
		if k[:len("georecon:old:")] != "georecon:old:" || ttl != 10*time.Minute {
			t.Errorf("unexpected expire %s=%s", k, ttl)
		}
	}
}

func TestRetire_PinnedResolverStillReads(t *testing.T) {
	ms := newMockStore()
	repo := New(ms, "", 0)
	ctx := context.Background()
	old, err := repo.Publish(ctx, "old", testEntityStore(t, 2))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := repo.Publish(ctx, "new", testEntityStore(t, 2)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if err := repo.Retire(ctx, "old"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ms.expired) != 2 {
		t.Fatalf("expected 2 expiring keys, got %v", ms.expired)
	}
	for k, ttl := range ms.expired {
		if ttl != DefaultRetireTTL {
			t.Errorf("zero ttl should fall back to %s, got %s=%s", DefaultRetireTTL, k, ttl)
		}
	}

	// a batch pinned to the old generation before the swap keeps resolving
	ents, err := old.GetMany(ctx, []string{"id0", "id1"})
	if err != nil {
		t.Fatalf("get many: %v", err)
	}
	if len(ents) != 2 {
		t.Errorf("expected 2 entities from retired generation, got %d", len(ents))
	}
}

func TestRetire_Errors(t *testing.T) {
	ms := newMockStore()
	ms.scanErr = errors.New("scan failed")
	if err := New(ms, "", time.Minute).Retire(context.Background(), "g"); err == nil {
		t.Fatal("expected scan error")
	}

	ms = newMockStore()
	ms.hashes["georecon:g:e:1"] = map[string]string{"id": "1"}
	ms.expireErr = errors.New("expire failed")
	if err := New(ms, "", time.Minute).Retire(context.Background(), "g"); err == nil {
		t.Fatal("expected expire error")
	}
}
