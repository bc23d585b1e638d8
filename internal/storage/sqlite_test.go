//go:build sqlite

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"heredity/internal/model"
)

func TestSQLiteStoreGenomeAndLineageRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "heredity.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	genome := testGenomeRecord("g1")
	if err := store.SaveGenome(ctx, genome); err != nil {
		t.Fatalf("save genome: %v", err)
	}
	loaded, ok, err := store.GetGenome(ctx, genome.ID)
	if err != nil {
		t.Fatalf("get genome: %v", err)
	}
	if !ok {
		t.Fatalf("expected genome %s", genome.ID)
	}
	if !reflect.DeepEqual(loaded, genome) {
		t.Fatalf("unexpected genome loaded: %+v", loaded)
	}

	lineage := model.LineageRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		GenomeID:        "g1",
		ParentIDs:       []string{"g0"},
		Generation:      2,
		Operation:       "gaussian_variation",
		Fingerprint:     genome.Fingerprint,
	}
	if err := store.SaveLineage(ctx, lineage); err != nil {
		t.Fatalf("save lineage: %v", err)
	}
	loadedLineage, ok, err := store.GetLineage(ctx, "g1")
	if err != nil || !ok {
		t.Fatalf("get lineage: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(loadedLineage, lineage) {
		t.Fatalf("unexpected lineage: %+v", loadedLineage)
	}
}

func TestSQLiteStoreListDeleteAndUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "heredity.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	for _, id := range []string{"b", "a"} {
		if err := store.SaveGenome(ctx, testGenomeRecord(id)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	updated := testGenomeRecord("a")
	updated.Generation = 9
	if err := store.SaveGenome(ctx, updated); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got, _, _ := store.GetGenome(ctx, "a"); got.Generation != 9 {
		t.Fatalf("expected upserted generation, got=%d", got.Generation)
	}

	ids, err := store.ListGenomes(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b"}) {
		t.Fatalf("unexpected ids: %v", ids)
	}

	if err := store.DeleteGenome(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.GetGenome(ctx, "a"); ok {
		t.Fatal("expected genome deleted")
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "heredity.db")

	first := NewSQLiteStore(path)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := first.SaveGenome(ctx, testGenomeRecord("g1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, _, err := first.GetGenome(ctx, "g1"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized after close, got=%v", err)
	}

	second := NewSQLiteStore(path)
	if err := second.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() {
		_ = second.Close()
	})
	if _, ok, err := second.GetGenome(ctx, "g1"); err != nil || !ok {
		t.Fatalf("expected persisted genome, ok=%v err=%v", ok, err)
	}
}
