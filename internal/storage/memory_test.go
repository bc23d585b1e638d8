package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"heredity/internal/model"
)

func testGenomeRecord(id string) model.GenomeRecord {
	return model.GenomeRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              id,
		Generation:      2,
		Layout: model.Layout{Chromosomes: []model.ChromosomeLayout{{
			Genes: []model.GeneLayout{{Factors: 2, Ranges: []model.Range{{Min: 0, Max: 1}, {Min: 20, Max: 400}}}},
		}}},
		Parameters:  []float64{0.1, 0.2, 0.3},
		Fingerprint: "0011223344556677",
	}
}

func TestMemoryStoreGenomeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := testGenomeRecord("g1")
	if err := store.SaveGenome(ctx, input); err != nil {
		t.Fatalf("save genome: %v", err)
	}
	input.Parameters[0] = 99

	output, ok, err := store.GetGenome(ctx, "g1")
	if err != nil {
		t.Fatalf("get genome: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted genome")
	}
	if output.Parameters[0] != 0.1 {
		t.Fatalf("expected stored copy, got=%v", output.Parameters)
	}
	if !reflect.DeepEqual(output.Layout, testGenomeRecord("g1").Layout) {
		t.Fatalf("unexpected layout: %+v", output.Layout)
	}

	if _, ok, err := store.GetGenome(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing genome, ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, id := range []string{"b", "a", "c"} {
		if err := store.SaveGenome(ctx, testGenomeRecord(id)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	if err := store.SaveLineage(ctx, model.LineageRecord{GenomeID: "b", Operation: "create"}); err != nil {
		t.Fatalf("save lineage: %v", err)
	}

	ids, err := store.ListGenomes(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected ids: %v", ids)
	}

	if err := store.DeleteGenome(ctx, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteGenome(ctx, "b"); err != nil {
		t.Fatalf("delete twice: %v", err)
	}
	if _, ok, _ := store.GetGenome(ctx, "b"); ok {
		t.Fatal("expected genome deleted")
	}
	if _, ok, _ := store.GetLineage(ctx, "b"); ok {
		t.Fatal("expected lineage deleted with genome")
	}
}

func TestMemoryStoreLineageRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := model.LineageRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		GenomeID:        "g2",
		ParentIDs:       []string{"g0", "g1"},
		Generation:      1,
		Operation:       "breed",
	}
	if err := store.SaveLineage(ctx, input); err != nil {
		t.Fatalf("save lineage: %v", err)
	}

	output, ok, err := store.GetLineage(ctx, "g2")
	if err != nil {
		t.Fatalf("get lineage: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted lineage")
	}
	if !reflect.DeepEqual(output, input) {
		t.Fatalf("unexpected lineage: %+v", output)
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.SaveGenome(ctx, testGenomeRecord("g")); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got=%v", err)
	}
	if _, err := store.ListGenomes(ctx); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got=%v", err)
	}
}
