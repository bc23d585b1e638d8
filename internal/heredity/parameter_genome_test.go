package heredity

import (
	"errors"
	"reflect"
	"testing"

	"heredity/internal/model"
	"heredity/internal/numeric"
)

func TestParameterGenomeLookup(t *testing.T) {
	pg := NewParameterGenome()
	pg.Set(1, 2, 3, 0.75)

	v, err := pg.Lookup(1, 2, 3)
	if err != nil || v != 0.75 {
		t.Fatalf("expected 0.75, got=%v err=%v", v, err)
	}
	if _, err := pg.Lookup(0, 0, 0); !errors.Is(err, ErrUnassigned) {
		t.Fatalf("expected ErrUnassigned, got=%v", err)
	}
}

func TestParameterGenomeRecordsAreOrdered(t *testing.T) {
	pg := NewParameterGenome()
	pg.Set(2, 0, 0, 3)
	pg.Set(0, 5, 1, 2)
	pg.Set(0, 5, 0, 1)

	want := []model.ParameterRecord{
		{Chromosome: 0, Gene: 5, Factor: 0, Value: 1},
		{Chromosome: 0, Gene: 5, Factor: 1, Value: 2},
		{Chromosome: 2, Gene: 0, Factor: 0, Value: 3},
	}
	if got := pg.Records(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
	if !ParameterGenomeFromRecords(want).Equal(pg) {
		t.Fatal("expected records to rebuild an equal genome")
	}
}

func TestParameterGenomeAsGenomeSurfacesGaps(t *testing.T) {
	e := numeric.NewTensorEngine()
	pg := NewParameterGenome()
	pg.Engine = e
	pg.Set(0, 0, 0, 1)
	pg.Set(0, 0, 2, 3)

	if pg.Count() != 1 || pg.ValueAt(0).Length() != 1 || GeneAt(pg, 0, 0).Length() != 3 {
		t.Fatal("unexpected parameter genome shape")
	}
	v, err := Value(e, FactorAt(pg, 0, 0, 2))
	if err != nil || v != 3 {
		t.Fatalf("expected 3, got=%v err=%v", v, err)
	}
	if _, err := Value(e, FactorAt(pg, 0, 0, 1)); !errors.Is(err, ErrUnassigned) {
		t.Fatalf("expected ErrUnassigned for gap, got=%v", err)
	}
	if _, err := Snapshot(pg, e); !errors.Is(err, ErrUnassigned) {
		t.Fatalf("expected snapshot to fail on gap, got=%v", err)
	}
}

func TestSnapshotOfListGenome(t *testing.T) {
	e := numeric.NewTensorEngine()
	genome := NewGenome(
		NewChromosome(NewGene(&ScaleFactor{Scale: 0.5, Engine: e})),
		NewChromosome(NewGene(&ScaleFactor{Scale: 1, Engine: e}, &ScaleFactor{Scale: 2, Engine: e})),
	)
	pg, err := Snapshot(genome, e)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if pg.Len() != 3 {
		t.Fatalf("expected 3 entries, got=%d", pg.Len())
	}
	if v, _ := pg.Lookup(1, 0, 1); v != 2 {
		t.Fatalf("expected (1,0,1)=2, got=%v", v)
	}
	if pg.Signature() != genome.Signature() {
		t.Fatal("expected snapshot signature to match source genome")
	}
}

func TestSnapshotOfUnrefreshedProjectedGenomeFails(t *testing.T) {
	g, _ := NewProjectedGenome(3)
	g.AddChromosome().AddGene(2)
	if _, err := Snapshot(g, g.Engine()); !errors.Is(err, ErrNotRefreshed) {
		t.Fatalf("expected ErrNotRefreshed, got=%v", err)
	}
}
