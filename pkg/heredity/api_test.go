package heredity

import (
	"context"
	"errors"
	"io"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"heredity/internal/model"
	"heredity/internal/voice"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	client, err := New(Options{StoreKind: "memory", Logger: logger, Seed: 42})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func voiceLayout() model.Layout {
	return model.Layout{Chromosomes: []model.ChromosomeLayout{{
		Genes: []model.GeneLayout{
			{Factors: voice.Factors},
			{Factors: 2, Ranges: []model.Range{{Min: 20, Max: 400}, {Min: -1, Max: 1}}},
			{Factors: 1, Choices: []float64{0.25, 0.5, 0.75}},
		},
	}}}
}

func TestClientCreateDescribeAndList(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	info, err := client.Create(ctx, CreateRequest{Length: 6, Random: true, Seed: 7, Layout: voiceLayout()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if info.ID == "" || info.ParameterCount != 6 || info.FactorCount != 7 || len(info.Fingerprint) != 16 {
		t.Fatalf("unexpected info: %+v", info)
	}

	desc, err := client.Describe(ctx, info.ID)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if len(desc.Phenotype) != 1 || len(desc.Phenotype[0]) != 3 || len(desc.Phenotype[0][1]) != 2 {
		t.Fatalf("unexpected phenotype shape: %v", desc.Phenotype)
	}
	for _, v := range desc.Phenotype[0][0] {
		if v < 0 || v > 1 {
			t.Fatalf("default range value out of bounds: %v", v)
		}
	}
	if v := desc.Phenotype[0][1][0]; v < 20 || v > 400 {
		t.Fatalf("ranged value out of bounds: %v", v)
	}
	if c := desc.Phenotype[0][2][0]; c != 0.25 && c != 0.5 && c != 0.75 {
		t.Fatalf("expected a choice value, got=%v", c)
	}
	if desc.ParameterMean <= 0 || desc.ParameterMean >= 1 || math.IsNaN(desc.ParameterStdDev) {
		t.Fatalf("unexpected parameter summary: mean=%v std=%v", desc.ParameterMean, desc.ParameterStdDev)
	}

	ids, err := client.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 || ids[0] != info.ID {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestClientCreateIsReproducibleForSeed(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	a, err := client.Create(ctx, CreateRequest{Length: 4, Random: true, Seed: 11, Layout: voiceLayout()})
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := client.Create(ctx, CreateRequest{Length: 4, Random: true, Seed: 11, Layout: voiceLayout()})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	if a.ID == b.ID || a.Fingerprint != b.Fingerprint {
		t.Fatalf("expected distinct ids and equal fingerprints: %+v %+v", a, b)
	}
}

func TestClientCreateRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	if _, err := client.Create(ctx, CreateRequest{}); err == nil {
		t.Fatal("expected empty genome error")
	}
	bad := model.Layout{Chromosomes: []model.ChromosomeLayout{{Genes: []model.GeneLayout{{Factors: 0}}}}}
	if _, err := client.Create(ctx, CreateRequest{Length: 2, Layout: bad}); err == nil {
		t.Fatal("expected layout error")
	}
}

func TestClientMutateBreedAndLineage(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	root, err := client.Create(ctx, CreateRequest{Parameters: []float64{0.5, 0.5, 0.5, 0.5}, Layout: voiceLayout()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	other, err := client.Create(ctx, CreateRequest{Parameters: []float64{1, 1, 1, 1}, Layout: voiceLayout()})
	if err != nil {
		t.Fatalf("create other: %v", err)
	}

	settings := VariationSettings{Min: 0, Max: 1, Rate: 1, Intensity: 0.2}
	mutated, err := client.Mutate(ctx, MutateRequest{ID: root.ID, Seed: 5, Variation: &settings})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if mutated.Generation != 1 || mutated.Fingerprint == root.Fingerprint || mutated.FactorCount != root.FactorCount {
		t.Fatalf("unexpected mutated info: %+v", mutated)
	}

	child, err := client.Breed(ctx, BreedRequest{FirstID: mutated.ID, SecondID: other.ID, Magnitude: 0.1, Seed: 3})
	if err != nil {
		t.Fatalf("breed: %v", err)
	}
	if child.Generation != 2 {
		t.Fatalf("expected generation 2, got=%d", child.Generation)
	}

	lineage, err := client.Lineage(ctx, LineageRequest{ID: child.ID})
	if err != nil {
		t.Fatalf("lineage: %v", err)
	}
	if len(lineage) != 4 {
		t.Fatalf("expected child, both parents and root, got=%+v", lineage)
	}
	if lineage[0].Operation != "perturbation_breed" || lineage[1].Operation != "gaussian_variation" || lineage[3].Operation != "create" {
		t.Fatalf("unexpected operations: %+v", lineage)
	}
	if lineage[3].GenomeID != root.ID {
		t.Fatalf("expected root last, got=%s", lineage[3].GenomeID)
	}

	limited, err := client.Lineage(ctx, LineageRequest{ID: child.ID, Limit: 1})
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected one item, got=%v err=%v", limited, err)
	}
}

func TestClientMutateErrors(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	if _, err := client.Mutate(ctx, MutateRequest{ID: "missing"}); !errors.Is(err, ErrGenomeNotFound) {
		t.Fatalf("expected ErrGenomeNotFound, got=%v", err)
	}
	info, _ := client.Create(ctx, CreateRequest{Length: 2})
	if _, err := client.Mutate(ctx, MutateRequest{ID: info.ID, Operator: "unknown"}); err == nil {
		t.Fatal("expected unknown operator error")
	}
	restarted, err := client.Mutate(ctx, MutateRequest{ID: info.ID, Operator: "random_restart"})
	if err != nil {
		t.Fatalf("random restart: %v", err)
	}
	if restarted.Fingerprint == info.Fingerprint {
		t.Fatal("expected new genotype")
	}
}

func TestClientExportDecodeRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	info, err := client.Create(ctx, CreateRequest{Length: 3, Random: true, Seed: 1, Layout: voiceLayout()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	encoded, err := client.Export(ctx, info.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	decoded, err := client.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Len() != info.FactorCount {
		t.Fatalf("expected %d entries, got=%d", info.FactorCount, decoded.Len())
	}

	desc, _ := client.Describe(ctx, info.ID)
	if v, err := decoded.Lookup(0, 1, 1); err != nil || v != desc.Phenotype[0][1][1] {
		t.Fatalf("expected exported phenotype value, got=%v err=%v", v, err)
	}
}

func TestClientRenderAndDelete(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	info, err := client.Create(ctx, CreateRequest{Length: 5, Random: true, Seed: 2, Layout: voiceLayout()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	path := filepath.Join(t.TempDir(), "genome.wav")
	summary, err := client.Render(ctx, RenderRequest{ID: info.ID, Path: path, Duration: 100 * time.Millisecond, SampleRate: 8000})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if summary.Voices != 1 || summary.Bytes <= 44 {
		t.Fatalf("unexpected render summary: %+v", summary)
	}

	if err := client.Delete(ctx, info.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := client.Load(ctx, info.ID); !errors.Is(err, ErrGenomeNotFound) {
		t.Fatalf("expected ErrGenomeNotFound after delete, got=%v", err)
	}
}
