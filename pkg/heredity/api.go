package heredity

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gopxl/beep"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"heredity/internal/evo"
	core "heredity/internal/heredity"
	"heredity/internal/model"
	"heredity/internal/storage"
	"heredity/internal/voice"
)

const (
	defaultDBPath     = "heredity.db"
	defaultOperator   = "gaussian_variation"
	defaultSampleRate = 44100
	defaultRenderTime = 2 * time.Second
)

var ErrGenomeNotFound = errors.New("genome not found")

type Options struct {
	StoreKind   string
	DBPath      string
	Logger      *logrus.Logger
	Parallelism int
	// Seed drives every random draw not given its own seed. Zero seeds from
	// the clock.
	Seed int64
}

type Client struct {
	store       storage.Store
	log         *logrus.Logger
	parallelism int

	mu          sync.Mutex
	seeds       *rand.Rand
	initialized bool
}

type CreateRequest struct {
	// Parameters, when set, is the genotype. Otherwise Length zero-filled
	// parameters are used, or random ones when Random is set.
	Parameters []float64
	Length     int
	Random     bool
	Seed       int64
	Layout     model.Layout
}

type VariationSettings struct {
	Min       float64
	Max       float64
	Rate      float64
	Intensity float64
}

// DefaultVariation is rate 0.1, intensity 0.01 over [0,1].
func DefaultVariation() VariationSettings {
	return VariationSettings{Min: 0, Max: 1, Rate: evo.DefaultVariationRate, Intensity: evo.DefaultVariationIntensity}
}

type MutateRequest struct {
	ID        string
	Operator  string
	Seed      int64
	Variation *VariationSettings
}

type BreedRequest struct {
	FirstID   string
	SecondID  string
	Magnitude float64
	Seed      int64
}

type GenomeInfo struct {
	ID             string
	Generation     int
	Fingerprint    string
	ParameterCount int
	FactorCount    int
}

type Description struct {
	GenomeInfo
	ParameterMean   float64
	ParameterStdDev float64
	PhenotypeMean   float64
	PhenotypeStdDev float64
	// Phenotype is indexed by chromosome, gene and factor.
	Phenotype [][][]float64
}

type LineageRequest struct {
	ID    string
	Limit int
}

type LineageItem struct {
	GenomeID    string
	ParentIDs   []string
	Generation  int
	Operation   string
	Fingerprint string
}

type RenderRequest struct {
	ID         string
	Path       string
	Duration   time.Duration
	SampleRate int
}

type RenderSummary struct {
	Path   string
	Voices int
	Bytes  int64
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:       store,
		log:         logger,
		parallelism: opts.Parallelism,
		seeds:       rand.New(rand.NewSource(seed)),
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func (c *Client) Create(ctx context.Context, req CreateRequest) (GenomeInfo, error) {
	if err := c.Init(ctx); err != nil {
		return GenomeInfo{}, err
	}

	var (
		genome *core.ProjectedGenome
		err    error
	)
	switch {
	case len(req.Parameters) > 0:
		genome, err = core.NewProjectedGenomeFrom(req.Parameters, c.genomeOptions()...)
	case req.Random:
		var blank *core.ProjectedGenome
		blank, err = core.NewProjectedGenome(req.Length, c.genomeOptions()...)
		if err == nil {
			genome = blank.Random(c.rng(req.Seed))
		}
	default:
		genome, err = core.NewProjectedGenome(req.Length, c.genomeOptions()...)
	}
	if err != nil {
		return GenomeInfo{}, err
	}
	if err := genome.Attach(req.Layout); err != nil {
		return GenomeInfo{}, fmt.Errorf("attach layout: %w", err)
	}

	info, err := c.save(ctx, genome, 0, "create", nil)
	if err != nil {
		return GenomeInfo{}, err
	}
	c.log.WithFields(logrus.Fields{
		"genome_id":   info.ID,
		"parameters":  info.ParameterCount,
		"factors":     info.FactorCount,
		"fingerprint": info.Fingerprint,
	}).Info("created genome")
	return info, nil
}

// Load rebuilds a stored genome with its topology attached and refreshed.
func (c *Client) Load(ctx context.Context, id string) (*core.ProjectedGenome, model.GenomeRecord, error) {
	if err := c.Init(ctx); err != nil {
		return nil, model.GenomeRecord{}, err
	}
	record, ok, err := c.store.GetGenome(ctx, id)
	if err != nil {
		return nil, model.GenomeRecord{}, err
	}
	if !ok {
		return nil, model.GenomeRecord{}, fmt.Errorf("%w: %s", ErrGenomeNotFound, id)
	}
	genome, err := core.NewProjectedGenomeFrom(record.Parameters, c.genomeOptions()...)
	if err != nil {
		return nil, model.GenomeRecord{}, fmt.Errorf("genome %s: %w", id, err)
	}
	if err := genome.Attach(record.Layout); err != nil {
		return nil, model.GenomeRecord{}, fmt.Errorf("genome %s: %w", id, err)
	}
	return genome, record, nil
}

func (c *Client) Mutate(ctx context.Context, req MutateRequest) (GenomeInfo, error) {
	parent, record, err := c.Load(ctx, req.ID)
	if err != nil {
		return GenomeInfo{}, err
	}
	name := req.Operator
	if name == "" {
		name = defaultOperator
	}

	rng := c.rng(req.Seed)
	settings := DefaultVariation()
	if req.Variation != nil {
		settings = *req.Variation
	}
	registry := evo.DefaultRegistry(rng, &evo.GaussianVariation{
		Min:       settings.Min,
		Max:       settings.Max,
		Rate:      settings.Rate,
		Intensity: settings.Intensity,
	})

	op, err := registry.Resolve(name, parent)
	if err != nil {
		return GenomeInfo{}, err
	}
	child, err := op.Apply(ctx, parent)
	if err != nil {
		return GenomeInfo{}, fmt.Errorf("%s: %w", name, err)
	}

	info, err := c.save(ctx, child, record.Generation+1, op.Name(), []string{record.ID})
	if err != nil {
		return GenomeInfo{}, err
	}
	c.log.WithFields(logrus.Fields{
		"genome_id":   info.ID,
		"parent_id":   record.ID,
		"operator":    op.Name(),
		"fingerprint": info.Fingerprint,
	}).Info("mutated genome")
	return info, nil
}

// Breed perturbs the first parent toward the second. The child takes the
// first parent's topology.
func (c *Client) Breed(ctx context.Context, req BreedRequest) (GenomeInfo, error) {
	first, firstRecord, err := c.Load(ctx, req.FirstID)
	if err != nil {
		return GenomeInfo{}, err
	}
	second, secondRecord, err := c.Load(ctx, req.SecondID)
	if err != nil {
		return GenomeInfo{}, err
	}
	magnitude := req.Magnitude
	if magnitude == 0 {
		magnitude = evo.DefaultBreederMagnitude
	}

	breeder := &evo.PerturbationBreeder{Magnitude: magnitude, Rand: c.rng(req.Seed)}
	child, err := breeder.Breed(first, second)
	if err != nil {
		return GenomeInfo{}, err
	}
	if err := child.Attach(firstRecord.Layout); err != nil {
		return GenomeInfo{}, err
	}

	generation := max(firstRecord.Generation, secondRecord.Generation) + 1
	info, err := c.save(ctx, child, generation, "perturbation_breed", []string{firstRecord.ID, secondRecord.ID})
	if err != nil {
		return GenomeInfo{}, err
	}
	c.log.WithFields(logrus.Fields{
		"genome_id":   info.ID,
		"parent_ids":  []string{firstRecord.ID, secondRecord.ID},
		"magnitude":   magnitude,
		"fingerprint": info.Fingerprint,
	}).Info("bred genome")
	return info, nil
}

func (c *Client) Describe(ctx context.Context, id string) (Description, error) {
	genome, record, err := c.Load(ctx, id)
	if err != nil {
		return Description{}, err
	}

	phenotype := make([][][]float64, genome.Count())
	flat := make([]float64, 0, record.Layout.Factors())
	for ci := 0; ci < genome.Count(); ci++ {
		chromosome := genome.ValueAt(ci)
		phenotype[ci] = make([][]float64, chromosome.Length())
		for gi := 0; gi < chromosome.Length(); gi++ {
			gene := chromosome.ValueAt(gi)
			values := make([]float64, gene.Length())
			for fi := range values {
				v, err := core.Value(genome.Engine(), gene.ValueAt(fi))
				if err != nil {
					return Description{}, fmt.Errorf("chromosome %d gene %d factor %d: %w", ci, gi, fi, err)
				}
				values[fi] = v
			}
			phenotype[ci][gi] = values
			flat = append(flat, values...)
		}
	}

	out := Description{
		GenomeInfo: infoFor(record),
		Phenotype:  phenotype,
	}
	out.ParameterMean, out.ParameterStdDev = meanStdDev(record.Parameters)
	out.PhenotypeMean, out.PhenotypeStdDev = meanStdDev(flat)
	return out, nil
}

// Export returns the Base64 parameter-record stream of the genome's
// phenotype.
func (c *Client) Export(ctx context.Context, id string) (string, error) {
	genome, _, err := c.Load(ctx, id)
	if err != nil {
		return "", err
	}
	snapshot, err := core.Snapshot(genome, genome.Engine())
	if err != nil {
		return "", err
	}
	return storage.EncodeParameterStream(snapshot.Records())
}

func (c *Client) Decode(encoded string) (*core.ParameterGenome, error) {
	records, err := storage.DecodeParameterStream(encoded)
	if err != nil {
		return nil, err
	}
	return core.ParameterGenomeFromRecords(records), nil
}

// Lineage walks ancestry breadth first from req.ID. A positive Limit caps the
// number of items.
func (c *Client) Lineage(ctx context.Context, req LineageRequest) ([]LineageItem, error) {
	if req.ID == "" {
		return nil, errors.New("lineage requires a genome id")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	out := make([]LineageItem, 0)
	seen := map[string]bool{req.ID: true}
	queue := []string{req.ID}
	for len(queue) > 0 {
		if req.Limit > 0 && len(out) >= req.Limit {
			break
		}
		id := queue[0]
		queue = queue[1:]

		record, ok, err := c.store.GetLineage(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			if id == req.ID {
				return nil, fmt.Errorf("lineage not found for genome id: %s", id)
			}
			continue
		}
		out = append(out, LineageItem{
			GenomeID:    record.GenomeID,
			ParentIDs:   record.ParentIDs,
			Generation:  record.Generation,
			Operation:   record.Operation,
			Fingerprint: record.Fingerprint,
		})
		for _, parent := range record.ParentIDs {
			if !seen[parent] {
				seen[parent] = true
				queue = append(queue, parent)
			}
		}
	}
	return out, nil
}

func (c *Client) List(ctx context.Context) ([]string, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	return c.store.ListGenomes(ctx)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.Init(ctx); err != nil {
		return err
	}
	if err := c.store.DeleteGenome(ctx, id); err != nil {
		return err
	}
	c.log.WithField("genome_id", id).Info("deleted genome")
	return nil
}

// Render writes one voice per gene with enough factors to a WAV file.
func (c *Client) Render(ctx context.Context, req RenderRequest) (RenderSummary, error) {
	if req.Path == "" {
		return RenderSummary{}, errors.New("render requires an output path")
	}
	genome, _, err := c.Load(ctx, req.ID)
	if err != nil {
		return RenderSummary{}, err
	}
	duration := req.Duration
	if duration <= 0 {
		duration = defaultRenderTime
	}
	rate := req.SampleRate
	if rate <= 0 {
		rate = defaultSampleRate
	}

	voices := make([]voice.Voice, 0)
	for _, chromosome := range genome.Chromosomes() {
		for gi := 0; gi < chromosome.Length(); gi++ {
			gene := chromosome.ValueAt(gi)
			if gene.Length() < voice.Factors {
				continue
			}
			v, err := voice.FromGene(genome.Engine(), gene)
			if err != nil {
				return RenderSummary{}, err
			}
			voices = append(voices, v)
		}
	}

	f, err := os.Create(req.Path)
	if err != nil {
		return RenderSummary{}, err
	}
	if err := voice.Render(f, voices, beep.SampleRate(rate), duration); err != nil {
		_ = f.Close()
		_ = os.Remove(req.Path)
		return RenderSummary{}, err
	}
	if err := f.Close(); err != nil {
		return RenderSummary{}, err
	}
	fi, err := os.Stat(req.Path)
	if err != nil {
		return RenderSummary{}, err
	}

	c.log.WithFields(logrus.Fields{
		"genome_id": req.ID,
		"voices":    len(voices),
		"path":      req.Path,
	}).Info("rendered genome")
	return RenderSummary{Path: req.Path, Voices: len(voices), Bytes: fi.Size()}, nil
}

func (c *Client) save(ctx context.Context, genome *core.ProjectedGenome, generation int, operation string, parents []string) (GenomeInfo, error) {
	versions := model.VersionedRecord{SchemaVersion: storage.CurrentSchemaVersion, CodecVersion: storage.CurrentCodecVersion}
	record := model.GenomeRecord{
		VersionedRecord: versions,
		ID:              uuid.NewString(),
		Generation:      generation,
		Layout:          genome.Layout(),
		Parameters:      genome.Parameters(),
		Fingerprint:     evo.Fingerprint(genome),
	}
	if err := c.store.SaveGenome(ctx, record); err != nil {
		return GenomeInfo{}, err
	}
	if err := c.store.SaveLineage(ctx, model.LineageRecord{
		VersionedRecord: versions,
		GenomeID:        record.ID,
		ParentIDs:       parents,
		Generation:      generation,
		Operation:       operation,
		Fingerprint:     record.Fingerprint,
	}); err != nil {
		return GenomeInfo{}, err
	}
	return infoFor(record), nil
}

func (c *Client) genomeOptions() []core.Option {
	if c.parallelism <= 1 {
		return nil
	}
	return []core.Option{core.WithParallelism(c.parallelism)}
}

// rng returns a generator for seed, or one drawn from the client's seed
// stream when seed is zero.
func (c *Client) rng(seed int64) *rand.Rand {
	if seed == 0 {
		c.mu.Lock()
		seed = c.seeds.Int63()
		c.mu.Unlock()
	}
	return rand.New(rand.NewSource(seed))
}

func infoFor(record model.GenomeRecord) GenomeInfo {
	return GenomeInfo{
		ID:             record.ID,
		Generation:     record.Generation,
		Fingerprint:    record.Fingerprint,
		ParameterCount: len(record.Parameters),
		FactorCount:    record.Layout.Factors(),
	}
}

func meanStdDev(x []float64) (float64, float64) {
	switch len(x) {
	case 0:
		return 0, 0
	case 1:
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}
