package storage

import (
	"context"
	"sort"
	"sync"

	"heredity/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	genomes     map[string]model.GenomeRecord
	lineage     map[string]model.LineageRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.genomes = make(map[string]model.GenomeRecord)
	s.lineage = make(map[string]model.LineageRecord)
	return nil
}

func (s *MemoryStore) SaveGenome(_ context.Context, genome model.GenomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	genome.Layout = cloneLayout(genome.Layout)
	genome.Parameters = append([]float64(nil), genome.Parameters...)
	s.genomes[genome.ID] = genome
	return nil
}

func (s *MemoryStore) GetGenome(_ context.Context, id string) (model.GenomeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.GenomeRecord{}, false, ErrNotInitialized
	}
	genome, ok := s.genomes[id]
	if !ok {
		return model.GenomeRecord{}, false, nil
	}
	genome.Layout = cloneLayout(genome.Layout)
	genome.Parameters = append([]float64(nil), genome.Parameters...)
	return genome, true, nil
}

func (s *MemoryStore) ListGenomes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	ids := make([]string, 0, len(s.genomes))
	for id := range s.genomes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) DeleteGenome(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	delete(s.genomes, id)
	delete(s.lineage, id)
	return nil
}

func (s *MemoryStore) SaveLineage(_ context.Context, record model.LineageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	record.ParentIDs = append([]string(nil), record.ParentIDs...)
	s.lineage[record.GenomeID] = record
	return nil
}

func (s *MemoryStore) GetLineage(_ context.Context, genomeID string) (model.LineageRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.LineageRecord{}, false, ErrNotInitialized
	}
	record, ok := s.lineage[genomeID]
	if !ok {
		return model.LineageRecord{}, false, nil
	}
	record.ParentIDs = append([]string(nil), record.ParentIDs...)
	return record, true, nil
}

func cloneLayout(layout model.Layout) model.Layout {
	if layout.Chromosomes == nil {
		return layout
	}
	out := model.Layout{Chromosomes: make([]model.ChromosomeLayout, len(layout.Chromosomes))}
	for ci, c := range layout.Chromosomes {
		genes := make([]model.GeneLayout, len(c.Genes))
		for gi, g := range c.Genes {
			genes[gi] = model.GeneLayout{
				Factors: g.Factors,
				Ranges:  append([]model.Range(nil), g.Ranges...),
				Choices: append([]float64(nil), g.Choices...),
			}
		}
		out.Chromosomes[ci] = model.ChromosomeLayout{Genes: genes}
	}
	return out
}
