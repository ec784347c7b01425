package organism

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/suryap3105/EchoGenesis/internal/events"
	"github.com/suryap3105/EchoGenesis/internal/quantum"
)

// entry pairs one organism's record with its live engine. The engine has no
// internal locking, so every state mutation goes through entry.mu.
type entry struct {
	mu     sync.Mutex
	record *Organism
	engine *quantum.Engine
}

// Service owns the in-memory organism registry and coordinates engine
// evolution, persistence and event publication.
type Service struct {
	repo         *Repository
	bus          *events.Bus
	defaultStage int
	log          zerolog.Logger

	mu       sync.RWMutex
	registry map[string]*entry
}

// NewService creates a new organism service.
func NewService(repo *Repository, bus *events.Bus, defaultStage int, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		bus:          bus,
		defaultStage: defaultStage,
		log:          log.With().Str("service", "organism").Logger(),
		registry:     make(map[string]*entry),
	}
}

// Restore rebuilds the registry from persisted records. Engines restart in
// the ground state; only the last metrics snapshot survives a restart.
func (s *Service) Restore() error {
	records, err := s.repo.List()
	if err != nil {
		return fmt.Errorf("failed to restore organisms: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		engine, err := quantum.NewEngine(rec.Qubits)
		if err != nil {
			s.log.Error().Err(err).
				Str("organism_id", rec.ID).
				Int("qubits", rec.Qubits).
				Msg("Skipping organism with invalid register size")
			continue
		}
		rec.Mixed = false
		s.registry[rec.ID] = &entry{record: rec, engine: engine}
	}

	s.log.Info().Int("count", len(s.registry)).Msg("Organisms restored")
	return nil
}

// Create registers a new organism. A negative stage selects the configured
// default.
func (s *Service) Create(name string, stage int) (*Organism, error) {
	if stage < 0 {
		stage = s.defaultStage
	}
	qubits, err := QubitsForStage(stage)
	if err != nil {
		return nil, err
	}

	engine, err := quantum.NewEngine(qubits)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rec := &Organism{
		ID:        uuid.NewString(),
		Name:      name,
		Stage:     stage,
		Qubits:    qubits,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Save(rec); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.registry[rec.ID] = &entry{record: rec, engine: engine}
	s.mu.Unlock()

	s.log.Info().
		Str("organism_id", rec.ID).
		Str("name", name).
		Int("stage", stage).
		Int("qubits", qubits).
		Msg("Organism created")

	s.bus.Publish(events.Event{
		Type:       events.OrganismCreated,
		OrganismID: rec.ID,
		Data:       events.OrganismCreatedData{Name: name, Stage: stage, Qubits: qubits},
	})

	return cloneRecord(rec), nil
}

// Get returns a snapshot of one organism's record.
func (s *Service) Get(id string) (*Organism, error) {
	ent, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return cloneRecord(ent.record), nil
}

// List returns snapshots of all organisms ordered by creation time.
func (s *Service) List() []*Organism {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.registry))
	for _, ent := range s.registry {
		entries = append(entries, ent)
	}
	s.mu.RUnlock()

	result := make([]*Organism, 0, len(entries))
	for _, ent := range entries {
		ent.mu.Lock()
		result = append(result, cloneRecord(ent.record))
		ent.mu.Unlock()
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Optimize runs one Hamiltonian evolution pass and records the resulting
// metrics.
func (s *Service) Optimize(id string, needs quantum.Needs, traits quantum.Traits) (*quantum.Metrics, error) {
	ent, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()

	m, err := ent.engine.OptimizeState(needs, traits)
	if err != nil {
		return nil, err
	}
	return s.recordMetrics(ent, m)
}

// ApplyGates applies a gate sequence atomically and returns fresh metrics.
// Validation happens before any gate touches the state.
func (s *Service) ApplyGates(id string, gates []quantum.Gate) (*quantum.Metrics, error) {
	ent, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()

	for _, g := range gates {
		if err := ent.engine.ApplyGate(g); err != nil {
			return nil, err
		}
	}

	m, err := ent.engine.ComputeMetrics()
	if err != nil {
		return nil, err
	}
	return s.recordMetrics(ent, m)
}

// Reset reinitializes an organism's state to the ground state.
func (s *Service) Reset(id string) (*Organism, error) {
	ent, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()

	ent.engine.Reset()
	ent.record.Mixed = false
	ent.record.Metrics = nil
	ent.record.UpdatedAt = time.Now()

	if err := s.repo.Save(ent.record); err != nil {
		return nil, err
	}

	s.bus.Publish(events.Event{Type: events.StateReset, OrganismID: id})
	return cloneRecord(ent.record), nil
}

// Advance moves an organism to the next developmental stage, growing its
// register. The affect state restarts in the ground state of the larger
// register.
func (s *Service) Advance(id string) (*Organism, error) {
	ent, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()

	if ent.record.Stage >= MaxStage {
		return nil, fmt.Errorf("%w: stage %d", ErrMaxStage, ent.record.Stage)
	}

	stage := ent.record.Stage + 1
	qubits, err := QubitsForStage(stage)
	if err != nil {
		return nil, err
	}
	engine, err := quantum.NewEngine(qubits)
	if err != nil {
		return nil, err
	}

	ent.engine = engine
	ent.record.Stage = stage
	ent.record.Qubits = qubits
	ent.record.Mixed = false
	ent.record.Metrics = nil
	ent.record.UpdatedAt = time.Now()

	if err := s.repo.Save(ent.record); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("organism_id", id).
		Int("stage", stage).
		Int("qubits", qubits).
		Msg("Organism advanced")

	s.bus.Publish(events.Event{
		Type:       events.StageAdvanced,
		OrganismID: id,
		Data:       events.StageAdvancedData{Stage: stage, Qubits: qubits},
	})

	return cloneRecord(ent.record), nil
}

// Delete removes an organism and its history. The row goes first: the
// registry entry is only dropped once the store agrees the organism is
// gone, so a failed delete leaves the organism fully alive.
func (s *Service) Delete(id string) error {
	if _, err := s.lookup(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.registry, id)
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.OrganismDeleted, OrganismID: id})
	return nil
}

// History returns the most recent metrics samples for an organism.
func (s *Service) History(id string, limit int) ([]HistoryEntry, error) {
	if _, err := s.lookup(id); err != nil {
		return nil, err
	}
	return s.repo.History(id, limit)
}

// Snapshot persists every organism's current record. Called periodically by
// the scheduler so a crash loses at most one snapshot interval.
func (s *Service) Snapshot() error {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.registry))
	for _, ent := range s.registry {
		entries = append(entries, ent)
	}
	s.mu.RUnlock()

	var failed int
	for _, ent := range entries {
		ent.mu.Lock()
		err := s.repo.Save(ent.record)
		ent.mu.Unlock()
		if err != nil {
			failed++
			s.log.Error().Err(err).Msg("Snapshot save failed")
		}
	}
	if failed > 0 {
		return fmt.Errorf("snapshot failed for %d of %d organisms", failed, len(entries))
	}
	return nil
}

// recordMetrics persists a fresh metrics sample under the entry lock and
// publishes the update. The returned metrics are a private copy.
func (s *Service) recordMetrics(ent *entry, m quantum.Metrics) (*quantum.Metrics, error) {
	ent.record.Mixed = ent.engine.Mixed()
	ent.record.Metrics = &m
	ent.record.UpdatedAt = time.Now()

	if err := s.repo.Save(ent.record); err != nil {
		return nil, err
	}
	if err := s.repo.AppendHistory(ent.record.ID, m); err != nil {
		return nil, err
	}

	s.bus.Publish(events.Event{
		Type:       events.MetricsUpdated,
		OrganismID: ent.record.ID,
		Data:       events.MetricsUpdatedData{Metrics: m, Mixed: ent.record.Mixed},
	})

	out := m
	return &out, nil
}

func (s *Service) lookup(id string) (*entry, error) {
	s.mu.RLock()
	ent, ok := s.registry[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ent, nil
}

func cloneRecord(rec *Organism) *Organism {
	out := *rec
	if rec.Metrics != nil {
		m := *rec.Metrics
		out.Metrics = &m
	}
	return &out
}
