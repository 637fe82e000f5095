// Package corrections keeps the user's detection corrections: a
// signature-keyed override map plus a bounded learning log the retrainer
// periodically mines for new fuzzy patterns.
//
// Persistence is fire-and-forget with logged failure. There is no conflict
// resolution between concurrent writers (two tabs in the original); the
// last write to land wins, which is acceptable for a single-user local
// tool. In-memory state stays authoritative until the next load.
package corrections

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/formsense/formsense/models"
	"github.com/formsense/formsense/pkg/scorer"
)

// maxLogEntries bounds the learning log; oldest entries fall off first.
const maxLogEntries = 800

// State is the persisted shape of the store.
type State struct {
	Corrections []models.Correction
	LearningLog []models.Correction
}

// Persister is the external key-value collaborator the store saves through.
// A nil persister means memory-only operation.
type Persister interface {
	LoadCorrections() (State, error)
	SaveCorrections(State) error
}

// Store owns the in-memory correction map and learning log.
type Store struct {
	mu      sync.Mutex
	bySig   map[string]models.Correction
	log     []models.Correction
	persist Persister
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewStore creates a store and loads persisted state. A load failure
// degrades to "no corrections available" rather than blocking detection.
func NewStore(persist Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		bySig:   make(map[string]models.Correction),
		persist: persist,
		logger:  logger,
	}
	if persist != nil {
		state, err := persist.LoadCorrections()
		if err != nil {
			logger.Warn("failed to load corrections, starting empty", "error", err)
			return s
		}
		for _, c := range state.Corrections {
			s.bySig[c.Signature] = c
		}
		s.log = state.LearningLog
		if len(s.log) > maxLogEntries {
			s.log = s.log[len(s.log)-maxLogEntries:]
		}
	}
	return s
}

// Signature derives the element key from name/id/label/position. It is not
// stable across reloads when those attributes are regenerated; see the
// Correction doc comment.
func Signature(sig models.SignalBundle) string {
	label := strings.ToLower(strings.TrimSpace(sig.Context.Label))
	if len(label) > 40 {
		label = label[:40]
	}
	return fmt.Sprintf("name=%s|id=%s|label=%s|pos=%d",
		strings.ToLower(sig.Attributes.Name),
		strings.ToLower(sig.Attributes.ID),
		label,
		sig.Structure.Position,
	)
}

// Lookup returns the stored correction for a signature.
func (s *Store) Lookup(signature string) (models.Correction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.bySig[signature]
	return c, ok
}

// Record stores a correction (most-recent-wins per signature), appends it
// to the bounded learning log, and persists asynchronously. Persistence
// failures are logged, never fatal.
func (s *Store) Record(sig models.SignalBundle, detected, corrected models.FieldType) models.Correction {
	c := models.Correction{
		Signature:     Signature(sig),
		DetectedType:  detected,
		CorrectedType: corrected,
		Timestamp:     time.Now(),
		Signals:       sig,
	}

	s.mu.Lock()
	s.bySig[c.Signature] = c
	s.log = append(s.log, c)
	if len(s.log) > maxLogEntries {
		s.log = s.log[len(s.log)-maxLogEntries:]
	}
	state := s.snapshotLocked()
	s.mu.Unlock()

	if s.persist != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.persist.SaveCorrections(state); err != nil {
				s.logger.Warn("failed to persist correction", "signature", c.Signature, "error", err)
			}
		}()
	}
	return c
}

// Boost adjusts a candidate type's base score against any stored correction
// for the signature: the corrected type gains a fixed bonus, the type the
// user explicitly rejected loses the same amount, floored at zero.
func (s *Store) Boost(signature string, candidate models.FieldType, base int) int {
	c, ok := s.Lookup(signature)
	if !ok {
		return base
	}
	switch candidate {
	case c.CorrectedType:
		base += scorer.CorrectionBoost
	case c.DetectedType:
		base -= scorer.CorrectionBoost
	}
	if base < 0 {
		return 0
	}
	return base
}

// Log returns a copy of the learning log, oldest first.
func (s *Store) Log() []models.Correction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Correction, len(s.log))
	copy(out, s.log)
	return out
}

// Len returns the number of stored corrections.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bySig)
}

// Flush waits for in-flight persistence writes. Call before shutdown.
func (s *Store) Flush() {
	s.wg.Wait()
}

func (s *Store) snapshotLocked() State {
	state := State{
		Corrections: make([]models.Correction, 0, len(s.bySig)),
		LearningLog: make([]models.Correction, len(s.log)),
	}
	for _, c := range s.bySig {
		state.Corrections = append(state.Corrections, c)
	}
	copy(state.LearningLog, s.log)
	return state
}
