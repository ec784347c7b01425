// Package organism manages the registry of digital organisms: their
// developmental stage, their quantum affect engine, and their persisted
// metrics history.
package organism

import (
	"errors"
	"fmt"
	"time"

	"github.com/suryap3105/EchoGenesis/internal/quantum"
)

// Sentinel errors surfaced to the transport layer.
var (
	ErrNotFound     = errors.New("organism not found")
	ErrInvalidStage = errors.New("invalid developmental stage")
	ErrMaxStage     = errors.New("organism already at final stage")
)

// MaxStage is the last developmental stage.
const MaxStage = 5

// stageQubits maps each developmental stage to its register size. Growth is
// monotone: advancing a stage always adds capacity.
var stageQubits = map[int]int{
	0: 3,
	1: 4,
	2: 5,
	3: 6,
	4: 7,
	5: 8,
}

// QubitsForStage returns the register size for a developmental stage.
func QubitsForStage(stage int) (int, error) {
	q, ok := stageQubits[stage]
	if !ok {
		return 0, fmt.Errorf("%w: stage %d outside [0, %d]", ErrInvalidStage, stage, MaxStage)
	}
	return q, nil
}

// Organism is the persisted record of one digital organism. The live engine
// state is held separately by the service; only the latest metrics snapshot
// survives a restart.
type Organism struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Stage     int              `json:"stage"`
	Qubits    int              `json:"qubits"`
	Mixed     bool             `json:"mixed"`
	Metrics   *quantum.Metrics `json:"metrics,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// HistoryEntry is one recorded metrics sample.
type HistoryEntry struct {
	Metrics    quantum.Metrics `json:"metrics"`
	RecordedAt time.Time       `json:"recorded_at"`
}
