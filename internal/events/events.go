// Package events provides the in-process event bus that fans organism
// lifecycle and metrics updates out to subscribers (websocket streams,
// background jobs).
package events

import (
	"time"

	"github.com/suryap3105/EchoGenesis/internal/quantum"
)

// EventType identifies the kind of organism event.
type EventType string

const (
	OrganismCreated EventType = "organism_created"
	OrganismDeleted EventType = "organism_deleted"
	MetricsUpdated  EventType = "metrics_updated"
	StageAdvanced   EventType = "stage_advanced"
	StateReset      EventType = "state_reset"
)

// Event is the envelope delivered to subscribers.
type Event struct {
	Type       EventType   `json:"type"`
	OrganismID string      `json:"organism_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Data       interface{} `json:"data,omitempty"`
}

// MetricsUpdatedData carries the metrics produced by an evolution pass.
type MetricsUpdatedData struct {
	Metrics quantum.Metrics `json:"metrics"`
	Mixed   bool            `json:"mixed"`
}

// OrganismCreatedData describes a newly registered organism.
type OrganismCreatedData struct {
	Name   string `json:"name"`
	Stage  int    `json:"stage"`
	Qubits int    `json:"qubits"`
}

// StageAdvancedData describes a developmental stage transition.
type StageAdvancedData struct {
	Stage  int `json:"stage"`
	Qubits int `json:"qubits"`
}
