package ingest

import (
	"github.com/google/uuid"

	"github.com/mesh-intelligence/datapond/pkg/types"
)

// Result describes one raw file that reached the pond and its view.
type Result struct {
	Raw          string            `json:"raw"`
	SemanticName string            `json:"semantic_name"`
	SHA256       string            `json:"sha256"`
	Provenance   *types.Provenance `json:"provenance,omitempty"`
	View         *types.View       `json:"view"`
}

// Skip records an entry left unprocessed and why.
type Skip struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
	err    error
}

// Err returns the error that caused the skip.
func (s Skip) Err() error { return s.err }

// Report summarizes one ingestion run.
type Report struct {
	RunID    string   `json:"run_id"`
	Ingested []Result `json:"ingested"`
	Skipped  []Skip   `json:"skipped"`
}

func newReport() *Report {
	return &Report{
		RunID:    newRunID(),
		Ingested: []Result{},
		Skipped:  []Skip{},
	}
}

// newRunID generates a UUID v7 for an ingestion run.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
