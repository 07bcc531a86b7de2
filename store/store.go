// Package store persists health reports captured by the save_health_report
// tool. Two implementations are provided: an in-memory store for tests and
// single-process runs, and a Redis-backed store.
package store

import (
	"context"
	"time"
)

// HealthReport is a user-submitted wellbeing record tied to a city.
type HealthReport struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Mood      string    `json:"mood"`
	Activity  string    `json:"activity"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

type Reports interface {
	// Save persists the report.
	Save(ctx context.Context, report *HealthReport) error
	// List returns the reports recorded for a city, oldest first.
	List(ctx context.Context, city string) ([]*HealthReport, error)
}
