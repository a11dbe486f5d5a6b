// Package store persists submitted patient records together with the
// predicted risk tier.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Skufu/leukovision/internal/patient"
)

var (
	ErrHeaderMismatch = errors.New("existing table header does not match")
	ErrMalformedRow   = errors.New("malformed row")
)

// PredictedRiskColumn is the column appended after the feature columns.
const PredictedRiskColumn = "predicted_risk"

// Header returns the fixed column layout of the records table.
func Header() []string {
	h := make([]string, 0, patient.FeatureCount+1)
	h = append(h, patient.FeatureNames[:]...)
	return append(h, PredictedRiskColumn)
}

// Entry is one classification event to persist. The CSV table keeps only
// Record and PredictedRisk; the other fields feed the database mirror.
type Entry struct {
	ID            uuid.UUID
	SubmittedAt   time.Time
	Record        patient.Record
	RiskClass     int
	PredictedRisk string
}

// Row is a record read back from the table.
type Row struct {
	Record        patient.Record
	PredictedRisk string
}

type Appender interface {
	Append(ctx context.Context, e Entry) error
}
