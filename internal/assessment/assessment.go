// Package assessment runs one submission through the risk pipeline:
// validate, encode, classify, map to a tier, persist.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Skufu/leukovision/internal/classifier"
	"github.com/Skufu/leukovision/internal/patient"
	"github.com/Skufu/leukovision/internal/store"
	"github.com/Skufu/leukovision/internal/tier"
	"github.com/Skufu/leukovision/pkg/metrics"
)

var ErrInvalidInput = errors.New("invalid patient input")

// Result is what the user sees. A result with Saved=false is still a valid
// classification; only persistence failed.
type Result struct {
	ID          uuid.UUID
	SubmittedAt time.Time
	Features    []float64
	Tier        tier.Tier
	Saved       bool
	SaveError   error
}

type Service struct {
	classifier *classifier.Classifier
	store      store.Appender
	mirror     store.Appender
	metrics    *metrics.Collector
	log        *zap.Logger
	now        func() time.Time
}

type Option func(*Service)

// WithMirror adds a secondary store. Its failures are logged and counted
// but never reported as an unsaved result.
func WithMirror(m store.Appender) Option {
	return func(s *Service) { s.mirror = m }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(c *classifier.Classifier, primary store.Appender, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		classifier: c,
		store:      primary,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assess classifies one record and persists it. Errors are returned only
// when no classification could be produced.
func (s *Service) Assess(ctx context.Context, r patient.Record) (*Result, error) {
	if err := r.Validate(); err != nil {
		if s.metrics != nil {
			s.metrics.RejectedTotal.Inc()
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	features := r.Features()

	start := time.Now()
	class, err := s.classifier.Classify(features)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	if s.metrics != nil {
		s.metrics.InferenceDuration.Observe(time.Since(start).Seconds())
	}

	t := tier.Map(class)
	res := &Result{
		ID:          uuid.New(),
		SubmittedAt: s.now().UTC(),
		Features:    features,
		Tier:        t,
	}

	log := s.log.With(
		zap.String("assessment_id", res.ID.String()),
		zap.Int("risk_class", int(class)),
		zap.String("tier", t.Label),
	)
	if !t.Known() {
		log.Warn("model returned an unmapped risk class")
	}

	entry := store.Entry{
		ID:            res.ID,
		SubmittedAt:   res.SubmittedAt,
		Record:        r,
		RiskClass:     int(class),
		PredictedRisk: t.Label,
	}

	// A classified submission is always persisted, even if the caller has
	// gone away.
	saveCtx := context.WithoutCancel(ctx)
	if err := s.store.Append(saveCtx, entry); err != nil {
		res.SaveError = err
		s.countStore("primary", err)
		log.Error("result computed but not saved", zap.Error(err))
	} else {
		res.Saved = true
		s.countStore("primary", nil)
	}

	if s.mirror != nil {
		mirrorErr := s.mirror.Append(saveCtx, entry)
		if mirrorErr != nil {
			log.Warn("mirror write failed", zap.Error(mirrorErr))
		}
		s.countStore("mirror", mirrorErr)
	}

	if s.metrics != nil {
		s.metrics.AssessmentsTotal.WithLabelValues(t.Label).Inc()
	}
	log.Info("assessment completed", zap.Bool("saved", res.Saved))

	return res, nil
}

func (s *Service) countStore(name string, err error) {
	if s.metrics == nil {
		return
	}
	if err != nil {
		s.metrics.StoreFailuresTotal.WithLabelValues(name).Inc()
		return
	}
	s.metrics.StoreWritesTotal.WithLabelValues(name).Inc()
}
