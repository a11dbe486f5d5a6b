package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of *pgxpool.Pool the mirror needs.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Postgres mirrors every submission into the risk_assessments table.
type Postgres struct {
	db Execer
}

func NewPostgres(db Execer) *Postgres {
	return &Postgres{db: db}
}

const createAssessmentsTable = `
CREATE TABLE IF NOT EXISTS risk_assessments (
	id                      UUID PRIMARY KEY,
	submitted_at            TIMESTAMPTZ NOT NULL,
	age                     SMALLINT NOT NULL,
	gender                  SMALLINT NOT NULL,
	fatigue                 SMALLINT NOT NULL,
	weight_loss             SMALLINT NOT NULL,
	frequent_infections     SMALLINT NOT NULL,
	easy_bruising           SMALLINT NOT NULL,
	pale_skin               SMALLINT NOT NULL,
	shortness_of_breath     SMALLINT NOT NULL,
	bone_joint_pain         SMALLINT NOT NULL,
	enlarged_lymph_nodes    SMALLINT NOT NULL,
	fever                   SMALLINT NOT NULL,
	night_sweats            SMALLINT NOT NULL,
	infection_history       SMALLINT NOT NULL,
	family_history_leukemia SMALLINT NOT NULL,
	wbc_count               DOUBLE PRECISION NOT NULL,
	rbc_count               DOUBLE PRECISION NOT NULL,
	platelets_count         DOUBLE PRECISION NOT NULL,
	hemoglobin              DOUBLE PRECISION NOT NULL,
	risk_class              INTEGER NOT NULL,
	predicted_risk          TEXT NOT NULL
)`

func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createAssessmentsTable); err != nil {
		return fmt.Errorf("create risk_assessments: %w", err)
	}
	return nil
}

var insertAssessment = buildInsert()

func buildInsert() string {
	cols := "id, submitted_at"
	params := "$1, $2"
	n := 2
	for _, name := range Header()[:len(Header())-1] {
		n++
		cols += ", " + name
		params += fmt.Sprintf(", $%d", n)
	}
	cols += ", risk_class, predicted_risk"
	params += fmt.Sprintf(", $%d, $%d", n+1, n+2)
	return "INSERT INTO risk_assessments (" + cols + ") VALUES (" + params + ")"
}

func (p *Postgres) Append(ctx context.Context, e Entry) error {
	features := e.Record.Features()

	args := make([]any, 0, len(features)+4)
	args = append(args, e.ID, e.SubmittedAt)
	for i, v := range features {
		if i < 14 {
			args = append(args, int16(v))
			continue
		}
		args = append(args, v)
	}
	args = append(args, e.RiskClass, e.PredictedRisk)

	if _, err := p.db.Exec(ctx, insertAssessment, args...); err != nil {
		return fmt.Errorf("insert risk assessment %s: %w", e.ID, err)
	}
	return nil
}
