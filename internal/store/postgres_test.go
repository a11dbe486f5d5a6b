package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	sql  []string
	args [][]any
	err  error
}

func (f *fakeExec) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestPostgresMigrate(t *testing.T) {
	db := &fakeExec{}
	require.NoError(t, NewPostgres(db).Migrate(context.Background()))
	require.Len(t, db.sql, 1)
	assert.Contains(t, db.sql[0], "CREATE TABLE IF NOT EXISTS risk_assessments")
	for _, col := range Header() {
		assert.Contains(t, db.sql[0], col)
	}
}

func TestPostgresAppendBindsEveryColumn(t *testing.T) {
	db := &fakeExec{}
	id := uuid.New()
	at := time.Date(2025, 5, 21, 17, 43, 0, 0, time.UTC)

	r := sampleRecord()
	r.NightSweats = true
	err := NewPostgres(db).Append(context.Background(), Entry{
		ID:            id,
		SubmittedAt:   at,
		Record:        r,
		RiskClass:     2,
		PredictedRisk: "High",
	})
	require.NoError(t, err)

	require.Len(t, db.args, 1)
	args := db.args[0]
	require.Len(t, args, 22)
	assert.Equal(t, id, args[0])
	assert.Equal(t, at, args[1])
	assert.Equal(t, int16(45), args[2])
	assert.Equal(t, int16(1), args[3])
	assert.Equal(t, int16(1), args[13])
	assert.Equal(t, 6.0, args[16])
	assert.Equal(t, 13.5, args[19])
	assert.Equal(t, 2, args[20])
	assert.Equal(t, "High", args[21])

	assert.Equal(t, 22, strings.Count(db.sql[0], "$"))
	assert.Contains(t, db.sql[0], "$22)")
}

func TestPostgresAppendWrapsError(t *testing.T) {
	boom := errors.New("connection reset")
	err := NewPostgres(&fakeExec{err: boom}).Append(context.Background(), Entry{Record: sampleRecord()})
	assert.ErrorIs(t, err, boom)
}
