package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/leukovision/internal/patient"
)

func sampleRecord() patient.Record {
	return patient.Record{
		Age:    45,
		Gender: patient.GenderMale,
		Labs:   patient.Labs{WBCCount: 6.0, RBCCount: 4.5, PlateletsCount: 250, Hemoglobin: 13.5},
	}
}

func TestCSVAppendCreatesFileWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	s := NewCSV(path)

	require.NoError(t, s.Append(context.Background(), Entry{Record: sampleRecord(), PredictedRisk: "Low"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "age,gender,fatigue,weight_loss,frequent_infections,easy_bruising,pale_skin,shortness_of_breath,bone_joint_pain,enlarged_lymph_nodes,fever,night_sweats,infection_history,family_history_leukemia,wbc_count,rbc_count,platelets_count,hemoglobin,predicted_risk", lines[0])
	assert.Equal(t, "45,1,0,0,0,0,0,0,0,0,0,0,0,0,6,4.5,250,13.5,Low", lines[1])
}

func TestCSVAppendGrowsByOneRowPerSubmission(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	s := NewCSV(path)
	ctx := context.Background()

	const n = 5
	for i := range n {
		r := sampleRecord()
		r.Age = 20 + i
		r.Hemoglobin = 10 + float64(i)/3
		require.NoError(t, s.Append(ctx, Entry{Record: r, PredictedRisk: fmt.Sprintf("tier-%d", i)}))
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(raw)), "\n"), n+1)

	rows, err := s.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, n)
	for i, row := range rows {
		assert.Equal(t, 20+i, row.Record.Age)
		assert.Equal(t, 10+float64(i)/3, row.Record.Hemoglobin)
		assert.Equal(t, fmt.Sprintf("tier-%d", i), row.PredictedRisk)
	}
}

func TestCSVRoundTripKeepsFloatPrecision(t *testing.T) {
	s := NewCSV(filepath.Join(t.TempDir(), "records.csv"))
	ctx := context.Background()

	r := sampleRecord()
	r.Gender = patient.GenderFemale
	r.PaleSkin = true
	r.Fever = true
	r.WBCCount = 0.1 + 0.2
	r.RBCCount = 1.0 / 3.0
	r.PlateletsCount = 123456.789
	r.Hemoglobin = 1e-7

	require.NoError(t, s.Append(ctx, Entry{Record: r, PredictedRisk: "High"}))

	rows, err := s.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, r, rows[0].Record)
	assert.Equal(t, r.Features(), rows[0].Record.Features())
	assert.Equal(t, "High", rows[0].PredictedRisk)
}

func TestCSVExtendsPandasWrittenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_leukemia_data.csv")
	existing := strings.Join(Header(), ",") + "\n" +
		"30,0,1,0,0,1,0,0,0,0,0,0,0,0,6.0,4.5,250.0,13.5,Low\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o600))

	s := NewCSV(path)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, Entry{Record: sampleRecord(), PredictedRisk: "Moderate"}))

	rows, err := s.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 30, rows[0].Record.Age)
	assert.True(t, rows[0].Record.Fatigue)
	assert.True(t, rows[0].Record.EasyBruising)
	assert.Equal(t, 250.0, rows[0].Record.PlateletsCount)
	assert.Equal(t, "Moderate", rows[1].PredictedRisk)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCSVRejectsForeignHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,score\nbob,1\n"), 0o644))

	err := NewCSV(path).Append(context.Background(), Entry{Record: sampleRecord(), PredictedRisk: "Low"})
	assert.ErrorIs(t, err, ErrHeaderMismatch)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "name,score\nbob,1\n", string(raw))
}

func TestCSVAppendFailsInUnwritableLocation(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := NewCSV(filepath.Join(blocker, "records.csv")).Append(context.Background(), Entry{Record: sampleRecord(), PredictedRisk: "Low"})
	assert.Error(t, err)
}

func TestCSVConcurrentAppendsAreNotLost(t *testing.T) {
	s := NewCSV(filepath.Join(t.TempDir(), "records.csv"))
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := sampleRecord()
			r.Age = i + 1
			assert.NoError(t, s.Append(ctx, Entry{Record: r, PredictedRisk: "Low"}))
		}()
	}
	wg.Wait()

	rows, err := s.Rows(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, n)
}

func TestCSVRowsOnMissingFile(t *testing.T) {
	rows, err := NewCSV(filepath.Join(t.TempDir(), "absent.csv")).Rows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCSVAppendHonoursCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewCSV(path).Append(ctx, Entry{Record: sampleRecord(), PredictedRisk: "Low"})
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
