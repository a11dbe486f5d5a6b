package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"

	"github.com/Skufu/leukovision/internal/patient"
)

// CSV is the flat-file records table. Every append reads the whole file,
// adds one row and rewrites it, so cost grows with the table. Appends are
// serialized by mu; nothing guards against a second process writing the
// same file.
type CSV struct {
	path string
	mu   sync.Mutex
}

func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

func (s *CSV) Path() string {
	return s.path
}

// Append adds one row, creating the file with its header if it is absent.
func (s *CSV) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table, mode, err := s.readTable()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		table = [][]string{Header()}
		mode = 0o644
	case err != nil:
		return err
	}

	table = append(table, formatRow(e.Record, e.PredictedRisk))

	if err := s.writeTable(table, mode); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// Rows reads every data row back in submission order.
func (s *CSV) Rows(ctx context.Context) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	table, _, err := s.readTable()
	s.mu.Unlock()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(table)-1)
	for i, rec := range table[1:] {
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.path, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *CSV) readTable() ([][]string, fs.FileMode, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat %s: %w", s.path, err)
	}

	table, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(table) == 0 {
		return [][]string{Header()}, info.Mode().Perm(), nil
	}
	if !slices.Equal(table[0], Header()) {
		return nil, 0, fmt.Errorf("%w: %s", ErrHeaderMismatch, s.path)
	}

	return table, info.Mode().Perm(), nil
}

// writeTable replaces the file through a temp file in the same directory so
// a failed write never leaves a truncated table behind.
func (s *CSV) writeTable(table [][]string, mode fs.FileMode) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(table); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

// formatRow writes age, gender and flags as integers and lab values in the
// shortest form that parses back to the same float64.
func formatRow(r patient.Record, label string) []string {
	features := r.Features()
	out := make([]string, 0, len(features)+1)
	for i, v := range features {
		if i < 14 {
			out = append(out, strconv.FormatInt(int64(v), 10))
			continue
		}
		out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return append(out, label)
}

func parseRow(rec []string) (Row, error) {
	if len(rec) != patient.FeatureCount+1 {
		return Row{}, fmt.Errorf("%w: %d columns", ErrMalformedRow, len(rec))
	}

	features := make([]float64, patient.FeatureCount)
	for i := range features {
		v, err := strconv.ParseFloat(rec[i], 64)
		if err != nil {
			return Row{}, fmt.Errorf("%w: %s: %v", ErrMalformedRow, patient.FeatureNames[i], err)
		}
		features[i] = v
	}

	r, err := patient.FromFeatures(features)
	if err != nil {
		return Row{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}

	return Row{Record: r, PredictedRisk: rec[patient.FeatureCount]}, nil
}
