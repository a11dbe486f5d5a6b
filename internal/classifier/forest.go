package classifier

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/Skufu/leukovision/internal/patient"
)

// ForestFormat identifies the artifact layout understood by LoadForest.
const ForestFormat = "leukovision-forest/v1"

var ErrInvalidArtifact = errors.New("invalid model artifact")

//go:embed forest.schema.json
var forestSchemaJSON []byte

var (
	forestSchemaOnce sync.Once
	forestSchema     *jsonschema.Schema
	forestSchemaErr  error
)

// Node is one decision tree node. A node with Value set is a leaf;
// otherwise samples with features[Feature] <= Threshold go Left.
type Node struct {
	Feature   *int      `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *int      `json:"left,omitempty"`
	Right     *int      `json:"right,omitempty"`
	Value     []float64 `json:"value,omitempty"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest is a decision forest exported from the training pipeline. The
// prediction is the class with the highest mean leaf probability across
// trees.
type Forest struct {
	Format    string `json:"format"`
	NFeatures int    `json:"n_features"`
	Classes   []int  `json:"classes"`
	Trees     []Tree `json:"trees"`
}

// LoadForest reads and validates a forest artifact from disk. The artifact
// must take exactly the encoded patient vector as input.
func LoadForest(path string) (*Forest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact %s: %w", path, err)
	}

	f, err := ParseForest(raw)
	if err != nil {
		return nil, fmt.Errorf("load model artifact %s: %w", path, err)
	}
	if f.NFeatures != patient.FeatureCount {
		return nil, fmt.Errorf("load model artifact %s: %w: expects %d features, encoder produces %d",
			path, ErrInvalidArtifact, f.NFeatures, patient.FeatureCount)
	}

	return f, nil
}

// ParseForest decodes an artifact, checks it against the artifact schema and
// then verifies the tree structure.
func ParseForest(raw []byte) (*Forest, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	schema, err := compiledForestSchema()
	if err != nil {
		return nil, fmt.Errorf("compile artifact schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	var f Forest
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if f.Format != ForestFormat {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidArtifact, f.Format)
	}
	if err := f.check(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	return &f, nil
}

func compiledForestSchema() (*jsonschema.Schema, error) {
	forestSchemaOnce.Do(func() {
		var def any
		if err := json.Unmarshal(forestSchemaJSON, &def); err != nil {
			forestSchemaErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		const url = "schema://leukovision/forest.json"
		if err := c.AddResource(url, def); err != nil {
			forestSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		forestSchema, forestSchemaErr = c.Compile(url)
	})
	return forestSchema, forestSchemaErr
}

// check enforces what the schema cannot express: children always point
// forward (so traversal terminates), feature indices are in range, and every
// leaf carries one weight per class.
func (f *Forest) check() error {
	for ti, t := range f.Trees {
		for ni, n := range t.Nodes {
			if n.Value != nil {
				if len(n.Value) != len(f.Classes) {
					return fmt.Errorf("tree %d node %d: leaf has %d weights for %d classes", ti, ni, len(n.Value), len(f.Classes))
				}
				continue
			}
			if n.Feature == nil || n.Left == nil || n.Right == nil {
				return fmt.Errorf("tree %d node %d: split node needs feature, left and right", ti, ni)
			}
			if *n.Feature >= f.NFeatures {
				return fmt.Errorf("tree %d node %d: feature %d out of range", ti, ni, *n.Feature)
			}
			for _, child := range []int{*n.Left, *n.Right} {
				if child <= ni || child >= len(t.Nodes) {
					return fmt.Errorf("tree %d node %d: child %d out of range", ti, ni, child)
				}
			}
		}
	}
	return nil
}

// Predict implements Model.
func (f *Forest) Predict(features []float64) (int, error) {
	if len(features) != f.NFeatures {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(features), f.NFeatures)
	}

	proba := make([]float64, len(f.Classes))
	for _, t := range f.Trees {
		leaf := t.leaf(features)
		var total float64
		for _, w := range leaf {
			total += w
		}
		if total == 0 {
			continue
		}
		for i, w := range leaf {
			proba[i] += w / total
		}
	}

	best := 0
	for i := 1; i < len(proba); i++ {
		if proba[i] > proba[best] {
			best = i
		}
	}

	return f.Classes[best], nil
}

func (t Tree) leaf(features []float64) []float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Value != nil {
			return n.Value
		}
		if features[*n.Feature] <= n.Threshold {
			i = *n.Left
		} else {
			i = *n.Right
		}
	}
}
