package regressor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/bikeprice/core/encoder"
)

// LeafIndex marks a node without children.
const LeafIndex = -1

// TreeNode is one node of a regression tree. Internal nodes send a sample
// left when features[Feature] <= Threshold.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

func (n TreeNode) leaf() bool { return n.Left == LeafIndex }

// Tree is a regression tree stored as a flat node list rooted at index 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// ForestModel averages the outputs of its trees, as a random forest
// regressor does.
type ForestModel struct {
	FeatureNames []string `json:"feature_names,omitempty"`
	Trees        []Tree   `json:"trees"`
}

// LoadForest reads a ForestModel from a JSON file.
func LoadForest(path string) (*ForestModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read forest model: %w", err)
	}
	var m ForestModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode forest model %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("forest model %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks every tree is well formed. Children must come after
// their parent, which rules out cycles.
func (m *ForestModel) Validate() error {
	if len(m.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for ti, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni, n := range t.Nodes {
			if n.leaf() {
				if n.Right != LeafIndex {
					return fmt.Errorf("tree %d node %d: leaf with right child", ti, ni)
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= encoder.VectorLen {
				return fmt.Errorf("tree %d node %d: feature %d out of range", ti, ni, n.Feature)
			}
			for _, c := range []int{n.Left, n.Right} {
				if c <= ni || c >= len(t.Nodes) {
					return fmt.Errorf("tree %d node %d: child %d out of range", ti, ni, c)
				}
			}
		}
	}
	return checkFeatureNames(m.FeatureNames)
}

// Predict returns the mean tree output. It is reentrant.
func (m *ForestModel) Predict(_ context.Context, features []float64) (float64, error) {
	if len(features) != encoder.VectorLen {
		return 0, fmt.Errorf("expected %d features, got %d", encoder.VectorLen, len(features))
	}
	outputs := make([]float64, len(m.Trees))
	for i, t := range m.Trees {
		outputs[i] = t.predict(features)
	}
	return stat.Mean(outputs, nil), nil
}

func (t Tree) predict(features []float64) float64 {
	n := t.Nodes[0]
	for !n.leaf() {
		if features[n.Feature] <= n.Threshold {
			n = t.Nodes[n.Left]
		} else {
			n = t.Nodes[n.Right]
		}
	}
	return n.Value
}
