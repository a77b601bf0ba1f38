package types

import "fmt"

// Shard identifies a contiguous range of layers of a model assigned to one
// engine instance. Shards are plain values and compare with ==.
type Shard struct {
	// Model identifier shared by every shard of the same model.
	// example: llama-3-8b
	ModelID string `json:"model_id" yaml:"model_id"`
	// First layer (inclusive) handled by this shard.
	StartLayer int `json:"start_layer" yaml:"start_layer"`
	// Last layer (inclusive) handled by this shard.
	EndLayer int `json:"end_layer" yaml:"end_layer"`
	// Total number of layers in the model.
	NLayers int `json:"n_layers" yaml:"n_layers"`
}

// IsFirstLayer reports whether the shard is the first pipeline stage.
func (s Shard) IsFirstLayer() bool { return s.StartLayer == 0 }

// IsLastLayer reports whether the shard is the last pipeline stage.
func (s Shard) IsLastLayer() bool { return s.EndLayer == s.NLayers-1 }

// Len returns the number of layers covered by the shard.
func (s Shard) Len() int { return s.EndLayer - s.StartLayer + 1 }

func (s Shard) String() string {
	return fmt.Sprintf("%s[%d-%d/%d]", s.ModelID, s.StartLayer, s.EndLayer, s.NLayers)
}

// Validate checks the layer range against the model size.
func (s Shard) Validate() error {
	if s.ModelID == "" {
		return fmt.Errorf("shard: empty model id")
	}
	if s.NLayers <= 0 {
		return fmt.Errorf("shard %s: n_layers must be positive", s)
	}
	if s.StartLayer < 0 || s.StartLayer > s.EndLayer || s.EndLayer >= s.NLayers {
		return fmt.Errorf("shard %s: layer range out of bounds", s)
	}
	return nil
}

// PartitionLayers splits nLayers into stages contiguous shards. Sizes differ by
// at most one layer; earlier shards take the remainder.
func PartitionLayers(modelID string, nLayers, stages int) ([]Shard, error) {
	if stages <= 0 {
		return nil, fmt.Errorf("partition: stages must be positive, got %d", stages)
	}
	if nLayers < stages {
		return nil, fmt.Errorf("partition: %d layers cannot be split into %d stages", nLayers, stages)
	}
	base, rem := nLayers/stages, nLayers%stages
	out := make([]Shard, 0, stages)
	start := 0
	for i := 0; i < stages; i++ {
		n := base
		if i < rem {
			n++
		}
		out = append(out, Shard{ModelID: modelID, StartLayer: start, EndLayer: start + n - 1, NLayers: nLayers})
		start += n
	}
	return out, nil
}
