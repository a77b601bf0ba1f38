package engine

import (
	"math/rand"
	"testing"
	"time"

	"shardsim/pkg/types"
)

const testLoadDelay = 30 * time.Millisecond

// newTestEngine returns a seeded engine with a short load delay.
func newTestEngine(t *testing.T, opts ...Option) *Dummy {
	t.Helper()
	base := []Option{WithRand(rand.New(rand.NewSource(42)))}
	return New(Config{VocabSize: 1000, HiddenSize: 256, LoadDelay: testLoadDelay}, append(base, opts...)...)
}

func shard(start, end, n int) types.Shard {
	return types.Shard{ModelID: "test-model", StartLayer: start, EndLayer: end, NLayers: n}
}

// zeroHidden returns a (1, seq, 256) activation tensor.
func zeroHidden(seq int) types.Tensor { return types.NewTensor(1, seq, 256) }
