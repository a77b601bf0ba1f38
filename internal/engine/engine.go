package engine

import (
	"context"

	"shardsim/pkg/types"
)

// InferenceEngine is the capability callers depend on. Implementations load
// the requested shard on demand.
type InferenceEngine interface {
	// Encode tokenizes a prompt. The shard does not affect the result.
	Encode(ctx context.Context, shard types.Shard, prompt string) ([]int, error)
	// Decode is the inverse of Encode.
	Decode(ctx context.Context, shard types.Shard, tokens []int) (string, error)
	// Sample picks the next token from the last stage's output. It returns a
	// single token id.
	Sample(ctx context.Context, x types.Tensor) ([]int, error)
	// InferTensor runs the shard's layers over input.
	InferTensor(ctx context.Context, requestID string, shard types.Shard, input types.Tensor) (types.Tensor, error)
	// EnsureShard loads shard if it is not the one currently loaded.
	EnsureShard(ctx context.Context, shard types.Shard) error
	// EOSTokenID is the id Sample returns to end a sequence.
	EOSTokenID() int
}

// Tokenizer maps text to token ids and back.
type Tokenizer interface {
	Encode(s string) []int
	Decode(tokens []int) string
	EOSTokenID() int
}
