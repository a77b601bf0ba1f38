// Package pipeline drives a prompt through a chain of engines, one per shard,
// the way a distributed orchestrator would.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shardsim/internal/engine"
	"shardsim/pkg/types"
)

// Finish reasons reported in GenerateResult.
const (
	FinishEOS    = "eos"
	FinishLength = "length"
)

// Stage pairs a shard with the engine serving it.
type Stage struct {
	Shard  types.Shard
	Engine engine.InferenceEngine
}

type Pipeline struct {
	stages []Stage
	log    zerolog.Logger
}

// New partitions nLayers of modelID evenly across engines, in order.
func New(modelID string, nLayers int, engines ...engine.InferenceEngine) (*Pipeline, error) {
	shards, err := types.PartitionLayers(modelID, nLayers, len(engines))
	if err != nil {
		return nil, err
	}
	stages := make([]Stage, len(engines))
	for i, e := range engines {
		stages[i] = Stage{Shard: shards[i], Engine: e}
	}
	return FromStages(stages...)
}

// FromStages builds a pipeline from explicit stages. The first stage must be
// the model's first layer and the last stage its last layer.
func FromStages(stages ...Stage) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("pipeline: no stages")
	}
	if !stages[0].Shard.IsFirstLayer() {
		return nil, fmt.Errorf("pipeline: stage 0 %s is not a first stage", stages[0].Shard)
	}
	if last := stages[len(stages)-1].Shard; !last.IsLastLayer() {
		return nil, fmt.Errorf("pipeline: final stage %s is not a last stage", last)
	}
	for i, st := range stages {
		if st.Engine == nil {
			return nil, fmt.Errorf("pipeline: stage %d has no engine", i)
		}
	}
	return &Pipeline{stages: stages, log: zerolog.Nop()}, nil
}

// SetLogger installs a structured logger for per-request diagnostics.
func (p *Pipeline) SetLogger(l zerolog.Logger) { p.log = l }

// Stages returns a copy of the configured stages.
func (p *Pipeline) Stages() []Stage {
	out := make([]Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

// Forward runs input through every stage and returns the last stage's output.
func (p *Pipeline) Forward(ctx context.Context, requestID string, input types.Tensor) (types.Tensor, error) {
	x := input
	for i, st := range p.stages {
		out, err := st.Engine.InferTensor(ctx, requestID, st.Shard, x)
		if err != nil {
			return types.Tensor{}, fmt.Errorf("stage %d (%s): %w", i, st.Shard, err)
		}
		x = out
	}
	return x, nil
}

// Generate encodes prompt on the first stage, then forwards and samples until
// the last stage's sampler returns its EOS id or maxTokens tokens were
// produced. An empty
// requestID is replaced by a random UUID.
func (p *Pipeline) Generate(ctx context.Context, requestID, prompt string, maxTokens int) (types.GenerateResult, error) {
	if maxTokens <= 0 {
		return types.GenerateResult{}, fmt.Errorf("generate: max tokens must be positive, got %d", maxTokens)
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	first, last := p.stages[0], p.stages[len(p.stages)-1]
	eosID := last.Engine.EOSTokenID()

	promptTokens, err := first.Engine.Encode(ctx, first.Shard, prompt)
	if err != nil {
		return types.GenerateResult{}, fmt.Errorf("encode: %w", err)
	}
	if len(promptTokens) == 0 {
		return types.GenerateResult{}, fmt.Errorf("generate: empty prompt")
	}
	res := types.GenerateResult{RequestID: requestID, PromptTokens: len(promptTokens), FinishReason: FinishLength}

	input := types.TokensTensor(promptTokens)
	for len(res.Tokens) < maxTokens {
		logits, err := p.Forward(ctx, requestID, input)
		if err != nil {
			return types.GenerateResult{}, err
		}
		next, err := last.Engine.Sample(ctx, logits)
		if err != nil {
			return types.GenerateResult{}, fmt.Errorf("sample: %w", err)
		}
		if len(next) == 0 {
			return types.GenerateResult{}, fmt.Errorf("sample: empty result")
		}
		if next[0] == eosID {
			res.FinishReason = FinishEOS
			break
		}
		res.Tokens = append(res.Tokens, next[0])
		input = types.TokensTensor(next)
	}

	res.Text, err = last.Engine.Decode(ctx, last.Shard, res.Tokens)
	if err != nil {
		return types.GenerateResult{}, fmt.Errorf("decode: %w", err)
	}
	p.log.Debug().
		Str("request_id", requestID).
		Int("prompt_tokens", res.PromptTokens).
		Int("completion_tokens", len(res.Tokens)).
		Str("finish", res.FinishReason).
		Msg("generate done")
	return res, nil
}
