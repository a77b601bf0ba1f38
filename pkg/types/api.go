package types

// GenerateResult is the outcome of driving a prompt through every pipeline stage.
type GenerateResult struct {
	RequestID string `json:"request_id" yaml:"request_id"`
	// Generated token ids, excluding the prompt. The terminating EOS is not included.
	Tokens []int  `json:"tokens" yaml:"tokens"`
	Text   string `json:"text" yaml:"text"`
	// "eos" when the sampler ended the sequence, "length" when max tokens was hit.
	FinishReason string `json:"finish_reason" yaml:"finish_reason"`
	PromptTokens int    `json:"prompt_tokens" yaml:"prompt_tokens"`
}

// InferResult summarizes a single InferTensor call for display.
type InferResult struct {
	RequestID string `json:"request_id" yaml:"request_id"`
	Shard     Shard  `json:"shard" yaml:"shard"`
	Shape     []int  `json:"shape" yaml:"shape"`
}
