// Package engine provides a placeholder inference engine that fabricates
// tokens and tensors for a model shard. It stands in for a real distributed
// backend so routing and scheduling code can run without weights.
//
//   - engine.go: InferenceEngine contract and the Tokenizer collaborator.
//   - config.go: Config and package defaults; New applies defaults.
//   - state.go: shard load state machine (unloaded, loading, loaded).
//   - dummy.go: Dummy engine: Encode, Decode, Sample, InferTensor.
//   - ensure.go: EnsureShard, the simulated load transition.
//   - errors.go: error types and helpers (IsInvalidShard, IsShapeMismatch).
//   - events.go, eventpub_memory.go: lifecycle events.
//   - metrics.go: Prometheus collectors.
//
// Randomness comes from an injectable *rand.Rand so tests can seed it. The
// engine is safe for concurrent use; shard transitions are serialized.
package engine
