package engine

import "shardsim/pkg/types"

// State is the load state of the engine's shard slot.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateLoaded   State = "loaded"
)

// shardSlot is the state machine behind EnsureShard:
// unloaded -> loading(S) -> loaded(S), and loaded(S) -> loading(T) for T != S.
// A canceled load returns to the previous state.
type shardSlot struct {
	state State
	shard types.Shard // valid when state != StateUnloaded
}

func (s shardSlot) loadedFor(shard types.Shard) bool {
	return s.state == StateLoaded && s.shard == shard
}

func (s shardSlot) beginLoad(shard types.Shard) shardSlot {
	return shardSlot{state: StateLoading, shard: shard}
}

func (s shardSlot) commit() shardSlot {
	return shardSlot{state: StateLoaded, shard: s.shard}
}

// Snapshot is a read-only projection of the engine state.
type Snapshot struct {
	State State
	// Shard is the loaded shard, or the one being loaded while State is loading.
	Shard *types.Shard
	Loads int
}
