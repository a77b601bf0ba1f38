package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shardsim/internal/tokenizer"
	"shardsim/pkg/types"
)

var _ InferenceEngine = (*Dummy)(nil)

// Dummy fabricates engine outputs: random tokens, random tensors of the right
// shape, and a fixed delay whenever it has to "load" a new shard.
type Dummy struct {
	cfg Config
	tok Tokenizer
	log zerolog.Logger

	// loadSem (one slot) serializes shard transitions; mu guards slot and loads.
	loadSem chan struct{}
	mu      sync.RWMutex
	slot    shardSlot
	loads   int

	rngMu sync.Mutex
	rng   *rand.Rand

	publisher EventPublisher
	metrics   *Metrics
}

// Option customizes a Dummy at construction.
type Option func(*Dummy)

// WithRand injects the random source used for sampling, tensor fill and latency.
func WithRand(r *rand.Rand) Option { return func(d *Dummy) { d.rng = r } }

// WithTokenizer replaces the default alphabet tokenizer.
func WithTokenizer(t Tokenizer) Option { return func(d *Dummy) { d.tok = t } }

// WithLogger installs a structured logger for load diagnostics.
func WithLogger(l zerolog.Logger) Option { return func(d *Dummy) { d.log = l } }

// WithMetrics records engine activity on m.
func WithMetrics(m *Metrics) Option { return func(d *Dummy) { d.metrics = m } }

// New constructs a Dummy from cfg. Unset fields take package defaults.
func New(cfg Config, opts ...Option) *Dummy {
	d := &Dummy{
		cfg:       cfg.withDefaults(),
		log:       zerolog.Nop(),
		loadSem:   make(chan struct{}, 1),
		slot:      shardSlot{state: StateUnloaded},
		publisher: noopPublisher{},
	}
	for _, o := range opts {
		o(d)
	}
	if d.tok == nil {
		d.tok = tokenizer.New("")
	}
	if d.rng == nil {
		seed := d.cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		d.rng = rand.New(rand.NewSource(seed))
	}
	return d
}

// SetEventPublisher installs a publisher; nil restores the no-op default.
func (d *Dummy) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	d.mu.Lock()
	d.publisher = p
	d.mu.Unlock()
}

// Config returns the effective configuration after defaults.
func (d *Dummy) Config() Config { return d.cfg }

func (d *Dummy) Encode(_ context.Context, _ types.Shard, prompt string) ([]int, error) {
	return d.tok.Encode(prompt), nil
}

func (d *Dummy) Decode(_ context.Context, _ types.Shard, tokens []int) (string, error) {
	return d.tok.Decode(tokens), nil
}

// Sample ignores x unless Greedy is set. It ends the sequence with
// probability EOSProbability and otherwise draws uniformly from [1, VocabSize)
// minus the tokenizer's EOS id. With Greedy it returns the argmax of the last
// position of x, which is EOS only when the logits say so.
func (d *Dummy) Sample(_ context.Context, x types.Tensor) ([]int, error) {
	eosID := d.tok.EOSTokenID()
	if d.cfg.Greedy {
		id, err := x.ArgmaxLast()
		if err != nil {
			return nil, ErrShapeMismatch("sample: " + err.Error())
		}
		d.metrics.observeSample(id == eosID)
		return []int{id}, nil
	}

	d.rngMu.Lock()
	eos := d.rng.Float64() < d.cfg.EOSProbability
	id := eosID
	if !eos {
		n := d.cfg.VocabSize - 1
		skip := eosID >= 1 && eosID < d.cfg.VocabSize
		if skip {
			n--
		}
		if n > 0 {
			id = 1 + d.rng.Intn(n)
			if skip && id >= eosID {
				id++
			}
		} else {
			eos = true
		}
	}
	d.rngMu.Unlock()
	d.metrics.observeSample(eos)
	return []int{id}, nil
}

// EOSTokenID returns the id Sample uses to end a sequence.
func (d *Dummy) EOSTokenID() int { return d.tok.EOSTokenID() }

// InferTensor loads shard if needed and returns a (1, seq, width) tensor of
// random values. The first stage reads seq from input dim 0 (token ids), later
// stages from dim 1 (activations shaped (batch, seq, hidden)). width is the
// vocabulary size on the last stage and the hidden size otherwise.
func (d *Dummy) InferTensor(ctx context.Context, requestID string, shard types.Shard, input types.Tensor) (types.Tensor, error) {
	if err := d.EnsureShard(ctx, shard); err != nil {
		return types.Tensor{}, err
	}
	axis := 1
	if shard.IsFirstLayer() {
		axis = 0
	}
	seqLen, err := input.Dim(axis)
	if err != nil {
		return types.Tensor{}, ErrShapeMismatch(shard.String() + ": " + err.Error())
	}
	if seqLen < 0 {
		return types.Tensor{}, ErrShapeMismatch(fmt.Sprintf("%s: negative sequence length %d in shape %v", shard, seqLen, input.Shape))
	}
	width := d.cfg.HiddenSize
	if shard.IsLastLayer() {
		width = d.cfg.VocabSize
	}

	if d.cfg.SimulateLatency {
		if err := sleepCtx(ctx, d.computeLatency()); err != nil {
			return types.Tensor{}, err
		}
	}

	out := types.NewTensor(1, seqLen, width)
	d.rngMu.Lock()
	for i := range out.Data {
		out.Data[i] = d.rng.Float32()
	}
	d.rngMu.Unlock()

	d.metrics.observeInfer(stageLabel(shard.IsFirstLayer(), shard.IsLastLayer()))
	d.currentPublisher().Publish(Event{Name: EventInferTensor, Shard: shard.String(), Fields: map[string]any{
		"request_id": requestID,
		"shape":      out.Shape,
	}})
	return out, nil
}

// CurrentShard returns the loaded shard, if any.
func (d *Dummy) CurrentShard() (types.Shard, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.slot.state != StateLoaded {
		return types.Shard{}, false
	}
	return d.slot.shard, true
}

// Snapshot returns the current state of the shard slot.
func (d *Dummy) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := Snapshot{State: d.slot.state, Loads: d.loads}
	if d.slot.state != StateUnloaded {
		sh := d.slot.shard
		s.Shard = &sh
	}
	return s
}

func (d *Dummy) computeLatency() time.Duration {
	d.rngMu.Lock()
	n := d.rng.NormFloat64()
	d.rngMu.Unlock()
	lat := time.Duration(float64(d.cfg.LatencyMean) + n*float64(d.cfg.LatencyStddev))
	if lat < 0 {
		lat = 0
	}
	return lat
}

func (d *Dummy) currentPublisher() EventPublisher {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.publisher
}

// sleepCtx waits for dur or until ctx is done.
func sleepCtx(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
