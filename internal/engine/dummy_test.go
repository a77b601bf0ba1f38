package engine

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"shardsim/internal/tokenizer"
	"shardsim/pkg/types"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	for _, p := range []string{"hello world", "shard 3 of 4, ok?", ""} {
		toks, err := e.Encode(ctx, shard(0, 3, 8), p)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		// shard is irrelevant to tokenization
		got, err := e.Decode(ctx, shard(4, 7, 8), toks)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got != p {
			t.Fatalf("round trip: got %q want %q", got, p)
		}
	}
}

func TestSample_EOSFrequencyAndRange(t *testing.T) {
	e := newTestEngine(t)
	const trials = 20000
	eos := 0
	for i := 0; i < trials; i++ {
		out, err := e.Sample(context.Background(), types.Tensor{})
		if err != nil {
			t.Fatalf("sample: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("expected one token, got %v", out)
		}
		if out[0] == 0 {
			eos++
			continue
		}
		if out[0] < 1 || out[0] >= 1000 {
			t.Fatalf("token %d out of [1, 1000)", out[0])
		}
	}
	freq := float64(eos) / trials
	if freq < 0.08 || freq > 0.12 {
		t.Fatalf("eos frequency %.4f not close to 0.1", freq)
	}
}

func TestSample_SeededIsDeterministic(t *testing.T) {
	a := New(Config{}, WithRand(rand.New(rand.NewSource(7))))
	b := New(Config{}, WithRand(rand.New(rand.NewSource(7))))
	for i := 0; i < 100; i++ {
		x, _ := a.Sample(context.Background(), types.Tensor{})
		y, _ := b.Sample(context.Background(), types.Tensor{})
		if x[0] != y[0] {
			t.Fatalf("draw %d differs: %d vs %d", i, x[0], y[0])
		}
	}
}

func TestSample_EOSDisabled(t *testing.T) {
	e := New(Config{EOSProbability: -1, VocabSize: 3}, WithRand(rand.New(rand.NewSource(1))))
	for i := 0; i < 500; i++ {
		out, _ := e.Sample(context.Background(), types.Tensor{})
		if out[0] != 1 && out[0] != 2 {
			t.Fatalf("expected token in {1,2}, got %d", out[0])
		}
	}
}

func TestInferTensor_Shapes(t *testing.T) {
	cases := []struct {
		name  string
		shard types.Shard
		input types.Tensor
		want  []int
	}{
		{"last stage logits", shard(4, 7, 8), types.NewTensor(1, 7, 256), []int{1, 7, 1000}},
		{"middle stage hidden", shard(2, 5, 8), types.NewTensor(1, 7, 256), []int{1, 7, 256}},
		{"first stage reads dim 0", shard(0, 3, 8), types.TokensTensor([]int{1, 2, 3, 4, 5}), []int{1, 5, 256}},
		{"single stage", shard(0, 7, 8), types.TokensTensor([]int{9, 9, 9}), []int{1, 3, 1000}},
	}
	e := newTestEngine(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := e.InferTensor(context.Background(), "req-1", tc.shard, tc.input)
			if err != nil {
				t.Fatalf("InferTensor: %v", err)
			}
			if len(out.Shape) != len(tc.want) {
				t.Fatalf("shape %v want %v", out.Shape, tc.want)
			}
			for i := range tc.want {
				if out.Shape[i] != tc.want[i] {
					t.Fatalf("shape %v want %v", out.Shape, tc.want)
				}
			}
			if len(out.Data) != out.Numel() {
				t.Fatalf("data len %d != numel %d", len(out.Data), out.Numel())
			}
			for _, v := range out.Data {
				if v < 0 || v >= 1 {
					t.Fatalf("value %v outside [0,1)", v)
				}
			}
			if cur, ok := e.CurrentShard(); !ok || cur != tc.shard {
				t.Fatalf("current shard %+v ok=%v want %+v", cur, ok, tc.shard)
			}
		})
	}
}

func TestInferTensor_TrailingDimTracksLastStage(t *testing.T) {
	e := New(Config{VocabSize: 64, HiddenSize: 16, LoadDelay: -1}, WithRand(rand.New(rand.NewSource(3))))
	shards, err := types.PartitionLayers("m", 12, 4)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	in := types.NewTensor(1, 2, 16)
	for _, s := range shards {
		if s.IsFirstLayer() {
			continue
		}
		out, err := e.InferTensor(context.Background(), "r", s, in)
		if err != nil {
			t.Fatalf("infer %s: %v", s, err)
		}
		want := 16
		if s.IsLastLayer() {
			want = 64
		}
		if out.Shape[2] != want {
			t.Fatalf("%s: trailing dim %d want %d", s, out.Shape[2], want)
		}
	}
}

func TestInferTensor_ShapeMismatch(t *testing.T) {
	e := newTestEngine(t)
	bad := []types.Tensor{
		types.TokensTensor([]int{1, 2}),
		{Shape: []int{1, -3, 4}},
	}
	for _, in := range bad {
		_, err := e.InferTensor(context.Background(), "r", shard(4, 7, 8), in)
		if !IsShapeMismatch(err) {
			t.Fatalf("shape %v: expected shape mismatch, got %v", in.Shape, err)
		}
	}
	if _, err := e.InferTensor(context.Background(), "r", shard(0, 3, 8), types.Tensor{Shape: []int{-1}}); !IsShapeMismatch(err) {
		t.Fatalf("first stage: expected shape mismatch, got %v", err)
	}
}

func TestInferTensor_InvalidShard(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.InferTensor(context.Background(), "r", types.Shard{}, types.NewTensor(1, 1, 1))
	if !IsInvalidShard(err) {
		t.Fatalf("expected invalid shard error, got %v", err)
	}
	if s := e.Snapshot(); s.State != StateUnloaded || s.Loads != 0 {
		t.Fatalf("state changed on invalid shard: %+v", s)
	}
}

func TestInferTensor_SimulatedLatencyCanceled(t *testing.T) {
	e := New(Config{LoadDelay: -1, SimulateLatency: true, LatencyMean: 10 * time.Second, LatencyStddev: -1})
	s := shard(4, 7, 8)
	if err := e.EnsureShard(context.Background(), s); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := e.InferTensor(ctx, "r", s, types.NewTensor(1, 3, 256)); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

// eosOneTokenizer reserves id 1 for EOS instead of 0.
type eosOneTokenizer struct{ *tokenizer.Tokenizer }

func (eosOneTokenizer) EOSTokenID() int { return 1 }

func TestSample_SkipsNonZeroEOSOnRandomDraw(t *testing.T) {
	e := New(Config{EOSProbability: -1, VocabSize: 3},
		WithRand(rand.New(rand.NewSource(11))),
		WithTokenizer(eosOneTokenizer{tokenizer.New("")}))
	if e.EOSTokenID() != 1 {
		t.Fatalf("EOSTokenID=%d want 1", e.EOSTokenID())
	}
	for i := 0; i < 500; i++ {
		out, _ := e.Sample(context.Background(), types.Tensor{})
		if out[0] != 2 {
			t.Fatalf("expected only token 2 when EOS=1 is excluded, got %d", out[0])
		}
	}
}

func TestSample_Greedy(t *testing.T) {
	e := New(Config{Greedy: true, VocabSize: 5, LoadDelay: -1})
	logits := types.NewTensor(1, 2, 5)
	logits.Data[1] = 9 // first position, ignored
	logits.Data[8] = 3 // last position, id 3
	out, err := e.Sample(context.Background(), logits)
	if err != nil || len(out) != 1 || out[0] != 3 {
		t.Fatalf("greedy sample=%v err=%v want [3]", out, err)
	}

	eos := types.NewTensor(1, 1, 5)
	eos.Data[0] = 1
	if out, _ := e.Sample(context.Background(), eos); out[0] != e.EOSTokenID() {
		t.Fatalf("expected EOS when logits peak at id 0, got %v", out)
	}
	if _, err := e.Sample(context.Background(), types.Tensor{}); !IsShapeMismatch(err) {
		t.Fatalf("expected shape mismatch on empty logits, got %v", err)
	}
}

func TestSample_GreedyFollowsInferTensor(t *testing.T) {
	e := New(Config{Greedy: true, VocabSize: 50, LoadDelay: -1}, WithRand(rand.New(rand.NewSource(4))))
	logits, err := e.InferTensor(context.Background(), "r", shard(0, 7, 8), types.TokensTensor([]int{1, 2, 3}))
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	want, _ := logits.ArgmaxLast()
	got, err := e.Sample(context.Background(), logits)
	if err != nil || got[0] != want {
		t.Fatalf("sample=%v err=%v want [%d]", got, err, want)
	}
}
