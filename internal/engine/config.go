package engine

import "time"

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultVocabSize      = 1000
	DefaultHiddenSize     = 256
	DefaultEOSProbability = 0.1
	DefaultLoadDelay      = 100 * time.Millisecond
	DefaultLatencyMean    = 100 * time.Millisecond
	DefaultLatencyStddev  = 20 * time.Millisecond
)

// Config holds the engine tunables. Zero values select the defaults above.
// A negative LoadDelay or EOSProbability disables the delay or the EOS draw.
type Config struct {
	VocabSize      int
	HiddenSize     int
	EOSProbability float64
	LoadDelay      time.Duration
	// Simulated compute latency per InferTensor call, drawn from
	// Normal(LatencyMean, LatencyStddev). Only applied when SimulateLatency is set.
	SimulateLatency bool
	LatencyMean     time.Duration
	LatencyStddev   time.Duration
	// Greedy makes Sample pick the argmax of the logits instead of a random id.
	Greedy bool
	// Seed for the default random source; 0 seeds from the clock.
	Seed int64
}

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.VocabSize <= 1 {
		c.VocabSize = DefaultVocabSize
	}
	if c.HiddenSize <= 0 {
		c.HiddenSize = DefaultHiddenSize
	}
	switch {
	case c.EOSProbability == 0:
		c.EOSProbability = DefaultEOSProbability
	case c.EOSProbability < 0:
		c.EOSProbability = 0
	case c.EOSProbability > 1:
		c.EOSProbability = 1
	}
	switch {
	case c.LoadDelay == 0:
		c.LoadDelay = DefaultLoadDelay
	case c.LoadDelay < 0:
		c.LoadDelay = 0
	}
	if c.LatencyMean <= 0 {
		c.LatencyMean = DefaultLatencyMean
	}
	if c.LatencyStddev < 0 {
		c.LatencyStddev = 0
	} else if c.LatencyStddev == 0 {
		c.LatencyStddev = DefaultLatencyStddev
	}
	return c
}
