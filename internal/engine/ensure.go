package engine

import (
	"context"
	"time"

	"shardsim/pkg/types"
)

// EnsureShard makes shard the loaded shard. If it already is, this is a no-op.
// Otherwise the engine waits LoadDelay to simulate reading weights, then
// adopts shard. Concurrent calls are serialized, so two requests for
// different shards load one after the other and the later one wins.
// If ctx ends while queued or during the wait the previous state is kept.
func (d *Dummy) EnsureShard(ctx context.Context, shard types.Shard) error {
	if err := shard.Validate(); err != nil {
		return invalidShardError{err: err}
	}

	// Take a free slot without racing ctx; only queued callers give up early.
	select {
	case d.loadSem <- struct{}{}:
	default:
		select {
		case d.loadSem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	defer func() { <-d.loadSem }()

	d.mu.Lock()
	if d.slot.loadedFor(shard) {
		d.mu.Unlock()
		return nil
	}
	prev := d.slot
	d.slot = prev.beginLoad(shard)
	pub := d.publisher
	d.mu.Unlock()

	startTs := time.Now()
	pub.Publish(Event{Name: EventLoadStart, Shard: shard.String(), Fields: map[string]any{"model": shard.ModelID}})

	if err := sleepCtx(ctx, d.cfg.LoadDelay); err != nil {
		d.mu.Lock()
		d.slot = prev
		d.mu.Unlock()
		d.log.Warn().Str("shard", shard.String()).Err(err).Msg("simulated shard load canceled")
		pub.Publish(Event{Name: EventLoadCanceled, Shard: shard.String(), Fields: map[string]any{"error": err.Error()}})
		return err
	}

	d.mu.Lock()
	d.slot = d.slot.commit()
	d.loads++
	d.mu.Unlock()

	dur := time.Since(startTs)
	d.metrics.observeLoad(shard.ModelID, dur)
	d.log.Info().
		Str("shard", shard.String()).
		Str("model", shard.ModelID).
		Dur("dur", dur).
		Msg("simulated loading of shard")
	pub.Publish(Event{Name: EventLoadReady, Shard: shard.String(), Fields: map[string]any{"dur_ms": int(dur / time.Millisecond)}})
	return nil
}
