package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/meshbridge/internal/codec"
	"github.com/bft-labs/meshbridge/internal/domain"
	"github.com/bft-labs/meshbridge/internal/ports"
)

// Scheduler selects how the bridge interleaves its three duties.
type Scheduler string

const (
	// SchedulerSequential runs poll mesher, send one frame, poll LMIC in a
	// single loop. The throttle pause delays reading both links.
	SchedulerSequential Scheduler = "sequential"

	// SchedulerConcurrent runs mesher intake, transmission and LMIC replies
	// in separate goroutines. The throttle only delays transmission.
	SchedulerConcurrent Scheduler = "concurrent"
)

// DefaultPollInterval is how long an idle cycle waits before polling again.
const DefaultPollInterval = 10 * time.Millisecond

// BridgeConfig contains configuration for the bridge loop.
type BridgeConfig struct {
	ChunkSize        int
	ThrottleInterval time.Duration
	PollInterval     time.Duration
	Scheduler        Scheduler
}

// FrameEventEmitter is notified as lines and frames move through the bridge.
type FrameEventEmitter interface {
	OnFrameQueued(dest domain.Address, frames int)
	OnFrameSent(frame domain.Frame)
	OnReplyForwarded(n int)
	OnParseError(link, line string, err error)
}

// Stats is a snapshot of bridge counters.
type Stats struct {
	MesherLines      int64
	LMICLines        int64
	CommandsAccepted int64
	ParseErrors      int64
	FramesQueued     int64
	FramesSent       int64
	RepliesForwarded int64
	QueueDepth       int
	QueuePeak        int
}

type counters struct {
	mesherLines      atomic.Int64
	lmicLines        atomic.Int64
	commandsAccepted atomic.Int64
	parseErrors      atomic.Int64
	framesQueued     atomic.Int64
	framesSent       atomic.Int64
	repliesForwarded atomic.Int64
}

// Bridge moves DATA commands from the mesher to the LMIC modem as frames and
// RETURN replies from the modem back to the mesher.
type Bridge struct {
	config    BridgeConfig
	mesher    ports.Link
	lmic      ports.Link
	logger    ports.Logger
	mesherLog ports.Logger
	lmicLog   ports.Logger
	emitter   FrameEventEmitter
	encoder   *codec.Encoder
	queue     *Queue
	throttle  *Throttle
	stats     counters
}

// NewBridge creates a bridge between the two links. The bridge does not own
// the links; the caller closes them after Run returns.
func NewBridge(
	config BridgeConfig,
	mesher ports.Link,
	lmic ports.Link,
	logger ports.Logger,
	emitter FrameEventEmitter,
) (*Bridge, error) {
	if config.ChunkSize == 0 {
		config.ChunkSize = codec.DefaultChunkSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.Scheduler == "" {
		config.Scheduler = SchedulerSequential
	}
	switch config.Scheduler {
	case SchedulerSequential, SchedulerConcurrent:
	default:
		return nil, fmt.Errorf("%w: unknown scheduler %q", domain.ErrInvalidConfig, config.Scheduler)
	}

	encoder, err := codec.NewEncoder(config.ChunkSize)
	if err != nil {
		return nil, err
	}

	return &Bridge{
		config:    config,
		mesher:    mesher,
		lmic:      lmic,
		logger:    logger,
		mesherLog: logger.With(ports.String("link", mesher.Name())),
		lmicLog:   logger.With(ports.String("link", lmic.Name())),
		emitter:   emitter,
		encoder:   encoder,
		queue:     NewQueue(),
		throttle:  NewThrottle(config.ThrottleInterval),
	}, nil
}

// Run executes the bridge until the context is cancelled or a link fails.
// It returns ctx.Err() on cancellation and a *domain.TransportError on link
// failure. Frames still queued at that point are discarded.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.Info("bridge running",
		ports.String("mesher", b.mesher.Name()),
		ports.String("lmic", b.lmic.Name()),
		ports.String("scheduler", string(b.config.Scheduler)),
		ports.Int("chunk_size", b.encoder.ChunkSize()),
		ports.Duration("throttle", b.throttle.Interval()),
	)

	var err error
	if b.config.Scheduler == SchedulerConcurrent {
		err = b.runConcurrent(ctx)
	} else {
		err = b.runSequential(ctx)
	}

	if n := b.queue.Len(); n > 0 {
		b.logger.Warn("discarding queued frames", ports.Int("frames", n))
	}
	return err
}

// runSequential is one loop: mesher intake, one transmission, LMIC reply.
func (b *Bridge) runSequential(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		busy := false

		if b.mesher.Pending() {
			busy = true
			if err := b.handleMesherLine(); err != nil {
				return err
			}
		}

		sent, err := b.transmitOne()
		if err != nil {
			return err
		}
		if sent {
			busy = true
			if err := b.throttle.Wait(ctx); err != nil {
				return err
			}
		}

		if b.lmic.Pending() {
			busy = true
			if err := b.handleLMICLine(); err != nil {
				return err
			}
		}

		if !busy {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.config.PollInterval):
			}
		}
	}
}

// runConcurrent runs each duty in its own goroutine. The first failure stops
// the others.
func (b *Bridge) runConcurrent(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	loops := []func(context.Context) error{
		func(ctx context.Context) error { return b.pollLoop(ctx, b.mesher, b.handleMesherLine) },
		b.transmitLoop,
		func(ctx context.Context) error { return b.pollLoop(ctx, b.lmic, b.handleLMICLine) },
	}

	errCh := make(chan error, len(loops))
	var wg sync.WaitGroup
	for _, loop := range loops {
		wg.Add(1)
		go func(loop func(context.Context) error) {
			defer wg.Done()
			err := loop(runCtx)
			cancel()
			errCh <- err
		}(loop)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return ctx.Err()
}

func (b *Bridge) pollLoop(ctx context.Context, link ports.Link, handle func() error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if link.Pending() {
			if err := handle(); err != nil {
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.config.PollInterval):
		}
	}
}

// transmitLoop is the only consumer of the queue, so one frame is written
// per throttle interval.
func (b *Bridge) transmitLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sent, err := b.transmitOne()
		if err != nil {
			return err
		}
		if sent {
			if err := b.throttle.Wait(ctx); err != nil {
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.queue.Ready():
		}
	}
}

// handleMesherLine reads one mesher line and queues its frames if it is a
// DATA command. Parse failures are logged; only link errors are returned.
func (b *Bridge) handleMesherLine() error {
	raw, err := b.mesher.ReadLine()
	if err != nil {
		return err
	}
	b.stats.mesherLines.Add(1)

	line := decodeLine(raw)
	b.mesherLog.Info("rx", ports.String("line", line))

	cmd, err := codec.ParseCommand(line)
	if err != nil {
		if errors.Is(err, domain.ErrNotCommand) {
			return nil
		}
		b.parseError(b.mesher.Name(), b.mesherLog, line, err)
		return nil
	}

	frames := b.encoder.Encode(cmd.Payload, cmd.Dest)
	b.queue.Enqueue(frames...)
	b.stats.commandsAccepted.Add(1)
	b.stats.framesQueued.Add(int64(len(frames)))

	for _, f := range frames {
		b.mesherLog.Info("queued frame",
			ports.Stringer("dest", cmd.Dest),
			ports.Bytes("frame", f),
		)
	}
	if b.emitter != nil {
		b.emitter.OnFrameQueued(cmd.Dest, len(frames))
	}
	return nil
}

// transmitOne writes the oldest queued frame to the LMIC link.
func (b *Bridge) transmitOne() (bool, error) {
	f, ok := b.queue.Dequeue()
	if !ok {
		return false, nil
	}

	if err := b.lmic.Write(f.Wire()); err != nil {
		return false, err
	}
	b.stats.framesSent.Add(1)

	b.lmicLog.Info("sent frame",
		ports.Bytes("frame", f),
		ports.Int("queued", b.queue.Len()),
	)
	if b.emitter != nil {
		b.emitter.OnFrameSent(f)
	}
	return true, nil
}

// handleLMICLine reads one LMIC line and forwards RETURN payloads to the mesher.
func (b *Bridge) handleLMICLine() error {
	raw, err := b.lmic.ReadLine()
	if err != nil {
		return err
	}
	b.stats.lmicLines.Add(1)

	line := decodeLine(raw)
	b.lmicLog.Info("rx", ports.String("line", line))

	reply, err := codec.ParseReply(line)
	if err != nil {
		if errors.Is(err, domain.ErrNotCommand) {
			return nil
		}
		b.parseError(b.lmic.Name(), b.lmicLog, line, err)
		return nil
	}

	if err := b.mesher.Write(domain.WithTerminator(reply)); err != nil {
		return err
	}
	b.stats.repliesForwarded.Add(1)

	b.mesherLog.Info("returned to mesher", ports.Bytes("data", reply))
	if b.emitter != nil {
		b.emitter.OnReplyForwarded(len(reply))
	}
	return nil
}

func (b *Bridge) parseError(link string, logger ports.Logger, line string, err error) {
	b.stats.parseErrors.Add(1)
	logger.Warn("parse error", ports.String("line", line), ports.Err(err))
	if b.emitter != nil {
		b.emitter.OnParseError(link, line, err)
	}
}

// SetThrottleInterval changes the pause between transmissions while running.
func (b *Bridge) SetThrottleInterval(d time.Duration) {
	prev := b.throttle.Interval()
	b.throttle.SetInterval(d)
	if prev != d {
		b.logger.Info("throttle interval changed",
			ports.Duration("from", prev),
			ports.Duration("to", d),
		)
	}
}

// ThrottleInterval returns the current pause between transmissions.
func (b *Bridge) ThrottleInterval() time.Duration {
	return b.throttle.Interval()
}

// Stats returns a snapshot of the counters. Safe to call from any goroutine.
func (b *Bridge) Stats() Stats {
	return Stats{
		MesherLines:      b.stats.mesherLines.Load(),
		LMICLines:        b.stats.lmicLines.Load(),
		CommandsAccepted: b.stats.commandsAccepted.Load(),
		ParseErrors:      b.stats.parseErrors.Load(),
		FramesQueued:     b.stats.framesQueued.Load(),
		FramesSent:       b.stats.framesSent.Load(),
		RepliesForwarded: b.stats.repliesForwarded.Load(),
		QueueDepth:       b.queue.Len(),
		QueuePeak:        b.queue.Peak(),
	}
}

// decodeLine turns raw link bytes into text, dropping invalid UTF-8 and
// surrounding whitespace.
func decodeLine(raw []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(raw), ""))
}
