package queuemonitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/meshbridge/pkg/log"
	"github.com/bft-labs/meshbridge/pkg/meshbridge"
)

// recordingLogger counts warnings and infos.
type recordingLogger struct {
	log.NoopLogger
	mu    sync.Mutex
	warns []string
	infos []string
}

func (l *recordingLogger) Warn(msg string, fields ...log.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) Info(msg string, fields ...log.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) With(fields ...log.Field) log.Logger { return l }

func (l *recordingLogger) count(msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range append(append([]string(nil), l.warns...), l.infos...) {
		if m == msg {
			n++
		}
	}
	return n
}

type depthSource struct {
	mu    sync.Mutex
	depth int
}

func (d *depthSource) set(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.depth = n
}

func (d *depthSource) stats() meshbridge.Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return meshbridge.Stats{QueueDepth: d.depth, QueuePeak: d.depth}
}

func TestPlugin_CheckTransitions(t *testing.T) {
	logger := &recordingLogger{}
	src := &depthSource{}

	p := New(Config{HighWater: 3, Interval: time.Hour})
	if err := p.Initialize(context.Background(), meshbridge.PluginConfig{Logger: logger, Stats: src.stats}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer p.Shutdown(context.Background())

	steps := []struct {
		depth int
		above bool
	}{
		{0, false},
		{3, false},
		{4, true},
		{9, true},
		{3, false},
		{1, false},
	}
	for _, s := range steps {
		src.set(s.depth)
		p.check()
		if p.Above() != s.above {
			t.Errorf("depth %d: Above() = %v, want %v", s.depth, p.Above(), s.above)
		}
	}

	if n := logger.count("frame queue above high water"); n != 1 {
		t.Errorf("high water warnings = %d, want 1", n)
	}
	if n := logger.count("frame queue recovered"); n != 1 {
		t.Errorf("recovery logs = %d, want 1", n)
	}
}

func TestPlugin_SamplesPeriodically(t *testing.T) {
	logger := &recordingLogger{}
	src := &depthSource{}
	src.set(10)

	p := New(Config{HighWater: 5, Interval: 5 * time.Millisecond})
	if err := p.Initialize(context.Background(), meshbridge.PluginConfig{Logger: logger, Stats: src.stats}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !p.Above() {
		if time.Now().After(deadline) {
			t.Fatal("monitor never sampled the queue")
		}
		time.Sleep(time.Millisecond)
	}

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestPlugin_DisabledWithoutStats(t *testing.T) {
	logger := &recordingLogger{}
	p := New(DefaultConfig())

	if err := p.Initialize(context.Background(), meshbridge.PluginConfig{Logger: logger}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
	if n := logger.count("queue monitor disabled: no stats source"); n != 1 {
		t.Errorf("disabled warning logged %d times", n)
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(Config{})
	if p.highWater != 50 || p.interval != 5*time.Second {
		t.Errorf("defaults = %d, %v", p.highWater, p.interval)
	}
	if p.Name() != "queuemonitor" {
		t.Errorf("Name() = %v, want queuemonitor", p.Name())
	}
}
