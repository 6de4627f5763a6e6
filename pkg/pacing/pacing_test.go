package pacing

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFromBase(t *testing.T) {
	tests := []struct {
		name        string
		base        time.Duration
		wantFailure time.Duration
		wantSkip    time.Duration
	}{
		{"stock delay", 15 * time.Second, 7 * time.Second, 3 * time.Second},
		{"even delay", 20 * time.Second, 10 * time.Second, 5 * time.Second},
		{"sub second", 400 * time.Millisecond, 200 * time.Millisecond, 100 * time.Millisecond},
		{"zero", 0, 0, 0},
		{"negative clamps", -time.Second, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := FromBase(tt.base)
			if s.AfterFailure != tt.wantFailure {
				t.Errorf("AfterFailure = %v, want %v", s.AfterFailure, tt.wantFailure)
			}
			if s.AfterSkip != tt.wantSkip {
				t.Errorf("AfterSkip = %v, want %v", s.AfterSkip, tt.wantSkip)
			}
			if s.Settle != DefaultSettle {
				t.Errorf("Settle = %v, want %v", s.Settle, DefaultSettle)
			}
		})
	}
}

func TestDefaultSchedule(t *testing.T) {
	s := DefaultSchedule()
	want := Schedule{Between: 15 * time.Second, AfterFailure: 7 * time.Second, AfterSkip: 3 * time.Second, Settle: 5 * time.Second}
	if s != want {
		t.Errorf("DefaultSchedule() = %+v, want %+v", s, want)
	}
}

func TestWait(t *testing.T) {
	start := time.Now()
	if err := Wait(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Wait returned after %v, expected at least 20ms", elapsed)
	}
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Wait(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Wait did not return promptly after cancellation")
	}
}

func TestWaitZeroOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Wait(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait(0) on cancelled ctx = %v, want context.Canceled", err)
	}
}

func TestRecordingPacer(t *testing.T) {
	var p RecordingPacer
	ctx := context.Background()
	_ = p.Pause(ctx, time.Second)
	_ = p.Pause(ctx, 3*time.Second)

	got := p.Pauses()
	if len(got) != 2 || got[0] != time.Second || got[1] != 3*time.Second {
		t.Errorf("Pauses() = %v", got)
	}
	if p.Total() != 4*time.Second {
		t.Errorf("Total() = %v, want 4s", p.Total())
	}
}
