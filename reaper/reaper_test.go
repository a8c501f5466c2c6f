package reaper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/thejerf/abtime"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MrEthical07/sessionauth/session"
)

type sweepCall struct {
	cutoff time.Time
}

type fakeSweeper struct {
	mu       sync.Mutex
	failures int
	calls    chan sweepCall
}

func (f *fakeSweeper) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()

	f.calls <- sweepCall{cutoff: cutoff}
	if fail {
		return 0, errors.New("connection refused")
	}
	return 1, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newManualReaper(t *testing.T, s Sweeper, cfg Config, logs io.Writer) (*Reaper, *abtime.ManualTime) {
	t.Helper()
	manTime := abtime.NewManualAtTime(fixedNow)
	r, err := New(s, cfg,
		WithClock(manTime),
		WithLogger(slog.New(slog.NewTextHandler(logs, nil))),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return r, manTime
}

// start runs r until the test ends and returns once the ticker exists.
func start(t *testing.T, r *Reaper) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	r.sync <- struct{}{}

	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitSweep(t *testing.T, f *fakeSweeper) sweepCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("sweep never happened")
		return sweepCall{}
	}
}

func TestNewDefaults(t *testing.T) {
	r, _ := newManualReaper(t, &fakeSweeper{}, Config{TTL: time.Hour}, io.Discard)
	if r.Interval() != time.Hour {
		t.Fatalf("expected interval to default to TTL, got %v", r.Interval())
	}
	if want := fixedNow.Add(-2 * time.Hour); !r.Cutoff().Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, r.Cutoff())
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		s    Sweeper
		cfg  Config
	}{
		{"nil sweeper", nil, Config{TTL: time.Hour}},
		{"zero ttl", &fakeSweeper{}, Config{}},
		{"negative interval", &fakeSweeper{}, Config{TTL: time.Hour, Interval: -time.Second}},
		{"negative multiplier", &fakeSweeper{}, Config{TTL: time.Hour, CutoffMultiplier: -1}},
	}
	for _, tc := range cases {
		if _, err := New(tc.s, tc.cfg); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestRunSurvivesFailures(t *testing.T) {
	logs := &syncBuffer{}
	sweeper := &fakeSweeper{failures: 2, calls: make(chan sweepCall, 16)}
	r, manTime := newManualReaper(t, sweeper, Config{TTL: time.Hour, CutoffMultiplier: 3}, logs)
	start(t, r)

	want := fixedNow.Add(-3 * time.Hour)
	for i := 0; i < 3; i++ {
		manTime.Trigger(TickerID)
		call := waitSweep(t, sweeper)
		if !call.cutoff.Equal(want) {
			t.Fatalf("sweep %d: expected cutoff %v, got %v", i, want, call.cutoff)
		}
		// the loop only takes sync once the tick is fully handled
		r.sync <- struct{}{}
	}

	if got := strings.Count(logs.String(), "session sweep failed"); got != 2 {
		t.Fatalf("expected 2 warnings, got %d in %q", got, logs.String())
	}
	if !strings.Contains(logs.String(), "level=WARN") {
		t.Fatalf("expected warn level, got %q", logs.String())
	}
}

func TestRunDoesNotSweepAtStart(t *testing.T) {
	sweeper := &fakeSweeper{calls: make(chan sweepCall, 1)}
	r, _ := newManualReaper(t, sweeper, Config{TTL: time.Hour}, io.Discard)
	start(t, r)
	r.sync <- struct{}{}

	select {
	case <-sweeper.calls:
		t.Fatal("expected no sweep before the first tick")
	default:
	}
}

func TestRunCutoffFollowsClock(t *testing.T) {
	sweeper := &fakeSweeper{calls: make(chan sweepCall, 2)}
	r, manTime := newManualReaper(t, sweeper, Config{TTL: time.Hour}, io.Discard)
	start(t, r)

	manTime.Advance(3 * time.Hour)
	manTime.Trigger(TickerID)

	call := waitSweep(t, sweeper)
	if want := fixedNow.Add(time.Hour); !call.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, call.cutoff)
	}
}

func TestRunOnceAgainstSessionStore(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := session.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	rows := []session.Session{
		{ID: uuid.New(), AccountID: uuid.New(), ExpiresAt: fixedNow.Add(-3 * time.Hour)},
		{ID: uuid.New(), AccountID: uuid.New(), ExpiresAt: fixedNow.Add(-90 * time.Minute)},
		{ID: uuid.New(), AccountID: uuid.New(), ExpiresAt: fixedNow.Add(time.Hour)},
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	manTime := abtime.NewManualAtTime(fixedNow)
	store := session.NewStore(db, time.Hour, manTime)
	r, err := New(store, Config{TTL: time.Hour},
		WithClock(manTime),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	n, err := r.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected only the row dead for over 2h removed, got %d", n)
	}

	n, err = r.RunOnce(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected idempotent second sweep, got %d, %v", n, err)
	}
}
