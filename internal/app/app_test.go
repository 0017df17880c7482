package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-telegram/bot"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/Freeeeeet/school_timetable/internal/config"
	"github.com/Freeeeeet/school_timetable/internal/controller"
	"github.com/Freeeeeet/school_timetable/internal/lock"
)

type countingReconciler struct {
	calls atomic.Int32
	err   error
}

func (r *countingReconciler) ReconcileAll(context.Context) (int, error) {
	r.calls.Add(1)
	return 2, r.err
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	r := &countingReconciler{}
	s := NewScheduler(r, 20*time.Millisecond, zaptest.NewLogger(t))

	s.Start(context.Background())
	require.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	n := r.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, r.calls.Load(), "no runs after Stop")
}

func TestScheduler_KeepsRunningAfterError(t *testing.T) {
	r := &countingReconciler{err: errors.New("db down")}
	s := NewScheduler(r, 10*time.Millisecond, zaptest.NewLogger(t))

	s.Start(context.Background())
	defer s.Stop()
	require.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_Disabled(t *testing.T) {
	r := &countingReconciler{}
	s := NewScheduler(r, 0, zaptest.NewLogger(t))

	s.Start(context.Background())
	s.Stop()
	assert.Zero(t, r.calls.Load())
}

func TestScheduler_ContextCancel(t *testing.T) {
	r := &countingReconciler{}
	s := NewScheduler(r, time.Hour, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Stop()
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		env, level string
		want       zapcore.Level
	}{
		{"development", "debug", zapcore.DebugLevel},
		{"production", "warn", zapcore.WarnLevel},
		{"production", "", zapcore.InfoLevel},
		{"development", "loud", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			logger := NewLogger(tt.env, tt.level)
			assert.True(t, logger.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.want-1))
			}
		})
	}
}

func memoryConfig() *config.Config {
	return &config.Config{
		Environment:       "development",
		StorageDriver:     config.StorageDriverMemory,
		HTTPAddr:          "127.0.0.1:0",
		LockTTL:           time.Second,
		LockWait:          time.Second,
		MaxWriteAttempts:  3,
		ReconcileInterval: time.Hour,
	}
}

func TestApp_MemoryRunAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := New(ctx, memoryConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close()
	assert.IsType(t, &lock.LocalLocker{}, a.locker)
	assert.Nil(t, a.bot)

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApp_ServerFailureStopsBot(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	var polls atomic.Int32
	tg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/getUpdates") {
			polls.Add(1)
			time.Sleep(10 * time.Millisecond)
			_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	defer tg.Close()

	cfg := memoryConfig()
	cfg.HTTPAddr = busy.Addr().String()
	logger := zaptest.NewLogger(t)

	a, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer a.Close()

	b, err := bot.New("123:test", bot.WithSkipGetMe(), bot.WithServerURL(tg.URL))
	require.NoError(t, err)
	a.bot = controller.NewBotController(b, a.coordinator, uuid.New(), logger)

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http server")
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the server failed")
	}

	// после выхода из Run бот больше не опрашивает Telegram
	stopped := polls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, stopped, polls.Load())
}

func TestApp_RedisLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.RedisAddr = mr.Addr()

	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close()
	assert.IsType(t, &lock.RedisLocker{}, a.locker)
}

func TestApp_RedisUnavailable(t *testing.T) {
	cfg := memoryConfig()
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}
