package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reconciler чистит осиротевшие ключи сеток по всем структурам
type Reconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	reconciler Reconciler
	interval   time.Duration
	logger     *zap.Logger
	stopChan   chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewScheduler создаёт новый планировщик. interval <= 0 отключает сверку.
func NewScheduler(reconciler Reconciler, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		interval:   interval,
		logger:     logger,
		stopChan:   make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Timetable reconciliation disabled")
		return
	}
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.runReconcileTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

// runReconcileTask периодически чистит сетки от ключей, которых больше нет в структурах
func (s *Scheduler) runReconcileTask(ctx context.Context) {
	defer s.wg.Done()

	// Первый запуск сразу при старте
	s.reconcile(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reconcile(ctx)
		case <-s.stopChan:
			s.logger.Info("Reconcile task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Reconcile task cancelled")
			return
		}
	}
}

func (s *Scheduler) reconcile(ctx context.Context) {
	start := time.Now()
	pruned, err := s.reconciler.ReconcileAll(ctx)
	if err != nil {
		s.logger.Error("Failed to reconcile timetables", zap.Error(err))
		return
	}
	s.logger.Info("Timetable reconciliation completed",
		zap.Int("pruned_cells", pruned),
		zap.Duration("took", time.Since(start)))
}
