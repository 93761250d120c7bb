package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mpetrie/pressmill/app/analytics"
	"github.com/mpetrie/pressmill/app/cfg"
	"github.com/mpetrie/pressmill/app/content"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	configCache *content.ConfigCache
	cache       *content.Cache
	extractor   *content.Extractor
	analytics   *analytics.Client
	httpClient  *http.Client
	userAgent   string
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(configCache *content.ConfigCache, cache *content.Cache,
	extractor *content.Extractor, analyticsClient *analytics.Client, httpClient *http.Client) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		configCache: configCache,
		cache:       cache,
		extractor:   extractor,
		analytics:   analyticsClient,
		httpClient:  httpClient,
		userAgent:   cfg.UserAgent,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueTasks() {
	configs := s.configCache.GetEnabledConfigs()
	if len(configs) == 0 {
		slog.Debug("No enabled content type configurations found")
		return
	}

	slog.Debug("Scheduling content tasks", "count", len(configs))

	for _, config := range configs {
		rebuildTask := NewRebuildContentTask(config.Type, config, s.cache)
		if err := s.EnqueueTask(rebuildTask); err != nil {
			slog.Warn("Failed to enqueue RebuildContentTask", "content_type", config.Type, "error", err)
			continue
		}

		if config.Settings.ExtractExternal {
			extractTask := NewExtractExternalTask(config.Type, config, s.httpClient, s.extractor, s.cache, s.userAgent)
			if err := s.EnqueueTask(extractTask); err != nil {
				slog.Warn("Failed to enqueue ExtractExternalTask", "content_type", config.Type, "error", err)
			}
		}

		if s.analytics.Enabled() {
			warmTask := NewWarmViewsTask(config.Type, s.cache, s.analytics)
			if err := s.EnqueueTask(warmTask); err != nil {
				slog.Warn("Failed to enqueue WarmViewsTask", "content_type", config.Type, "error", err)
			}
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "content_type", task.GetContentType(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			// Tracked in the WaitGroup so Stop cannot close the queue
			// while a retry enqueue is still pending.
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				case <-time.After(retryDelay):
				}
				if retryErr := s.EnqueueTask(task); retryErr != nil {
					slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
