package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background content processing.
// Example usage:
//
//	scheduler := NewScheduler(configCache, cache, extractor, analyticsClient, httpClient)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewRebuildContentTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
