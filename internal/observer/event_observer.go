package observer

import (
	"context"
	"sync"
	"time"

	"go-emotion-inspector/pkg/models"

	"github.com/sirupsen/logrus"
)

// AnalysisEvent represents an analysis event
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	Modality       models.Modality        `json:"modality"`
	Source         string                 `json:"source,omitempty"`
	ResultID       string                 `json:"result_id,omitempty"`
	Emotion        models.Emotion         `json:"emotion"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when analysis begins
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when analysis finishes successfully
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when analysis fails
	AnalysisFailed EventType = "analysis_failed"
	// ImageFetched when image is successfully fetched
	ImageFetched EventType = "image_fetched"
	// ImageFetchFailed when image fetch fails
	ImageFetchFailed EventType = "image_fetch_failed"
	// ResultStoreFailed when a finished result could not be saved
	ResultStoreFailed EventType = "result_store_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"modality":        event.Modality,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}

	if event.Source != "" {
		fields["source"] = event.Source
	}
	if event.ResultID != "" {
		fields["result_id"] = event.ResultID
	}
	if event.EventType == AnalysisCompleted {
		fields["emotion"] = event.Emotion.String()
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Debug("Emotion analysis started")
	case AnalysisCompleted:
		entry.Info("Emotion analysis completed")
	case AnalysisFailed:
		entry.Error("Emotion analysis failed")
	case ImageFetched:
		entry.Debug("Image fetched successfully")
	case ImageFetchFailed:
		entry.Error("Image fetch failed")
	case ResultStoreFailed:
		entry.Warn("Analysis result could not be stored")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects metrics from analysis events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalAnalyses       int64
	successfulAnalyses  int64
	failedAnalyses      int64
	totalProcessingTime time.Duration
	byModality          map[models.Modality]int64
	byEmotion           map[models.Emotion]int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		byModality: make(map[models.Modality]int64),
		byEmotion:  make(map[models.Emotion]int64),
	}
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.totalAnalyses++
		o.byModality[event.Modality]++
	case AnalysisCompleted:
		o.successfulAnalyses++
		o.totalProcessingTime += event.ProcessingTime
		o.byEmotion[event.Emotion]++
	case AnalysisFailed:
		o.failedAnalyses++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successfulAnalyses > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulAnalyses)
	}

	modalities := make(map[string]int64, len(o.byModality))
	for m, n := range o.byModality {
		modalities[string(m)] = n
	}
	emotions := make(map[string]int64, len(o.byEmotion))
	for e, n := range o.byEmotion {
		emotions[e.String()] = n
	}

	return map[string]interface{}{
		"total_analyses":        o.totalAnalyses,
		"successful_analyses":   o.successfulAnalyses,
		"failed_analyses":       o.failedAnalyses,
		"total_processing_time": o.totalProcessingTime,
		"avg_processing_time":   avgProcessingTime,
		"by_modality":           modalities,
		"by_emotion":            emotions,
	}
}

// EventBus implements the Subject interface
type EventBus struct {
	mu        sync.RWMutex
	observers []Observer
	pending   sync.WaitGroup
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (b *EventBus) Subscribe(observer Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, observer)
}

// Unsubscribe removes an observer
func (b *EventBus) Unsubscribe(observer Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, obs := range b.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			b.observers = append(b.observers[:i], b.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (b *EventBus) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	observers := make([]Observer, len(b.observers))
	copy(observers, b.observers)
	b.mu.RUnlock()

	// Observers run detached from the request so a cancelled request still
	// gets its failure logged
	ctx = context.WithoutCancel(ctx)

	// Notify observers concurrently
	for _, observer := range observers {
		b.pending.Add(1)
		go func(obs Observer) {
			defer b.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until every dispatched event has been handled
func (b *EventBus) Wait() {
	b.pending.Wait()
}
