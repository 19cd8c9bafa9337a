package service

import (
	"sync"

	"github.com/noah-isme/records-panel/internal/models"
)

// Notifier receives user-facing notifications.
type Notifier interface {
	Notify(models.Notification)
}

// Surface is where a panel renders. Implementations must not block.
type Surface interface {
	Notifier
	PublishFilters(models.FilterBarView)
	PublishTable(models.TableView)
	PublishModal(models.ModalView)
	PublishChart(models.ChartData)
}

// Surface event names, shared with the browser script.
const (
	EventNotification = "notification"
	EventFilters      = "filters"
	EventTable        = "table"
	EventModal        = "modal"
	EventChart        = "chart"
)

// SurfaceEvent is one frame pushed to a subscriber.
type SurfaceEvent struct {
	Name string
	Data interface{}
}

// EventSource is implemented by surfaces that can be streamed.
type EventSource interface {
	Subscribe() (<-chan SurfaceEvent, func())
}

func notifyError(n Notifier, message string) {
	n.Notify(models.Notification{Level: models.NotificationError, Message: message, Duration: models.DefaultNotificationDuration})
}

func notifySuccess(n Notifier, message string) {
	n.Notify(models.Notification{Level: models.NotificationSuccess, Message: message, Duration: models.DefaultNotificationDuration})
}

func notifyWarning(n Notifier, message string) {
	n.Notify(models.Notification{Level: models.NotificationWarning, Message: message, Duration: models.DefaultNotificationDuration})
}

const defaultBacklog = 16

var replayOrder = []string{EventFilters, EventTable, EventModal, EventChart}

// StreamSurface fans views out to SSE subscribers. It remembers the latest
// view of each kind and replays it to new subscribers; notifications raised
// while nobody listens are kept in a bounded backlog and flushed to the next
// subscriber. Slow subscribers lose frames instead of blocking the panel.
type StreamSurface struct {
	buffer  int
	metrics *MetricsService

	mu      sync.Mutex
	subs    map[chan SurfaceEvent]struct{}
	latest  map[string]SurfaceEvent
	backlog []models.Notification
}

// NewStreamSurface constructs a surface with per-subscriber buffer size.
func NewStreamSurface(buffer int, metrics *MetricsService) *StreamSurface {
	if buffer <= 0 {
		buffer = 32
	}
	return &StreamSurface{
		buffer:  buffer,
		metrics: metrics,
		subs:    make(map[chan SurfaceEvent]struct{}),
		latest:  make(map[string]SurfaceEvent),
	}
}

// Subscribe registers a stream. The returned func unsubscribes and closes it.
func (s *StreamSurface) Subscribe() (<-chan SurfaceEvent, func()) {
	ch := make(chan SurfaceEvent, s.buffer+defaultBacklog+len(replayOrder))

	s.mu.Lock()
	for _, name := range replayOrder {
		if ev, ok := s.latest[name]; ok {
			ch <- ev
		}
	}
	for _, n := range s.backlog {
		ch <- SurfaceEvent{Name: EventNotification, Data: n}
	}
	s.backlog = nil
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	s.metrics.AddSSESubscribers(1)

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; !ok {
			return
		}
		delete(s.subs, ch)
		close(ch)
		s.metrics.AddSSESubscribers(-1)
	}
}

// Close disconnects every subscriber.
func (s *StreamSurface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
		s.metrics.AddSSESubscribers(-1)
	}
}

// Notify implements Notifier.
func (s *StreamSurface) Notify(n models.Notification) {
	s.metrics.CountNotification(string(n.Level))
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) == 0 {
		s.backlog = append(s.backlog, n)
		if len(s.backlog) > defaultBacklog {
			s.backlog = s.backlog[len(s.backlog)-defaultBacklog:]
		}
		return
	}
	s.broadcastLocked(SurfaceEvent{Name: EventNotification, Data: n})
}

// PublishFilters implements Surface.
func (s *StreamSurface) PublishFilters(v models.FilterBarView) { s.publish(EventFilters, v) }

// PublishTable implements Surface.
func (s *StreamSurface) PublishTable(v models.TableView) { s.publish(EventTable, v) }

// PublishModal implements Surface.
func (s *StreamSurface) PublishModal(v models.ModalView) { s.publish(EventModal, v) }

// PublishChart implements Surface.
func (s *StreamSurface) PublishChart(v models.ChartData) { s.publish(EventChart, v) }

func (s *StreamSurface) publish(name string, data interface{}) {
	ev := SurfaceEvent{Name: name, Data: data}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[name] = ev
	s.broadcastLocked(ev)
}

func (s *StreamSurface) broadcastLocked(ev SurfaceEvent) {
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
