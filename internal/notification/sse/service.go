// Package sse provides Server-Sent Events streams for queued valuations.
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/platform/logger"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventValuationCompleted EventType = "valuation_completed"
	EventValuationFailed    EventType = "valuation_failed"
)

// Event represents an SSE event payload
type Event struct {
	Type    EventType   `json:"type"`
	JobID   string      `json:"jobId"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// client represents a connected SSE client
type client struct {
	jobID  string
	events chan Event
}

// JobSource reads job state. Streams poll it so jobs run by another process
// still reach their subscribers.
type JobSource interface {
	ValuationJob(ctx context.Context, jobID string) (domain.Job, error)
}

// Service manages SSE connections per valuation job.
type Service struct {
	mu      sync.RWMutex
	clients map[string][]*client // jobID -> clients
	jobs    JobSource
	poll    time.Duration
	log     *logger.Logger
}

// New creates a new SSE service
func New(log *logger.Logger) *Service {
	return &Service{
		clients: make(map[string][]*client),
		poll:    2 * time.Second,
		log:     log,
	}
}

// WatchJobs makes streams poll jobs every interval in addition to pushed
// events.
func (s *Service) WatchJobs(jobs JobSource, interval time.Duration) {
	s.jobs = jobs
	if interval > 0 {
		s.poll = interval
	}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.jobID] = append(s.clients[c.jobID], c)
}

// removeClient unregisters a client. Its channel is closed unless Close
// already did so.
func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients, ok := s.clients[c.jobID]
	if !ok {
		return
	}
	for i, cl := range clients {
		if cl == c {
			s.clients[c.jobID] = append(clients[:i], clients[i+1:]...)
			close(c.events)
			break
		}
	}
	if len(s.clients[c.jobID]) == 0 {
		delete(s.clients, c.jobID)
	}
}

// Subscribers returns the number of clients watching a job.
func (s *Service) Subscribers(jobID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[jobID])
}

// Publish sends an event to every client watching event.JobID.
func (s *Service) Publish(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := s.clients[event.JobID]
	for _, c := range clients {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse buffer full", "jobId", event.JobID)
		}
	}
	s.log.Debug("sse event published", "type", event.Type, "jobId", event.JobID, "clients", len(clients))
}

// Handler streams the events of the job named by the :id path parameter
// until the client goes away or the job finishes.
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		if jobID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "job id is required"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{jobID: jobID, events: make(chan Event, 4)}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"jobId": jobID})
		c.Writer.Flush()

		var tick <-chan time.Time
		if s.jobs != nil {
			if s.pollJob(c, jobID) {
				return
			}
			ticker := time.NewTicker(s.poll)
			defer ticker.Stop()
			tick = ticker.C
		}

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case <-tick:
				if s.pollJob(c, jobID) {
					return
				}
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				if writeEvent(c, event) {
					return
				}
			}
		}
	}
}

// pollJob emits the job outcome when it is final and reports whether the
// stream is done.
func (s *Service) pollJob(c *gin.Context, jobID string) bool {
	job, err := s.jobs.ValuationJob(c.Request.Context(), jobID)
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		return writeEvent(c, Event{Type: EventValuationFailed, JobID: jobID, Message: err.Error()})
	case err != nil:
		s.log.Warn("sse job poll failed", "jobId", jobID, "error", err)
		return false
	case job.State == domain.JobCompleted && job.Report != nil:
		return writeEvent(c, Event{
			Type:  EventValuationCompleted,
			JobID: jobID,
			Data:  map[string]interface{}{"reportId": job.Report.ID, "figures": job.Report.Figures},
		})
	case job.State == domain.JobFailed:
		return writeEvent(c, Event{Type: EventValuationFailed, JobID: jobID, Message: job.Error})
	}
	return false
}

// writeEvent sends one event and reports whether it ends the stream.
func writeEvent(c *gin.Context, event Event) bool {
	data, _ := json.Marshal(event)
	c.SSEvent(string(event.Type), string(data))
	c.Writer.Flush()
	return event.Type == EventValuationCompleted || event.Type == EventValuationFailed
}

// Close disconnects every client.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, clients := range s.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	s.clients = make(map[string][]*client)
}
