// Package refresh periodically scans the mailbox and rebuilds the
// current billing snapshot for every tracked service.
package refresh

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/concierge-services/concierge/internal/extract"
	"github.com/concierge-services/concierge/internal/history"
	"github.com/concierge-services/concierge/internal/mailbox"
	"github.com/concierge-services/concierge/internal/mailtext"
	"github.com/concierge-services/concierge/internal/service"
)

// Connection status values exposed in snapshots.
const (
	StatusOK      = "OK"
	StatusProblem = "Problem"
)

// Mailbox is the subset of IMAP operations a refresh cycle needs.
type Mailbox interface {
	ListMessageIDs() ([]uint32, error)
	FetchRaw(id uint32) ([]byte, error)
	Close() error
}

// Dialer opens a fresh mailbox connection for one refresh cycle.
type Dialer func() (Mailbox, error)

// ServiceResult holds the latest billing data found for one service.
type ServiceResult struct {
	ServiceID   string             `json:"service_id"`
	ServiceName string             `json:"service_name"`
	ServiceType service.Type       `json:"service_type"`
	LastUpdated time.Time          `json:"last_updated"`
	Attributes  extract.Attributes `json:"attributes"`
}

// Snapshot is the complete state produced by one refresh cycle.
type Snapshot struct {
	Status    string                   `json:"status"`
	UpdatedAt time.Time                `json:"updated_at"`
	Services  map[string]ServiceResult `json:"services"`
}

// Coordinator runs refresh cycles and publishes the latest snapshot.
type Coordinator struct {
	dial     Dialer
	services []service.Record
	limit    int
	store    *history.Store

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewCoordinator creates a coordinator for the given services. The
// history store is optional; pass nil to skip persistence.
func NewCoordinator(dial Dialer, services []service.Record, scanLimit int, store *history.Store) *Coordinator {
	if scanLimit <= 0 {
		scanLimit = 100
	}
	return &Coordinator{
		dial:     dial,
		services: services,
		limit:    scanLimit,
		snapshot: Snapshot{
			Status:   StatusProblem,
			Services: make(map[string]ServiceResult),
		},
	}
}

// Snapshot returns the most recently published snapshot.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// RefreshOnce runs a single refresh cycle and publishes the result.
func (c *Coordinator) RefreshOnce() Snapshot {
	snap := c.refresh()

	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()

	return snap
}

// Run refreshes immediately, then on every interval tick until the
// context is cancelled.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) {
	c.RefreshOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RefreshOnce()
		}
	}
}

func (c *Coordinator) refresh() Snapshot {
	prev := c.Snapshot()

	mbox, err := c.dial()
	if err != nil {
		if mailbox.IsAuth(err) {
			log.Printf("Warning: mailbox authentication failed: %v", err)
		} else {
			log.Printf("Warning: mailbox connection failed: %v", err)
		}
		// Keep the last known data, only flip the status.
		return Snapshot{
			Status:    StatusProblem,
			UpdatedAt: time.Now(),
			Services:  prev.Services,
		}
	}
	defer mbox.Close()

	ids, err := mbox.ListMessageIDs()
	if err != nil {
		log.Printf("Warning: listing messages failed: %v", err)
		return Snapshot{
			Status:    StatusProblem,
			UpdatedAt: time.Now(),
			Services:  prev.Services,
		}
	}

	if len(ids) > c.limit {
		ids = ids[len(ids)-c.limit:]
	}

	messages := c.fetchAll(mbox, ids)

	// Results are rebuilt from scratch: a service with no matching message
	// in this cycle's window is simply absent from the new snapshot.
	results := make(map[string]ServiceResult, len(c.services))
	for _, rec := range c.services {
		res, ok := c.refreshService(rec, messages)
		if !ok {
			log.Printf("Warning: no billing email matched service %s", rec.Name)
			continue
		}
		results[rec.ID] = res

		if c.store != nil {
			r := &history.RefreshRecord{
				ServiceID:   res.ServiceID,
				ServiceName: res.ServiceName,
				ServiceType: string(res.ServiceType),
				LastUpdated: res.LastUpdated,
				Attributes:  res.Attributes,
			}
			if err := c.store.RecordRefresh(r); err != nil {
				log.Printf("Warning: recording refresh for %s: %v", rec.ID, err)
			}
		}
	}

	return Snapshot{
		Status:    StatusOK,
		UpdatedAt: time.Now(),
		Services:  results,
	}
}

// fetchAll downloads and parses every candidate message once so each
// service scan reuses the same parsed set.
func (c *Coordinator) fetchAll(mbox Mailbox, ids []uint32) []*mailtext.Message {
	messages := make([]*mailtext.Message, 0, len(ids))
	for _, id := range ids {
		raw, err := mbox.FetchRaw(id)
		if err != nil {
			log.Printf("Warning: fetching message %d: %v", id, err)
			continue
		}
		msg, err := mailtext.Parse(raw)
		if err != nil {
			log.Printf("Warning: parsing message %d: %v", id, err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages
}

// refreshService scans messages newest first and extracts attributes
// from the first billing email that matches the service.
func (c *Coordinator) refreshService(rec service.Record, messages []*mailtext.Message) (ServiceResult, bool) {
	svcType := rec.Type
	if svcType == "" {
		svcType = service.Classify(rec.SampleFrom, rec.SampleSubject)
	}

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if !msg.HasAttachment {
			continue
		}
		if !service.Matches(rec, msg.From, msg.Subject, msg.Body) {
			continue
		}
		// A bill without a parseable date cannot anchor the result; keep
		// scanning older messages rather than invent a timestamp.
		if msg.Date.IsZero() {
			continue
		}

		attrs := extract.Extract(msg.Subject, msg.Body, svcType)

		return ServiceResult{
			ServiceID:   rec.ID,
			ServiceName: rec.Name,
			ServiceType: svcType,
			LastUpdated: msg.Date,
			Attributes:  attrs,
		}, true
	}

	return ServiceResult{}, false
}
