// Package admission bounds the gateway's concurrent load. The controller is
// the only cross-session shared mutable state besides the session index, so
// all accounting happens under one mutex and every code path either commits
// fully or leaves the counters untouched.
package admission

import (
	"fmt"
	"sync"

	"github.com/karlivory/SiGa/internal/gateway/errdefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Limits configures the admission ceilings. Zero values mean unlimited.
type Limits struct {
	MaxSessionsPerService int
	MaxServiceBytes       int64
	MaxGlobalBytes        int64
}

// Tenant identifies the client+service pair a session is accounted against.
type Tenant struct {
	ClientName  string
	ServiceName string
	ServiceUUID string
}

// Key returns the accounting key for the tenant.
func (t Tenant) Key() string {
	return t.ServiceUUID
}

type usage struct {
	sessions int
	bytes    int64
}

// Controller tracks active session counts and buffered byte totals per
// tenant and globally.
type Controller struct {
	limits Limits

	mu        sync.Mutex
	perTenant map[string]*usage
	global    usage
}

var (
	metricsOnce        sync.Once
	activeSessionsGage *prometheus.GaugeVec
	bufferedBytesGauge *prometheus.GaugeVec
	deniedCounter      *prometheus.CounterVec
)

func NewController(limits Limits) *Controller {
	ensureMetrics()
	return &Controller{
		limits:    limits,
		perTenant: make(map[string]*usage),
	}
}

// Ticket records one session's resource consumption. It is released exactly
// once; later releases are no-ops.
type Ticket struct {
	controller *Controller
	tenant     Tenant

	mu       sync.Mutex
	size     int64
	released bool
}

// Size returns the currently accounted byte size.
func (t *Ticket) Size() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

// Reserve admits a new session of the given size or fails with an admission
// error. The count and byte updates are atomic with respect to concurrent
// reservations.
func (c *Controller) Reserve(tenant Tenant, sizeBytes int64) (*Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u := c.perTenant[tenant.Key()]
	if u == nil {
		u = &usage{}
	}

	if c.limits.MaxSessionsPerService > 0 && u.sessions >= c.limits.MaxSessionsPerService {
		deniedCounter.WithLabelValues("session_count").Inc()
		return nil, errdefs.NewAdmissionDenied(fmt.Sprintf("Number of allowed sessions exceeded for service %s", tenant.ServiceUUID))
	}
	if err := c.checkBytesLocked(u, sizeBytes); err != nil {
		return nil, err
	}

	u.sessions++
	u.bytes += sizeBytes
	c.perTenant[tenant.Key()] = u
	c.global.sessions++
	c.global.bytes += sizeBytes
	c.publishLocked(tenant, u)

	return &Ticket{controller: c, tenant: tenant, size: sizeBytes}, nil
}

// Resize re-accounts the ticket to newSizeBytes. Growth is re-checked
// against the byte ceilings; on denial the pre-call size is kept.
func (c *Controller) Resize(ticket *Ticket, newSizeBytes int64) error {
	ticket.mu.Lock()
	defer ticket.mu.Unlock()
	if ticket.released {
		return errdefs.NewInternal(fmt.Errorf("resize on released ticket for service %s", ticket.tenant.ServiceUUID))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delta := newSizeBytes - ticket.size
	u := c.perTenant[ticket.tenant.Key()]
	if u == nil {
		return errdefs.NewInternal(fmt.Errorf("no usage record for service %s", ticket.tenant.ServiceUUID))
	}

	if delta > 0 {
		if err := c.checkBytesLocked(u, delta); err != nil {
			return err
		}
	}

	u.bytes += delta
	c.global.bytes += delta
	ticket.size = newSizeBytes
	c.publishLocked(ticket.tenant, u)
	return nil
}

// Release returns the ticket's capacity. Safe to call more than once.
func (c *Controller) Release(ticket *Ticket) {
	ticket.mu.Lock()
	defer ticket.mu.Unlock()
	if ticket.released {
		return
	}
	ticket.released = true

	c.mu.Lock()
	defer c.mu.Unlock()

	u := c.perTenant[ticket.tenant.Key()]
	if u == nil {
		return
	}
	u.sessions--
	u.bytes -= ticket.size
	c.global.sessions--
	c.global.bytes -= ticket.size
	if u.sessions <= 0 && u.bytes <= 0 {
		delete(c.perTenant, ticket.tenant.Key())
		u = &usage{}
	}
	c.publishLocked(ticket.tenant, u)
}

// Usage returns the tenant's current session count and byte total.
func (c *Controller) Usage(tenant Tenant) (sessions int, bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u := c.perTenant[tenant.Key()]; u != nil {
		return u.sessions, u.bytes
	}
	return 0, 0
}

// GlobalUsage returns the process-wide session count and byte total.
func (c *Controller) GlobalUsage() (sessions int, bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.global.sessions, c.global.bytes
}

func (c *Controller) checkBytesLocked(u *usage, delta int64) error {
	if c.limits.MaxServiceBytes > 0 && u.bytes+delta > c.limits.MaxServiceBytes {
		deniedCounter.WithLabelValues("service_bytes").Inc()
		return errdefs.NewAdmissionDenied("Total size of session data exceeded for service")
	}
	if c.limits.MaxGlobalBytes > 0 && c.global.bytes+delta > c.limits.MaxGlobalBytes {
		deniedCounter.WithLabelValues("global_bytes").Inc()
		return errdefs.NewAdmissionDenied("Total size of session data exceeded")
	}
	return nil
}

func (c *Controller) publishLocked(tenant Tenant, u *usage) {
	activeSessionsGage.WithLabelValues(tenant.ServiceUUID).Set(float64(u.sessions))
	bufferedBytesGauge.WithLabelValues(tenant.ServiceUUID).Set(float64(u.bytes))
}

func ensureMetrics() {
	metricsOnce.Do(func() {
		activeSessionsGage = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "siga",
			Subsystem: "admission",
			Name:      "active_sessions",
			Help:      "Active container sessions per service",
		}, []string{"service_uuid"})
		bufferedBytesGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "siga",
			Subsystem: "admission",
			Name:      "buffered_bytes",
			Help:      "Buffered container bytes per service",
		}, []string{"service_uuid"})
		deniedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "siga",
			Subsystem: "admission",
			Name:      "denied_total",
			Help:      "Admission denials by limit",
		}, []string{"limit"})
	})
}
