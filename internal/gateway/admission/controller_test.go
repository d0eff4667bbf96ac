package admission

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTenant(uuid string) Tenant {
	return Tenant{ClientName: "client", ServiceName: "service", ServiceUUID: uuid}
}

func TestReserveSessionLimit(t *testing.T) {
	c := NewController(Limits{MaxSessionsPerService: 5})
	tenant := testTenant("svc-1")

	tickets := make([]*Ticket, 0, 5)
	for i := 0; i < 5; i++ {
		ticket, err := c.Reserve(tenant, 10)
		require.NoError(t, err)
		tickets = append(tickets, ticket)
	}

	_, err := c.Reserve(tenant, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Number of allowed sessions exceeded for service svc-1")

	// Another service is unaffected.
	_, err = c.Reserve(testTenant("svc-2"), 10)
	assert.NoError(t, err)

	// Releasing frees a slot.
	c.Release(tickets[0])
	_, err = c.Reserve(tenant, 10)
	assert.NoError(t, err)
}

func TestReserveByteLimits(t *testing.T) {
	c := NewController(Limits{MaxServiceBytes: 100, MaxGlobalBytes: 150})

	_, err := c.Reserve(testTenant("svc-1"), 80)
	require.NoError(t, err)

	// Service ceiling.
	_, err = c.Reserve(testTenant("svc-1"), 30)
	require.Error(t, err)

	// Global ceiling across services.
	_, err = c.Reserve(testTenant("svc-2"), 80)
	require.Error(t, err)

	_, err = c.Reserve(testTenant("svc-2"), 60)
	assert.NoError(t, err)
}

func TestResizeGrowthDeniedKeepsOldSize(t *testing.T) {
	c := NewController(Limits{MaxServiceBytes: 100})
	tenant := testTenant("svc-1")

	ticket, err := c.Reserve(tenant, 50)
	require.NoError(t, err)

	err = c.Resize(ticket, 200)
	require.Error(t, err)
	assert.Equal(t, int64(50), ticket.Size())

	_, bytes := c.Usage(tenant)
	assert.Equal(t, int64(50), bytes)

	// Shrinking always succeeds.
	require.NoError(t, c.Resize(ticket, 20))
	_, bytes = c.Usage(tenant)
	assert.Equal(t, int64(20), bytes)
}

func TestReleaseIsIdempotent(t *testing.T) {
	c := NewController(Limits{})
	tenant := testTenant("svc-1")

	ticket, err := c.Reserve(tenant, 10)
	require.NoError(t, err)

	c.Release(ticket)
	c.Release(ticket)

	sessions, bytes := c.GlobalUsage()
	assert.Equal(t, 0, sessions)
	assert.Equal(t, int64(0), bytes)
}

func TestConcurrentReserveRespectsLimit(t *testing.T) {
	const limit = 5
	c := NewController(Limits{MaxSessionsPerService: limit})
	tenant := testTenant("svc-1")

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Reserve(tenant, 1); err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, granted)
	sessions, _ := c.Usage(tenant)
	assert.Equal(t, limit, sessions)
}

func TestAccountingAcrossManyTenants(t *testing.T) {
	c := NewController(Limits{})

	for i := 0; i < 10; i++ {
		_, err := c.Reserve(testTenant(fmt.Sprintf("svc-%d", i)), int64(i))
		require.NoError(t, err)
	}

	sessions, bytes := c.GlobalUsage()
	assert.Equal(t, 10, sessions)
	assert.Equal(t, int64(45), bytes)
}
