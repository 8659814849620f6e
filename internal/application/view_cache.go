package application

import (
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/example/equipment-rental/internal/calendar"
)

// RevisionSource reports a counter that changes after every successful store write.
type RevisionSource interface {
	Revision() uint64
}

// viewCache keeps recently loaded dashboard snapshots. Keys embed the store revision and the
// current date, so a write or a new day always misses.
type viewCache struct {
	store *gocache.Cache
	ttl   time.Duration
}

func newViewCache(ttl time.Duration) *viewCache {
	if ttl <= 0 {
		return nil
	}
	return &viewCache{store: gocache.New(ttl, 2*ttl), ttl: ttl}
}

func (c *viewCache) Get(key string) (dashboardSnapshot, bool) {
	if c == nil {
		return dashboardSnapshot{}, false
	}
	v, ok := c.store.Get(key)
	if !ok {
		return dashboardSnapshot{}, false
	}
	snap, ok := v.(dashboardSnapshot)
	if !ok {
		return dashboardSnapshot{}, false
	}
	return snap.clone(), true
}

func (c *viewCache) Store(key string, snap dashboardSnapshot) {
	if c == nil {
		return
	}
	c.store.Set(key, snap.clone(), c.ttl)
}

// buildViewCacheKey scopes a snapshot to the store revision, the day and the viewer. Managers
// share one entry; each customer gets their own.
func buildViewCacheKey(revision uint64, today calendar.Date, principal Principal) string {
	scope := "*"
	if !principal.Can(CapManageRentals) {
		scope = principal.UserID
	}
	builder := strings.Builder{}
	builder.WriteString(strconv.FormatUint(revision, 10))
	builder.WriteString("|")
	builder.WriteString(today.String())
	builder.WriteString("|")
	builder.WriteString(scope)
	return builder.String()
}
