package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// DefaultTenantChannel is the pub/sub channel the platform publishes the
// master tenant on whenever it changes.
const DefaultTenantChannel = "call_logd:default_tenant"

// DefaultTenantStore holds the tenant used as the last-resort fallback when
// a call carries no tenant signal of its own. Reads are lock-free.
type DefaultTenantStore struct {
	v atomic.Value
}

func NewDefaultTenantStore(initial string) *DefaultTenantStore {
	s := &DefaultTenantStore{}
	s.v.Store(initial)
	return s
}

func (s *DefaultTenantStore) Get() string {
	v, _ := s.v.Load().(string)
	return v
}

func (s *DefaultTenantStore) Set(tenantUUID string) {
	if tenantUUID == "" {
		return
	}
	s.v.Store(tenantUUID)
}

type defaultTenantEvent struct {
	TenantUUID string `json:"tenant_uuid"`
}

// WatchDefaultTenant subscribes to the default-tenant channel and updates
// the store until ctx is cancelled. Malformed payloads are logged and
// skipped.
func WatchDefaultTenant(ctx context.Context, rdb *redis.Client, store *DefaultTenantStore, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	sub := rdb.Subscribe(ctx, DefaultTenantChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev defaultTenantEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn("malformed default tenant event", "payload", msg.Payload, "err", err)
				continue
			}
			if ev.TenantUUID == "" {
				log.Warn("default tenant event without tenant_uuid")
				continue
			}
			store.Set(ev.TenantUUID)
			log.Info("default tenant updated", "tenant_uuid", ev.TenantUUID)
		}
	}
}
