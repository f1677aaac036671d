package resolve

import (
	"context"
	"log/slog"

	"call-logd/internal/callog"
	"call-logd/internal/directory"
)

// TenantResolver assigns a tenant to a call that the event stream did not
// already claim. Precedence: a tenant carried by any resolved raw
// participant, then the tenant owning the call's requested context, then the
// service default.
type TenantResolver struct {
	dir           directory.Client
	defaultTenant func() string
	log           *slog.Logger
}

func NewTenantResolver(dir directory.Client, defaultTenant func() string, log *slog.Logger) *TenantResolver {
	if log == nil {
		log = slog.Default()
	}
	return &TenantResolver{dir: dir, defaultTenant: defaultTenant, log: log}
}

func (r *TenantResolver) Resolve(ctx context.Context, call *callog.RawCallLog) {
	if call.TenantUUID() != "" {
		return
	}

	for _, channame := range call.RawParticipantChannels() {
		raw := call.RawParticipants[channame]
		if raw.TenantUUID == "" {
			continue
		}
		if err := call.SetTenantUUID(raw.TenantUUID); err != nil {
			r.log.Error("conflicting tenant on raw participant", "channel", channame, "err", err)
		}
		return
	}

	if call.RequestedContext != "" {
		contexts, err := r.dir.FindContexts(ctx, call.RequestedContext)
		if err != nil {
			r.log.Info("context lookup failed, falling back to default tenant",
				"context", call.RequestedContext, "err", err)
		}
		for _, c := range contexts {
			if c.TenantUUID == "" {
				continue
			}
			if err := call.SetTenantUUID(c.TenantUUID); err != nil {
				r.log.Error("conflicting tenant from context", "context", c.Name, "err", err)
			}
			return
		}
	}

	if r.defaultTenant == nil {
		return
	}
	if fallback := r.defaultTenant(); fallback != "" {
		if err := call.SetTenantUUID(fallback); err != nil {
			r.log.Error("conflicting default tenant", "err", err)
		}
	}
}
