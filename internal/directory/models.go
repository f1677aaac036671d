package directory

import "context"

// Participant is what the directory service knows about the owner of a
// channel or user account.
type Participant struct {
	UUID          string   `json:"uuid"`
	TenantUUID    string   `json:"tenant_uuid"`
	LineID        string   `json:"line_id"`
	Tags          []string `json:"tags"`
	MainExtension string   `json:"main_extension"`
}

// ContextInfo describes one dialplan context and its owning tenant.
type ContextInfo struct {
	Name       string `json:"name"`
	TenantUUID string `json:"tenant_uuid"`
}

// Client is the external directory collaborator.
//
// Lookup misses return (nil, nil) / (empty, nil). Transport failures return
// an error; the engine treats them as "not found" and keeps going. Retry and
// timeout policy belongs to the client implementation, not the engine.
type Client interface {
	FindParticipantByChannel(ctx context.Context, channame string) (*Participant, error)
	FindParticipantByUser(ctx context.Context, userUUID string) (*Participant, error)
	FindContexts(ctx context.Context, name string) ([]ContextInfo, error)
}
