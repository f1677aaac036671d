package directory

import (
	"context"
	"sync"
)

// MemoryDirectory is an in-memory directory for tests. Lookup counters let
// tests assert how many round-trips the resolver performed.
type MemoryDirectory struct {
	mu sync.Mutex

	ByChannel map[string]Participant
	ByUser    map[string]Participant
	Contexts  map[string][]ContextInfo

	// Err, when set, is returned by every lookup to simulate an unreachable
	// directory.
	Err error

	ChannelLookups map[string]int
	UserLookups    map[string]int
	ContextLookups map[string]int
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		ByChannel:      map[string]Participant{},
		ByUser:         map[string]Participant{},
		Contexts:       map[string][]ContextInfo{},
		ChannelLookups: map[string]int{},
		UserLookups:    map[string]int{},
		ContextLookups: map[string]int{},
	}
}

func (d *MemoryDirectory) FindParticipantByChannel(_ context.Context, channame string) (*Participant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ChannelLookups[channame]++
	if d.Err != nil {
		return nil, d.Err
	}
	if p, ok := d.ByChannel[channame]; ok {
		out := p
		return &out, nil
	}
	return nil, nil
}

func (d *MemoryDirectory) FindParticipantByUser(_ context.Context, userUUID string) (*Participant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.UserLookups[userUUID]++
	if d.Err != nil {
		return nil, d.Err
	}
	if p, ok := d.ByUser[userUUID]; ok {
		out := p
		return &out, nil
	}
	return nil, nil
}

func (d *MemoryDirectory) FindContexts(_ context.Context, name string) ([]ContextInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ContextLookups[name]++
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Contexts[name], nil
}
