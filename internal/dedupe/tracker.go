// internal/dedupe/tracker.go
package dedupe

import (
	"context"
	"sort"
	"sync"

	"dealflow-workers/internal/models"
)

// KeyPolicy selects the discriminator appended to a property address when
// building a shown-lead key. Call sites used to pick discriminators
// implicitly; the policy is now injected explicitly via worker config.
type KeyPolicy string

const (
	KeyByOwner        KeyPolicy = "owner"
	KeyByConversation KeyPolicy = "conversation"
)

// LeadKey derives the shown-property identifier for a record.
func LeadKey(rec models.PropertyRecord, policy KeyPolicy, conversationID string) string {
	discriminator := conversationID
	if policy == KeyByOwner {
		discriminator = rec.OwnerName
	}
	return rec.Address + "_" + discriminator
}

// Tracker records which property identifiers have already been presented
// within a session, so follow-up searches can exclude them. The set only
// grows for the lifetime of a session; there is no eviction.
type Tracker interface {
	HasShown(ctx context.Context, sessionID, id string) (bool, error)
	MarkShown(ctx context.Context, sessionID string, ids ...string) error
	AllShown(ctx context.Context, sessionID string) ([]string, error)
}

// MemoryTracker is the in-process Tracker used by tests and single-node
// deployments.
type MemoryTracker struct {
	mu    sync.Mutex
	shown map[string]map[string]struct{}
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{shown: make(map[string]map[string]struct{})}
}

func (t *MemoryTracker) HasShown(_ context.Context, sessionID, id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.shown[sessionID][id]
	return ok, nil
}

func (t *MemoryTracker) MarkShown(_ context.Context, sessionID string, ids ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.shown[sessionID]
	if !ok {
		set = make(map[string]struct{})
		t.shown[sessionID] = set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return nil
}

func (t *MemoryTracker) AllShown(_ context.Context, sessionID string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.shown[sessionID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
