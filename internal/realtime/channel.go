// Package realtime implements the per-user plan notification channel and
// the WebSocket sessions subscribed to it. Delivery is best-effort and
// fire-and-forget: nothing is acknowledged, retried, or persisted, and a
// client that is not connected at publish time pulls the current state on
// its next connect instead.
package realtime

import (
	"sync"

	"overload/workout-backend/internal/domain"
)

// Member is one receiving end of a group: a non-blocking mailbox for plan
// payloads. TrySend must never block; it reports false when the member
// cannot keep up, and the channel then drops that member.
type Member interface {
	TrySend(plan *domain.WeekPlan) bool
	// Drop is called when the channel gives up on a member. It must be safe
	// to call more than once and from the publisher's goroutine.
	Drop()
}

// Channel maintains the per-owner membership groups. Join, Leave and
// Publish are each atomic with respect to one another; the registry is the
// only shared state and it lives behind the mutex.
type Channel struct {
	mu     sync.RWMutex
	groups map[string]map[Member]struct{}
}

// NewChannel creates an empty notification channel.
func NewChannel() *Channel {
	return &Channel{
		groups: make(map[string]map[Member]struct{}),
	}
}

// Join adds a member to the owner's group.
func (c *Channel) Join(ownerID string, m Member) {
	c.mu.Lock()
	defer c.mu.Unlock()

	group, ok := c.groups[ownerID]
	if !ok {
		group = make(map[Member]struct{})
		c.groups[ownerID] = group
	}
	group[m] = struct{}{}
}

// Leave removes a member from the owner's group. Leaving twice, or leaving
// a group never joined, is a no-op.
func (c *Channel) Leave(ownerID string, m Member) {
	c.mu.Lock()
	defer c.mu.Unlock()

	group, ok := c.groups[ownerID]
	if !ok {
		return
	}
	delete(group, m)
	if len(group) == 0 {
		delete(c.groups, ownerID)
	}
}

// Publish delivers the plan payload to every member currently joined for
// the owner. A member that cannot accept the payload is dropped; its
// failure never affects the other members or the publishing caller.
// Implements service.PlanNotifier.
func (c *Channel) Publish(ownerID string, plan *domain.WeekPlan) {
	c.mu.RLock()
	group := c.groups[ownerID]
	members := make([]Member, 0, len(group))
	for m := range group {
		members = append(members, m)
	}
	c.mu.RUnlock()

	for _, m := range members {
		if !m.TrySend(plan) {
			c.Leave(ownerID, m)
			m.Drop()
		}
	}
}

// GroupSize reports the number of members joined for an owner.
func (c *Channel) GroupSize(ownerID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.groups[ownerID])
}
