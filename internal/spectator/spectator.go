// Package spectator implements the per-host observer set (spec.md §4.6):
// START_SPECTATING/STOP_SPECTATING toggle semantics, the auto-created
// #spec_<host-id> channel, and frame relay with no rewriting.
package spectator

import (
	"fmt"
	"sync"

	"github.com/chordwave/lobby/internal/channel"
	"github.com/chordwave/lobby/internal/versions"
)

// Member and Resolver are channel's interfaces reused verbatim: a spectator
// group's host and observers are sessions viewed the same narrow way a
// channel views its members.
type Member = channel.Member
type Resolver = channel.Resolver

// Hooks lets Manager create and register the auto-channel without importing
// a concrete channel registry (spec.md §9 registry-cycle note).
type Hooks struct {
	NewChannel        func(name, topic string) *channel.Channel
	RegisterChannel   func(ch *channel.Channel)
	UnregisterChannel func(name string)
}

type group struct {
	host      Member
	observers map[int32]Member
	channel   *channel.Channel
}

// Manager tracks every active spectator group, keyed by host id, plus a
// reverse index of who is currently spectating whom.
type Manager struct {
	hooks Hooks

	mu         sync.Mutex
	groups     map[int32]*group
	spectating map[int32]int32 // observer id -> host id
}

func New(hooks Hooks) *Manager {
	return &Manager{
		hooks:      hooks,
		groups:     make(map[int32]*group),
		spectating: make(map[int32]int32),
	}
}

func channelName(hostID int32) string {
	return fmt.Sprintf("#spec_%d", hostID)
}

// Start implements START_SPECTATING(id). A caller already spectating, or
// already present in the target's observer set, toggles off instead
// (spec.md §4.6).
func (m *Manager) Start(caller Member, targetID int32, resolver Resolver) error {
	m.mu.Lock()
	if _, already := m.spectating[caller.ID()]; already {
		m.mu.Unlock()
		m.Stop(caller)
		return nil
	}
	if g, ok := m.groups[targetID]; ok {
		if _, inSet := g.observers[caller.ID()]; inSet {
			m.mu.Unlock()
			m.Stop(caller)
			return nil
		}
	}
	m.mu.Unlock()

	target, ok := resolver.Lookup(targetID)
	if !ok {
		return ErrHostNotFound
	}

	m.mu.Lock()
	g, exists := m.groups[targetID]
	if !exists {
		ch := m.hooks.NewChannel(channelName(targetID), "spectator")
		g = &group{host: target, observers: make(map[int32]Member)}
		g.channel = ch
		m.groups[targetID] = g
		m.hooks.RegisterChannel(ch)
	}
	for _, obs := range g.observers {
		obs.Enqueue(versions.KindFellowSpectatorJoined, versions.SpectateArgs{UserID: caller.ID()})
	}
	g.observers[caller.ID()] = caller
	m.spectating[caller.ID()] = targetID
	ch := g.channel
	m.mu.Unlock()

	target.Enqueue(versions.KindSpectatorJoined, versions.SpectateArgs{UserID: caller.ID()})
	ch.Add(caller)
	if !ch.Has(target.ID()) {
		ch.Add(target)
	}
	return nil
}

// Stop implements STOP_SPECTATING: removes the caller from its host's
// observer set, tears the group down if it emptied out, and notifies the
// host and remaining observers.
func (m *Manager) Stop(caller Member) {
	m.mu.Lock()
	hostID, ok := m.spectating[caller.ID()]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.spectating, caller.ID())

	g, ok := m.groups[hostID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(g.observers, caller.ID())
	remaining := snapshot(g.observers)
	empty := len(g.observers) == 0
	host := g.host
	ch := g.channel
	if empty {
		delete(m.groups, hostID)
	}
	m.mu.Unlock()

	ch.Remove(caller.ID())
	host.Enqueue(versions.KindSpectatorLeft, versions.SpectateArgs{UserID: caller.ID()})
	for _, obs := range remaining {
		obs.Enqueue(versions.KindFellowSpectatorLeft, versions.SpectateArgs{UserID: caller.ID()})
	}
	if empty {
		ch.Remove(host.ID())
		m.hooks.UnregisterChannel(ch.Name)
	}
}

// DisbandHost force-ends a host's spectator group, used on the host's own
// disconnect (spec.md §8 scenario 6): every observer's spectating target
// clears and the auto-channel is dropped from the registry.
func (m *Manager) DisbandHost(hostID int32) {
	m.mu.Lock()
	g, ok := m.groups[hostID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.groups, hostID)
	for id := range g.observers {
		delete(m.spectating, id)
	}
	ch := g.channel
	m.mu.Unlock()

	m.hooks.UnregisterChannel(ch.Name)
}

// Detach unconditionally removes caller from any role it holds: as an
// observer (Stop) and as a host (DisbandHost). Safe to call unconditionally
// from session teardown.
func (m *Manager) Detach(caller Member) {
	m.Stop(caller)
	m.DisbandHost(caller.ID())
}

// CantSpectate implements CANT_SPECTATE(id): broadcast to the host and
// every fellow observer that caller cannot keep up.
func (m *Manager) CantSpectate(caller Member) {
	m.mu.Lock()
	hostID, ok := m.spectating[caller.ID()]
	if !ok {
		m.mu.Unlock()
		return
	}
	g, ok := m.groups[hostID]
	if !ok {
		m.mu.Unlock()
		return
	}
	host := g.host
	fellows := snapshotExcept(g.observers, caller.ID())
	m.mu.Unlock()

	host.Enqueue(versions.KindCantSpectate, versions.SpectateArgs{UserID: caller.ID()})
	for _, obs := range fellows {
		obs.Enqueue(versions.KindCantSpectate, versions.SpectateArgs{UserID: caller.ID()})
	}
}

// SendFrames implements SEND_FRAMES(bundle): caller must be a group's host,
// and the bundle fans out to every observer unmodified.
func (m *Manager) SendFrames(caller Member, bundle []byte) {
	m.mu.Lock()
	g, ok := m.groups[caller.ID()]
	if !ok {
		m.mu.Unlock()
		return
	}
	observers := snapshot(g.observers)
	m.mu.Unlock()

	for _, obs := range observers {
		obs.Enqueue(versions.KindSpectateFrames, versions.SpectateFramesArgs{Bundle: bundle})
	}
}

func snapshot(observers map[int32]Member) []Member {
	out := make([]Member, 0, len(observers))
	for _, m := range observers {
		out = append(out, m)
	}
	return out
}

func snapshotExcept(observers map[int32]Member, exclude int32) []Member {
	out := make([]Member, 0, len(observers))
	for id, m := range observers {
		if id == exclude {
			continue
		}
		out = append(out, m)
	}
	return out
}

// ErrHostNotFound is returned by Start when the target session is gone.
var ErrHostNotFound = spectatorError("spectator: host not found")

type spectatorError string

func (e spectatorError) Error() string { return string(e) }
