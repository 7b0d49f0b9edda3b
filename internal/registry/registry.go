// Package registry holds the three in-memory fan-out maps (spec.md §4.3):
// sessions by id and by name, channels by name, and matches by lowest-free
// id. internal/session.Session satisfies Member/Resolver structurally —
// registry never imports session, avoiding the cycle the structural
// interfaces in internal/channel and internal/match were built to avoid.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/chordwave/lobby/internal/channel"
	"github.com/chordwave/lobby/internal/match"
	"github.com/chordwave/lobby/internal/versions"
)

// Member is the common view every registry entry is looked up through.
type Member = channel.Member

// Sessions indexes live members by id and by case-insensitive name, and
// offers the bulk fan-out helpers the login epilogue and presence refresh
// use ("send presence to all", "send stats to all").
type Sessions struct {
	mu      sync.RWMutex
	byID    map[int32]Member
	byName  map[string]Member
}

func NewSessions() *Sessions {
	return &Sessions{
		byID:   make(map[int32]Member),
		byName: make(map[string]Member),
	}
}

func (s *Sessions) Add(m Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[m.ID()] = m
	s.byName[strings.ToLower(m.Name())] = m
}

func (s *Sessions) Remove(id int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	delete(s.byName, strings.ToLower(m.Name()))
}

// Lookup satisfies channel.Resolver / match.Resolver.
func (s *Sessions) Lookup(id int32) (Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	return m, ok
}

func (s *Sessions) LookupByName(name string) (Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byName[strings.ToLower(name)]
	return m, ok
}

// Snapshot returns a stable point-in-time list, safe to range over after
// the lock is released.
func (s *Sessions) Snapshot() []Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Member, 0, len(s.byID))
	for _, m := range s.byID {
		out = append(out, m)
	}
	return out
}

func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// BroadcastPresence fans a presence packet, built per-recipient by build,
// out to every live session.
func (s *Sessions) BroadcastPresence(kind versions.PacketKind, build func(recipient Member) any) {
	for _, m := range s.Snapshot() {
		m.Enqueue(kind, build(m))
	}
}

// Broadcast fans the same packet args out to every live session.
func (s *Sessions) Broadcast(kind versions.PacketKind, args any) {
	for _, m := range s.Snapshot() {
		m.Enqueue(kind, args)
	}
}

// Channels indexes channels by name and exposes iteration over the public
// subset (used for the autojoin/CHANNEL_AVAILABLE epilogue fan-out).
type Channels struct {
	mu   sync.RWMutex
	byName map[string]*channel.Channel
}

func NewChannels() *Channels {
	return &Channels{byName: make(map[string]*channel.Channel)}
}

func (c *Channels) Register(ch *channel.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName[ch.Name] = ch
}

func (c *Channels) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byName, name)
}

func (c *Channels) Lookup(name string) (*channel.Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.byName[name]
	return ch, ok
}

// Public returns a stable, name-sorted snapshot of public channels.
func (c *Channels) Public() []*channel.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*channel.Channel, 0, len(c.byName))
	for _, ch := range c.byName {
		if ch.Public {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ErrMatchesFull is returned by Matches.Allocate when every id slot in
// [1, match.MaxMatches] is occupied.
var ErrMatchesFull = registryError("registry: no free match id")

type registryError string

func (e registryError) Error() string { return string(e) }

// Matches allocates the lowest free id in [1, match.MaxMatches] and indexes
// live matches by it.
type Matches struct {
	mu   sync.RWMutex
	byID map[int32]*match.Match
}

func NewMatches() *Matches {
	return &Matches{byID: make(map[int32]*match.Match)}
}

// Allocate finds the lowest free id, reserves it, and returns it. The
// caller is expected to Register the constructed match under that id.
func (m *Matches) Allocate() (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := int32(1); id <= match.MaxMatches; id++ {
		if _, taken := m.byID[id]; !taken {
			m.byID[id] = nil
			return id, nil
		}
	}
	return 0, ErrMatchesFull
}

func (m *Matches) Register(id int32, mt *match.Match) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id] = mt
}

func (m *Matches) Unregister(id int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
}

func (m *Matches) Lookup(id int32) (*match.Match, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mt, ok := m.byID[id]
	return mt, mt != nil && ok
}

// Snapshot returns every registered, non-reserved-only match.
func (m *Matches) Snapshot() []*match.Match {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*match.Match, 0, len(m.byID))
	for _, mt := range m.byID {
		if mt != nil {
			out = append(out, mt)
		}
	}
	return out
}
