package registry

import (
	"context"
	"testing"

	"github.com/chordwave/lobby/internal/channel"
	"github.com/chordwave/lobby/internal/match"
	"github.com/chordwave/lobby/internal/versions"
)

type fakeMember struct {
	id   int32
	name string
}

func (m *fakeMember) ID() int32                                        { return m.id }
func (m *fakeMember) Name() string                                     { return m.name }
func (m *fakeMember) Permissions() uint8                                { return 0 }
func (m *fakeMember) Enqueue(kind versions.PacketKind, args any) {}

func TestSessionsLookupByIDAndName(t *testing.T) {
	s := NewSessions()
	a := &fakeMember{id: 1, name: "Alice"}
	s.Add(a)

	if got, ok := s.Lookup(1); !ok || got != a {
		t.Errorf("Lookup(1) = %v, %v", got, ok)
	}
	if got, ok := s.LookupByName("alice"); !ok || got != a {
		t.Errorf("LookupByName(alice) = %v, %v, want case-insensitive hit", got, ok)
	}
}

func TestSessionsRemove(t *testing.T) {
	s := NewSessions()
	a := &fakeMember{id: 1, name: "Alice"}
	s.Add(a)
	s.Remove(1)
	if _, ok := s.Lookup(1); ok {
		t.Errorf("session still present after Remove")
	}
	if _, ok := s.LookupByName("alice"); ok {
		t.Errorf("name index still present after Remove")
	}
}

func TestSessionsSnapshotStability(t *testing.T) {
	s := NewSessions()
	s.Add(&fakeMember{id: 1, name: "a"})
	s.Add(&fakeMember{id: 2, name: "b"})
	snap := s.Snapshot()
	s.Add(&fakeMember{id: 3, name: "c"})
	if len(snap) != 2 {
		t.Errorf("len(snap) = %d, want 2 (unaffected by later Add)", len(snap))
	}
}

func TestChannelsPublicIsSortedAndFiltered(t *testing.T) {
	c := NewChannels()
	resolver := NewSessions()
	pub1 := channel.New("#osu", "", "", 0, 0, true, resolver, nil, nil)
	pub2 := channel.New("#announce", "", "", 0, 0, true, resolver, nil, nil)
	priv := channel.New("#spec_1", "", "", 0, 0, false, resolver, nil, nil)
	c.Register(pub1)
	c.Register(pub2)
	c.Register(priv)

	pub := c.Public()
	if len(pub) != 2 {
		t.Fatalf("len(Public()) = %d, want 2", len(pub))
	}
	if pub[0].Name != "#announce" || pub[1].Name != "#osu" {
		t.Errorf("Public() not sorted by name: %v", []string{pub[0].Name, pub[1].Name})
	}
}

func TestMatchesAllocateLowestFreeID(t *testing.T) {
	m := NewMatches()
	id1, err := m.Allocate()
	if err != nil || id1 != 1 {
		t.Fatalf("Allocate() = %d, %v, want 1, nil", id1, err)
	}
	id2, err := m.Allocate()
	if err != nil || id2 != 2 {
		t.Fatalf("Allocate() = %d, %v, want 2, nil", id2, err)
	}
	m.Unregister(id1)
	id3, err := m.Allocate()
	if err != nil || id3 != 1 {
		t.Errorf("Allocate() after freeing 1 = %d, %v, want 1, nil", id3, err)
	}
}

func TestMatchesAllocateRejectsOverflow(t *testing.T) {
	m := NewMatches()
	for i := int32(0); i < match.MaxMatches; i++ {
		if _, err := m.Allocate(); err != nil {
			t.Fatalf("Allocate() #%d: %v", i, err)
		}
	}
	if _, err := m.Allocate(); err != ErrMatchesFull {
		t.Errorf("Allocate() past MaxMatches = %v, want ErrMatchesFull", err)
	}
}

func TestMatchesRegisterAndLookup(t *testing.T) {
	ms := NewMatches()
	id, _ := ms.Allocate()
	h := &fakeMember{id: 1, name: "host"}
	mt, err := match.New(context.Background(), id, "test", "", h, 1, "md5", "map", 0, match.Hooks{})
	if err != nil {
		t.Fatalf("match.New: %v", err)
	}
	ms.Register(id, mt)

	got, ok := ms.Lookup(id)
	if !ok || got != mt {
		t.Errorf("Lookup(%d) = %v, %v, want the registered match", id, got, ok)
	}
	if len(ms.Snapshot()) != 1 {
		t.Errorf("Snapshot() len = %d, want 1", len(ms.Snapshot()))
	}
}

func TestMatchesLookupReservedButUnregisteredIsMiss(t *testing.T) {
	ms := NewMatches()
	id, _ := ms.Allocate()
	if _, ok := ms.Lookup(id); ok {
		t.Errorf("Lookup(%d) = ok for a reserved-but-unregistered id", id)
	}
}
