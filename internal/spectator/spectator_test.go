package spectator

import (
	"testing"

	"github.com/chordwave/lobby/internal/channel"
	"github.com/chordwave/lobby/internal/versions"
)

type fakeMember struct {
	id   int32
	name string
	sent []versions.PacketKind
}

func (m *fakeMember) ID() int32          { return m.id }
func (m *fakeMember) Name() string       { return m.name }
func (m *fakeMember) Permissions() uint8 { return 1 }
func (m *fakeMember) Enqueue(kind versions.PacketKind, args any) {
	m.sent = append(m.sent, kind)
}
func (m *fakeMember) count(kind versions.PacketKind) int {
	n := 0
	for _, k := range m.sent {
		if k == kind {
			n++
		}
	}
	return n
}

type fakeResolver struct {
	byID map[int32]Member
}

func (r *fakeResolver) Lookup(id int32) (Member, bool) {
	m, ok := r.byID[id]
	return m, ok
}

func newManager(resolver *fakeResolver) *Manager {
	registered := map[string]*channel.Channel{}
	return New(Hooks{
		NewChannel: func(name, topic string) *channel.Channel {
			return channel.New(name, topic, "", 0, 0, false, resolver, nil, nil)
		},
		RegisterChannel:   func(ch *channel.Channel) { registered[ch.Name] = ch },
		UnregisterChannel: func(name string) { delete(registered, name) },
	})
}

func TestStartAttachesObserverAndNotifiesHost(t *testing.T) {
	h := &fakeMember{id: 1, name: "host"}
	o := &fakeMember{id: 2, name: "obs"}
	resolver := &fakeResolver{byID: map[int32]Member{1: h, 2: o}}
	mgr := newManager(resolver)

	if err := mgr.Start(o, 1, resolver); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h.count(versions.KindSpectatorJoined) != 1 {
		t.Errorf("host did not receive SPECTATOR_JOINED")
	}
	if o.count(versions.KindChannelJoinSuccess) != 1 {
		t.Errorf("observer was not autojoined to the spectator channel")
	}
}

func TestStartTogglesOffWhenAlreadySpectating(t *testing.T) {
	h := &fakeMember{id: 1, name: "host"}
	o := &fakeMember{id: 2, name: "obs"}
	resolver := &fakeResolver{byID: map[int32]Member{1: h, 2: o}}
	mgr := newManager(resolver)

	mgr.Start(o, 1, resolver)
	if err := mgr.Start(o, 1, resolver); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if h.count(versions.KindSpectatorLeft) != 1 {
		t.Errorf("toggling off did not notify host of SPECTATOR_LEFT")
	}
	if _, stillSpectating := mgr.spectating[o.ID()]; stillSpectating {
		t.Errorf("observer still recorded as spectating after toggle-off")
	}
}

func TestStopNotifiesFellowObservers(t *testing.T) {
	h := &fakeMember{id: 1, name: "host"}
	a := &fakeMember{id: 2, name: "a"}
	b := &fakeMember{id: 3, name: "b"}
	resolver := &fakeResolver{byID: map[int32]Member{1: h, 2: a, 3: b}}
	mgr := newManager(resolver)

	mgr.Start(a, 1, resolver)
	mgr.Start(b, 1, resolver)
	a.sent = nil

	mgr.Stop(b)
	if a.count(versions.KindFellowSpectatorLeft) != 1 {
		t.Errorf("fellow observer was not notified of FELLOW_SPECTATOR_LEFT")
	}
}

func TestDisbandHostClearsAllObservers(t *testing.T) {
	h := &fakeMember{id: 1, name: "host"}
	x := &fakeMember{id: 2, name: "x"}
	y := &fakeMember{id: 3, name: "y"}
	z := &fakeMember{id: 4, name: "z"}
	resolver := &fakeResolver{byID: map[int32]Member{1: h, 2: x, 3: y, 4: z}}
	mgr := newManager(resolver)

	mgr.Start(x, 1, resolver)
	mgr.Start(y, 1, resolver)
	mgr.Start(z, 1, resolver)

	mgr.DisbandHost(h.ID())

	for _, obs := range []*fakeMember{x, y, z} {
		if _, spectating := mgr.spectating[obs.ID()]; spectating {
			t.Errorf("%s still recorded as spectating after host disband", obs.name)
		}
	}
	if _, exists := mgr.groups[h.ID()]; exists {
		t.Errorf("group for host still present after disband")
	}
}

func TestSendFramesFansOutUnmodified(t *testing.T) {
	h := &fakeMember{id: 1, name: "host"}
	a := &fakeMember{id: 2, name: "a"}
	resolver := &fakeResolver{byID: map[int32]Member{1: h, 2: a}}
	mgr := newManager(resolver)

	mgr.Start(a, 1, resolver)
	mgr.SendFrames(h, []byte{1, 2, 3})
	if a.count(versions.KindSpectateFrames) != 1 {
		t.Errorf("observer did not receive SPECTATE_FRAMES")
	}
}

func TestCantSpectateBroadcastsToHostAndFellows(t *testing.T) {
	h := &fakeMember{id: 1, name: "host"}
	a := &fakeMember{id: 2, name: "a"}
	b := &fakeMember{id: 3, name: "b"}
	resolver := &fakeResolver{byID: map[int32]Member{1: h, 2: a, 3: b}}
	mgr := newManager(resolver)

	mgr.Start(a, 1, resolver)
	mgr.Start(b, 1, resolver)
	mgr.CantSpectate(a)

	if h.count(versions.KindCantSpectate) != 1 {
		t.Errorf("host did not receive CANT_SPECTATE")
	}
	if b.count(versions.KindCantSpectate) != 1 {
		t.Errorf("fellow observer did not receive CANT_SPECTATE")
	}
	if a.count(versions.KindCantSpectate) != 0 {
		t.Errorf("caller should not receive its own CANT_SPECTATE")
	}
}

func TestStartRejectsUnknownHost(t *testing.T) {
	a := &fakeMember{id: 2, name: "a"}
	resolver := &fakeResolver{byID: map[int32]Member{2: a}}
	mgr := newManager(resolver)

	if err := mgr.Start(a, 99, resolver); err != ErrHostNotFound {
		t.Errorf("Start(unknown host) = %v, want ErrHostNotFound", err)
	}
}
