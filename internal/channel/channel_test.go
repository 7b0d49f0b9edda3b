package channel

import (
	"context"
	"strings"
	"testing"

	"github.com/chordwave/lobby/internal/versions"
)

type fakeMember struct {
	id    int32
	name  string
	perms uint8
	sent  []versions.PacketKind
	texts []string
}

func (m *fakeMember) ID() int32          { return m.id }
func (m *fakeMember) Name() string       { return m.name }
func (m *fakeMember) Permissions() uint8 { return m.perms }
func (m *fakeMember) Enqueue(kind versions.PacketKind, args any) {
	m.sent = append(m.sent, kind)
	if a, ok := args.(versions.SendMessageArgs); ok {
		m.texts = append(m.texts, a.Text)
	}
}

type fakeResolver struct {
	byID map[int32]Member
}

func (r *fakeResolver) Lookup(id int32) (Member, bool) {
	m, ok := r.byID[id]
	return m, ok
}

func TestAddRejectsWithoutReadPermission(t *testing.T) {
	resolver := &fakeResolver{byID: map[int32]Member{}}
	ch := New("#admin", "", "", 8, 8, true, resolver, nil, nil)
	m := &fakeMember{id: 1, name: "guest", perms: 0}
	resolver.byID[1] = m

	if err := ch.Add(m); err != ErrNoReadPermission {
		t.Fatalf("Add() = %v, want ErrNoReadPermission", err)
	}
	if ch.Has(1) {
		t.Errorf("member was added despite missing read permission")
	}
}

func TestAddSendsJoinSuccessAndPanel(t *testing.T) {
	resolver := &fakeResolver{byID: map[int32]Member{}}
	ch := New("#osu", "general", "", 0, 0, true, resolver, nil, nil)
	a := &fakeMember{id: 1, name: "a"}
	b := &fakeMember{id: 2, name: "b"}
	resolver.byID[1], resolver.byID[2] = a, b

	if err := ch.Add(a); err != nil {
		t.Fatalf("Add(a): %v", err)
	}
	if err := ch.Add(b); err != nil {
		t.Fatalf("Add(b): %v", err)
	}

	if len(a.sent) == 0 || a.sent[0] != versions.KindChannelJoinSuccess {
		t.Errorf("a.sent = %v, want first entry KindChannelJoinSuccess", a.sent)
	}
	if !ch.Has(1) || !ch.Has(2) {
		t.Errorf("membership not recorded")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	resolver := &fakeResolver{byID: map[int32]Member{}}
	ch := New("#osu", "", "", 0, 0, true, resolver, nil, nil)
	ch.Remove(99)
	ch.Remove(99)
	if ch.Has(99) {
		t.Errorf("Has(99) = true after Remove")
	}
}

func TestSendMessageExcludesSenderAndDeliversToOthers(t *testing.T) {
	resolver := &fakeResolver{byID: map[int32]Member{}}
	ch := New("#osu", "", "", 0, 0, true, resolver, nil, nil)
	a := &fakeMember{id: 1, name: "a"}
	b := &fakeMember{id: 2, name: "b"}
	resolver.byID[1], resolver.byID[2] = a, b
	ch.Add(a)
	ch.Add(b)
	a.sent, b.sent = nil, nil

	if err := ch.SendMessage(context.Background(), a, "hello", false); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(a.sent) != 0 {
		t.Errorf("sender received its own message: %v", a.sent)
	}
	if len(b.sent) != 1 || b.sent[0] != versions.KindSendMessage {
		t.Errorf("b.sent = %v, want one KindSendMessage", b.sent)
	}
}

func TestSendMessageConvertsSlashMe(t *testing.T) {
	resolver := &fakeResolver{byID: map[int32]Member{}}
	ch := New("#osu", "", "", 0, 0, true, resolver, nil, nil)
	a := &fakeMember{id: 1, name: "a"}
	b := &fakeMember{id: 2, name: "b"}
	resolver.byID[1], resolver.byID[2] = a, b
	ch.Add(a)
	ch.Add(b)
	b.sent = nil

	if err := ch.SendMessage(context.Background(), a, "/me waves", false); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(b.sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(b.sent))
	}
	if want := "\x01ACTION waves\x01"; len(b.texts) != 1 || b.texts[0] != want {
		t.Errorf("b.texts = %q, want [%q]", b.texts, want)
	}
}

func TestSendMessageTruncatesLongBody(t *testing.T) {
	resolver := &fakeResolver{byID: map[int32]Member{}}
	ch := New("#osu", "", "", 0, 0, true, resolver, nil, nil)
	a := &fakeMember{id: 1, name: "a"}
	b := &fakeMember{id: 2, name: "b"}
	resolver.byID[1], resolver.byID[2] = a, b
	ch.Add(a)
	ch.Add(b)

	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	if err := ch.SendMessage(context.Background(), a, string(long), false); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	want := strings.Repeat("x", maxBodyBytes) + "… (truncated)"
	if len(b.texts) != 1 || b.texts[0] != want {
		t.Errorf("b received %d message(s), want one of %d bytes ending in the truncation marker", len(b.texts), len(want))
	}
}

func TestSendMessageForwardsBangCommandsWithoutBroadcast(t *testing.T) {
	resolver := &fakeResolver{byID: map[int32]Member{}}
	ch := New("#osu", "", "", 0, 0, true, resolver, nil, nil)
	a := &fakeMember{id: 1, name: "a"}
	b := &fakeMember{id: 2, name: "b"}
	resolver.byID[1], resolver.byID[2] = a, b
	ch.Add(a)
	ch.Add(b)
	b.sent = nil

	if err := ch.SendMessage(context.Background(), a, "!roll", false); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(b.sent) != 0 {
		t.Errorf("bang command was broadcast: %v", b.sent)
	}
}

func TestModeratedChannelSuppressesOrdinaryMembers(t *testing.T) {
	resolver := &fakeResolver{byID: map[int32]Member{}}
	ch := New("#moderated", "", "", 0, 1, true, resolver, nil, nil)
	ch.Moderated = true
	a := &fakeMember{id: 1, name: "a", perms: 1}
	b := &fakeMember{id: 2, name: "b", perms: 1}
	resolver.byID[1], resolver.byID[2] = a, b
	ch.Add(a)
	ch.Add(b)
	b.sent = nil

	if err := ch.SendMessage(context.Background(), a, "hello", false); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(b.sent) != 0 {
		t.Errorf("moderated channel did not suppress ordinary member: %v", b.sent)
	}
}
