// Package channel implements the named chat room (spec.md §4.4): read/write
// permission masks, a member set, and the broadcast primitive every other
// fan-out surface (lobby, spectator, match chat) is built on top of.
package channel

import (
	"context"
	"strings"
	"sync"

	"github.com/chordwave/lobby/internal/versions"
)

const maxBodyBytes = 512

// Member is the narrow view a channel needs of a session: just enough to
// fan a packet out and check permissions. internal/session's Session type
// satisfies this structurally — channel never imports session, per the
// registry-cycle design note (spec.md §9).
type Member interface {
	ID() int32
	Name() string
	Permissions() uint8
	Enqueue(kind versions.PacketKind, args any)
}

// Resolver turns a member id into a live Member, since a Channel holds only
// ids in its member set (spec.md §9: "represent channel members as a set of
// session ids, not owning references").
type Resolver interface {
	Lookup(id int32) (Member, bool)
}

// Persister schedules a message-store write off the read path (spec.md §4.4
// "if persist, a write to the external message store is scheduled on a
// worker"). Channel never blocks waiting on it.
type Persister interface {
	PersistMessage(ctx context.Context, channelName, sender, text string)
}

// Commands receives any body starting with '!' instead of a broadcast.
type Commands interface {
	Handle(ctx context.Context, sender Member, body string)
}

// Channel is a named chat room with permission masks and a broadcast set.
type Channel struct {
	Name      string
	Topic     string
	OwnerName string
	ReadPerm  uint8 // 0 means "everyone"
	WritePerm uint8
	Public    bool
	Moderated bool

	resolver  Resolver
	persister Persister
	commands  Commands

	mu      sync.RWMutex
	members map[int32]struct{}
}

// New constructs a channel. resolver/persister/commands may be nil in tests
// that never exercise the paths needing them.
func New(name, topic, owner string, readPerm, writePerm uint8, public bool, resolver Resolver, persister Persister, commands Commands) *Channel {
	return &Channel{
		Name:      name,
		Topic:     topic,
		OwnerName: owner,
		ReadPerm:  readPerm,
		WritePerm: writePerm,
		Public:    public,
		resolver:  resolver,
		persister: persister,
		commands:  commands,
		members:   make(map[int32]struct{}),
	}
}

func hasPerm(memberPerm, required uint8) bool {
	return required == 0 || memberPerm&required != 0
}

// ErrNoReadPermission is returned by Add when the member's permission
// bitmask does not satisfy ReadPerm.
var ErrNoReadPermission = channelError("channel: no read permission")

type channelError string

func (e channelError) Error() string { return string(e) }

// Add validates read permission, inserts the member, announces success to
// the joiner, and refreshes the channel panel (member count) for everyone.
func (c *Channel) Add(member Member) error {
	if !hasPerm(member.Permissions(), c.ReadPerm) {
		return ErrNoReadPermission
	}

	c.mu.Lock()
	c.members[member.ID()] = struct{}{}
	count := len(c.members)
	c.mu.Unlock()

	member.Enqueue(versions.KindChannelJoinSuccess, versions.ChannelInfoArgs{Name: c.Name})
	c.broadcastInfo(count)
	return nil
}

// Remove is idempotent.
func (c *Channel) Remove(memberID int32) {
	c.mu.Lock()
	_, existed := c.members[memberID]
	delete(c.members, memberID)
	count := len(c.members)
	c.mu.Unlock()
	if existed {
		c.broadcastInfo(count)
	}
}

// Has reports membership, used by the spectator package to check whether
// the host already sits in its spectator channel, and by tests.
func (c *Channel) Has(memberID int32) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.members[memberID]
	return ok
}

// MemberCount returns a point-in-time count.
func (c *Channel) MemberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members)
}

// Members returns a stable snapshot of ids, never a live reference.
func (c *Channel) Members() []int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int32, 0, len(c.members))
	for id := range c.members {
		ids = append(ids, id)
	}
	return ids
}

func (c *Channel) broadcastInfo(memberCount int) {
	for _, id := range c.Members() {
		m, ok := c.resolver.Lookup(id)
		if !ok {
			continue
		}
		m.Enqueue(versions.KindChannelAvailable, versions.ChannelInfoArgs{
			Name:        c.Name,
			Topic:       c.Topic,
			MemberCount: int32(memberCount),
		})
	}
}

// SendMessage validates write permission and moderated-mode, converts /me
// to CTCP ACTION, truncates long bodies, forwards '!'-prefixed bodies to the
// command interpreter (never persisted through the chat path), and fans the
// rest out to every member except the sender.
func (c *Channel) SendMessage(ctx context.Context, sender Member, text string, persist bool) error {
	if !hasPerm(sender.Permissions(), c.WritePerm) {
		return ErrNoReadPermission
	}
	// Moderated channels suppress everyone but senders holding a permission
	// bit beyond the plain write requirement (mods/admins).
	if c.Moderated && sender.Permissions()&^c.WritePerm == 0 {
		return nil
	}

	if strings.HasPrefix(text, "!") {
		if c.commands != nil {
			c.commands.Handle(ctx, sender, text)
		}
		return nil
	}

	if strings.HasPrefix(text, "/me ") {
		text = "\x01ACTION " + strings.TrimPrefix(text, "/me ") + "\x01"
	}
	if len(text) > maxBodyBytes {
		text = text[:maxBodyBytes] + "… (truncated)"
	}

	for _, id := range c.Members() {
		if id == sender.ID() {
			continue
		}
		m, ok := c.resolver.Lookup(id)
		if !ok {
			continue
		}
		m.Enqueue(versions.KindSendMessage, versions.SendMessageArgs{
			Sender:   sender.Name(),
			Text:     text,
			Target:   c.Name,
			SenderID: sender.ID(),
		})
	}

	if persist && c.persister != nil {
		go c.persister.PersistMessage(ctx, c.Name, sender.Name(), text)
	}
	return nil
}
