package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chordwave/lobby/internal/channel"
	"github.com/chordwave/lobby/internal/logging"
	"github.com/chordwave/lobby/internal/match"
	"github.com/chordwave/lobby/internal/store"
	"github.com/chordwave/lobby/internal/versions"
)

// chatRateSilence is the auto-silence duration a chat-rate breach imposes
// (spec.md §8 scenario 5: "55s window, 401st message, SILENCE_INFO
// remaining=60").
const chatRateSilence = 60 * time.Second

// handlerFunc is the typed function value every request PacketKind maps to
// (spec.md §9 design note: "handler table as a static map from packet-kind
// to typed function value").
type handlerFunc func(e *Engine, sess *Session, args any)

var handlers = map[versions.PacketKind]handlerFunc{
	versions.KindChangeStatus:        (*Engine).handleChangeStatus,
	versions.KindSendMessage:         (*Engine).handleSendMessage,
	versions.KindSendPrivateMsg:      (*Engine).handleSendPrivateMsg,
	versions.KindStartSpectating:     (*Engine).handleStartSpectating,
	versions.KindStopSpectating:      (*Engine).handleStopSpectating,
	versions.KindSpectateFramesReq:   (*Engine).handleSpectateFramesReq,
	versions.KindCantSpectateReq:     (*Engine).handleCantSpectateReq,
	versions.KindChannelJoinReq:      (*Engine).handleChannelJoinReq,
	versions.KindChannelPartReq:      (*Engine).handleChannelPartReq,
	versions.KindCreateMatch:         (*Engine).handleCreateMatch,
	versions.KindJoinMatch:           (*Engine).handleJoinMatch,
	versions.KindPartMatch:           (*Engine).handlePartMatch,
	versions.KindMatchChangeSlot:     (*Engine).handleMatchChangeSlot,
	versions.KindMatchLock:           (*Engine).handleMatchLock,
	versions.KindMatchChangeTeam:     (*Engine).handleMatchChangeTeam,
	versions.KindMatchChangeSettings: (*Engine).handleMatchChangeSettings,
	versions.KindMatchReady:          (*Engine).handleMatchReady,
	versions.KindMatchNotReady:       (*Engine).handleMatchNotReady,
	versions.KindMatchStartReq:       (*Engine).handleMatchStartReq,
	versions.KindMatchLoadComplete:   (*Engine).handleMatchLoadComplete,
	versions.KindMatchSkipReq:        (*Engine).handleMatchSkipReq,
	versions.KindMatchFailed:         (*Engine).handleMatchFailed,
	versions.KindMatchScoreUpdateReq: (*Engine).handleMatchScoreUpdateReq,
	versions.KindMatchCompleteReq:    (*Engine).handleMatchCompleteReq,
	versions.KindMatchAbort:          (*Engine).handleMatchAbort,
	versions.KindInviteReq:           (*Engine).handleInviteReq,
	versions.KindSetAwayMessage:      (*Engine).handleSetAwayMessage,
}

// dispatch runs the handler registered for kind, if any (spec.md §7:
// "missing handler for a known packet: log at warn, continue").
func (e *Engine) dispatch(sess *Session, kind versions.PacketKind, args any) {
	h, ok := handlers[kind]
	if !ok {
		logging.Warnf("session %d: no handler for %s", sess.ID(), kind)
		return
	}
	h(e, sess, args)
}

func matchChannelName(id int32) string {
	return fmt.Sprintf("#multi_%d", id)
}

func (e *Engine) handleChangeStatus(sess *Session, args any) {
	stats, ok := args.(versions.StatsArgs)
	if !ok {
		return
	}
	sess.SetStats(stats)
	for _, other := range e.Sessions.Snapshot() {
		if other.ID() == sess.ID() {
			continue
		}
		if otherSess, ok := other.(*Session); ok {
			e.sendPresenceAndStats(otherSess, e.presenceArgs(sess), sess.Stats())
		}
	}
}

// handleSendMessage and handleSendPrivateMsg both funnel through
// routeChatMessage: the wire shape differs (SEND_MESSAGE carries a redundant
// sender name/id the server ignores; SEND_PRIVATE_MESSAGE omits it) but the
// routing rule — '#'-prefixed target is a channel, anything else a username
// — is the same.
func (e *Engine) handleSendMessage(sess *Session, args any) {
	a, ok := args.(versions.SendMessageArgs)
	if !ok {
		return
	}
	e.routeChatMessage(sess, a.Target, a.Text)
}

func (e *Engine) handleSendPrivateMsg(sess *Session, args any) {
	a, ok := args.(versions.SendMessageArgs)
	if !ok {
		return
	}
	e.routeChatMessage(sess, a.Target, a.Text)
}

// routeChatMessage implements spec.md §4.7's chat rate law and routing:
// a silenced sender is dropped silently; a breach of the per-session token
// bucket auto-silences for chatRateSilence and records an infringement;
// otherwise the body goes to a channel (target starts with '#') or a named
// recipient.
func (e *Engine) routeChatMessage(sess *Session, target, text string) {
	if sess.IsSilenced() {
		return
	}
	if !sess.AllowChatMessage() {
		sess.Silence(chatRateSilence)
		if e.store.Infringements != nil {
			e.store.Infringements.Create(context.Background(), store.Infringement{
				UserID:      sess.ID(),
				Action:      1,
				Length:      chatRateSilence,
				Description: "Chat spamming",
				At:          time.Now(),
			})
		}
		sess.Enqueue(versions.KindSilenceInfo, versions.SilenceInfoArgs{RemainingSeconds: int32(chatRateSilence / time.Second)})
		return
	}

	if len(target) > 0 && target[0] == '#' {
		ch, ok := e.Channels.Lookup(target)
		if !ok {
			return
		}
		if err := ch.SendMessage(sess.Context(), sess, text, true); err != nil {
			logging.Debugf("session %d: send to %s: %v", sess.ID(), target, err)
		}
		if e.metrics != nil {
			e.metrics.MessagesTotal.Inc()
		}
		return
	}

	// A command, or anything addressed to the bot principal, never reaches
	// LookupByName — the bot has no live Session (spec.md §4.7: "any message
	// sent directly to the bot principal... routed to the command
	// interpreter").
	if strings.HasPrefix(text, "!") || strings.EqualFold(target, botName) {
		if e.Commands != nil {
			e.Commands.Handle(sess.Context(), sess, text)
		}
		return
	}

	recipient, ok := e.Sessions.LookupByName(target)
	if !ok {
		return
	}
	recipientSess, ok := recipient.(*Session)
	if ok && recipientSess.IsSilenced() {
		sess.Enqueue(versions.KindTargetIsSilenced, versions.ChannelInfoArgs{Name: recipient.Name()})
		return
	}

	if ok && recipientSess.FriendOnlyDMs() && !e.isFriendOf(recipient.ID(), sess.ID()) {
		sess.Enqueue(versions.KindUserDMBlocked, versions.ChannelInfoArgs{Name: sess.Name()})
		return
	}

	if ok {
		if away := recipientSess.AwayMessage(); away != "" {
			sess.Enqueue(versions.KindSendMessage, versions.SendMessageArgs{
				Sender:   recipientSess.Name(),
				Text:     "\x01ACTION is away: " + away + "\x01",
				Target:   recipientSess.Name(),
				SenderID: recipientSess.ID(),
			})
		}
	}

	dm := versions.SendMessageArgs{
		Sender:   sess.Name(),
		Text:     text,
		Target:   sess.Name(),
		SenderID: sess.ID(),
	}
	recipient.Enqueue(versions.KindSendMessage, dm)
	excludePort := ""
	if recipientSess != nil {
		excludePort = recipientSess.RemoteAddr()
	}
	for _, stream := range e.tourneyStreamsOf(recipient.ID(), excludePort) {
		stream.Enqueue(versions.KindSendMessage, dm)
	}
	if e.metrics != nil {
		e.metrics.MessagesTotal.Inc()
	}
}

// isFriendOf reports whether senderID appears in targetID's friends list —
// the check a friend-only-DMs target imposes on every would-be sender
// (spec.md §4.7).
func (e *Engine) isFriendOf(targetID, senderID int32) bool {
	if e.store.Relationships == nil {
		return false
	}
	friends, err := e.store.Relationships.Friends(context.Background(), targetID)
	if err != nil {
		return false
	}
	for _, id := range friends {
		if id == senderID {
			return true
		}
	}
	return false
}

// handleSetAwayMessage stores or clears sess's away-status text and
// confirms the change via a bot-named private message (spec.md §4.7).
func (e *Engine) handleSetAwayMessage(sess *Session, args any) {
	a, ok := args.(versions.AwayMessageArgs)
	if !ok {
		return
	}
	if sess.AwayMessage() == "" && a.Text == "" {
		return
	}

	var confirmText string
	if a.Text != "" {
		sess.SetAwayMessage(a.Text)
		confirmText = "You have been marked as away: " + a.Text
	} else {
		sess.SetAwayMessage("")
		confirmText = "You are no longer marked as being away"
	}
	sess.Enqueue(versions.KindSendMessage, versions.SendMessageArgs{
		Sender:   botName,
		SenderID: botID,
		Text:     confirmText,
		Target:   sess.Name(),
	})
}

func (e *Engine) handleStartSpectating(sess *Session, args any) {
	a, ok := args.(versions.SpectateArgs)
	if !ok {
		return
	}
	if err := e.Spectators.Start(sess, a.UserID, e.Sessions); err != nil {
		sess.Enqueue(versions.KindCantSpectate, versions.SpectateArgs{UserID: a.UserID})
	}
}

func (e *Engine) handleStopSpectating(sess *Session, _ any) {
	e.Spectators.Stop(sess)
}

func (e *Engine) handleSpectateFramesReq(sess *Session, args any) {
	a, ok := args.(versions.SpectateFramesArgs)
	if !ok {
		return
	}
	e.Spectators.SendFrames(sess, a.Bundle)
}

func (e *Engine) handleCantSpectateReq(sess *Session, _ any) {
	e.Spectators.CantSpectate(sess)
}

func (e *Engine) handleChannelJoinReq(sess *Session, args any) {
	a, ok := args.(versions.ChannelInfoArgs)
	if !ok {
		return
	}
	ch, ok := e.Channels.Lookup(a.Name)
	if !ok {
		return
	}
	if err := ch.Add(sess); err == nil {
		sess.JoinedChannel(a.Name)
	}
}

func (e *Engine) handleChannelPartReq(sess *Session, args any) {
	a, ok := args.(versions.ChannelInfoArgs)
	if !ok {
		return
	}
	if ch, ok := e.Channels.Lookup(a.Name); ok {
		ch.Remove(sess.ID())
	}
	sess.LeftChannel(a.Name)
}

// matchHooks builds the collaborator bundle a new Match needs: the archive
// stores, the lobby-wide NEW_MATCH/DISBAND_MATCH broadcast, and a disband
// callback that drops the match and its chat channel from both registries
// (spec.md §4.5, §4.3).
func (e *Engine) matchHooks(ch *channel.Channel) match.Hooks {
	return match.Hooks{
		Events:         e.store.Events,
		Matches:        e.store.Matches,
		Chat:           ch,
		BroadcastLobby: e.Sessions.Broadcast,
		OnDisband: func(id int32) {
			e.Matches.Unregister(id)
			e.Channels.Unregister(matchChannelName(id))
			if e.metrics != nil {
				e.metrics.MatchesActive.Dec()
			}
		},
	}
}

func (e *Engine) handleCreateMatch(sess *Session, args any) {
	if sess.Match() != nil {
		return
	}
	state, ok := args.(versions.MatchState)
	if !ok {
		return
	}
	id, err := e.Matches.Allocate()
	if err != nil {
		sess.Enqueue(versions.KindMatchJoinFail, versions.MatchJoinFailArgs{})
		return
	}

	chName := matchChannelName(id)
	ch := channel.New(chName, state.Name, sess.Name(), 0, 0, false, e.Sessions, e.messagePersister(), e.Commands)

	m, err := match.New(sess.Context(), id, state.Name, state.Password, sess, state.BeatmapID, state.BeatmapMD5, state.BeatmapName, state.Mode, e.matchHooks(ch))
	if err != nil {
		e.Matches.Unregister(id)
		sess.Enqueue(versions.KindMatchJoinFail, versions.MatchJoinFailArgs{})
		return
	}
	e.Matches.Register(id, m)
	e.Channels.Register(ch)
	ch.Add(sess)
	sess.JoinedChannel(chName)
	sess.SetMatch(m)
	if e.metrics != nil {
		e.metrics.MatchesActive.Inc()
	}
	sess.Enqueue(versions.KindMatchJoinSuccess, m.State())
}

func (e *Engine) handleJoinMatch(sess *Session, args any) {
	if sess.Match() != nil {
		return
	}
	a, ok := args.(versions.MatchJoinArgs)
	if !ok {
		return
	}
	m, ok := e.Matches.Lookup(a.MatchID)
	if !ok {
		sess.Enqueue(versions.KindMatchJoinFail, versions.MatchJoinFailArgs{})
		return
	}
	if _, err := m.Join(sess.Context(), sess, a.Password); err != nil {
		sess.Enqueue(versions.KindMatchJoinFail, versions.MatchJoinFailArgs{})
		return
	}
	sess.SetMatch(m)
	chName := matchChannelName(m.ID)
	if ch, ok := e.Channels.Lookup(chName); ok {
		if err := ch.Add(sess); err == nil {
			sess.JoinedChannel(chName)
		}
	}
	sess.Enqueue(versions.KindMatchJoinSuccess, m.State())
}

func (e *Engine) handlePartMatch(sess *Session, _ any) {
	m := sess.Match()
	if m == nil {
		return
	}
	chName := matchChannelName(m.ID)
	m.Leave(sess.Context(), sess.ID())
	sess.SetMatch(nil)
	if ch, ok := e.Channels.Lookup(chName); ok {
		ch.Remove(sess.ID())
	}
	sess.LeftChannel(chName)
}

func (e *Engine) handleMatchChangeSlot(sess *Session, args any) {
	m := sess.Match()
	a, ok := args.(versions.Int32Arg)
	if m == nil || !ok {
		return
	}
	m.ChangeSlot(sess.ID(), int(a.Code))
}

func (e *Engine) handleMatchLock(sess *Session, args any) {
	m := sess.Match()
	a, ok := args.(versions.Int32Arg)
	if m == nil || !ok {
		return
	}
	m.Lock(sess.ID(), int(a.Code))
}

func (e *Engine) handleMatchChangeTeam(sess *Session, _ any) {
	if m := sess.Match(); m != nil {
		m.ChangeTeam(sess.ID())
	}
}

func (e *Engine) handleMatchChangeSettings(sess *Session, args any) {
	m := sess.Match()
	state, ok := args.(versions.MatchState)
	if m == nil || !ok {
		return
	}
	err := m.ChangeSettings(sess.ID(), state.Name, state.Password, match.TeamMode(state.TeamMode), match.ScoringMode(state.ScoringMode),
		state.BeatmapID, state.BeatmapMD5, state.BeatmapName, state.Mods, state.Freemod)
	if err != nil || !state.Freemod {
		return
	}
	// Freemod: the submitting client's own per-slot mods ride along in its
	// MatchState even though the server is the mod source of truth for
	// everyone else's slot (spec.md §9 freemod design note).
	for _, slot := range state.Slots {
		if slot.UserID == sess.ID() {
			m.ChangeSlotMods(sess.ID(), slot.Mods)
			return
		}
	}
}

func (e *Engine) handleMatchReady(sess *Session, _ any) {
	if m := sess.Match(); m != nil {
		m.Ready(sess.ID(), true)
	}
}

func (e *Engine) handleMatchNotReady(sess *Session, _ any) {
	if m := sess.Match(); m != nil {
		m.Ready(sess.ID(), false)
	}
}

func (e *Engine) handleMatchStartReq(sess *Session, _ any) {
	if m := sess.Match(); m != nil {
		m.Start(sess.Context(), sess.ID())
	}
}

func (e *Engine) handleMatchLoadComplete(sess *Session, _ any) {
	if m := sess.Match(); m != nil {
		m.LoadComplete(sess.ID())
	}
}

func (e *Engine) handleMatchSkipReq(sess *Session, _ any) {
	if m := sess.Match(); m != nil {
		m.Skip(sess.ID())
	}
}

func (e *Engine) handleMatchFailed(sess *Session, _ any) {
	if m := sess.Match(); m != nil {
		m.Failed(sess.ID())
	}
}

func (e *Engine) handleMatchScoreUpdateReq(sess *Session, args any) {
	m := sess.Match()
	frame, ok := args.(versions.ScoreFrameArgs)
	if m == nil || !ok {
		return
	}
	m.ScoreUpdate(sess.ID(), frame)
	if e.metrics != nil {
		e.metrics.ScoreFramesTotal.Inc()
	}
}

func (e *Engine) handleMatchCompleteReq(sess *Session, _ any) {
	if m := sess.Match(); m != nil {
		m.Complete(sess.Context(), sess.ID())
	}
}

func (e *Engine) handleMatchAbort(sess *Session, _ any) {
	if m := sess.Match(); m != nil {
		m.Abort(sess.ID())
	}
}

// handleInviteReq sends the calling player's current match as an INVITE
// packet to a cohort that supports it, or the equivalent osump:// chat
// message (match.InviteBody) otherwise.
func (e *Engine) handleInviteReq(sess *Session, args any) {
	m := sess.Match()
	a, ok := args.(versions.SendMessageArgs)
	if m == nil || !ok {
		return
	}
	target, ok := e.Sessions.LookupByName(a.Target)
	if !ok {
		return
	}
	targetSess, ok := target.(*Session)
	if ok && targetSess.Cohort() != nil && targetSess.Cohort().Supports(versions.KindInvite) {
		target.Enqueue(versions.KindInvite, versions.InviteArgs{Text: m.InviteBody()})
		return
	}
	target.Enqueue(versions.KindSendMessage, versions.SendMessageArgs{
		Sender:   botName,
		SenderID: botID,
		Text:     m.InviteBody(),
		Target:   target.Name(),
	})
}
