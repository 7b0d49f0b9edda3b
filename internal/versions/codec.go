package versions

import (
	"bytes"
	"io"

	"github.com/chordwave/lobby/internal/wire"
)

// Codec pairs an encoder and a decoder for one logical packet under one
// cohort. Either half may be nil if the packet only ever flows in one
// direction.
type Codec struct {
	Encode func(w *bytes.Buffer, args any)
	Decode func(r io.Reader) (any, error)
}

func encodeLoginReply(w *bytes.Buffer, args any) {
	a := args.(LoginReplyArgs)
	wire.WriteInt32(w, a.Code)
}

// encodeLoginReplyClamped is the 590/558 override: error codes below -2 are
// clamped to -1 before writing.
func encodeLoginReplyClamped(w *bytes.Buffer, args any) {
	a := args.(LoginReplyArgs)
	if a.Code < -2 {
		a.Code = -1
	}
	wire.WriteInt32(w, a.Code)
}

func encodeProtocolVersion(w *bytes.Buffer, args any) {
	a := args.(ProtocolVersionArgs)
	wire.WriteInt32(w, a.Version)
}

func encodePing(w *bytes.Buffer, args any) {}

func encodeAnnounce(w *bytes.Buffer, args any) {
	a := args.(AnnounceArgs)
	wire.WriteString(w, a.Text)
}

func encodePresence(w *bytes.Buffer, args any) {
	a := args.(PresenceArgs)
	wire.WriteInt32(w, a.UserID)
	wire.WriteString(w, a.Name)
	wire.WriteUint8(w, a.CountryCode)
	wire.WriteUint8(w, a.Permissions)
	wire.WriteUint8(w, a.Mode)
	wire.WriteInt8(w, a.UTCOffset)
	wire.WriteInt32(w, a.LatitudeE6)
	wire.WriteInt32(w, a.LongitudeE6)
	wire.WriteInt32(w, a.Rank)
}

func decodePresence(r io.Reader) (any, error) {
	var a PresenceArgs
	var err error
	if a.UserID, err = wire.ReadInt32(r); err != nil {
		return nil, err
	}
	if a.Name, err = wire.ReadString(r); err != nil {
		return nil, err
	}
	if a.CountryCode, err = wire.ReadUint8(r); err != nil {
		return nil, err
	}
	if a.Permissions, err = wire.ReadUint8(r); err != nil {
		return nil, err
	}
	if a.Mode, err = wire.ReadUint8(r); err != nil {
		return nil, err
	}
	if a.UTCOffset, err = wire.ReadInt8(r); err != nil {
		return nil, err
	}
	if a.LatitudeE6, err = wire.ReadInt32(r); err != nil {
		return nil, err
	}
	if a.LongitudeE6, err = wire.ReadInt32(r); err != nil {
		return nil, err
	}
	if a.Rank, err = wire.ReadInt32(r); err != nil {
		return nil, err
	}
	return a, nil
}

func encodeStats(w *bytes.Buffer, args any) {
	a := args.(StatsArgs)
	wire.WriteInt32(w, a.UserID)
	wire.WriteUint8(w, a.Action)
	wire.WriteString(w, a.ActionText)
	wire.WriteString(w, a.BeatmapMD5)
	wire.WriteUint32(w, a.Mods)
	wire.WriteUint8(w, a.Mode)
	wire.WriteInt32(w, a.BeatmapID)
	wire.WriteInt64(w, a.RankedScore)
	wire.WriteFloat32(w, a.Accuracy)
	wire.WriteInt32(w, a.PlayCount)
	wire.WriteInt64(w, a.TotalScore)
	wire.WriteInt32(w, a.GlobalRank)
	wire.WriteInt16(w, a.PP)
}

func decodeStats(r io.Reader) (any, error) {
	var a StatsArgs
	var err error
	if a.UserID, err = wire.ReadInt32(r); err != nil {
		return nil, err
	}
	if a.Action, err = wire.ReadUint8(r); err != nil {
		return nil, err
	}
	if a.ActionText, err = wire.ReadString(r); err != nil {
		return nil, err
	}
	if a.BeatmapMD5, err = wire.ReadString(r); err != nil {
		return nil, err
	}
	if a.Mods, err = wire.ReadUint32(r); err != nil {
		return nil, err
	}
	if a.Mode, err = wire.ReadUint8(r); err != nil {
		return nil, err
	}
	if a.BeatmapID, err = wire.ReadInt32(r); err != nil {
		return nil, err
	}
	if a.RankedScore, err = wire.ReadInt64(r); err != nil {
		return nil, err
	}
	if a.Accuracy, err = wire.ReadFloat32(r); err != nil {
		return nil, err
	}
	if a.PlayCount, err = wire.ReadInt32(r); err != nil {
		return nil, err
	}
	if a.TotalScore, err = wire.ReadInt64(r); err != nil {
		return nil, err
	}
	if a.GlobalRank, err = wire.ReadInt32(r); err != nil {
		return nil, err
	}
	if a.PP, err = wire.ReadInt16(r); err != nil {
		return nil, err
	}
	return a, nil
}

func encodeCombinedPresenceStats(w *bytes.Buffer, args any) {
	a := args.(CombinedPresenceStatsArgs)
	encodeStats(w, a.Stats)
	encodePresence(w, a.Presence)
}

// encodeCombinedPresenceStatsWithUpdateFlag is the cohort <= 319 override
// folded into the 323 cohort's encoder: an extra leading "update" bool.
func encodeCombinedPresenceStatsWithUpdateFlag(w *bytes.Buffer, args any) {
	a := args.(CombinedPresenceStatsArgs)
	wire.WriteBool(w, a.Update)
	encodeStats(w, a.Stats)
	encodePresence(w, a.Presence)
}

func encodePresenceBundle(w *bytes.Buffer, args any) {
	a := args.(PresenceBundleArgs)
	wire.WriteList16(w, a.UserIDs, wire.WriteInt32)
}

func encodeUserQuit(w *bytes.Buffer, args any) {
	a := args.(UserQuitArgs)
	wire.WriteInt32(w, a.UserID)
	wire.WriteUint8(w, a.State)
}

func encodeIRCEntity(w *bytes.Buffer, args any) {
	a := args.(IRCEntityArgs)
	wire.WriteString(w, a.Name)
}

func encodeSendMessage(w *bytes.Buffer, args any) {
	a := args.(SendMessageArgs)
	wire.WriteString(w, a.Sender)
	wire.WriteString(w, a.Text)
	wire.WriteString(w, a.Target)
	wire.WriteInt32(w, a.SenderID)
}

func decodeSendMessage(r io.Reader) (any, error) {
	var a SendMessageArgs
	var err error
	if a.Sender, err = wire.ReadString(r); err != nil {
		return nil, err
	}
	if a.Text, err = wire.ReadString(r); err != nil {
		return nil, err
	}
	if a.Target, err = wire.ReadString(r); err != nil {
		return nil, err
	}
	if a.SenderID, err = wire.ReadInt32(r); err != nil {
		return nil, err
	}
	return a, nil
}

func decodePrivateMessageReq(r io.Reader) (any, error) {
	var a SendMessageArgs
	var err error
	if a.Text, err = wire.ReadString(r); err != nil {
		return nil, err
	}
	if a.Target, err = wire.ReadString(r); err != nil {
		return nil, err
	}
	return a, nil
}

func encodeChannelInfo(w *bytes.Buffer, args any) {
	a := args.(ChannelInfoArgs)
	wire.WriteString(w, a.Name)
	wire.WriteString(w, a.Topic)
	wire.WriteInt32(w, a.MemberCount)
}

func encodeChannelName(w *bytes.Buffer, args any) {
	a := args.(ChannelInfoArgs)
	wire.WriteString(w, a.Name)
}

func encodeSilenceInfo(w *bytes.Buffer, args any) {
	a := args.(SilenceInfoArgs)
	wire.WriteInt32(w, a.RemainingSeconds)
}

func encodeUserID(w *bytes.Buffer, args any) {
	var id int32
	switch a := args.(type) {
	case UserSilencedArgs:
		id = a.UserID
	case SpectateArgs:
		id = a.UserID
	case LobbyMembershipArgs:
		id = a.UserID
	}
	wire.WriteInt32(w, id)
}

func decodeUserID(r io.Reader) (any, error) {
	id, err := wire.ReadInt32(r)
	if err != nil {
		return nil, err
	}
	return SpectateArgs{UserID: id}, nil
}

func encodeSpectateFrames(w *bytes.Buffer, args any) {
	a := args.(SpectateFramesArgs)
	w.Write(a.Bundle)
}

func decodeSpectateFrames(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return SpectateFramesArgs{Bundle: data}, nil
}

func encodeBeatmapInfo(w *bytes.Buffer, args any) {
	a := args.(BeatmapInfoArgs)
	w.Write(a.Results)
}

func encodeInvite(w *bytes.Buffer, args any) {
	a := args.(InviteArgs)
	wire.WriteString(w, a.Text)
}

func encodeMatchSlot(w *bytes.Buffer, s MatchSlot) {
	wire.WriteUint8(w, s.Status)
	wire.WriteUint8(w, s.Team)
	wire.WriteInt32(w, s.UserID)
	wire.WriteUint32(w, s.Mods)
	wire.WriteBool(w, s.Loaded)
	wire.WriteBool(w, s.Skipped)
	wire.WriteBool(w, s.Failed)
}

func decodeMatchSlot(r io.Reader) (MatchSlot, error) {
	var s MatchSlot
	var err error
	if s.Status, err = wire.ReadUint8(r); err != nil {
		return s, err
	}
	if s.Team, err = wire.ReadUint8(r); err != nil {
		return s, err
	}
	if s.UserID, err = wire.ReadInt32(r); err != nil {
		return s, err
	}
	if s.Mods, err = wire.ReadUint32(r); err != nil {
		return s, err
	}
	if s.Loaded, err = wire.ReadBool(r); err != nil {
		return s, err
	}
	if s.Skipped, err = wire.ReadBool(r); err != nil {
		return s, err
	}
	if s.Failed, err = wire.ReadBool(r); err != nil {
		return s, err
	}
	return s, nil
}

// encodeMatchState writes the full 8-slot table used by modern cohorts.
func encodeMatchState(w *bytes.Buffer, m MatchState) {
	wire.WriteInt32(w, m.ID)
	wire.WriteBool(w, m.InProgress)
	wire.WriteString(w, m.Name)
	wire.WriteString(w, m.Password)
	wire.WriteString(w, m.BeatmapName)
	wire.WriteInt32(w, m.BeatmapID)
	wire.WriteString(w, m.BeatmapMD5)
	for i := 0; i < 8; i++ {
		encodeMatchSlot(w, m.Slots[i])
	}
	wire.WriteInt32(w, m.HostUserID)
	wire.WriteUint8(w, m.Mode)
	wire.WriteUint8(w, m.ScoringMode)
	wire.WriteUint8(w, m.TeamMode)
	wire.WriteBool(w, m.Freemod)
	if m.Freemod {
		for i := 0; i < 8; i++ {
			wire.WriteUint32(w, m.Slots[i].Mods)
		}
	}
	wire.WriteUint32(w, m.Mods)
	wire.WriteInt32(w, m.Seed)
}

// encodeMatchStateLegacyB323 reproduces the b323 shape: no freemod, no seed,
// no per-slot mods, and only four slots.
func encodeMatchStateLegacyB323(w *bytes.Buffer, m MatchState) {
	wire.WriteInt32(w, m.ID)
	wire.WriteBool(w, m.InProgress)
	wire.WriteString(w, m.Name)
	wire.WriteString(w, m.BeatmapName)
	wire.WriteInt32(w, m.BeatmapID)
	for i := 0; i < 4; i++ {
		s := m.Slots[i]
		wire.WriteUint8(w, s.Status)
		wire.WriteInt32(w, s.UserID)
	}
	wire.WriteInt32(w, m.HostUserID)
	wire.WriteUint8(w, m.Mode)
	wire.WriteUint32(w, m.Mods)
}

func decodeMatchState(r io.Reader) (MatchState, error) {
	var m MatchState
	var err error
	if m.ID, err = wire.ReadInt32(r); err != nil {
		return m, err
	}
	if m.InProgress, err = wire.ReadBool(r); err != nil {
		return m, err
	}
	if m.Name, err = wire.ReadString(r); err != nil {
		return m, err
	}
	if m.Password, err = wire.ReadString(r); err != nil {
		return m, err
	}
	if m.BeatmapName, err = wire.ReadString(r); err != nil {
		return m, err
	}
	if m.BeatmapID, err = wire.ReadInt32(r); err != nil {
		return m, err
	}
	if m.BeatmapMD5, err = wire.ReadString(r); err != nil {
		return m, err
	}
	for i := 0; i < 8; i++ {
		if m.Slots[i], err = decodeMatchSlot(r); err != nil {
			return m, err
		}
	}
	if m.HostUserID, err = wire.ReadInt32(r); err != nil {
		return m, err
	}
	if m.Mode, err = wire.ReadUint8(r); err != nil {
		return m, err
	}
	if m.ScoringMode, err = wire.ReadUint8(r); err != nil {
		return m, err
	}
	if m.TeamMode, err = wire.ReadUint8(r); err != nil {
		return m, err
	}
	if m.Freemod, err = wire.ReadBool(r); err != nil {
		return m, err
	}
	if m.Freemod {
		for i := 0; i < 8; i++ {
			if m.Slots[i].Mods, err = wire.ReadUint32(r); err != nil {
				return m, err
			}
		}
	}
	if m.Mods, err = wire.ReadUint32(r); err != nil {
		return m, err
	}
	if m.Seed, err = wire.ReadInt32(r); err != nil {
		return m, err
	}
	return m, nil
}

func encodeUpdateMatch(w *bytes.Buffer, args any) {
	a := args.(MatchState)
	encodeMatchState(w, a)
}

func encodeUpdateMatchLegacyB323(w *bytes.Buffer, args any) {
	a := args.(MatchState)
	encodeMatchStateLegacyB323(w, a)
}

func decodeUpdateMatch(r io.Reader) (any, error) {
	return decodeMatchState(r)
}

func encodeMatchStart(w *bytes.Buffer, args any) {
	a := args.(MatchStartArgs)
	encodeMatchState(w, a.State)
}

func encodeMatchID(w *bytes.Buffer, args any) {
	a := args.(LoginReplyArgs)
	wire.WriteInt32(w, a.Code)
}

func encodeScoreFrame(w *bytes.Buffer, args any) {
	a := args.(ScoreFrameArgs)
	wire.WriteInt32(w, a.SlotID)
	wire.WriteInt32(w, a.Time)
	wire.WriteUint16(w, a.Count300)
	wire.WriteUint16(w, a.Count100)
	wire.WriteUint16(w, a.Count50)
	wire.WriteUint16(w, a.CountGeki)
	wire.WriteUint16(w, a.CountKatu)
	wire.WriteUint16(w, a.CountMiss)
	wire.WriteInt32(w, a.TotalScore)
	wire.WriteUint16(w, a.MaxCombo)
	wire.WriteUint8(w, a.CurrentHP)
	wire.WriteBool(w, a.Perfect)
}

func decodeScoreFrame(r io.Reader) (any, error) {
	var a ScoreFrameArgs
	var err error
	if a.SlotID, err = wire.ReadInt32(r); err != nil {
		return nil, err
	}
	if a.Time, err = wire.ReadInt32(r); err != nil {
		return nil, err
	}
	if a.Count300, err = wire.ReadUint16(r); err != nil {
		return nil, err
	}
	if a.Count100, err = wire.ReadUint16(r); err != nil {
		return nil, err
	}
	if a.Count50, err = wire.ReadUint16(r); err != nil {
		return nil, err
	}
	if a.CountGeki, err = wire.ReadUint16(r); err != nil {
		return nil, err
	}
	if a.CountKatu, err = wire.ReadUint16(r); err != nil {
		return nil, err
	}
	if a.CountMiss, err = wire.ReadUint16(r); err != nil {
		return nil, err
	}
	if a.TotalScore, err = wire.ReadInt32(r); err != nil {
		return nil, err
	}
	if a.MaxCombo, err = wire.ReadUint16(r); err != nil {
		return nil, err
	}
	if a.CurrentHP, err = wire.ReadUint8(r); err != nil {
		return nil, err
	}
	if a.Perfect, err = wire.ReadBool(r); err != nil {
		return nil, err
	}
	return a, nil
}

// decodeNoArgs is used for request packets that carry no body.
func decodeNoArgs(r io.Reader) (any, error) { return nil, nil }

func decodeChannelName(r io.Reader) (any, error) {
	name, err := wire.ReadString(r)
	if err != nil {
		return nil, err
	}
	return ChannelInfoArgs{Name: name}, nil
}

// decodeAwayMessage reads SET_AWAY_MESSAGE's single free-text field; an
// empty string clears the away status (spec.md §4.7).
func decodeAwayMessage(r io.Reader) (any, error) {
	text, err := wire.ReadString(r)
	if err != nil {
		return nil, err
	}
	return AwayMessageArgs{Text: text}, nil
}

func decodeInt32Arg(r io.Reader) (any, error) {
	v, err := wire.ReadInt32(r)
	if err != nil {
		return nil, err
	}
	return LoginReplyArgs{Code: v}, nil
}

// MatchJoinArgs carries a join-match request: the target match id and the
// password the client supplied (empty if none).
type MatchJoinArgs struct {
	MatchID  int32
	Password string
}

func decodeJoinMatch(r io.Reader) (any, error) {
	var a MatchJoinArgs
	var err error
	if a.MatchID, err = wire.ReadInt32(r); err != nil {
		return nil, err
	}
	if a.Password, err = wire.ReadString(r); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeChangeStatus(r io.Reader) (any, error) {
	var a StatsArgs
	var err error
	if a.Action, err = wire.ReadUint8(r); err != nil {
		return nil, err
	}
	if a.ActionText, err = wire.ReadString(r); err != nil {
		return nil, err
	}
	if a.BeatmapMD5, err = wire.ReadString(r); err != nil {
		return nil, err
	}
	if a.Mods, err = wire.ReadUint32(r); err != nil {
		return nil, err
	}
	if a.Mode, err = wire.ReadUint8(r); err != nil {
		return nil, err
	}
	if a.BeatmapID, err = wire.ReadInt32(r); err != nil {
		return nil, err
	}
	return a, nil
}
