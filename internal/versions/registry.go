package versions

// Registry holds every built-in cohort keyed by its numeric identifier and
// resolves an arbitrary client-reported version to the nearest cohort.
type Registry struct {
	cohorts map[int]*Cohort
	keys    []int
}

// NewRegistry builds the built-in cohort chain: 20130815 (root, modern) with
// each older cohort deriving from the next-newer one and overriding only
// what actually changed, per spec.md §4.1/§9.
func NewRegistry() *Registry {
	modern := newCohort(20130815, nil)
	registerModernPackets(modern)

	c20121223 := newCohort(20121223, modern)
	c20121223.remove(KindUserPresenceSingle)
	c20121223.remove(KindUserPresenceBundle)

	c1710 := newCohort(1710, c20121223)
	c1710.remove(KindInvite)
	c1710.set(KindIRCJoin, idIRCJoin, Codec{Encode: encodeIRCEntity})
	c1710.set(KindIRCQuit, idIRCQuit, Codec{Encode: encodeIRCEntity})

	c1700 := newCohort(1700, c1710)
	c1700.remove(KindUserPresence)
	c1700.remove(KindUserStats)
	c1700.set(KindUserStatsPresenceCombined, idUserStatsCombined, Codec{Encode: encodeCombinedPresenceStats})

	c590 := newCohort(590, c1700)
	c590.set(KindLoginReply, idLoginReply, Codec{Encode: encodeLoginReplyClamped})

	c558 := newCohort(558, c590)
	c558.set(KindLoginReply, idLoginReply, Codec{Encode: encodeLoginReplyClamped})

	c323 := newCohort(323, c558)
	c323.set(KindUserStatsPresenceCombined, idUserStatsCombined, Codec{Encode: encodeCombinedPresenceStatsWithUpdateFlag})
	c323.set(KindUpdateMatch, idUpdateMatch, Codec{Encode: encodeUpdateMatchLegacyB323, Decode: decodeUpdateMatch})

	reg := &Registry{cohorts: make(map[int]*Cohort)}
	for _, c := range []*Cohort{modern, c20121223, c1710, c1700, c590, c558, c323} {
		reg.cohorts[c.Key] = c
		reg.keys = append(reg.keys, c.Key)
	}
	return reg
}

// Nearest resolves v to the built-in cohort minimizing |v-k|, ties breaking
// toward the older (smaller-key) cohort — spec.md §4.1/§8 version-snap law.
func (r *Registry) Nearest(v int) *Cohort {
	best := r.keys[0]
	bestDist := abs(v - best)
	for _, k := range r.keys[1:] {
		d := abs(v - k)
		if d < bestDist || (d == bestDist && k < best) {
			best = k
			bestDist = d
		}
	}
	return r.cohorts[best]
}

// Cohort looks up a built-in cohort by its exact key, mainly for tests.
func (r *Registry) Cohort(key int) (*Cohort, bool) {
	c, ok := r.cohorts[key]
	return c, ok
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Numeric wire ids for the modern (root) cohort. Legacy cohorts reuse these
// unless explicitly overridden above. Response ids and request ids are kept
// in disjoint ranges so KindByWireID never has to guess a direction.
const (
	idLoginReply          uint16 = 1
	idProtocolVersion     uint16 = 2
	idPing                uint16 = 3
	idAnnounce            uint16 = 4
	idMenuIcon            uint16 = 5
	idUserPresence        uint16 = 6
	idUserPresenceSingle  uint16 = 7
	idUserPresenceBundle  uint16 = 8
	idUserStats           uint16 = 9
	idUserQuit            uint16 = 10
	idSendMessage         uint16 = 11
	idLoginPermissions    uint16 = 12
	idChannelAvailable    uint16 = 13
	idChannelAvailableAJ  uint16 = 14
	idChannelJoinSuccess  uint16 = 15
	idChannelRevoked      uint16 = 16
	idChannelInfoComplete uint16 = 17
	idUserDMBlocked       uint16 = 18
	idTargetIsSilenced    uint16 = 19
	idUserSilenced        uint16 = 20
	idSilenceInfo         uint16 = 21
	idFriendsList         uint16 = 22
	idSpectatorJoined     uint16 = 23
	idSpectatorLeft       uint16 = 24
	idFellowSpecJoined    uint16 = 25
	idFellowSpecLeft      uint16 = 26
	idCantSpectate        uint16 = 27
	idSpectateFrames      uint16 = 28
	idLobbyJoin           uint16 = 29
	idLobbyPart           uint16 = 30
	idMatchJoinSuccess    uint16 = 31
	idMatchJoinFail       uint16 = 32
	idNewMatch            uint16 = 33
	idUpdateMatch         uint16 = 34
	idDisbandMatch        uint16 = 35
	idMatchStart          uint16 = 36
	idMatchScoreUpdate    uint16 = 37
	idMatchPlayerSkipped  uint16 = 38
	idMatchPlayerFailed   uint16 = 39
	idMatchAllLoaded      uint16 = 40
	idMatchTransferHost   uint16 = 41
	idMatchSkip           uint16 = 42
	idMatchComplete       uint16 = 43
	idBeatmapInfoReply    uint16 = 44
	idInvite              uint16 = 45
	idMonitor             uint16 = 46
	idIRCJoin             uint16 = 47
	idIRCQuit             uint16 = 48
	idUserStatsCombined   uint16 = 49

	idReqChangeStatus    uint16 = 1000
	idReqStartSpectating uint16 = 1001
	idReqStopSpectating  uint16 = 1002
	idReqSpectateFrames  uint16 = 1003
	idReqCantSpectate    uint16 = 1004
	idReqSendPrivateMsg  uint16 = 1005
	idReqChannelJoin     uint16 = 1006
	idReqChannelPart     uint16 = 1007
	idReqCreateMatch     uint16 = 1008
	idReqJoinMatch       uint16 = 1009
	idReqPartMatch       uint16 = 1010
	idReqMatchChangeSlot uint16 = 1011
	idReqMatchLock       uint16 = 1012
	idReqMatchChangeTeam uint16 = 1013
	idReqMatchSettings   uint16 = 1014
	idReqMatchReady      uint16 = 1015
	idReqMatchNotReady   uint16 = 1016
	idReqMatchStart      uint16 = 1017
	idReqMatchLoadOK     uint16 = 1018
	idReqMatchSkip       uint16 = 1019
	idReqMatchFailed     uint16 = 1020
	idReqMatchScoreUpd   uint16 = 1021
	idReqMatchComplete   uint16 = 1022
	idReqInvite          uint16 = 1023
	idReqMatchAbort      uint16 = 1024
	idReqSetAwayMessage  uint16 = 1025
)

func registerModernPackets(c *Cohort) {
	c.set(KindLoginReply, idLoginReply, Codec{Encode: encodeLoginReply})
	c.set(KindProtocolVersion, idProtocolVersion, Codec{Encode: encodeProtocolVersion})
	c.set(KindPing, idPing, Codec{Encode: encodePing})
	c.set(KindAnnounce, idAnnounce, Codec{Encode: encodeAnnounce})
	c.set(KindMenuIcon, idMenuIcon, Codec{Encode: encodeAnnounce})
	c.set(KindUserPresence, idUserPresence, Codec{Encode: encodePresence, Decode: decodePresence})
	c.set(KindUserPresenceSingle, idUserPresenceSingle, Codec{Encode: encodePresence, Decode: decodePresence})
	c.set(KindUserPresenceBundle, idUserPresenceBundle, Codec{Encode: encodePresenceBundle})
	c.set(KindUserStats, idUserStats, Codec{Encode: encodeStats, Decode: decodeStats})
	c.set(KindUserQuit, idUserQuit, Codec{Encode: encodeUserQuit})
	c.set(KindSendMessage, idSendMessage, Codec{Encode: encodeSendMessage, Decode: decodeSendMessage})
	c.set(KindLoginPermissions, idLoginPermissions, Codec{Encode: encodeMatchID})
	c.set(KindChannelAvailable, idChannelAvailable, Codec{Encode: encodeChannelInfo})
	c.set(KindChannelAvailableAutojoin, idChannelAvailableAJ, Codec{Encode: encodeChannelInfo})
	c.set(KindChannelJoinSuccess, idChannelJoinSuccess, Codec{Encode: encodeChannelName})
	c.set(KindChannelRevoked, idChannelRevoked, Codec{Encode: encodeChannelName})
	c.set(KindChannelInfoComplete, idChannelInfoComplete, Codec{Encode: encodePing})
	c.set(KindUserDMBlocked, idUserDMBlocked, Codec{Encode: encodeChannelName})
	c.set(KindTargetIsSilenced, idTargetIsSilenced, Codec{Encode: encodeChannelName})
	c.set(KindUserSilenced, idUserSilenced, Codec{Encode: encodeUserID, Decode: decodeUserID})
	c.set(KindSilenceInfo, idSilenceInfo, Codec{Encode: encodeSilenceInfo})
	c.set(KindFriendsList, idFriendsList, Codec{Encode: encodePresenceBundle})
	c.set(KindSpectatorJoined, idSpectatorJoined, Codec{Encode: encodeUserID, Decode: decodeUserID})
	c.set(KindSpectatorLeft, idSpectatorLeft, Codec{Encode: encodeUserID, Decode: decodeUserID})
	c.set(KindFellowSpectatorJoined, idFellowSpecJoined, Codec{Encode: encodeUserID, Decode: decodeUserID})
	c.set(KindFellowSpectatorLeft, idFellowSpecLeft, Codec{Encode: encodeUserID, Decode: decodeUserID})
	c.set(KindCantSpectate, idCantSpectate, Codec{Encode: encodeUserID, Decode: decodeUserID})
	c.set(KindSpectateFrames, idSpectateFrames, Codec{Encode: encodeSpectateFrames, Decode: decodeSpectateFrames})
	c.set(KindLobbyJoin, idLobbyJoin, Codec{Encode: encodeUserID, Decode: decodeUserID})
	c.set(KindLobbyPart, idLobbyPart, Codec{Encode: encodeUserID, Decode: decodeUserID})
	c.set(KindMatchJoinSuccess, idMatchJoinSuccess, Codec{Encode: encodeUpdateMatch, Decode: decodeUpdateMatch})
	c.set(KindMatchJoinFail, idMatchJoinFail, Codec{Encode: encodePing})
	c.set(KindNewMatch, idNewMatch, Codec{Encode: encodeUpdateMatch, Decode: decodeUpdateMatch})
	c.set(KindUpdateMatch, idUpdateMatch, Codec{Encode: encodeUpdateMatch, Decode: decodeUpdateMatch})
	c.set(KindDisbandMatch, idDisbandMatch, Codec{Encode: encodeMatchID})
	c.set(KindMatchStart, idMatchStart, Codec{Encode: encodeMatchStart})
	c.set(KindMatchScoreUpdate, idMatchScoreUpdate, Codec{Encode: encodeScoreFrame, Decode: decodeScoreFrame})
	c.set(KindMatchPlayerSkipped, idMatchPlayerSkipped, Codec{Encode: encodeMatchID})
	c.set(KindMatchPlayerFailed, idMatchPlayerFailed, Codec{Encode: encodeMatchID})
	c.set(KindMatchAllPlayersLoaded, idMatchAllLoaded, Codec{Encode: encodePing})
	c.set(KindMatchTransferHost, idMatchTransferHost, Codec{Encode: encodePing})
	c.set(KindMatchSkip, idMatchSkip, Codec{Encode: encodePing})
	c.set(KindMatchComplete, idMatchComplete, Codec{Encode: encodePing})
	c.set(KindBeatmapInfoReply, idBeatmapInfoReply, Codec{Encode: encodeBeatmapInfo})
	c.set(KindInvite, idInvite, Codec{Encode: encodeInvite, Decode: decodePrivateMessageReq})
	c.set(KindMonitor, idMonitor, Codec{Encode: encodePing})

	c.set(KindChangeStatus, idReqChangeStatus, Codec{Decode: decodeChangeStatus})
	c.set(KindStartSpectating, idReqStartSpectating, Codec{Decode: decodeUserID})
	c.set(KindStopSpectating, idReqStopSpectating, Codec{Decode: decodeNoArgs})
	c.set(KindSpectateFramesReq, idReqSpectateFrames, Codec{Decode: decodeSpectateFrames})
	c.set(KindCantSpectateReq, idReqCantSpectate, Codec{Decode: decodeUserID})
	c.set(KindSendPrivateMsg, idReqSendPrivateMsg, Codec{Decode: decodePrivateMessageReq})
	c.set(KindChannelJoinReq, idReqChannelJoin, Codec{Decode: decodeChannelName})
	c.set(KindChannelPartReq, idReqChannelPart, Codec{Decode: decodeChannelName})
	c.set(KindCreateMatch, idReqCreateMatch, Codec{Decode: decodeUpdateMatch})
	c.set(KindJoinMatch, idReqJoinMatch, Codec{Decode: decodeJoinMatch})
	c.set(KindPartMatch, idReqPartMatch, Codec{})
	c.set(KindMatchChangeSlot, idReqMatchChangeSlot, Codec{Decode: decodeInt32Arg})
	c.set(KindMatchLock, idReqMatchLock, Codec{Decode: decodeInt32Arg})
	c.set(KindMatchChangeTeam, idReqMatchChangeTeam, Codec{})
	c.set(KindMatchChangeSettings, idReqMatchSettings, Codec{Decode: decodeUpdateMatch})
	c.set(KindMatchReady, idReqMatchReady, Codec{})
	c.set(KindMatchNotReady, idReqMatchNotReady, Codec{})
	c.set(KindMatchStartReq, idReqMatchStart, Codec{})
	c.set(KindMatchLoadComplete, idReqMatchLoadOK, Codec{})
	c.set(KindMatchSkipReq, idReqMatchSkip, Codec{})
	c.set(KindMatchFailed, idReqMatchFailed, Codec{})
	c.set(KindMatchScoreUpdateReq, idReqMatchScoreUpd, Codec{Decode: decodeScoreFrame})
	c.set(KindMatchCompleteReq, idReqMatchComplete, Codec{})
	c.set(KindMatchAbort, idReqMatchAbort, Codec{Decode: decodeNoArgs})
	c.set(KindInviteReq, idReqInvite, Codec{Decode: decodePrivateMessageReq})
	c.set(KindSetAwayMessage, idReqSetAwayMessage, Codec{Decode: decodeAwayMessage})
}
