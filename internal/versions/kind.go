package versions

// PacketKind is a logical packet name — the contract named in the packet
// catalog. Numeric wire ids are a per-cohort concern resolved via Cohort.
type PacketKind string

// Response (server -> client) kinds.
const (
	KindLoginReply                PacketKind = "LOGIN_REPLY"
	KindProtocolVersion           PacketKind = "PROTOCOL_VERSION"
	KindPing                      PacketKind = "PING"
	KindAnnounce                  PacketKind = "ANNOUNCE"
	KindMenuIcon                  PacketKind = "MENU_ICON"
	KindUserPresence              PacketKind = "USER_PRESENCE"
	KindUserPresenceSingle        PacketKind = "USER_PRESENCE_SINGLE"
	KindUserPresenceBundle        PacketKind = "USER_PRESENCE_BUNDLE"
	KindUserStats                 PacketKind = "USER_STATS"
	KindUserStatsPresenceCombined PacketKind = "USER_STATS_PRESENCE_COMBINED"
	KindUserQuit                  PacketKind = "USER_QUIT"
	KindSendMessage               PacketKind = "SEND_MESSAGE"
	KindLoginPermissions          PacketKind = "LOGIN_PERMISSIONS"
	KindChannelAvailable          PacketKind = "CHANNEL_AVAILABLE"
	KindChannelAvailableAutojoin  PacketKind = "CHANNEL_AVAILABLE_AUTOJOIN"
	KindChannelJoinSuccess        PacketKind = "CHANNEL_JOIN_SUCCESS"
	KindChannelRevoked            PacketKind = "CHANNEL_REVOKED"
	KindChannelInfoComplete       PacketKind = "CHANNEL_INFO_COMPLETE"
	KindUserDMBlocked             PacketKind = "USER_DM_BLOCKED"
	KindTargetIsSilenced          PacketKind = "TARGET_IS_SILENCED"
	KindUserSilenced              PacketKind = "USER_SILENCED"
	KindSilenceInfo               PacketKind = "SILENCE_INFO"
	KindFriendsList                PacketKind = "FRIENDS_LIST"
	KindSpectatorJoined           PacketKind = "SPECTATOR_JOINED"
	KindSpectatorLeft             PacketKind = "SPECTATOR_LEFT"
	KindFellowSpectatorJoined     PacketKind = "FELLOW_SPECTATOR_JOINED"
	KindFellowSpectatorLeft       PacketKind = "FELLOW_SPECTATOR_LEFT"
	KindCantSpectate              PacketKind = "CANT_SPECTATE"
	KindSpectateFrames            PacketKind = "SPECTATE_FRAMES"
	KindLobbyJoin                 PacketKind = "LOBBY_JOIN"
	KindLobbyPart                 PacketKind = "LOBBY_PART"
	KindMatchJoinSuccess          PacketKind = "MATCH_JOIN_SUCCESS"
	KindMatchJoinFail             PacketKind = "MATCH_JOIN_FAIL"
	KindNewMatch                  PacketKind = "NEW_MATCH"
	KindUpdateMatch               PacketKind = "UPDATE_MATCH"
	KindDisbandMatch              PacketKind = "DISBAND_MATCH"
	KindMatchStart                PacketKind = "MATCH_START"
	KindMatchScoreUpdate          PacketKind = "MATCH_SCORE_UPDATE"
	KindMatchPlayerSkipped        PacketKind = "MATCH_PLAYER_SKIPPED"
	KindMatchPlayerFailed         PacketKind = "MATCH_PLAYER_FAILED"
	KindMatchAllPlayersLoaded     PacketKind = "MATCH_ALL_PLAYERS_LOADED"
	KindMatchTransferHost         PacketKind = "MATCH_TRANSFER_HOST"
	KindMatchSkip                 PacketKind = "MATCH_SKIP"
	KindMatchComplete             PacketKind = "MATCH_COMPLETE"
	KindBeatmapInfoReply          PacketKind = "BEATMAP_INFO_REPLY"
	KindInvite                    PacketKind = "INVITE"
	KindMonitor                   PacketKind = "MONITOR"
	KindIRCJoin                   PacketKind = "IRC_JOIN"
	KindIRCQuit                   PacketKind = "IRC_QUIT"
)

// Request (client -> server) kinds.
const (
	KindChangeStatus      PacketKind = "CHANGE_STATUS"
	KindStartSpectating   PacketKind = "START_SPECTATING"
	KindStopSpectating    PacketKind = "STOP_SPECTATING"
	KindSpectateFramesReq PacketKind = "SPECTATE_FRAMES_REQ"
	KindCantSpectateReq   PacketKind = "CANT_SPECTATE_REQ"
	KindSendPrivateMsg    PacketKind = "SEND_PRIVATE_MESSAGE"
	KindChannelJoinReq    PacketKind = "CHANNEL_JOIN_REQ"
	KindChannelPartReq    PacketKind = "CHANNEL_PART_REQ"
	KindCreateMatch       PacketKind = "CREATE_MATCH"
	KindJoinMatch         PacketKind = "JOIN_MATCH"
	KindPartMatch         PacketKind = "PART_MATCH"
	KindMatchChangeSlot   PacketKind = "MATCH_CHANGE_SLOT"
	KindMatchLock         PacketKind = "MATCH_LOCK"
	KindMatchChangeTeam   PacketKind = "MATCH_CHANGE_TEAM"
	KindMatchChangeSettings PacketKind = "MATCH_CHANGE_SETTINGS"
	KindMatchReady        PacketKind = "MATCH_READY"
	KindMatchNotReady     PacketKind = "MATCH_NOT_READY"
	KindMatchStartReq     PacketKind = "MATCH_START_REQ"
	KindMatchLoadComplete PacketKind = "MATCH_LOAD_COMPLETE"
	KindMatchSkipReq      PacketKind = "MATCH_SKIP_REQ"
	KindMatchFailed       PacketKind = "MATCH_FAILED"
	KindMatchScoreUpdateReq PacketKind = "MATCH_SCORE_UPDATE_REQ"
	KindMatchCompleteReq  PacketKind = "MATCH_COMPLETE_REQ"
	KindMatchAbort        PacketKind = "MATCH_ABORT"
	KindInviteReq         PacketKind = "INVITE_REQ"
	KindSetAwayMessage    PacketKind = "SET_AWAY_MESSAGE"
)
