package versions

// Arg structs decoded from / encoded to a packet body. These are the "tagged
// union over per-packet argument types" the handler table dispatches on
// (each PacketKind's Decode returns one of these as an `any`).

type LoginReplyArgs struct {
	Code int32
}

// Int32Arg is a generic single-integer payload, reused by every packet that
// carries nothing but an id or a count (DISBAND_MATCH, LOGIN_PERMISSIONS,
// MATCH_PLAYER_SKIPPED/FAILED, MATCH_CHANGE_SLOT, MATCH_LOCK, ...).
type Int32Arg = LoginReplyArgs

type ProtocolVersionArgs struct {
	Version int32
}

type AnnounceArgs struct {
	Text string
}

// AwayMessageArgs carries SET_AWAY_MESSAGE's single free-text field — the
// same shape as AnnounceArgs, so it is an alias of it. decodeAwayMessage
// reads it; the packet is request-only and has no encoder.
type AwayMessageArgs = AnnounceArgs

type PresenceArgs struct {
	UserID      int32
	Name        string
	CountryCode uint8
	Permissions uint8
	Mode        uint8
	UTCOffset   int8
	LatitudeE6  int32
	LongitudeE6 int32
	Rank        int32
}

type StatsArgs struct {
	UserID      int32
	Action      uint8
	ActionText  string
	BeatmapMD5  string
	Mods        uint32
	Mode        uint8
	BeatmapID   int32
	RankedScore int64
	Accuracy    float32
	PlayCount   int32
	TotalScore  int64
	GlobalRank  int32
	PP          int16
}

// CombinedPresenceStatsArgs is the single packet legacy (<=1700) cohorts
// receive instead of separate USER_PRESENCE / USER_STATS packets.
type CombinedPresenceStatsArgs struct {
	Presence PresenceArgs
	Stats    StatsArgs
	Update   bool // only meaningful on cohorts <= 319, folded into the 323 cohort encoder
}

type PresenceBundleArgs struct {
	UserIDs []int32
}

type UserQuitArgs struct {
	UserID int32
	State  uint8 // 0 = gone, 1 = irc-only quit (encoded as IRC_QUIT on old cohorts instead)
}

type SendMessageArgs struct {
	Sender    string
	Text      string
	Target    string
	SenderID  int32
}

type ChannelInfoArgs struct {
	Name     string
	Topic    string
	MemberCount int32
}

type SilenceInfoArgs struct {
	RemainingSeconds int32
}

type UserSilencedArgs struct {
	UserID int32
}

type SpectateArgs struct {
	UserID int32
}

type SpectateFramesArgs struct {
	Bundle []byte
}

type BeatmapInfoArgs struct {
	Results []byte
}

type InviteArgs struct {
	Text string
}

type IRCEntityArgs struct {
	Name string
}

type LobbyMembershipArgs struct {
	UserID int32
}

type MatchJoinFailArgs struct{}

type MatchSlot struct {
	Status byte
	Team   byte
	Mods   uint32
	UserID int32 // 0 when the slot has no player
	Loaded bool
	Skipped bool
	Failed  bool
}

type MatchState struct {
	ID            int32
	Name          string
	Password      string
	InProgress    bool
	Mods          uint32
	Freemod       bool
	BeatmapName   string
	BeatmapID     int32
	BeatmapMD5    string
	Mode          uint8
	TeamMode      uint8
	ScoringMode   uint8
	Slots         [8]MatchSlot
	Seed          int32
	HostUserID    int32
}

type ScoreFrameArgs struct {
	SlotID     int32
	Time       int32
	Count300   uint16
	Count100   uint16
	Count50    uint16
	CountGeki  uint16
	CountKatu  uint16
	CountMiss  uint16
	TotalScore int32
	MaxCombo   uint16
	CurrentHP  uint8
	Perfect    bool
}

type MatchCompleteArgs struct{}

type MatchStartArgs struct {
	State MatchState
}
