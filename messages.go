package server

import "goal-rush/server/internal/sim"

// RoomState is the room lifecycle phase.
type RoomState string

const (
	StateLobby     RoomState = "lobby"
	StateCountdown RoomState = "countdown"
	StatePlaying   RoomState = "playing"
	StateEnded     RoomState = "ended"
)

// RoomView is the roster payload shared by join responses and room-update
// broadcasts.
type RoomView struct {
	ID            string         `json:"id" msgpack:"id"`
	State         RoomState      `json:"state" msgpack:"state"`
	MatchDuration float64        `json:"matchDuration" msgpack:"matchDuration"`
	HostID        string         `json:"hostId" msgpack:"hostId"`
	Players       []RosterPlayer `json:"players" msgpack:"players"`
	Score         sim.Score      `json:"score" msgpack:"score"`
	Obstacles     bool           `json:"obstacles" msgpack:"obstacles"`
	BoostPads     bool           `json:"boostPads" msgpack:"boostPads"`
}

// ClientMessage is the inbound envelope; Type selects which fields apply.
type ClientMessage struct {
	Type string `json:"type"`

	// create-room
	Nickname       string `json:"nickname,omitempty"`
	MatchDuration  int    `json:"matchDuration,omitempty"` // minutes
	EnableFeatures *bool  `json:"enableFeatures,omitempty"`

	// join-room
	RoomID    string   `json:"roomId,omitempty"`
	HostToken string   `json:"hostToken,omitempty"`
	SessionID string   `json:"sessionId,omitempty"`
	Cosmetics []string `json:"cosmetics,omitempty"`

	// switch-team
	Team string `json:"team,omitempty"`

	// kick-player
	TargetID string `json:"targetId,omitempty"`

	// player-input
	DX    float64 `json:"dx,omitempty"`
	DZ    float64 `json:"dz,omitempty"`
	Boost bool    `json:"boost,omitempty"`
	Jump  bool    `json:"jump,omitempty"`
	Seq   uint64  `json:"seq,omitempty"`
}

// RoomCreatedMessage answers a successful create-room request.
type RoomCreatedMessage struct {
	Ver       int      `json:"ver" msgpack:"ver"`
	Type      string   `json:"type" msgpack:"type"`
	RoomID    string   `json:"roomId" msgpack:"roomId"`
	PlayerID  string   `json:"playerId" msgpack:"playerId"`
	SessionID string   `json:"sessionId" msgpack:"sessionId"`
	HostToken string   `json:"hostToken" msgpack:"hostToken"`
	Room      RoomView `json:"room" msgpack:"room"`
}

// RoomJoinedMessage answers a successful join or reconnect.
type RoomJoinedMessage struct {
	Ver       int      `json:"ver" msgpack:"ver"`
	Type      string   `json:"type" msgpack:"type"`
	RoomID    string   `json:"roomId" msgpack:"roomId"`
	PlayerID  string   `json:"playerId" msgpack:"playerId"`
	SessionID string   `json:"sessionId" msgpack:"sessionId"`
	Room      RoomView `json:"room" msgpack:"room"`
}

type roomUpdateMessage struct {
	Ver  int      `json:"ver" msgpack:"ver"`
	Type string   `json:"type" msgpack:"type"`
	Room RoomView `json:"room" msgpack:"room"`
}

type snapshotMessage struct {
	Ver       int          `json:"ver" msgpack:"ver"`
	Type      string       `json:"type" msgpack:"type"`
	GameState RoomState    `json:"gameState" msgpack:"gameState"`
	Countdown *float64     `json:"countdown,omitempty" msgpack:"countdown,omitempty"`
	Snapshot  sim.Snapshot `json:"snapshot" msgpack:"snapshot"`
}

type goalScoredMessage struct {
	Ver    int       `json:"ver" msgpack:"ver"`
	Type   string    `json:"type" msgpack:"type"`
	Team   sim.Team  `json:"team" msgpack:"team"`
	Scorer string    `json:"scorer,omitempty" msgpack:"scorer,omitempty"`
	Score  sim.Score `json:"score" msgpack:"score"`
}

type gameEndedMessage struct {
	Ver    int       `json:"ver" msgpack:"ver"`
	Type   string    `json:"type" msgpack:"type"`
	Score  sim.Score `json:"score" msgpack:"score"`
	Winner string    `json:"winner" msgpack:"winner"` // "A", "B", or "draw"
}

type kickedMessage struct {
	Ver    int    `json:"ver" msgpack:"ver"`
	Type   string `json:"type" msgpack:"type"`
	Reason string `json:"reason" msgpack:"reason"`
}

type playerLeftMessage struct {
	Ver      int    `json:"ver" msgpack:"ver"`
	Type     string `json:"type" msgpack:"type"`
	PlayerID string `json:"playerId" msgpack:"playerId"`
	Kicked   bool   `json:"kicked" msgpack:"kicked"`
}

// ErrorMessage is the structured failure surface for request/response
// actions.
type ErrorMessage struct {
	Ver     int       `json:"ver" msgpack:"ver"`
	Type    string    `json:"type" msgpack:"type"`
	Success bool      `json:"success" msgpack:"success"`
	Code    ErrorCode `json:"error" msgpack:"error"`
	Message string    `json:"message,omitempty" msgpack:"message,omitempty"`
}

// NewErrorMessage wraps a room-operation failure for the wire.
func NewErrorMessage(err error) ErrorMessage {
	msg := ErrorMessage{Ver: ProtocolVersion, Type: "error", Code: CodeOf(err)}
	if err != nil {
		msg.Message = err.Error()
	}
	return msg
}
