// Package events defines the event types exchanged over the manawire event bus.
package events

import "time"

// EventType represents the type of event emitted through the EventBus.
type EventType string

const (
	// Connection events
	EventConnectionState    EventType = "connection_state"
	EventConnectionProblem  EventType = "connection_problem"
	EventServerVersion      EventType = "server_version"
	EventUpdateHost         EventType = "update_host"
	EventProtocolNegotiated EventType = "protocol_negotiated"

	// Packet diagnostics
	EventUnknownPacket EventType = "unknown_packet"
	EventShortRead     EventType = "short_read"
	EventFramingError  EventType = "framing_error"

	// Game events
	EventChat   EventType = "chat"
	EventNotify EventType = "notify"

	// System events
	EventConfigChanged EventType = "config_changed"
	EventShutdown      EventType = "shutdown"
)

// DiagnosticTypes lists the events recorded in the packet journal.
var DiagnosticTypes = []EventType{
	EventUnknownPacket,
	EventShortRead,
	EventFramingError,
}

// Event represents a single event in the system.
type Event struct {
	Type    EventType   `json:"type"`
	Source  string      `json:"source"`
	Time    time.Time   `json:"time"`
	Payload interface{} `json:"payload,omitempty"`
}

// ConnectionStatePayload is emitted when a connection changes state.
type ConnectionStatePayload struct {
	Role  string `json:"role"`
	Host  string `json:"host"`
	Port  int    `json:"port"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// ConnectionProblemPayload carries a login/char server refusal.
type ConnectionProblemPayload struct {
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

// ServerVersionPayload carries the server build information.
type ServerVersionPayload struct {
	Options       int `json:"options"`
	ServerVersion int `json:"server_version"`
}

// UpdateHostPayload carries the update host announced by the login server.
type UpdateHostPayload struct {
	Host string `json:"host"`
}

// ProtocolNegotiatedPayload is emitted after the dispatch table is swapped.
type ProtocolNegotiatedPayload struct {
	ServerType string `json:"server_type"`
	Flavor     string `json:"flavor"`
	Version    int    `json:"version"`
	ItemIDLen  int    `json:"item_id_len"`
	Handlers   int    `json:"handlers"`
}

// PacketDiagnosticPayload describes an unknown, short or unframeable message.
type PacketDiagnosticPayload struct {
	SessionID  string `json:"session_id"`
	Opcode     uint16 `json:"opcode"`
	Length     int    `json:"length"`
	ShortReads int    `json:"short_reads,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// ChatPayload carries a decoded chat line.
type ChatPayload struct {
	Channel string `json:"channel"`
	From    string `json:"from,omitempty"`
	Text    string `json:"text"`
}

// NotifyPayload carries a user-facing notification.
type NotifyPayload struct {
	Kind  string `json:"kind"`
	Text  string `json:"text"`
	Level string `json:"level"` // "info", "warning", "error"
}

// ConfigChangedPayload is emitted when configuration changes occur.
type ConfigChangedPayload struct {
	Section string      `json:"section"`
	Key     string      `json:"key"`
	Value   interface{} `json:"value"`
}
