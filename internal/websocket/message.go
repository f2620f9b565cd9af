package websocket

import "encoding/json"

// MessageType classifies frames on the wire
type MessageType string

const (
	// Client -> server
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"

	// Server -> client
	MessageTypeTeamState        MessageType = "team_state"
	MessageTypeTerritoryControl MessageType = "territory_control"
	MessageTypeWarStatus        MessageType = "war_status"
	MessageTypeTreasury         MessageType = "treasury"
	MessageTypeTeamDissolved    MessageType = "team_dissolved"
	MessageTypeError            MessageType = "error"
)

type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, Payload: data}, nil
}

// SubscribePayload names the topic a client wants. Topics are either
// "team:<uuid>", or the global feeds "territory" and "wars".
type SubscribePayload struct {
	Topic string `json:"topic"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
