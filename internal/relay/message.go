package relay

import "encoding/json"

const (
	MessageTypeJoin       = "join"
	MessageTypeSignal     = "signal"
	MessageTypePeers      = "peers"
	MessageTypePeerJoined = "peer-joined"
	MessageTypePeerLeft   = "peer-left"
)

// Envelope - входящее сообщение от клиента. Поля кроме type зависят от типа.
type Envelope struct {
	Type    string         `json:"type"`
	Code    string         `json:"code,omitempty"`
	Payload *SignalPayload `json:"payload,omitempty"`
}

// SignalPayload переносится как есть, relay не разбирает содержимое signal
type SignalPayload struct {
	To     string          `json:"to,omitempty"`
	Signal json.RawMessage `json:"signal,omitempty"`
}

type peersMessage struct {
	Type  string   `json:"type"`
	Peers []string `json:"peers"`
}

type peerEventMessage struct {
	Type   string `json:"type"`
	PeerID string `json:"peerId"`
}

type signalMessage struct {
	Type   string          `json:"type"`
	From   string          `json:"from"`
	Signal json.RawMessage `json:"signal"`
}

func marshalPeers(ids []string) []byte {
	msg, _ := json.Marshal(peersMessage{Type: MessageTypePeers, Peers: ids})
	return msg
}

func marshalPeerJoined(peerID string) []byte {
	msg, _ := json.Marshal(peerEventMessage{Type: MessageTypePeerJoined, PeerID: peerID})
	return msg
}

func marshalPeerLeft(peerID string) []byte {
	msg, _ := json.Marshal(peerEventMessage{Type: MessageTypePeerLeft, PeerID: peerID})
	return msg
}

func marshalSignal(from string, signal json.RawMessage) []byte {
	msg, _ := json.Marshal(signalMessage{Type: MessageTypeSignal, From: from, Signal: signal})
	return msg
}
