package model

import "time"

// ChatMessage is a single entry of the in-memory chat history
type ChatMessage struct {
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// Chat frame types sent to websocket clients
const (
	ChatFrameHistory = "history"
	ChatFrameMessage = "message"
)

// ChatFrame is the envelope written to chat clients
type ChatFrame struct {
	Type     string        `json:"type"`
	Messages []ChatMessage `json:"messages,omitempty"`
	Message  *ChatMessage  `json:"message,omitempty"`
}

// ChatInbound is what clients send to post a message
type ChatInbound struct {
	Text string `json:"text"`
}
