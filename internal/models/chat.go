package models

// ChatMessage is the websocket frame exchanged with MindBot
type ChatMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

const (
	ChatTypeMessage = "message"
	ChatTypeReply   = "reply"
	ChatTypeError   = "error"
)
