package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mindmate-app/mindmate/internal/chat"
	"github.com/mindmate-app/mindmate/internal/models"
)

const (
	chatReadLimit  = 4096
	chatIdleWindow = 10 * time.Minute
	chatWriteWait  = 10 * time.Second
)

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("chat websocket connected", "user_id", user.ID)

	bot := chat.NewBot(user.FirstName())
	if err := sendChatMessage(conn, models.ChatMessage{Type: models.ChatTypeReply, Content: bot.Greeting()}); err != nil {
		return
	}

	conn.SetReadLimit(chatReadLimit)
	for {
		conn.SetReadDeadline(time.Now().Add(chatIdleWindow))

		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			break
		}

		var msg models.ChatMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != models.ChatTypeMessage {
			if err := sendChatMessage(conn, models.ChatMessage{Type: models.ChatTypeError, Content: "invalid message format"}); err != nil {
				break
			}
			continue
		}

		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}

		if err := sendChatMessage(conn, models.ChatMessage{Type: models.ChatTypeReply, Content: bot.Reply(content)}); err != nil {
			break
		}
	}

	slog.Info("chat websocket disconnected", "user_id", user.ID)
}

func sendChatMessage(conn *websocket.Conn, msg models.ChatMessage) error {
	conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		slog.Debug("failed to send chat message", "error", err)
		return err
	}
	return nil
}
