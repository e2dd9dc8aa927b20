package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/mindmate-app/mindmate/internal/chat"
	"github.com/mindmate-app/mindmate/internal/models"
)

func (a *app) chat(ctx context.Context) error {
	if _, err := a.requirePage("/chatbot"); err != nil {
		return err
	}

	conn, err := a.api.DialChat(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	fmt.Fprintf(a.out, "%s\n\n", chat.Disclaimer)
	if err := a.printChatFrame(conn); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Try one of these, or type your own (blank line to quit):")
	for i, s := range chat.Starters {
		fmt.Fprintf(a.out, "  %d) %s\n", i+1, s)
	}

	for {
		fmt.Fprint(a.out, "you> ")
		line, readErr := a.in.ReadString('\n')
		text := strings.TrimSpace(line)
		if text == "" {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		}
		if n, convErr := strconv.Atoi(text); convErr == nil && n >= 1 && n <= len(chat.Starters) {
			text = chat.Starters[n-1]
			fmt.Fprintf(a.out, "you> %s\n", text)
		}

		if err := conn.WriteJSON(models.ChatMessage{Type: models.ChatTypeMessage, Content: text}); err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
		if err := a.printChatFrame(conn); err != nil {
			return err
		}
		if readErr != nil {
			return nil
		}
	}
}

func (a *app) printChatFrame(conn *websocket.Conn) error {
	var msg models.ChatMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("chat connection closed: %w", err)
	}
	if msg.Type == models.ChatTypeError {
		fmt.Fprintf(a.out, "! %s\n", msg.Content)
		return nil
	}
	fmt.Fprintf(a.out, "MindBot> %s\n", msg.Content)
	return nil
}
