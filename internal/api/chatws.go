package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// ChatSocket is a persistent chat connection. It carries the same
// request/response shapes as the HTTP chat endpoint but avoids a new
// connection per turn; turns are still strictly sequential.
type ChatSocket struct {
	conn *websocket.Conn
}

// wsEnvelope frames messages on the chat socket.
type wsEnvelope struct {
	Type     string        `json:"type"` // "chat", "response" or "error"
	Request  *ChatRequest  `json:"request,omitempty"`
	Response *ChatResponse `json:"response,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// DialChat opens a chat websocket against the server.
func (c *Client) DialChat(ctx context.Context) (*ChatSocket, error) {
	wsURL := strings.Replace(c.BaseURL, "http", "ws", 1) + "/api/v1/chat/ws"

	header := http.Header{}
	if c.Token != "" {
		header.Set("Authorization", "Bearer "+c.Token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing chat socket: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dialing chat socket: %w", err)
	}
	return &ChatSocket{conn: conn}, nil
}

// Chat sends one turn over the socket and waits for the answer, so a
// ChatSocket satisfies the same contract as Client.Chat.
func (s *ChatSocket) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetWriteDeadline(deadline)
		s.conn.SetReadDeadline(deadline)
	}

	if err := s.conn.WriteJSON(wsEnvelope{Type: "chat", Request: &req}); err != nil {
		return nil, fmt.Errorf("writing chat turn: %w", err)
	}

	var env wsEnvelope
	if err := s.conn.ReadJSON(&env); err != nil {
		return nil, fmt.Errorf("reading chat answer: %w", err)
	}
	switch env.Type {
	case "response":
		if env.Response == nil {
			return nil, fmt.Errorf("chat socket: empty response envelope")
		}
		return env.Response, nil
	case "error":
		return nil, fmt.Errorf("chat socket: %s", env.Error)
	default:
		return nil, fmt.Errorf("chat socket: unexpected message type %q", env.Type)
	}
}

// Close closes the socket.
func (s *ChatSocket) Close() error {
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}
