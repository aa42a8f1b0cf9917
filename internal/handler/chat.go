package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/forgo/campusfeed/internal/middleware"
	"github.com/forgo/campusfeed/internal/model"
	"github.com/forgo/campusfeed/internal/service"
)

const (
	chatWriteWait  = 10 * time.Second
	chatPongWait   = 60 * time.Second
	chatPingPeriod = chatPongWait * 9 / 10

	// room for MaxChatMessageRunes of multi-byte text plus the envelope
	defaultChatFrameBytes = 4*service.MaxChatMessageRunes + 64
)

// ChatRoom is implemented by service.ChatBroadcaster
type ChatRoom interface {
	Subscribe() ([]model.ChatMessage, *service.ChatSubscriber)
	Unsubscribe(sub *service.ChatSubscriber)
	Post(text string) (model.ChatMessage, bool)
}

// ChatHandler serves the public chat over a websocket
type ChatHandler struct {
	room          ChatRoom
	upgrader      websocket.Upgrader
	maxFrameBytes int64
}

// NewChatHandler creates a chat handler accepting same-origin browsers
// and the listed origins ("*" accepts any). Inbound frames larger than
// maxFrameBytes drop the connection.
func NewChatHandler(room ChatRoom, allowedOrigins []string, maxFrameBytes int64) *ChatHandler {
	if maxFrameBytes <= 0 {
		maxFrameBytes = defaultChatFrameBytes
	}
	return &ChatHandler{
		room:          room,
		maxFrameBytes: maxFrameBytes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// Serve handles GET /v1/chat. The client first receives the history,
// then every new message; text frames it sends are posted to the room.
func (h *ChatHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already answered
		slog.Debug("chat upgrade failed", slog.Any("error", err))
		return
	}
	defer func() { _ = conn.Close() }()

	requestID := middleware.GetRequestID(r.Context())
	history, sub := h.room.Subscribe()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(conn, history, sub)
	}()

	h.readLoop(conn, requestID)

	h.room.Unsubscribe(sub)
	<-writerDone
}

func (h *ChatHandler) readLoop(conn *websocket.Conn, requestID string) {
	conn.SetReadLimit(h.maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(chatPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatPongWait))
	})

	for {
		var in model.ChatInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Info("chat client dropped",
					slog.String("request_id", requestID),
					slog.Any("error", err),
				)
			}
			return
		}
		h.room.Post(in.Text)
	}
}

// writeLoop owns every write on conn. It ends when the subscription is
// closed or a write fails; in the latter case closing conn unblocks the
// reader.
func (h *ChatHandler) writeLoop(conn *websocket.Conn, history []model.ChatMessage, sub *service.ChatSubscriber) {
	ticker := time.NewTicker(chatPingPeriod)
	defer ticker.Stop()

	if err := writeFrame(conn, model.ChatFrame{Type: model.ChatFrameHistory, Messages: history}); err != nil {
		_ = conn.Close()
		return
	}

	for {
		select {
		case msg, ok := <-sub.Messages:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				_ = conn.Close()
				return
			}
			if err := writeFrame(conn, model.ChatFrame{Type: model.ChatFrameMessage, Message: &msg}); err != nil {
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, frame model.ChatFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
	return conn.WriteJSON(frame)
}
