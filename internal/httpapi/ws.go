package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abhisek/borderdrill/internal/logger"
	"github.com/abhisek/borderdrill/internal/questiongen"
	"github.com/abhisek/borderdrill/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
	commandBuffer  = 16
)

// MessageType identifies a websocket message.
type MessageType string

// Client commands.
const (
	CmdStart   MessageType = "start"
	CmdRetry   MessageType = "retry"
	CmdAnswer  MessageType = "answer"
	CmdSubmit  MessageType = "submit"
	CmdAdvance MessageType = "advance"
	CmdHint    MessageType = "hint"
)

// Server messages.
const (
	MsgState MessageType = "state"
	MsgError MessageType = "error"
)

// Message is the websocket envelope format.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Command is a client message. Text is used by answer, Level by hint.
type Command struct {
	Type  MessageType `json:"type"`
	Text  string      `json:"text,omitempty"`
	Level int         `json:"level,omitempty"`
}

// ErrorPayload is sent when a command is rejected.
type ErrorPayload struct {
	Command MessageType `json:"command"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

type sessionHandler struct {
	opts     session.Options
	upgrader websocket.Upgrader
	log      *logger.Logger
}

func newSessionHandler(opts session.Options, allowed []string, log *logger.Logger) *sessionHandler {
	return &sessionHandler{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(allowed, r.Header.Get("Origin"))
			},
		},
		log: log.With("component", "ws"),
	}
}

// connection is one websocket client driving its own controller.
type connection struct {
	send     chan []byte
	commands chan Command
	ctrl     *session.Controller
}

func (c *connection) push(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		// Drop message if buffer full
	}
}

func (c *connection) pushState(s session.Snapshot) {
	payload, err := json.Marshal(s)
	if err != nil {
		return
	}
	c.push(Message{Type: MsgState, Payload: payload})
}

// ServeWS handles GET /api/session/ws
func (h *sessionHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	// The request context ends when the handler returns, so the session
	// gets its own.
	ctx, cancel := context.WithCancel(context.Background())
	conn := &connection{
		send:     make(chan []byte, sendBuffer),
		commands: make(chan Command, commandBuffer),
	}
	opts := h.opts
	opts.Speaker = nil
	opts.OnChange = conn.pushState
	conn.ctrl = session.NewController(opts)

	conn.pushState(conn.ctrl.Snapshot())

	go h.writePump(ctx, wsConn, conn)
	go h.commandLoop(ctx, conn)
	go h.readPump(ctx, cancel, wsConn, conn)
}

// commandLoop runs a connection's commands one at a time in arrival order.
func (h *sessionHandler) commandLoop(ctx context.Context, conn *connection) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-conn.commands:
			h.dispatch(ctx, conn, cmd)
		}
	}
}

func (h *sessionHandler) readPump(ctx context.Context, cancel context.CancelFunc, wsConn *websocket.Conn, conn *connection) {
	defer func() {
		cancel()
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read failed", "error", err)
			}
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			conn.push(errorMessage("", "bad_request", "malformed command"))
			continue
		}
		select {
		case conn.commands <- cmd:
		case <-ctx.Done():
			return
		}
	}
}

func (h *sessionHandler) writePump(ctx context.Context, wsConn *websocket.Conn, conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			wsConn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-conn.send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *sessionHandler) dispatch(ctx context.Context, conn *connection, cmd Command) {
	var err error
	switch cmd.Type {
	case CmdStart:
		err = conn.ctrl.Start(ctx)
	case CmdRetry:
		err = conn.ctrl.LoadSlot(ctx)
	case CmdAnswer:
		err = conn.ctrl.RecordAnswer(cmd.Text)
	case CmdSubmit:
		if cmd.Text != "" {
			if err = conn.ctrl.RecordAnswer(cmd.Text); err != nil {
				break
			}
		}
		err = conn.ctrl.Submit(ctx)
	case CmdAdvance:
		err = conn.ctrl.Advance(ctx)
	case CmdHint:
		err = conn.ctrl.ShowHint(ctx, cmd.Level)
	default:
		conn.push(errorMessage(cmd.Type, "bad_request", "unknown command"))
		return
	}
	if err != nil && ctx.Err() == nil {
		code, msg := classify(err)
		conn.push(errorMessage(cmd.Type, code, msg))
	}
}

func classify(err error) (code, message string) {
	switch {
	case errors.Is(err, session.ErrBusy):
		return "busy", "処理中です。しばらくお待ちください。"
	case errors.Is(err, session.ErrEmptyAnswer):
		return "empty_answer", "回答を入力してください。"
	case errors.Is(err, session.ErrHintRejected):
		return "hint_rejected", "ヒントは順番に表示してください。"
	case errors.Is(err, session.ErrInvalidTransition):
		return "invalid_transition", err.Error()
	case errors.Is(err, questiongen.ErrNoQuestionsAvailable):
		return "no_questions", "出題できる質問がなくなりました。"
	case errors.Is(err, questiongen.ErrGenerationFailed):
		return "generation_failed", session.StatusGenFailed
	}
	return "internal", err.Error()
}

func errorMessage(cmd MessageType, code, message string) Message {
	payload, _ := json.Marshal(ErrorPayload{Command: cmd, Code: code, Message: message})
	return Message{Type: MsgError, Payload: payload}
}
