package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option string `json:"option"`
}

type submitPayload struct {
	Name string `json:"name"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type savedPayload struct {
	Record domain.ScoreRecord `json:"record"`
}

// feedbackBuffer bounds queued outbound messages; feedback beyond it is dropped.
const feedbackBuffer = 16

// ServeWS upgrades HTTP requests to websockets and plays one quiz session per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	send := make(chan outboundMessage[any], feedbackBuffer)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn("ws write failed", "error", err)
				// keep draining so the reader never blocks on a dead socket
				for range send {
				}
				return
			}
		}
	}()

	// feedback is fire-and-forget: a slow client loses it rather than stalling the session
	notifier := app.NotifierFunc(func(fb domain.Feedback) {
		select {
		case send <- outboundMessage[any]{Type: "feedback", Payload: fb}:
		default:
			h.logger.Debug("ws feedback dropped")
		}
	})

	c := &wsConn{handler: h, send: send, notifier: notifier}
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		c.handle(ctx, inbound)
	}

	// a dropped connection discards whatever was in progress
	if c.sessionID != "" {
		h.service.Cancel(context.WithoutCancel(ctx), c.sessionID)
	}
	close(send)
	<-writerDone
}

// wsConn is the per-connection state, touched only by the read loop.
type wsConn struct {
	handler   *WSHandler
	send      chan<- outboundMessage[any]
	notifier  app.Notifier
	sessionID string
}

func (c *wsConn) handle(ctx context.Context, inbound inboundMessage) {
	switch inbound.Type {
	case "start":
		settings := app.DefaultSettings()
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &settings); err != nil {
				c.fail("invalid start payload")
				return
			}
		}
		c.start(ctx, settings)
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.fail("invalid select payload")
			return
		}
		if err := c.handler.service.SelectAnswer(ctx, c.sessionID, payload.Option); err != nil {
			c.fail(err.Error())
			return
		}
		c.sendQuestion()
	case "next":
		c.next(ctx)
	case "submit":
		var payload submitPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.fail("invalid submit payload")
			return
		}
		record, err := c.handler.service.Submit(ctx, c.sessionID, payload.Name)
		if err != nil {
			c.fail(err.Error())
			return
		}
		c.sessionID = ""
		c.send <- outboundMessage[any]{Type: "saved", Payload: savedPayload{Record: record}}
	case "cancel":
		if c.sessionID != "" {
			c.handler.service.Cancel(ctx, c.sessionID)
			c.sessionID = ""
		}
		c.send <- outboundMessage[any]{Type: "cancelled"}
	default:
		c.fail("unsupported message type")
	}
}

func (c *wsConn) start(ctx context.Context, settings app.Settings) {
	if c.sessionID != "" {
		c.handler.service.Cancel(ctx, c.sessionID)
		c.sessionID = ""
	}

	session, err := c.handler.service.Start(ctx, settings, c.notifier)
	switch {
	case errors.Is(err, domain.ErrNoQuestions):
		c.send <- outboundMessage[any]{Type: "noQuestions"}
		return
	case err != nil:
		c.fail(err.Error())
		return
	}
	c.sessionID = session.ID()
	c.sendQuestion()
}

func (c *wsConn) next(ctx context.Context) {
	progress, err := c.handler.service.Advance(ctx, c.sessionID)
	if err != nil {
		c.fail(err.Error())
		return
	}
	if !progress.Completed {
		c.sendQuestion()
		return
	}

	session, err := c.handler.service.Session(c.sessionID)
	if err != nil {
		c.fail(err.Error())
		return
	}
	result, err := session.Result()
	if err != nil {
		c.fail(err.Error())
		return
	}
	c.send <- outboundMessage[any]{Type: "completed", Payload: result}
}

func (c *wsConn) sendQuestion() {
	session, err := c.handler.service.Session(c.sessionID)
	if err != nil {
		c.fail(err.Error())
		return
	}
	c.send <- outboundMessage[any]{Type: "question", Payload: session.View()}
}

func (c *wsConn) fail(message string) {
	c.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
