package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// PlayHandler drives a play session over a websocket. One connection owns one play.
type PlayHandler struct {
	plays    *app.PlayService
	upgrader websocket.Upgrader
}

func NewPlayHandler(plays *app.PlayService) *PlayHandler {
	return &PlayHandler{
		plays: plays,
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
	Index    int   `json:"index"`
	Selected []int `json:"selected"`
}

type navigatePayload struct {
	Index int `json:"index"`
}

type resultPayload struct {
	domain.AttemptResult
	Expired bool `json:"expired,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	msg := err.Error()
	if statusFor(err) == http.StatusInternalServerError {
		log.Printf("play request failed: %v", err)
		msg = "internal error"
	}
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// ServeWS starts a play of ?quizId in ?mode and upgrades the request to a websocket.
func (h *PlayHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		writeError(w, http.StatusBadRequest, "missing quizId")
		return
	}
	mode := domain.PlayMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = domain.ModeStandard
	}
	userID := UserFromContext(r.Context())

	play, err := h.plays.StartPlay(r.Context(), quizID, userID, mode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// Plays outlive the upgrade request's context.
	ctx := context.Background()
	defer func() { _ = h.plays.Abandon(ctx, play.ID(), userID) }()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	watcherDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(watcherDone)
		select {
		case <-play.Expired():
			var msg outboundMessage[any]
			if res, err := play.ExpiredOutcome(); err != nil {
				msg = errorMessage(err)
			} else {
				msg = outboundMessage[any]{Type: "result", Payload: resultPayload{AttemptResult: res, Expired: true}}
			}
			select {
			case send <- msg:
			case <-closeSignals:
			case <-writerDone:
			}
		case <-closeSignals:
		}
	}()

	push := func(msg outboundMessage[any]) bool { return enqueue(send, writerDone, msg) }

	open := push(outboundMessage[any]{Type: "state", Payload: play.State()})
	for done := false; open && !done; {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply []outboundMessage[any]
		reply, done = h.handle(ctx, play, userID, inbound)
		for _, msg := range reply {
			if !push(msg) {
				open = false
				break
			}
		}
	}

	close(closeSignals)
	<-watcherDone
	close(send)
	<-writerDone
}

// enqueue hands msg to the writer. It reports false once the writer has stopped.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

// handle applies one inbound message. done is true once the play was finalized.
func (h *PlayHandler) handle(ctx context.Context, play *app.Play, userID string, in inboundMessage) ([]outboundMessage[any], bool) {
	id := play.ID()
	stateMsg := func(s domain.PlayState) []outboundMessage[any] {
		return []outboundMessage[any]{{Type: "state", Payload: s}}
	}

	switch in.Type {
	case "select":
		var p selectPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return []outboundMessage[any]{{Type: "error", Payload: errorPayload{Message: "invalid select payload"}}}, false
		}
		state, err := h.plays.Select(ctx, id, userID, p.Index, p.Selected)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}, false
		}
		return stateMsg(state), false
	case "navigate":
		var p navigatePayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return []outboundMessage[any]{{Type: "error", Payload: errorPayload{Message: "invalid navigate payload"}}}, false
		}
		state, err := h.plays.Navigate(ctx, id, userID, p.Index)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}, false
		}
		return stateMsg(state), false
	case "check":
		fb, err := h.plays.Check(ctx, id, userID)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}, false
		}
		return []outboundMessage[any]{{Type: "feedback", Payload: fb}}, false
	case "next":
		state, res, err := h.plays.Advance(ctx, id, userID)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}, false
		}
		if res != nil {
			return []outboundMessage[any]{{Type: "result", Payload: resultPayload{AttemptResult: *res}}}, true
		}
		return stateMsg(state), false
	case "submit":
		res, err := h.plays.Submit(ctx, id, userID)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}, false
		}
		return []outboundMessage[any]{{Type: "result", Payload: resultPayload{AttemptResult: res}}}, true
	case "state":
		state, err := h.plays.State(ctx, id, userID)
		if err != nil {
			return []outboundMessage[any]{errorMessage(err)}, false
		}
		return stateMsg(state), false
	default:
		return []outboundMessage[any]{{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}}, false
	}
}
