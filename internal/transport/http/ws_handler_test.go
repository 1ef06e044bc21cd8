package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketOneByOneFlow(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	conn := dialPlay(t, env, "quiz-1", "one_by_one")

	_, state := readNext(conn, t, "state")
	if state["phase"] != "presenting" {
		t.Fatalf("expected presenting phase, got %v", state["phase"])
	}

	send(t, conn, "check", nil)
	_, errPayload := readNext(conn, t, "error")
	if errPayload["message"] != "empty selection" {
		t.Fatalf("expected empty selection error, got %v", errPayload)
	}

	send(t, conn, "select", map[string]any{"index": 0, "selected": []int{1}})
	readNext(conn, t, "state")
	send(t, conn, "check", nil)
	_, fb := readNext(conn, t, "feedback")
	if fb["isCorrect"] != true {
		t.Fatalf("expected correct feedback, got %v", fb)
	}

	send(t, conn, "navigate", map[string]any{"index": 0})
	readNext(conn, t, "error")

	send(t, conn, "next", nil)
	_, state = readNext(conn, t, "state")
	if state["current"] != float64(1) {
		t.Fatalf("expected second question, got %v", state["current"])
	}

	send(t, conn, "select", map[string]any{"index": 1, "selected": []int{2, 0}})
	readNext(conn, t, "state")
	send(t, conn, "check", nil)
	readNext(conn, t, "feedback")
	send(t, conn, "next", nil)
	_, result := readNext(conn, t, "result")
	if result["score"] != float64(3) || result["passed"] != true {
		t.Fatalf("unexpected result %v", result)
	}
	if _, ok := result["expired"]; ok {
		t.Fatalf("manual finish must not be flagged expired")
	}

	stats, _ := env.attempts.QuizStats(context.Background(), "quiz-1")
	if stats.PlayCount != 1 {
		t.Fatalf("expected one recorded attempt, got %d", stats.PlayCount)
	}
}

func TestWebSocketCountdownExpiry(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	conn := dialPlay(t, env, "quiz-timed", "standard")

	_, state := readNext(conn, t, "state")
	if state["deadline"] == nil {
		t.Fatalf("expected deadline in state")
	}
	send(t, conn, "select", map[string]any{"index": 0, "selected": []int{0}})
	readNext(conn, t, "state")
	send(t, conn, "navigate", map[string]any{"index": 1})
	readNext(conn, t, "state")

	var fire func()
	select {
	case fire = <-env.timers:
	case <-time.After(time.Second):
		t.Fatalf("expected countdown to be scheduled")
	}
	fire()

	_, result := readNext(conn, t, "result")
	if result["expired"] != true || result["score"] != float64(1) {
		t.Fatalf("unexpected expiry result %v", result)
	}

	send(t, conn, "select", map[string]any{"index": 1, "selected": []int{1}})
	_, errPayload := readNext(conn, t, "error")
	if errPayload["message"] != "play session closed" {
		t.Fatalf("expected closed play, got %v", errPayload)
	}
}

func TestWebSocketRequiresUserAndQuiz(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	resp := do(t, http.MethodGet, env.server.URL+"/ws/play?quizId=quiz-1", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = do(t, http.MethodGet, env.server.URL+"/ws/play?quizId=missing", "", map[string]string{"X-User-ID": "u1"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = do(t, http.MethodGet, env.server.URL+"/ws/play?quizId=quiz-1&mode=blitz", "", map[string]string{"X-User-ID": "u1"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func dialPlay(t *testing.T, env *testEnv, quizID, mode string) *websocket.Conn {
	t.Helper()
	u := "ws" + env.server.URL[len("http"):] + "/ws/play?quizId=" + quizID + "&mode=" + mode
	conn, _, err := websocket.DefaultDialer.Dial(u, http.Header{"X-User-ID": []string{"u1"}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func TestEnqueueStopsWhenWriterIsGone(t *testing.T) {
	send := make(chan outboundMessage[any], 1)
	writerDone := make(chan struct{})

	if !enqueue(send, writerDone, outboundMessage[any]{Type: "state"}) {
		t.Fatalf("expected message queued while the writer runs")
	}

	close(writerDone)
	result := make(chan bool, 1)
	go func() { result <- enqueue(send, writerDone, outboundMessage[any]{Type: "state"}) }()
	select {
	case ok := <-result:
		if ok {
			t.Fatalf("expected full queue to be dropped after the writer stopped")
		}
	case <-time.After(time.Second):
		t.Fatalf("enqueue blocked after the writer stopped")
	}
}
