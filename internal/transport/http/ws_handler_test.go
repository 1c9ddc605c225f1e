package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"reading-portal/internal/app"
	"reading-portal/internal/domain"
	"reading-portal/internal/infra/memory"
)

func TestWebSocketLessonFlow(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	conn := dial(t, server, "?user=sam&role=student")
	defer conn.Close()

	_, payload := readNext(conn, t, "session")
	if payload["identity"] == nil {
		t.Fatalf("expected identity in session payload, got %v", payload)
	}

	writeMsg(t, conn, "dashboard", map[string]any{"role": "student"})
	_, payload = readNext(conn, t, "dashboard")
	if payload["totalAvailable"] != float64(2) {
		t.Fatalf("expected totalAvailable 2, got %v", payload["totalAvailable"])
	}

	writeMsg(t, conn, "openLesson", map[string]any{"role": "student", "lessonId": "lesson-1"})
	_, payload = readNext(conn, t, "lesson")
	lesson, _ := payload["lesson"].(map[string]any)
	if lesson == nil || lesson["id"] != "lesson-1" {
		t.Fatalf("expected lesson-1 payload, got %v", payload)
	}
	if payload["questions"] == nil {
		t.Fatalf("expected understanding check questions for student, got %v", payload)
	}

	writeMsg(t, conn, "answer", map[string]any{"questionKey": "bSound", "option": "bat"})
	_, payload = readNext(conn, t, "feedback")
	if payload["feedback"] != string(app.FeedbackCorrect) {
		t.Fatalf("expected correct feedback, got %v", payload)
	}

	writeMsg(t, conn, "complete", nil)
	_, payload = readNext(conn, t, "completed")
	if payload["lessonTitle"] != "Letter Sounds: B, D, and P" {
		t.Fatalf("unexpected completion payload: %v", payload)
	}

	writeMsg(t, conn, "confirmContinue", nil)
	_, payload = readNext(conn, t, "redirect")
	if payload["to"] != "/student/lessons" {
		t.Fatalf("expected redirect to student lessons, got %v", payload)
	}
}

func TestWebSocketRedirectsUnauthenticatedNavigation(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	conn := dial(t, server, "")
	defer conn.Close()

	_, payload := readNext(conn, t, "session")
	if payload["identity"] != nil {
		t.Fatalf("expected anonymous session, got %v", payload)
	}

	writeMsg(t, conn, "navigate", map[string]any{"path": "/student/lessons"})
	_, payload = readNext(conn, t, "redirect")
	if payload["to"] != domain.PublicEntryPath {
		t.Fatalf("expected redirect to public entry, got %v", payload)
	}

	// Public paths render without a session.
	writeMsg(t, conn, "navigate", map[string]any{"path": "/about"})
	_, payload = readNext(conn, t, "location")
	if payload["path"] != "/about" {
		t.Fatalf("expected location /about, got %v", payload)
	}
}

func TestWebSocketLessonNotFound(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	conn := dial(t, server, "?user=sam&role=student")
	defer conn.Close()

	readNext(conn, t, "session")

	writeMsg(t, conn, "openLesson", map[string]any{"role": "student", "lessonId": "lesson-404"})
	_, payload := readNext(conn, t, "lessonNotFound")
	if payload["recovery"] != "back" {
		t.Fatalf("expected back recovery, got %v", payload)
	}
}

func TestWebSocketSaveLessonValidation(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	conn := dial(t, server, "?user=pat&role=teacher")
	defer conn.Close()

	readNext(conn, t, "session")

	writeMsg(t, conn, "saveLesson", map[string]any{"form": map[string]any{"title": "", "description": ""}})
	_, payload := readNext(conn, t, "validationError")
	if payload["errors"] == nil {
		t.Fatalf("expected validation errors, got %v", payload)
	}

	writeMsg(t, conn, "saveLesson", map[string]any{"form": map[string]any{
		"title":       "Long Vowel Words",
		"description": "Read words built from long vowel sounds.",
		"difficulty":  "medium",
	}})
	_, payload = readNext(conn, t, "redirect")
	if payload["to"] != "/teacher/lessons" {
		t.Fatalf("expected redirect to teacher lessons, got %v", payload)
	}
}

func TestWebSocketGuardsEditorMessages(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	conn := dial(t, server, "?user=sam&role=student")
	defer conn.Close()

	readNext(conn, t, "session")

	writeMsg(t, conn, "createLesson", nil)
	_, payload := readNext(conn, t, "redirect")
	if payload["to"] != "/student/lessons" {
		t.Fatalf("expected redirect to student landing, got %v", payload)
	}
}

func TestWebSocketChat(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	conn := dial(t, server, "?user=sam&role=student")
	defer conn.Close()

	readNext(conn, t, "session")

	writeMsg(t, conn, "chat", map[string]any{"message": "hello"})
	_, payload := readNext(conn, t, "chat")
	if payload["reply"] != "Hello! How can I help you today?" {
		t.Fatalf("unexpected chat reply: %v", payload)
	}
	transcript, _ := payload["transcript"].([]any)
	if len(transcript) != 2 {
		t.Fatalf("expected two transcript entries, got %v", payload)
	}

	writeMsg(t, conn, "clearChat", nil)
	_, payload = readNext(conn, t, "chat")
	transcript, _ = payload["transcript"].([]any)
	if len(transcript) != 0 {
		t.Fatalf("expected empty transcript after clear, got %v", payload)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	catalog := memory.NewCatalog(memory.NewStaticCatalogLoader(sampleLessons()), time.Minute)
	handler := NewPortalHandler(
		catalog,
		app.NewLessonViews(catalog, 0),
		app.NewLessonEditor(catalog, app.SimulatedRemote(0)),
		app.NewChatService(memory.NewChatStore()),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	return httptest.NewServer(mux)
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func writeMsg(t *testing.T, conn *websocket.Conn, msgType string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
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
		t.Fatalf("expected type %s, got %s (payload %v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func sampleLessons() []domain.Lesson {
	return []domain.Lesson{
		{
			ID:          "lesson-1",
			Title:       "Letter Sounds: B, D, and P",
			Description: "Learn to recognize and pronounce the letters B, D, and P.",
			Difficulty:  domain.DifficultyEasy,
			UploadedBy:  "Ms. Johnson",
		},
		{
			ID:          "lesson-2",
			Title:       "Short Vowel Words",
			Description: "Read simple words built from short vowel sounds.",
			Difficulty:  domain.DifficultyEasy,
			UploadedBy:  "Ms. Johnson",
		},
	}
}
