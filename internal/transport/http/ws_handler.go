package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"reading-portal/internal/app"
	"reading-portal/internal/domain"
)

// PortalHandler serves the portal over one websocket per client. The read
// loop is the client's event loop: messages are processed strictly in the
// order they arrive, and every guarded navigation re-reads the session.
type PortalHandler struct {
	catalog  app.Catalog
	views    *app.LessonViews
	editor   *app.LessonEditor
	chat     *app.ChatService
	progress *app.ProgressService
	upgrader websocket.Upgrader
}

func NewPortalHandler(catalog app.Catalog, views *app.LessonViews, editor *app.LessonEditor, chat *app.ChatService) *PortalHandler {
	return &PortalHandler{
		catalog:  catalog,
		views:    views,
		editor:   editor,
		chat:     chat,
		progress: app.NewProgressService(catalog),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// connSession holds the identity for one connection. Login/logout mutate it;
// the guard reads it fresh on every navigation.
type connSession struct {
	mu       sync.RWMutex
	identity domain.Identity
	signedIn bool
}

func (s *connSession) CurrentIdentity() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.signedIn
}

func (s *connSession) login(username string, role domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = domain.Identity{Username: username, Role: role}
	s.signedIn = true
}

func (s *connSession) logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = domain.Identity{}
	s.signedIn = false
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type redirectPayload struct {
	To string `json:"to"`
}

type sessionPayload struct {
	Identity *domain.Identity `json:"identity"`
}

type loginPayload struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type navigatePayload struct {
	Path string `json:"path"`
}

type locationPayload struct {
	Path string `json:"path"`
}

type rolePayload struct {
	Role string `json:"role"`
}

type openLessonPayload struct {
	Role     string `json:"role"`
	LessonID string `json:"lessonId"`
}

type lessonPayload struct {
	Lesson       domain.Lesson          `json:"lesson"`
	Questions    []domain.CheckQuestion `json:"questions,omitempty"`
	Capabilities app.Capabilities       `json:"capabilities"`
	EditPath     string                 `json:"editPath,omitempty"`
	BackPath     string                 `json:"backPath"`
}

type lessonNotFoundPayload struct {
	LessonID string `json:"lessonId"`
	Message  string `json:"message"`
	Recovery string `json:"recovery"`
}

type answerPayload struct {
	QuestionKey string `json:"questionKey"`
	Option      string `json:"option"`
}

type feedbackPayload struct {
	QuestionKey string             `json:"questionKey"`
	Option      string             `json:"option"`
	Feedback    app.Feedback       `json:"feedback"`
	Progress    app.AnswerProgress `json:"progress"`
}

type editLessonPayload struct {
	LessonID string `json:"lessonId"`
}

type lessonFormPayload struct {
	LessonID string         `json:"lessonId,omitempty"`
	Form     app.LessonForm `json:"form"`
}

type saveLessonPayload struct {
	LessonID string         `json:"lessonId,omitempty"`
	Form     app.LessonForm `json:"form"`
}

type deleteLessonPayload struct {
	LessonID  string `json:"lessonId"`
	Confirmed bool   `json:"confirmed"`
}

type validationPayload struct {
	Errors app.ValidationErrors `json:"errors"`
}

type chatPayload struct {
	Message string `json:"message"`
}

type chatResultPayload struct {
	Reply      string   `json:"reply,omitempty"`
	Transcript []string `json:"transcript"`
}

// ServeWS upgrades the request and runs the portal protocol for one client.
func (h *PortalHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	session := &connSession{}
	if user := r.URL.Query().Get("user"); user != "" {
		session.login(user, domain.Role(r.URL.Query().Get("role")))
	}
	guard := app.NewRouteGuard(session)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	var announceWG sync.WaitGroup

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	var view *app.LessonView
	closeView := func() {
		if view != nil {
			view.Close()
			view = nil
		}
	}
	defer closeView()

	send <- outboundMessage[any]{Type: "session", Payload: h.sessionSnapshot(session)}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "login":
			var payload loginPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Username == "" {
				send <- errMsg("invalid login payload")
				continue
			}
			session.login(payload.Username, domain.Role(payload.Role))
			send <- outboundMessage[any]{Type: "session", Payload: h.sessionSnapshot(session)}

		case "logout":
			closeView()
			session.logout()
			send <- outboundMessage[any]{Type: "session", Payload: h.sessionSnapshot(session)}
			send <- outboundMessage[any]{Type: "redirect", Payload: redirectPayload{To: domain.PublicEntryPath}}

		case "navigate":
			var payload navigatePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid navigate payload")
				continue
			}
			if decision := decideForPath(guard, payload.Path); !decision.Allowed {
				send <- outboundMessage[any]{Type: "redirect", Payload: redirectPayload{To: decision.RedirectTo}}
				continue
			}
			send <- outboundMessage[any]{Type: "location", Payload: locationPayload{Path: payload.Path}}

		case "dashboard":
			var payload rolePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid dashboard payload")
				continue
			}
			role, ok := domain.ParseRole(payload.Role)
			if !ok {
				send <- outboundMessage[any]{Type: "redirect", Payload: redirectPayload{To: domain.PublicEntryPath}}
				continue
			}
			decision := guard.Authorize(role)
			if !decision.Allowed {
				send <- outboundMessage[any]{Type: "redirect", Payload: redirectPayload{To: decision.RedirectTo}}
				continue
			}
			overview, err := h.progress.Overview(ctx)
			if err != nil {
				send <- errMsg("dashboard unavailable")
				continue
			}
			send <- outboundMessage[any]{Type: "dashboard", Payload: overview}

		case "openLesson":
			var payload openLessonPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.LessonID == "" {
				send <- errMsg("invalid openLesson payload")
				continue
			}
			role, ok := domain.ParseRole(payload.Role)
			if !ok || role == domain.RoleGuardian {
				// No lesson detail route exists outside the student and
				// teacher subtrees.
				send <- outboundMessage[any]{Type: "redirect", Payload: redirectPayload{To: domain.PublicEntryPath}}
				continue
			}
			decision := guard.Authorize(role)
			if !decision.Allowed {
				send <- outboundMessage[any]{Type: "redirect", Payload: redirectPayload{To: decision.RedirectTo}}
				continue
			}
			closeView()
			view = h.views.Open(ctx, decision.Identity, payload.LessonID)
			announceWG.Add(1)
			go h.announceLesson(view, send, closeSignals, &announceWG)

		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid answer payload")
				continue
			}
			if view == nil {
				send <- errMsg("no lesson open")
				continue
			}
			if err := view.SelectAnswer(payload.QuestionKey, payload.Option); err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "feedback", Payload: feedbackPayload{
				QuestionKey: payload.QuestionKey,
				Option:      payload.Option,
				Feedback:    view.FeedbackFor(payload.QuestionKey, payload.Option),
				Progress:    view.AnswerProgress(),
			}}

		case "complete":
			if view == nil {
				send <- errMsg("no lesson open")
				continue
			}
			completion, err := view.MarkComplete()
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "completed", Payload: completion}

		case "confirmContinue":
			if view == nil || view.State() != app.ViewCompleted {
				send <- errMsg("no completed lesson to continue from")
				continue
			}
			completion, err := view.MarkComplete()
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			closeView()
			send <- outboundMessage[any]{Type: "redirect", Payload: redirectPayload{To: completion.ContinuePath}}

		case "closeLesson":
			closeView()

		case "createLesson":
			decision := guard.Authorize(domain.RoleTeacher)
			if !decision.Allowed {
				send <- outboundMessage[any]{Type: "redirect", Payload: redirectPayload{To: decision.RedirectTo}}
				continue
			}
			send <- outboundMessage[any]{Type: "lessonForm", Payload: lessonFormPayload{Form: h.editor.NewForm()}}

		case "editLesson":
			var payload editLessonPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid editLesson payload")
				continue
			}
			decision := guard.Authorize(domain.RoleTeacher)
			if !decision.Allowed {
				send <- outboundMessage[any]{Type: "redirect", Payload: redirectPayload{To: decision.RedirectTo}}
				continue
			}
			form, err := h.editor.Prefill(ctx, payload.LessonID)
			if errors.Is(err, domain.ErrLessonNotFound) {
				send <- outboundMessage[any]{Type: "formError", Payload: errorPayload{Message: "Lesson not found"}}
				continue
			}
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "lessonForm", Payload: lessonFormPayload{LessonID: payload.LessonID, Form: form}}

		case "saveLesson":
			var payload saveLessonPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid saveLesson payload")
				continue
			}
			decision := guard.Authorize(domain.RoleTeacher)
			if !decision.Allowed {
				send <- outboundMessage[any]{Type: "redirect", Payload: redirectPayload{To: decision.RedirectTo}}
				continue
			}
			redirectTo, err := h.editor.Submit(ctx, payload.Form)
			var verrs app.ValidationErrors
			if errors.As(err, &verrs) {
				send <- outboundMessage[any]{Type: "validationError", Payload: validationPayload{Errors: verrs}}
				continue
			}
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "redirect", Payload: redirectPayload{To: redirectTo}}

		case "deleteLesson":
			var payload deleteLessonPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid deleteLesson payload")
				continue
			}
			decision := guard.Authorize(domain.RoleTeacher)
			if !decision.Allowed {
				send <- outboundMessage[any]{Type: "redirect", Payload: redirectPayload{To: decision.RedirectTo}}
				continue
			}
			redirectTo, err := h.editor.Delete(ctx, payload.LessonID, payload.Confirmed)
			if errors.Is(err, domain.ErrLessonNotFound) {
				send <- outboundMessage[any]{Type: "formError", Payload: errorPayload{Message: "Lesson not found"}}
				continue
			}
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "redirect", Payload: redirectPayload{To: redirectTo}}

		case "chat":
			var payload chatPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid chat payload")
				continue
			}
			reply, transcript, err := h.chat.Send(ctx, chatUser(session), payload.Message)
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "chat", Payload: chatResultPayload{Reply: reply, Transcript: transcript}}

		case "clearChat":
			if err := h.chat.Clear(ctx, chatUser(session)); err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "chat", Payload: chatResultPayload{Transcript: []string{}}}

		default:
			send <- errMsg("unsupported message type")
		}
	}

	close(closeSignals)
	announceWG.Wait()
	close(send)
	<-writerDone
}

// announceLesson waits for the deferred lesson load to settle and pushes the
// outcome. A view closed (or connection gone) before resolution sends nothing.
func (h *PortalHandler) announceLesson(view *app.LessonView, send chan<- outboundMessage[any], closeSignals <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	select {
	case <-view.Ready():
	case <-closeSignals:
		return
	}

	var msg outboundMessage[any]
	switch view.State() {
	case app.ViewNotFound:
		msg = outboundMessage[any]{Type: "lessonNotFound", Payload: lessonNotFoundPayload{
			LessonID: view.LessonID(),
			Message:  "The lesson you're looking for doesn't exist or has been removed.",
			Recovery: "back",
		}}
	case app.ViewReady, app.ViewCompleted:
		lesson, ok := view.Lesson()
		if !ok {
			return
		}
		caps := view.Capabilities()
		payload := lessonPayload{
			Lesson:       lesson,
			Capabilities: caps,
			BackPath:     view.Viewer().Role.LandingPath(),
		}
		if caps.CanTakeChecks {
			payload.Questions = app.UnderstandingCheck()
		}
		if caps.CanEditLessons {
			payload.EditPath = domain.LessonEditPath(lesson.ID)
		}
		msg = outboundMessage[any]{Type: "lesson", Payload: payload}
	default:
		// Load was discarded; the view closed first.
		return
	}

	select {
	case send <- msg:
	case <-closeSignals:
	}
}

func (h *PortalHandler) sessionSnapshot(session *connSession) sessionPayload {
	identity, ok := session.CurrentIdentity()
	if !ok {
		return sessionPayload{}
	}
	return sessionPayload{Identity: &identity}
}

// decideForPath gates a navigation event. Only role-scoped subtrees are
// guarded; public paths always render.
func decideForPath(guard *app.RouteGuard, path string) app.Decision {
	seg := strings.TrimPrefix(path, "/")
	if i := strings.Index(seg, "/"); i >= 0 {
		seg = seg[:i]
	}
	role, ok := domain.ParseRole(seg)
	if !ok {
		return app.Decision{Allowed: true}
	}
	return guard.Authorize(role)
}

func chatUser(session *connSession) string {
	if identity, ok := session.CurrentIdentity(); ok {
		return identity.Username
	}
	return "guest"
}

func errMsg(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
