package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaleevo/namtechpro-sub001/internal/middleware"
	"github.com/vitaleevo/namtechpro-sub001/internal/model"
	"github.com/vitaleevo/namtechpro-sub001/internal/repository"
	"github.com/vitaleevo/namtechpro-sub001/internal/service"
)

const testJWTSecret = "test-secret"

// newTestApp wires the chat and console routes over the in-memory store,
// mirroring the route setup in cmd/server.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	store := repository.NewMemoryStore()
	hub := service.NewChatHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	webhooks := service.NewOpsWebhookService("", "")
	sessionSvc := service.NewSessionService(store, hub)
	handoffSvc := service.NewHandoffService(store, store, hub, webhooks)
	chatSvc := service.NewChatService(store, store, service.NewBotScript(), handoffSvc, hub)

	app := fiber.New()
	v1 := app.Group("/api/v1")

	chatH := NewChatHandler(sessionSvc, chatSvc)
	chat := v1.Group("/chat")
	chat.Post("/sessions", chatH.StartSession)
	chat.Get("/sessions/:id", chatH.GetSession)
	chat.Put("/sessions/:id/name", chatH.SetName)
	chat.Post("/sessions/:id/messages", chatH.SendMessage)
	chat.Post("/sessions/:id/select", chatH.SelectOption)
	chat.Get("/sessions/:id/messages", chatH.GetMessages)

	operatorH := NewOperatorHandler(sessionSvc, chatSvc, handoffSvc)
	console := v1.Group("/console", middleware.OperatorAuth(testJWTSecret))
	console.Get("/sessions", operatorH.ListSessions)
	console.Get("/sessions/attention", operatorH.ListAttention)
	console.Get("/sessions/:id/messages", operatorH.GetMessages)
	console.Post("/sessions/:id/claim", operatorH.Claim)
	console.Post("/sessions/:id/release", operatorH.Release)
	console.Post("/sessions/:id/close", operatorH.Close)
	console.Post("/sessions/:id/messages", operatorH.SendMessage)

	return app
}

func operatorToken(t *testing.T, operatorID, name string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  operatorID,
		"name": name,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var fields map[string]json.RawMessage
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &fields), "body: %s", raw)
	}
	return resp, fields
}

func startSession(t *testing.T, app *fiber.App) *model.Session {
	t.Helper()
	resp, fields := doJSON(t, app, "POST", "/api/v1/chat/sessions", "", nil)
	require.Equal(t, 201, resp.StatusCode)

	var sess model.Session
	sessRaw, err := json.Marshal(fields)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(sessRaw, &sess))
	require.NotEmpty(t, sess.ID)
	return &sess
}

func TestVisitorChatFlow(t *testing.T) {
	app := newTestApp(t)

	sess := startSession(t, app)
	assert.Equal(t, model.StatusBot, sess.Status)

	resp, fields := doJSON(t, app, "POST", "/api/v1/chat/sessions/"+sess.ID+"/messages", "",
		fiber.Map{"text": "preciso de ajuda com radar"})
	require.Equal(t, 200, resp.StatusCode)

	var msgs []*model.Message
	require.NoError(t, json.Unmarshal(fields["messages"], &msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, model.SenderVisitor, msgs[0].Sender)
	assert.Equal(t, model.SenderBot, msgs[1].Sender)

	// Poll with the watermark of the first message: only the reply comes back.
	resp, fields = doJSON(t, app, "GET",
		fmt.Sprintf("/api/v1/chat/sessions/%s/messages?since=%d", sess.ID, msgs[0].Seq), "", nil)
	require.Equal(t, 200, resp.StatusCode)

	var tail []*model.Message
	require.NoError(t, json.Unmarshal(fields["messages"], &tail))
	require.Len(t, tail, 1)
	assert.Equal(t, msgs[1].Seq, tail[0].Seq)
}

func TestSendMessageValidation(t *testing.T) {
	app := newTestApp(t)
	sess := startSession(t, app)

	resp, _ := doJSON(t, app, "POST", "/api/v1/chat/sessions/"+sess.ID+"/messages", "",
		fiber.Map{"text": "   "})
	assert.Equal(t, 400, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/v1/chat/sessions/unknown/messages", "",
		fiber.Map{"text": "oi"})
	assert.Equal(t, 404, resp.StatusCode)
}

func TestConsoleRequiresToken(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, "GET", "/api/v1/console/sessions", "", nil)
	assert.Equal(t, 401, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/api/v1/console/sessions", "not-a-jwt", nil)
	assert.Equal(t, 401, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/api/v1/console/sessions", operatorToken(t, "op-1", "Ana"), nil)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestClaimConflictNamesWinner(t *testing.T) {
	app := newTestApp(t)
	sess := startSession(t, app)

	resp, _ := doJSON(t, app, "POST", "/api/v1/console/sessions/"+sess.ID+"/claim",
		operatorToken(t, "op-a", "Ana"), nil)
	require.Equal(t, 200, resp.StatusCode)

	resp, fields := doJSON(t, app, "POST", "/api/v1/console/sessions/"+sess.ID+"/claim",
		operatorToken(t, "op-b", "Bruno"), nil)
	require.Equal(t, 409, resp.StatusCode)

	var owner string
	require.NoError(t, json.Unmarshal(fields["owner_operator_id"], &owner))
	assert.Equal(t, "op-a", owner)
}

func TestOperatorMessageOwnershipOverHTTP(t *testing.T) {
	app := newTestApp(t)
	sess := startSession(t, app)

	_, _ = doJSON(t, app, "POST", "/api/v1/console/sessions/"+sess.ID+"/claim",
		operatorToken(t, "op-a", "Ana"), nil)

	resp, _ := doJSON(t, app, "POST", "/api/v1/console/sessions/"+sess.ID+"/messages",
		operatorToken(t, "op-b", "Bruno"), fiber.Map{"text": "oi"})
	assert.Equal(t, 403, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/v1/console/sessions/"+sess.ID+"/messages",
		operatorToken(t, "op-a", "Ana"), fiber.Map{"text": "olá, sou o atendente"})
	assert.Equal(t, 200, resp.StatusCode)
}

func TestClosedSessionIsGone(t *testing.T) {
	app := newTestApp(t)
	sess := startSession(t, app)

	resp, _ := doJSON(t, app, "POST", "/api/v1/console/sessions/"+sess.ID+"/close",
		operatorToken(t, "op-a", "Ana"), nil)
	require.Equal(t, 200, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/v1/chat/sessions/"+sess.ID+"/messages", "",
		fiber.Map{"text": "oi"})
	assert.Equal(t, 410, resp.StatusCode)
}

func TestAttentionQueueOverHTTP(t *testing.T) {
	app := newTestApp(t)
	sess := startSession(t, app)

	// An explicit agent request escalates the session.
	resp, _ := doJSON(t, app, "POST", "/api/v1/chat/sessions/"+sess.ID+"/select", "",
		fiber.Map{"option": "Falar com atendente"})
	require.Equal(t, 200, resp.StatusCode)

	resp, fields := doJSON(t, app, "GET", "/api/v1/console/sessions/attention",
		operatorToken(t, "op-a", "Ana"), nil)
	require.Equal(t, 200, resp.StatusCode)

	var sessions []*model.Session
	require.NoError(t, json.Unmarshal(fields["sessions"], &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, sess.ID, sessions[0].ID)
	assert.True(t, sessions[0].Escalated)
	assert.Equal(t, model.StatusBot, sessions[0].Status)
}

func TestSetNameOverHTTP(t *testing.T) {
	app := newTestApp(t)
	sess := startSession(t, app)

	resp, _ := doJSON(t, app, "PUT", "/api/v1/chat/sessions/"+sess.ID+"/name", "",
		fiber.Map{"visitor_name": "Maria"})
	require.Equal(t, 200, resp.StatusCode)

	resp, fields := doJSON(t, app, "GET", "/api/v1/chat/sessions/"+sess.ID, "", nil)
	require.Equal(t, 200, resp.StatusCode)

	var name string
	require.NoError(t, json.Unmarshal(fields["visitor_name"], &name))
	assert.Equal(t, "Maria", name)
}
