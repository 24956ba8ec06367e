package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/academia-artes/course-assistant/internal/intake"
	"github.com/academia-artes/course-assistant/internal/middleware"
	"github.com/academia-artes/course-assistant/internal/model"
	"github.com/academia-artes/course-assistant/internal/service"
	"github.com/academia-artes/course-assistant/pkg/logger"
)

const testSecret = "handler-secret"

type mockAssistant struct {
	mock.Mock
}

func (m *mockAssistant) Handle(ctx context.Context, channel model.Channel, id, text string) ([]model.Reply, error) {
	args := m.Called(ctx, channel, id, text)
	replies, _ := args.Get(0).([]model.Reply)
	return replies, args.Error(1)
}

func (m *mockAssistant) StartIntake(ctx context.Context, channel model.Channel, id string) (model.Reply, error) {
	args := m.Called(ctx, channel, id)
	return args.Get(0).(model.Reply), args.Error(1)
}

func (m *mockAssistant) Welcome(first bool) model.Reply {
	return m.Called(first).Get(0).(model.Reply)
}

func (m *mockAssistant) SubmitContact(ctx context.Context, channel model.Channel, id string, req *model.ContactRequest) (*model.Lead, error) {
	args := m.Called(ctx, channel, id, req)
	lead, _ := args.Get(0).(*model.Lead)
	return lead, args.Error(1)
}

func (m *mockAssistant) RetryLead(ctx context.Context, channel model.Channel, id string) (intake.Outcome, error) {
	args := m.Called(ctx, channel, id)
	return args.Get(0).(intake.Outcome), args.Error(1)
}

func newServer(t *testing.T, a *mockAssistant, cfg RoutesConfig) http.Handler {
	t.Helper()
	log := logger.NewNop()
	if cfg.RateLimitRequests == 0 {
		cfg.RateLimitRequests = 100
		cfg.RateLimitWindow = time.Minute
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = testSecret
	}
	return NewRouter(cfg, Handlers{
		Ask:     NewAskHandler(a, log),
		Contact: NewContactHandler(a, log),
		Admin:   NewAdminHandler(a, log),
		Health: NewHealthHandler(map[string]Check{
			"store": func(context.Context) error { return nil },
		}),
	}, log)
}

func do(h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAsk(t *testing.T) {
	a := &mockAssistant{}
	a.On("Handle", mock.Anything, model.ChannelWeb, "198.51.100.7", "¿precio de piano?").Return([]model.Reply{
		{Text: service.Greeting, Actions: []model.Action{model.ContactAction()}},
		{Text: "Cuesta poco."},
	}, nil)
	srv := newServer(t, a, RoutesConfig{})

	rec := do(srv, http.MethodPost, "/api/ask", `{"message":"¿precio de piano?"}`, "X-Real-IP", "198.51.100.7")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, service.Greeting+"\n\nCuesta poco.", resp.Reply)
	assert.Equal(t, []model.Action{model.ContactAction()}, resp.Actions)
	a.AssertExpectations(t)
}

func TestAsk_ExplicitIP(t *testing.T) {
	a := &mockAssistant{}
	a.On("Handle", mock.Anything, model.ChannelWeb, "client-1", "hola").Return([]model.Reply{{Text: "hola"}}, nil)
	srv := newServer(t, a, RoutesConfig{})

	rec := do(srv, http.MethodPost, "/api/ask", `{"message":"hola","ip":"client-1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	a.AssertExpectations(t)
}

func TestAsk_BadRequests(t *testing.T) {
	a := &mockAssistant{}
	srv := newServer(t, a, RoutesConfig{})

	for _, body := range []string{`{"message":""}`, `{"message":"   "}`, `not json`, `{}`} {
		rec := do(srv, http.MethodPost, "/api/ask", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	a.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAsk_RouterError(t *testing.T) {
	a := &mockAssistant{}
	a.On("Handle", mock.Anything, model.ChannelWeb, mock.Anything, "hola").Return(nil, errors.New("redis down"))
	srv := newServer(t, a, RoutesConfig{})

	rec := do(srv, http.MethodPost, "/api/ask", `{"message":"hola"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, service.Unavailable, resp.Reply)
}

func decodeAsk(t *testing.T, rec *httptest.ResponseRecorder) model.AskResponse {
	t.Helper()
	var resp model.AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAsk_Commands(t *testing.T) {
	first := model.Reply{Text: intake.Question(model.StepName)}
	welcome := model.Reply{Text: service.WelcomeBack, Actions: []model.Action{model.ContactAction()}}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"contact command", `{"message":"/quiero_contacto","ip":"c1"}`, first.Text},
		{"contact command with bot suffix", `{"message":"/Quiero_Contacto@academia_bot","ip":"c1"}`, first.Text},
		{"contact button", `{"action":"iniciar_contacto","ip":"c1"}`, service.ButtonStart},
		{"start command", `{"message":"/inicio","ip":"c1"}`, service.WelcomeBack},
		{"unknown command", `{"message":"/ayuda","ip":"c1"}`, service.WelcomeBack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &mockAssistant{}
			a.On("StartIntake", mock.Anything, model.ChannelWeb, "c1").Return(first, nil).Maybe()
			a.On("Welcome", false).Return(welcome).Maybe()
			srv := newServer(t, a, RoutesConfig{})

			rec := do(srv, http.MethodPost, "/api/ask", tt.body)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, decodeAsk(t, rec).Reply)
			a.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAsk_UnknownAction(t *testing.T) {
	a := &mockAssistant{}
	srv := newServer(t, a, RoutesConfig{})

	rec := do(srv, http.MethodPost, "/api/ask", `{"action":"borrar_todo"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	a.AssertNotCalled(t, "StartIntake", mock.Anything, mock.Anything, mock.Anything)
}

func TestAsk_StartIntakeError(t *testing.T) {
	a := &mockAssistant{}
	a.On("StartIntake", mock.Anything, model.ChannelWeb, "c1").Return(model.Reply{}, errors.New("redis down"))
	srv := newServer(t, a, RoutesConfig{})

	rec := do(srv, http.MethodPost, "/api/ask", `{"message":"/quiero_contacto","ip":"c1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.Unavailable, decodeAsk(t, rec).Reply)
}

const validContactBody = `{"nombre":"Ana","rut":"12.345.678-9","correo":"ana@example.cl","telefono":"912345678","preferencia":"Sí","mensaje":"Hola"}`

func decodeContact(t *testing.T, rec *httptest.ResponseRecorder) model.ContactResponse {
	t.Helper()
	var resp model.ContactResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestContact(t *testing.T) {
	a := &mockAssistant{}
	a.On("SubmitContact", mock.Anything, model.ChannelWeb, mock.Anything, mock.MatchedBy(func(req *model.ContactRequest) bool {
		return req.Nombre == "Ana" && req.Preferencia == "Sí"
	})).Return(&model.Lead{ID: "lead-1"}, nil)
	srv := newServer(t, a, RoutesConfig{})

	rec := do(srv, http.MethodPost, "/api/contacto", validContactBody)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeContact(t, rec)
	assert.True(t, resp.OK)
	assert.Equal(t, ContactSent, resp.Message)
}

func TestContact_MissingFields(t *testing.T) {
	a := &mockAssistant{}
	srv := newServer(t, a, RoutesConfig{})

	rec := do(srv, http.MethodPost, "/api/contacto", `{"nombre":"Ana","correo":"ana@example.cl"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeContact(t, rec)
	assert.False(t, resp.OK)
	assert.Equal(t, ContactMissingFields+"rut, telefono, preferencia, mensaje", resp.Message)
	a.AssertNotCalled(t, "SubmitContact", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestContact_InvalidField(t *testing.T) {
	a := &mockAssistant{}
	a.On("SubmitContact", mock.Anything, model.ChannelWeb, mock.Anything, mock.Anything).
		Return(nil, &intake.FieldError{Field: "correo", Value: "x"})
	srv := newServer(t, a, RoutesConfig{})

	rec := do(srv, http.MethodPost, "/api/contacto", validContactBody)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeContact(t, rec)
	assert.False(t, resp.OK)
	assert.Equal(t, ContactInvalidField+"correo", resp.Message)
}

func TestContact_NotifierFailure(t *testing.T) {
	a := &mockAssistant{}
	a.On("SubmitContact", mock.Anything, model.ChannelWeb, mock.Anything, mock.Anything).
		Return(&model.Lead{ID: "lead-1"}, errors.New("smtp down"))
	srv := newServer(t, a, RoutesConfig{})

	rec := do(srv, http.MethodPost, "/api/contacto", validContactBody)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeContact(t, rec)
	assert.False(t, resp.OK)
	assert.Equal(t, ContactFailed, resp.Message)
}

func adminToken(t *testing.T, scopes ...string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Scopes: scopes,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRetryLead(t *testing.T) {
	a := &mockAssistant{}
	a.On("RetryLead", mock.Anything, model.ChannelTelegram, "100").
		Return(intake.Outcome{Delivered: true, Lead: &model.Lead{ID: "lead-9"}}, nil)
	a.On("RetryLead", mock.Anything, model.ChannelTelegram, "200").
		Return(intake.Outcome{}, intake.ErrNoIntake)
	a.On("RetryLead", mock.Anything, model.ChannelTelegram, "300").
		Return(intake.Outcome{}, intake.ErrNotPending)
	a.On("RetryLead", mock.Anything, model.ChannelTelegram, "400").
		Return(intake.Outcome{Lead: &model.Lead{ID: "lead-10"}}, nil)
	srv := newServer(t, a, RoutesConfig{})
	auth := adminToken(t, middleware.ScopeRetryLeads)

	rec := do(srv, http.MethodPost, "/api/admin/leads/telegram/100/retry", "", "Authorization", auth)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp RetryLeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, RetryLeadResponse{Delivered: true, LeadID: "lead-9"}, resp)

	tests := []struct {
		path   string
		auth   string
		status int
	}{
		{"/api/admin/leads/telegram/200/retry", auth, http.StatusNotFound},
		{"/api/admin/leads/telegram/300/retry", auth, http.StatusConflict},
		{"/api/admin/leads/telegram/400/retry", auth, http.StatusBadGateway},
		{"/api/admin/leads/sms/100/retry", auth, http.StatusBadRequest},
		{"/api/admin/leads/telegram/100/retry", "", http.StatusUnauthorized},
		{"/api/admin/leads/telegram/100/retry", adminToken(t), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var headers []string
			if tt.auth != "" {
				headers = []string{"Authorization", tt.auth}
			}
			rec := do(srv, http.MethodPost, tt.path, "", headers...)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHealth(t *testing.T) {
	srv := newServer(t, &mockAssistant{}, RoutesConfig{})

	rec := do(srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(srv, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))

	rec = do(srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReady_FailingCheck(t *testing.T) {
	h := NewHealthHandler(map[string]Check{
		"nats": func(context.Context) error { return errors.New("not connected") },
	})
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "nats: not connected")
}

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>widget</h1>"), 0o644))

	srv := newServer(t, &mockAssistant{}, RoutesConfig{StaticDir: dir})
	rec := do(srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "widget")
}

func TestRateLimitedAPI(t *testing.T) {
	a := &mockAssistant{}
	a.On("Handle", mock.Anything, model.ChannelWeb, mock.Anything, "hola").Return([]model.Reply{{Text: "hola"}}, nil)
	srv := newServer(t, a, RoutesConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute})

	assert.Equal(t, http.StatusOK, do(srv, http.MethodPost, "/api/ask", `{"message":"hola"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(srv, http.MethodPost, "/api/ask", `{"message":"hola"}`).Code)
}
