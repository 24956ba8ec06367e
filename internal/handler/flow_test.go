package handler

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academia-artes/course-assistant/internal/catalog"
	"github.com/academia-artes/course-assistant/internal/intake"
	"github.com/academia-artes/course-assistant/internal/llm"
	"github.com/academia-artes/course-assistant/internal/model"
	"github.com/academia-artes/course-assistant/internal/service"
	"github.com/academia-artes/course-assistant/internal/store"
	"github.com/academia-artes/course-assistant/pkg/logger"
)

type stubLLM struct{}

func (stubLLM) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: "Tenemos cursos de piano.", Model: req.Model}, nil
}

func (stubLLM) Name() string         { return "stub" }
func (stubLLM) DefaultModel() string { return "stub-model" }

type stubRetriever struct{}

func (stubRetriever) Retrieve(context.Context, []string) string { return "contexto" }

type recordingNotifier struct {
	mu    sync.Mutex
	leads []*model.Lead
}

func (n *recordingNotifier) Notify(_ context.Context, lead *model.Lead) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.leads = append(n.leads, lead)
	return nil
}

func (n *recordingNotifier) Name() string { return "recording" }

func newAssistantServer(t *testing.T) (http.Handler, *store.Memory, *recordingNotifier) {
	t.Helper()
	log := logger.NewNop()

	classifier, err := catalog.New(catalog.DefaultTable())
	require.NoError(t, err)

	st := store.NewMemory()
	n := &recordingNotifier{}
	router := service.NewRouter(st, classifier, stubRetriever{},
		service.NewResponder(stubLLM{}, service.ResponderConfig{}, log),
		intake.NewMachine(st, n, log), log)

	srv := NewRouter(RoutesConfig{RateLimitRequests: 100, RateLimitWindow: time.Minute}, Handlers{
		Ask:     NewAskHandler(router, log),
		Contact: NewContactHandler(router, log),
		Admin:   NewAdminHandler(router, log),
		Health:  NewHealthHandler(nil),
	}, log)
	return srv, st, n
}

func ask(t *testing.T, srv http.Handler, body string) string {
	t.Helper()
	rec := do(srv, http.MethodPost, "/api/ask", body)
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeAsk(t, rec).Reply
}

func TestAsk_WebIntakeThroughRouter(t *testing.T) {
	srv, st, n := newAssistantServer(t)
	key := model.Key(model.ChannelWeb, "1.2.3.4")

	assert.Equal(t, intake.Question(model.StepName), ask(t, srv, `{"message":"/quiero_contacto","ip":"1.2.3.4"}`))
	_, err := st.GetIntake(context.Background(), key)
	require.NoError(t, err)

	reply := ask(t, srv, `{"message":"Ana Pérez","ip":"1.2.3.4"}`)
	assert.Contains(t, reply, service.Greeting)
	assert.Contains(t, reply, intake.Question(model.StepNationalID))

	for _, answer := range []string{"12.345.678-9", "ana@example.cl", "912345678", "sí"} {
		ask(t, srv, `{"message":"`+answer+`","ip":"1.2.3.4"}`)
	}
	assert.Equal(t, intake.MsgDelivered, ask(t, srv, `{"message":"Quiero clases de piano","ip":"1.2.3.4"}`))

	require.Len(t, n.leads, 1)
	assert.Equal(t, model.ChannelWeb, n.leads[0].Channel)
	assert.Equal(t, "Ana Pérez", n.leads[0].Name)
	assert.True(t, n.leads[0].PrefersWhatsApp)

	_, err = st.GetIntake(context.Background(), key)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.Equal(t, "Tenemos cursos de piano.", ask(t, srv, `{"message":"¿Tienen piano?","ip":"1.2.3.4"}`))
}

func TestAsk_WebButtonThroughRouter(t *testing.T) {
	srv, st, _ := newAssistantServer(t)

	assert.Equal(t, service.ButtonStart, ask(t, srv, `{"action":"iniciar_contacto","ip":"5.6.7.8"}`))

	rec, err := st.GetIntake(context.Background(), model.Key(model.ChannelWeb, "5.6.7.8"))
	require.NoError(t, err)
	assert.Equal(t, model.StepName, rec.Step)
}
