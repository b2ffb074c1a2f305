package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	httpctrl "github.com/kindred-lab/kindred/pkg/controller/http"
	"github.com/kindred-lab/kindred/pkg/domain/interfaces"
	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
	"github.com/kindred-lab/kindred/pkg/repository/memory"
	"github.com/kindred-lab/kindred/pkg/usecase"
)

type stubGen struct {
	id     types.ProviderID
	reply  string
	deltas []string
}

func (p *stubGen) ID() types.ProviderID { return p.id }

func (p *stubGen) Generate(ctx context.Context, req *model.GenerateRequest) (string, error) {
	return p.reply, nil
}

func (p *stubGen) GenerateStream(ctx context.Context, req *model.GenerateRequest, fn interfaces.StreamFunc) (string, error) {
	for _, d := range p.deltas {
		if err := fn(d); err != nil {
			return "", err
		}
	}
	return p.reply, nil
}

func newTestServer(t *testing.T) (*httpctrl.Server, *memory.Memory, *model.Agent) {
	t.Helper()

	repo := memory.New()
	agent := &model.Agent{
		ID:         types.NewAgentID(),
		OwnerID:    "user-1",
		Name:       "토리",
		Generation: 1,
		Personality: model.Personality{
			Warmth: 70, Logic: 50, Creativity: 60, Energy: 40, Humor: 30,
		},
		Settings: model.AgentSettings{Persona: types.PersonaFriend},
	}
	gt.NoError(t, repo.Agent().Put(context.Background(), agent)).Required()

	auth := usecase.NewNoAuthUseCase("user-1")
	chat := usecase.NewChatUseCase(repo, auth,
		usecase.WithProviders(&stubGen{
			id:     types.ProviderPrimary,
			reply:  "오늘도 좋은 하루야!",
			deltas: []string{"오늘도 ", "좋은 하루야!"},
		}),
		usecase.WithExtractor(&stubGen{id: "extractor", reply: "[]"}),
	)
	return httpctrl.New(usecase.New(repo, auth, chat)), repo, agent
}

func postChat(srv *httpctrl.Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, repo, _ := newTestServer(t)

	t.Run("reports ok when running", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var body struct {
			Status    string `json:"status"`
			Suspended bool   `json:"suspended"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body)).Required()
		gt.Value(t, body.Status).Equal("ok")
		gt.Bool(t, body.Suspended).False()
	})

	t.Run("reports suspension", func(t *testing.T) {
		gt.NoError(t, repo.System().Set(context.Background(), &model.SystemState{
			KillSwitch: true,
		})).Required()

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.Bool(t, strings.Contains(rec.Body.String(), `"suspended":true`)).True()
	})
}

func TestChatEndpoint(t *testing.T) {
	srv, _, agent := newTestServer(t)

	t.Run("happy path", func(t *testing.T) {
		rec := postChat(srv, `{"agentId":"`+agent.ID.String()+`","message":"안녕!"}`)
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var reply model.ChatReply
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply)).Required()
		gt.Value(t, reply.Message).Equal("오늘도 좋은 하루야!")
		gt.Value(t, reply.Provider).Equal(types.ProviderPrimary)
		gt.Value(t, reply.Reaction).Equal(types.ReactionExcited)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		rec := postChat(srv, `{"agentId":`)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
		gt.Bool(t, strings.Contains(rec.Body.String(), "error")).True()
	})

	t.Run("empty message is a bad request", func(t *testing.T) {
		rec := postChat(srv, `{"agentId":"`+agent.ID.String()+`","message":""}`)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("unknown agent is not found", func(t *testing.T) {
		rec := postChat(srv, `{"agentId":"`+types.NewAgentID().String()+`","message":"안녕"}`)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})
}

func TestChatEndpoint_ErrorStatuses(t *testing.T) {
	t.Run("missing credential is unauthorized", func(t *testing.T) {
		repo := memory.New()
		auth := usecase.NewAuthUseCase([]byte("secret"))
		chat := usecase.NewChatUseCase(repo, auth)
		srv := httpctrl.New(usecase.New(repo, auth, chat))

		rec := postChat(srv, `{"agentId":"`+types.NewAgentID().String()+`","message":"안녕"}`)
		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("kill switch is service unavailable", func(t *testing.T) {
		srv, repo, agent := newTestServer(t)
		gt.NoError(t, repo.System().Set(context.Background(), &model.SystemState{
			KillSwitch: true,
			Reason:     "maintenance",
		})).Required()

		rec := postChat(srv, `{"agentId":"`+agent.ID.String()+`","message":"안녕"}`)
		gt.Number(t, rec.Code).Equal(http.StatusServiceUnavailable)
		gt.Bool(t, strings.Contains(rec.Body.String(), `"reason":"maintenance"`)).True()
	})

	t.Run("blocked content carries filter flags", func(t *testing.T) {
		srv, _, agent := newTestServer(t)

		rec := postChat(srv, `{"agentId":"`+agent.ID.String()+`","message":"요즘 죽고 싶다는 생각이 들어"}`)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
		gt.Bool(t, strings.Contains(rec.Body.String(), `"flags":["danger"]`)).True()
	})
}

func TestChatEndpoint_Streaming(t *testing.T) {
	srv, _, agent := newTestServer(t)

	rec := postChat(srv, `{"agentId":"`+agent.ID.String()+`","message":"안녕!","stream":true}`)
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, rec.Header().Get("Content-Type")).Equal("text/event-stream")

	events := []model.StreamEvent{}
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev model.StreamEvent
		gt.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev)).Required()
		events = append(events, ev)
	}

	gt.Array(t, events).Length(3)
	gt.Value(t, events[0].Token).Equal("오늘도 ")
	gt.Value(t, events[1].Token).Equal("좋은 하루야!")
	gt.Bool(t, events[2].Done).True()
	gt.Value(t, events[2].Provider).Equal(types.ProviderPrimary)
	gt.Value(t, events[2].Reaction).Equal(types.ReactionExcited)
}
