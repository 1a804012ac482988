package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tadeuscofield/NutriOffShore/internal/agent"
	"github.com/tadeuscofield/NutriOffShore/internal/auth"
	"github.com/tadeuscofield/NutriOffShore/internal/config"
	"github.com/tadeuscofield/NutriOffShore/internal/store"
)

type stubChat struct {
	resposta *agent.Resposta
	err      error
	events   []agent.Event

	gotColaborador string
	gotMensagem    string
	gotConversa    string
}

func (c *stubChat) ProcessarMensagem(ctx context.Context, colaboradorID, mensagem, conversaID string) (*agent.Resposta, error) {
	c.gotColaborador = colaboradorID
	c.gotMensagem = mensagem
	c.gotConversa = conversaID
	return c.resposta, c.err
}

func (c *stubChat) ProcessarMensagemStream(ctx context.Context, colaboradorID, mensagem, conversaID string, emit func(agent.Event)) {
	c.gotColaborador = colaboradorID
	c.gotMensagem = mensagem
	c.gotConversa = conversaID
	for _, ev := range c.events {
		emit(ev)
	}
}

func newTestServer(t *testing.T, cfg *config.Config, chat ChatService) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(cfg, chat, st, logger), st
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, config.Default(), &stubChat{})
	rec := doJSON(t, srv.Handler(), "GET", "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestChatMensagem(t *testing.T) {
	chat := &stubChat{resposta: &agent.Resposta{
		Resposta:   "Seu peso esta estavel.",
		ConversaID: "conv-1",
		Tokens:     120,
	}}
	srv, _ := newTestServer(t, config.Default(), chat)

	rec := doJSON(t, srv.Handler(), "POST", "/api/v1/chat/mensagem", map[string]string{
		"colaborador_id": "colab-1",
		"mensagem":       "Como esta meu peso?",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Resposta != "Seu peso esta estavel." || resp.ConversaID != "conv-1" || resp.TokensUtilizados != 120 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if chat.gotColaborador != "colab-1" || chat.gotMensagem != "Como esta meu peso?" {
		t.Errorf("chat received colaborador=%q mensagem=%q", chat.gotColaborador, chat.gotMensagem)
	}
}

func TestChatMensagemMissingFields(t *testing.T) {
	srv, _ := newTestServer(t, config.Default(), &stubChat{})
	rec := doJSON(t, srv.Handler(), "POST", "/api/v1/chat/mensagem", map[string]string{
		"colaborador_id": "colab-1",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestChatStreamSSE(t *testing.T) {
	chat := &stubChat{events: []agent.Event{
		{Type: agent.EventToolCall, Tool: "get_colaborador_profile"},
		{Type: agent.EventText, Content: "Ola, "},
		{Type: agent.EventText, Content: "Carlos."},
		{Type: agent.EventDone, ConversaID: "conv-2"},
	}}
	srv, _ := newTestServer(t, config.Default(), chat)

	rec := doJSON(t, srv.Handler(), "POST", "/api/v1/chat/mensagem/stream", map[string]string{
		"colaborador_id": "colab-1",
		"mensagem":       "Oi",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	frames := strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n")
	if len(frames) != 5 {
		t.Fatalf("got %d frames, want 5: %q", len(frames), frames)
	}
	if frames[len(frames)-1] != "data: [DONE]" {
		t.Errorf("last frame = %q, want data: [DONE]", frames[len(frames)-1])
	}

	var first agent.Event
	if err := json.Unmarshal([]byte(strings.TrimPrefix(frames[0], "data: ")), &first); err != nil {
		t.Fatalf("decode first frame: %v", err)
	}
	if first.Type != agent.EventToolCall || first.Tool != "get_colaborador_profile" {
		t.Errorf("first event = %+v", first)
	}
}

func TestColaboradorCRUD(t *testing.T) {
	srv, _ := newTestServer(t, config.Default(), &stubChat{})
	handler := srv.Handler()

	rec := doJSON(t, handler, "POST", "/api/v1/colaboradores", map[string]any{
		"matricula":       "PET-1000",
		"nome":            "Marina Souza",
		"data_nascimento": "1990-04-12",
		"sexo":            "F",
		"altura_cm":       165.0,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var criado store.Colaborador
	if err := json.Unmarshal(rec.Body.Bytes(), &criado); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if criado.ID == "" {
		t.Fatal("created colaborador has no id")
	}

	rec = doJSON(t, handler, "GET", "/api/v1/colaboradores/"+criado.ID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var perfil struct {
		Colaborador store.Colaborador `json:"colaborador"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &perfil); err != nil {
		t.Fatalf("decode perfil: %v", err)
	}
	if perfil.Colaborador.Nome != "Marina Souza" {
		t.Errorf("nome = %q", perfil.Colaborador.Nome)
	}

	rec = doJSON(t, handler, "PUT", "/api/v1/colaboradores/"+criado.ID, map[string]any{
		"cargo": "Tecnica de Operacoes",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var atualizado store.Colaborador
	if err := json.Unmarshal(rec.Body.Bytes(), &atualizado); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if atualizado.Cargo != "Tecnica de Operacoes" {
		t.Errorf("cargo = %q", atualizado.Cargo)
	}
	if atualizado.Nome != "Marina Souza" {
		t.Errorf("nome lost on partial update: %q", atualizado.Nome)
	}

	rec = doJSON(t, handler, "DELETE", "/api/v1/colaboradores/"+criado.ID, nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, handler, "GET", "/api/v1/colaboradores/"+criado.ID, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
}

func TestRefeicoesDiaTotais(t *testing.T) {
	srv, st := newTestServer(t, config.Default(), &stubChat{})
	handler := srv.Handler()

	colab := &store.Colaborador{Matricula: "PET-2000", Nome: "Rafael Lima"}
	if err := st.CreateColaborador(colab); err != nil {
		t.Fatalf("create colaborador: %v", err)
	}

	for _, refeicao := range []map[string]any{
		{"refeicao_tipo": "almoco", "calorias_estimadas": 650.0, "proteina_g": 40.0},
		{"refeicao_tipo": "jantar", "calorias_estimadas": 500.0, "proteina_g": 35.0},
	} {
		refeicao["colaborador_id"] = colab.ID
		refeicao["data"] = "2026-09-01"
		rec := doJSON(t, handler, "POST", "/api/v1/refeicoes", refeicao, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create refeicao status = %d, body = %s", rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(t, handler, "GET", "/api/v1/refeicoes/colaborador/"+colab.ID+"/dia/2026-09-01", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dia status = %d", rec.Code)
	}
	var dia struct {
		Refeicoes []map[string]any `json:"refeicoes"`
		Totais    struct {
			Calorias  float64 `json:"calorias"`
			ProteinaG float64 `json:"proteina_g"`
		} `json:"totais"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &dia); err != nil {
		t.Fatalf("decode dia: %v", err)
	}
	if len(dia.Refeicoes) != 2 {
		t.Fatalf("got %d refeicoes, want 2", len(dia.Refeicoes))
	}
	if dia.Totais.Calorias != 1150 || dia.Totais.ProteinaG != 75 {
		t.Errorf("totais = %+v", dia.Totais)
	}
}

func TestCardapioDia(t *testing.T) {
	srv, _ := newTestServer(t, config.Default(), &stubChat{})
	handler := srv.Handler()

	rec := doJSON(t, handler, "POST", "/api/v1/cardapios", map[string]any{
		"data":     "2026-09-01",
		"refeicao": "almoco",
		"itens": []map[string]any{
			{"nome": "Frango grelhado", "calorias": 280.0},
		},
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, "GET", "/api/v1/cardapios/dia/2026-09-01", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dia status = %d", rec.Code)
	}
	var dia struct {
		Data      string                    `json:"data"`
		Refeicoes map[string]map[string]any `json:"refeicoes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &dia); err != nil {
		t.Fatalf("decode dia: %v", err)
	}
	if _, ok := dia.Refeicoes["almoco"]; !ok {
		t.Errorf("almoco missing from cardapio: %+v", dia.Refeicoes)
	}
}

func TestMedicaoTriagemGeraAlerta(t *testing.T) {
	srv, st := newTestServer(t, config.Default(), &stubChat{})
	handler := srv.Handler()

	colab := &store.Colaborador{Matricula: "PET-5000", Nome: "Paulo Reis", AlturaCM: 170}
	if err := st.CreateColaborador(colab); err != nil {
		t.Fatalf("create colaborador: %v", err)
	}

	rec := doJSON(t, handler, "POST", "/api/v1/colaboradores/"+colab.ID+"/medicoes", map[string]any{
		"peso_kg":        88.0,
		"glicemia_jejum": 140.0,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create medicao status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var criada struct {
		Alertas []map[string]any `json:"alertas"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &criada); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(criada.Alertas) != 1 {
		t.Fatalf("got %d alertas, want 1: %+v", len(criada.Alertas), criada.Alertas)
	}

	rec = doJSON(t, handler, "GET", "/api/v1/alertas", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list alertas status = %d", rec.Code)
	}
	var alertas []store.AlertaMedico
	if err := json.Unmarshal(rec.Body.Bytes(), &alertas); err != nil {
		t.Fatalf("decode alertas: %v", err)
	}
	if len(alertas) != 1 || alertas[0].Tipo != "urgente" {
		t.Errorf("alertas = %+v", alertas)
	}
}

func TestLembretesPorTurno(t *testing.T) {
	srv, st := newTestServer(t, config.Default(), &stubChat{})
	handler := srv.Handler()

	colab := &store.Colaborador{Matricula: "PET-6000", Nome: "Sergio Matos", TurnoAtual: "noturno"}
	if err := st.CreateColaborador(colab); err != nil {
		t.Fatalf("create colaborador: %v", err)
	}

	rec := doJSON(t, handler, "GET", "/api/v1/notificacoes/lembretes/"+colab.ID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Turno     string `json:"turno"`
		Lembretes []struct {
			Horario     string `json:"horario"`
			Tipo        string `json:"tipo"`
			Recorrencia string `json:"recorrencia"`
		} `json:"lembretes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Turno != "noturno" {
		t.Errorf("turno = %q", resp.Turno)
	}
	if len(resp.Lembretes) != 12 {
		t.Fatalf("got %d lembretes, want 12", len(resp.Lembretes))
	}
	if resp.Lembretes[0].Horario != "17:30" {
		t.Errorf("first lembrete horario = %q, want 17:30", resp.Lembretes[0].Horario)
	}
	ultimo := resp.Lembretes[len(resp.Lembretes)-1]
	if ultimo.Recorrencia != "semanal" {
		t.Errorf("last lembrete recorrencia = %q, want semanal", ultimo.Recorrencia)
	}
}

func TestAlertaNaoEncontrado(t *testing.T) {
	srv, _ := newTestServer(t, config.Default(), &stubChat{})
	rec := doJSON(t, srv.Handler(), "PUT", "/api/v1/alertas/nope/visualizar?visualizado_por=enfermaria", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func authConfig() *config.Config {
	cfg := config.Default()
	cfg.Auth.Enabled = true
	cfg.Auth.JWTSecret = "test-secret-with-enough-entropy"
	return cfg
}

func TestAuthRegisterAndLogin(t *testing.T) {
	srv, _ := newTestServer(t, authConfig(), &stubChat{})
	handler := srv.Handler()

	rec := doJSON(t, handler, "POST", "/api/v1/auth/register", map[string]string{
		"matricula": "PET-3000",
		"senha":     "segredo123",
		"nome":      "Bruno Alves",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var tok tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Fatalf("token response = %+v", tok)
	}

	rec = doJSON(t, handler, "POST", "/api/v1/auth/register", map[string]string{
		"matricula": "PET-3000",
		"senha":     "outra-senha",
		"nome":      "Bruno Alves",
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, handler, "POST", "/api/v1/auth/login", map[string]string{
		"matricula": "PET-3000",
		"senha":     "errada",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, handler, "POST", "/api/v1/auth/login", map[string]string{
		"matricula": "PET-3000",
		"senha":     "segredo123",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestAuthProtectsRoutes(t *testing.T) {
	srv, st := newTestServer(t, authConfig(), &stubChat{resposta: &agent.Resposta{Resposta: "ok", ConversaID: "c"}})
	handler := srv.Handler()

	hash, err := auth.HashSenha("segredo123")
	if err != nil {
		t.Fatalf("hash senha: %v", err)
	}
	colab := &store.Colaborador{Matricula: "PET-4000", Nome: "Lucia Prado", SenhaHash: hash}
	if err := st.CreateColaborador(colab); err != nil {
		t.Fatalf("create colaborador: %v", err)
	}

	// No token.
	rec := doJSON(t, handler, "GET", "/api/v1/colaboradores/"+colab.ID, nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, handler, "POST", "/api/v1/auth/login", map[string]string{
		"matricula": "PET-4000",
		"senha":     "segredo123",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	var tok tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	bearer := map[string]string{"Authorization": "Bearer " + tok.AccessToken}

	rec = doJSON(t, handler, "GET", "/api/v1/colaboradores/"+colab.ID, nil, bearer)
	if rec.Code != http.StatusOK {
		t.Fatalf("own profile status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Another colaborador's profile is off limits.
	rec = doJSON(t, handler, "GET", "/api/v1/colaboradores/outro-id", nil, bearer)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("other profile status = %d, want 403", rec.Code)
	}

	// Chat for another colaborador is rejected before the agent runs.
	rec = doJSON(t, handler, "POST", "/api/v1/chat/mensagem", map[string]string{
		"colaborador_id": "outro-id",
		"mensagem":       "Oi",
	}, bearer)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("chat for other colaborador status = %d, want 403", rec.Code)
	}
}
