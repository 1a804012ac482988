// Package api implements the NutriOffShore HTTP API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tadeuscofield/NutriOffShore/internal/agent"
	"github.com/tadeuscofield/NutriOffShore/internal/auth"
	"github.com/tadeuscofield/NutriOffShore/internal/config"
	"github.com/tadeuscofield/NutriOffShore/internal/store"
)

// ChatService is the agent surface the chat endpoints depend on.
type ChatService interface {
	ProcessarMensagem(ctx context.Context, colaboradorID, mensagem, conversaID string) (*agent.Resposta, error)
	ProcessarMensagemStream(ctx context.Context, colaboradorID, mensagem, conversaID string, emit func(agent.Event))
}

// Server is the HTTP API server.
type Server struct {
	address string
	port    int
	chat    ChatService
	store   *store.Store
	issuer  *auth.Issuer
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates a new API server. The JWT issuer is configured only
// when auth is enabled; with a nil issuer all routes are open and the
// auth endpoints answer 503.
func NewServer(cfg *config.Config, chat ChatService, st *store.Store, logger *slog.Logger) *Server {
	var issuer *auth.Issuer
	if cfg.Auth.Enabled {
		expiry := time.Duration(cfg.Auth.TokenExpiryMinutes) * time.Minute
		issuer = auth.NewIssuer(cfg.Auth.JWTSecret, expiry)
	}
	return &Server{
		address: cfg.Listen.Address,
		port:    cfg.Listen.Port,
		chat:    chat,
		store:   st,
		issuer:  issuer,
		logger:  logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)

	mux.HandleFunc("POST /api/v1/chat/mensagem", s.handleChatMensagem)
	mux.HandleFunc("POST /api/v1/chat/mensagem/stream", s.handleChatStream)
	mux.HandleFunc("GET /api/v1/chat/historico/{colaboradorId}", s.handleChatHistorico)
	mux.HandleFunc("GET /api/v1/chat/conversa/{conversaId}", s.handleChatConversa)

	mux.HandleFunc("POST /api/v1/colaboradores", s.handleColaboradorCreate)
	mux.HandleFunc("GET /api/v1/colaboradores", s.handleColaboradorList)
	mux.HandleFunc("GET /api/v1/colaboradores/{id}", s.handleColaboradorGet)
	mux.HandleFunc("PUT /api/v1/colaboradores/{id}", s.handleColaboradorUpdate)
	mux.HandleFunc("DELETE /api/v1/colaboradores/{id}", s.handleColaboradorDelete)
	mux.HandleFunc("POST /api/v1/colaboradores/{id}/medicoes", s.handleMedicaoCreate)
	mux.HandleFunc("GET /api/v1/colaboradores/{id}/medicoes", s.handleMedicaoList)
	mux.HandleFunc("POST /api/v1/colaboradores/{id}/condicoes", s.handleCondicaoCreate)
	mux.HandleFunc("POST /api/v1/colaboradores/{id}/preferencias", s.handlePreferenciaCreate)

	mux.HandleFunc("POST /api/v1/planos", s.handlePlanoCreate)
	mux.HandleFunc("GET /api/v1/planos/colaborador/{colaboradorId}", s.handlePlanoList)
	mux.HandleFunc("GET /api/v1/planos/colaborador/{colaboradorId}/ativo", s.handlePlanoAtivo)
	mux.HandleFunc("DELETE /api/v1/planos/{id}", s.handlePlanoDelete)

	mux.HandleFunc("POST /api/v1/cardapios", s.handleCardapioCreate)
	mux.HandleFunc("GET /api/v1/cardapios/dia/{data}", s.handleCardapioDia)
	mux.HandleFunc("GET /api/v1/cardapios/semana", s.handleCardapioSemana)

	mux.HandleFunc("POST /api/v1/refeicoes", s.handleRefeicaoCreate)
	mux.HandleFunc("GET /api/v1/refeicoes/colaborador/{colaboradorId}/dia/{data}", s.handleRefeicoesDia)
	mux.HandleFunc("GET /api/v1/refeicoes/colaborador/{colaboradorId}/resumo-semanal", s.handleRefeicoesResumo)

	mux.HandleFunc("GET /api/v1/notificacoes/lembretes/{colaboradorId}", s.handleLembretes)

	mux.HandleFunc("GET /api/v1/alertas", s.handleAlertaList)
	mux.HandleFunc("GET /api/v1/alertas/colaborador/{colaboradorId}", s.handleAlertasColaborador)
	mux.HandleFunc("PUT /api/v1/alertas/{id}/visualizar", s.handleAlertaVisualizar)
	mux.HandleFunc("PUT /api/v1/alertas/{id}/resolver", s.handleAlertaResolver)

	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withLogging(s.withAuth(mux))
}

// Start begins serving HTTP requests.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Long for streaming responses
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

type contextKey string

const principalKey contextKey = "colaborador"

// openPath reports whether a path is reachable without a token even
// when auth is enabled.
func openPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/api/v1/auth/")
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.issuer == nil || openPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.errorResponse(w, http.StatusUnauthorized, "token de acesso ausente")
			return
		}

		colaboradorID, err := s.issuer.Validar(token)
		if err != nil {
			s.errorResponse(w, http.StatusUnauthorized, "token invalido ou expirado")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, colaboradorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// principal returns the authenticated colaborador id, or "" when auth
// is disabled.
func principal(r *http.Request) string {
	id, _ := r.Context().Value(principalKey).(string)
	return id
}

// autorizado checks that the route's colaborador belongs to the
// authenticated user. Always true when auth is disabled.
func (s *Server) autorizado(w http.ResponseWriter, r *http.Request, colaboradorID string) bool {
	if s.issuer == nil {
		return true
	}
	if principal(r) != colaboradorID {
		s.errorResponse(w, http.StatusForbidden, "Acesso negado")
		return false
	}
	return true
}

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

func (s *Server) respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, v, s.logger)
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	s.respond(w, code, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    code,
		},
	})
}

// queryInt parses an integer query parameter, falling back to def when
// absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "healthy"})
}
