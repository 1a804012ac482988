package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tadeuscofield/NutriOffShore/internal/agent"
	"github.com/tadeuscofield/NutriOffShore/internal/store"
)

type chatRequest struct {
	ColaboradorID string `json:"colaborador_id"`
	Mensagem      string `json:"mensagem"`
	ConversaID    string `json:"conversa_id,omitempty"`
}

type chatResponse struct {
	Resposta         string `json:"resposta"`
	ConversaID       string `json:"conversa_id"`
	TokensUtilizados int    `json:"tokens_utilizados,omitempty"`
}

func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (*chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if req.ColaboradorID == "" || req.Mensagem == "" {
		s.errorResponse(w, http.StatusBadRequest, "colaborador_id e mensagem sao obrigatorios")
		return nil, false
	}
	if !s.autorizado(w, r, req.ColaboradorID) {
		return nil, false
	}
	return &req, true
}

// handleChatMensagem runs one blocking agent turn.
func (s *Server) handleChatMensagem(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	resultado, err := s.chat.ProcessarMensagem(r.Context(), req.ColaboradorID, req.Mensagem, req.ConversaID)
	if err != nil {
		s.logger.Error("erro no chat", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Erro ao processar mensagem: "+err.Error())
		return
	}

	s.respond(w, http.StatusOK, chatResponse{
		Resposta:         resultado.Resposta,
		ConversaID:       resultado.ConversaID,
		TokensUtilizados: resultado.Tokens,
	})
}

// handleChatStream runs one agent turn as a server-sent event stream.
// Each agent event becomes a data frame; the stream always ends with a
// [DONE] marker.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.errorResponse(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	rc := http.NewResponseController(w)

	emit := func(event agent.Event) {
		data, err := json.Marshal(event)
		if err != nil {
			s.logger.Debug("failed to marshal SSE event", "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			s.logger.Debug("failed to write SSE event", "error", err)
			return
		}
		flusher.Flush()

		// Reset write deadline after every event to prevent timeout
		// during multi-round tool loops.
		if err := rc.SetWriteDeadline(time.Now().Add(120 * time.Second)); err != nil {
			s.logger.Debug("failed to reset write deadline", "error", err)
		}
	}

	s.chat.ProcessarMensagemStream(r.Context(), req.ColaboradorID, req.Mensagem, req.ConversaID, emit)

	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// handleChatHistorico lists a colaborador's previous conversations.
func (s *Server) handleChatHistorico(w http.ResponseWriter, r *http.Request) {
	colaboradorID := r.PathValue("colaboradorId")
	if !s.autorizado(w, r, colaboradorID) {
		return
	}

	limit := queryInt(r, "limit", 10)
	conversas, err := s.store.ListConversas(colaboradorID, limit)
	if err != nil {
		s.logger.Error("failed to list conversas", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao listar conversas")
		return
	}
	if conversas == nil {
		conversas = []*store.ConversaResumo{}
	}
	s.respond(w, http.StatusOK, conversas)
}

// handleChatConversa fetches one conversation transcript.
func (s *Server) handleChatConversa(w http.ResponseWriter, r *http.Request) {
	conversa, err := s.store.GetConversa(r.PathValue("conversaId"))
	if errors.Is(err, store.ErrNotFound) {
		s.errorResponse(w, http.StatusNotFound, "Conversa não encontrada")
		return
	}
	if err != nil {
		s.logger.Error("failed to load conversa", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao buscar conversa")
		return
	}
	if !s.autorizado(w, r, conversa.ColaboradorID) {
		return
	}
	s.respond(w, http.StatusOK, conversa)
}
