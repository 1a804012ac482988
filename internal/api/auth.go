package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tadeuscofield/NutriOffShore/internal/auth"
	"github.com/tadeuscofield/NutriOffShore/internal/store"
)

type loginRequest struct {
	Matricula string `json:"matricula"`
	Senha     string `json:"senha"`
}

type registerRequest struct {
	Matricula string `json:"matricula"`
	Senha     string `json:"senha"`
	Nome      string `json:"nome"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// handleLogin authenticates a colaborador by matricula and password and
// returns a JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.issuer == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "autenticacao desabilitada")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Matricula == "" || req.Senha == "" {
		s.errorResponse(w, http.StatusBadRequest, "matricula e senha sao obrigatorias")
		return
	}

	colaborador, err := s.store.GetColaboradorPorMatricula(req.Matricula)
	if err != nil || colaborador.SenhaHash == "" || !auth.VerificarSenha(colaborador.SenhaHash, req.Senha) {
		s.errorResponse(w, http.StatusUnauthorized, "Matricula ou senha invalida")
		return
	}

	token, err := s.issuer.Emitir(colaborador.ID)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao emitir token")
		return
	}

	s.logger.Info("login bem-sucedido", "matricula", req.Matricula)
	s.respond(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// handleRegister creates a colaborador with a password, or sets the
// password on an existing colaborador that has none yet.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.issuer == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "autenticacao desabilitada")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Matricula == "" || req.Nome == "" {
		s.errorResponse(w, http.StatusBadRequest, "matricula e nome sao obrigatorios")
		return
	}
	if len(req.Senha) < 6 {
		s.errorResponse(w, http.StatusBadRequest, "senha deve ter no minimo 6 caracteres")
		return
	}

	hash, err := auth.HashSenha(req.Senha)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao registrar")
		return
	}

	existing, err := s.store.GetColaboradorPorMatricula(req.Matricula)
	switch {
	case err == nil && existing.SenhaHash != "":
		s.errorResponse(w, http.StatusConflict, "Matricula ja cadastrada")
		return
	case err == nil:
		// Enrollment record without a password yet. Claim it.
		if err := s.store.SetSenha(existing.ID, hash); err != nil {
			s.logger.Error("failed to set password", "error", err)
			s.errorResponse(w, http.StatusInternalServerError, "erro ao registrar")
			return
		}
		s.logger.Info("senha definida para colaborador existente", "matricula", req.Matricula)
		s.issueRegistered(w, existing.ID)
		return
	case !errors.Is(err, store.ErrNotFound):
		s.logger.Error("failed to look up matricula", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao registrar")
		return
	}

	colaborador := &store.Colaborador{
		Matricula: req.Matricula,
		Nome:      req.Nome,
		SenhaHash: hash,
	}
	if err := s.store.CreateColaborador(colaborador); err != nil {
		s.logger.Error("failed to create colaborador", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao registrar")
		return
	}

	s.logger.Info("novo colaborador registrado", "matricula", req.Matricula)
	s.issueRegistered(w, colaborador.ID)
}

func (s *Server) issueRegistered(w http.ResponseWriter, colaboradorID string) {
	token, err := s.issuer.Emitir(colaboradorID)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao emitir token")
		return
	}
	s.respond(w, http.StatusCreated, tokenResponse{AccessToken: token, TokenType: "bearer"})
}
