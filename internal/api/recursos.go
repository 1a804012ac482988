package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/tadeuscofield/NutriOffShore/internal/notify"
	"github.com/tadeuscofield/NutriOffShore/internal/store"
	"github.com/tadeuscofield/NutriOffShore/internal/tools"
)

// Colaboradores

func (s *Server) handleColaboradorCreate(w http.ResponseWriter, r *http.Request) {
	var c store.Colaborador
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if c.Matricula == "" || c.Nome == "" {
		s.errorResponse(w, http.StatusBadRequest, "matricula e nome sao obrigatorios")
		return
	}
	if err := s.store.CreateColaborador(&c); err != nil {
		s.logger.Error("failed to create colaborador", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao criar colaborador")
		return
	}
	s.respond(w, http.StatusCreated, c)
}

// handleColaboradorList is scoped to the authenticated colaborador when
// auth is enabled; otherwise it returns everyone.
func (s *Server) handleColaboradorList(w http.ResponseWriter, r *http.Request) {
	if id := principal(r); id != "" {
		colaborador, err := s.store.GetColaborador(id)
		if errors.Is(err, store.ErrNotFound) {
			s.respond(w, http.StatusOK, []*store.Colaborador{})
			return
		}
		if err != nil {
			s.logger.Error("failed to load colaborador", "error", err)
			s.errorResponse(w, http.StatusInternalServerError, "erro ao listar colaboradores")
			return
		}
		s.respond(w, http.StatusOK, []*store.Colaborador{colaborador})
		return
	}

	colaboradores, err := s.store.ListColaboradores()
	if err != nil {
		s.logger.Error("failed to list colaboradores", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao listar colaboradores")
		return
	}
	if colaboradores == nil {
		colaboradores = []*store.Colaborador{}
	}
	s.respond(w, http.StatusOK, colaboradores)
}

func (s *Server) handleColaboradorGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.autorizado(w, r, id) {
		return
	}

	colaborador, err := s.store.GetColaborador(id)
	if errors.Is(err, store.ErrNotFound) {
		s.errorResponse(w, http.StatusNotFound, "Colaborador não encontrado")
		return
	}
	if err != nil {
		s.logger.Error("failed to load colaborador", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao buscar colaborador")
		return
	}

	medicoes, err := s.store.ListMedicoes(id, time.Time{})
	if err != nil {
		s.logger.Error("failed to list medicoes", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao buscar colaborador")
		return
	}
	condicoes, err := s.store.ListCondicoesAtivas(id)
	if err != nil {
		s.logger.Error("failed to list condicoes", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao buscar colaborador")
		return
	}
	preferencias, err := s.store.ListPreferencias(id)
	if err != nil {
		s.logger.Error("failed to list preferencias", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao buscar colaborador")
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"colaborador":  colaborador,
		"idade":        colaborador.Idade(),
		"medicoes":     medicoes,
		"condicoes":    condicoes,
		"preferencias": preferencias,
	})
}

func (s *Server) handleColaboradorUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.autorizado(w, r, id) {
		return
	}

	colaborador, err := s.store.GetColaborador(id)
	if errors.Is(err, store.ErrNotFound) {
		s.errorResponse(w, http.StatusNotFound, "Colaborador não encontrado")
		return
	}
	if err != nil {
		s.logger.Error("failed to load colaborador", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao atualizar colaborador")
		return
	}

	// Decode over the loaded record so absent fields keep their values.
	if err := json.NewDecoder(r.Body).Decode(colaborador); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	colaborador.ID = id

	if err := s.store.UpdateColaborador(colaborador); err != nil {
		s.logger.Error("failed to update colaborador", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao atualizar colaborador")
		return
	}
	s.respond(w, http.StatusOK, colaborador)
}

func (s *Server) handleColaboradorDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.autorizado(w, r, id) {
		return
	}
	err := s.store.DeleteColaborador(id)
	if errors.Is(err, store.ErrNotFound) {
		s.errorResponse(w, http.StatusNotFound, "Colaborador não encontrado")
		return
	}
	if err != nil {
		s.logger.Error("failed to delete colaborador", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao remover colaborador")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMedicaoCreate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.autorizado(w, r, id) {
		return
	}

	var m store.Medicao
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m.ColaboradorID = id
	if err := s.store.CreateMedicao(&m); err != nil {
		s.logger.Error("failed to create medicao", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao registrar medicao")
		return
	}

	alertas := s.triagemMedicao(&m)
	s.respond(w, http.StatusCreated, map[string]any{
		"id":       m.ID,
		"mensagem": "Medição registrada",
		"alertas":  alertas,
	})
}

// triagemMedicao screens a new measurement against clinical reference
// ranges, recording a medical alert for each finding.
func (s *Server) triagemMedicao(m *store.Medicao) []notify.Alerta {
	dados := notify.DadosSaude{
		GlicemiaJejum:     m.GlicemiaJejum,
		ColesterolTotal:   m.ColesterolTotal,
		Triglicerides:     m.Triglicerides,
		PressaoSistolica:  m.PressaoSistolica,
		PressaoDiastolica: m.PressaoDiastolica,
	}
	if m.PesoKG > 0 {
		if colaborador, err := s.store.GetColaborador(m.ColaboradorID); err == nil && colaborador.AlturaCM > 0 {
			alturaM := colaborador.AlturaCM / 100
			dados.IMC = m.PesoKG / (alturaM * alturaM)
		}
	}

	alertas := notify.VerificarAlertasNutricionais(dados)
	for _, a := range alertas {
		registro := &store.AlertaMedico{
			ColaboradorID: m.ColaboradorID,
			Tipo:          a.Tipo,
			Motivo:        a.Motivo,
			Recomendacao:  a.Recomendacao,
		}
		if err := s.store.CreateAlerta(registro); err != nil {
			s.logger.Error("failed to record triagem alerta", "error", err)
			continue
		}
		s.logger.Warn("alerta nutricional na triagem",
			"colaborador_id", m.ColaboradorID,
			"tipo", a.Tipo,
			"motivo", a.Motivo)
	}
	return alertas
}

// handleLembretes returns the reminder schedule for a colaborador's
// current shift.
func (s *Server) handleLembretes(w http.ResponseWriter, r *http.Request) {
	colaboradorID := r.PathValue("colaboradorId")
	if !s.autorizado(w, r, colaboradorID) {
		return
	}

	colaborador, err := s.store.GetColaborador(colaboradorID)
	if errors.Is(err, store.ErrNotFound) {
		s.errorResponse(w, http.StatusNotFound, "Colaborador não encontrado")
		return
	}
	if err != nil {
		s.logger.Error("failed to load colaborador", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao gerar lembretes")
		return
	}

	lembretes := notify.GerarLembretesDiarios(colaborador.TurnoAtual)
	lembretes = append(lembretes, notify.GerarLembretePesagem())
	s.respond(w, http.StatusOK, map[string]any{
		"turno":     colaborador.TurnoAtual,
		"lembretes": lembretes,
	})
}

func (s *Server) handleMedicaoList(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.autorizado(w, r, id) {
		return
	}

	limit := queryInt(r, "limit", 20)
	medicoes, err := s.store.ListMedicoes(id, time.Time{})
	if err != nil {
		s.logger.Error("failed to list medicoes", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao listar medicoes")
		return
	}
	if len(medicoes) > limit {
		medicoes = medicoes[:limit]
	}
	if medicoes == nil {
		medicoes = []*store.Medicao{}
	}
	s.respond(w, http.StatusOK, medicoes)
}

func (s *Server) handleCondicaoCreate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.autorizado(w, r, id) {
		return
	}

	var c store.CondicaoSaude
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.ColaboradorID = id
	if err := s.store.CreateCondicao(&c); err != nil {
		s.logger.Error("failed to create condicao", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao registrar condicao")
		return
	}
	s.respond(w, http.StatusCreated, map[string]string{"mensagem": "Condição de saúde registrada"})
}

func (s *Server) handlePreferenciaCreate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.autorizado(w, r, id) {
		return
	}

	var p store.Preferencia
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.ColaboradorID = id
	if err := s.store.CreatePreferencia(&p); err != nil {
		s.logger.Error("failed to create preferencia", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao registrar preferencia")
		return
	}
	s.respond(w, http.StatusCreated, map[string]string{"mensagem": "Preferência registrada"})
}

// Planos

func (s *Server) handlePlanoCreate(w http.ResponseWriter, r *http.Request) {
	var p store.PlanoNutricional
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.ColaboradorID == "" {
		s.errorResponse(w, http.StatusBadRequest, "colaborador_id e obrigatorio")
		return
	}
	if !s.autorizado(w, r, p.ColaboradorID) {
		return
	}
	if p.CreatedBy == "" {
		p.CreatedBy = "api"
	}
	if err := s.store.CreatePlano(&p); err != nil {
		s.logger.Error("failed to create plano", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao criar plano")
		return
	}
	s.respond(w, http.StatusCreated, p)
}

func (s *Server) handlePlanoList(w http.ResponseWriter, r *http.Request) {
	colaboradorID := r.PathValue("colaboradorId")
	if !s.autorizado(w, r, colaboradorID) {
		return
	}
	planos, err := s.store.ListPlanos(colaboradorID)
	if err != nil {
		s.logger.Error("failed to list planos", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao listar planos")
		return
	}
	if planos == nil {
		planos = []*store.PlanoNutricional{}
	}
	s.respond(w, http.StatusOK, planos)
}

func (s *Server) handlePlanoAtivo(w http.ResponseWriter, r *http.Request) {
	colaboradorID := r.PathValue("colaboradorId")
	if !s.autorizado(w, r, colaboradorID) {
		return
	}
	plano, err := s.store.PlanoAtivo(colaboradorID)
	if errors.Is(err, store.ErrNotFound) {
		s.errorResponse(w, http.StatusNotFound, "Nenhum plano ativo encontrado")
		return
	}
	if err != nil {
		s.logger.Error("failed to load plano ativo", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao buscar plano")
		return
	}
	s.respond(w, http.StatusOK, plano)
}

func (s *Server) handlePlanoDelete(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeletePlano(r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		s.errorResponse(w, http.StatusNotFound, "Plano não encontrado")
		return
	}
	if err != nil {
		s.logger.Error("failed to delete plano", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao remover plano")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Cardápios

func (s *Server) plataformaParam(r *http.Request) string {
	if p := r.URL.Query().Get("plataforma_id"); p != "" {
		return p
	}
	return tools.DefaultPlataformaID
}

func (s *Server) handleCardapioCreate(w http.ResponseWriter, r *http.Request) {
	var c store.Cardapio
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if c.Data == "" || c.Refeicao == "" {
		s.errorResponse(w, http.StatusBadRequest, "data e refeicao sao obrigatorias")
		return
	}
	if c.PlataformaID == "" {
		c.PlataformaID = tools.DefaultPlataformaID
	}
	if err := s.store.UpsertCardapio(&c); err != nil {
		s.logger.Error("failed to upsert cardapio", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao salvar cardapio")
		return
	}
	s.respond(w, http.StatusCreated, c)
}

func (s *Server) handleCardapioDia(w http.ResponseWriter, r *http.Request) {
	data := r.PathValue("data")
	cardapios, err := s.store.CardapioDia(s.plataformaParam(r), data)
	if err != nil {
		s.logger.Error("failed to load cardapio", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao buscar cardapio")
		return
	}

	refeicoes := map[string]any{}
	for _, c := range cardapios {
		refeicoes[c.Refeicao] = map[string]any{"id": c.ID, "itens": c.Itens}
	}
	s.respond(w, http.StatusOK, map[string]any{"data": data, "refeicoes": refeicoes})
}

func (s *Server) handleCardapioSemana(w http.ResponseWriter, r *http.Request) {
	hoje := time.Now()
	inicio := hoje.AddDate(0, 0, -((int(hoje.Weekday()) + 6) % 7))
	fim := inicio.AddDate(0, 0, 6)
	inicioStr := inicio.Format("2006-01-02")
	fimStr := fim.Format("2006-01-02")

	cardapios, err := s.store.CardapioPeriodo(s.plataformaParam(r), inicioStr, fimStr)
	if err != nil {
		s.logger.Error("failed to load cardapios", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao buscar cardapios")
		return
	}

	semana := map[string]map[string]any{}
	for _, c := range cardapios {
		if semana[c.Data] == nil {
			semana[c.Data] = map[string]any{}
		}
		semana[c.Data][c.Refeicao] = c.Itens
	}
	s.respond(w, http.StatusOK, map[string]any{"inicio": inicioStr, "fim": fimStr, "cardapios": semana})
}

// Refeições

func (s *Server) handleRefeicaoCreate(w http.ResponseWriter, r *http.Request) {
	var rl store.RefeicaoLog
	if err := json.NewDecoder(r.Body).Decode(&rl); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if rl.ColaboradorID == "" || rl.RefeicaoTipo == "" {
		s.errorResponse(w, http.StatusBadRequest, "colaborador_id e refeicao_tipo sao obrigatorios")
		return
	}
	if !s.autorizado(w, r, rl.ColaboradorID) {
		return
	}
	if rl.CaloriasEstimadas == 0 {
		for _, item := range rl.ItensConsumidos {
			if cal, ok := item["calorias_estimadas"].(float64); ok {
				rl.CaloriasEstimadas += cal
			}
		}
	}
	if err := s.store.CreateRefeicao(&rl); err != nil {
		s.logger.Error("failed to log refeicao", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao registrar refeicao")
		return
	}
	s.respond(w, http.StatusCreated, rl)
}

func (s *Server) handleRefeicoesDia(w http.ResponseWriter, r *http.Request) {
	colaboradorID := r.PathValue("colaboradorId")
	if !s.autorizado(w, r, colaboradorID) {
		return
	}
	data := r.PathValue("data")

	refeicoes, err := s.store.RefeicoesDia(colaboradorID, data)
	if err != nil {
		s.logger.Error("failed to list refeicoes", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao listar refeicoes")
		return
	}

	var totalCal, totalProt, totalCarb, totalGord float64
	lista := make([]map[string]any, 0, len(refeicoes))
	for _, rl := range refeicoes {
		totalCal += rl.CaloriasEstimadas
		totalProt += rl.ProteinaG
		totalCarb += rl.CarboidratosG
		totalGord += rl.GordurasG
		lista = append(lista, map[string]any{
			"id":        rl.ID,
			"refeicao":  rl.RefeicaoTipo,
			"itens":     rl.ItensConsumidos,
			"calorias":  rl.CaloriasEstimadas,
			"aderencia": rl.Aderencia,
		})
	}

	s.respond(w, http.StatusOK, map[string]any{
		"data":      data,
		"refeicoes": lista,
		"totais": map[string]any{
			"calorias":       totalCal,
			"proteina_g":     totalProt,
			"carboidratos_g": totalCarb,
			"gorduras_g":     totalGord,
		},
	})
}

func (s *Server) handleRefeicoesResumo(w http.ResponseWriter, r *http.Request) {
	colaboradorID := r.PathValue("colaboradorId")
	if !s.autorizado(w, r, colaboradorID) {
		return
	}

	hoje := time.Now()
	inicio := hoje.AddDate(0, 0, -6).Format("2006-01-02")

	refeicoes, err := s.store.RefeicoesDesde(colaboradorID, inicio, 0)
	if err != nil {
		s.logger.Error("failed to list refeicoes", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao listar refeicoes")
		return
	}

	type acumulado struct {
		calorias  float64
		proteina  float64
		carbs     float64
		gordura   float64
		refeicoes int
		aderencia []int
	}
	dias := map[string]*acumulado{}
	for _, rl := range refeicoes {
		a := dias[rl.Data]
		if a == nil {
			a = &acumulado{}
			dias[rl.Data] = a
		}
		a.calorias += rl.CaloriasEstimadas
		a.proteina += rl.ProteinaG
		a.carbs += rl.CarboidratosG
		a.gordura += rl.GordurasG
		a.refeicoes++
		if rl.Aderencia > 0 {
			a.aderencia = append(a.aderencia, rl.Aderencia)
		}
	}

	resumo := map[string]any{}
	for dia, a := range dias {
		var aderenciaMedia any
		if len(a.aderencia) > 0 {
			soma := 0
			for _, v := range a.aderencia {
				soma += v
			}
			aderenciaMedia = int(math.Round(float64(soma) / float64(len(a.aderencia))))
		}
		resumo[dia] = map[string]any{
			"calorias":        a.calorias,
			"proteina":        a.proteina,
			"carbs":           a.carbs,
			"gordura":         a.gordura,
			"refeicoes":       a.refeicoes,
			"aderencia_media": aderenciaMedia,
		}
	}

	s.respond(w, http.StatusOK, map[string]any{
		"colaborador_id": colaboradorID,
		"periodo":        inicio + " a " + hoje.Format("2006-01-02"),
		"dias":           resumo,
	})
}

// Alertas

func (s *Server) handleAlertaList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = store.AlertaAberto
	}
	limit := queryInt(r, "limit", 50)

	alertas, err := s.store.ListAlertas(status)
	if err != nil {
		s.logger.Error("failed to list alertas", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao listar alertas")
		return
	}
	if len(alertas) > limit {
		alertas = alertas[:limit]
	}
	if alertas == nil {
		alertas = []*store.AlertaMedico{}
	}
	s.respond(w, http.StatusOK, alertas)
}

func (s *Server) handleAlertasColaborador(w http.ResponseWriter, r *http.Request) {
	colaboradorID := r.PathValue("colaboradorId")
	if !s.autorizado(w, r, colaboradorID) {
		return
	}

	alertas, err := s.store.ListAlertas("")
	if err != nil {
		s.logger.Error("failed to list alertas", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao listar alertas")
		return
	}
	filtrados := []*store.AlertaMedico{}
	for _, a := range alertas {
		if a.ColaboradorID == colaboradorID {
			filtrados = append(filtrados, a)
		}
	}
	s.respond(w, http.StatusOK, filtrados)
}

func (s *Server) alertaPor(r *http.Request) string {
	if por := r.URL.Query().Get("visualizado_por"); por != "" {
		return por
	}
	return principal(r)
}

func (s *Server) handleAlertaVisualizar(w http.ResponseWriter, r *http.Request) {
	por := s.alertaPor(r)
	if por == "" {
		s.errorResponse(w, http.StatusBadRequest, "visualizado_por e obrigatorio")
		return
	}
	err := s.store.MarcarAlertaVisualizado(r.PathValue("id"), por)
	if errors.Is(err, store.ErrNotFound) {
		s.errorResponse(w, http.StatusNotFound, "Alerta não encontrado")
		return
	}
	if err != nil {
		s.logger.Error("failed to update alerta", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao atualizar alerta")
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"mensagem": "Alerta marcado como visualizado"})
}

func (s *Server) handleAlertaResolver(w http.ResponseWriter, r *http.Request) {
	por := s.alertaPor(r)
	if por == "" {
		s.errorResponse(w, http.StatusBadRequest, "visualizado_por e obrigatorio")
		return
	}
	err := s.store.ResolverAlerta(r.PathValue("id"), por)
	if errors.Is(err, store.ErrNotFound) {
		s.errorResponse(w, http.StatusNotFound, "Alerta não encontrado")
		return
	}
	if err != nil {
		s.logger.Error("failed to update alerta", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "erro ao atualizar alerta")
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"mensagem": "Alerta resolvido"})
}
