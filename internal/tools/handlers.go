package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tadeuscofield/NutriOffShore/internal/notify"
	"github.com/tadeuscofield/NutriOffShore/internal/nutri"
	"github.com/tadeuscofield/NutriOffShore/internal/store"
)

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func floatArg(args map[string]any, key string) (float64, bool) {
	v, ok := args[key].(float64)
	return v, ok
}

func intArg(args map[string]any, key string, fallback int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return fallback
}

// plataformaFor resolves the platform a tool should consult, falling
// back to the colaborador's own platform and then to the default one.
func (r *Registry) plataformaFor(args map[string]any) string {
	if id := stringArg(args, "plataforma_id"); id != "" {
		return id
	}
	if cid := stringArg(args, "colaborador_id"); cid != "" {
		if c, err := r.store.GetColaborador(cid); err == nil && c.PlataformaID != "" {
			return c.PlataformaID
		}
	}
	return DefaultPlataformaID
}

func (r *Registry) handleColaboradorProfile(ctx context.Context, args map[string]any) (any, error) {
	c, err := r.store.GetColaborador(stringArg(args, "colaborador_id"))
	if errors.Is(err, store.ErrNotFound) {
		return map[string]any{"error": "Colaborador não encontrado"}, nil
	}
	if err != nil {
		return nil, err
	}

	var ultimaMedicao map[string]any
	if m, err := r.store.UltimaMedicao(c.ID); err == nil {
		ultimaMedicao = map[string]any{
			"data":                        m.MedidaEm.Format("2006-01-02"),
			"peso_kg":                     m.PesoKG,
			"circunferencia_abdominal_cm": m.CircunferenciaCM,
			"percentual_gordura":          m.PercentualGordura,
			"glicemia_jejum":              m.GlicemiaJejum,
			"colesterol_total":            m.ColesterolTotal,
			"hdl":                         m.HDL,
			"ldl":                         m.LDL,
			"triglicerides":               m.Triglicerides,
		}
		if m.PressaoSistolica > 0 {
			ultimaMedicao["pressao"] = fmt.Sprintf("%d/%d", m.PressaoSistolica, m.PressaoDiastolica)
		}
	}

	condicoes, err := r.store.ListCondicoesAtivas(c.ID)
	if err != nil {
		return nil, err
	}
	condicoesOut := make([]map[string]any, 0, len(condicoes))
	for _, cs := range condicoes {
		condicoesOut = append(condicoesOut, map[string]any{
			"condicao":     cs.Condicao,
			"severidade":   cs.Severidade,
			"medicamentos": cs.Medicamentos,
		})
	}

	prefs, err := r.store.ListPreferencias(c.ID)
	if err != nil {
		return nil, err
	}
	prefsOut := make([]map[string]any, 0, len(prefs))
	for _, p := range prefs {
		prefsOut = append(prefsOut, map[string]any{
			"tipo":       p.Tipo,
			"item":       p.Item,
			"severidade": p.Severidade,
		})
	}

	var planoAtivo map[string]any
	if p, err := r.store.PlanoAtivo(c.ID); err == nil {
		planoAtivo = map[string]any{
			"id":             p.ID,
			"meta_calorica":  p.MetaCalorica,
			"proteina_g":     p.ProteinaG,
			"carboidratos_g": p.CarboidratosG,
			"gorduras_g":     p.GordurasG,
			"objetivo":       p.Objetivo,
			"data_inicio":    p.DataInicio,
		}
	}

	return map[string]any{
		"colaborador": map[string]any{
			"id":              c.ID,
			"matricula":       c.Matricula,
			"nome":            c.Nome,
			"idade":           c.Idade(),
			"sexo":            c.Sexo,
			"altura_cm":       c.AlturaCM,
			"cargo":           c.Cargo,
			"nivel_atividade": c.NivelAtividade,
			"turno_atual":     c.TurnoAtual,
			"regime_embarque": c.RegimeEmbarque,
			"meta_principal":  c.MetaPrincipal,
		},
		"ultima_medicao":  ultimaMedicao,
		"condicoes_saude": condicoesOut,
		"preferencias":    prefsOut,
		"plano_ativo":     planoAtivo,
	}, nil
}

func (r *Registry) handleCardapioDia(ctx context.Context, args map[string]any) (any, error) {
	data := stringArg(args, "data")
	if data == "" {
		data = time.Now().Format("2006-01-02")
	}

	cardapios, err := r.store.CardapioDia(r.plataformaFor(args), data)
	if err != nil {
		return nil, err
	}
	if len(cardapios) == 0 {
		return map[string]any{
			"data":      data,
			"mensagem":  "Cardápio não cadastrado para esta data",
			"refeicoes": map[string]any{},
		}, nil
	}

	refeicoes := map[string]any{}
	for _, c := range cardapios {
		refeicoes[c.Refeicao] = c.Itens
	}
	return map[string]any{"data": data, "refeicoes": refeicoes}, nil
}

func (r *Registry) handleCardapioSemana(ctx context.Context, args map[string]any) (any, error) {
	hoje := time.Now()
	// Week starts on Monday.
	offset := (int(hoje.Weekday()) + 6) % 7
	inicio := hoje.AddDate(0, 0, -offset).Format("2006-01-02")
	fim := hoje.AddDate(0, 0, 6-offset).Format("2006-01-02")

	cardapios, err := r.store.CardapioPeriodo(r.plataformaFor(args), inicio, fim)
	if err != nil {
		return nil, err
	}

	semana := map[string]any{}
	for _, c := range cardapios {
		dia, ok := semana[c.Data].(map[string]any)
		if !ok {
			dia = map[string]any{}
			semana[c.Data] = dia
		}
		dia[c.Refeicao] = c.Itens
	}
	return map[string]any{"semana": semana, "inicio": inicio, "fim": fim}, nil
}

func (r *Registry) handleSavePlano(ctx context.Context, args map[string]any) (any, error) {
	p := &store.PlanoNutricional{
		ColaboradorID:       stringArg(args, "colaborador_id"),
		Objetivo:            stringArg(args, "objetivo"),
		RefeicoesDetalhadas: args["refeicoes"],
		Suplementacao:       args["suplementacao"],
		Observacoes:         stringArg(args, "observacoes"),
	}
	p.MetaCalorica, _ = floatArg(args, "meta_calorica")
	p.ProteinaG, _ = floatArg(args, "proteina_g")
	p.CarboidratosG, _ = floatArg(args, "carboidratos_g")
	p.GordurasG, _ = floatArg(args, "gorduras_g")

	if err := r.store.CreatePlano(p); err != nil {
		return nil, err
	}
	return map[string]any{
		"success":  true,
		"plano_id": p.ID,
		"mensagem": "Plano salvo com sucesso",
	}, nil
}

func (r *Registry) handleLogRefeicao(ctx context.Context, args map[string]any) (any, error) {
	itens, _ := args["itens"].([]any)
	var itensConsumidos []map[string]any
	var calorias float64
	for _, item := range itens {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		itensConsumidos = append(itensConsumidos, m)
		if kcal, ok := m["calorias_estimadas"].(float64); ok {
			calorias += kcal
		}
	}

	log := &store.RefeicaoLog{
		ColaboradorID:     stringArg(args, "colaborador_id"),
		RefeicaoTipo:      stringArg(args, "refeicao_tipo"),
		ItensConsumidos:   itensConsumidos,
		CaloriasEstimadas: calorias,
		Aderencia:         intArg(args, "aderencia_plano", 0),
		Observacoes:       stringArg(args, "observacoes"),
	}
	if err := r.store.CreateRefeicao(log); err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "mensagem": "Refeição registrada com sucesso"}, nil
}

func (r *Registry) handleHistoricoPeso(ctx context.Context, args map[string]any) (any, error) {
	colaboradorID := stringArg(args, "colaborador_id")
	periodo := intArg(args, "periodo", 90)

	medicoes, err := r.store.ListMedicoes(colaboradorID, time.Now().AddDate(0, 0, -periodo))
	if err != nil {
		return nil, err
	}

	// Oldest first, weight-bearing entries only.
	historico := make([]map[string]any, 0, len(medicoes))
	for i := len(medicoes) - 1; i >= 0; i-- {
		m := medicoes[i]
		if m.PesoKG == 0 {
			continue
		}
		historico = append(historico, map[string]any{
			"data":    m.MedidaEm.Format("2006-01-02"),
			"peso_kg": m.PesoKG,
		})
	}

	var variacao any
	if len(historico) >= 2 {
		primeiro := historico[0]["peso_kg"].(float64)
		ultimo := historico[len(historico)-1]["peso_kg"].(float64)
		variacao = math.Round((ultimo-primeiro)*10) / 10
	}

	return map[string]any{
		"colaborador_id":  colaboradorID,
		"periodo_dias":    periodo,
		"medicoes":        historico,
		"total_registros": len(historico),
		"variacao_kg":     variacao,
	}, nil
}

func (r *Registry) handleHistoricoRefeicoes(ctx context.Context, args map[string]any) (any, error) {
	colaboradorID := stringArg(args, "colaborador_id")
	periodo := intArg(args, "periodo", 7)
	if periodo < 1 {
		periodo = 1
	}
	desde := time.Now().AddDate(0, 0, -periodo).Format("2006-01-02")

	refeicoes, err := r.store.RefeicoesDesde(colaboradorID, desde, 0)
	if err != nil {
		return nil, err
	}

	var totalCalorias float64
	var somaAderencia, comAderencia int
	for _, rl := range refeicoes {
		totalCalorias += rl.CaloriasEstimadas
		if rl.Aderencia > 0 {
			somaAderencia += rl.Aderencia
			comAderencia++
		}
	}

	var aderenciaMedia any
	if comAderencia > 0 {
		aderenciaMedia = int(math.Round(float64(somaAderencia) / float64(comAderencia)))
	}

	listadas := refeicoes
	if len(listadas) > 20 {
		listadas = listadas[:20]
	}
	out := make([]map[string]any, 0, len(listadas))
	for _, rl := range listadas {
		out = append(out, map[string]any{
			"data":      rl.Data,
			"refeicao":  rl.RefeicaoTipo,
			"itens":     rl.ItensConsumidos,
			"calorias":  rl.CaloriasEstimadas,
			"aderencia": rl.Aderencia,
		})
	}

	return map[string]any{
		"colaborador_id":        colaboradorID,
		"periodo_dias":          periodo,
		"total_refeicoes":       len(refeicoes),
		"media_calorias_diaria": int(math.Round(totalCalorias / float64(periodo))),
		"aderencia_media":       aderenciaMedia,
		"refeicoes":             out,
	}, nil
}

func (r *Registry) handleSendNotificacao(ctx context.Context, args map[string]any) (any, error) {
	horario := stringArg(args, "horario")
	tipo := stringArg(args, "tipo")
	if tipo == "" {
		tipo = "geral"
	}
	mensagem := stringArg(args, "mensagem")
	if mensagem == "" && tipo == notify.TipoMotivacional {
		mensagem = notify.MensagemMotivacional(-1)
	}
	r.logger.Info("notificacao agendada",
		"colaborador_id", stringArg(args, "colaborador_id"),
		"mensagem", mensagem,
		"horario", horario,
		"tipo", tipo,
		"recorrencia", stringArg(args, "recorrencia"))
	return map[string]any{
		"success":  true,
		"mensagem": fmt.Sprintf("Lembrete agendado para %s", horario),
		"tipo":     tipo,
	}, nil
}

func (r *Registry) handleEstoqueRefeitorio(ctx context.Context, args map[string]any) (any, error) {
	return map[string]any{
		"status": "disponivel",
		"data":   time.Now().Format("2006-01-02"),
		"nota":   "Consulte o cardápio do dia para itens específicos disponíveis.",
	}, nil
}

func (r *Registry) handleFlagAlerta(ctx context.Context, args map[string]any) (any, error) {
	tipo := stringArg(args, "tipo_alerta")
	if tipo == "" {
		tipo = "moderado"
	}
	a := &store.AlertaMedico{
		ColaboradorID: stringArg(args, "colaborador_id"),
		Tipo:          tipo,
		Motivo:        stringArg(args, "motivo"),
		Recomendacao:  stringArg(args, "recomendacao"),
	}
	if err := r.store.CreateAlerta(a); err != nil {
		return nil, err
	}
	r.logger.Warn("alerta medico registrado", "tipo", a.Tipo, "motivo", a.Motivo)
	return map[string]any{
		"success":   true,
		"alerta_id": a.ID,
		"mensagem":  "Alerta médico registrado e equipe notificada",
	}, nil
}

func (r *Registry) handleCalcularNecessidades(ctx context.Context, args map[string]any) (any, error) {
	idade := intArg(args, "idade", 0)
	if idade == 0 {
		return map[string]any{
			"error": "Parâmetro 'idade' obrigatório. Calcule a partir de data_nascimento do perfil do colaborador.",
		}, nil
	}

	objetivo := stringArg(args, "objetivo")
	if objetivo == "" {
		objetivo = nutri.ObjetivoSaudeGeral
	}
	switch objetivo {
	case nutri.ObjetivoPerdaPeso, nutri.ObjetivoGanhoMassa, nutri.ObjetivoManutencao,
		nutri.ObjetivoPerformance, nutri.ObjetivoSaudeGeral:
	case "perda_gordura", "emagrecimento":
		objetivo = nutri.ObjetivoPerdaPeso
	case "ganho_muscular", "hipertrofia":
		objetivo = nutri.ObjetivoGanhoMassa
	default:
		objetivo = nutri.ObjetivoSaudeGeral
	}

	peso, _ := floatArg(args, "peso_kg")
	altura, _ := floatArg(args, "altura_cm")
	gordura, _ := floatArg(args, "percentual_gordura")
	turno := stringArg(args, "turno")
	if turno == "" {
		turno = nutri.TurnoDiurno
	}

	perfil := nutri.Perfil{
		PesoKG:            peso,
		AlturaCM:          altura,
		Idade:             idade,
		Sexo:              stringArg(args, "sexo"),
		NivelAtividade:    stringArg(args, "nivel_atividade"),
		Turno:             turno,
		Objetivo:          objetivo,
		PercentualGordura: gordura,
		Cargo:             stringArg(args, "cargo"),
	}
	resultado, err := nutri.CalcularCompleto(perfil, nil)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"tmb":           resultado.TMBUtilizada,
		"formula":       resultado.FormulaEscolhida,
		"get_total":     resultado.GETTotal,
		"meta_calorica": resultado.MetaCalorica,
		"macros": map[string]any{
			"proteina_g":     resultado.Macros.ProteinaG,
			"carboidratos_g": resultado.Macros.CarboidratosG,
			"gorduras_g":     resultado.Macros.GordurasG,
		},
		"percentuais": map[string]any{
			"proteina":     resultado.Macros.ProteinaPct,
			"carboidratos": resultado.Macros.CarboidratosPct,
			"gorduras":     resultado.Macros.GordurasPct,
		},
		"hidratacao_ml":       resultado.AguaML,
		"fibra_g":             resultado.FibraG,
		"imc":                 resultado.IMC,
		"classificacao_imc":   resultado.ClassificacaoIMC,
		"relatorio_formatado": nutri.FormatarRelatorio(resultado, ""),
	}, nil
}
