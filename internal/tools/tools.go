// Package tools defines the tools available to the nutrition agent.
package tools

import (
	"context"
	"log/slog"

	"github.com/tadeuscofield/NutriOffShore/internal/store"
)

// DefaultPlataformaID is used when neither the tool arguments nor the
// colaborador profile name a platform.
const DefaultPlataformaID = "a0000000-0000-0000-0000-000000000001"

// Tool represents a callable tool.
type Tool struct {
	Name        string                                                      `json:"name"`
	Description string                                                      `json:"description"`
	Parameters  map[string]any                                              `json:"parameters"`
	Handler     func(ctx context.Context, args map[string]any) (any, error) `json:"-"`
}

// Registry holds the available tools.
type Registry struct {
	tools  map[string]*Tool
	store  *store.Store
	logger *slog.Logger
}

// NewRegistry creates a tool registry backed by the data store.
func NewRegistry(st *store.Store, logger *slog.Logger) *Registry {
	r := &Registry{
		tools:  make(map[string]*Tool),
		store:  st,
		logger: logger,
	}
	r.registerBuiltins()
	return r
}

func (r *Registry) registerBuiltins() {
	r.Register(&Tool{
		Name:        "get_colaborador_profile",
		Description: "Busca perfil completo do colaborador incluindo medicoes, condicoes de saude e preferencias alimentares",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"colaborador_id": map[string]any{
					"type":        "string",
					"description": "ID do colaborador (UUID)",
				},
			},
			"required": []string{"colaborador_id"},
		},
		Handler: r.handleColaboradorProfile,
	})

	r.Register(&Tool{
		Name:        "get_cardapio_dia",
		Description: "Retorna cardapio do refeitorio da plataforma para um dia especifico",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"data": map[string]any{
					"type":        "string",
					"description": "Data no formato YYYY-MM-DD",
				},
				"plataforma_id": map[string]any{
					"type":        "string",
					"description": "ID da plataforma (UUID). Padrao: " + DefaultPlataformaID,
				},
			},
			"required": []string{"data"},
		},
		Handler: r.handleCardapioDia,
	})

	r.Register(&Tool{
		Name:        "get_cardapio_semana",
		Description: "Retorna cardapios da semana inteira da plataforma",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
			"required":   []string{},
		},
		Handler: r.handleCardapioSemana,
	})

	r.Register(&Tool{
		Name:        "save_plano_nutricional",
		Description: "Salva um plano nutricional personalizado para o colaborador",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"colaborador_id": map[string]any{"type": "string"},
				"meta_calorica": map[string]any{
					"type":        "number",
					"description": "Meta calorica diaria em kcal",
				},
				"proteina_g": map[string]any{
					"type":        "number",
					"description": "Gramas de proteina por dia",
				},
				"carboidratos_g": map[string]any{
					"type":        "number",
					"description": "Gramas de carboidratos por dia",
				},
				"gorduras_g": map[string]any{
					"type":        "number",
					"description": "Gramas de gorduras por dia",
				},
				"objetivo": map[string]any{
					"type":        "string",
					"description": "Objetivo do plano",
				},
				"refeicoes": map[string]any{
					"type":        "array",
					"description": "Detalhamento das refeicoes",
				},
				"suplementacao": map[string]any{
					"type":        "array",
					"description": "Suplementos recomendados",
				},
				"observacoes": map[string]any{"type": "string"},
			},
			"required": []string{"colaborador_id", "meta_calorica", "proteina_g", "carboidratos_g", "gorduras_g"},
		},
		Handler: r.handleSavePlano,
	})

	r.Register(&Tool{
		Name:        "log_refeicao",
		Description: "Registra uma refeicao consumida pelo colaborador",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"colaborador_id": map[string]any{"type": "string"},
				"refeicao_tipo": map[string]any{
					"type":        "string",
					"enum":        []string{"cafe_manha", "lanche_manha", "almoco", "lanche_tarde", "jantar", "ceia"},
					"description": "Tipo da refeicao",
				},
				"itens": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"alimento":           map[string]any{"type": "string"},
							"quantidade":         map[string]any{"type": "string"},
							"calorias_estimadas": map[string]any{"type": "number"},
						},
					},
					"description": "Itens consumidos",
				},
				"aderencia_plano": map[string]any{
					"type":        "number",
					"description": "0-100 aderencia ao plano",
				},
				"observacoes": map[string]any{"type": "string"},
			},
			"required": []string{"colaborador_id", "refeicao_tipo", "itens"},
		},
		Handler: r.handleLogRefeicao,
	})

	r.Register(&Tool{
		Name:        "get_historico_peso",
		Description: "Busca evolucao de peso e medicoes do colaborador",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"colaborador_id": map[string]any{"type": "string"},
				"periodo": map[string]any{
					"type":        "number",
					"description": "Periodo em dias (padrao: 90)",
				},
			},
			"required": []string{"colaborador_id"},
		},
		Handler: r.handleHistoricoPeso,
	})

	r.Register(&Tool{
		Name:        "get_historico_refeicoes",
		Description: "Busca historico de refeicoes registradas",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"colaborador_id": map[string]any{"type": "string"},
				"periodo": map[string]any{
					"type":        "number",
					"description": "Periodo em dias (padrao: 7)",
				},
			},
			"required": []string{"colaborador_id"},
		},
		Handler: r.handleHistoricoRefeicoes,
	})

	r.Register(&Tool{
		Name:        "send_notificacao",
		Description: "Agenda notificacao ou lembrete para o colaborador",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"colaborador_id": map[string]any{"type": "string"},
				"mensagem": map[string]any{
					"type":        "string",
					"description": "Texto da notificacao (max 200 chars)",
				},
				"horario": map[string]any{
					"type":        "string",
					"description": "Horario no formato HH:MM",
				},
				"tipo": map[string]any{
					"type": "string",
					"enum": []string{"lembrete_refeicao", "hidratacao", "pesagem", "motivacional"},
				},
				"recorrencia": map[string]any{
					"type": "string",
					"enum": []string{"unica", "diaria", "semanal"},
				},
			},
			"required": []string{"colaborador_id", "mensagem", "horario", "tipo"},
		},
		Handler: r.handleSendNotificacao,
	})

	r.Register(&Tool{
		Name:        "get_estoque_refeitorio",
		Description: "Consulta disponibilidade de itens no refeitorio da plataforma",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
			"required":   []string{},
		},
		Handler: r.handleEstoqueRefeitorio,
	})

	r.Register(&Tool{
		Name:        "flag_alerta_medico",
		Description: "Sinaliza situacao que requer atencao do medico de bordo",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"colaborador_id": map[string]any{"type": "string"},
				"tipo_alerta": map[string]any{
					"type": "string",
					"enum": []string{"urgente", "moderado", "baixo"},
				},
				"motivo": map[string]any{
					"type":        "string",
					"description": "Descricao do motivo do alerta",
				},
				"recomendacao": map[string]any{
					"type":        "string",
					"description": "Recomendacao para equipe medica",
				},
			},
			"required": []string{"colaborador_id", "tipo_alerta", "motivo"},
		},
		Handler: r.handleFlagAlerta,
	})

	r.Register(&Tool{
		Name:        "calcular_necessidades",
		Description: "Calcula TMB, GET e necessidades de macronutrientes para o colaborador",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"peso_kg":   map[string]any{"type": "number"},
				"altura_cm": map[string]any{"type": "number"},
				"idade":     map[string]any{"type": "number"},
				"sexo": map[string]any{
					"type": "string",
					"enum": []string{"M", "F"},
				},
				"nivel_atividade": map[string]any{
					"type": "string",
					"enum": []string{"sedentario", "leve", "moderado", "intenso"},
				},
				"turno": map[string]any{
					"type": "string",
					"enum": []string{"diurno", "noturno"},
				},
				"objetivo": map[string]any{
					"type": "string",
					"enum": []string{"perda_peso", "ganho_massa", "manutencao", "performance", "saude_geral"},
				},
				"percentual_gordura": map[string]any{"type": "number"},
				"cargo":              map[string]any{"type": "string"},
			},
			"required": []string{"peso_kg", "altura_cm", "idade", "sexo", "nivel_atividade", "objetivo"},
		},
		Handler: r.handleCalcularNecessidades,
	})
}

// Register adds a tool to the registry.
func (r *Registry) Register(t *Tool) {
	r.tools[t.Name] = t
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// List returns all tools in the function-calling format the completion
// provider expects.
func (r *Registry) List() []map[string]any {
	var result []map[string]any
	for _, t := range r.tools {
		result = append(result, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return result
}
