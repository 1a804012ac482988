package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Dispatcher executes tool calls on behalf of one authenticated
// colaborador. The binding is fixed for the dispatcher's lifetime; a
// new turn gets a new dispatcher.
type Dispatcher struct {
	registry      *Registry
	colaboradorID string
	logger        *slog.Logger
}

// NewDispatcher binds the registry to the authenticated colaborador.
func NewDispatcher(r *Registry, colaboradorID string) *Dispatcher {
	return &Dispatcher{
		registry:      r,
		colaboradorID: colaboradorID,
		logger:        r.logger,
	}
}

// Dispatch runs the named tool and returns its result serialized as
// JSON. Failures of any kind come back as an error payload so a bad
// tool call never aborts the conversation.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) string {
	tool := d.registry.Get(name)
	if tool == nil {
		return encodeResult(map[string]any{"error": fmt.Sprintf("Tool %s não reconhecida", name)})
	}

	if args == nil {
		args = map[string]any{}
	}
	if alvo, _ := args["colaborador_id"].(string); alvo != "" && alvo != d.colaboradorID {
		d.logger.Warn("tool call rejeitada", "tool", name, "alvo", alvo, "autenticado", d.colaboradorID)
		return encodeResult(map[string]any{"error": "Acesso negado: colaborador_id não pertence ao usuário autenticado"})
	}
	args["colaborador_id"] = d.colaboradorID

	result, err := tool.Handler(ctx, args)
	if err != nil {
		d.logger.Error("erro executando tool", "tool", name, "error", err)
		return encodeResult(map[string]any{"error": err.Error()})
	}
	return encodeResult(result)
}

func encodeResult(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `{"error": "falha ao serializar resultado"}`
	}
	return string(data)
}
