package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RefeicaoLog is a logged meal consumed by a colaborador.
type RefeicaoLog struct {
	ID                string           `json:"id"`
	ColaboradorID     string           `json:"colaborador_id"`
	Data              string           `json:"data"`
	RefeicaoTipo      string           `json:"refeicao_tipo"`
	ItensConsumidos   []map[string]any `json:"itens_consumidos,omitempty"`
	CaloriasEstimadas float64          `json:"calorias_estimadas,omitempty"`
	ProteinaG         float64          `json:"proteina_g,omitempty"`
	CarboidratosG     float64          `json:"carboidratos_g,omitempty"`
	GordurasG         float64          `json:"gorduras_g,omitempty"`
	Aderencia         int              `json:"aderencia_percentual,omitempty"`
	Observacoes       string           `json:"observacoes,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// CreateRefeicao logs a consumed meal.
func (s *Store) CreateRefeicao(r *RefeicaoLog) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Data == "" {
		r.Data = time.Now().UTC().Format("2006-01-02")
	}
	r.CreatedAt = time.Now().UTC()

	itens, err := marshalJSON(r.ItensConsumidos)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO refeicoes_log (id, colaborador_id, data, refeicao_tipo, itens_consumidos,
			calorias_estimadas, proteina_g, carboidratos_g, gorduras_g,
			aderencia_percentual, observacoes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ColaboradorID, r.Data, r.RefeicaoTipo, itens,
		r.CaloriasEstimadas, r.ProteinaG, r.CarboidratosG, r.GordurasG,
		r.Aderencia, r.Observacoes, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create refeicao: %w", err)
	}
	return nil
}

// RefeicoesDia returns meals a colaborador logged on a date, in log
// order.
func (s *Store) RefeicoesDia(colaboradorID, data string) ([]*RefeicaoLog, error) {
	return s.queryRefeicoes(`
		SELECT id, colaborador_id, data, refeicao_tipo, itens_consumidos,
			calorias_estimadas, proteina_g, carboidratos_g, gorduras_g,
			aderencia_percentual, observacoes, created_at
		FROM refeicoes_log
		WHERE colaborador_id = ? AND data = ?
		ORDER BY created_at`, colaboradorID, data)
}

// RefeicoesDesde returns meals logged on or after the given date,
// newest first, capped at limit when limit > 0.
func (s *Store) RefeicoesDesde(colaboradorID, desde string, limit int) ([]*RefeicaoLog, error) {
	query := `
		SELECT id, colaborador_id, data, refeicao_tipo, itens_consumidos,
			calorias_estimadas, proteina_g, carboidratos_g, gorduras_g,
			aderencia_percentual, observacoes, created_at
		FROM refeicoes_log
		WHERE colaborador_id = ? AND data >= ?
		ORDER BY data DESC, created_at DESC`
	args := []any{colaboradorID, desde}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryRefeicoes(query, args...)
}

func (s *Store) queryRefeicoes(query string, args ...any) ([]*RefeicaoLog, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query refeicoes: %w", err)
	}
	defer rows.Close()

	var out []*RefeicaoLog
	for rows.Next() {
		var r RefeicaoLog
		var itens, observacoes sql.NullString
		var calorias, proteina, carb, gord sql.NullFloat64
		var aderencia sql.NullInt64
		if err := rows.Scan(&r.ID, &r.ColaboradorID, &r.Data, &r.RefeicaoTipo, &itens,
			&calorias, &proteina, &carb, &gord,
			&aderencia, &observacoes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan refeicao: %w", err)
		}
		r.CaloriasEstimadas = calorias.Float64
		r.ProteinaG = proteina.Float64
		r.CarboidratosG = carb.Float64
		r.GordurasG = gord.Float64
		r.Aderencia = int(aderencia.Int64)
		r.Observacoes = observacoes.String
		if err := unmarshalJSON(itens, &r.ItensConsumidos); err != nil {
			return nil, fmt.Errorf("decode itens_consumidos: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
