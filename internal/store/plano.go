package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PlanoNutricional is a nutrition plan tied to a colaborador. At most
// one plan per colaborador is active at a time.
type PlanoNutricional struct {
	ID                  string    `json:"id"`
	ColaboradorID       string    `json:"colaborador_id"`
	Objetivo            string    `json:"objetivo,omitempty"`
	MetaCalorica        float64   `json:"meta_calorica,omitempty"`
	ProteinaG           float64   `json:"proteina_g,omitempty"`
	CarboidratosG       float64   `json:"carboidratos_g,omitempty"`
	GordurasG           float64   `json:"gorduras_g,omitempty"`
	RefeicoesDetalhadas any       `json:"refeicoes_detalhadas,omitempty"`
	Suplementacao       any       `json:"suplementacao,omitempty"`
	Observacoes         string    `json:"observacoes,omitempty"`
	DataInicio          string    `json:"data_inicio,omitempty"`
	DataFim             string    `json:"data_fim,omitempty"`
	Ativo               bool      `json:"ativo"`
	CreatedBy           string    `json:"created_by"`
	CreatedAt           time.Time `json:"created_at"`
}

// CreatePlano inserts a new active plan, deactivating any previously
// active plan for the same colaborador.
func (s *Store) CreatePlano(p *PlanoNutricional) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedBy == "" {
		p.CreatedBy = "nutrioffshore_ai"
	}
	if p.DataInicio == "" {
		p.DataInicio = time.Now().UTC().Format("2006-01-02")
	}
	p.Ativo = true
	p.CreatedAt = time.Now().UTC()

	refeicoes, err := marshalJSON(p.RefeicoesDetalhadas)
	if err != nil {
		return err
	}
	suplementacao, err := marshalJSON(p.Suplementacao)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("create plano: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE planos_nutricionais SET ativo = FALSE WHERE colaborador_id = ? AND ativo = TRUE`,
		p.ColaboradorID); err != nil {
		return fmt.Errorf("deactivate planos: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO planos_nutricionais (id, colaborador_id, objetivo, meta_calorica,
			proteina_g, carboidratos_g, gorduras_g, refeicoes_detalhadas,
			suplementacao, observacoes, data_inicio, data_fim, ativo, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ColaboradorID, p.Objetivo, p.MetaCalorica,
		p.ProteinaG, p.CarboidratosG, p.GordurasG, refeicoes,
		suplementacao, p.Observacoes, p.DataInicio, p.DataFim, p.Ativo, p.CreatedBy, p.CreatedAt); err != nil {
		return fmt.Errorf("create plano: %w", err)
	}

	return tx.Commit()
}

// PlanoAtivo returns the colaborador's active plan.
func (s *Store) PlanoAtivo(colaboradorID string) (*PlanoNutricional, error) {
	row := s.db.QueryRow(`
		SELECT id, colaborador_id, objetivo, meta_calorica, proteina_g, carboidratos_g,
			gorduras_g, refeicoes_detalhadas, suplementacao, observacoes,
			data_inicio, data_fim, ativo, created_by, created_at
		FROM planos_nutricionais
		WHERE colaborador_id = ? AND ativo = TRUE
		ORDER BY created_at DESC
		LIMIT 1`, colaboradorID)
	return scanPlano(row.Scan)
}

// ListPlanos returns all plans for a colaborador, newest first.
func (s *Store) ListPlanos(colaboradorID string) ([]*PlanoNutricional, error) {
	rows, err := s.db.Query(`
		SELECT id, colaborador_id, objetivo, meta_calorica, proteina_g, carboidratos_g,
			gorduras_g, refeicoes_detalhadas, suplementacao, observacoes,
			data_inicio, data_fim, ativo, created_by, created_at
		FROM planos_nutricionais
		WHERE colaborador_id = ?
		ORDER BY created_at DESC`, colaboradorID)
	if err != nil {
		return nil, fmt.Errorf("list planos: %w", err)
	}
	defer rows.Close()

	var out []*PlanoNutricional
	for rows.Next() {
		p, err := scanPlano(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePlano removes a plan.
func (s *Store) DeletePlano(id string) error {
	res, err := s.db.Exec(`DELETE FROM planos_nutricionais WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plano: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPlano(scan func(dest ...any) error) (*PlanoNutricional, error) {
	var p PlanoNutricional
	var objetivo, refeicoes, suplementacao, observacoes, dataInicio, dataFim sql.NullString
	var meta, proteina, carb, gord sql.NullFloat64
	err := scan(&p.ID, &p.ColaboradorID, &objetivo, &meta, &proteina, &carb,
		&gord, &refeicoes, &suplementacao, &observacoes,
		&dataInicio, &dataFim, &p.Ativo, &p.CreatedBy, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan plano: %w", err)
	}
	p.Objetivo = objetivo.String
	p.MetaCalorica = meta.Float64
	p.ProteinaG = proteina.Float64
	p.CarboidratosG = carb.Float64
	p.GordurasG = gord.Float64
	p.Observacoes = observacoes.String
	p.DataInicio = dataInicio.String
	p.DataFim = dataFim.String
	if err := unmarshalJSON(refeicoes, &p.RefeicoesDetalhadas); err != nil {
		return nil, fmt.Errorf("decode refeicoes_detalhadas: %w", err)
	}
	if err := unmarshalJSON(suplementacao, &p.Suplementacao); err != nil {
		return nil, fmt.Errorf("decode suplementacao: %w", err)
	}
	return &p, nil
}
