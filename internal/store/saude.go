package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CondicaoSaude is a diagnosed health condition for a colaborador.
type CondicaoSaude struct {
	ID            string    `json:"id"`
	ColaboradorID string    `json:"colaborador_id"`
	Condicao      string    `json:"condicao"`
	Severidade    string    `json:"severidade,omitempty"`
	Medicamentos  []string  `json:"medicamentos,omitempty"`
	Ativo         bool      `json:"ativo"`
	CreatedAt     time.Time `json:"created_at"`
}

// Preferencia is a dietary preference, allergy or restriction.
type Preferencia struct {
	ID            string    `json:"id"`
	ColaboradorID string    `json:"colaborador_id"`
	Tipo          string    `json:"tipo"`
	Item          string    `json:"item"`
	Severidade    string    `json:"severidade,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateCondicao records a health condition.
func (s *Store) CreateCondicao(c *CondicaoSaude) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()
	c.Ativo = true

	medicamentos, err := marshalJSON(c.Medicamentos)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO condicoes_saude (id, colaborador_id, condicao, severidade, medicamentos, ativo, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ColaboradorID, c.Condicao, c.Severidade, medicamentos, c.Ativo, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create condicao: %w", err)
	}
	return nil
}

// ListCondicoesAtivas returns the active health conditions for a
// colaborador.
func (s *Store) ListCondicoesAtivas(colaboradorID string) ([]*CondicaoSaude, error) {
	rows, err := s.db.Query(`
		SELECT id, colaborador_id, condicao, severidade, medicamentos, ativo, created_at
		FROM condicoes_saude
		WHERE colaborador_id = ? AND ativo = TRUE
		ORDER BY created_at`, colaboradorID)
	if err != nil {
		return nil, fmt.Errorf("list condicoes: %w", err)
	}
	defer rows.Close()

	var out []*CondicaoSaude
	for rows.Next() {
		var c CondicaoSaude
		var severidade, medicamentos sql.NullString
		if err := rows.Scan(&c.ID, &c.ColaboradorID, &c.Condicao, &severidade,
			&medicamentos, &c.Ativo, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan condicao: %w", err)
		}
		c.Severidade = severidade.String
		if err := unmarshalJSON(medicamentos, &c.Medicamentos); err != nil {
			return nil, fmt.Errorf("decode medicamentos: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// CreatePreferencia records a dietary preference or restriction.
func (s *Store) CreatePreferencia(p *Preferencia) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO preferencias_alimentares (id, colaborador_id, tipo, item, severidade, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.ColaboradorID, p.Tipo, p.Item, p.Severidade, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create preferencia: %w", err)
	}
	return nil
}

// ListPreferencias returns dietary preferences for a colaborador.
func (s *Store) ListPreferencias(colaboradorID string) ([]*Preferencia, error) {
	rows, err := s.db.Query(`
		SELECT id, colaborador_id, tipo, item, severidade, created_at
		FROM preferencias_alimentares
		WHERE colaborador_id = ?
		ORDER BY created_at`, colaboradorID)
	if err != nil {
		return nil, fmt.Errorf("list preferencias: %w", err)
	}
	defer rows.Close()

	var out []*Preferencia
	for rows.Next() {
		var p Preferencia
		var severidade sql.NullString
		if err := rows.Scan(&p.ID, &p.ColaboradorID, &p.Tipo, &p.Item,
			&severidade, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan preferencia: %w", err)
		}
		p.Severidade = severidade.String
		out = append(out, &p)
	}
	return out, rows.Err()
}
