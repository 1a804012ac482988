package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Alerta lifecycle states.
const (
	AlertaAberto      = "aberto"
	AlertaVisualizado = "visualizado"
	AlertaResolvido   = "resolvido"
)

// AlertaMedico is a flagged clinical concern awaiting review by the
// health team.
type AlertaMedico struct {
	ID             string     `json:"id"`
	ColaboradorID  string     `json:"colaborador_id"`
	Tipo           string     `json:"tipo"`
	Motivo         string     `json:"motivo"`
	Recomendacao   string     `json:"recomendacao,omitempty"`
	Status         string     `json:"status"`
	VisualizadoPor string     `json:"visualizado_por,omitempty"`
	VisualizadoEm  *time.Time `json:"visualizado_em,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// CreateAlerta records a new open alert.
func (s *Store) CreateAlerta(a *AlertaMedico) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.Status = AlertaAberto
	a.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO alertas_medicos (id, colaborador_id, tipo, motivo, recomendacao, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ColaboradorID, a.Tipo, a.Motivo, a.Recomendacao, a.Status, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create alerta: %w", err)
	}
	return nil
}

// ListAlertas returns alerts filtered by status; an empty status
// returns all. Newest first.
func (s *Store) ListAlertas(status string) ([]*AlertaMedico, error) {
	query := `
		SELECT id, colaborador_id, tipo, motivo, recomendacao, status,
			visualizado_por, visualizado_em, created_at
		FROM alertas_medicos`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alertas: %w", err)
	}
	defer rows.Close()

	var out []*AlertaMedico
	for rows.Next() {
		var a AlertaMedico
		var recomendacao, visualizadoPor sql.NullString
		var visualizadoEm sql.NullTime
		if err := rows.Scan(&a.ID, &a.ColaboradorID, &a.Tipo, &a.Motivo, &recomendacao,
			&a.Status, &visualizadoPor, &visualizadoEm, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alerta: %w", err)
		}
		a.Recomendacao = recomendacao.String
		a.VisualizadoPor = visualizadoPor.String
		if visualizadoEm.Valid {
			t := visualizadoEm.Time
			a.VisualizadoEm = &t
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// MarcarAlertaVisualizado moves an open alert to visualizado,
// recording who saw it.
func (s *Store) MarcarAlertaVisualizado(id, por string) error {
	return s.updateAlertaStatus(id, AlertaVisualizado, por)
}

// ResolverAlerta closes an alert.
func (s *Store) ResolverAlerta(id, por string) error {
	return s.updateAlertaStatus(id, AlertaResolvido, por)
}

func (s *Store) updateAlertaStatus(id, status, por string) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		UPDATE alertas_medicos SET status = ?, visualizado_por = ?, visualizado_em = ?
		WHERE id = ?`, status, por, now, id)
	if err != nil {
		return fmt.Errorf("update alerta: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
