package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Medicao is a clinical or anthropometric measurement snapshot.
type Medicao struct {
	ID                string    `json:"id"`
	ColaboradorID     string    `json:"colaborador_id"`
	PesoKG            float64   `json:"peso_kg,omitempty"`
	CircunferenciaCM  float64   `json:"circunferencia_abdominal_cm,omitempty"`
	PercentualGordura float64   `json:"percentual_gordura,omitempty"`
	PressaoSistolica  int       `json:"pressao_sistolica,omitempty"`
	PressaoDiastolica int       `json:"pressao_diastolica,omitempty"`
	GlicemiaJejum     float64   `json:"glicemia_jejum,omitempty"`
	ColesterolTotal   float64   `json:"colesterol_total,omitempty"`
	HDL               float64   `json:"hdl,omitempty"`
	LDL               float64   `json:"ldl,omitempty"`
	Triglicerides     float64   `json:"triglicerides,omitempty"`
	Fonte             string    `json:"fonte"`
	MedidaEm          time.Time `json:"medida_em"`
}

// CreateMedicao records a new measurement.
func (s *Store) CreateMedicao(m *Medicao) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.MedidaEm.IsZero() {
		m.MedidaEm = time.Now().UTC()
	}
	if m.Fonte == "" {
		m.Fonte = "auto_relato"
	}

	_, err := s.db.Exec(`
		INSERT INTO medicoes (id, colaborador_id, peso_kg, circunferencia_abdominal_cm,
			percentual_gordura, pressao_sistolica, pressao_diastolica, glicemia_jejum,
			colesterol_total, hdl, ldl, triglicerides, fonte, medida_em)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ColaboradorID, m.PesoKG, m.CircunferenciaCM,
		m.PercentualGordura, m.PressaoSistolica, m.PressaoDiastolica, m.GlicemiaJejum,
		m.ColesterolTotal, m.HDL, m.LDL, m.Triglicerides, m.Fonte, m.MedidaEm)
	if err != nil {
		return fmt.Errorf("create medicao: %w", err)
	}
	return nil
}

// ListMedicoes returns measurements for a colaborador since the given
// time, newest first.
func (s *Store) ListMedicoes(colaboradorID string, since time.Time) ([]*Medicao, error) {
	rows, err := s.db.Query(`
		SELECT id, colaborador_id, peso_kg, circunferencia_abdominal_cm,
			percentual_gordura, pressao_sistolica, pressao_diastolica, glicemia_jejum,
			colesterol_total, hdl, ldl, triglicerides, fonte, medida_em
		FROM medicoes
		WHERE colaborador_id = ? AND medida_em >= ?
		ORDER BY medida_em DESC`, colaboradorID, since)
	if err != nil {
		return nil, fmt.Errorf("list medicoes: %w", err)
	}
	defer rows.Close()

	var out []*Medicao
	for rows.Next() {
		m, err := scanMedicao(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UltimaMedicao returns the most recent measurement, or ErrNotFound
// when the colaborador has none.
func (s *Store) UltimaMedicao(colaboradorID string) (*Medicao, error) {
	rows, err := s.db.Query(`
		SELECT id, colaborador_id, peso_kg, circunferencia_abdominal_cm,
			percentual_gordura, pressao_sistolica, pressao_diastolica, glicemia_jejum,
			colesterol_total, hdl, ldl, triglicerides, fonte, medida_em
		FROM medicoes
		WHERE colaborador_id = ?
		ORDER BY medida_em DESC
		LIMIT 1`, colaboradorID)
	if err != nil {
		return nil, fmt.Errorf("ultima medicao: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrNotFound
	}
	return scanMedicao(rows)
}

func scanMedicao(rows *sql.Rows) (*Medicao, error) {
	var m Medicao
	var peso, circ, gordura, glicemia, colesterol, hdl, ldl, trig sql.NullFloat64
	var sistolica, diastolica sql.NullInt64
	if err := rows.Scan(&m.ID, &m.ColaboradorID, &peso, &circ,
		&gordura, &sistolica, &diastolica, &glicemia,
		&colesterol, &hdl, &ldl, &trig, &m.Fonte, &m.MedidaEm); err != nil {
		return nil, fmt.Errorf("scan medicao: %w", err)
	}
	m.PesoKG = peso.Float64
	m.CircunferenciaCM = circ.Float64
	m.PercentualGordura = gordura.Float64
	m.PressaoSistolica = int(sistolica.Int64)
	m.PressaoDiastolica = int(diastolica.Int64)
	m.GlicemiaJejum = glicemia.Float64
	m.ColesterolTotal = colesterol.Float64
	m.HDL = hdl.Float64
	m.LDL = ldl.Float64
	m.Triglicerides = trig.Float64
	return &m, nil
}
