package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Colaborador is a platform worker enrolled in the nutrition program.
type Colaborador struct {
	ID             string    `json:"id"`
	Matricula      string    `json:"matricula"`
	Nome           string    `json:"nome"`
	DataNascimento string    `json:"data_nascimento,omitempty"`
	Sexo           string    `json:"sexo,omitempty"`
	AlturaCM       float64   `json:"altura_cm,omitempty"`
	Cargo          string    `json:"cargo,omitempty"`
	NivelAtividade string    `json:"nivel_atividade"`
	TurnoAtual     string    `json:"turno_atual"`
	RegimeEmbarque string    `json:"regime_embarque"`
	MetaPrincipal  string    `json:"meta_principal"`
	PlataformaID   string    `json:"plataforma_id,omitempty"`
	SenhaHash      string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Idade returns the colaborador's age in full years, or 0 when the
// birth date is absent or malformed.
func (c *Colaborador) Idade() int {
	if c.DataNascimento == "" {
		return 0
	}
	nasc, err := time.Parse("2006-01-02", c.DataNascimento)
	if err != nil {
		return 0
	}
	now := time.Now()
	idade := now.Year() - nasc.Year()
	if now.YearDay() < nasc.YearDay() {
		idade--
	}
	if idade < 0 {
		return 0
	}
	return idade
}

// CreateColaborador inserts a new colaborador, assigning an ID when
// none is set.
func (s *Store) CreateColaborador(c *Colaborador) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO colaboradores (id, matricula, nome, data_nascimento, sexo, altura_cm,
			cargo, nivel_atividade, turno_atual, regime_embarque, meta_principal,
			plataforma_id, senha_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Matricula, c.Nome, c.DataNascimento, c.Sexo, c.AlturaCM,
		c.Cargo, c.NivelAtividade, c.TurnoAtual, c.RegimeEmbarque, c.MetaPrincipal,
		c.PlataformaID, c.SenhaHash, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create colaborador: %w", err)
	}
	return nil
}

func (s *Store) scanColaborador(row *sql.Row) (*Colaborador, error) {
	var c Colaborador
	var dataNascimento, sexo, cargo, plataformaID, senhaHash sql.NullString
	var alturaCM sql.NullFloat64
	err := row.Scan(&c.ID, &c.Matricula, &c.Nome, &dataNascimento, &sexo, &alturaCM,
		&cargo, &c.NivelAtividade, &c.TurnoAtual, &c.RegimeEmbarque, &c.MetaPrincipal,
		&plataformaID, &senhaHash, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan colaborador: %w", err)
	}
	c.DataNascimento = dataNascimento.String
	c.Sexo = sexo.String
	c.Cargo = cargo.String
	c.AlturaCM = alturaCM.Float64
	c.PlataformaID = plataformaID.String
	c.SenhaHash = senhaHash.String
	return &c, nil
}

const colaboradorColumns = `id, matricula, nome, data_nascimento, sexo, altura_cm,
	cargo, nivel_atividade, turno_atual, regime_embarque, meta_principal,
	plataforma_id, senha_hash, created_at, updated_at`

// GetColaborador fetches a colaborador by ID.
func (s *Store) GetColaborador(id string) (*Colaborador, error) {
	row := s.db.QueryRow(`SELECT `+colaboradorColumns+` FROM colaboradores WHERE id = ?`, id)
	return s.scanColaborador(row)
}

// GetColaboradorPorMatricula fetches a colaborador by matricula.
func (s *Store) GetColaboradorPorMatricula(matricula string) (*Colaborador, error) {
	row := s.db.QueryRow(`SELECT `+colaboradorColumns+` FROM colaboradores WHERE matricula = ?`, matricula)
	return s.scanColaborador(row)
}

// UpdateColaborador persists mutable profile fields.
func (s *Store) UpdateColaborador(c *Colaborador) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := s.db.Exec(`
		UPDATE colaboradores SET nome = ?, data_nascimento = ?, sexo = ?, altura_cm = ?,
			cargo = ?, nivel_atividade = ?, turno_atual = ?, regime_embarque = ?,
			meta_principal = ?, plataforma_id = ?, updated_at = ?
		WHERE id = ?`,
		c.Nome, c.DataNascimento, c.Sexo, c.AlturaCM,
		c.Cargo, c.NivelAtividade, c.TurnoAtual, c.RegimeEmbarque,
		c.MetaPrincipal, c.PlataformaID, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("update colaborador: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSenha stores a new password hash for the colaborador.
func (s *Store) SetSenha(id, senhaHash string) error {
	res, err := s.db.Exec(`UPDATE colaboradores SET senha_hash = ?, updated_at = ? WHERE id = ?`,
		senhaHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set senha: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteColaborador removes a colaborador.
func (s *Store) DeleteColaborador(id string) error {
	res, err := s.db.Exec(`DELETE FROM colaboradores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete colaborador: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListColaboradores returns all colaboradores ordered by nome.
func (s *Store) ListColaboradores() ([]*Colaborador, error) {
	rows, err := s.db.Query(`SELECT ` + colaboradorColumns + ` FROM colaboradores ORDER BY nome`)
	if err != nil {
		return nil, fmt.Errorf("list colaboradores: %w", err)
	}
	defer rows.Close()

	var out []*Colaborador
	for rows.Next() {
		var c Colaborador
		var dataNascimento, sexo, cargo, plataformaID, senhaHash sql.NullString
		var alturaCM sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.Matricula, &c.Nome, &dataNascimento, &sexo, &alturaCM,
			&cargo, &c.NivelAtividade, &c.TurnoAtual, &c.RegimeEmbarque, &c.MetaPrincipal,
			&plataformaID, &senhaHash, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan colaborador: %w", err)
		}
		c.DataNascimento = dataNascimento.String
		c.Sexo = sexo.String
		c.Cargo = cargo.String
		c.AlturaCM = alturaCM.Float64
		c.PlataformaID = plataformaID.String
		c.SenhaHash = senhaHash.String
		out = append(out, &c)
	}
	return out, rows.Err()
}
