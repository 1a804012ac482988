// Package store provides SQLite-backed persistence for colaboradores,
// their clinical data, menus, meal logs, medical alerts and agent
// conversations.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store is a SQLite-backed data store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath and applies
// the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Colaboradores (platform workers)
	CREATE TABLE IF NOT EXISTS colaboradores (
		id TEXT PRIMARY KEY,
		matricula TEXT NOT NULL UNIQUE,
		nome TEXT NOT NULL,
		data_nascimento TEXT,
		sexo TEXT,
		altura_cm REAL,
		cargo TEXT,
		nivel_atividade TEXT NOT NULL DEFAULT 'moderado',
		turno_atual TEXT NOT NULL DEFAULT 'diurno',
		regime_embarque TEXT NOT NULL DEFAULT '14x14',
		meta_principal TEXT NOT NULL DEFAULT 'saude_geral',
		plataforma_id TEXT,
		senha_hash TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_colaboradores_matricula ON colaboradores(matricula);

	-- Medicoes (anthropometric and clinical measurements)
	CREATE TABLE IF NOT EXISTS medicoes (
		id TEXT PRIMARY KEY,
		colaborador_id TEXT NOT NULL,
		peso_kg REAL,
		circunferencia_abdominal_cm REAL,
		percentual_gordura REAL,
		pressao_sistolica INTEGER,
		pressao_diastolica INTEGER,
		glicemia_jejum REAL,
		colesterol_total REAL,
		hdl REAL,
		ldl REAL,
		triglicerides REAL,
		fonte TEXT NOT NULL DEFAULT 'auto_relato',
		medida_em TIMESTAMP NOT NULL,
		FOREIGN KEY (colaborador_id) REFERENCES colaboradores(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_medicoes_colaborador ON medicoes(colaborador_id, medida_em);

	-- Condicoes de saude
	CREATE TABLE IF NOT EXISTS condicoes_saude (
		id TEXT PRIMARY KEY,
		colaborador_id TEXT NOT NULL,
		condicao TEXT NOT NULL,
		severidade TEXT,
		medicamentos TEXT,
		ativo BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (colaborador_id) REFERENCES colaboradores(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_condicoes_colaborador ON condicoes_saude(colaborador_id, ativo);

	-- Preferencias alimentares
	CREATE TABLE IF NOT EXISTS preferencias_alimentares (
		id TEXT PRIMARY KEY,
		colaborador_id TEXT NOT NULL,
		tipo TEXT NOT NULL,
		item TEXT NOT NULL,
		severidade TEXT,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (colaborador_id) REFERENCES colaboradores(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_preferencias_colaborador ON preferencias_alimentares(colaborador_id);

	-- Planos nutricionais
	CREATE TABLE IF NOT EXISTS planos_nutricionais (
		id TEXT PRIMARY KEY,
		colaborador_id TEXT NOT NULL,
		objetivo TEXT,
		meta_calorica REAL,
		proteina_g REAL,
		carboidratos_g REAL,
		gorduras_g REAL,
		refeicoes_detalhadas TEXT,
		suplementacao TEXT,
		observacoes TEXT,
		data_inicio TEXT,
		data_fim TEXT,
		ativo BOOLEAN NOT NULL DEFAULT TRUE,
		created_by TEXT NOT NULL DEFAULT 'nutrioffshore_ai',
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (colaborador_id) REFERENCES colaboradores(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_planos_colaborador ON planos_nutricionais(colaborador_id, ativo);

	-- Cardapios do refeitorio
	CREATE TABLE IF NOT EXISTS cardapios (
		id TEXT PRIMARY KEY,
		plataforma_id TEXT NOT NULL,
		data TEXT NOT NULL,
		refeicao TEXT NOT NULL,
		itens TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (plataforma_id, data, refeicao)
	);
	CREATE INDEX IF NOT EXISTS idx_cardapios_data ON cardapios(plataforma_id, data);

	-- Registro de refeicoes
	CREATE TABLE IF NOT EXISTS refeicoes_log (
		id TEXT PRIMARY KEY,
		colaborador_id TEXT NOT NULL,
		data TEXT NOT NULL,
		refeicao_tipo TEXT NOT NULL,
		itens_consumidos TEXT,
		calorias_estimadas REAL,
		proteina_g REAL,
		carboidratos_g REAL,
		gorduras_g REAL,
		aderencia_percentual INTEGER,
		observacoes TEXT,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (colaborador_id) REFERENCES colaboradores(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_refeicoes_colaborador ON refeicoes_log(colaborador_id, data);

	-- Alertas medicos
	CREATE TABLE IF NOT EXISTS alertas_medicos (
		id TEXT PRIMARY KEY,
		colaborador_id TEXT NOT NULL,
		tipo TEXT NOT NULL,
		motivo TEXT NOT NULL,
		recomendacao TEXT,
		status TEXT NOT NULL DEFAULT 'aberto',
		visualizado_por TEXT,
		visualizado_em TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (colaborador_id) REFERENCES colaboradores(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_alertas_status ON alertas_medicos(status, created_at);
	CREATE INDEX IF NOT EXISTS idx_alertas_colaborador ON alertas_medicos(colaborador_id);

	-- Conversas do agente
	CREATE TABLE IF NOT EXISTS conversas_agente (
		id TEXT PRIMARY KEY,
		colaborador_id TEXT NOT NULL,
		messages TEXT NOT NULL,
		tokens_utilizados INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (colaborador_id) REFERENCES colaboradores(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_conversas_colaborador ON conversas_agente(colaborador_id, updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// marshalJSON encodes v as a TEXT column value; nil becomes "[]"-style
// empty JSON so scans never see NULL where a collection is expected.
func marshalJSON(v any) (string, error) {
	if v == nil {
		return "null", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal json column: %w", err)
	}
	return string(data), nil
}

// unmarshalJSON decodes a TEXT column into out, tolerating NULL/empty.
func unmarshalJSON(raw sql.NullString, out any) error {
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw.String), out)
}
