package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Turno is one simplified turn of a persisted conversation. Only user
// and assistant turns are stored.
type Turno struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversa is a persisted agent conversation transcript.
type Conversa struct {
	ID               string    `json:"id"`
	ColaboradorID    string    `json:"colaborador_id"`
	Messages         []Turno   `json:"messages"`
	TokensUtilizados int       `json:"tokens_utilizados"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ConversaResumo is a listing entry for a conversation.
type ConversaResumo struct {
	ID               string    `json:"id"`
	Preview          string    `json:"preview"`
	TotalMensagens   int       `json:"total_mensagens"`
	TokensUtilizados int       `json:"tokens_utilizados"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// GetConversa fetches a conversation by ID.
func (s *Store) GetConversa(id string) (*Conversa, error) {
	row := s.db.QueryRow(`
		SELECT id, colaborador_id, messages, tokens_utilizados, created_at, updated_at
		FROM conversas_agente
		WHERE id = ?`, id)

	var c Conversa
	var messages sql.NullString
	err := row.Scan(&c.ID, &c.ColaboradorID, &messages, &c.TokensUtilizados, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversa: %w", err)
	}
	if err := unmarshalJSON(messages, &c.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return &c, nil
}

// SaveConversa upserts a conversation. The stored transcript is
// replaced wholesale; tokens accumulate across saves.
func (s *Store) SaveConversa(id, colaboradorID string, messages []Turno, tokens int) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}
	encoded, err := marshalJSON(messages)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()

	_, err = s.db.Exec(`
		INSERT INTO conversas_agente (id, colaborador_id, messages, tokens_utilizados, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			messages = excluded.messages,
			tokens_utilizados = conversas_agente.tokens_utilizados + excluded.tokens_utilizados,
			updated_at = excluded.updated_at`,
		id, colaboradorID, encoded, tokens, now, now)
	if err != nil {
		return "", fmt.Errorf("save conversa: %w", err)
	}
	return id, nil
}

// ListConversas returns conversation summaries for a colaborador,
// most recently updated first. Non-positive limits default to 10.
func (s *Store) ListConversas(colaboradorID string, limit int) ([]*ConversaResumo, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT id, messages, tokens_utilizados, updated_at
		FROM conversas_agente
		WHERE colaborador_id = ?
		ORDER BY updated_at DESC
		LIMIT ?`, colaboradorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversas: %w", err)
	}
	defer rows.Close()

	var out []*ConversaResumo
	for rows.Next() {
		var r ConversaResumo
		var messages sql.NullString
		if err := rows.Scan(&r.ID, &messages, &r.TokensUtilizados, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversa: %w", err)
		}
		var turnos []Turno
		if err := unmarshalJSON(messages, &turnos); err != nil {
			return nil, fmt.Errorf("decode messages: %w", err)
		}
		r.TotalMensagens = len(turnos)
		r.Preview = previewConversa(turnos)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func previewConversa(turnos []Turno) string {
	for _, t := range turnos {
		if t.Role == "user" && t.Content != "" {
			return truncate(t.Content, 100)
		}
	}
	return "Conversa vazia"
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
