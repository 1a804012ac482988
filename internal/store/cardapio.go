package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Cardapio is a cafeteria menu for one meal on one day of a platform.
type Cardapio struct {
	ID           string           `json:"id"`
	PlataformaID string           `json:"plataforma_id"`
	Data         string           `json:"data"`
	Refeicao     string           `json:"refeicao"`
	Itens        []map[string]any `json:"itens"`
	CreatedAt    time.Time        `json:"created_at"`
}

// UpsertCardapio inserts or replaces the menu for a platform, date and
// meal.
func (s *Store) UpsertCardapio(c *Cardapio) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()

	itens, err := marshalJSON(c.Itens)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO cardapios (id, plataforma_id, data, refeicao, itens, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (plataforma_id, data, refeicao)
		DO UPDATE SET itens = excluded.itens, created_at = excluded.created_at`,
		c.ID, c.PlataformaID, c.Data, c.Refeicao, itens, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert cardapio: %w", err)
	}
	return nil
}

// CardapioDia returns all meals of the menu for a platform on a date.
func (s *Store) CardapioDia(plataformaID, data string) ([]*Cardapio, error) {
	return s.queryCardapios(`
		SELECT id, plataforma_id, data, refeicao, itens, created_at
		FROM cardapios
		WHERE plataforma_id = ? AND data = ?
		ORDER BY refeicao`, plataformaID, data)
}

// CardapioPeriodo returns menus for a platform between two dates
// inclusive, ordered by date then meal.
func (s *Store) CardapioPeriodo(plataformaID, inicio, fim string) ([]*Cardapio, error) {
	return s.queryCardapios(`
		SELECT id, plataforma_id, data, refeicao, itens, created_at
		FROM cardapios
		WHERE plataforma_id = ? AND data >= ? AND data <= ?
		ORDER BY data, refeicao`, plataformaID, inicio, fim)
}

func (s *Store) queryCardapios(query string, args ...any) ([]*Cardapio, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cardapios: %w", err)
	}
	defer rows.Close()

	var out []*Cardapio
	for rows.Next() {
		var c Cardapio
		var itens sql.NullString
		if err := rows.Scan(&c.ID, &c.PlataformaID, &c.Data, &c.Refeicao, &itens, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cardapio: %w", err)
		}
		if err := unmarshalJSON(itens, &c.Itens); err != nil {
			return nil, fmt.Errorf("decode itens: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
