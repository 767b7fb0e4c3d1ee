package postgres

import (
	"context"
	"fmt"

	"github.com/gestionpos/facturacion-api/internal/domain/entity"
	"github.com/gestionpos/facturacion-api/internal/domain/repository"
)

var _ repository.LevyRepository = (*LevyRepo)(nil)

// LevyRepo implementación de LevyRepository (usable con pool o tx).
type LevyRepo struct {
	q Querier
}

// NewLevyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLevyRepository(q Querier) *LevyRepo {
	return &LevyRepo{q: q}
}

// ListByCompany lista los tributos configurados de una empresa.
func (r *LevyRepo) ListByCompany(companyID string) ([]*entity.Levy, error) {
	query := `
		SELECT id, company_id, tribute_id, name, base, rate
		FROM levies WHERE company_id = $1
		ORDER BY name`
	rows, err := r.q.Query(context.Background(), query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list levies: %w", err)
	}
	defer rows.Close()

	var levies []*entity.Levy
	for rows.Next() {
		var l entity.Levy
		if err := rows.Scan(&l.ID, &l.CompanyID, &l.TributeID, &l.Name, &l.Base, &l.Rate); err != nil {
			return nil, fmt.Errorf("scan levy: %w", err)
		}
		levies = append(levies, &l)
	}
	return levies, rows.Err()
}
