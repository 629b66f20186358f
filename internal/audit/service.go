package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TimelineItem is one audit record with the actor's display name resolved.
type TimelineItem struct {
	ID       int64          `json:"id"`
	ActorID  string         `json:"actor_id"`
	Actor    string         `json:"actor"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}

// TimelineFilter constrains timeline queries.
type TimelineFilter struct {
	Entity string
	Action string
	Limit  int
}

// Service reads the audit timeline for admin review.
type Service struct {
	pool *pgxpool.Pool
}

// NewService builds a Service instance.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Timeline returns the most recent audit entries, newest first.
func (s *Service) Timeline(ctx context.Context, filter TimelineFilter) ([]TimelineItem, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.actor_id, COALESCE(u.full_name, ''), a.action, a.entity, a.entity_id, a.meta, a.occurred_at
		 FROM audit_logs a
		 LEFT JOIN users u ON u.id = a.actor_id
		 WHERE ($1 = '' OR a.entity = $1)
		   AND ($2 = '' OR a.action = $2)
		 ORDER BY a.occurred_at DESC
		 LIMIT $3`,
		filter.Entity, filter.Action, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TimelineItem
	for rows.Next() {
		var item TimelineItem
		if err := rows.Scan(&item.ID, &item.ActorID, &item.Actor, &item.Action, &item.Entity, &item.EntityID, &item.Meta, &item.At); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
