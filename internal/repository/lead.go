package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
)

type LeadRepository struct {
	pool *pgxpool.Pool
}

func NewLeadRepository(pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

func (r *LeadRepository) Create(ctx context.Context, req *model.LeadRequest) (*model.Lead, error) {
	lead := &model.Lead{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (id, name, email, phone, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, lead.ID, lead.Name, lead.Email, lead.Phone, lead.Message).Scan(&lead.CreatedAt)
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *LeadRepository) List(ctx context.Context, limit int) ([]*model.Lead, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, phone, message, created_at
		FROM leads ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*model.Lead
	for rows.Next() {
		var l model.Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Message, &l.CreatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, &l)
	}
	return leads, rows.Err()
}
