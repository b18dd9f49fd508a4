package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ridefleet/fleet-admin-go/internal/model"
)

type PartnerRepository interface {
	FindByID(ctx context.Context, id string) (*model.Partner, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Partner, error)
	Create(ctx context.Context, params model.CreatePartnerParams) (*model.Partner, error)
	Update(ctx context.Context, id string, params model.UpdatePartnerParams) (*model.Partner, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) PartnerRepository
}

type partnerRepo struct {
	db tokenDB
}

func NewPartnerRepository(db *sqlx.DB) PartnerRepository {
	return &partnerRepo{db: db}
}

func (r *partnerRepo) WithTx(tx *sqlx.Tx) PartnerRepository {
	return &partnerRepo{db: tx}
}

func (r *partnerRepo) FindByID(ctx context.Context, id string) (*model.Partner, error) {
	var partner model.Partner
	err := r.db.GetContext(ctx, &partner, `
		SELECT * FROM partners WHERE id = $1
	`, id)
	return HandleNotFound(&partner, err)
}

func (r *partnerRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Partner, error) {
	var partners []model.Partner
	err := r.db.SelectContext(ctx, &partners, `
		SELECT * FROM partners
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return partners, nil
}

func (r *partnerRepo) Create(ctx context.Context, params model.CreatePartnerParams) (*model.Partner, error) {
	var partner model.Partner
	err := r.db.GetContext(ctx, &partner, `
		INSERT INTO partners (id, name, contact_email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.ID, params.Name, params.ContactEmail, params.Phone)
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *partnerRepo) Update(ctx context.Context, id string, params model.UpdatePartnerParams) (*model.Partner, error) {
	var partner model.Partner
	err := r.db.GetContext(ctx, &partner, `
		UPDATE partners SET
			name = COALESCE($2, name),
			contact_email = COALESCE($3, contact_email),
			phone = COALESCE($4, phone),
			updated_at = $5
		WHERE id = $1
		RETURNING *
	`, id, params.Name, params.ContactEmail, params.Phone, time.Now())
	return HandleNotFound(&partner, err)
}

func (r *partnerRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM partners WHERE id = $1`, id)
	return err
}

func (r *partnerRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM partners`)
	return count, err
}
