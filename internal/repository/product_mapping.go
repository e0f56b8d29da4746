package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/courseloop/academy-server-go/internal/database"
	"github.com/courseloop/academy-server-go/internal/model"
)

type ProductMappingRepository interface {
	FindActiveByProductID(ctx context.Context, productID string) (*model.ProductMapping, error)
}

type productMappingRepo struct {
	db database.DBTX
}

func NewProductMappingRepository(db *sqlx.DB) ProductMappingRepository {
	return &productMappingRepo{db: db}
}

func (r *productMappingRepo) FindActiveByProductID(ctx context.Context, productID string) (*model.ProductMapping, error) {
	var mapping model.ProductMapping
	err := r.db.GetContext(ctx, &mapping, `
		SELECT * FROM product_mappings
		WHERE product_id = $1 AND active = TRUE
	`, productID)
	return HandleNotFound(&mapping, err)
}
