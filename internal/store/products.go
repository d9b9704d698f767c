package store

import (
	"context"
	"errors"
	"strings"

	"stock-service/internal/domain"

	"gorm.io/gorm"
)

func (s *Store) productQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("products AS p").
		Select("p.product_id, p.name, p.category, p.unit_price_cents, p.quantity, p.supplier_id, s.name AS supplier_name, p.active, p.updated_at").
		Joins("LEFT JOIN suppliers AS s ON s.supplier_id = p.supplier_id").
		Where("p.active = ?", true)
}

func (s *Store) scanProducts(q *gorm.DB, op string) ([]domain.Product, error) {
	var rows []productRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, wrap(op, err)
	}
	out := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDomainProduct(r))
	}
	return out, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.scanProducts(s.productQuery(ctx).Order("p.name, p.product_id"), "list products")
}

func (s *Store) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	items, err := s.scanProducts(s.productQuery(ctx).Where("p.product_id = ?", id), "get product")
	if err != nil {
		return domain.Product{}, err
	}
	if len(items) == 0 {
		return domain.Product{}, &domain.NotFoundError{Entity: "product", ID: id}
	}
	return items[0], nil
}

func (s *Store) SearchProducts(ctx context.Context, term string) ([]domain.Product, error) {
	pattern := likePattern(term)
	q := s.productQuery(ctx).
		Where(`(LOWER(p.name) LIKE ? ESCAPE '\' OR LOWER(p.category) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("p.name, p.product_id")
	return s.scanProducts(q, "search products")
}

func (s *Store) LowStockProducts(ctx context.Context, threshold int) ([]domain.Product, error) {
	q := s.productQuery(ctx).Where("p.quantity <= ?", threshold).Order("p.quantity, p.product_id")
	return s.scanProducts(q, "low stock products")
}

func (s *Store) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := s.requireSupplier(ctx, p.SupplierID); err != nil {
		return domain.Product{}, err
	}
	ts := now()
	rec := productModel{
		Name:       strings.TrimSpace(p.Name),
		Category:   strings.TrimSpace(p.Category),
		UnitPrice:  int64(p.UnitPrice),
		Quantity:   p.Quantity,
		SupplierID: p.SupplierID,
		Active:     true,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Product{}, wrap("create product", err)
	}
	return s.GetProduct(ctx, rec.ID)
}

// UpdateProduct applies the non-nil fields. Quantity is never touched here.
func (s *Store) UpdateProduct(ctx context.Context, id int64, c domain.ProductChanges) (domain.Product, error) {
	if err := s.requireSupplier(ctx, c.SupplierID); err != nil {
		return domain.Product{}, err
	}
	updates := map[string]any{"updated_at": now()}
	if c.Name != nil {
		updates["name"] = strings.TrimSpace(*c.Name)
	}
	if c.Category != nil {
		updates["category"] = strings.TrimSpace(*c.Category)
	}
	if c.UnitPrice != nil {
		updates["unit_price_cents"] = int64(*c.UnitPrice)
	}
	if c.SupplierID != nil {
		updates["supplier_id"] = *c.SupplierID
	}

	res := s.db.WithContext(ctx).
		Model(&productModel{}).
		Where("product_id = ? AND active = ?", id, true).
		Updates(updates)
	if res.Error != nil {
		return domain.Product{}, wrap("update product", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Product{}, &domain.NotFoundError{Entity: "product", ID: id}
	}
	return s.GetProduct(ctx, id)
}

func (s *Store) DeactivateProduct(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).
		Model(&productModel{}).
		Where("product_id = ? AND active = ?", id, true).
		Updates(map[string]any{"active": false, "updated_at": now()})
	if res.Error != nil {
		return wrap("deactivate product", res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "product", ID: id}
	}
	return nil
}

func (s *Store) requireSupplier(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	var rec supplierModel
	err := s.db.WithContext(ctx).Where("supplier_id = ? AND active = ?", *id, true).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Invalid("supplier %d does not exist", *id)
	}
	return wrap("check supplier", err)
}
