package store

import (
	"context"
	"strings"

	"stock-service/internal/domain"

	"gorm.io/gorm"
)

func (s *Store) supplierQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("suppliers AS s").
		Select(`s.supplier_id, s.name, s.contact_info, s.email, s.address, s.active, s.created_at,
			(SELECT COUNT(*) FROM products AS p WHERE p.supplier_id = s.supplier_id AND p.active = ?) AS product_count`, true).
		Where("s.active = ?", true)
}

func (s *Store) scanSuppliers(q *gorm.DB, op string) ([]domain.Supplier, error) {
	var rows []supplierRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, wrap(op, err)
	}
	out := make([]domain.Supplier, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDomainSupplier(r))
	}
	return out, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.scanSuppliers(s.supplierQuery(ctx).Order("s.name, s.supplier_id"), "list suppliers")
}

func (s *Store) GetSupplier(ctx context.Context, id int64) (domain.Supplier, error) {
	items, err := s.scanSuppliers(s.supplierQuery(ctx).Where("s.supplier_id = ?", id), "get supplier")
	if err != nil {
		return domain.Supplier{}, err
	}
	if len(items) == 0 {
		return domain.Supplier{}, &domain.NotFoundError{Entity: "supplier", ID: id}
	}
	return items[0], nil
}

func (s *Store) SearchSuppliers(ctx context.Context, term string) ([]domain.Supplier, error) {
	pattern := likePattern(term)
	q := s.supplierQuery(ctx).
		Where(`(LOWER(s.name) LIKE ? ESCAPE '\' OR LOWER(s.email) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("s.name, s.supplier_id")
	return s.scanSuppliers(q, "search suppliers")
}

func (s *Store) CreateSupplier(ctx context.Context, sup domain.Supplier) (domain.Supplier, error) {
	rec := supplierModel{
		Name:        strings.TrimSpace(sup.Name),
		ContactInfo: strings.TrimSpace(sup.ContactInfo),
		Email:       strings.TrimSpace(sup.Email),
		Address:     strings.TrimSpace(sup.Address),
		Active:      true,
		CreatedAt:   now(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Supplier{}, wrap("create supplier", err)
	}
	return s.GetSupplier(ctx, rec.ID)
}

func (s *Store) UpdateSupplier(ctx context.Context, id int64, c domain.SupplierChanges) (domain.Supplier, error) {
	updates := map[string]any{}
	if c.Name != nil {
		updates["name"] = strings.TrimSpace(*c.Name)
	}
	if c.ContactInfo != nil {
		updates["contact_info"] = strings.TrimSpace(*c.ContactInfo)
	}
	if c.Email != nil {
		updates["email"] = strings.TrimSpace(*c.Email)
	}
	if c.Address != nil {
		updates["address"] = strings.TrimSpace(*c.Address)
	}
	if len(updates) == 0 {
		return s.GetSupplier(ctx, id)
	}

	res := s.db.WithContext(ctx).
		Model(&supplierModel{}).
		Where("supplier_id = ? AND active = ?", id, true).
		Updates(updates)
	if res.Error != nil {
		return domain.Supplier{}, wrap("update supplier", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Supplier{}, &domain.NotFoundError{Entity: "supplier", ID: id}
	}
	return s.GetSupplier(ctx, id)
}

func (s *Store) DeactivateSupplier(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).
		Model(&supplierModel{}).
		Where("supplier_id = ? AND active = ?", id, true).
		Update("active", false)
	if res.Error != nil {
		return wrap("deactivate supplier", res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "supplier", ID: id}
	}
	return nil
}
