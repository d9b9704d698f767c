package store

import (
	"errors"
	"strings"
	"time"

	"stock-service/internal/auth"
	"stock-service/internal/domain"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type productRow struct {
	ID           int64     `gorm:"column:product_id"`
	Name         string    `gorm:"column:name"`
	Category     string    `gorm:"column:category"`
	UnitPrice    int64     `gorm:"column:unit_price_cents"`
	Quantity     int       `gorm:"column:quantity"`
	SupplierID   *int64    `gorm:"column:supplier_id"`
	SupplierName *string   `gorm:"column:supplier_name"`
	Active       bool      `gorm:"column:active"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func toDomainProduct(row productRow) domain.Product {
	p := domain.Product{
		ID:         row.ID,
		Name:       row.Name,
		Category:   row.Category,
		UnitPrice:  domain.Money(row.UnitPrice),
		Quantity:   row.Quantity,
		SupplierID: row.SupplierID,
		Active:     row.Active,
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
	if row.SupplierName != nil {
		p.Supplier = *row.SupplierName
	}
	return p
}

func productModelToRow(m productModel) productRow {
	return productRow{
		ID:         m.ID,
		Name:       m.Name,
		Category:   m.Category,
		UnitPrice:  m.UnitPrice,
		Quantity:   m.Quantity,
		SupplierID: m.SupplierID,
		Active:     m.Active,
		UpdatedAt:  m.UpdatedAt,
	}
}

type supplierRow struct {
	ID           int64     `gorm:"column:supplier_id"`
	Name         string    `gorm:"column:name"`
	ContactInfo  string    `gorm:"column:contact_info"`
	Email        string    `gorm:"column:email"`
	Address      string    `gorm:"column:address"`
	Active       bool      `gorm:"column:active"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	ProductCount int       `gorm:"column:product_count"`
}

func toDomainSupplier(row supplierRow) domain.Supplier {
	return domain.Supplier{
		ID:           row.ID,
		Name:         row.Name,
		ContactInfo:  row.ContactInfo,
		Email:        row.Email,
		Address:      row.Address,
		Active:       row.Active,
		CreatedAt:    row.CreatedAt.UTC(),
		ProductCount: row.ProductCount,
	}
}

func toDomainUser(row userModel) domain.User {
	return domain.User{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		Role:         auth.Role(row.Role),
		Active:       row.Active,
		CreatedAt:    row.CreatedAt.UTC(),
	}
}

type transactionRow struct {
	ID          int64     `gorm:"column:transaction_id"`
	ProductID   int64     `gorm:"column:product_id"`
	ProductName *string   `gorm:"column:product_name"`
	UserID      int64     `gorm:"column:user_id"`
	Username    *string   `gorm:"column:username"`
	Type        string    `gorm:"column:txn_type"`
	Quantity    int       `gorm:"column:quantity"`
	TotalPrice  int64     `gorm:"column:total_price_cents"`
	Note        string    `gorm:"column:note"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func toDomainTransaction(row transactionRow) domain.Transaction {
	t := domain.Transaction{
		ID:         row.ID,
		ProductID:  row.ProductID,
		UserID:     row.UserID,
		Type:       domain.TransactionType(row.Type),
		Quantity:   row.Quantity,
		TotalPrice: domain.Money(row.TotalPrice),
		Note:       row.Note,
		CreatedAt:  row.CreatedAt.UTC(),
	}
	if row.ProductName != nil {
		t.ProductName = *row.ProductName
	}
	if row.Username != nil {
		t.Username = *row.Username
	}
	return t
}

type auditRow struct {
	ID        int64     `gorm:"column:log_id"`
	UserID    int64     `gorm:"column:user_id"`
	Username  *string   `gorm:"column:username"`
	Action    string    `gorm:"column:action"`
	Details   string    `gorm:"column:details"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func toDomainAudit(row auditRow) domain.AuditEntry {
	e := domain.AuditEntry{
		ID:        row.ID,
		UserID:    row.UserID,
		Action:    domain.AuditAction(row.Action),
		Details:   row.Details,
		CreatedAt: row.CreatedAt.UTC(),
	}
	if row.Username != nil {
		e.Username = *row.Username
	}
	return e
}

// isUniqueViolation covers gorm's translated error plus the raw lib/pq and
// sqlite forms, since the translator only knows the pgx driver.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// wrap classifies a repository error: domain errors pass through, unique
// violations become ErrConflict, anything else is a storage fault.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{domain.ErrNotFound, domain.ErrConflict, domain.ErrInvalidInput, domain.ErrInsufficientStock, domain.ErrStorage} {
		if errors.Is(err, known) {
			return err
		}
	}
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return &domain.StorageError{Op: op, Err: err}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}
