package domain

import "time"

type Product struct {
	ID         int64     `json:"product_id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	UnitPrice  Money     `json:"unit_price"`
	Quantity   int       `json:"quantity"`
	SupplierID *int64    `json:"supplier_id,omitempty"`
	Supplier   string    `json:"supplier_name,omitempty"`
	Active     bool      `json:"active"`
	UpdatedAt  time.Time `json:"last_updated"`
}

// ProductChanges lists optional edits. Quantity is deliberately absent:
// stock only moves through the ledger.
type ProductChanges struct {
	Name       *string
	Category   *string
	UnitPrice  *Money
	SupplierID *int64
}

type Supplier struct {
	ID           int64     `json:"supplier_id"`
	Name         string    `json:"name"`
	ContactInfo  string    `json:"contact_info"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	ProductCount int       `json:"product_count"`
}

type SupplierChanges struct {
	Name        *string
	ContactInfo *string
	Email       *string
	Address     *string
}

type TransactionType string

const (
	Sale     TransactionType = "Sale"
	Purchase TransactionType = "Purchase"
)

func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(s) {
	case Sale, Purchase:
		return TransactionType(s), true
	}
	return "", false
}

// Transaction is immutable once written.
type Transaction struct {
	ID          int64           `json:"transaction_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	UserID      int64           `json:"user_id"`
	Username    string          `json:"username,omitempty"`
	Type        TransactionType `json:"type"`
	Quantity    int             `json:"quantity"`
	TotalPrice  Money           `json:"total_price"`
	Note        string          `json:"note,omitempty"`
	CreatedAt   time.Time       `json:"transaction_date"`
}

type AuditAction string

const (
	AuditLogin          AuditAction = "LOGIN"
	AuditLogout         AuditAction = "LOGOUT"
	AuditChangePassword AuditAction = "CHANGE_PASSWORD"
	AuditAddProduct     AuditAction = "ADD_PRODUCT"
	AuditUpdateProduct  AuditAction = "UPDATE_PRODUCT"
	AuditDeleteProduct  AuditAction = "DELETE_PRODUCT"
	AuditAddSupplier    AuditAction = "ADD_SUPPLIER"
	AuditUpdateSupplier AuditAction = "UPDATE_SUPPLIER"
	AuditDeleteSupplier AuditAction = "DELETE_SUPPLIER"
	AuditTransaction    AuditAction = "RECORD_TRANSACTION"
	AuditRegisterUser   AuditAction = "REGISTER_USER"
	AuditDeactivateUser AuditAction = "DEACTIVATE_USER"
)

type AuditEntry struct {
	ID        int64       `json:"log_id"`
	UserID    int64       `json:"user_id"`
	Username  string      `json:"username,omitempty"`
	Action    AuditAction `json:"action"`
	Details   string      `json:"details"`
	CreatedAt time.Time   `json:"timestamp"`
}
