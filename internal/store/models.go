package store

import "time"

type supplierModel struct {
	ID          int64     `gorm:"column:supplier_id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;not null;index"`
	ContactInfo string    `gorm:"column:contact_info"`
	Email       string    `gorm:"column:email"`
	Address     string    `gorm:"column:address"`
	Active      bool      `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (supplierModel) TableName() string { return "suppliers" }

type productModel struct {
	ID         int64     `gorm:"column:product_id;primaryKey;autoIncrement"`
	Name       string    `gorm:"column:name;not null;index"`
	Category   string    `gorm:"column:category;not null;default:''"`
	UnitPrice  int64     `gorm:"column:unit_price_cents;not null;check:chk_products_price,unit_price_cents >= 0"`
	Quantity   int       `gorm:"column:quantity;not null;default:0;check:chk_products_quantity,quantity >= 0"`
	SupplierID *int64    `gorm:"column:supplier_id;index"`
	Active     bool      `gorm:"column:active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (productModel) TableName() string { return "products" }

type userModel struct {
	ID           int64     `gorm:"column:user_id;primaryKey;autoIncrement"`
	Username     string    `gorm:"column:username;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Role         string    `gorm:"column:role;not null"`
	Active       bool      `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (userModel) TableName() string { return "users" }

type transactionModel struct {
	ID         int64     `gorm:"column:transaction_id;primaryKey;autoIncrement"`
	ProductID  int64     `gorm:"column:product_id;not null;index"`
	UserID     int64     `gorm:"column:user_id;not null;index"`
	Type       string    `gorm:"column:txn_type;not null"`
	Quantity   int       `gorm:"column:quantity;not null;check:chk_transactions_quantity,quantity > 0"`
	TotalPrice int64     `gorm:"column:total_price_cents;not null;check:chk_transactions_total,total_price_cents >= 0"`
	Note       string    `gorm:"column:note"`
	CreatedAt  time.Time `gorm:"column:created_at;index"`
}

func (transactionModel) TableName() string { return "transactions" }

type auditModel struct {
	ID        int64     `gorm:"column:log_id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	Action    string    `gorm:"column:action;not null"`
	Details   string    `gorm:"column:details"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

func (auditModel) TableName() string { return "audit_logs" }

// Models lists every table in creation order.
func Models() []any {
	return []any{
		&supplierModel{},
		&productModel{},
		&userModel{},
		&transactionModel{},
		&auditModel{},
	}
}
