package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"stock-service/internal/domain"
	"stock-service/internal/session"
)

type productIDRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

type searchRequest struct {
	SearchTerm string `json:"search_term" validate:"required,max=100"`
}

type lowStockRequest struct {
	Threshold *int `json:"threshold" validate:"omitempty,gte=0"`
}

type addProductRequest struct {
	Name       string        `json:"name" validate:"required,max=100"`
	Category   string        `json:"category" validate:"max=50"`
	UnitPrice  *domain.Money `json:"unit_price" validate:"required,gte=0"`
	Quantity   *int          `json:"quantity" validate:"omitempty,gte=0"`
	SupplierID *int64        `json:"supplier_id" validate:"omitempty,gt=0"`
}

// updateProductRequest has no quantity: stock only moves through transactions.
type updateProductRequest struct {
	ProductID  int64         `json:"product_id" validate:"required,gt=0"`
	Name       *string       `json:"name" validate:"omitempty,max=100"`
	Category   *string       `json:"category" validate:"omitempty,max=50"`
	UnitPrice  *domain.Money `json:"unit_price" validate:"omitempty,gte=0"`
	SupplierID *int64        `json:"supplier_id" validate:"omitempty,gt=0"`
}

func (r *Router) getAllProducts(ctx context.Context, _ *session.Session, _ json.RawMessage) (reply, error) {
	items, err := r.deps.Store.ListProducts(ctx)
	if err != nil {
		return reply{}, err
	}
	return reply{"Products retrieved", items}, nil
}

func (r *Router) getProduct(ctx context.Context, _ *session.Session, payload json.RawMessage) (reply, error) {
	var req productIDRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	p, err := r.deps.Store.GetProduct(ctx, req.ProductID)
	if err != nil {
		return reply{}, err
	}
	return reply{"Product retrieved", p}, nil
}

func (r *Router) searchProducts(ctx context.Context, _ *session.Session, payload json.RawMessage) (reply, error) {
	var req searchRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	items, err := r.deps.Store.SearchProducts(ctx, req.SearchTerm)
	if err != nil {
		return reply{}, err
	}
	return reply{"Search completed", items}, nil
}

func (r *Router) getLowStock(ctx context.Context, _ *session.Session, payload json.RawMessage) (reply, error) {
	var req lowStockRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	threshold := domain.LowStockThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	items, err := r.deps.Store.LowStockProducts(ctx, threshold)
	if err != nil {
		return reply{}, err
	}
	return reply{"Low stock products retrieved", items}, nil
}

func (r *Router) addProduct(ctx context.Context, sess *session.Session, payload json.RawMessage) (reply, error) {
	var req addProductRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return reply{}, domain.Invalid("name is required")
	}
	p := domain.Product{
		Name:       req.Name,
		Category:   req.Category,
		UnitPrice:  *req.UnitPrice,
		SupplierID: req.SupplierID,
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}

	created, err := r.deps.Store.CreateProduct(ctx, p)
	if err != nil {
		return reply{}, err
	}
	r.audit(ctx, sess, domain.AuditAddProduct, fmt.Sprintf("product_id=%d name=%q", created.ID, created.Name))
	return reply{"Product added successfully", created}, nil
}

func (r *Router) updateProduct(ctx context.Context, sess *session.Session, payload json.RawMessage) (reply, error) {
	var req updateProductRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	if req.Name == nil && req.Category == nil && req.UnitPrice == nil && req.SupplierID == nil {
		return reply{}, domain.Invalid("no fields to update")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return reply{}, domain.Invalid("name must not be empty")
	}

	updated, err := r.deps.Store.UpdateProduct(ctx, req.ProductID, domain.ProductChanges{
		Name:       req.Name,
		Category:   req.Category,
		UnitPrice:  req.UnitPrice,
		SupplierID: req.SupplierID,
	})
	if err != nil {
		return reply{}, err
	}
	r.audit(ctx, sess, domain.AuditUpdateProduct, fmt.Sprintf("product_id=%d", updated.ID))
	return reply{"Product updated successfully", updated}, nil
}

func (r *Router) deleteProduct(ctx context.Context, sess *session.Session, payload json.RawMessage) (reply, error) {
	var req productIDRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	if err := r.deps.Store.DeactivateProduct(ctx, req.ProductID); err != nil {
		return reply{}, err
	}
	r.audit(ctx, sess, domain.AuditDeleteProduct, fmt.Sprintf("product_id=%d", req.ProductID))
	return reply{"Product deleted successfully", nil}, nil
}
