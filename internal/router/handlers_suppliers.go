package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"stock-service/internal/domain"
	"stock-service/internal/session"
)

type supplierIDRequest struct {
	SupplierID int64 `json:"supplier_id" validate:"required,gt=0"`
}

type addSupplierRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	ContactInfo string `json:"contact_info" validate:"max=100"`
	Email       string `json:"email" validate:"omitempty,email,max=100"`
	Address     string `json:"address" validate:"max=255"`
}

type updateSupplierRequest struct {
	SupplierID  int64   `json:"supplier_id" validate:"required,gt=0"`
	Name        *string `json:"name" validate:"omitempty,max=100"`
	ContactInfo *string `json:"contact_info" validate:"omitempty,max=100"`
	Email       *string `json:"email" validate:"omitempty,max=100"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
}

func (r *Router) getAllSuppliers(ctx context.Context, _ *session.Session, _ json.RawMessage) (reply, error) {
	items, err := r.deps.Store.ListSuppliers(ctx)
	if err != nil {
		return reply{}, err
	}
	return reply{"Suppliers retrieved", items}, nil
}

func (r *Router) getSupplier(ctx context.Context, _ *session.Session, payload json.RawMessage) (reply, error) {
	var req supplierIDRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	s, err := r.deps.Store.GetSupplier(ctx, req.SupplierID)
	if err != nil {
		return reply{}, err
	}
	return reply{"Supplier retrieved", s}, nil
}

func (r *Router) searchSuppliers(ctx context.Context, _ *session.Session, payload json.RawMessage) (reply, error) {
	var req searchRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	items, err := r.deps.Store.SearchSuppliers(ctx, req.SearchTerm)
	if err != nil {
		return reply{}, err
	}
	return reply{"Search completed", items}, nil
}

func (r *Router) addSupplier(ctx context.Context, sess *session.Session, payload json.RawMessage) (reply, error) {
	var req addSupplierRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return reply{}, domain.Invalid("name is required")
	}
	created, err := r.deps.Store.CreateSupplier(ctx, domain.Supplier{
		Name:        req.Name,
		ContactInfo: req.ContactInfo,
		Email:       req.Email,
		Address:     req.Address,
	})
	if err != nil {
		return reply{}, err
	}
	r.audit(ctx, sess, domain.AuditAddSupplier, fmt.Sprintf("supplier_id=%d name=%q", created.ID, created.Name))
	return reply{"Supplier added successfully", created}, nil
}

func (r *Router) updateSupplier(ctx context.Context, sess *session.Session, payload json.RawMessage) (reply, error) {
	var req updateSupplierRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	if req.Name == nil && req.ContactInfo == nil && req.Email == nil && req.Address == nil {
		return reply{}, domain.Invalid("no fields to update")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return reply{}, domain.Invalid("name must not be empty")
	}
	if req.Email != nil && *req.Email != "" {
		if err := r.validate.Var(*req.Email, "email"); err != nil {
			return reply{}, domain.Invalid("email must be a valid email address")
		}
	}

	updated, err := r.deps.Store.UpdateSupplier(ctx, req.SupplierID, domain.SupplierChanges{
		Name:        req.Name,
		ContactInfo: req.ContactInfo,
		Email:       req.Email,
		Address:     req.Address,
	})
	if err != nil {
		return reply{}, err
	}
	r.audit(ctx, sess, domain.AuditUpdateSupplier, fmt.Sprintf("supplier_id=%d", updated.ID))
	return reply{"Supplier updated successfully", updated}, nil
}

func (r *Router) deleteSupplier(ctx context.Context, sess *session.Session, payload json.RawMessage) (reply, error) {
	var req supplierIDRequest
	if err := r.decode(payload, &req); err != nil {
		return reply{}, err
	}
	if err := r.deps.Store.DeactivateSupplier(ctx, req.SupplierID); err != nil {
		return reply{}, err
	}
	r.audit(ctx, sess, domain.AuditDeleteSupplier, fmt.Sprintf("supplier_id=%d", req.SupplierID))
	return reply{"Supplier deleted successfully", nil}, nil
}
