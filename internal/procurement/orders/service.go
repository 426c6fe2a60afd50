package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bizdesk/bizdesk/internal/documents"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// Service orchestrates purchase order flows.
type Service struct {
	repo    Repository
	calc    documents.Calculator
	numbers documents.NumberAllocator
	auditor shared.Auditor
}

// NewService constructs the purchase order service. auditor may be nil.
func NewService(repo Repository, calc documents.Calculator, numbers documents.NumberAllocator, auditor shared.Auditor) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Service{repo: repo, calc: calc, numbers: numbers, auditor: auditor}
}

func (s *Service) List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) (shared.Page[PurchaseOrder], error) {
	items, total, err := s.repo.List(ctx, companyID, page, filters)
	if err != nil {
		return shared.Page[PurchaseOrder]{}, fmt.Errorf("list purchase orders: %w", err)
	}
	return shared.NewPage(items, page, total), nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*PurchaseOrder, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) build(ctx context.Context, companyID int64, req Request) (PurchaseOrder, error) {
	orderDate, err := time.Parse(time.DateOnly, req.OrderDate)
	if err != nil {
		return PurchaseOrder{}, ErrInvalidDate
	}
	var expected *time.Time
	if req.ExpectedDate != "" {
		d, err := time.Parse(time.DateOnly, req.ExpectedDate)
		if err != nil {
			return PurchaseOrder{}, ErrInvalidDate
		}
		if d.Before(orderDate) {
			return PurchaseOrder{}, ErrExpectedBeforeOrder
		}
		expected = &d
	}

	companyState, vendorState, err := s.repo.States(ctx, companyID, req.VendorID)
	if err != nil {
		return PurchaseOrder{}, err
	}
	built, err := documents.Build(s.calc, req.Lines, req.Charges, documents.IsInterState(companyState, vendorState))
	if err != nil {
		return PurchaseOrder{}, err
	}
	return PurchaseOrder{
		CompanyID:    companyID,
		VendorID:     req.VendorID,
		OrderDate:    orderDate,
		ExpectedDate: expected,
		Notes:        req.Notes,
		Status:       StatusDraft,
		Lines:        built.Lines,
		Summary:      built.Summary,
	}, nil
}

func (s *Service) Create(ctx context.Context, companyID int64, req Request) (*PurchaseOrder, error) {
	po, err := s.build(ctx, companyID, req)
	if err != nil {
		return nil, err
	}
	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		var err error
		if po.DocNumber, err = s.numbers.Next(ctx, companyID, documents.SeriesPurchaseOrder, po.OrderDate); err != nil {
			return fmt.Errorf("allocate purchase order number: %w", err)
		}
		id, err = tx.Create(ctx, po)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create purchase order: %w", err)
	}
	s.audit(ctx, companyID, "purchase_order.create", id, map[string]any{"doc_number": po.DocNumber, "grand_total": po.GrandTotal})
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Update(ctx context.Context, companyID, id int64, req Request) (*PurchaseOrder, error) {
	existing, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !existing.Status.CanEdit() {
		return nil, ErrCannotEdit
	}
	po, err := s.build(ctx, companyID, req)
	if err != nil {
		return nil, err
	}
	po.ID = id
	po.DocNumber = existing.DocNumber

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := tx.Update(ctx, po); err != nil {
			return err
		}
		return tx.ReplaceLines(ctx, id, po.Lines)
	})
	if err != nil {
		return nil, fmt.Errorf("update purchase order: %w", err)
	}
	s.audit(ctx, companyID, "purchase_order.update", id, map[string]any{"grand_total": po.GrandTotal})
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	existing, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return err
	}
	if !existing.Status.CanEdit() {
		return ErrCannotEdit
	}
	if err := s.repo.Delete(ctx, companyID, id); err != nil {
		return fmt.Errorf("delete purchase order: %w", err)
	}
	s.audit(ctx, companyID, "purchase_order.delete", id, map[string]any{"doc_number": existing.DocNumber})
	return nil
}

// Approve marks a DRAFT order as approved.
func (s *Service) Approve(ctx context.Context, companyID, id int64) (*PurchaseOrder, error) {
	return s.transition(ctx, companyID, id, Status.CanApprove, ErrCannotApprove, []Status{StatusDraft}, StatusApproved, nil)
}

// Close completes an approved order.
func (s *Service) Close(ctx context.Context, companyID, id int64) (*PurchaseOrder, error) {
	return s.transition(ctx, companyID, id, Status.CanClose, ErrCannotClose, []Status{StatusApproved}, StatusClosed, nil)
}

func (s *Service) Cancel(ctx context.Context, companyID, id int64, req CancelRequest) (*PurchaseOrder, error) {
	reason, err := documents.CleanReason(req.Reason)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, companyID, id, Status.CanCancel, ErrCannotCancel, []Status{StatusDraft, StatusApproved}, StatusCancelled, &reason)
}

func (s *Service) transition(ctx context.Context, companyID, id int64, allowed func(Status) bool, denied error, from []Status, to Status, reason *string) (*PurchaseOrder, error) {
	po, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !allowed(po.Status) {
		return nil, fmt.Errorf("%s: %w", po.Status, denied)
	}
	if err := s.repo.Transition(ctx, companyID, id, from, to, reason); err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, err
		}
		return nil, fmt.Errorf("purchase order %s: %w", to, err)
	}
	refID := uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("PO:%d", id)))
	meta := map[string]any{"from": po.Status, "to": to, "ref_id": refID.String()}
	if reason != nil {
		meta["reason"] = *reason
	}
	s.audit(ctx, companyID, "purchase_order.status", id, meta)
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) audit(ctx context.Context, companyID int64, action string, id int64, meta map[string]any) {
	_ = s.auditor.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		Action:    action,
		Entity:    "purchase_order",
		EntityID:  strconv.FormatInt(id, 10),
		Meta:      meta,
	})
}
