package challans

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bizdesk/bizdesk/internal/documents"
	"github.com/bizdesk/bizdesk/internal/shared"
)

const idempotencyModule = "delivery_challans"

// Service implements the delivery challan use cases.
type Service struct {
	repo        Repository
	calc        documents.Calculator
	numbers     documents.NumberAllocator
	idempotency shared.IdempotencyGuard
	auditor     shared.Auditor
	now         func() time.Time
}

// NewService wires a Service. idempotency and auditor may be nil.
func NewService(repo Repository, calc documents.Calculator, numbers documents.NumberAllocator, idempotency shared.IdempotencyGuard, auditor shared.Auditor) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Service{
		repo:        repo,
		calc:        calc,
		numbers:     numbers,
		idempotency: idempotency,
		auditor:     auditor,
		now:         time.Now,
	}
}

func (s *Service) List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) (shared.Page[Challan], error) {
	items, total, err := s.repo.List(ctx, companyID, page, filters)
	if err != nil {
		return shared.Page[Challan]{}, fmt.Errorf("list challans: %w", err)
	}
	return shared.NewPage(items, page, total), nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*Challan, error) {
	return s.repo.Get(ctx, companyID, id)
}

// interState resolves the place of supply and whether supply crosses states.
func (s *Service) interState(ctx context.Context, companyID, customerID int64, placeOfSupply string) (string, bool, error) {
	companyState, customerState, err := s.repo.States(ctx, companyID, customerID)
	if err != nil {
		return "", false, err
	}
	if placeOfSupply == "" {
		placeOfSupply = customerState
	}
	if err := documents.ValidateStateCode(placeOfSupply); err != nil {
		return "", false, fmt.Errorf("place_of_supply: %w", err)
	}
	return placeOfSupply, documents.IsInterState(companyState, placeOfSupply), nil
}

func (s *Service) build(ctx context.Context, companyID int64, req Request) (Challan, error) {
	date, err := time.Parse(time.DateOnly, req.ChallanDate)
	if err != nil {
		return Challan{}, ErrInvalidDate
	}
	pos, inter, err := s.interState(ctx, companyID, req.CustomerID, req.PlaceOfSupply)
	if err != nil {
		return Challan{}, err
	}
	built, err := documents.Build(s.calc, req.Lines, req.Charges, inter)
	if err != nil {
		return Challan{}, err
	}
	return Challan{
		CompanyID:     companyID,
		CustomerID:    req.CustomerID,
		ChallanDate:   date,
		ChallanType:   req.ChallanType,
		TransportMode: req.TransportMode,
		VehicleNumber: req.VehicleNumber,
		PlaceOfSupply: pos,
		Notes:         req.Notes,
		Status:        StatusDraft,
		Lines:         built.Lines,
		Summary:       built.Summary,
	}, nil
}

// Create saves a new DRAFT challan. A non-empty idempotency key that was seen
// before yields shared.ErrIdempotencyConflict.
func (s *Service) Create(ctx context.Context, companyID int64, idempotencyKey string, req Request) (*Challan, error) {
	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, companyID, idempotencyKey, idempotencyModule); err != nil {
			return nil, err
		}
	}

	c, err := s.create(ctx, companyID, req)
	if err != nil {
		if idempotencyKey != "" && s.idempotency != nil {
			// Release the key so the client can retry a failed request.
			_ = s.idempotency.Delete(context.WithoutCancel(ctx), companyID, idempotencyKey)
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) create(ctx context.Context, companyID int64, req Request) (*Challan, error) {
	c, err := s.build(ctx, companyID, req)
	if err != nil {
		return nil, err
	}
	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		var err error
		if c.DocNumber, err = s.numbers.Next(ctx, companyID, documents.SeriesChallan, c.ChallanDate); err != nil {
			return fmt.Errorf("allocate challan number: %w", err)
		}
		id, err = tx.Create(ctx, c)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create challan: %w", err)
	}
	s.audit(ctx, companyID, "challan.create", id, map[string]any{"doc_number": c.DocNumber, "grand_total": c.GrandTotal})
	return s.repo.Get(ctx, companyID, id)
}

// Update replaces header and lines of a DRAFT challan.
func (s *Service) Update(ctx context.Context, companyID, id int64, req Request) (*Challan, error) {
	existing, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !existing.Status.CanEdit() {
		return nil, ErrCannotEdit
	}
	c, err := s.build(ctx, companyID, req)
	if err != nil {
		return nil, err
	}
	c.ID = id
	c.DocNumber = existing.DocNumber

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := tx.Update(ctx, c); err != nil {
			return err
		}
		return tx.ReplaceLines(ctx, id, c.Lines)
	})
	if err != nil {
		return nil, fmt.Errorf("update challan: %w", err)
	}
	s.audit(ctx, companyID, "challan.update", id, map[string]any{"grand_total": c.GrandTotal})
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
		return fmt.Errorf("delete challan: %w", err)
	}
	s.audit(ctx, companyID, "challan.delete", id, map[string]any{"doc_number": existing.DocNumber})
	return nil
}

func (s *Service) Issue(ctx context.Context, companyID, id int64) (*Challan, error) {
	return s.transition(ctx, companyID, id, Status.CanIssue, ErrCannotIssue, []Status{StatusDraft}, StatusIssued, nil)
}

func (s *Service) MarkDelivered(ctx context.Context, companyID, id int64) (*Challan, error) {
	return s.transition(ctx, companyID, id, Status.CanDeliver, ErrCannotDeliver, []Status{StatusIssued}, StatusDelivered, nil)
}

func (s *Service) Cancel(ctx context.Context, companyID, id int64, req CancelRequest) (*Challan, error) {
	reason, err := documents.CleanReason(req.Reason)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, companyID, id, Status.CanCancel, ErrCannotCancel, []Status{StatusDraft, StatusIssued}, StatusCancelled, &reason)
}

func (s *Service) transition(ctx context.Context, companyID, id int64, allowed func(Status) bool, denied error, from []Status, to Status, reason *string) (*Challan, error) {
	existing, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !allowed(existing.Status) {
		return nil, fmt.Errorf("%s: %w", existing.Status, denied)
	}
	if err := s.repo.Transition(ctx, companyID, id, from, to, reason); err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, err
		}
		return nil, fmt.Errorf("challan %s: %w", to, err)
	}
	meta := map[string]any{"from": existing.Status, "to": to}
	if reason != nil {
		meta["reason"] = *reason
	}
	s.audit(ctx, companyID, "challan.status", id, meta)
	return s.repo.Get(ctx, companyID, id)
}

// PreviewTotals computes lines and totals for a draft without saving it.
func (s *Service) PreviewTotals(ctx context.Context, companyID int64, req PreviewRequest) (*Preview, error) {
	inter := false
	if req.CustomerID > 0 {
		var err error
		if _, inter, err = s.interState(ctx, companyID, req.CustomerID, req.PlaceOfSupply); err != nil {
			return nil, err
		}
	}
	built, err := documents.Build(s.calc, req.Lines, req.Charges, inter)
	if err != nil {
		return nil, err
	}
	return &Preview{Lines: built.Lines, Summary: built.Summary}, nil
}

func (s *Service) audit(ctx context.Context, companyID int64, action string, id int64, meta map[string]any) {
	_ = s.auditor.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		Action:    action,
		Entity:    "delivery_challan",
		EntityID:  strconv.FormatInt(id, 10),
		Meta:      meta,
		At:        s.now(),
	})
}
