package returns

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/bizdesk/bizdesk/internal/documents"
	"github.com/bizdesk/bizdesk/internal/procurement/orders"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// Service implements purchase return use cases.
type Service struct {
	repo    Repository
	calc    documents.Calculator
	numbers documents.NumberAllocator
	auditor shared.Auditor
}

func NewService(repo Repository, calc documents.Calculator, numbers documents.NumberAllocator, auditor shared.Auditor) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Service{repo: repo, calc: calc, numbers: numbers, auditor: auditor}
}

func (s *Service) List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) (shared.Page[PurchaseReturn], error) {
	items, total, err := s.repo.List(ctx, companyID, page, filters)
	if err != nil {
		return shared.Page[PurchaseReturn]{}, fmt.Errorf("list purchase returns: %w", err)
	}
	return shared.NewPage(items, page, total), nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*PurchaseReturn, error) {
	return s.repo.Get(ctx, companyID, id)
}

// Create validates and stores a return. When a purchase order is referenced
// the order row stays locked while quantities are checked and the return is
// written, so concurrent returns cannot jointly exceed the order.
func (s *Service) Create(ctx context.Context, companyID int64, req Request) (*PurchaseReturn, error) {
	returnDate, err := time.Parse(time.DateOnly, req.ReturnDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	reason, err := documents.CleanReason(req.Reason)
	if err != nil {
		return nil, err
	}
	companyState, vendorState, err := s.repo.States(ctx, companyID, req.VendorID)
	if err != nil {
		return nil, err
	}
	built, err := documents.Build(s.calc, req.Lines, req.Charges, documents.IsInterState(companyState, vendorState))
	if err != nil {
		return nil, err
	}

	pr := PurchaseReturn{
		CompanyID:       companyID,
		VendorID:        req.VendorID,
		PurchaseOrderID: req.PurchaseOrderID,
		ReturnDate:      returnDate,
		Reason:          reason,
		Notes:           req.Notes,
		Lines:           built.Lines,
		Summary:         built.Summary,
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if pr.PurchaseOrderID != nil {
			if err := checkAgainstOrder(ctx, tx, companyID, pr); err != nil {
				return err
			}
		}
		var err error
		if pr.DocNumber, err = s.numbers.Next(ctx, companyID, documents.SeriesPurchaseReturn, returnDate); err != nil {
			return fmt.Errorf("allocate purchase return number: %w", err)
		}
		id, err = tx.Create(ctx, pr)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create purchase return: %w", err)
	}
	meta := map[string]any{"doc_number": pr.DocNumber, "grand_total": pr.GrandTotal}
	if pr.PurchaseOrderID != nil {
		meta["purchase_order_id"] = *pr.PurchaseOrderID
	}
	s.audit(ctx, companyID, "purchase_return.create", id, meta)
	return s.repo.Get(ctx, companyID, id)
}

func checkAgainstOrder(ctx context.Context, tx Repository, companyID int64, pr PurchaseReturn) error {
	src, err := tx.LockSourceOrder(ctx, companyID, *pr.PurchaseOrderID)
	if err != nil {
		return err
	}
	if src.VendorID != pr.VendorID {
		return ErrVendorMismatch
	}
	if src.Status != string(orders.StatusApproved) && src.Status != string(orders.StatusClosed) {
		return fmt.Errorf("%s: %w", src.Status, ErrOrderNotReceived)
	}
	returned, err := tx.ReturnedQuantities(ctx, companyID, *pr.PurchaseOrderID)
	if err != nil {
		return err
	}

	requested := make(map[int64]float64)
	for _, l := range pr.Lines {
		requested[l.ProductID] += l.Quantity
	}
	products := make([]int64, 0, len(requested))
	for p := range requested {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i] < products[j] })

	for _, p := range products {
		ordered, ok := src.Ordered[p]
		if !ok {
			return fmt.Errorf("product %d: %w", p, ErrProductNotOrdered)
		}
		if returned[p]+requested[p] > ordered+1e-9 {
			return fmt.Errorf("product %d: ordered %g, already returned %g, requested %g: %w",
				p, ordered, returned[p], requested[p], ErrExceedsOrdered)
		}
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	existing, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, companyID, id); err != nil {
		return fmt.Errorf("delete purchase return: %w", err)
	}
	s.audit(ctx, companyID, "purchase_return.delete", id, map[string]any{"doc_number": existing.DocNumber})
	return nil
}

func (s *Service) audit(ctx context.Context, companyID int64, action string, id int64, meta map[string]any) {
	_ = s.auditor.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		Action:    action,
		Entity:    "purchase_return",
		EntityID:  strconv.FormatInt(id, 10),
		Meta:      meta,
	})
}
