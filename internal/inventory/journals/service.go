package journals

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/bizdesk/bizdesk/internal/documents"
	"github.com/bizdesk/bizdesk/internal/inventory"
	"github.com/bizdesk/bizdesk/internal/shared"
	"github.com/bizdesk/bizdesk/internal/totals"
)

const (
	refPosting      = "stock_journal"
	refCancellation = "stock_journal_cancel"
)

// StockPoster moves the inventory ledger. *inventory.Ledger implements it.
type StockPoster interface {
	Post(ctx context.Context, store inventory.Store, ref inventory.Ref, movements []inventory.Movement) ([]inventory.StockCardEntry, error)
	Reverse(ctx context.Context, store inventory.Store, ref, reversal inventory.Ref) ([]inventory.StockCardEntry, error)
}

type Service struct {
	repo    Repository
	calc    documents.Calculator
	numbers documents.NumberAllocator
	ledger  StockPoster
	auditor shared.Auditor
}

func NewService(repo Repository, calc documents.Calculator, numbers documents.NumberAllocator, ledger StockPoster, auditor shared.Auditor) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Service{repo: repo, calc: calc, numbers: numbers, ledger: ledger, auditor: auditor}
}

func (s *Service) List(ctx context.Context, companyID int64, page shared.PageRequest, filters ListFilters) (shared.Page[Journal], error) {
	items, total, err := s.repo.List(ctx, companyID, page, filters)
	if err != nil {
		return shared.Page[Journal]{}, fmt.Errorf("list stock journals: %w", err)
	}
	return shared.NewPage(items, page, total), nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*Journal, error) {
	return s.repo.Get(ctx, companyID, id)
}

// validateShape checks the rules that depend only on the request.
func validateShape(req Request) error {
	hasConsumption, hasProduction := len(req.Consumption) > 0, len(req.Production) > 0
	switch {
	case req.JournalType.needsBothSets() && (!hasConsumption || !hasProduction):
		return fmt.Errorf("%s: %w", req.JournalType, ErrBothSetsRequired)
	case !hasConsumption && !hasProduction:
		return ErrNoLines
	}
	for _, set := range [][]documents.LineInput{req.Consumption, req.Production} {
		for _, l := range set {
			if l.Quantity <= 0 {
				return fmt.Errorf("product %d: %w", l.ProductID, ErrQuantityRequired)
			}
		}
	}
	if hasConsumption && req.SourceWarehouseID == nil {
		return ErrSourceRequired
	}
	if hasProduction && req.DestinationWarehouseID == nil {
		return ErrDestinationRequired
	}
	if req.AdditionalCost > 0 && !hasProduction {
		return ErrCostWithoutProduction
	}
	if req.JournalType == TypeTransfer {
		if *req.SourceWarehouseID == *req.DestinationWarehouseID {
			return ErrSameWarehouse
		}
		if err := sameQuantities(req.Consumption, req.Production); err != nil {
			return err
		}
	}
	return nil
}

func quantities(lines []documents.LineInput) map[int64]float64 {
	out := make(map[int64]float64, len(lines))
	for _, l := range lines {
		out[l.ProductID] += l.Quantity
	}
	return out
}

func sameQuantities(consumed, produced []documents.LineInput) error {
	in, out := quantities(consumed), quantities(produced)
	products := make([]int64, 0, len(in)+len(out))
	for p := range in {
		products = append(products, p)
	}
	for p := range out {
		if _, ok := in[p]; !ok {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i] < products[j] })
	for _, p := range products {
		if math.Abs(in[p]-out[p]) > 1e-9 {
			return fmt.Errorf("product %d: consumed %g, produced %g: %w", p, in[p], out[p], ErrTransferMismatch)
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, companyID int64, req Request) (*Journal, error) {
	date, err := time.Parse(time.DateOnly, req.JournalDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if err := validateShape(req); err != nil {
		return nil, err
	}
	if err := s.checkWarehouses(ctx, companyID, req.SourceWarehouseID, req.DestinationWarehouseID); err != nil {
		return nil, err
	}

	j := Journal{
		CompanyID:              companyID,
		JournalType:            req.JournalType,
		JournalDate:            date,
		SourceWarehouseID:      req.SourceWarehouseID,
		DestinationWarehouseID: req.DestinationWarehouseID,
		Narration:              req.Narration,
		Status:                 StatusDraft,
		AdditionalCost:         totals.Round2(req.AdditionalCost),
	}
	if len(req.Consumption) > 0 {
		built, err := documents.Build(s.calc, req.Consumption, documents.ChargesInput{}, false)
		if err != nil {
			return nil, fmt.Errorf("consumption: %w", err)
		}
		j.Consumption, j.ConsumptionValue = built.Lines, built.Summary.GrandTotal
	}
	if len(req.Production) > 0 {
		charges := documents.ChargesInput{Freight: totals.Fixed(req.AdditionalCost)}
		built, err := documents.Build(s.calc, req.Production, charges, false)
		if err != nil {
			return nil, fmt.Errorf("production: %w", err)
		}
		j.Production, j.ProductionValue = built.Lines, built.Summary.GrandTotal
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		var err error
		if j.DocNumber, err = s.numbers.Next(ctx, companyID, documents.SeriesStockJournal, date); err != nil {
			return fmt.Errorf("allocate stock journal number: %w", err)
		}
		id, err = tx.Create(ctx, j)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create stock journal: %w", err)
	}
	s.audit(ctx, companyID, "stock_journal.create", id, map[string]any{"doc_number": j.DocNumber, "journal_type": j.JournalType})
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) checkWarehouses(ctx context.Context, companyID int64, source, destination *int64) error {
	var ids []int64
	if source != nil {
		ids = append(ids, *source)
	}
	if destination != nil && (source == nil || *destination != *source) {
		ids = append(ids, *destination)
	}
	if len(ids) == 0 {
		return nil
	}
	n, err := s.repo.CountWarehouses(ctx, companyID, ids)
	if err != nil {
		return fmt.Errorf("check warehouses: %w", err)
	}
	if n != len(ids) {
		return ErrUnknownWarehouse
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	j, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return err
	}
	if !j.Status.CanDelete() {
		return ErrCannotDelete
	}
	if err := s.repo.Delete(ctx, companyID, id); err != nil {
		if errors.Is(err, ErrCannotDelete) {
			return err
		}
		return fmt.Errorf("delete stock journal: %w", err)
	}
	s.audit(ctx, companyID, "stock_journal.delete", id, map[string]any{"doc_number": j.DocNumber})
	return nil
}

// Post moves a DRAFT journal to POSTED and applies its movements to stock.
func (s *Service) Post(ctx context.Context, companyID, id int64) (*Journal, error) {
	j, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !j.Status.CanPost() {
		return nil, fmt.Errorf("%s: %w", j.Status, ErrCannotPost)
	}
	var entries []inventory.StockCardEntry
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := tx.Transition(ctx, companyID, id, []Status{StatusDraft}, StatusPosted, nil); err != nil {
			return err
		}
		var err error
		entries, err = s.ledger.Post(ctx, tx.Stock(), ref(j, refPosting), Movements(j))
		return err
	})
	if err != nil {
		if errors.Is(err, ErrStatusChanged) || errors.Is(err, inventory.ErrNegativeStock) {
			return nil, err
		}
		return nil, fmt.Errorf("post stock journal: %w", err)
	}
	s.audit(ctx, companyID, "stock_journal.post", id, map[string]any{"doc_number": j.DocNumber, "movements": len(entries)})
	return s.repo.Get(ctx, companyID, id)
}

// Cancel cancels a DRAFT or POSTED journal. A posted journal's movements are
// reversed in the same transaction.
func (s *Service) Cancel(ctx context.Context, companyID, id int64, req CancelRequest) (*Journal, error) {
	reason, err := documents.CleanReason(req.Reason)
	if err != nil {
		return nil, err
	}
	j, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !j.Status.CanCancel() {
		return nil, ErrCannotCancel
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := tx.Transition(ctx, companyID, id, []Status{j.Status}, StatusCancelled, &reason); err != nil {
			return err
		}
		if j.Status != StatusPosted {
			return nil
		}
		_, err := s.ledger.Reverse(ctx, tx.Stock(), ref(j, refPosting), ref(j, refCancellation))
		return err
	})
	if err != nil {
		if errors.Is(err, ErrStatusChanged) || errors.Is(err, inventory.ErrNegativeStock) {
			return nil, err
		}
		return nil, fmt.Errorf("cancel stock journal: %w", err)
	}
	s.audit(ctx, companyID, "stock_journal.cancel", id, map[string]any{"from": j.Status, "reason": reason})
	return s.repo.Get(ctx, companyID, id)
}

func ref(j *Journal, typ string) inventory.Ref {
	return inventory.Ref{CompanyID: j.CompanyID, Type: typ, ID: j.ID, DocNumber: j.DocNumber}
}

// Movements turns a journal into ledger movements: consumption leaves the
// source warehouse, production enters the destination warehouse. Production
// is costed at its taxable value plus a share of the additional cost
// proportional to that value, or to quantity when every line is free.
func Movements(j *Journal) []inventory.Movement {
	out := make([]inventory.Movement, 0, len(j.Consumption)+len(j.Production))
	for _, l := range j.Consumption {
		out = append(out, inventory.Movement{
			WarehouseID: *j.SourceWarehouseID,
			ProductID:   l.ProductID,
			Qty:         -l.Quantity,
			Note:        j.DocNumber + " consumption",
		})
	}

	var taxable, qty float64
	for _, l := range j.Production {
		taxable += l.TaxableAmount
		qty += l.Quantity
	}
	for _, l := range j.Production {
		share := 0.0
		switch {
		case taxable > 0:
			share = j.AdditionalCost * l.TaxableAmount / taxable
		case qty > 0:
			share = j.AdditionalCost * l.Quantity / qty
		}
		out = append(out, inventory.Movement{
			WarehouseID: *j.DestinationWarehouseID,
			ProductID:   l.ProductID,
			Qty:         l.Quantity,
			UnitCost:    (l.TaxableAmount + share) / l.Quantity,
			Note:        j.DocNumber + " production",
		})
	}
	return out
}

func (s *Service) audit(ctx context.Context, companyID int64, action string, id int64, meta map[string]any) {
	_ = s.auditor.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		Action:    action,
		Entity:    "stock_journal",
		EntityID:  strconv.FormatInt(id, 10),
		Meta:      meta,
	})
}
