package parties

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bizdesk/bizdesk/internal/documents"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// Service implements party use cases for one kind.
type Service struct {
	repo    Repository
	kind    Kind
	auditor shared.Auditor
}

// NewService constructs a Service. A nil auditor discards records.
func NewService(repo Repository, kind Kind, auditor shared.Auditor) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Service{repo: repo, kind: kind, auditor: auditor}
}

// Kind reports which party table the service writes to.
func (s *Service) Kind() Kind { return s.kind }

// resolveState checks gstin and state together and fills the state from the
// gstin prefix when it is missing.
func resolveState(gstin *string, state string) (string, error) {
	var g string
	if gstin != nil {
		g = strings.ToUpper(strings.TrimSpace(*gstin))
	}
	if err := documents.ValidateGSTIN(g); err != nil {
		return "", err
	}
	if err := documents.ValidateStateCode(state); err != nil {
		return "", err
	}
	prefix := documents.StateFromGSTIN(g)
	if state == "" {
		return prefix, nil
	}
	if prefix != "" && prefix != state {
		return "", ErrStateMismatch
	}
	return state, nil
}

func normalizeGSTIN(gstin *string) *string {
	if gstin == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*gstin))
	if v == "" {
		return nil
	}
	return &v
}

func (s *Service) List(ctx context.Context, companyID int64, page shared.PageRequest) (shared.Page[Party], error) {
	items, total, err := s.repo.List(ctx, companyID, page)
	if err != nil {
		return shared.Page[Party]{}, fmt.Errorf("list %ss: %w", s.kind, err)
	}
	return shared.NewPage(items, page, total), nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*Party, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Create(ctx context.Context, companyID int64, req CreateRequest) (*Party, error) {
	state, err := resolveState(req.GSTIN, req.StateCode)
	if err != nil {
		return nil, err
	}
	p := Party{
		CompanyID:        companyID,
		Code:             strings.TrimSpace(req.Code),
		Name:             strings.TrimSpace(req.Name),
		GSTIN:            normalizeGSTIN(req.GSTIN),
		Email:            req.Email,
		Phone:            req.Phone,
		BillingAddress:   req.BillingAddress,
		ShippingAddress:  req.ShippingAddress,
		City:             req.City,
		StateCode:        state,
		PostalCode:       req.PostalCode,
		OpeningBalance:   req.OpeningBalance,
		CreditLimit:      req.CreditLimit,
		PaymentTermsDays: req.PaymentTermsDays,
		IsActive:         true,
		Notes:            req.Notes,
	}
	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", s.kind, err)
	}
	p.ID = id
	s.audit(ctx, companyID, "create", id)
	return &p, nil
}

func (s *Service) Update(ctx context.Context, companyID, id int64, req UpdateRequest) (*Party, error) {
	existing, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.GSTIN != nil || req.StateCode != nil {
		gstin := existing.GSTIN
		if req.GSTIN != nil {
			gstin = req.GSTIN
		}
		state := existing.StateCode
		if req.StateCode != nil {
			state = *req.StateCode
		} else if req.GSTIN != nil {
			// A new gstin re-derives the state unless one is given.
			state = ""
		}
		resolved, err := resolveState(gstin, state)
		if err != nil {
			return nil, err
		}
		updates["gstin"] = normalizeGSTIN(gstin)
		updates["state_code"] = resolved
	}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.BillingAddress != nil {
		updates["billing_address"] = *req.BillingAddress
	}
	if req.ShippingAddress != nil {
		updates["shipping_address"] = *req.ShippingAddress
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.PostalCode != nil {
		updates["postal_code"] = *req.PostalCode
	}
	if req.OpeningBalance != nil {
		updates["opening_balance"] = *req.OpeningBalance
	}
	if req.CreditLimit != nil {
		updates["credit_limit"] = *req.CreditLimit
	}
	if req.PaymentTermsDays != nil {
		updates["payment_terms_days"] = *req.PaymentTermsDays
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) == 0 {
		return existing, nil
	}
	if err := s.repo.Update(ctx, companyID, id, updates); err != nil {
		return nil, fmt.Errorf("update %s: %w", s.kind, err)
	}
	s.audit(ctx, companyID, "update", id)
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	if err := s.repo.Delete(ctx, companyID, id); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInUse) {
			return err
		}
		return fmt.Errorf("delete %s: %w", s.kind, err)
	}
	s.audit(ctx, companyID, "delete", id)
	return nil
}

func (s *Service) audit(ctx context.Context, companyID int64, action string, id int64) {
	_ = s.auditor.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		Action:    string(s.kind) + "." + action,
		Entity:    string(s.kind),
		EntityID:  strconv.FormatInt(id, 10),
	})
}
