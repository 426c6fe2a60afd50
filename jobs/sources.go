package jobs

import (
	"context"

	"github.com/bizdesk/bizdesk/internal/delivery/challans"
	"github.com/bizdesk/bizdesk/internal/documents"
	"github.com/bizdesk/bizdesk/internal/procurement/orders"
)

// ChallanReader is the part of the challan repository the job reads.
type ChallanReader interface {
	ListForReconcile(ctx context.Context, companyID int64, after int64, limit int) ([]challans.Challan, error)
}

// OrderReader is the part of the purchase order repository the job reads.
type OrderReader interface {
	ListForReconcile(ctx context.Context, companyID int64, after int64, limit int) ([]orders.PurchaseOrder, error)
}

type challanSource struct{ repo ChallanReader }

// NewChallanSource adapts delivery challans for reconciliation.
func NewChallanSource(repo ChallanReader) DocumentSource { return challanSource{repo: repo} }

func (challanSource) Series() string { return documents.SeriesChallan }

func (s challanSource) Page(ctx context.Context, companyID, after int64, limit int) ([]ReconcileDocument, error) {
	items, err := s.repo.ListForReconcile(ctx, companyID, after, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ReconcileDocument, len(items))
	for i, c := range items {
		out[i] = ReconcileDocument{ID: c.ID, DocNumber: c.DocNumber, Lines: c.Lines, Summary: c.Summary}
	}
	return out, nil
}

type orderSource struct{ repo OrderReader }

// NewOrderSource adapts purchase orders for reconciliation.
func NewOrderSource(repo OrderReader) DocumentSource { return orderSource{repo: repo} }

func (orderSource) Series() string { return documents.SeriesPurchaseOrder }

func (s orderSource) Page(ctx context.Context, companyID, after int64, limit int) ([]ReconcileDocument, error) {
	items, err := s.repo.ListForReconcile(ctx, companyID, after, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ReconcileDocument, len(items))
	for i, o := range items {
		out[i] = ReconcileDocument{ID: o.ID, DocNumber: o.DocNumber, Lines: o.Lines, Summary: o.Summary}
	}
	return out, nil
}
