package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bizdesk/bizdesk/internal/platform/db"
)

// SummaryColumns lists the header total columns every document table carries,
// in the order used by SummaryArgs and SummaryDest.
const SummaryColumns = `subtotal, total_tax, total_cgst, total_sgst, total_igst, total_item_discount,
	freight_type, freight_value, freight, packing_type, packing_value, packing_forwarding,
	discount_type, discount_value, document_discount, round_off, grand_total, inter_state`

// SummaryColumnCount is the number of columns in SummaryColumns.
const SummaryColumnCount = 18

// SummaryArgs returns s as query arguments matching SummaryColumns.
func SummaryArgs(s Summary) []any {
	return []any{
		s.Subtotal, s.TotalTax, s.TotalCGST, s.TotalSGST, s.TotalIGST, s.TotalItemDiscount,
		string(s.FreightType), s.FreightValue, s.Freight,
		string(s.PackingType), s.PackingValue, s.PackingForwarding,
		string(s.DiscountType), s.DiscountValue, s.DocumentDiscount,
		s.RoundOff, s.GrandTotal, s.InterState,
	}
}

// SummaryDest returns scan targets matching SummaryColumns.
func SummaryDest(s *Summary) []any {
	return []any{
		&s.Subtotal, &s.TotalTax, &s.TotalCGST, &s.TotalSGST, &s.TotalIGST, &s.TotalItemDiscount,
		&s.FreightType, &s.FreightValue, &s.Freight,
		&s.PackingType, &s.PackingValue, &s.PackingForwarding,
		&s.DiscountType, &s.DiscountValue, &s.DocumentDiscount,
		&s.RoundOff, &s.GrandTotal, &s.InterState,
	}
}

// SummaryAssignments renders "col = $n" pairs for SummaryColumns starting at
// placeholder start.
func SummaryAssignments(start int) string {
	cols := []string{
		"subtotal", "total_tax", "total_cgst", "total_sgst", "total_igst", "total_item_discount",
		"freight_type", "freight_value", "freight", "packing_type", "packing_value", "packing_forwarding",
		"discount_type", "discount_value", "document_discount", "round_off", "grand_total", "inter_state",
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s = $%d", c, start+i)
	}
	return strings.Join(parts, ", ")
}

// Placeholders renders n positional parameters starting at $start.
func Placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

// LineTable names a line table and the column referencing its header.
type LineTable struct {
	Table  string
	Parent string
}

const lineColumns = `line_no, product_id, description, hsn_code, uom, quantity, unit_price,
	discount_percent, gst_rate, taxable_amount, discount_amount, tax_amount, cgst, sgst, igst,
	total_amount`

// InsertLines writes lines for parentID in a single batch.
func (t LineTable) InsertLines(ctx context.Context, q db.DBTX, parentID int64, lines []Line) error {
	if len(lines) == 0 {
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		t.Table, t.Parent, lineColumns)
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(query, parentID, l.LineNo, l.ProductID, l.Description, l.HSNCode, l.UOM,
			l.Quantity, l.UnitPrice, l.DiscountPercent, l.GSTRate,
			l.TaxableAmount, l.DiscountAmount, l.TaxAmount, l.CGST, l.SGST, l.IGST, l.TotalAmount)
	}
	br := q.SendBatch(ctx, batch)
	defer br.Close()
	for i := range lines {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert %s line %d: %w", t.Table, i+1, err)
		}
	}
	return nil
}

// DeleteLines removes all lines of parentID.
func (t LineTable) DeleteLines(ctx context.Context, q db.DBTX, parentID int64) error {
	_, err := q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.Table, t.Parent), parentID)
	return err
}

// LoadLines reads the lines of parentID ordered by line number.
func (t LineTable) LoadLines(ctx context.Context, q db.DBTX, parentID int64) ([]Line, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT id, %s FROM %s WHERE %s = $1 ORDER BY line_no`,
		lineColumns, t.Table, t.Parent), parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.LineNo, &l.ProductID, &l.Description, &l.HSNCode, &l.UOM,
			&l.Quantity, &l.UnitPrice, &l.DiscountPercent, &l.GSTRate,
			&l.TaxableAmount, &l.DiscountAmount, &l.TaxAmount, &l.CGST, &l.SGST, &l.IGST, &l.TotalAmount); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
