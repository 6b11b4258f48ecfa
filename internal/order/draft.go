package order

import (
	"github.com/shopspring/decimal"
)

// Quantity bounds for a draft row. Values outside are clamped, not rejected.
const (
	MinQuantity = 1
	MaxQuantity = 999
)

// Catalog is the product lookup a draft needs. Satisfied by
// *catalog.Service.
type Catalog interface {
	Empty() bool
	PriceOf(productID int64) (decimal.Decimal, bool)
}

// Row is one line of the draft: a product selection and a quantity.
// ProductID zero means nothing is selected yet.
type Row struct {
	ProductID int64
	Quantity  int64
}

// DraftItem is a collected, submission-ready line. UnitPrice is resolved
// from the catalog cache at collection time and is not persisted; it only
// feeds the success-message total.
type DraftItem struct {
	ProductID int64
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Draft accumulates line items before submission. It is the explicit
// session state of the new-order form: one draft per view, owned and
// mutated by a single flow at a time.
type Draft struct {
	catalog Catalog
	rows    []Row
}

// NewDraft creates an empty draft bound to the catalog cache.
// Call AddRow (or Reset) to get the initial row.
func NewDraft(c Catalog) *Draft {
	return &Draft{catalog: c}
}

// AddRow appends an empty row and returns its index. Fails when the
// catalog has no products: there is nothing the row could select.
func (d *Draft) AddRow() (int, error) {
	if d.catalog.Empty() {
		return 0, ErrNoProductsAvailable
	}
	d.rows = append(d.rows, Row{Quantity: MinQuantity})
	return len(d.rows) - 1, nil
}

// RemoveRow deletes a row. Removing the last remaining row is rejected
// as a no-op: a draft never holds zero items.
func (d *Draft) RemoveRow(i int) error {
	if i < 0 || i >= len(d.rows) {
		return ErrRowOutOfRange
	}
	if len(d.rows) <= 1 {
		return ErrMinimumItems
	}
	d.rows = append(d.rows[:i], d.rows[i+1:]...)
	return nil
}

// SelectProduct binds a row to a product.
func (d *Draft) SelectProduct(i int, productID int64) error {
	if i < 0 || i >= len(d.rows) {
		return ErrRowOutOfRange
	}
	d.rows[i].ProductID = productID
	return nil
}

// SetQuantity stores a clamped quantity. Values above MaxQuantity are
// truncated and reported via the clamped flag so the caller can warn;
// values below MinQuantity silently default to MinQuantity.
func (d *Draft) SetQuantity(i int, q int64) (clamped bool, err error) {
	if i < 0 || i >= len(d.rows) {
		return false, ErrRowOutOfRange
	}
	switch {
	case q > MaxQuantity:
		d.rows[i].Quantity = MaxQuantity
		return true, nil
	case q < MinQuantity:
		d.rows[i].Quantity = MinQuantity
	default:
		d.rows[i].Quantity = q
	}
	return false, nil
}

// Len returns the current row count.
func (d *Draft) Len() int { return len(d.rows) }

// Rows returns a copy of the draft rows.
func (d *Draft) Rows() []Row {
	out := make([]Row, len(d.rows))
	copy(out, d.rows)
	return out
}

// CollectItems turns the rows into submission-ready items, one per row.
// Fails when any row has no product selected. Quantities are already
// clamped by SetQuantity; a never-touched quantity defaults to 1. A price
// missing from the cache resolves to zero rather than failing: the backend
// joins live prices at read time, so the draft price is display-only.
func (d *Draft) CollectItems() ([]DraftItem, error) {
	items := make([]DraftItem, 0, len(d.rows))
	for _, row := range d.rows {
		if row.ProductID == 0 {
			return nil, ErrIncompleteSelection
		}
		q := row.Quantity
		if q < MinQuantity {
			q = MinQuantity
		}
		price, ok := d.catalog.PriceOf(row.ProductID)
		if !ok {
			price = decimal.Zero
		}
		items = append(items, DraftItem{
			ProductID: row.ProductID,
			Quantity:  q,
			UnitPrice: price,
		})
	}
	return items, nil
}

// Reset clears the draft back to a single empty row, the state the form
// returns to after a successful submission.
func (d *Draft) Reset() error {
	d.rows = nil
	_, err := d.AddRow()
	return err
}
