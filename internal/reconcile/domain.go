package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gudang-app/gudang/internal/masterdata/products"
)

// Source identifies which ingestion path produced an import.
type Source string

const (
	// SourceTabular covers spreadsheet and CSV uploads.
	SourceTabular Source = "tabular"
	// SourceAI covers records returned by the document-extraction service.
	SourceAI Source = "ai"
)

// Fallback labels for records without a usable name. The two paths differ on purpose.
const (
	TabularNameFallback = "Unknown item"
	AINameFallback      = "UNKNOWN"
)

// Field is one header/value cell of an ImportRecord.
type Field struct {
	Header string
	Value  any
}

// ImportRecord is a flat record whose fields keep the original header order.
type ImportRecord struct {
	Fields []Field
}

// NewImportRecord builds a record from header/value pairs in order.
func NewImportRecord(fields ...Field) ImportRecord {
	return ImportRecord{Fields: fields}
}

// Get returns the value stored under the exact header.
func (r ImportRecord) Get(header string) (any, bool) {
	for _, f := range r.Fields {
		if f.Header == header {
			return f.Value, true
		}
	}
	return nil, false
}

// ExtractedItem is one loosely typed item returned by the extraction service.
type ExtractedItem struct {
	Code       any `json:"code"`
	Name       any `json:"name"`
	Qty        any `json:"qty"`
	Unit       any `json:"unit"`
	ExpiryDate any `json:"expiryDate"`
	Price      any `json:"price"`
}

// Quantity is a row quantity that distinguishes "unset" from zero.
// It encodes to "" when unset and to a JSON number otherwise.
type Quantity struct {
	Value float64
	Valid bool
}

// Qty returns a set quantity. NaN and infinities are not quantities and stay unset.
func Qty(v float64) Quantity {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Quantity{}
	}
	return Quantity{Value: v, Valid: true}
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Valid {
		return []byte(`""`), nil
	}
	return json.Marshal(q.Value)
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = Quantity{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = CoerceQty(s)
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("reconcile: invalid qty %s", data)
	}
	*q = Qty(v)
	return nil
}

// ListRow is one editable line of an inventory/receipt grid.
type ListRow struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	UnitID      string   `json:"unitId"`
	Qty         Quantity `json:"qty"`
	ExpiryDate  string   `json:"expiryDate"`
	Note        string   `json:"note"`
	IsDismissed bool     `json:"isDismissed"`
}

// IsBlank reports whether the row has no name and therefore counts as a placeholder.
func (r ListRow) IsBlank() bool {
	return strings.TrimSpace(r.Name) == ""
}

// Candidate is a product discovered by an AI import that is not yet in the catalog.
type Candidate struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	UnitID string `json:"unitId"`
	Price  string `json:"price"`
	Color  string `json:"color"`
}

// Product converts the candidate into the catalog entity, keeping its id.
func (c Candidate) Product() products.Product {
	return products.Product{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		UnitID:    c.UnitID,
		Price:     c.Price,
		CostPrice: "0",
		Color:     c.Color,
	}
}

// PendingImport is an AI import suspended until the operator decides on its candidates.
type PendingImport struct {
	ID         string      `json:"id"`
	Source     Source      `json:"source"`
	State      ImportState `json:"state"`
	Rows       []ListRow   `json:"rows"`
	Candidates []Candidate `json:"candidates"`
	Selected   Selection   `json:"selected"`
	CreatedAt  time.Time   `json:"createdAt"`
}
