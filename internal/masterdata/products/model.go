package products

// DefaultColor tags products created without an explicit display color.
const DefaultColor = "#64748b"

// Product represents a catalog product. Price and CostPrice are decimal strings.
type Product struct {
	ID        string `json:"id" db:"id" validate:"required,max=64"`
	Code      string `json:"code" db:"code" validate:"max=64"`
	Name      string `json:"name" db:"name" validate:"required,max=255"`
	UnitID    string `json:"unitId" db:"unit_id" validate:"max=64"`
	Price     string `json:"price" db:"price" validate:"required"`
	CostPrice string `json:"costPrice" db:"cost_price" validate:"required"`
	Color     string `json:"color" db:"color" validate:"max=32"`
}
