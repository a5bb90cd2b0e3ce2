package units

// Unit is a unit of measure. Units are reference data and never written by imports.
type Unit struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
