package reconcile

import (
	"strings"

	"github.com/gudang-app/gudang/internal/masterdata/products"
	"github.com/gudang-app/gudang/internal/masterdata/units"
)

// NameStrategy selects how an item name is compared against catalog names.
type NameStrategy int

const (
	// ExactName is case-insensitive equality, tried only for items without a code.
	// Used for tabular imports.
	ExactName NameStrategy = iota
	// LenientName also accepts either name containing the other and is tried even
	// after a code miss. Used for extracted items, whose names are noisier.
	LenientName
)

// searchesNameAfter reports whether a name lookup follows a lookup by code.
func (s NameStrategy) searchesNameAfter(code string) bool {
	return code == "" || s == LenientName
}

// Catalog is the read-only reference data an import is matched against.
type Catalog struct {
	Products []products.Product
	Units    []units.Unit
}

// Match is the finalized row fragment for one item.
type Match struct {
	Code    string
	Name    string
	UnitID  string
	Product *products.Product
}

// Matched reports whether a catalog product was found.
func (m Match) Matched() bool { return m.Product != nil }

// Matcher resolves items against a catalog snapshot.
type Matcher struct {
	catalog  Catalog
	strategy NameStrategy
	byCode   map[string]int
	names    []string
}

// NewMatcher indexes the catalog. For duplicate codes the first product in catalog order wins.
func NewMatcher(cat Catalog, strategy NameStrategy) *Matcher {
	m := &Matcher{
		catalog:  cat,
		strategy: strategy,
		byCode:   make(map[string]int, len(cat.Products)),
		names:    make([]string, len(cat.Products)),
	}
	for i, p := range cat.Products {
		if p.Code != "" {
			if _, ok := m.byCode[p.Code]; !ok {
				m.byCode[p.Code] = i
			}
		}
		m.names[i] = fold(strings.TrimSpace(p.Name))
	}
	return m
}

// FindByCode returns the product with exactly this code.
func (m *Matcher) FindByCode(code string) (*products.Product, bool) {
	if code == "" {
		return nil, false
	}
	i, ok := m.byCode[code]
	if !ok {
		return nil, false
	}
	return &m.catalog.Products[i], true
}

// FindByName returns the first product whose name satisfies the matcher's strategy.
func (m *Matcher) FindByName(name string) (*products.Product, bool) {
	needle := fold(strings.TrimSpace(name))
	if needle == "" {
		return nil, false
	}
	for i, candidate := range m.names {
		if candidate == "" {
			continue
		}
		if candidate == needle {
			return &m.catalog.Products[i], true
		}
		if m.strategy == LenientName && (strings.Contains(candidate, needle) || strings.Contains(needle, candidate)) {
			return &m.catalog.Products[i], true
		}
	}
	return nil, false
}

// ResolveUnit finds a unit whose name contains label or is contained by it.
// The comparison is case-sensitive.
func (m *Matcher) ResolveUnit(label string) string {
	if label == "" {
		return ""
	}
	for _, u := range m.catalog.Units {
		if u.Name == "" {
			continue
		}
		if strings.Contains(u.Name, label) || strings.Contains(label, u.Name) {
			return u.ID
		}
	}
	return ""
}

// Match resolves one coerced item. Catalog data wins over scanned data on a hit.
// Names equal to fallback are treated as absent for name matching. With ExactName an
// unknown code is kept as scanned rather than replaced through a name hit.
func (m *Matcher) Match(code, name, unitLabel, fallback string) Match {
	if p, ok := m.FindByCode(code); ok {
		return Match{Code: code, Name: p.Name, UnitID: p.UnitID, Product: p}
	}
	if name != "" && name != fallback && m.strategy.searchesNameAfter(code) {
		if p, ok := m.FindByName(name); ok {
			return Match{Code: p.Code, Name: p.Name, UnitID: p.UnitID, Product: p}
		}
	}
	return Match{Code: code, Name: name, UnitID: m.ResolveUnit(unitLabel)}
}
