package reconcile

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/gudang-app/gudang/internal/masterdata/products"
)

// CodeGenerator synthesizes a code for a candidate that arrived without one.
type CodeGenerator func() string

// PlaceholderCode returns AUTO-<0..9999>. Collisions are tolerated.
func PlaceholderCode() string {
	return fmt.Sprintf("AUTO-%d", rand.Intn(10000))
}

// Deduplicator collects unmatched extracted items into one candidate per distinct name.
type Deduplicator struct {
	newID   func() string
	newCode CodeGenerator
	seen    map[string]struct{}
	out     []Candidate
}

func NewDeduplicator(newID func() string, newCode CodeGenerator) *Deduplicator {
	if newCode == nil {
		newCode = PlaceholderCode
	}
	return &Deduplicator{newID: newID, newCode: newCode, seen: make(map[string]struct{})}
}

// Add offers an unmatched item. Names are compared case-sensitively and the first
// occurrence wins. Placeholder names never become candidates.
func (d *Deduplicator) Add(code, name, unitID string, price any) {
	if name == "" || name == AINameFallback {
		return
	}
	if _, ok := d.seen[name]; ok {
		return
	}
	d.seen[name] = struct{}{}
	if code == "" {
		code = d.newCode()
	}
	d.out = append(d.out, Candidate{
		ID:     d.newID(),
		Code:   code,
		Name:   name,
		UnitID: unitID,
		Price:  candidatePrice(price),
		Color:  products.DefaultColor,
	})
}

// Candidates returns the collected candidates in first-seen order.
func (d *Deduplicator) Candidates() []Candidate {
	return d.out
}

// candidatePrice keeps the extracted price text when it is a valid decimal.
func candidatePrice(v any) string {
	raw := strings.TrimSpace(stringify(v))
	if raw == "" {
		return "0"
	}
	if _, err := products.NormalizeDecimal(raw); err != nil {
		return "0"
	}
	return raw
}
