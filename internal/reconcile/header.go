package reconcile

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Slot is a canonical field a tabular column can map to.
type Slot string

const (
	SlotCode       Slot = "code"
	SlotName       Slot = "name"
	SlotQty        Slot = "qty"
	SlotUnit       Slot = "unit"
	SlotExpiryDate Slot = "expiryDate"
)

// SlotAliases lists the case-insensitive substrings that identify a slot's column.
type SlotAliases struct {
	Slot    Slot
	Aliases []string
}

// DefaultHeaderSlots covers the English and Arabic headers operators usually export.
var DefaultHeaderSlots = []SlotAliases{
	{Slot: SlotCode, Aliases: []string{"code", "كود", "رمز", "sku", "barcode", "باركود"}},
	{Slot: SlotName, Aliases: []string{"name", "اسم", "صنف", "item", "product"}},
	{Slot: SlotQty, Aliases: []string{"qty", "quantity", "كمية", "الكمية", "عدد"}},
	{Slot: SlotUnit, Aliases: []string{"unit", "وحدة", "الوحدة"}},
	{Slot: SlotExpiryDate, Aliases: []string{"expiry", "exp", "انتهاء", "صلاحية"}},
}

// fold lowercases s with Unicode rules. A Caser is not safe for concurrent use,
// so one is built per call.
func fold(s string) string {
	return cases.Lower(language.Und).String(s)
}

// HeaderNormalizer maps arbitrary headers to slots. For each slot it picks the first
// header, in record order, that contains any alias. Slots resolve independently, so
// one header may feed several slots.
type HeaderNormalizer struct {
	slots []SlotAliases
}

// NewHeaderNormalizer lowercases the aliases once. A nil slice selects DefaultHeaderSlots.
func NewHeaderNormalizer(slots []SlotAliases) *HeaderNormalizer {
	if slots == nil {
		slots = DefaultHeaderSlots
	}
	folded := make([]SlotAliases, 0, len(slots))
	for _, s := range slots {
		aliases := make([]string, 0, len(s.Aliases))
		for _, a := range s.Aliases {
			if a = fold(strings.TrimSpace(a)); a != "" {
				aliases = append(aliases, a)
			}
		}
		folded = append(folded, SlotAliases{Slot: s.Slot, Aliases: aliases})
	}
	return &HeaderNormalizer{slots: folded}
}

// SlotValues holds the raw value resolved for each slot; missing slots are absent.
type SlotValues map[Slot]any

// Normalize resolves every slot against the record.
func (n *HeaderNormalizer) Normalize(rec ImportRecord) SlotValues {
	headers := make([]string, len(rec.Fields))
	for i, f := range rec.Fields {
		headers[i] = fold(f.Header)
	}
	out := make(SlotValues, len(n.slots))
	for _, s := range n.slots {
		for i, h := range headers {
			if containsAny(h, s.Aliases) {
				out[s.Slot] = rec.Fields[i].Value
				break
			}
		}
	}
	return out
}

// Header returns the original header selected for slot, if any.
func (n *HeaderNormalizer) Header(rec ImportRecord, slot Slot) (string, bool) {
	for _, s := range n.slots {
		if s.Slot != slot {
			continue
		}
		for _, f := range rec.Fields {
			if containsAny(fold(f.Header), s.Aliases) {
				return f.Header, true
			}
		}
	}
	return "", false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
