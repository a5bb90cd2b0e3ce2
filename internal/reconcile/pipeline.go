package reconcile

// BuildTabularRows turns spreadsheet records into grid rows. Tabular imports never
// create catalog products; a catalog hit only replaces the scanned data.
func BuildTabularRows(records []ImportRecord, cat Catalog, norm *HeaderNormalizer, newID func() string) []ListRow {
	matcher := NewMatcher(cat, ExactName)
	rows := make([]ListRow, 0, len(records))
	for _, rec := range records {
		slots := norm.Normalize(rec)
		m := matcher.Match(
			CoerceCode(slots[SlotCode]),
			CoerceName(slots[SlotName], ""),
			CoerceUnitLabel(slots[SlotUnit]),
			"",
		)
		name := m.Name
		if name == "" {
			name = TabularNameFallback
		}
		rows = append(rows, ListRow{
			ID:         newID(),
			Code:       m.Code,
			Name:       name,
			UnitID:     m.UnitID,
			Qty:        CoerceQty(slots[SlotQty]),
			ExpiryDate: CoerceExpiryDate(slots[SlotExpiryDate]),
		})
	}
	return rows
}

// BuildExtractedRows turns extracted items into grid rows and collects one candidate
// per distinct unmatched name. Every item yields a row whether or not it matched.
func BuildExtractedRows(items []ExtractedItem, cat Catalog, newID func() string, newCode CodeGenerator) ([]ListRow, []Candidate) {
	matcher := NewMatcher(cat, LenientName)
	dedupe := NewDeduplicator(newID, newCode)
	rows := make([]ListRow, 0, len(items))
	for _, item := range items {
		m := matcher.Match(
			CoerceCode(item.Code),
			CoerceName(item.Name, AINameFallback),
			CoerceUnitLabel(item.Unit),
			AINameFallback,
		)
		if !m.Matched() {
			dedupe.Add(m.Code, m.Name, m.UnitID, item.Price)
		}
		rows = append(rows, ListRow{
			ID:         newID(),
			Code:       m.Code,
			Name:       m.Name,
			UnitID:     m.UnitID,
			Qty:        CoerceQty(item.Qty),
			ExpiryDate: CoerceExpiryDate(item.ExpiryDate),
		})
	}
	return rows, dedupe.Candidates()
}
