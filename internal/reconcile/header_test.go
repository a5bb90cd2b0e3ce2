package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderNormalizerResolvesSlotsBySubstring(t *testing.T) {
	norm := NewHeaderNormalizer(nil)
	rec := NewImportRecord(
		Field{Header: "Item Name", Value: "Sugar"},
		Field{Header: "QTY", Value: "5"},
		Field{Header: "Unit of measure", Value: "Kg"},
		Field{Header: "Expiry Date", Value: "2025-12-31"},
		Field{Header: "SKU", Value: "S-1"},
	)

	got := norm.Normalize(rec)
	require.Equal(t, "Sugar", got[SlotName])
	require.Equal(t, "5", got[SlotQty])
	require.Equal(t, "Kg", got[SlotUnit])
	require.Equal(t, "2025-12-31", got[SlotExpiryDate])
	require.Equal(t, "S-1", got[SlotCode])
}

func TestHeaderNormalizerArabicHeaders(t *testing.T) {
	norm := NewHeaderNormalizer(nil)
	rec := NewImportRecord(
		Field{Header: "الكود", Value: "A1"},
		Field{Header: "اسم الصنف", Value: "سكر"},
		Field{Header: "الكمية", Value: 3.0},
	)

	got := norm.Normalize(rec)
	require.Equal(t, "A1", got[SlotCode])
	require.Equal(t, "سكر", got[SlotName])
	require.Equal(t, 3.0, got[SlotQty])
	_, ok := got[SlotUnit]
	require.False(t, ok)
}

func TestHeaderNormalizerFirstHeaderWinsAndMayServeTwoSlots(t *testing.T) {
	norm := NewHeaderNormalizer(nil)
	rec := NewImportRecord(
		Field{Header: "Product Code", Value: "P-9"},
		Field{Header: "Product Name", Value: "Tea"},
	)

	got := norm.Normalize(rec)
	require.Equal(t, "P-9", got[SlotCode])
	require.Equal(t, "P-9", got[SlotName], "first header containing an alias wins for each slot")

	header, ok := norm.Header(rec, SlotName)
	require.True(t, ok)
	require.Equal(t, "Product Code", header)
}

func TestHeaderNormalizerCustomSlots(t *testing.T) {
	norm := NewHeaderNormalizer([]SlotAliases{{Slot: SlotName, Aliases: []string{" Bezeichnung "}}})
	rec := NewImportRecord(Field{Header: "Name", Value: "ignored"}, Field{Header: "BEZEICHNUNG", Value: "Reis"})

	got := norm.Normalize(rec)
	require.Equal(t, SlotValues{SlotName: "Reis"}, got)
}
