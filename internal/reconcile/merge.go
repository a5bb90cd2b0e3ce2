package reconcile

import "github.com/google/uuid"

// NewBlankRow returns the empty trailing entry slot.
func NewBlankRow(id string) ListRow {
	return ListRow{ID: id}
}

// MergeRows drops blank rows from existing, appends the non-blank incoming rows in
// order and closes the grid with one fresh blank row. It is not idempotent: merging the same incoming
// rows twice duplicates them.
func MergeRows(existing, incoming []ListRow) []ListRow {
	return mergeRows(existing, incoming, uuid.NewString)
}

func mergeRows(existing, incoming []ListRow, newID func() string) []ListRow {
	out := make([]ListRow, 0, len(existing)+len(incoming)+1)
	for _, row := range existing {
		if !row.IsBlank() {
			out = append(out, row)
		}
	}
	for _, row := range incoming {
		if !row.IsBlank() {
			out = append(out, row)
		}
	}
	return append(out, NewBlankRow(newID()))
}
