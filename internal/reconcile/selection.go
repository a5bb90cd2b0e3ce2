package reconcile

import (
	"encoding/json"
	"sort"
)

// Selection is an immutable set of candidate ids chosen for persistence.
// Every mutator returns a new value.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection builds a selection from ids.
func NewSelection(ids ...string) Selection {
	s := Selection{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

// SelectAll selects every candidate, which is the state an AI import starts in.
func SelectAll(candidates []Candidate) Selection {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return NewSelection(ids...)
}

func (s Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s Selection) Len() int { return len(s.ids) }

func (s Selection) With(id string) Selection {
	return NewSelection(append(s.IDs(), id)...)
}

func (s Selection) Without(id string) Selection {
	out := NewSelection(s.IDs()...)
	delete(out.ids, id)
	return out
}

func (s Selection) Toggle(id string) Selection {
	if s.Has(id) {
		return s.Without(id)
	}
	return s.With(id)
}

// IDs returns the selected ids sorted.
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Filter returns the candidates whose ids are selected, in candidate order.
func (s Selection) Filter(candidates []Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if s.Has(c.ID) {
			out = append(out, c)
		}
	}
	return out
}

func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewSelection(ids...)
	return nil
}
