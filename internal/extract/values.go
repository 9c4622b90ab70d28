package extract

import "strings"

// valueSet keeps distinct, non-empty values in first-seen order.
type valueSet struct {
	seen   map[string]struct{}
	values []string
}

func (s *valueSet) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
}

// join collapses the set into one value, e.g. compound forenames.
func (s *valueSet) join() string {
	return strings.Join(s.values, " ")
}

// first collapses the set to its first value, nil if empty.
func (s *valueSet) first() *string {
	if len(s.values) == 0 {
		return nil
	}
	v := s.values[0]
	return &v
}
