package confirm

import "context"

// Scripted answers requests from a fixed list, in order. Once the list
// is exhausted every further request is rejected. Intended for tests.
type Scripted struct {
	Answers  []bool
	Literals []string // typed responses for RequireLiteral requests

	Requests []Request // records every request seen
	next     int
	nextLit  int
}

// Confirm implements Source.
func (s *Scripted) Confirm(_ context.Context, req Request) (Decision, error) {
	s.Requests = append(s.Requests, req)

	if req.RequireLiteral != "" {
		if s.nextLit >= len(s.Literals) {
			return Decision{}, nil
		}
		typed := s.Literals[s.nextLit]
		s.nextLit++
		return Decision{Approved: typed == req.RequireLiteral}, nil
	}

	if s.next >= len(s.Answers) {
		return Decision{}, nil
	}
	approved := s.Answers[s.next]
	s.next++
	return Decision{Approved: approved}, nil
}

var _ Source = (*Scripted)(nil)
