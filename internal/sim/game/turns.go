package game

// Round is the current movement round, starting at 1.
func (s *State) Round() int { return s.round }

// Active returns the entity whose turn it is: the first in turn order that
// has not moved this round. Empty when the board is empty.
func (s *State) Active() string {
	for _, id := range s.order {
		if !s.moved[id] {
			return id
		}
	}
	return ""
}

// ActiveOwner is the player who owns the active entity.
func (s *State) ActiveOwner() string {
	if e := s.entities[s.Active()]; e != nil {
		return e.Owner
	}
	return ""
}

// Eligible lists the unmoved entities of owner in turn order.
func (s *State) Eligible(owner string) []string {
	var out []string
	for _, id := range s.order {
		if e := s.entities[id]; e != nil && e.Owner == owner && !s.moved[id] {
			out = append(out, id)
		}
	}
	return out
}

// EndTurn marks id as moved and starts a new round once everyone has moved.
func (s *State) EndTurn(id string) {
	if _, ok := s.entities[id]; ok {
		s.moved[id] = true
	}
	if s.Active() == "" && len(s.order) > 0 {
		s.round++
		clear(s.moved)
	}
}

// Moved lists the entities that already moved this round, in turn order.
func (s *State) Moved() []string {
	var out []string
	for _, id := range s.order {
		if s.moved[id] {
			out = append(out, id)
		}
	}
	return out
}

// SetProgress restores round bookkeeping, e.g. on a client mirroring the
// authority.
func (s *State) SetProgress(round int, moved []string) {
	if round < 1 {
		round = 1
	}
	s.round = round
	clear(s.moved)
	for _, id := range moved {
		if _, ok := s.entities[id]; ok {
			s.moved[id] = true
		}
	}
}
