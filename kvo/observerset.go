package kvo

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Member is one (target, method, context) triple tracked by an
// ObserverSet, plus a mutable LastNotifiedRevision slot. Members()
// returns pointers into the live set so a notification pass can mutate
// LastNotifiedRevision in place as it dedups repeat fan-out within one
// revision.
type Member struct {
	Target               Observer
	Method               MethodID
	Context              any
	LastNotifiedRevision uint64
}

// ObserverSet is a small multiset of (target, method, context) triples
// keyed by target identity, using mapset.Set[Observer] for identity-keyed
// membership.
type ObserverSet struct {
	targets  mapset.Set[Observer]
	byTarget map[Observer]map[MethodID]*Member
}

// NewObserverSet constructs an empty set.
func NewObserverSet() *ObserverSet {
	return &ObserverSet{
		targets:  mapset.NewThreadUnsafeSet[Observer](),
		byTarget: make(map[Observer]map[MethodID]*Member),
	}
}

// Add registers (target, method); idempotent on the pair, overwriting
// context on a repeat add.
func (s *ObserverSet) Add(target Observer, method MethodID, context any) {
	methods, ok := s.byTarget[target]
	if !ok {
		methods = make(map[MethodID]*Member)
		s.byTarget[target] = methods
		s.targets.Add(target)
	}
	if m, ok := methods[method]; ok {
		m.Context = context
		return
	}
	methods[method] = &Member{Target: target, Method: method, Context: context}
}

// Remove tears down (target, method). A no-op if absent.
func (s *ObserverSet) Remove(target Observer, method MethodID) {
	methods, ok := s.byTarget[target]
	if !ok {
		return
	}
	delete(methods, method)
	if len(methods) == 0 {
		delete(s.byTarget, target)
		s.targets.Remove(target)
	}
}

// Len reports the number of distinct (target, method) pairs.
func (s *ObserverSet) Len() int {
	n := 0
	for _, methods := range s.byTarget {
		n += len(methods)
	}
	return n
}

// Members returns a stable snapshot list of live Member pointers: the
// slice itself is frozen against concurrent Add/Remove during iteration,
// but each *Member is the live record, so LastNotifiedRevision writes
// during fan-out are visible to later lookups.
func (s *ObserverSet) Members() []*Member {
	out := make([]*Member, 0, s.Len())
	for _, target := range s.targets.ToSlice() {
		for _, m := range s.byTarget[target] {
			out = append(out, m)
		}
	}
	return out
}
