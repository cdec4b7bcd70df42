package kanban

import (
	"cmp"
	"slices"
)

// Member is a card's position inside one (owner, status) column.
type Member struct {
	ID         string
	OrderIndex int
}

// Shift moves one card to a new order index.
type Shift struct {
	ID       string
	NewIndex int
}

// InsertionPlan is the outcome of PlanInsertion.
type InsertionPlan struct {
	// Resolved is the order index the moving card takes.
	Resolved int
	// Shifts are the displaced cards, highest index first.
	Shifts []Shift
}

// PlanInsertion computes where the card moverID lands when it is dropped at
// target in a column whose current cards are members. Every other card at or
// above target moves up by one; the mover itself is never shifted, whether it
// already lives in the column or comes from another one. The target is taken
// as is: no clamping, no renumbering, gaps are left alone.
func PlanInsertion(members []Member, moverID string, target int) InsertionPlan {
	plan := InsertionPlan{Resolved: target}
	for _, m := range members {
		if m.ID == moverID || m.OrderIndex < target {
			continue
		}
		plan.Shifts = append(plan.Shifts, Shift{ID: m.ID, NewIndex: m.OrderIndex + 1})
	}
	// Highest first, so applying the shifts one by one never makes two cards
	// share an index on the way.
	slices.SortFunc(plan.Shifts, func(a, b Shift) int {
		return cmp.Compare(b.NewIndex, a.NewIndex)
	})
	return plan
}

// NextIndex returns the order index for a card appended at the end of a
// column: one past the current maximum, or 0 for an empty column.
func NextIndex(members []Member) int {
	next := 0
	for _, m := range members {
		if m.OrderIndex >= next {
			next = m.OrderIndex + 1
		}
	}
	return next
}

// PlanCompaction renumbers a column to 0..n-1 without changing the relative
// order of its cards. Cards that already sit on their dense index are left
// out, so a compacted column yields no shifts. Shifts come lowest index first;
// every card moves down, so applying them in that order never collides.
func PlanCompaction(members []Member) []Shift {
	sorted := slices.Clone(members)
	slices.SortStableFunc(sorted, func(a, b Member) int {
		if c := cmp.Compare(a.OrderIndex, b.OrderIndex); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	var shifts []Shift
	for i, m := range sorted {
		if m.OrderIndex != i {
			shifts = append(shifts, Shift{ID: m.ID, NewIndex: i})
		}
	}
	return shifts
}
