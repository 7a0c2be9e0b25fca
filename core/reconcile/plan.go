package reconcile

// HasChanges reports whether applying the plan would mutate the store.
func (p MergePlan) HasChanges() bool {
	return len(p.Actions) > 0
}

// Count returns the number of planned actions of type t.
func (p MergePlan) Count(t ActionType) int {
	n := 0
	for _, a := range p.Actions {
		if a.Type == t {
			n++
		}
	}
	return n
}

// ActionsOf returns the planned actions of type t in plan order.
func (p MergePlan) ActionsOf(t ActionType) []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// ModifierCounts folds option counts into modifier counts, which is how sync
// runs report them.
func (s PlanSummary) ModifierCounts() KindCounts {
	return s.Modifiers.Add(s.Options)
}
