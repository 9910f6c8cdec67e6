package manifest

// Delta is the membership a tree accumulated over one reconciliation run.
type Delta struct {
	Blacklist []string
	Graylist  []string
}

// Empty reports whether the delta adds nothing.
func (d Delta) Empty() bool {
	return len(d.Blacklist) == 0 && len(d.Graylist) == 0
}

// Update merges delta into existing and returns the result; existing is not
// modified. A non-empty delta replaces the field with the sorted union of the
// stored names and the delta. An empty delta leaves the field exactly as
// stored, including absent. Membership is never removed. The bool reports
// whether any name was added.
func Update(existing *Manifest, delta Delta) (*Manifest, bool) {
	out := existing.Clone()
	changed := false

	if len(delta.Blacklist) > 0 {
		var added bool
		out.Blacklist, added = merge(out.Blacklist, delta.Blacklist)
		changed = changed || added
	}
	if len(delta.Graylist) > 0 {
		var added bool
		out.Graylist, added = merge(out.Graylist, delta.Graylist)
		changed = changed || added
	}
	return out, changed
}

func merge(current *NameSet, add []string) (*NameSet, bool) {
	var base NameSet
	if current != nil {
		base = *current
	}
	union := base.Union(add...)
	return &union, len(NewNameSet(base...).Missing(add...)) > 0
}
