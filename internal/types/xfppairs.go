package types

// XfpPairs maps a hex encoded xfp pair fingerprint to the inscription ids referencing it.
// Every list keeps insertion order and holds no duplicates.
type XfpPairs map[string][]string

// Add appends id under fingerprint unless it is already present. Reports whether the list changed.
func (p XfpPairs) Add(fingerprint, id string) bool {
	for _, existing := range p[fingerprint] {
		if existing == id {
			return false
		}
	}
	p[fingerprint] = append(p[fingerprint], id)
	return true
}

// Merge folds other into p key by key, preserving the order of other within each key.
func (p XfpPairs) Merge(other XfpPairs) {
	for fingerprint, ids := range other {
		for _, id := range ids {
			p.Add(fingerprint, id)
		}
	}
}

// Delta returns, for every fingerprint that other would change, the full list p would hold after
// Merge(other). Fingerprints that other adds nothing to are left out. p is not modified.
func (p XfpPairs) Delta(other XfpPairs) XfpPairs {
	delta := make(XfpPairs)
	for fingerprint, ids := range other {
		current := p[fingerprint]
		merged := XfpPairs{fingerprint: append([]string(nil), current...)}
		changed := false
		for _, id := range ids {
			if merged.Add(fingerprint, id) {
				changed = true
			}
		}
		if changed {
			delta[fingerprint] = merged[fingerprint]
		}
	}
	return delta
}

// Count is the number of fingerprint keys
func (p XfpPairs) Count() int {
	return len(p)
}

// Clone copies the map and its lists.
func (p XfpPairs) Clone() XfpPairs {
	out := make(XfpPairs, len(p))
	for fingerprint, ids := range p {
		out[fingerprint] = append([]string(nil), ids...)
	}
	return out
}
