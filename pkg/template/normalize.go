package template

import "slices"

// Normalize rewrites a template to its canonical form under the given
// subscriber merge groups. Each group is the set of subscriber ids a
// carrier bills as one account (for example the two IMSIs of a dual-SIM
// profile); the group's first member is the canonical primary.
//
// If the template's subscriber id belongs to a group, the result carries
// the group's first member as its subscriber id and the whole group as
// its match set, so the canonical key matches every merged alias.
// Templates without a subscriber id, and templates whose subscriber is
// in no group, are returned unchanged. Normalize is idempotent for a
// fixed group list, which the accounting layer relies on to avoid
// duplicate buckets for merged-SIM accounts.
func Normalize(t Template, mergedList [][]string) Template {
	if t.subscriberID == "" {
		return t
	}

	for _, merged := range mergedList {
		if slices.Contains(merged, t.subscriberID) {
			nt := legacy(t.matchRule, merged[0], t.ssid)
			nt.matchSubscriberIDs = append([]string(nil), merged...)
			return nt
		}
	}

	return t
}

// NormalizeGroup is Normalize with a single merge group.
func NormalizeGroup(t Template, merged []string) Template {
	return Normalize(t, [][]string{merged})
}
