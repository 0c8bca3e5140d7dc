// Package segment resolves tag include/exclude filters against the
// recipient directory. Resolution is a pure function over an in-memory
// recipient list; an empty result is a normal outcome.
package segment

import "github.com/driplinehq/dripline-backend/internal/model"

// Resolve returns the IDs of recipients matching the filter: the recipient's
// tag set must contain every include tag (AND semantics) and none of the
// exclude tags. An empty include set matches everyone, so exclude-only
// filters mean "all recipients minus the excluded ones".
func Resolve(recipients []model.Recipient, filter model.SegmentFilter) []string {
	ids := []string{}
	for _, r := range recipients {
		if !r.Tags.HasAll(filter.Include) {
			continue
		}
		if r.Tags.HasAny(filter.Exclude) {
			continue
		}
		ids = append(ids, r.ID)
	}
	return ids
}
