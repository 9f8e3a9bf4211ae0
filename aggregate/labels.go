package aggregate

import (
	"context"
	"sort"
	"strings"

	"github.com/paologalligit/films-feed/constant"
	"github.com/paologalligit/films-feed/entities"
	"github.com/paologalligit/films-feed/utils"
)

// labels resolves the session's attributes, records them in the legend and
// returns the short names shown next to the showtime.
func (a *aggregator) labels(ctx context.Context, s entities.Session, is3D bool) []string {
	names := make([]string, 0, len(s.AttributeIds)+2)
	seen := make(map[string]bool, len(s.AttributeIds))
	for _, id := range s.AttributeIds {
		attr := a.details.Attribute(ctx, id)
		// an unresolved attribute is still listed, under its id
		if attr.AttributeId == "" {
			attr.AttributeId = id
		}
		if attr.ShortName == "" {
			attr.ShortName = id
		}
		a.legend[id] = attr
		if !seen[attr.ShortName] {
			seen[attr.ShortName] = true
			names = append(names, attr.ShortName)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		return utils.LessFold(names[i], names[j])
	})

	// COMPLET and 3D only come from seats and format, never from upstream names
	names = removeFold(names, constant.LABEL_SOLD)
	if !is3D {
		names = removeFold(names, constant.LABEL_3D)
	} else if !containsFold(names, constant.LABEL_3D) {
		names = append([]string{constant.LABEL_3D}, names...)
	}
	if s.SoldOut || s.SeatsAvailable < a.opts.LowSeatsThreshold {
		names = append([]string{constant.LABEL_SOLD}, names...)
	}
	return names
}

func containsFold(names []string, want string) bool {
	for _, n := range names {
		if strings.EqualFold(n, want) {
			return true
		}
	}
	return false
}

func removeFold(names []string, drop string) []string {
	out := names[:0]
	for _, n := range names {
		if !strings.EqualFold(n, drop) {
			out = append(out, n)
		}
	}
	return out
}
