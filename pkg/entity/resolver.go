// Package entity resolves restaurant names in queries against the alias
// index, deciding whether to proceed, redirect to the operating hotel, or
// ask which property the guest means.
package entity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/models"
)

// Resolver matches restaurant aliases. Immutable after construction.
type Resolver struct {
	aliases []string // longest-first
	index   map[string]config.RestaurantAlias
}

// NewResolver builds a resolver over the static alias index.
func NewResolver() *Resolver {
	index := config.RestaurantAliases
	aliases := make([]string, 0, len(index))
	for alias := range index {
		aliases = append(aliases, alias)
	}
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i]) != len(aliases[j]) {
			return len(aliases[i]) > len(aliases[j])
		}
		return aliases[i] < aliases[j]
	})
	return &Resolver{aliases: aliases, index: index}
}

// Resolve scans query for a restaurant alias (longest wins) and decides the
// action relative to currentHotel:
//
//   - the restaurant operates at currentHotel → proceed
//   - it operates at exactly one other hotel → redirect there
//   - it operates at several hotels         → clarify
func (r *Resolver) Resolve(query, currentHotel string) models.RestaurantEntity {
	lower := strings.ToLower(query)

	var matched string
	for _, alias := range r.aliases {
		if strings.Contains(lower, strings.ToLower(alias)) {
			matched = alias
			break
		}
	}
	if matched == "" {
		return models.RestaurantEntity{Action: models.EntityProceed}
	}

	entry := r.index[matched]
	matches := make([]models.RestaurantMatch, 0, len(entry.Hotels))
	for _, h := range entry.Hotels {
		matches = append(matches, models.RestaurantMatch{Restaurant: entry.Restaurant, Hotel: h})
	}

	if currentHotel != "" {
		for _, h := range entry.Hotels {
			if h == currentHotel {
				return models.RestaurantEntity{
					Action:       models.EntityProceed,
					MatchedAlias: matched,
					Matches:      matches,
				}
			}
		}
	}

	if len(entry.Hotels) == 1 {
		target := entry.Hotels[0]
		return models.RestaurantEntity{
			Action:        models.EntityRedirect,
			MatchedAlias:  matched,
			Matches:       matches,
			RedirectHotel: target,
			Message: fmt.Sprintf("문의하신 %s은(는) %s의 레스토랑입니다. 해당 호텔 기준으로 안내드립니다.",
				entry.Restaurant, config.Hotels[target].Name),
		}
	}

	options := make([]string, 0, len(entry.Hotels))
	for _, h := range entry.Hotels {
		options = append(options, config.Hotels[h].Name)
	}
	return models.RestaurantEntity{
		Action:       models.EntityClarify,
		MatchedAlias: matched,
		Matches:      matches,
		Message: fmt.Sprintf("%s은(는) %s에 있습니다. 어느 호텔 기준으로 안내해 드릴까요?",
			entry.Restaurant, strings.Join(options, ", ")),
		ClarifyOptions: options,
	}
}
