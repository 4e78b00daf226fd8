package venue

import (
	"strings"

	"github.com/drewb10/barbuddy/internal/model"
)

// ClassifyType infers a venue type from its name for catalog entries created
// without one. Case-insensitive: exact match first, then substring match.
// Falls back to "other".
func ClassifyType(name string) model.VenueType {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return model.VenueTypeOther
	}

	if vt, ok := exactTypeMatch[n]; ok {
		return vt
	}

	for _, entry := range substringTypeMatches {
		if strings.Contains(n, entry.keyword) {
			return entry.venueType
		}
	}

	return model.VenueTypeOther
}

var exactTypeMatch = map[string]model.VenueType{
	"the dive":     model.VenueTypeDiveBar,
	"the basement": model.VenueTypeDiveBar,
}

var substringTypeMatches = []struct {
	keyword   string
	venueType model.VenueType
}{
	// More specific keywords first.
	{"sports bar", model.VenueTypeSportsBar},
	{"sports grill", model.VenueTypeSportsBar},
	{"cocktail", model.VenueTypeCocktailBar},
	{"speakeasy", model.VenueTypeCocktailBar},
	{"lounge", model.VenueTypeCocktailBar},
	{"rooftop", model.VenueTypeRooftop},
	{"terrace", model.VenueTypeRooftop},
	{"sky bar", model.VenueTypeRooftop},
	{"nightclub", model.VenueTypeClub},
	{"club", model.VenueTypeClub},
	{"disco", model.VenueTypeClub},
	{"dive", model.VenueTypeDiveBar},
	{"tavern", model.VenueTypeDiveBar},
	{"saloon", model.VenueTypeDiveBar},
	{"pub", model.VenueTypeDiveBar},
	{"ale house", model.VenueTypeDiveBar},
	{"sports", model.VenueTypeSportsBar},
}
