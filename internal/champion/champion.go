// Package champion holds the pure champion catalog value and its role set.
package champion

// Role is one of the five lanes a champion can be eligible for.
type Role string

const (
	Top     Role = "TOP"
	Jungle  Role = "JUNGLE"
	Mid     Role = "MID"
	Bot     Role = "BOT"
	Support Role = "SUPPORT"
)

// PlayRateThreshold is the minimum observed play rate in a lane for a
// champion to be considered eligible for that role.
const PlayRateThreshold = 0.1

// Champion is one entry of the catalog: an immutable identity plus a
// mutable set of eligible roles, maintained only by the ingester.
type Champion struct {
	ID                           int      `json:"id" db:"id"`
	RiotID                       string   `json:"riot_id" db:"riot_id"`
	Name                         string   `json:"name" db:"name"`
	DefaultSkinImagePath         string   `json:"default_skin_image_path" db:"default_skin_image_path"`
	CenteredDefaultSkinImagePath string   `json:"centered_default_skin_image_path" db:"centered_default_skin_image_path"`
	Roles                        []Role   `json:"positions" db:"-"`
}

// PlayRates maps a champion's role name, as reported by the community feed,
// to its observed play rate.
type PlayRates struct {
	Top     float64
	Jungle  float64
	Middle  float64
	Bottom  float64
	Utility float64
}

// RolesAboveThreshold derives the eligible role set from play rates,
// mapping middle->MID, bottom->BOT, utility->SUPPORT.
func RolesAboveThreshold(rates PlayRates) []Role {
	var roles []Role

	if rates.Top > PlayRateThreshold {
		roles = append(roles, Top)
	}
	if rates.Jungle > PlayRateThreshold {
		roles = append(roles, Jungle)
	}
	if rates.Middle > PlayRateThreshold {
		roles = append(roles, Mid)
	}
	if rates.Bottom > PlayRateThreshold {
		roles = append(roles, Bot)
	}
	if rates.Utility > PlayRateThreshold {
		roles = append(roles, Support)
	}

	return roles
}
