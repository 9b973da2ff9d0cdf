package models

// Standing is one leaderboard row derived from a team's aggregates.
type Standing struct {
	Rank          int     `json:"rank"`
	TeamID        int     `json:"team_id"`
	TeamName      string  `json:"team_name"`
	LogoURL       *string `json:"logo_url,omitempty"`
	Points        int     `json:"points"`
	MatchesPlayed int     `json:"matches_played"`
}
