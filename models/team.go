package models

import "time"

// Team представляет команду и её накопленные очки в таблице.
type Team struct {
	ID            int       `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	CaptainID     *int      `json:"captain_id,omitempty" db:"captain_id"`
	Points        int       `json:"points" db:"points"`
	MatchesPlayed int       `json:"matches_played" db:"matches_played"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	MemberIDs []int `json:"member_ids" db:"-"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}

// HasMember reports whether userID is on the roster.
func (t *Team) HasMember(userID int) bool {
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
