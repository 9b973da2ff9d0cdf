package models

import "time"

type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "pending"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusCanceled   MatchStatus = "canceled"
)

var matchStatuses = []MatchStatus{
	MatchStatusPending,
	MatchStatusInProgress,
	MatchStatusCompleted,
	MatchStatusCanceled,
}

func (s MatchStatus) Valid() bool {
	for _, known := range matchStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether a match in status s may move to next.
// Every valid status may follow any other; restrict the graph here.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	return s.Valid() && next.Valid()
}

// IsCompletionTransition is true only for a move into completed from any
// other status. It is the sole trigger for awarding points.
func IsCompletionTransition(prev, next MatchStatus) bool {
	return next == MatchStatusCompleted && prev != MatchStatusCompleted
}

type Match struct {
	ID         int         `json:"id" db:"id"`
	Team1ID    int         `json:"team1_id" db:"team1_id"`
	Team2ID    int         `json:"team2_id" db:"team2_id"`
	ScoreTeam1 int         `json:"score_team1" db:"score_team1"`
	ScoreTeam2 int         `json:"score_team2" db:"score_team2"`
	MatchDate  time.Time   `json:"match_date" db:"match_date"`
	Status     MatchStatus `json:"status" db:"status"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}
