package models

import "time"

// Statistics хранит агрегированную статистику игрока. Изменяется только администратором.
type Statistics struct {
	ID          int       `json:"id" db:"id"`
	UserID      int       `json:"user_id" db:"user_id"`
	Goals       int       `json:"goals" db:"goals"`
	Assists     int       `json:"assists" db:"assists"`
	YellowCards int       `json:"yellow_cards" db:"yellow_cards"`
	RedCards    int       `json:"red_cards" db:"red_cards"`
	GamesPlayed int       `json:"games_played" db:"games_played"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
