package middleware

import (
	"fmt"
	"time"

	"github.com/Dosada05/league-system/models"
	"github.com/golang-jwt/jwt/v4"
)

// IssueToken signs the HS256 token that Authenticate accepts.
func IssueToken(jwtSecret string, user *models.User, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		ClaimUserID: user.ID,
		ClaimRole:   string(user.Role),
		"name":      user.Nickname,
		"exp":       now.Add(ttl).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
