package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"
	"strings"

	"lessonbook-server-go/models"
)

var (
	ErrMissingCredential = errors.New("access code required")
	ErrInvalidCredential = errors.New("invalid access code")
)

const (
	AccessCodeLength   = 8
	accessCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// StudentFinder looks students up by access code.
type StudentFinder interface {
	FindStudentsByAccessCode(ctx context.Context, code string) ([]models.Student, error)
}

// Authenticator resolves an access code to a caller identity.
type Authenticator struct {
	adminCode string
	students  StudentFinder
}

func NewAuthenticator(adminCode string, students StudentFinder) *Authenticator {
	return &Authenticator{adminCode: adminCode, students: students}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingCredential
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}

// Resolve maps a token to an identity. When several students share a code,
// the one with the greatest ID wins.
func (a *Authenticator) Resolve(ctx context.Context, token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, ErrMissingCredential
	}
	if a.adminCode != "" && subtle.ConstantTimeCompare([]byte(token), []byte(a.adminCode)) == 1 {
		return models.Identity{Role: models.RoleAdmin}, nil
	}

	matches, err := a.students.FindStudentsByAccessCode(ctx, token)
	if err != nil {
		return models.Identity{}, err
	}
	if len(matches) == 0 {
		return models.Identity{}, ErrInvalidCredential
	}
	last := matches[0]
	for _, s := range matches[1:] {
		if s.ID > last.ID {
			last = s
		}
	}
	return models.Identity{Role: models.RoleStudent, StudentID: last.ID, Name: last.Name}, nil
}

// GenerateAccessCode draws an 8 character code from A-Z0-9 using crypto/rand.
func GenerateAccessCode() (string, error) {
	limit := big.NewInt(int64(len(accessCodeAlphabet)))
	var b strings.Builder
	b.Grow(AccessCodeLength)
	for i := 0; i < AccessCodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(accessCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
