package token

import (
	"github.com/golang-jwt/jwt/v5"
)

// Kind travels in the JOSE "typ" header so an access token cannot stand in
// for a refresh token and vice versa.
type Kind string

const (
	KindAccess  Kind = "at+jwt"
	KindRefresh Kind = "rt+jwt"
)

// Claims is the payload of both token kinds. Refresh tokens leave Email empty.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity is what a verified token says about its bearer, without timing fields.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
}

func AccessClaims(subject, email string) Claims {
	return Claims{
		Email:            email,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}
}

func RefreshClaims(subject string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}
}

func (c Claims) Identity() Identity {
	return Identity{Subject: c.Subject, Email: c.Email}
}
