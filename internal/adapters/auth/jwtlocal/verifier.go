// Package jwtlocal verifica tokens HMAC emitidos por el backend sin
// llamada de red: el secreto es compartido vía configuración.
package jwtlocal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"safepets-citas/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenInvalido = errors.New("jwtlocal: token inválido")

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

var _ auth.AuthVerifier = (*Verifier)(nil)

func New(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwtlocal: secreto vacío")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

func (v *Verifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("jwtlocal: método de firma inesperado: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrTokenInvalido, err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return auth.Claims{}, ErrTokenInvalido
	}

	return auth.Claims{
		UserID: c.Subject,
		Email:  c.Email,
		Role:   c.Role,
	}, nil
}
