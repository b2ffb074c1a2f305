package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/gt"

	"github.com/kindred-lab/kindred/pkg/repository/memory"
	"github.com/kindred-lab/kindred/pkg/usecase"
)

var testSecret = []byte("test-secret-key")

func signToken(t *testing.T, builder *jwt.Builder, secret []byte) string {
	t.Helper()
	tok, err := builder.Build()
	gt.NoError(t, err).Required()
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, secret))
	gt.NoError(t, err).Required()
	return string(signed)
}

func TestVerifyToken(t *testing.T) {
	ctx := context.Background()
	auth := usecase.NewAuthUseCase(testSecret)

	t.Run("valid token yields claims", func(t *testing.T) {
		raw := signToken(t, jwt.NewBuilder().
			Subject("user-1").
			Claim("email", "user@example.com").
			Claim("name", "User One").
			Expiration(time.Now().Add(time.Hour)), testSecret)

		token, err := auth.VerifyToken(ctx, "Bearer "+raw)
		gt.NoError(t, err).Required()
		gt.Value(t, token.Sub).Equal("user-1")
		gt.Value(t, token.Email).Equal("user@example.com")
		gt.Value(t, token.Name).Equal("User One")
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := auth.VerifyToken(ctx, "")
		gt.Bool(t, errors.Is(err, usecase.ErrUnauthorized)).True()
	})

	t.Run("not a bearer credential", func(t *testing.T) {
		_, err := auth.VerifyToken(ctx, "Basic dXNlcjpwYXNz")
		gt.Bool(t, errors.Is(err, usecase.ErrUnauthorized)).True()
	})

	t.Run("wrong signing key", func(t *testing.T) {
		raw := signToken(t, jwt.NewBuilder().
			Subject("user-1").
			Expiration(time.Now().Add(time.Hour)), []byte("other-key"))

		_, err := auth.VerifyToken(ctx, "Bearer "+raw)
		gt.Bool(t, errors.Is(err, usecase.ErrInvalidToken)).True()
	})

	t.Run("expired token", func(t *testing.T) {
		raw := signToken(t, jwt.NewBuilder().
			Subject("user-1").
			Expiration(time.Now().Add(-time.Hour)), testSecret)

		_, err := auth.VerifyToken(ctx, "Bearer "+raw)
		gt.Bool(t, errors.Is(err, usecase.ErrInvalidToken)).True()
	})

	t.Run("token without subject", func(t *testing.T) {
		raw := signToken(t, jwt.NewBuilder().
			Expiration(time.Now().Add(time.Hour)), testSecret)

		_, err := auth.VerifyToken(ctx, "Bearer "+raw)
		gt.Bool(t, errors.Is(err, usecase.ErrInvalidToken)).True()
	})
}

func TestNoAuthUseCase(t *testing.T) {
	auth := usecase.NewNoAuthUseCase("dev-user")
	gt.Bool(t, auth.IsNoAuthn()).True()

	token, err := auth.VerifyToken(context.Background(), "")
	gt.NoError(t, err).Required()
	gt.Value(t, token.Sub).Equal("dev-user")
}

func TestAuthorizeAgent(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	agent := testAgent()
	gt.NoError(t, repo.Agent().Put(ctx, agent)).Required()

	t.Run("owner passes", func(t *testing.T) {
		got, err := usecase.AuthorizeAgent(ctx, repo, "user-1", agent.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(agent.ID)
	})

	t.Run("other subject is forbidden", func(t *testing.T) {
		_, err := usecase.AuthorizeAgent(ctx, repo, "intruder", agent.ID)
		gt.Bool(t, errors.Is(err, usecase.ErrForbidden)).True()
	})

	t.Run("unknown agent is not found", func(t *testing.T) {
		_, err := usecase.AuthorizeAgent(ctx, repo, "user-1", "0b7f9f3e-0000-4000-8000-000000000000")
		gt.Bool(t, errors.Is(err, usecase.ErrAgentNotFound)).True()
	})
}
