package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"nutricoach/api/internal/repository/memory"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAuth_RegisterLoginParse(t *testing.T) {
	svc := NewAuthService(memory.NewStore().Users(), "test-secret", time.Hour)
	ctx := context.Background()

	token, user, err := svc.Register(ctx, "Ada", "  Ada@Example.com ", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ada@example.com" || user.PasswordHash != "" {
		t.Errorf("user = %+v", user)
	}
	id, err := svc.ParseToken(token)
	if err != nil || id != user.ID {
		t.Errorf("ParseToken = %v, %v", id, err)
	}

	if _, _, err := svc.Register(ctx, "Ada", "ada@example.com", "other12"); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("duplicate err = %v", err)
	}

	if _, _, err := svc.Login(ctx, "ada@example.com", "wrong-password"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("unknown user err = %v", err)
	}
	loginToken, loggedIn, err := svc.Login(ctx, "ADA@example.com", "secret1")
	if err != nil || loggedIn.ID != user.ID || loginToken == "" {
		t.Errorf("Login = %v, %+v", err, loggedIn)
	}

	current, err := svc.CurrentUser(ctx, user.ID)
	if err != nil || current.Name != "Ada" {
		t.Errorf("CurrentUser = %+v, %v", current, err)
	}
	if _, err := svc.CurrentUser(ctx, primitive.NewObjectID()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user err = %v", err)
	}
}

func TestAuth_ParseTokenRejects(t *testing.T) {
	store := memory.NewStore()
	svc := NewAuthService(store.Users(), "test-secret", time.Hour).(*authService)
	ctx := context.Background()

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := svc.Register(ctx, "Old", "old@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ParseToken(expired); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired err = %v", err)
	}

	svc.now = time.Now
	other := NewAuthService(store.Users(), "another-secret", time.Hour)
	foreign, _, err := other.Login(ctx, "old@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ParseToken(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign signature err = %v", err)
	}
	if _, err := svc.ParseToken("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage err = %v", err)
	}
}
