package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"overload/workout-backend/internal/domain"
	"overload/workout-backend/internal/repository"
	"overload/workout-backend/internal/service"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := user
	return &u, nil
}

func newTestAuthService() service.AuthService {
	return service.NewAuthService(newFakeUserRepo(), "test-secret", time.Hour)
}

func TestRegister(t *testing.T) {
	t.Parallel()
	svc := newTestAuthService()

	user, err := svc.Register(context.Background(), "Alice", "alice@example.com", "s3cret-pw")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID.IsZero() {
		t.Error("registered user has no ID")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("registered email = %q", user.Email)
	}
	if user.PasswordHash != "" {
		t.Error("password hash leaked in register response")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()
	svc := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret-pw"); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}
	_, err := svc.Register(ctx, "Other Alice", "alice@example.com", "another-pw")
	if !errors.Is(err, service.ErrUserAlreadyExists) {
		t.Errorf("duplicate Register error = %v, want ErrUserAlreadyExists", err)
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	svc := newTestAuthService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret-pw")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	token, user, err := svc.Login(ctx, "alice@example.com", "s3cret-pw")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token == "" {
		t.Error("Login returned an empty token")
	}
	if user == nil || user.ID != registered.ID {
		t.Error("Login returned the wrong user")
	}
	if user.PasswordHash != "" {
		t.Error("password hash leaked in login response")
	}
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()
	svc := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret-pw"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "alice@example.com", "wrong-pw"},
		{"unknown email", "nobody@example.com", "s3cret-pw"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := svc.Login(ctx, tc.email, tc.password)
			if !errors.Is(err, service.ErrAuthenticationFailed) {
				t.Errorf("Login error = %v, want ErrAuthenticationFailed", err)
			}
		})
	}
}
