package service

import (
	"testing"

	"parkslot/internal/db"
	"parkslot/internal/entities"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users   map[string]*db.User
	created []string
}

func (f *fakeUserRepo) GetByEmail(email string) (*db.User, error) {
	return f.users[email], nil
}

func (f *fakeUserRepo) GetByID(id string) (*db.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) CreateUser(name, email, phone, password string) (string, error) {
	f.created = append(f.created, email)
	return "new-user-id", nil
}

func (f *fakeUserRepo) VehiclesForUser(userID string) ([]entities.Vehicle, error) {
	return nil, nil
}

func TestLoginIssuesToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing: %v", err)
	}
	repo := &fakeUserRepo{users: map[string]*db.User{
		"ana@example.com": {ID: "u1", Email: "ana@example.com", PasswordHash: string(hash)},
	}}
	svc := NewAuthService(repo)

	tokenStr, err := svc.Login("ana@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["user_id"] != "u1" {
		t.Errorf("expected user_id claim u1, got %v", claims["user_id"])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	repo := &fakeUserRepo{users: map[string]*db.User{
		"ana@example.com": {ID: "u1", Email: "ana@example.com", PasswordHash: string(hash)},
	}}
	svc := NewAuthService(repo)

	if _, err := svc.Login("ana@example.com", "wrong"); err == nil {
		t.Error("expected invalid credentials")
	}
	if _, err := svc.Login("nobody@example.com", "hunter2"); err == nil {
		t.Error("expected invalid credentials for unknown email")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*db.User{
		"ana@example.com": {ID: "u1", Email: "ana@example.com"},
	}}
	svc := NewAuthService(repo)

	if _, err := svc.Register("Ana", "ana@example.com", "", "hunter2"); err == nil {
		t.Error("expected duplicate email to be rejected")
	}
	id, err := svc.Register("Bo", "bo@example.com", "", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id != "new-user-id" {
		t.Errorf("expected new user id, got %q", id)
	}
	if len(repo.created) != 1 || repo.created[0] != "bo@example.com" {
		t.Errorf("unexpected creations %v", repo.created)
	}
}
