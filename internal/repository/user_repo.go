package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"parkslot/internal/db"
	"parkslot/internal/entities"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	GetByEmail(email string) (*db.User, error)
	GetByID(id string) (*db.User, error)
	CreateUser(name, email, phone, password string) (string, error)
	VehiclesForUser(userID string) ([]entities.Vehicle, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(database *sql.DB) UserRepository {
	return &userRepository{db: database}
}

func (r *userRepository) GetByEmail(email string) (*db.User, error) {
	var u db.User
	err := r.db.QueryRow(`SELECT id, name, email, phone, password_hash FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByID(id string) (*db.User, error) {
	var u db.User
	err := r.db.QueryRow(`SELECT id, name, email, phone, password_hash FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) CreateUser(name, email, phone, password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = r.db.Exec(`INSERT INTO users (id, name, email, phone, password_hash) VALUES ($1, $2, $3, $4, $5)`,
		id, name, email, phone, hashedPassword)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *userRepository) VehiclesForUser(userID string) ([]entities.Vehicle, error) {
	rows, err := r.db.Query(`SELECT id, number, type, COALESCE(model, '') FROM vehicles WHERE user_id = $1 ORDER BY number`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []entities.Vehicle
	for rows.Next() {
		var v entities.Vehicle
		if err := rows.Scan(&v.ID, &v.Number, &v.Type, &v.Model); err != nil {
			return nil, fmt.Errorf("error scanning vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating vehicles: %w", err)
	}
	return vehicles, nil
}
