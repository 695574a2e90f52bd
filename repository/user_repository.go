package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"EchoFM/model"
)

// ErrDuplicateUser indicates the email is already registered.
var ErrDuplicateUser = errors.New("user already exists")

// UserRepository defines the interface for user account operations.
type UserRepository interface {
	CreateUser(user *model.User) (string, error)
	GetUserByID(id string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	UpdatePhoto(userID, photo string) error
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

// CreateUser adds a new user to the database and returns its generated ID.
func (r *mysqlUserRepository) CreateUser(user *model.User) (string, error) {
	id := uuid.NewString()
	query := "INSERT INTO users (id, name, email, password_hash, photo) VALUES (?, ?, ?, ?, ?)"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return "", fmt.Errorf("failed to prepare create user statement: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(id, user.Name, user.Email, user.PasswordHash, user.Photo); err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return "", ErrDuplicateUser
		}
		return "", fmt.Errorf("failed to execute create user statement: %w", err)
	}
	return id, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(id string) (*model.User, error) {
	query := "SELECT id, name, email, password_hash, photo, created_at, updated_at FROM users WHERE id = ?"
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetUserByEmail retrieves a user by their email address.
func (r *mysqlUserRepository) GetUserByEmail(email string) (*model.User, error) {
	query := "SELECT id, name, email, password_hash, photo, created_at, updated_at FROM users WHERE email = ?"
	return r.scanOne(r.db.QueryRow(query, email))
}

// UpdatePhoto updates the user's profile photo URL.
func (r *mysqlUserRepository) UpdatePhoto(userID, photo string) error {
	query := "UPDATE users SET photo = ?, updated_at = NOW() WHERE id = ?"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare update photo statement: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(photo, userID); err != nil {
		return fmt.Errorf("failed to execute update photo statement: %w", err)
	}
	return nil
}

func (r *mysqlUserRepository) scanOne(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var photo sql.NullString
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &photo, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	user.Photo = photo.String
	return user, nil
}
