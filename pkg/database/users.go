package database

import (
	"fmt"

	"obra-control-backend/pkg/models"
)

// CreateUser inserts a user and returns the stored row without the hash.
func (s *PostgresStore) CreateUser(nombre, email, passwordHash string, rol models.Role) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(`
		INSERT INTO users (nombre, email, password, rol)
		VALUES ($1, $2, $3, $4)
		RETURNING id, nombre, email, rol`,
		nombre, email, passwordHash, rol,
	).Scan(&user.ID, &user.Nombre, &user.Email, &user.Rol)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail returns the user with the given email, hash included, for
// credential verification at login.
func (s *PostgresStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(`
		SELECT id, nombre, email, password, rol
		FROM users
		WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Nombre, &user.Email, &user.Password, &user.Rol)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetActiveUser resolves id to an active user. Inactive and absent users
// both come back as sql.ErrNoRows: the authentication gate treats
// deactivated accounts as nonexistent.
func (s *PostgresStore) GetActiveUser(id int) (*models.AuthUser, error) {
	var user models.AuthUser
	err := s.db.QueryRow(`
		SELECT id, nombre, email, rol
		FROM users
		WHERE id = $1 AND activo = true`,
		id,
	).Scan(&user.ID, &user.Nombre, &user.Email, &user.Rol)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether a user row already claims the email.
func (s *PostgresStore) EmailExists(email string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}
