package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"inventario/internal/core"
)

// User is a registered account. The password hash never leaves this
// package.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	hashedPassword string
	CreatedAt      time.Time `json:"created_at"`
}

// UserStore persists accounts and verifies credentials.
type UserStore struct {
	db core.DBTX
}

func NewUserStore(db core.DBTX) *UserStore {
	return &UserStore{db: db}
}

// Register creates a new account. Duplicate username or email is a
// Conflict; the unique indexes catch races past the explicit checks.
func (s *UserStore) Register(ctx context.Context, username, email, password string) (*User, error) {
	if username == "" || email == "" || password == "" {
		return nil, core.BadRequest("usuario, email y contraseña son obligatorios")
	}

	var exists bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)", username).Scan(&exists)
	if err != nil {
		return nil, core.Internal("no se pudo registrar el usuario", err)
	}
	if exists {
		return nil, core.Conflict("El nombre de usuario ya está registrado")
	}

	err = s.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)", email).Scan(&exists)
	if err != nil {
		return nil, core.Internal("no se pudo registrar el usuario", err)
	}
	if exists {
		return nil, core.Conflict("El email ya está registrado")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, core.Internal("no se pudo registrar el usuario", err)
	}

	var u User
	err = s.db.QueryRow(ctx,
		`INSERT INTO users (username, email, hashed_password)
		 VALUES ($1, $2, $3) RETURNING id, username, email, created_at`,
		username, email, string(hash)).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return nil, core.Conflict("El usuario o email ya está registrado")
		}
		return nil, core.Internal("no se pudo registrar el usuario", err)
	}
	return &u, nil
}

// Authenticate verifies a username/password pair. Unknown user and wrong
// password return the same message.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx,
		`SELECT id, username, email, hashed_password, created_at
		 FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.Email, &u.hashedPassword, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.Unauthorized("Usuario o contraseña incorrectos")
	}
	if err != nil {
		return nil, core.Internal("no se pudo verificar las credenciales", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.hashedPassword), []byte(password)); err != nil {
		return nil, core.Unauthorized("Usuario o contraseña incorrectos")
	}
	return &u, nil
}

// Exists reports whether a username is registered. The bearer gate uses it
// to reject tokens for deleted accounts.
func (s *UserStore) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)", username).Scan(&exists)
	if err != nil {
		return false, core.Internal("no se pudo verificar el usuario", err)
	}
	return exists, nil
}
