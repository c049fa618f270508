package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrNotFound = errors.New("not found")

// normEmail trims and lowercases the email (needed if DB col isnt citext)
func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// CreateUser inserts a new user with a hashed password
func (p *Postgres) CreateUser(ctx context.Context, fullName, email, password string) (User, error) {
	email = normEmail(email)
	if fullName == "" || email == "" || password == "" {
		return User{}, errors.New("missing name, email or password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	row := p.pool.QueryRow(ctx, `
		INSERT INTO users (full_name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, full_name, email, avatar_url, bio, created_at
	`, fullName, email, string(hash))

	var u User
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.AvatarURL, &u.Bio, &u.CreatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserByEmail returns the user + hashed password for login verification
func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (User, string, error) {
	email = normEmail(email)

	row := p.pool.QueryRow(ctx, `
		SELECT id, full_name, email, COALESCE(password_hash, ''), avatar_url, bio, created_at
		FROM users
		WHERE email = $1
	`, email)

	var u User
	var hash string
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &hash, &u.AvatarURL, &u.Bio, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, "", ErrNotFound
		}
		return User{}, "", err
	}
	return u, hash, nil
}

// GetUserByID fetches a user by primary key
func (p *Postgres) GetUserByID(ctx context.Context, id string) (User, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, full_name, email, avatar_url, bio, created_at
		FROM users
		WHERE id = $1
	`, id)

	var u User
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.AvatarURL, &u.Bio, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// VerifyUser checks email + password match
func (p *Postgres) VerifyUser(ctx context.Context, email, password string) (User, error) {
	u, hash, err := p.GetUserByEmail(ctx, email)
	if err != nil {
		return User{}, errors.New("invalid credentials")
	}

	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, errors.New("invalid credentials")
	}

	return u, nil
}

// UpsertGoogleUser creates or refreshes a user record from a Google profile
func (p *Postgres) UpsertGoogleUser(ctx context.Context, googleID, fullName, email, avatarURL string) (User, error) {
	email = normEmail(email)

	row := p.pool.QueryRow(ctx, `
		INSERT INTO users (full_name, email, google_id, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET google_id = EXCLUDED.google_id, avatar_url = EXCLUDED.avatar_url
		RETURNING id, full_name, email, avatar_url, bio, created_at
	`, fullName, email, googleID, avatarURL)

	var u User
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.AvatarURL, &u.Bio, &u.CreatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}

// SaveRefreshToken stores the active refresh token for a user ("" clears it)
func (p *Postgres) SaveRefreshToken(ctx context.Context, userID, token string) error {
	_, err := p.pool.Exec(ctx, `UPDATE users SET refresh_token = $2 WHERE id = $1`, userID, token)
	return err
}

// GetRefreshToken returns the stored refresh token for a user
func (p *Postgres) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	var tok string
	err := p.pool.QueryRow(ctx, `SELECT refresh_token FROM users WHERE id = $1`, userID).Scan(&tok)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return tok, err
}

// ListUsers returns all users (small deployments only)
func (p *Postgres) ListUsers(ctx context.Context, limit int) ([]User, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, full_name, email, avatar_url, bio, created_at
		FROM users
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.AvatarURL, &u.Bio, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
