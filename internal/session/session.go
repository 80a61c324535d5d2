// Package session persists the logged-in administrator's details between
// runs. The file lives at ~/.config/backoffice/session.toml and is removed
// on logout. The session cookie itself stays in the API client's jar.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/velourdrapes/backoffice/internal/api"
)

// User is the stored administrator profile.
type User struct {
	ID    string `toml:"id"`
	Name  string `toml:"name"`
	Email string `toml:"email"`
	Role  string `toml:"role"`
}

// Session is the persisted login state.
type Session struct {
	User       User      `toml:"user"`
	LoggedInAt time.Time `toml:"logged_in_at"`
}

// LoggedIn reports whether a user is recorded.
func (s Session) LoggedIn() bool {
	return strings.TrimSpace(s.User.Email) != ""
}

// Authenticator performs the login call.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
}

const defaultSessionPath = "~/.config/backoffice/session.toml"

// DefaultPath returns the default session file path.
func DefaultPath() string {
	return defaultSessionPath
}

// Load reads the session at path. A missing or unreadable file yields an
// empty session; only an unusable path is an error.
func Load(path string) (Session, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Session{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Session{}, nil // Graceful degradation
	}

	var s Session
	if err := toml.Unmarshal(bytes, &s); err != nil {
		return Session{}, nil // Graceful degradation
	}
	return s, nil
}

// Save writes the session, creating directories as needed. The file is
// private to the user.
func Save(path string, s Session) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	bytes, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes the session file. A missing file is not an error.
func Clear(path string) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.Remove(resolved); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Login authenticates and records the returned user at path.
func Login(ctx context.Context, auth Authenticator, path, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, fmt.Errorf("email and password are required")
	}
	resp, err := auth.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	s := Session{
		User: User{
			ID:    resp.User.ID,
			Name:  resp.User.Name,
			Email: resp.User.Email,
			Role:  resp.User.Role,
		},
		LoggedInAt: time.Now().UTC().Truncate(time.Second),
	}
	if s.User.Email == "" {
		s.User.Email = email
	}
	if err := Save(path, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultSessionPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
