package devidp

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nao1215/filegate/pkg/migration"
)

//go:embed migrations/*.up.sql
var migrationsFS embed.FS

// ErrUserNotFound はユーザーが存在しないことを表す。
var ErrUserNotFound = errors.New("user not found")

// User は開発用IDプロバイダーに登録されたユーザー。
type User struct {
	ID                string
	UserPrincipalName string
	DisplayName       string
	GivenName         string
	Surname           string
	JobTitle          string
	OfficeLocation    string
}

// Store はユーザーをSQLiteに保存する。
type Store struct {
	db *sql.DB
}

// NewStore はマイグレーションを適用してStoreを生成する。
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("マイグレーションに失敗: %w", err)
	}
	return &Store{db: db}, nil
}

const userColumns = `id, user_principal_name, display_name, given_name, surname, job_title, office_location`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.UserPrincipalName, &u.DisplayName, &u.GivenName, &u.Surname, &u.JobTitle, &u.OfficeLocation)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser はIDでユーザーを取得する。
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByPrincipalName はユーザープリンシパル名でユーザーを取得する。
func (s *Store) GetUserByPrincipalName(ctx context.Context, upn string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_principal_name = ?`, upn))
}

// UpsertUser はユーザープリンシパル名が一致するユーザーを返し、存在しなければ作成する。
// 既存ユーザーの場合は最終ログイン日時のみ更新する。
func (s *Store) UpsertUser(ctx context.Context, u User) (*User, error) {
	existing, err := s.GetUserByPrincipalName(ctx, u.UserPrincipalName)
	switch {
	case err == nil:
		if _, err := s.db.ExecContext(ctx,
			`UPDATE users SET last_login_at = datetime('now') WHERE id = ?`, existing.ID); err != nil {
			return nil, fmt.Errorf("最終ログイン日時の更新に失敗: %w", err)
		}
		return existing, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("ユーザー取得に失敗: %w", err)
	}

	u.ID = uuid.New().String()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.UserPrincipalName, u.DisplayName, u.GivenName, u.Surname, u.JobTitle, u.OfficeLocation); err != nil {
		return nil, fmt.Errorf("ユーザー作成に失敗: %w", err)
	}
	return &u, nil
}
