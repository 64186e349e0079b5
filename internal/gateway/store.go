package gateway

import (
	"context"
	"database/sql"
	"fmt"
)

// user はgatewayローカルに保存されるユーザーレコード。
type user struct {
	// ID はユーザーの一意識別子（UUID）。
	ID string
	// Email はユーザーのメールアドレス。
	Email string
	// DisplayName は表示名。
	DisplayName string
	// Role はユーザーのロール。
	Role string
}

// userStore はusersテーブルへのクエリをまとめたもの。
type userStore struct {
	db *sql.DB
}

// create はユーザーレコードを挿入する。
func (s *userStore) create(ctx context.Context, u user) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, role) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.DisplayName, u.Role,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの挿入に失敗: %w", err)
	}
	return nil
}

// byID は指定IDのユーザーを取得する。
// 存在しない場合はsql.ErrNoRowsを返す。
func (s *userStore) byID(ctx context.Context, id string) (*user, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, role FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// byEmail は指定メールアドレスのユーザーを取得する。
// 存在しない場合はsql.ErrNoRowsを返す。
func (s *userStore) byEmail(ctx context.Context, email string) (*user, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, role FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// first は作成日時が最も古いユーザーを取得する。
// ユーザーが1件も存在しない場合はsql.ErrNoRowsを返す。
func (s *userStore) first(ctx context.Context) (*user, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, role FROM users ORDER BY created_at, id LIMIT 1`)
	return scanUser(row)
}

// touchLastLogin は最終ログイン日時を現在時刻に更新する。
func (s *userStore) touchLastLogin(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = datetime('now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("最終ログイン日時の更新に失敗: %w", err)
	}
	return nil
}

// scanUser は1行分のクエリ結果をuserに変換する。
func scanUser(row *sql.Row) (*user, error) {
	var u user
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role); err != nil {
		return nil, err
	}
	return &u, nil
}
