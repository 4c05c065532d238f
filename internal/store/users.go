package store

import (
	"strings"

	"github.com/hitoshi/mockboard/internal/model"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

// RegisterUser は新規ユーザーを登録する。
// 検証順序: ユーザー名の長さ → メール形式 → パスワードの長さ → ユーザー名重複 → メール重複。
// 重複判定は大文字小文字を区別しない。最初に違反したルールのValidationErrorを返す。
// セッションの確立は呼び出し側（auth / session）の責務。
func (s *Store) RegisterUser(username, email, password string) (*model.User, error) {
	if charCount(username) < minUsernameLength {
		return nil, model.NewValidationError("Username must be at least 3 characters")
	}
	if !strings.Contains(email, "@") {
		return nil, model.NewValidationError("Please enter a valid email address")
	}
	if charCount(password) < minPasswordLength {
		return nil, model.NewValidationError("Password must be at least 6 characters")
	}

	s.mu.Lock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			s.mu.Unlock()
			return nil, model.NewValidationError("Username already taken")
		}
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			s.mu.Unlock()
			return nil, model.NewValidationError("Email already registered")
		}
	}

	user := &model.User{
		ID:        s.newID("user"),
		Username:  username,
		Email:     email,
		Password:  password,
		CreatedAt: s.now(),
		Avatar:    s.pickAvatar(),
	}
	s.users[user.ID] = user
	result := user.Clone()
	s.mu.Unlock()

	s.Notify(Event{Kind: EventUserRegistered, ID: user.ID, ActorID: user.ID})
	return result, nil
}

// Authenticate はユーザー名（大文字小文字を区別しない）とパスワード（完全一致）で
// ユーザーを照合する。状態は変更しないためイベントは発行しない。
func (s *Store) Authenticate(username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, model.NewValidationError("Please enter username and password")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) && u.Password == password {
			return u.Clone(), nil
		}
	}
	return nil, model.NewInvalidCredentialsError()
}
