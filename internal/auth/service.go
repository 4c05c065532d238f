// Package auth はHTTP API向けのBearerトークンセッション管理を提供する。
package auth

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/mockboard/internal/model"
	"github.com/hitoshi/mockboard/internal/store"
)

// UserStore は認証サービスが利用するStoreの操作。
type UserStore interface {
	RegisterUser(username, email, password string) (*model.User, error)
	Authenticate(username, password string) (*model.User, error)
	GetUser(id string) *model.User
	Notify(ev store.Event)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// Now はトークン発行時刻を返す。nilの場合はtime.Now。
	Now func() time.Time
}

// Service はトークン発行・照合・失効を提供する。
// トークンはuserIDへの対応表としてメモリ上に保持し、有効期限は持たない。
type Service struct {
	users UserStore
	now   func() time.Time

	mu     sync.RWMutex
	tokens map[string]string // token -> userID
}

// NewService はServiceを生成する。
func NewService(users UserStore, config ServiceConfig) *Service {
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		users:  users,
		now:    now,
		tokens: make(map[string]string),
	}
}

// IssueToken は "token-<userID>-<unixMillis>" 形式のトークン文字列を生成する。
func IssueToken(userID string, at time.Time) string {
	return fmt.Sprintf("token-%s-%d", userID, at.UnixMilli())
}

// Register はユーザーを登録し、そのユーザーのトークンを発行する。
// 登録イベントはStoreが発行するため、ここでは追加の通知を行わない。
func (s *Service) Register(username, email, password string) (*model.User, string, error) {
	user, err := s.users.RegisterUser(username, email, password)
	if err != nil {
		return nil, "", err
	}

	token := s.issue(user.ID)
	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, token, nil
}

// Login は認証に成功したユーザーにトークンを発行する。
func (s *Service) Login(username, password string) (*model.User, string, error) {
	user, err := s.users.Authenticate(username, password)
	if err != nil {
		return nil, "", err
	}

	token := s.issue(user.ID)
	s.users.Notify(store.Event{Kind: store.EventUserLogin, ID: user.ID, ActorID: user.ID})
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return user, token, nil
}

// Logout はトークンを失効させる。未知のトークンでもエラーにはしない。
func (s *Service) Logout(token string) {
	s.mu.Lock()
	userID, ok := s.tokens[token]
	delete(s.tokens, token)
	s.mu.Unlock()

	if !ok {
		return
	}
	s.users.Notify(store.Event{Kind: store.EventUserLogout, ID: userID, ActorID: userID})
	slog.Info("user logged out", slog.String("user_id", userID))
}

// UserIDForToken はトークンに対応するユーザーIDを返す。
func (s *Service) UserIDForToken(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.tokens[token]
	return userID, ok
}

// CurrentUser はトークンに対応するユーザーを返す。
// トークンが未知の場合、またはユーザーが既に存在しない場合はUnauthorizedエラーを返す。
func (s *Service) CurrentUser(token string) (*model.User, error) {
	userID, ok := s.UserIDForToken(token)
	if !ok {
		return nil, model.NewUnauthorizedError("Unauthorized")
	}
	user := s.users.GetUser(userID)
	if user == nil {
		return nil, model.NewUnauthorizedError("Unauthorized")
	}
	return user, nil
}

// Reset は全トークンを失効させる。
func (s *Service) Reset() {
	s.mu.Lock()
	n := len(s.tokens)
	s.tokens = make(map[string]string)
	s.mu.Unlock()

	slog.Info("all sessions revoked", slog.Int("count", n))
}

// SessionCount は有効なトークン数を返す。
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

func (s *Service) issue(userID string) string {
	token := IssueToken(userID, s.now())
	s.mu.Lock()
	s.tokens[token] = userID
	s.mu.Unlock()
	return token
}
