// Package session はプロセス内で1つのログイン状態を保持するStoreのラッパーを提供する。
//
// 画面操作を模した呼び出し元（CLIや組み込みテスト）向けで、HTTP APIのように
// 複数トークンを扱う場合はauthパッケージを使う。
package session

import (
	"sync"
	"time"

	"github.com/hitoshi/mockboard/internal/auth"
	"github.com/hitoshi/mockboard/internal/model"
	"github.com/hitoshi/mockboard/internal/store"
)

// Session は現在のユーザーとトークンを1組だけ保持する。
// 変更操作は現在のユーザーとしてStoreに委譲され、未ログイン時はUnauthorizedになる。
type Session struct {
	store *store.Store
	now   func() time.Time

	mu    sync.RWMutex
	user  *model.User
	token string
}

// New はSessionを生成する。生成直後は未ログイン状態。
func New(st *store.Store) *Session {
	return &Session{store: st, now: time.Now}
}

// Register はユーザーを登録し、そのままログイン状態にする。
// 通知はStoreのuser.registeredの1回のみ。
func (s *Session) Register(username, email, password string) (*model.User, error) {
	user, err := s.store.RegisterUser(username, email, password)
	if err != nil {
		return nil, err
	}
	s.establish(user)
	return user, nil
}

// Login は認証に成功したユーザーでログイン状態を確立し、user.loginを通知する。
func (s *Session) Login(username, password string) (*model.User, error) {
	user, err := s.store.Authenticate(username, password)
	if err != nil {
		return nil, err
	}
	s.establish(user)
	s.store.Notify(store.Event{Kind: store.EventUserLogin, ID: user.ID, ActorID: user.ID})
	return user, nil
}

// Logout はログイン状態を破棄し、常にuser.logoutを通知する。
func (s *Session) Logout() {
	s.mu.Lock()
	var userID string
	if s.user != nil {
		userID = s.user.ID
	}
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	s.store.Notify(store.Event{Kind: store.EventUserLogout, ID: userID, ActorID: userID})
}

// CurrentUser はログイン中のユーザーを返す。未ログインの場合はnil。
func (s *Session) CurrentUser() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// Token はログイン中のセッショントークンを返す。未ログインの場合は空文字列。
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) CreatePost(title, content string) (*model.Post, error) {
	return s.store.CreatePost(s.actorID(), title, content)
}

func (s *Session) DeletePost(postID string) error {
	return s.store.DeletePost(s.actorID(), postID)
}

func (s *Session) VotePost(postID string, voteType model.VoteType) (*model.Post, error) {
	return s.store.VotePost(s.actorID(), postID, voteType)
}

func (s *Session) CreateComment(postID, content, parentID string) (*model.Comment, error) {
	return s.store.CreateComment(s.actorID(), postID, content, parentID)
}

func (s *Session) DeleteComment(commentID string) error {
	return s.store.DeleteComment(s.actorID(), commentID)
}

func (s *Session) VoteComment(commentID string, voteType model.VoteType) (*model.Comment, error) {
	return s.store.VoteComment(s.actorID(), commentID, voteType)
}

func (s *Session) establish(user *model.User) {
	token := auth.IssueToken(user.ID, s.now())
	s.mu.Lock()
	s.user = user.Clone()
	s.token = token
	s.mu.Unlock()
}

func (s *Session) actorID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}
