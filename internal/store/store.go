// Package store は掲示板のインメモリデータストアを提供する。
//
// Storeはユーザー・投稿・コメント・投票の唯一の正となる状態を保持し、
// 入力検証、所有者チェック、投票トグルなどの業務ルールをすべて適用する。
// HTTPハンドラー（auth経由）とプロセス内セッション（session経由）の両方が
// 同じStoreを利用するため、ルールの実装はここに一本化されている。
//
// 永続化は行わない。プロセス再起動またはReplace/Resetで状態は初期化される。
package store

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hitoshi/mockboard/internal/model"
)

// Config はStoreの設定。ゼロ値のフィールドにはデフォルト実装が使われる。
type Config struct {
	// Now は現在時刻を返す。テストで時刻を固定するために差し替える。
	Now func() time.Time

	// NewID は "user" / "post" / "comment" のプレフィックスから一意なIDを生成する。
	NewID func(prefix string) string

	// PickAvatar は新規ユーザーのアバター色を選ぶ。
	PickAvatar func() string
}

// Counts はエンティティ種別ごとの件数を表す。
type Counts struct {
	Users    int
	Posts    int
	Comments int
}

// Store は掲示板のインメモリリポジトリ。
// 全操作はミューテックスで保護され、呼び出し側から見てアトミックに実行される。
type Store struct {
	mu       sync.RWMutex
	users    map[string]*model.User
	posts    map[string]*model.Post
	comments map[string]*model.Comment

	listenerMu   sync.Mutex
	listeners    []listenerEntry
	nextListener uint64

	now        func() time.Time
	newID      func(prefix string) string
	pickAvatar func() string
}

// New はStoreを生成する。生成直後のStoreは空で、シードデータはReplaceで投入する。
func New(cfg Config) *Store {
	s := &Store{
		users:      make(map[string]*model.User),
		posts:      make(map[string]*model.Post),
		comments:   make(map[string]*model.Comment),
		now:        cfg.Now,
		newID:      cfg.NewID,
		pickAvatar: cfg.PickAvatar,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = defaultNewID
	}
	if s.pickAvatar == nil {
		s.pickAvatar = defaultPickAvatar
	}
	return s
}

// defaultNewID は "<prefix>-<uuid>" 形式のIDを生成する。
func defaultNewID(prefix string) string {
	return prefix + "-" + uuid.New().String()
}

// defaultPickAvatar はパレットからランダムにアバター色を選ぶ。
func defaultPickAvatar() string {
	return model.AvatarPalette[rand.IntN(len(model.AvatarPalette))]
}

// GetUser は指定IDのユーザーを返す。見つからない場合はnilを返す。
func (s *Store) GetUser(id string) *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[id].Clone()
}

// GetPost は指定IDの投稿を返す。見つからない場合はnilを返す。
func (s *Store) GetPost(id string) *model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.posts[id].Clone()
}

// GetComment は指定IDのコメントを返す。見つからない場合はnilを返す。
func (s *Store) GetComment(id string) *model.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.comments[id].Clone()
}

// ListPosts は全投稿を作成日時の降順で返す。
func (s *Store) ListPosts() []*model.Post {
	return s.filterPosts(func(*model.Post) bool { return true })
}

// ListUserPosts は指定ユーザーの投稿を作成日時の降順で返す。
func (s *Store) ListUserPosts(userID string) []*model.Post {
	return s.filterPosts(func(p *model.Post) bool { return p.AuthorID == userID })
}

// ListPostComments は指定投稿のコメントを作成日時の降順で返す。
// ツリー構造はBuildCommentTreeで読み出し側が構築する。
func (s *Store) ListPostComments(postID string) []*model.Comment {
	return s.filterComments(func(c *model.Comment) bool { return c.PostID == postID })
}

// ListUserComments は指定ユーザーのコメントを作成日時の降順で返す。
func (s *Store) ListUserComments(userID string) []*model.Comment {
	return s.filterComments(func(c *model.Comment) bool { return c.AuthorID == userID })
}

// CommentCount は指定投稿に付いたコメント数を返す。
func (s *Store) CommentCount(postID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, c := range s.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n
}

// Counts はユーザー・投稿・コメントの件数を返す。
func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Users:    len(s.users),
		Posts:    len(s.posts),
		Comments: len(s.comments),
	}
}

func (s *Store) filterPosts(keep func(*model.Post) bool) []*model.Post {
	s.mu.RLock()
	result := make([]*model.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if keep(p) {
			result = append(result, p.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})
	return result
}

func (s *Store) filterComments(keep func(*model.Comment) bool) []*model.Comment {
	s.mu.RLock()
	result := make([]*model.Comment, 0)
	for _, c := range s.comments {
		if keep(c) {
			result = append(result, c.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})
	return result
}

// newerFirst は作成日時の降順、同時刻の場合はIDの降順で並べるための比較関数。
func newerFirst(a, b time.Time, aID, bID string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID > bID
}

// requireActor は操作ユーザーが存在することを確認する。
// 呼び出し側でロックを保持していること。
func (s *Store) requireActor(actorID, message string) (*model.User, error) {
	if actorID == "" {
		return nil, model.NewUnauthorizedError(message)
	}
	u, ok := s.users[actorID]
	if !ok {
		return nil, model.NewUnauthorizedError(message)
	}
	return u, nil
}

// charCount は文字数（バイト数ではなくrune数）を返す。
func charCount(v string) int {
	return utf8.RuneCountInString(v)
}
