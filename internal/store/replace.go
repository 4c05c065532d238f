package store

import (
	"fmt"
	"strings"

	"github.com/hitoshi/mockboard/internal/model"
)

// Replace は全データを指定されたユーザー・投稿・コメントでアトミックに置き換える。
// シード投入とリセットで使用する。
//
// 置き換え前に参照整合性を検証し、違反がある場合は何も変更せずにエラーを返す:
//   - IDの重複、空ID
//   - ユーザー名・メールアドレスの重複（大文字小文字を区別しない）
//   - 存在しない投稿者・投稿への参照
//   - 存在しないユーザーによる投票、不正な投票種別
//
// 投票カウンタは渡された値を使わず、VotedByから再計算する。
func (s *Store) Replace(users []*model.User, posts []*model.Post, comments []*model.Comment) error {
	nextUsers := make(map[string]*model.User, len(users))
	usernames := make(map[string]struct{}, len(users))
	emails := make(map[string]struct{}, len(users))
	for _, u := range users {
		if u.ID == "" {
			return fmt.Errorf("user %q has an empty id", u.Username)
		}
		if _, dup := nextUsers[u.ID]; dup {
			return fmt.Errorf("duplicate user id: %s", u.ID)
		}
		name := strings.ToLower(u.Username)
		if _, dup := usernames[name]; dup {
			return fmt.Errorf("duplicate username: %s", u.Username)
		}
		mail := strings.ToLower(u.Email)
		if _, dup := emails[mail]; dup {
			return fmt.Errorf("duplicate email: %s", u.Email)
		}
		usernames[name] = struct{}{}
		emails[mail] = struct{}{}
		nextUsers[u.ID] = u.Clone()
	}

	nextPosts := make(map[string]*model.Post, len(posts))
	for _, p := range posts {
		if p.ID == "" {
			return fmt.Errorf("post %q has an empty id", p.Title)
		}
		if _, dup := nextPosts[p.ID]; dup {
			return fmt.Errorf("duplicate post id: %s", p.ID)
		}
		if _, ok := nextUsers[p.AuthorID]; !ok {
			return fmt.Errorf("post %s references unknown author %s", p.ID, p.AuthorID)
		}
		if err := checkVoters(p.VotedBy, nextUsers); err != nil {
			return fmt.Errorf("post %s: %w", p.ID, err)
		}
		c := p.Clone()
		recountVotes(&c.Votes)
		nextPosts[c.ID] = c
	}

	nextComments := make(map[string]*model.Comment, len(comments))
	for _, cm := range comments {
		if cm.ID == "" {
			return fmt.Errorf("comment on post %s has an empty id", cm.PostID)
		}
		if _, dup := nextComments[cm.ID]; dup {
			return fmt.Errorf("duplicate comment id: %s", cm.ID)
		}
		if _, ok := nextUsers[cm.AuthorID]; !ok {
			return fmt.Errorf("comment %s references unknown author %s", cm.ID, cm.AuthorID)
		}
		if _, ok := nextPosts[cm.PostID]; !ok {
			return fmt.Errorf("comment %s references unknown post %s", cm.ID, cm.PostID)
		}
		if err := checkVoters(cm.VotedBy, nextUsers); err != nil {
			return fmt.Errorf("comment %s: %w", cm.ID, err)
		}
		c := cm.Clone()
		recountVotes(&c.Votes)
		nextComments[c.ID] = c
	}

	s.mu.Lock()
	s.users = nextUsers
	s.posts = nextPosts
	s.comments = nextComments
	s.mu.Unlock()

	s.Notify(Event{Kind: EventStoreReset})
	return nil
}

// Reset は全データを消去する。
func (s *Store) Reset() {
	// 空データの置き換えは検証エラーにならない
	_ = s.Replace(nil, nil, nil)
}

func checkVoters(votedBy map[string]model.VoteType, users map[string]*model.User) error {
	for userID, t := range votedBy {
		if _, ok := users[userID]; !ok {
			return fmt.Errorf("vote by unknown user %s", userID)
		}
		if !t.Valid() {
			return fmt.Errorf("invalid vote type %q by %s", t, userID)
		}
	}
	return nil
}
