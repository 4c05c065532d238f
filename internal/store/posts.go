package store

import "github.com/hitoshi/mockboard/internal/model"

const (
	minTitleLength       = 5
	minPostContentLength = 10
)

// CreatePost はactorIDのユーザーとして投稿を作成する。
// 検証順序: ログイン確認 → タイトル長 → 本文長。投票数0で保存する。
func (s *Store) CreatePost(actorID, title, content string) (*model.Post, error) {
	s.mu.Lock()
	if _, err := s.requireActor(actorID, "You must be logged in to create a post"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if charCount(title) < minTitleLength {
		s.mu.Unlock()
		return nil, model.NewValidationError("Title must be at least 5 characters")
	}
	if charCount(content) < minPostContentLength {
		s.mu.Unlock()
		return nil, model.NewValidationError("Content must be at least 10 characters")
	}

	post := &model.Post{
		ID:        s.newID("post"),
		Title:     title,
		Content:   content,
		AuthorID:  actorID,
		CreatedAt: s.now(),
		Votes:     model.Votes{VotedBy: make(map[string]model.VoteType)},
	}
	s.posts[post.ID] = post
	result := post.Clone()
	s.mu.Unlock()

	s.Notify(Event{Kind: EventPostCreated, ID: post.ID, ActorID: actorID})
	return result, nil
}

// DeletePost は投稿を削除する。投稿者本人のみ実行できる。
// 関連コメント（PostIDが一致するもの）を先に全て削除してから投稿を削除する。
func (s *Store) DeletePost(actorID, postID string) error {
	s.mu.Lock()
	if _, err := s.requireActor(actorID, "You must be logged in"); err != nil {
		s.mu.Unlock()
		return err
	}
	post, ok := s.posts[postID]
	if !ok {
		s.mu.Unlock()
		return model.NewPostNotFoundError()
	}
	if post.AuthorID != actorID {
		s.mu.Unlock()
		return model.NewForbiddenError("You can only delete your own posts")
	}

	for id, c := range s.comments {
		if c.PostID == postID {
			delete(s.comments, id)
		}
	}
	delete(s.posts, postID)
	s.mu.Unlock()

	s.Notify(Event{Kind: EventPostDeleted, ID: postID, ActorID: actorID})
	return nil
}

// VotePost は投稿への投票をトグルし、更新後の投稿を返す。
func (s *Store) VotePost(actorID, postID string, voteType model.VoteType) (*model.Post, error) {
	s.mu.Lock()
	if _, err := s.requireActor(actorID, "You must be logged in to vote"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	post, ok := s.posts[postID]
	if !ok {
		s.mu.Unlock()
		return nil, model.NewPostNotFoundError()
	}
	if !voteType.Valid() {
		s.mu.Unlock()
		return nil, model.NewValidationError("Vote type must be 'up' or 'down'")
	}

	applyVote(&post.Votes, actorID, voteType)
	result := post.Clone()
	s.mu.Unlock()

	s.Notify(Event{Kind: EventPostVoted, ID: postID, ActorID: actorID})
	return result, nil
}
