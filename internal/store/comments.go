package store

import "github.com/hitoshi/mockboard/internal/model"

const minCommentLength = 2

// CreateComment はactorIDのユーザーとしてコメントを作成する。
// parentIDが空文字列の場合はトップレベルのコメントになる。
// parentIDが既存コメントを指しているかは検証しない（宙に浮いた返信も受け付ける）。
func (s *Store) CreateComment(actorID, postID, content, parentID string) (*model.Comment, error) {
	s.mu.Lock()
	if _, err := s.requireActor(actorID, "You must be logged in to comment"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if charCount(content) < minCommentLength {
		s.mu.Unlock()
		return nil, model.NewValidationError("Comment must be at least 2 characters")
	}
	if _, ok := s.posts[postID]; !ok {
		s.mu.Unlock()
		return nil, model.NewPostNotFoundError()
	}

	comment := &model.Comment{
		ID:        s.newID("comment"),
		Content:   content,
		AuthorID:  actorID,
		PostID:    postID,
		ParentID:  parentID,
		CreatedAt: s.now(),
		Votes:     model.Votes{VotedBy: make(map[string]model.VoteType)},
	}
	s.comments[comment.ID] = comment
	result := comment.Clone()
	s.mu.Unlock()

	s.Notify(Event{Kind: EventCommentCreated, ID: comment.ID, ActorID: actorID})
	return result, nil
}

// DeleteComment はコメントを削除する。コメント投稿者本人のみ実行できる。
// 返信コメントは削除しない（親を失った返信として残る）。
func (s *Store) DeleteComment(actorID, commentID string) error {
	s.mu.Lock()
	if _, err := s.requireActor(actorID, "You must be logged in"); err != nil {
		s.mu.Unlock()
		return err
	}
	comment, ok := s.comments[commentID]
	if !ok {
		s.mu.Unlock()
		return model.NewCommentNotFoundError()
	}
	if comment.AuthorID != actorID {
		s.mu.Unlock()
		return model.NewForbiddenError("You can only delete your own comments")
	}

	delete(s.comments, commentID)
	s.mu.Unlock()

	s.Notify(Event{Kind: EventCommentDeleted, ID: commentID, ActorID: actorID})
	return nil
}

// VoteComment はコメントへの投票をトグルし、更新後のコメントを返す。
func (s *Store) VoteComment(actorID, commentID string, voteType model.VoteType) (*model.Comment, error) {
	s.mu.Lock()
	if _, err := s.requireActor(actorID, "You must be logged in to vote"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	comment, ok := s.comments[commentID]
	if !ok {
		s.mu.Unlock()
		return nil, model.NewCommentNotFoundError()
	}
	if !voteType.Valid() {
		s.mu.Unlock()
		return nil, model.NewValidationError("Vote type must be 'up' or 'down'")
	}

	applyVote(&comment.Votes, actorID, voteType)
	result := comment.Clone()
	s.mu.Unlock()

	s.Notify(Event{Kind: EventCommentVoted, ID: commentID, ActorID: actorID})
	return result, nil
}
