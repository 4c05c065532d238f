package handler

import "github.com/hitoshi/mockboard/internal/model"

// ContentSanitizer は応答に含める投稿・コメントのテキストを無害化する。
// security.ContentSanitizerServiceの部分集合として定義する。
type ContentSanitizer interface {
	Sanitize(raw string) string
}

// sanitizingStore はBoardStoreから読み出した投稿のタイトル・本文とコメント本文を
// 応答用に無害化する。書き込みはそのまま委譲し、Storeに保存される値は変更しない。
type sanitizingStore struct {
	BoardStore
	sanitizer ContentSanitizer
}

func newSanitizingStore(s BoardStore, sanitizer ContentSanitizer) *sanitizingStore {
	return &sanitizingStore{BoardStore: s, sanitizer: sanitizer}
}

func (s *sanitizingStore) post(p *model.Post) *model.Post {
	if p == nil {
		return nil
	}
	out := p.Clone()
	out.Title = s.sanitizer.Sanitize(out.Title)
	out.Content = s.sanitizer.Sanitize(out.Content)
	return out
}

func (s *sanitizingStore) posts(in []*model.Post) []*model.Post {
	out := make([]*model.Post, 0, len(in))
	for _, p := range in {
		out = append(out, s.post(p))
	}
	return out
}

func (s *sanitizingStore) comment(c *model.Comment) *model.Comment {
	if c == nil {
		return nil
	}
	out := c.Clone()
	out.Content = s.sanitizer.Sanitize(out.Content)
	return out
}

func (s *sanitizingStore) comments(in []*model.Comment) []*model.Comment {
	out := make([]*model.Comment, 0, len(in))
	for _, c := range in {
		out = append(out, s.comment(c))
	}
	return out
}

func (s *sanitizingStore) GetPost(id string) *model.Post {
	return s.post(s.BoardStore.GetPost(id))
}

func (s *sanitizingStore) ListPosts() []*model.Post {
	return s.posts(s.BoardStore.ListPosts())
}

func (s *sanitizingStore) ListUserPosts(userID string) []*model.Post {
	return s.posts(s.BoardStore.ListUserPosts(userID))
}

func (s *sanitizingStore) ListPostComments(postID string) []*model.Comment {
	return s.comments(s.BoardStore.ListPostComments(postID))
}

func (s *sanitizingStore) ListUserComments(userID string) []*model.Comment {
	return s.comments(s.BoardStore.ListUserComments(userID))
}

func (s *sanitizingStore) CreatePost(actorID, title, content string) (*model.Post, error) {
	p, err := s.BoardStore.CreatePost(actorID, title, content)
	if err != nil {
		return nil, err
	}
	return s.post(p), nil
}

func (s *sanitizingStore) VotePost(actorID, postID string, voteType model.VoteType) (*model.Post, error) {
	p, err := s.BoardStore.VotePost(actorID, postID, voteType)
	if err != nil {
		return nil, err
	}
	return s.post(p), nil
}

func (s *sanitizingStore) CreateComment(actorID, postID, content, parentID string) (*model.Comment, error) {
	c, err := s.BoardStore.CreateComment(actorID, postID, content, parentID)
	if err != nil {
		return nil, err
	}
	return s.comment(c), nil
}

func (s *sanitizingStore) VoteComment(actorID, commentID string, voteType model.VoteType) (*model.Comment, error) {
	c, err := s.BoardStore.VoteComment(actorID, commentID, voteType)
	if err != nil {
		return nil, err
	}
	return s.comment(c), nil
}
