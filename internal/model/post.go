package model

import "time"

// VoteType は投票の種別を表す。
type VoteType string

const (
	// VoteUp は賛成票。
	VoteUp VoteType = "up"
	// VoteDown は反対票。
	VoteDown VoteType = "down"
)

// Valid は投票種別が up / down のいずれかであるかを返す。
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Votes は投稿・コメント共通の投票状態を表す。
// Upvotes / Downvotes は常に VotedBy 内の up / down エントリ数と一致する。
type Votes struct {
	Upvotes   int
	Downvotes int
	VotedBy   map[string]VoteType // userID -> 投票種別
}

// Score は賛成票数から反対票数を引いた値を返す。
func (v Votes) Score() int {
	return v.Upvotes - v.Downvotes
}

// clone はVotedByを含めたコピーを返す。
func (v Votes) clone() Votes {
	c := Votes{
		Upvotes:   v.Upvotes,
		Downvotes: v.Downvotes,
		VotedBy:   make(map[string]VoteType, len(v.VotedBy)),
	}
	for userID, t := range v.VotedBy {
		c.VotedBy[userID] = t
	}
	return c
}

// Post は掲示板の投稿を表す。
type Post struct {
	ID        string
	Title     string
	Content   string
	AuthorID  string
	CreatedAt time.Time
	Votes
}

// Clone は投票状態を含めた投稿のディープコピーを返す。
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	c.Votes = p.Votes.clone()
	return &c
}

// Comment は投稿に付くコメントを表す。
// ParentIDが空文字列の場合はトップレベルのコメント。
type Comment struct {
	ID        string
	Content   string
	AuthorID  string
	PostID    string
	ParentID  string
	CreatedAt time.Time
	Votes
}

// IsTopLevel は返信ではないトップレベルのコメントかどうかを返す。
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == ""
}

// Clone は投票状態を含めたコメントのディープコピーを返す。
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	cc := *c
	cc.Votes = c.Votes.clone()
	return &cc
}
