// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/mockboard/internal/middleware"
	"github.com/hitoshi/mockboard/internal/model"
	"github.com/hitoshi/mockboard/internal/store"
)

// BoardStore はハンドラーが利用するStoreの操作。*store.Store が実装する。
type BoardStore interface {
	GetUser(id string) *model.User
	GetPost(id string) *model.Post
	ListPosts() []*model.Post
	ListUserPosts(userID string) []*model.Post
	ListPostComments(postID string) []*model.Comment
	ListUserComments(userID string) []*model.Comment
	CommentCount(postID string) int
	Counts() store.Counts

	CreatePost(actorID, title, content string) (*model.Post, error)
	DeletePost(actorID, postID string) error
	VotePost(actorID, postID string, voteType model.VoteType) (*model.Post, error)
	CreateComment(actorID, postID, content, parentID string) (*model.Comment, error)
	DeleteComment(actorID, commentID string) error
	VoteComment(actorID, commentID string, voteType model.VoteType) (*model.Comment, error)
}

// userResponse はログイン中ユーザー本人に返すユーザー情報。パスワードは含めない。
type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

// publicUserResponse は他のユーザーに公開するプロフィール情報。
type publicUserResponse struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"createdAt"`
	PostCount    int       `json:"postCount"`
	CommentCount int       `json:"commentCount"`
}

type postResponse struct {
	ID           string                    `json:"id"`
	Title        string                    `json:"title"`
	Content      string                    `json:"content"`
	AuthorID     string                    `json:"authorId"`
	AuthorName   string                    `json:"authorName"`
	CreatedAt    time.Time                 `json:"createdAt"`
	Upvotes      int                       `json:"upvotes"`
	Downvotes    int                       `json:"downvotes"`
	Score        int                       `json:"score"`
	VotedBy      map[string]model.VoteType `json:"votedBy"`
	CommentCount int                       `json:"commentCount"`
}

type commentResponse struct {
	ID         string                    `json:"id"`
	Content    string                    `json:"content"`
	AuthorID   string                    `json:"authorId"`
	AuthorName string                    `json:"authorName"`
	PostID     string                    `json:"postId"`
	ParentID   *string                   `json:"parentId"`
	CreatedAt  time.Time                 `json:"createdAt"`
	Upvotes    int                       `json:"upvotes"`
	Downvotes  int                       `json:"downvotes"`
	Score      int                       `json:"score"`
	VotedBy    map[string]model.VoteType `json:"votedBy"`
}

// commentNodeResponse はツリー表示のノード。
// 削除済みの親を表すプレースホルダーはcommentがnullになる。
type commentNodeResponse struct {
	ID         string                `json:"id"`
	Deleted    bool                  `json:"deleted"`
	AuthorName string                `json:"authorName"`
	Comment    *commentResponse      `json:"comment"`
	Children   []commentNodeResponse `json:"children"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

// authorName はユーザー名を返す。ユーザーが存在しない場合は "[deleted]"。
func authorName(s BoardStore, userID string) string {
	if u := s.GetUser(userID); u != nil {
		return u.Username
	}
	return store.DeletedAuthorName
}

func toPostResponse(s BoardStore, p *model.Post) postResponse {
	return postResponse{
		ID:           p.ID,
		Title:        p.Title,
		Content:      p.Content,
		AuthorID:     p.AuthorID,
		AuthorName:   authorName(s, p.AuthorID),
		CreatedAt:    p.CreatedAt,
		Upvotes:      p.Upvotes,
		Downvotes:    p.Downvotes,
		Score:        p.Score(),
		VotedBy:      votedBy(p.VotedBy),
		CommentCount: s.CommentCount(p.ID),
	}
}

func toPostResponses(s BoardStore, posts []*model.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(s, p))
	}
	return out
}

func toCommentResponse(s BoardStore, c *model.Comment) commentResponse {
	var parentID *string
	if !c.IsTopLevel() {
		id := c.ParentID
		parentID = &id
	}
	return commentResponse{
		ID:         c.ID,
		Content:    c.Content,
		AuthorID:   c.AuthorID,
		AuthorName: authorName(s, c.AuthorID),
		PostID:     c.PostID,
		ParentID:   parentID,
		CreatedAt:  c.CreatedAt,
		Upvotes:    c.Upvotes,
		Downvotes:  c.Downvotes,
		Score:      c.Score(),
		VotedBy:    votedBy(c.VotedBy),
	}
}

func toCommentResponses(s BoardStore, comments []*model.Comment) []commentResponse {
	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(s, c))
	}
	return out
}

func toCommentNodeResponses(s BoardStore, nodes []*store.CommentNode) []commentNodeResponse {
	out := make([]commentNodeResponse, 0, len(nodes))
	for _, n := range nodes {
		node := commentNodeResponse{
			ID:         n.ID,
			Deleted:    n.Deleted,
			AuthorName: store.DeletedAuthorName,
			Children:   toCommentNodeResponses(s, n.Children),
		}
		if n.Comment != nil {
			c := toCommentResponse(s, n.Comment)
			node.Comment = &c
			node.AuthorName = c.AuthorName
		}
		out = append(out, node)
	}
	return out
}

// votedBy はJSONでnullにならないよう空マップを補う。
func votedBy(m map[string]model.VoteType) map[string]model.VoteType {
	if m == nil {
		return map[string]model.VoteType{}
	}
	return m
}

// writeJSON はステータスコードとJSONボディを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをdstに読み込む。
// 解析に失敗した場合は400 INVALID_REQUESTを書き込み、falseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return false
	}
	return true
}

func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はStoreやサービスから返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound, model.ErrCodePostNotFound, model.ErrCodeCommentNotFound:
		return http.StatusNotFound
	default:
		if strings.HasSuffix(apiErr.Code, "_NOT_FOUND") {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	}
}

// requireUserID はコンテキストから認証済みユーザーIDを取得する。
// 取得できない場合は401を書き込み、falseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError("Unauthorized"))
		return "", false
	}
	return userID, true
}
