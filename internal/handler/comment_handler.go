package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/mockboard/internal/store"
)

// CommentHandler はコメント関連のHTTPハンドラー。
type CommentHandler struct {
	store BoardStore
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(s BoardStore) *CommentHandler {
	return &CommentHandler{store: s}
}

type createCommentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parentId"`
}

// ListComments は投稿のコメントを新しい順に返す。
// view=tree の場合は返信関係をたどったツリーで返す。
// 存在しない投稿IDには空の一覧を返す。
// GET /api/posts/{id}/comments
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments := h.store.ListPostComments(chi.URLParam(r, "id"))

	if r.URL.Query().Get("view") == "tree" {
		tree := toCommentNodeResponses(h.store, store.BuildCommentTree(comments))
		writeJSON(w, http.StatusOK, map[string][]commentNodeResponse{"tree": tree})
		return
	}

	writeJSON(w, http.StatusOK, map[string][]commentResponse{"comments": toCommentResponses(h.store, comments)})
}

// CreateComment は投稿にコメントする。parentIdを指定すると返信になる。
// POST /api/posts/{id}/comments
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var parentID string
	if req.ParentID != nil {
		parentID = *req.ParentID
	}

	comment, err := h.store.CreateComment(userID, chi.URLParam(r, "id"), req.Content, parentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]commentResponse{"comment": toCommentResponse(h.store, comment)})
}

// DeleteComment はコメントを削除する。返信は削除しない。
// DELETE /api/comments/{id}
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteComment(userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// VoteComment はコメントに投票する。
// POST /api/comments/{id}/vote
func (h *CommentHandler) VoteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req voteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.store.VoteComment(userID, chi.URLParam(r, "id"), req.VoteType)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]commentResponse{"comment": toCommentResponse(h.store, comment)})
}
