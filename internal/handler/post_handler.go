package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/mockboard/internal/model"
)

// PostHandler は投稿関連のHTTPハンドラー。
type PostHandler struct {
	store BoardStore
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(store BoardStore) *PostHandler {
	return &PostHandler{store: store}
}

type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type voteRequest struct {
	VoteType model.VoteType `json:"voteType"`
}

// ListPosts は全投稿を新しい順に返す。
// GET /api/posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts := toPostResponses(h.store, h.store.ListPosts())
	writeJSON(w, http.StatusOK, map[string][]postResponse{"posts": posts})
}

// CreatePost は投稿を作成する。
// POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createPostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.store.CreatePost(userID, req.Title, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]postResponse{"post": toPostResponse(h.store, post)})
}

// GetPost は投稿を1件返す。
// GET /api/posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post := h.store.GetPost(chi.URLParam(r, "id"))
	if post == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError())
		return
	}
	writeJSON(w, http.StatusOK, map[string]postResponse{"post": toPostResponse(h.store, post)})
}

// DeletePost は投稿とそのコメントを削除する。
// DELETE /api/posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeletePost(userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// VotePost は投稿に投票する。同じ種別で再度投票すると取り消しになる。
// POST /api/posts/{id}/vote
func (h *PostHandler) VotePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req voteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.store.VotePost(userID, chi.URLParam(r, "id"), req.VoteType)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]postResponse{"post": toPostResponse(h.store, post)})
}
