package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/mockboard/internal/model"
)

// UserHandler はユーザープロフィールのHTTPハンドラー。
type UserHandler struct {
	store BoardStore
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(store BoardStore) *UserHandler {
	return &UserHandler{store: store}
}

// GetUser はユーザーの公開プロフィールを返す。メールアドレスは含めない。
// GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user := h.store.GetUser(chi.URLParam(r, "id"))
	if user == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	writeJSON(w, http.StatusOK, map[string]publicUserResponse{"user": {
		ID:           user.ID,
		Username:     user.Username,
		Avatar:       user.Avatar,
		CreatedAt:    user.CreatedAt,
		PostCount:    len(h.store.ListUserPosts(user.ID)),
		CommentCount: len(h.store.ListUserComments(user.ID)),
	}})
}

// ListUserPosts はユーザーの投稿を新しい順に返す。
// GET /api/users/{id}/posts
func (h *UserHandler) ListUserPosts(w http.ResponseWriter, r *http.Request) {
	posts := h.store.ListUserPosts(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string][]postResponse{"posts": toPostResponses(h.store, posts)})
}

// ListUserComments はユーザーのコメントを新しい順に返す。
// GET /api/users/{id}/comments
func (h *UserHandler) ListUserComments(w http.ResponseWriter, r *http.Request) {
	comments := h.store.ListUserComments(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string][]commentResponse{"comments": toCommentResponses(h.store, comments)})
}
