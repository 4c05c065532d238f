package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/mockboard/internal/middleware"
	"github.com/hitoshi/mockboard/internal/model"
	"github.com/hitoshi/mockboard/internal/store"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// --- テストヘルパー ---

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// decodeBody はレスポンスボディをdstにデコードするヘルパー。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v (body=%s)", err, w.Body.String())
	}
}

// newFixtureStore はalice / bobと2件の投稿、3件のコメントを持つStoreを返す。
//
//	p-1 (alice)  bobが賛成票
//	  c-1 (bob)
//	    c-2 (alice) c-1への返信
//	  c-3 (bob)   存在しない c-gone への返信
//	p-2 (bob)
func newFixtureStore(t *testing.T) *store.Store {
	t.Helper()
	seq := 0
	st := store.New(store.Config{
		Now: func() time.Time { return baseTime },
		NewID: func(prefix string) string {
			seq++
			return fmt.Sprintf("%s-new-%d", prefix, seq)
		},
		PickAvatar: func() string { return "#45B7D1" },
	})

	users := []*model.User{
		{ID: "u-alice", Username: "alice", Email: "alice@example.com", Password: "secret1", Avatar: "#FF6B6B", CreatedAt: baseTime.Add(-48 * time.Hour)},
		{ID: "u-bob", Username: "bob", Email: "bob@example.com", Password: "secret2", Avatar: "#4ECDC4", CreatedAt: baseTime.Add(-24 * time.Hour)},
	}
	posts := []*model.Post{
		{
			ID: "p-1", Title: "First post here", Content: "Content of the first post", AuthorID: "u-alice",
			CreatedAt: baseTime.Add(-2 * time.Hour),
			Votes:     model.Votes{VotedBy: map[string]model.VoteType{"u-bob": model.VoteUp}},
		},
		{ID: "p-2", Title: "Second post", Content: "Content of the second post", AuthorID: "u-bob", CreatedAt: baseTime.Add(-1 * time.Hour)},
	}
	comments := []*model.Comment{
		{ID: "c-1", Content: "Nice post", AuthorID: "u-bob", PostID: "p-1", CreatedAt: baseTime.Add(-30 * time.Minute)},
		{ID: "c-2", Content: "Thanks!", AuthorID: "u-alice", PostID: "p-1", ParentID: "c-1", CreatedAt: baseTime.Add(-20 * time.Minute)},
		{ID: "c-3", Content: "Replying to a ghost", AuthorID: "u-bob", PostID: "p-1", ParentID: "c-gone", CreatedAt: baseTime.Add(-10 * time.Minute)},
	}
	if err := st.Replace(users, posts, comments); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	return st
}
