package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/mockboard/internal/auth"
	"github.com/hitoshi/mockboard/internal/metrics"
	"github.com/hitoshi/mockboard/internal/seed"
	"github.com/hitoshi/mockboard/internal/store"
	"github.com/hitoshi/mockboard/internal/worker/reset"
	"github.com/prometheus/client_golang/prometheus"
)

// integrationEnv は実際のStore・認証サービス・リセットジョブを組み合わせたテスト環境。
type integrationEnv struct {
	store  *store.Store
	auth   *auth.Service
	router http.Handler
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()

	st := store.New(store.Config{})
	tokens := auth.NewService(st, auth.ServiceConfig{})

	ds, err := seed.Default()
	if err != nil {
		t.Fatalf("seed.Default() error = %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	job := reset.NewResetJob(st, tokens, ds, logger)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	st.Subscribe(metrics.StoreListener(collector, st))

	if err := job.Run(t.Context()); err != nil {
		t.Fatalf("initial reset error = %v", err)
	}

	router := NewRouter(&RouterDeps{
		TokenFinder:       tokens,
		CORSAllowedOrigin: "http://localhost:3000",
		Logger:            logger,
		HTTPMetrics:       collector,
		AuthService:       tokens,
		Store:             st,
		Sessions:          tokens,
		Resetter:          job,
		MetricsHandler:    metrics.Handler(reg),
	})

	return &integrationEnv{store: st, auth: tokens, router: router}
}

// do はJSONボディ付きのリクエストを送り、レスポンスを返す。
func (e *integrationEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func expectStatus(t *testing.T, step string, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("%s: status = %d, want %d (body=%s)", step, w.Code, want, w.Body.String())
	}
}

// --- エンドツーエンド統合テスト ---

// TestIntegration_BoardFlow は登録から投稿・投票・コメント・削除までの一連の流れを検証する。
func TestIntegration_BoardFlow(t *testing.T) {
	env := newIntegrationEnv(t)

	// 1. 登録
	w := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "secret1",
	})
	expectStatus(t, "register", w, http.StatusCreated)
	var reg authResponse
	decodeBody(t, w, &reg)
	if !strings.HasPrefix(reg.Token, "token-"+reg.User.ID+"-") {
		t.Errorf("token = %q, want token-<userId>-<millis>", reg.Token)
	}

	// 2. 投稿
	w = env.do(t, http.MethodPost, "/api/posts", reg.Token, map[string]string{
		"title": "Hello World", "content": "This is a test post",
	})
	expectStatus(t, "create post", w, http.StatusCreated)
	var created postBody
	decodeBody(t, w, &created)
	postPath := "/api/posts/" + created.Post.ID

	// 3. 一覧の先頭に表示される
	w = env.do(t, http.MethodGet, "/api/posts", "", nil)
	expectStatus(t, "list posts", w, http.StatusOK)
	var list postsBody
	decodeBody(t, w, &list)
	if len(list.Posts) != 4 {
		t.Fatalf("list = %d posts, want 4", len(list.Posts))
	}
	if list.Posts[0].ID != created.Post.ID {
		t.Errorf("first post = %q, want %q", list.Posts[0].ID, created.Post.ID)
	}

	// 4. 投票（トグル）
	w = env.do(t, http.MethodPost, postPath+"/vote", reg.Token, map[string]string{"voteType": "up"})
	expectStatus(t, "vote up", w, http.StatusOK)
	var voted postBody
	decodeBody(t, w, &voted)
	if voted.Post.Score != 1 {
		t.Errorf("score after up = %d, want 1", voted.Post.Score)
	}
	w = env.do(t, http.MethodPost, postPath+"/vote", reg.Token, map[string]string{"voteType": "up"})
	voted = postBody{}
	decodeBody(t, w, &voted)
	if voted.Post.Score != 0 || len(voted.Post.VotedBy) != 0 {
		t.Errorf("after second up = %+v", voted.Post)
	}

	// 5. コメントと返信
	w = env.do(t, http.MethodPost, postPath+"/comments", reg.Token, map[string]string{"content": "First!"})
	expectStatus(t, "comment", w, http.StatusCreated)
	var top commentBody
	decodeBody(t, w, &top)
	w = env.do(t, http.MethodPost, postPath+"/comments", reg.Token, map[string]string{"content": "Replying", "parentId": top.Comment.ID})
	expectStatus(t, "reply", w, http.StatusCreated)

	w = env.do(t, http.MethodGet, postPath, "", nil)
	var got postBody
	decodeBody(t, w, &got)
	if got.Post.CommentCount != 2 {
		t.Errorf("commentCount = %d, want 2", got.Post.CommentCount)
	}

	// 6. 他人の投稿は削除できない
	w = env.do(t, http.MethodDelete, "/api/posts/post-1", reg.Token, nil)
	expectStatus(t, "delete others", w, http.StatusForbidden)

	// 7. 自分の投稿を削除するとコメントも消える
	w = env.do(t, http.MethodDelete, postPath, reg.Token, nil)
	expectStatus(t, "delete own", w, http.StatusOK)
	w = env.do(t, http.MethodGet, postPath, "", nil)
	expectStatus(t, "get deleted", w, http.StatusNotFound)
	if n := env.store.Counts().Comments; n != 2 {
		t.Errorf("comments after cascade = %d, want 2 (seed only)", n)
	}
}

// TestIntegration_AuthFlow_LoginMeLogout はログイン → /me → ログアウト → トークン無効化を検証する。
func TestIntegration_AuthFlow_LoginMeLogout(t *testing.T) {
	env := newIntegrationEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "DEMO_USER", "password": "password123"})
	expectStatus(t, "login", w, http.StatusOK)
	var login authResponse
	decodeBody(t, w, &login)

	w = env.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	expectStatus(t, "me", w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `"username":"demo_user"`) {
		t.Errorf("me body = %s", w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/api/auth/logout", login.Token, nil)
	expectStatus(t, "logout", w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	expectStatus(t, "me after logout", w, http.StatusUnauthorized)

	w = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "demo_user", "password": "wrong"})
	expectStatus(t, "bad login", w, http.StatusUnauthorized)
}

// TestIntegration_ProtectedEndpoints_RequireAuth は変更系エンドポイントがトークンなしで401を返すことを検証する。
func TestIntegration_ProtectedEndpoints_RequireAuth(t *testing.T) {
	env := newIntegrationEnv(t)

	endpoints := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/posts"},
		{http.MethodDelete, "/api/posts/post-1"},
		{http.MethodPost, "/api/posts/post-1/vote"},
		{http.MethodPost, "/api/posts/post-1/comments"},
		{http.MethodDelete, "/api/comments/comment-1"},
		{http.MethodPost, "/api/comments/comment-1/vote"},
		{http.MethodGet, "/api/auth/me"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			for _, token := range []string{"", "token-user-1-0"} {
				w := env.do(t, ep.method, ep.path, token, map[string]string{})
				if w.Code != http.StatusUnauthorized {
					t.Errorf("token %q: status = %d, want 401", token, w.Code)
				}
				if resp := parseAPIErrorResponse(t, w); resp["error"] != "Unauthorized" {
					t.Errorf("token %q: error = %q", token, resp["error"])
				}
			}
		})
	}
}

// TestIntegration_ResetRestoresSeed はリセットで初期データに戻り、全トークンが失効することを検証する。
func TestIntegration_ResetRestoresSeed(t *testing.T) {
	env := newIntegrationEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "test_automation", "password": "test123"})
	var login authResponse
	decodeBody(t, w, &login)

	w = env.do(t, http.MethodDelete, "/api/posts/post-2", login.Token, nil)
	expectStatus(t, "delete", w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/api/health", "", nil)
	var before healthResponse
	decodeBody(t, w, &before)
	if before.Counts.Posts != 2 || before.Counts.Sessions != 1 {
		t.Errorf("health before reset = %+v", before.Counts)
	}

	w = env.do(t, http.MethodPost, "/api/reset", "", nil)
	expectStatus(t, "reset", w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/api/health", "", nil)
	var after healthResponse
	decodeBody(t, w, &after)
	if after.Counts != (healthCounts{Users: 2, Posts: 3, Comments: 2, Sessions: 0}) {
		t.Errorf("health after reset = %+v", after.Counts)
	}

	w = env.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	expectStatus(t, "me after reset", w, http.StatusUnauthorized)
}

func TestIntegration_CORSPreflight(t *testing.T) {
	env := newIntegrationEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Errorf("Access-Control-Allow-Headers = %q", got)
	}
}

// TestIntegration_MetricsEndpoint はストアイベントとHTTPレスポンスが/metricsに反映されることを検証する。
func TestIntegration_MetricsEndpoint(t *testing.T) {
	env := newIntegrationEnv(t)

	env.do(t, http.MethodGet, "/api/posts/missing", "", nil)

	w := env.do(t, http.MethodGet, "/metrics", "", nil)
	expectStatus(t, "metrics", w, http.StatusOK)

	body := w.Body.String()
	for _, want := range []string{
		`mockboard_store_events_total{kind="store.reset"} 1`,
		`mockboard_entities{type="posts"} 3`,
		`mockboard_http_status_total{status_code="404"} 1`,
		`mockboard_http_request_duration_seconds_count`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestIntegration_UnknownRoute_Returns404Or405(t *testing.T) {
	env := newIntegrationEnv(t)

	w := env.do(t, http.MethodGet, "/api/nonexistent", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown path: status = %d, want 404", w.Code)
	}

	w = env.do(t, http.MethodPut, "/api/posts", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method: status = %d, want 405", w.Code)
	}
}
