// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/mockboard/internal/model"
)

const bearerScheme = "Bearer"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userIDContextKey   = contextKey("user_id")
	identityContextKey = contextKey("identity")
)

// identity はリクエスト単位で認証結果を外側のミドルウェアへ伝えるための入れ物。
// ロギングミドルウェアが用意し、認証ミドルウェアが書き込む。
type identity struct {
	userID string
}

// TokenFinder はトークンからユーザーを引くインターフェース。
// *auth.Service が実装する。
type TokenFinder interface {
	CurrentUser(token string) (*model.User, error)
}

// BearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// スキーム名の大文字小文字は区別しない。
// ヘッダーがない、または形式が異なる場合は空文字列を返す。
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

// NewBearerAuthMiddleware はAuthorization: Bearer <token> を検証するミドルウェアを返す。
// 認証済みユーザーIDをリクエストコンテキストに注入する。
// トークンが無効、またはユーザーが存在しない場合は401を統一エラーフォーマットで返す。
func NewBearerAuthMiddleware(finder TokenFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError("Unauthorized"))
				return
			}

			user, err := finder.CurrentUser(token)
			if err != nil || user == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError("Unauthorized"))
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), user.ID)))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// ロギングミドルウェアの内側で呼ばれた場合は、ログにもユーザーIDが記録される。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if id, ok := ctx.Value(identityContextKey).(*identity); ok {
		id.userID = userID
	}
	return context.WithValue(ctx, userIDContextKey, userID)
}
