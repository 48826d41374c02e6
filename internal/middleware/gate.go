// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mask-shakill/jabotio-dashboard/internal/model"
)

// SessionCookieName はセッションクレデンシャルを格納するCookieの名前。
const SessionCookieName = "access_token"

// publicPaths は認証なしでアクセスできるパスのプレフィックス。
// ここに含まれないパスはすべて有効なセッションを要求する。
var publicPaths = []string{
	"/login",
	"/api/auth/login",
	"/api/auth/logout",
	"/favicon.ico",
	"/static",
	"/health",
	"/metrics",
}

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimContextKey はリクエストコンテキストにセッションクレームを格納するためのキー。
var claimContextKey = contextKey("session_claim")

// SessionVerifier はセッションクレデンシャルの検証に必要なインターフェース。
// auth.TokenVerifierの部分集合として定義する。
type SessionVerifier interface {
	Verify(credential string) (*model.SessionClaim, bool)
}

// NewGateMiddleware は全ルート共通の認証ゲートを返す。
// 許可リストのパスはそのまま通過させる。それ以外はCookieのセッション
// クレデンシャルを検証し、クレームをリクエストコンテキストに注入する。
// Cookieの欠落と無効は同一に扱い、APIリクエスト（/api/配下）には
// 401 JSONを、ページリクエストには/loginへの307リダイレクトを返す。
func NewGateMiddleware(verifier SessionVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				rejectUnauthenticated(w, r)
				return
			}

			claim, ok := verifier.Verify(cookie.Value)
			if !ok {
				rejectUnauthenticated(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), claimContextKey, claim)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// isPublicPath はパスが許可リストのプレフィックスに一致するか判定する。
// プレフィックス一致はセグメント境界でのみ成立する（/loginxは不一致）。
func isPublicPath(path string) bool {
	for _, prefix := range publicPaths {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// rejectUnauthenticated は未認証リクエストへの応答を書き込む。
func rejectUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}
	http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
}

// ClaimFromContext はリクエストコンテキストからセッションクレームを取得する。
// ゲートミドルウェアを通過したリクエストでのみ有効。
func ClaimFromContext(ctx context.Context) (*model.SessionClaim, error) {
	claim, ok := ctx.Value(claimContextKey).(*model.SessionClaim)
	if !ok || claim == nil {
		return nil, fmt.Errorf("session claim not found in context")
	}
	return claim, nil
}

// ContextWithClaim はコンテキストにセッションクレームを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClaim(ctx context.Context, claim *model.SessionClaim) context.Context {
	return context.WithValue(ctx, claimContextKey, claim)
}
