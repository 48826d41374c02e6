// Package auth はIDトークン検証、セッションクレデンシャル、ログインフローを提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/mask-shakill/jabotio-dashboard/internal/model"
)

const googleIssuerURL = "https://accounts.google.com"

// IdentityVerifier は外部IdPのIDトークン検証インターフェース。
// テストではフェイク実装を注入し、ネットワークアクセスなしで検証する。
type IdentityVerifier interface {
	// Verify はIDトークンを検証し、検証済みクレームを返す。
	// 署名不正・audience不一致・期限切れ・不正形式はすべて
	// InvalidIdentityTokenエラーに集約する。
	Verify(ctx context.Context, rawToken string) (*model.IdentityClaim, error)
}

// GoogleVerifier はGoogleのIDトークンをOIDC公開鍵で検証する。
// 公開鍵の取得とキャッシュはoidcライブラリに委譲する。
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier はGoogleVerifierを生成する。
// OIDCディスカバリを1回実行するため、起動時にコンテキスト付きで呼び出すこと。
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover google oidc provider: %w", err)
	}

	return &GoogleVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// googleClaims はGoogleのIDトークンから読み取るクレーム。
type googleClaims struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Verify はIDトークンを検証し、検証済みクレームを返す。
// 部分的に信頼できるクレームは返さない。
func (g *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*model.IdentityClaim, error) {
	idToken, err := g.verifier.Verify(ctx, rawToken)
	if err != nil {
		slog.Warn("id token verification failed", slog.String("error", err.Error()))
		return nil, model.NewInvalidIdentityTokenError()
	}

	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		slog.Warn("id token claims decode failed", slog.String("error", err.Error()))
		return nil, model.NewInvalidIdentityTokenError()
	}

	if claims.Sub == "" {
		return nil, model.NewInvalidIdentityTokenError()
	}

	return &model.IdentityClaim{
		SubjectID: claims.Sub,
		Email:     claims.Email,
		Name:      claims.Name,
		Picture:   claims.Picture,
	}, nil
}

// compile-time interface check
var _ IdentityVerifier = (*GoogleVerifier)(nil)
