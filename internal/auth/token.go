package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mask-shakill/jabotio-dashboard/internal/model"
)

// sessionClaims はセッションクレデンシャルにエンコードするJWTクレーム。
// ローカルユーザーIDはsubに、ロールは独自クレームに載せる。
type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer はHMAC署名付きセッションクレデンシャルを発行する。
// 署名シークレットはプロセス全体の設定で、リクエストごとの状態は持たない。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer はTokenIssuerを生成する。ttlは発行時点からの有効期間。
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue は{ユーザーID, ロール}と有効期限をエンコードした署名付き文字列を返す。
// 発行時刻が異なれば同じ{id, role}でも異なるクレデンシャルになる。
func (i *TokenIssuer) Issue(userID string, role model.Role) (string, error) {
	issuedAt := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.ttl)),
		},
	})

	credential, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session credential: %w", err)
	}

	return credential, nil
}

// TokenVerifier はセッションクレデンシャルの署名と有効期限を検証する。
// ユーザーディレクトリの再参照は行わないため、ロール変更は
// 既存クレデンシャルの失効または再ログインまで反映されない。
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier はTokenVerifierを生成する。
// 発行側と同じプロセス全体のシークレットを使用すること。
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify はクレデンシャルを検証し、デコード済みクレームを返す。
// パース・署名・期限のいずれの失敗もok=falseに集約し、エラーは外に出さない。
// 呼び出し側は無効をCookie欠落と同一に扱う。
func (v *TokenVerifier) Verify(credential string) (*model.SessionClaim, bool) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(credential, &claims,
		func(t *jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, false
	}

	role := model.Role(claims.Role)
	if claims.Subject == "" || !role.IsValid() {
		return nil, false
	}

	return &model.SessionClaim{
		UserID: claims.Subject,
		Role:   role,
	}, true
}
