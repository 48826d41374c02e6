package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mask-shakill/jabotio-dashboard/internal/model"
	"github.com/mask-shakill/jabotio-dashboard/internal/repository"
)

// CredentialIssuer はセッションクレデンシャル発行のインターフェース。
type CredentialIssuer interface {
	Issue(userID string, role model.Role) (string, error)
}

// Service はログインフローのビジネスロジックを提供する。
// IDトークン検証 → ディレクトリのfind-or-create → クレデンシャル発行の順に処理する。
type Service struct {
	verifier IdentityVerifier
	userRepo repository.UserRepository
	issuer   CredentialIssuer
}

// NewService はServiceを生成する。
func NewService(verifier IdentityVerifier, userRepo repository.UserRepository, issuer CredentialIssuer) *Service {
	return &Service{
		verifier: verifier,
		userRepo: userRepo,
		issuer:   issuer,
	}
}

// Login はIDトークンを検証し、ユーザーレコードとセッションクレデンシャルを返す。
// 未登録のsubject idの場合はロール"user"で新規作成する。
// 登録済みの場合はemail/name/image_urlのみ最新クレームで更新する。
// ロールと連絡先フィールドはログインで変更されない（ログインの繰り返しで
// 自分のロールを昇格させることはできない）。
func (s *Service) Login(ctx context.Context, idToken string) (*model.User, string, error) {
	// 1. IDトークンの検証
	claim, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, "", err
	}

	// 2. subject idで既存ユーザーを検索
	existing, err := s.userRepo.FindByGoogleID(ctx, claim.SubjectID)
	if err != nil {
		slog.Error("user directory lookup failed", slog.String("error", err.Error()))
		return nil, "", model.NewDirectoryUnavailableError()
	}

	var user *model.User

	if existing == nil {
		// 3a. 新規ユーザー: ロール"user"で作成。
		// 同時初回ログインはストア側のON CONFLICTで1ユーザーに収束する。
		user, err = s.userRepo.Create(ctx, &model.User{
			ID:        uuid.New().String(),
			GoogleID:  claim.SubjectID,
			Email:     claim.Email,
			Name:      claim.Name,
			Role:      model.RoleUser,
			ImageURL:  claim.Picture,
			CreatedAt: time.Now(),
		})
		if err != nil {
			slog.Error("failed to create user", slog.String("error", err.Error()))
			return nil, "", model.NewDirectoryUnavailableError()
		}
		slog.Info("new user created",
			slog.String("user_id", user.ID),
			slog.String("email", user.Email),
		)
	} else {
		// 3b. 既存ユーザー: IdP由来のフィールドのみ更新
		user, err = s.userRepo.RefreshIdentity(ctx, claim.SubjectID, claim)
		if err != nil {
			slog.Error("failed to refresh user identity", slog.String("error", err.Error()))
			return nil, "", model.NewDirectoryUnavailableError()
		}
		if user == nil {
			// 検索と更新の間に消えた場合。再ログインで作り直せる
			return nil, "", model.NewDirectoryUnavailableError()
		}
		slog.Info("existing user logged in", slog.String("user_id", user.ID))
	}

	// 4. セッションクレデンシャルの発行
	credential, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		slog.Error("failed to issue session credential", slog.String("error", err.Error()))
		return nil, "", model.NewDirectoryUnavailableError()
	}

	return user, credential, nil
}

// GetCurrentUser はセッションクレームのユーザーIDでディレクトリを参照する。
// レコードが消えている場合はUserNotFoundを返す。
func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		slog.Error("user directory lookup failed", slog.String("error", err.Error()))
		return nil, model.NewDirectoryUnavailableError()
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}
