// Package user はプロフィール編集のビジネスロジックを提供する。
package user

import (
	"context"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/mask-shakill/jabotio-dashboard/internal/model"
	"github.com/mask-shakill/jabotio-dashboard/internal/repository"
	"github.com/mask-shakill/jabotio-dashboard/internal/storage"
)

// ProfileInput はプロフィール更新リクエストの入力を表す。
// nilのフィールドはフォームに含まれなかったことを示し、既存値を維持する。
type ProfileInput struct {
	Name     *string
	Phone    *string
	Location *string
	Address  *string

	// Avatar はアップロードされたアバター画像。nilの場合は画像を変更しない。
	Avatar       multipart.File
	AvatarHeader *multipart.FileHeader
}

// Service はプロフィール編集のユースケースを提供する。
type Service struct {
	userRepo repository.UserRepository
	files    storage.FileStore
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, files storage.FileStore) *Service {
	return &Service{
		userRepo: userRepo,
		files:    files,
	}
}

// GetProfile は指定ユーザーのプロフィールを取得する。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
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

// UpdateProfile はプロフィールの部分更新を行う。
// アバター画像が含まれる場合は先に保存し、そのURLをimage_urlに設定する。
// 名前が含まれる場合は空白のみの値を拒否する。
// 更新できるのは本人のプロフィールのみで、ロールとメールアドレスは変更できない。
func (s *Service) UpdateProfile(ctx context.Context, userID string, input *ProfileInput) (*model.User, error) {
	fields := &model.ProfileUpdate{
		Phone:    input.Phone,
		Location: input.Location,
		Address:  input.Address,
	}

	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, model.NewInvalidRequestError("Name must not be empty")
		}
		fields.Name = &trimmed
	}

	if input.Avatar != nil && input.AvatarHeader != nil {
		url, err := s.files.Save(input.Avatar, input.AvatarHeader)
		if err != nil {
			return nil, err
		}
		fields.ImageURL = &url
		slog.Info("avatar stored",
			slog.String("user_id", userID),
			slog.String("image_url", url),
		)
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, fields)
	if err != nil {
		slog.Error("failed to update profile", slog.String("error", err.Error()))
		return nil, model.NewDirectoryUnavailableError()
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("profile updated", slog.String("user_id", user.ID))
	return user, nil
}
