package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"kukey/backend/internal/dto"
	"kukey/backend/internal/model"
	"kukey/backend/internal/repository"
)

// ── 用户模块业务错误 ──

var (
	ErrEmailTaken    = errors.New("邮箱已被占用")
	ErrUsernameTaken = errors.New("用户名已被占用")
)

// 注册赠送
const (
	signupBonusPoint  = 100
	signupBonusReason = "Sign up event"
	defaultCharacter  = "tiger"
)

// UserService 用户业务接口
type UserService interface {
	// Register 注册：建用户 + 初始角色 + 注册赠分，同事务
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	// CheckEmail 邮箱可用性检查
	CheckEmail(ctx context.Context, email string) (*dto.CheckPossibleResponse, error)
	// CheckUsername 用户名可用性检查
	CheckUsername(ctx context.Context, username string) (*dto.CheckPossibleResponse, error)
	// GetMe 当前用户详情（含角色、阅读券到期时间）
	GetMe(ctx context.Context, userID string) (*dto.UserDetailResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if err := s.checkTaken(ctx, req.Email, req.Username); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}
		character := &model.Character{
			UserID: user.UserID,
			Level:  1,
			Type:   defaultCharacter,
		}
		if err := tx.Character.Create(ctx, character); err != nil {
			return err
		}

		// 注册赠分直接走流水，保持 sum(流水) == 余额 不变式
		user.Point = signupBonusPoint
		if err := tx.User.UpdatePoint(ctx, user.UserID, signupBonusPoint); err != nil {
			return err
		}
		history := &model.PointHistory{
			UserID:      user.UserID,
			ChangePoint: signupBonusPoint,
			History:     signupBonusReason,
			ResultPoint: signupBonusPoint,
		}
		return tx.PointHistory.Create(ctx, history)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("用户注册成功", zap.String("user_id", user.UserID))

	return &dto.UserResponse{
		ID:       user.UserID,
		Email:    user.Email,
		Username: user.Username,
		Point:    user.Point,
	}, nil
}

func (s *userService) CheckEmail(ctx context.Context, email string) (*dto.CheckPossibleResponse, error) {
	_, err := s.repo.User.GetByEmail(ctx, email)
	if err == nil {
		return &dto.CheckPossibleResponse{Possible: false}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &dto.CheckPossibleResponse{Possible: true}, nil
}

func (s *userService) CheckUsername(ctx context.Context, username string) (*dto.CheckPossibleResponse, error) {
	_, err := s.repo.User.GetByUsername(ctx, username)
	if err == nil {
		return &dto.CheckPossibleResponse{Possible: false}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &dto.CheckPossibleResponse{Possible: true}, nil
}

func (s *userService) GetMe(ctx context.Context, userID string) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	resp := &dto.UserDetailResponse{
		ID:        user.UserID,
		Email:     user.Email,
		Username:  user.Username,
		Point:     user.Point,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
	if user.ViewableUntil != nil {
		resp.ViewableUntil = user.ViewableUntil.Format(time.RFC3339)
	}
	if user.Character != nil {
		resp.Character = &dto.CharacterResponse{
			Level: user.Character.Level,
			Type:  user.Character.Type,
		}
	}
	return resp, nil
}

func (s *userService) checkTaken(ctx context.Context, email, username string) error {
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, err := s.repo.User.GetByUsername(ctx, username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}
