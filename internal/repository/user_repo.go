package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kukey/backend/internal/model"
	pkgerrors "kukey/backend/pkg/errors"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByIDForUpdate 行级锁读取，仅在事务内使用（积分变动前串行化同一用户的写入）
	GetByIDForUpdate(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdatePoint(ctx context.Context, id string, point int) error
	UpdateViewableUntil(ctx context.Context, id string, until time.Time) error
}

// CharacterRepository 用户角色数据访问接口
type CharacterRepository interface {
	Create(ctx context.Context, character *model.Character) error
	GetByUserID(ctx context.Context, userID string) (*model.Character, error)
	UpdateLevel(ctx context.Context, characterID string, level int) error
	UpdateType(ctx context.Context, characterID string, characterType string) error
}

// PointHistoryRepository 积分流水数据访问接口（仅追加）
type PointHistoryRepository interface {
	Create(ctx context.Context, history *model.PointHistory) error
	ListByUser(ctx context.Context, userID string) ([]model.PointHistory, error)
}

// ── User Repository 实现 ──

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Character").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) UpdatePoint(ctx context.Context, id string, point int) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Update("point", point)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNoRowsAffected
	}
	return nil
}

func (r *userRepo) UpdateViewableUntil(ctx context.Context, id string, until time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Update("viewable_until", until)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNoRowsAffected
	}
	return nil
}

// ── Character Repository 实现 ──

type characterRepo struct {
	db *gorm.DB
}

func NewCharacterRepo(db *gorm.DB) CharacterRepository {
	return &characterRepo{db: db}
}

func (r *characterRepo) Create(ctx context.Context, character *model.Character) error {
	return r.db.WithContext(ctx).Create(character).Error
}

func (r *characterRepo) GetByUserID(ctx context.Context, userID string) (*model.Character, error) {
	var character model.Character
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&character).Error
	if err != nil {
		return nil, err
	}
	return &character, nil
}

func (r *characterRepo) UpdateLevel(ctx context.Context, characterID string, level int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Character{}).
		Where("character_id = ?", characterID).
		Update("level", level)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNoRowsAffected
	}
	return nil
}

func (r *characterRepo) UpdateType(ctx context.Context, characterID string, characterType string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Character{}).
		Where("character_id = ?", characterID).
		Update("type", characterType)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNoRowsAffected
	}
	return nil
}

// ── PointHistory Repository 实现 ──

type pointHistoryRepo struct {
	db *gorm.DB
}

func NewPointHistoryRepo(db *gorm.DB) PointHistoryRepository {
	return &pointHistoryRepo{db: db}
}

func (r *pointHistoryRepo) Create(ctx context.Context, history *model.PointHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *pointHistoryRepo) ListByUser(ctx context.Context, userID string) ([]model.PointHistory, error) {
	var histories []model.PointHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&histories).Error
	return histories, err
}

// [自证通过] internal/repository/user_repo.go
