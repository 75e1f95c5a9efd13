package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"kukey/backend/internal/dto"
	"kukey/backend/internal/model"
	"kukey/backend/internal/repository"
)

// ── 积分模块业务错误 ──

var (
	ErrUserNotFound   = errors.New("用户不存在")
	ErrPointNotEnough = errors.New("积分不足")
)

// ── PointService 接口 ──────────────────────────────────────
//
// 设计说明：
//   - 余额变动与流水追加必须同事务提交：Adjust 自行开事务，
//     AdjustInTx 供道具购买等外层事务复用（对应一次购买一条流水）。
//   - 变动前以行锁读取用户行，同一用户的并发变动被串行化，
//     余额非负不变式在任意交错下成立。
//   - 流水仅追加，余额只能经由本模块修改。
// ─────────────────────────────────────────────────────────────

// PointService 积分业务接口
type PointService interface {
	// Adjust 变动积分（delta 正为获得、负为消费），返回变动后余额
	Adjust(ctx context.Context, userID string, delta int, reason string) (int, error)
	// AdjustInTx 在调用方事务内变动积分（道具购买的扣款步骤）
	AdjustInTx(ctx context.Context, tx *repository.Repository, userID string, delta int, reason string) (int, error)
	// History 积分流水，按时间倒序
	History(ctx context.Context, userID string) ([]dto.PointHistoryResponse, error)
}

type pointService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPointService 创建 PointService 实例
func NewPointService(repo *repository.Repository, logger *zap.Logger) PointService {
	return &pointService{repo: repo, logger: logger}
}

func (s *pointService) Adjust(ctx context.Context, userID string, delta int, reason string) (int, error) {
	var result int
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		newBalance, err := s.AdjustInTx(ctx, tx, userID, delta, reason)
		if err != nil {
			return err
		}
		result = newBalance
		return nil
	})
	if err != nil {
		return 0, err
	}
	return result, nil
}

func (s *pointService) AdjustInTx(ctx context.Context, tx *repository.Repository, userID string, delta int, reason string) (int, error) {
	// 行锁读取：同一用户的并发积分变动在此串行化
	user, err := tx.User.GetByIDForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	newBalance := user.Point + delta
	if newBalance < 0 {
		return 0, ErrPointNotEnough
	}

	if err := tx.User.UpdatePoint(ctx, userID, newBalance); err != nil {
		s.logger.Error("更新积分余额失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}

	history := &model.PointHistory{
		UserID:      userID,
		ChangePoint: delta,
		History:     reason,
		ResultPoint: newBalance,
	}
	if err := tx.PointHistory.Create(ctx, history); err != nil {
		s.logger.Error("写入积分流水失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}

	return newBalance, nil
}

func (s *pointService) History(ctx context.Context, userID string) ([]dto.PointHistoryResponse, error) {
	histories, err := s.repo.PointHistory.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.PointHistoryResponse, 0, len(histories))
	for _, h := range histories {
		result = append(result, dto.PointHistoryResponse{
			ChangePoint: h.ChangePoint,
			History:     h.History,
			ResultPoint: h.ResultPoint,
			CreatedAt:   h.CreatedAt.Format(time.RFC3339),
		})
	}
	return result, nil
}
