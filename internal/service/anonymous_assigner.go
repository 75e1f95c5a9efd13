package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"kukey/backend/internal/model"
	"kukey/backend/internal/repository"
)

// ── 帖子内匿名编号分配 ─────────────────────────────────────
//
// 设计说明：
//   - 同一用户在同一帖子下的匿名编号终身不变：首条匿名评论时分配，
//     之后复用；编号不回收、不跳号。
//   - 帖子作者固定 0，其他用户按首次匿名发言顺序取当前最大编号 +1。
//   - 已有分配走无锁快路径；需要新分配时先对帖子行加锁再复查，
//     使同一帖子的 read-max + insert 串行化，并发下不会发出重号。
//     表上的唯一约束作为最后一道防线。
// ─────────────────────────────────────────────────────────────

// AnonymousAssigner 帖子内匿名编号分配器
type AnonymousAssigner struct {
	repo *repository.Repository
}

// NewAnonymousAssigner 创建匿名编号分配器
func NewAnonymousAssigner(repo *repository.Repository) *AnonymousAssigner {
	return &AnonymousAssigner{repo: repo}
}

// Assign 返回 userID 在 postID 下的匿名编号，必要时分配新编号
// 必须在事务内调用（tx 为事务内仓储）
func (a *AnonymousAssigner) Assign(ctx context.Context, tx *repository.Repository, postID, userID string, isAuthor bool) (int, error) {
	// 快路径：已有分配直接复用，无需加锁
	existing, err := tx.AnonymousNumber.Get(ctx, postID, userID)
	if err == nil {
		return existing.AnonymousNumber, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	// 锁住帖子行后复查，避免并发下重复分配
	if _, err := tx.Post.GetByIDForUpdate(ctx, postID); err != nil {
		return 0, err
	}
	existing, err = tx.AnonymousNumber.Get(ctx, postID, userID)
	if err == nil {
		return existing.AnonymousNumber, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	number := 0
	if !isAuthor {
		maxNumber, err := tx.AnonymousNumber.MaxNumber(ctx, postID)
		if err != nil {
			return 0, err
		}
		number = maxNumber + 1
	}

	assignment := &model.CommentAnonymousNumber{
		PostID:          postID,
		UserID:          userID,
		AnonymousNumber: number,
	}
	if err := tx.AnonymousNumber.Create(ctx, assignment); err != nil {
		return 0, err
	}
	return number, nil
}
