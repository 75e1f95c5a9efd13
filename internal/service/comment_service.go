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

// ── 评论模块业务错误 ──

var (
	ErrPostNotFound          = errors.New("帖子不存在")
	ErrCommentNotFound       = errors.New("评论不存在")
	ErrCommentNotOwner       = errors.New("无权操作他人评论")
	ErrParentCommentNotFound = errors.New("父评论不存在")
	ErrParentCommentMismatch = errors.New("父评论不属于该帖子")
	ErrCommentSelfLike       = errors.New("不能给自己的评论点赞")
)

// ── CommentService 接口 ──────────────────────────────────────
//
// 设计说明：
//   - 回复层级固定为 1：对回复的回复会被重挂到其顶层父评论下。
//   - 匿名评论在创建事务内分配帖子内匿名编号（作者 0、其他 max+1），
//     评论落库与帖子 comment_count 自增同事务提交。
//   - 点赞为开关语义：已赞则取消，未赞则点赞；禁止给自己点赞。
// ─────────────────────────────────────────────────────────────

// CommentService 评论业务接口
type CommentService interface {
	// Create 创建评论或回复（parentCommentID 为空表示顶层评论）
	Create(ctx context.Context, postID string, parentCommentID *string, userID string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	// Update 修改自己的评论
	Update(ctx context.Context, commentID, userID string, req *dto.UpdateCommentRequest) error
	// Delete 删除自己的评论（软删除）
	Delete(ctx context.Context, commentID, userID string) error
	// ToggleLike 点赞/取消点赞
	ToggleLike(ctx context.Context, commentID, userID string) (*dto.LikeCommentResponse, error)
	// ListByPost 帖子下全部评论，顶层按时间正序、回复紧随其父评论
	ListByPost(ctx context.Context, postID, viewerID string) ([]dto.CommentResponse, error)
}

type commentService struct {
	repo     *repository.Repository
	assigner *AnonymousAssigner
	logger   *zap.Logger
}

// NewCommentService 创建 CommentService 实例
func NewCommentService(repo *repository.Repository, assigner *AnonymousAssigner, logger *zap.Logger) CommentService {
	return &commentService{repo: repo, assigner: assigner, logger: logger}
}

func (s *commentService) Create(ctx context.Context, postID string, parentCommentID *string, userID string, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	var created *model.Comment
	var anonNumber int

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		post, err := tx.Post.GetByID(ctx, postID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		// 回复层级压平：目标父评论本身是回复时，挂到它的顶层父评论下
		parentID := parentCommentID
		if parentID != nil {
			parent, err := tx.Comment.GetByID(ctx, *parentID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrParentCommentNotFound
				}
				return err
			}
			if parent.PostID != postID {
				return ErrParentCommentMismatch
			}
			if parent.ParentCommentID != nil {
				parentID = parent.ParentCommentID
			}
		}

		if req.IsAnonymous {
			anonNumber, err = s.assigner.Assign(ctx, tx, postID, userID, post.UserID == userID)
			if err != nil {
				return err
			}
		}

		comment := &model.Comment{
			PostID:          postID,
			UserID:          userID,
			ParentCommentID: parentID,
			Content:         req.Content,
			IsAnonymous:     req.IsAnonymous,
		}
		if err := tx.Comment.Create(ctx, comment); err != nil {
			return err
		}
		if err := tx.Post.IncrementCommentCount(ctx, postID, 1); err != nil {
			return err
		}

		created = comment
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := s.toCommentResponse(created, userID)
	if created.IsAnonymous {
		n := anonNumber
		resp.AnonymousNumber = &n
	}
	return resp, nil
}

func (s *commentService) Update(ctx context.Context, commentID, userID string, req *dto.UpdateCommentRequest) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		comment, err := tx.Comment.GetByID(ctx, commentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}
		if comment.UserID != userID {
			return ErrCommentNotOwner
		}

		// 改为匿名时确保编号已分配（展示时按分配表解析）
		if req.IsAnonymous && !comment.IsAnonymous {
			post, err := tx.Post.GetByID(ctx, comment.PostID)
			if err != nil {
				return err
			}
			if _, err := s.assigner.Assign(ctx, tx, comment.PostID, userID, post.UserID == userID); err != nil {
				return err
			}
		}

		return tx.Comment.UpdateContent(ctx, commentID, req.Content, req.IsAnonymous)
	})
}

func (s *commentService) Delete(ctx context.Context, commentID, userID string) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		comment, err := tx.Comment.GetByID(ctx, commentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}
		if comment.UserID != userID {
			return ErrCommentNotOwner
		}

		if err := tx.Comment.SoftDelete(ctx, commentID); err != nil {
			return err
		}
		return tx.Post.IncrementCommentCount(ctx, comment.PostID, -1)
	})
}

func (s *commentService) ToggleLike(ctx context.Context, commentID, userID string) (*dto.LikeCommentResponse, error) {
	var liked bool

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		comment, err := tx.Comment.GetByID(ctx, commentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}
		if comment.UserID == userID {
			return ErrCommentSelfLike
		}

		_, err = tx.CommentLike.Get(ctx, commentID, userID)
		switch {
		case err == nil:
			// 已赞 → 取消
			if err := tx.CommentLike.Delete(ctx, commentID, userID); err != nil {
				return err
			}
			if err := tx.Comment.IncrementLikeCount(ctx, commentID, -1); err != nil {
				return err
			}
			liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			like := &model.CommentLike{CommentID: commentID, UserID: userID}
			if err := tx.CommentLike.Create(ctx, like); err != nil {
				return err
			}
			if err := tx.Comment.IncrementLikeCount(ctx, commentID, 1); err != nil {
				return err
			}
			liked = true
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.LikeCommentResponse{Liked: liked}, nil
}

func (s *commentService) ListByPost(ctx context.Context, postID, viewerID string) ([]dto.CommentResponse, error) {
	exists, err := s.repo.Post.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	comments, err := s.repo.Comment.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.repo.AnonymousNumber.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	anonNumbers := make(map[string]int, len(assignments))
	for _, a := range assignments {
		anonNumbers[a.UserID] = a.AnonymousNumber
	}

	usernames := make(map[string]string)

	build := func(c *model.Comment) (dto.CommentResponse, error) {
		resp := *s.toCommentResponse(c, viewerID)
		if c.IsAnonymous {
			if n, ok := anonNumbers[c.UserID]; ok {
				resp.AnonymousNumber = &n
			}
		} else {
			name, ok := usernames[c.UserID]
			if !ok {
				user, err := s.repo.User.GetByID(ctx, c.UserID)
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return resp, err
				}
				if user != nil {
					name = user.Username
				}
				usernames[c.UserID] = name
			}
			resp.Username = name
		}
		return resp, nil
	}

	// 顶层按时间正序，每条顶层评论后紧跟它的回复
	replies := make(map[string][]model.Comment)
	var topLevel []model.Comment
	topLevelIDs := make(map[string]bool)
	for _, c := range comments {
		if c.ParentCommentID == nil {
			topLevel = append(topLevel, c)
			topLevelIDs[c.CommentID] = true
		} else {
			replies[*c.ParentCommentID] = append(replies[*c.ParentCommentID], c)
		}
	}

	result := make([]dto.CommentResponse, 0, len(comments))
	for i := range topLevel {
		resp, err := build(&topLevel[i])
		if err != nil {
			return nil, err
		}
		result = append(result, resp)
		children := replies[topLevel[i].CommentID]
		for j := range children {
			resp, err := build(&children[j])
			if err != nil {
				return nil, err
			}
			result = append(result, resp)
		}
	}

	// 父评论已被删除的回复不丢失：按时间顺序附在列表末尾
	for i := range comments {
		c := &comments[i]
		if c.ParentCommentID == nil || topLevelIDs[*c.ParentCommentID] {
			continue
		}
		resp, err := build(c)
		if err != nil {
			return nil, err
		}
		result = append(result, resp)
	}
	return result, nil
}

func (s *commentService) toCommentResponse(c *model.Comment, viewerID string) *dto.CommentResponse {
	resp := &dto.CommentResponse{
		ID:          c.CommentID,
		PostID:      c.PostID,
		Content:     c.Content,
		IsAnonymous: c.IsAnonymous,
		LikeCount:   c.LikeCount,
		IsMine:      c.UserID == viewerID,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
	if c.ParentCommentID != nil {
		resp.ParentCommentID = *c.ParentCommentID
	}
	return resp
}
