package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kukey/backend/internal/model"
	pkgerrors "kukey/backend/pkg/errors"
)

// PostRepository 帖子数据访问接口
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// GetByIDForUpdate 行级锁读取，仅在事务内使用
	// 匿名编号分配以帖子行为锁对象，使同一帖子的 read-max + insert 串行化
	GetByIDForUpdate(ctx context.Context, id string) (*model.Post, error)
	Exists(ctx context.Context, id string) (bool, error)
	// IncrementCommentCount delta 可为负（删除评论时）
	IncrementCommentCount(ctx context.Context, id string, delta int) error
}

// CommentRepository 评论数据访问接口
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]model.Comment, error)
	UpdateContent(ctx context.Context, id string, content string, isAnonymous bool) error
	SoftDelete(ctx context.Context, id string) error
	IncrementLikeCount(ctx context.Context, id string, delta int) error
}

// CommentLikeRepository 评论点赞数据访问接口
type CommentLikeRepository interface {
	Get(ctx context.Context, commentID, userID string) (*model.CommentLike, error)
	Create(ctx context.Context, like *model.CommentLike) error
	Delete(ctx context.Context, commentID, userID string) error
}

// AnonymousNumberRepository 帖子内匿名编号数据访问接口
type AnonymousNumberRepository interface {
	Get(ctx context.Context, postID, userID string) (*model.CommentAnonymousNumber, error)
	// MaxNumber 帖子内当前最大匿名编号（不存在时为 0；作者编号 0 天然不参与 max）
	MaxNumber(ctx context.Context, postID string) (int, error)
	ListByPost(ctx context.Context, postID string) ([]model.CommentAnonymousNumber, error)
	Create(ctx context.Context, assignment *model.CommentAnonymousNumber) error
}

// ── Post Repository 实现 ──

type postRepo struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) PostRepository {
	return &postRepo{db: db}
}

func (r *postRepo) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).Where("post_id = ?", id).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("post_id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("post_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *postRepo) IncrementCommentCount(ctx context.Context, id string, delta int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("post_id = ?", id).
		Update("comment_count", gorm.Expr("comment_count + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNoRowsAffected
	}
	return nil
}

// ── Comment Repository 实现 ──

type commentRepo struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepo) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).Where("comment_id = ?", id).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepo) ListByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepo) UpdateContent(ctx context.Context, id string, content string, isAnonymous bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("comment_id = ?", id).
		Updates(map[string]interface{}{
			"content":      content,
			"is_anonymous": isAnonymous,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNoRowsAffected
	}
	return nil
}

func (r *commentRepo) SoftDelete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("comment_id = ?", id).
		Delete(&model.Comment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNoRowsAffected
	}
	return nil
}

func (r *commentRepo) IncrementLikeCount(ctx context.Context, id string, delta int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("comment_id = ?", id).
		Update("like_count", gorm.Expr("like_count + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNoRowsAffected
	}
	return nil
}

// ── CommentLike Repository 实现 ──

type commentLikeRepo struct {
	db *gorm.DB
}

func NewCommentLikeRepo(db *gorm.DB) CommentLikeRepository {
	return &commentLikeRepo{db: db}
}

func (r *commentLikeRepo) Get(ctx context.Context, commentID, userID string) (*model.CommentLike, error) {
	var like model.CommentLike
	err := r.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		First(&like).Error
	if err != nil {
		return nil, err
	}
	return &like, nil
}

func (r *commentLikeRepo) Create(ctx context.Context, like *model.CommentLike) error {
	return r.db.WithContext(ctx).Create(like).Error
}

func (r *commentLikeRepo) Delete(ctx context.Context, commentID, userID string) error {
	result := r.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&model.CommentLike{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNoRowsAffected
	}
	return nil
}

// ── AnonymousNumber Repository 实现 ──

type anonymousNumberRepo struct {
	db *gorm.DB
}

func NewAnonymousNumberRepo(db *gorm.DB) AnonymousNumberRepository {
	return &anonymousNumberRepo{db: db}
}

func (r *anonymousNumberRepo) Get(ctx context.Context, postID, userID string) (*model.CommentAnonymousNumber, error) {
	var assignment model.CommentAnonymousNumber
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *anonymousNumberRepo) MaxNumber(ctx context.Context, postID string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&model.CommentAnonymousNumber{}).
		Where("post_id = ?", postID).
		Select("COALESCE(MAX(anonymous_number), 0)").
		Scan(&max).Error
	return max, err
}

func (r *anonymousNumberRepo) ListByPost(ctx context.Context, postID string) ([]model.CommentAnonymousNumber, error) {
	var assignments []model.CommentAnonymousNumber
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Find(&assignments).Error
	return assignments, err
}

func (r *anonymousNumberRepo) Create(ctx context.Context, assignment *model.CommentAnonymousNumber) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}
