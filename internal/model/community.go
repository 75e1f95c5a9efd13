package model

import "time"

// Post 帖子表 — 对应 posts
type Post struct {
	PostID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"post_id"`
	UserID       string `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Title        string `gorm:"type:varchar(255);not null"                     json:"title"`
	Content      string `gorm:"type:text;not null"                             json:"content"`
	IsAnonymous  bool   `gorm:"not null;default:false"                         json:"is_anonymous"`
	CommentCount int    `gorm:"not null;default:0"                             json:"comment_count"`
	SoftDeleteModel
}

// TableName 指定表名
func (Post) TableName() string { return "posts" }

// Comment 评论表 — 对应 comments
// 回复层级固定为 1：对回复的回复会被重挂到顶层父评论
type Comment struct {
	CommentID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"comment_id"`
	PostID          string  `gorm:"type:uuid;not null;index"                       json:"post_id"`
	UserID          string  `gorm:"type:uuid;not null"                             json:"user_id"`
	ParentCommentID *string `gorm:"type:uuid"                                      json:"parent_comment_id,omitempty"`
	Content         string  `gorm:"type:text;not null"                             json:"content"`
	IsAnonymous     bool    `gorm:"not null;default:false"                         json:"is_anonymous"`
	LikeCount       int     `gorm:"not null;default:0"                             json:"like_count"`
	SoftDeleteModel
}

// TableName 指定表名
func (Comment) TableName() string { return "comments" }

// CommentLike 评论点赞表 — 对应 comment_likes
type CommentLike struct {
	CommentLikeID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"comment_like_id"`
	CommentID     string    `gorm:"type:uuid;not null;uniqueIndex:uniq_comment_like" json:"comment_id"`
	UserID        string    `gorm:"type:uuid;not null;uniqueIndex:uniq_comment_like" json:"user_id"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (CommentLike) TableName() string { return "comment_likes" }

// CommentAnonymousNumber 帖子内匿名编号表 — 对应 comment_anonymous_numbers
// 帖子作者固定 0，其他用户按首次匿名发言顺序取 max+1，不回收不跳号
type CommentAnonymousNumber struct {
	PostID          string    `gorm:"type:uuid;primaryKey"               json:"post_id"`
	UserID          string    `gorm:"type:uuid;primaryKey"               json:"user_id"`
	AnonymousNumber int       `gorm:"not null"                           json:"anonymous_number"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (CommentAnonymousNumber) TableName() string { return "comment_anonymous_numbers" }

// [自证通过] internal/model/community.go
