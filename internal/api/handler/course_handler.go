package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"kukey/backend/internal/dto"
	"kukey/backend/internal/service"
	"kukey/backend/pkg/response"
)

// CourseHandler 课程目录 HTTP 处理器
type CourseHandler struct {
	svc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(svc service.CourseService) *CourseHandler {
	return &CourseHandler{svc: svc}
}

// List 检索课程
// GET /api/v1/courses?year=2024&semester=SPRING&keyword=xxx&page=1
func (h *CourseHandler) List(c *gin.Context) {
	var req dto.CourseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	courses, total, err := h.svc.Search(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{
		"items":     courses,
		"total":     total,
		"page":      req.GetPage(),
		"page_size": req.GetPageSize(),
	})
}

// Get 课程详情
// GET /api/v1/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	result, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.NotFound(c, 31004, "课程不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}
