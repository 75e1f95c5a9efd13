package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"kukey/backend/internal/dto"
	"kukey/backend/internal/service"
	"kukey/backend/pkg/response"
)

// TimetableHandler 时间表模块 HTTP 处理器
type TimetableHandler struct {
	svc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler
func NewTimetableHandler(svc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{svc: svc}
}

// Create 创建时间表
// POST /api/v1/timetables
func (h *TimetableHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.svc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, result)
}

// List 指定学期的全部时间表
// GET /api/v1/timetables?year=2024&semester=SPRING
func (h *TimetableHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	year, semester, ok := h.bindSemesterQuery(c)
	if !ok {
		return
	}

	result, err := h.svc.ListByOwner(c.Request.Context(), userID, year, semester)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, result)
}

// GetMain 指定学期的主时间表
// GET /api/v1/timetables/main?year=2024&semester=SPRING
func (h *TimetableHandler) GetMain(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	year, semester, ok := h.bindSemesterQuery(c)
	if !ok {
		return
	}

	result, err := h.svc.GetMain(c.Request.Context(), userID, year, semester)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, result)
}

// Get 时间表详情
// GET /api/v1/timetables/:id
func (h *TimetableHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, result)
}

// Rename 重命名时间表
// PATCH /api/v1/timetables/:id/name
func (h *TimetableHandler) Rename(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateTimetableNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.svc.Rename(c.Request.Context(), c.Param("id"), req.Name, userID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, result)
}

// SetMain 设为主时间表
// PATCH /api/v1/timetables/:id/main
func (h *TimetableHandler) SetMain(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.svc.SetMain(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, result)
}

// Delete 删除时间表
// DELETE /api/v1/timetables/:id
func (h *TimetableHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, nil)
}

// AddCourse 向时间表加课
// POST /api/v1/timetables/courses
func (h *TimetableHandler) AddCourse(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.TimetableCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.svc.AddCourse(c.Request.Context(), &req, userID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, result)
}

// RemoveCourse 从时间表删课（幂等）
// DELETE /api/v1/timetables/courses
func (h *TimetableHandler) RemoveCourse(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.TimetableCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.svc.RemoveCourse(c.Request.Context(), &req, userID); err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, nil)
}

// ExportICS 导出 iCalendar
// GET /api/v1/timetables/:id/ics
func (h *TimetableHandler) ExportICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	data, filename, err := h.svc.ExportICS(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "text/calendar", data)
}

func (h *TimetableHandler) bindSemesterQuery(c *gin.Context) (int, string, bool) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2100 {
		response.BadRequest(c, 10001, "year 参数非法")
		return 0, "", false
	}
	semester := c.Query("semester")
	switch semester {
	case "SPRING", "SUMMER", "FALL", "WINTER":
	default:
		response.BadRequest(c, 10001, "semester 参数非法")
		return 0, "", false
	}
	return year, semester, true
}

// handleTimetableError 统一时间表模块错误映射
func handleTimetableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimetableNotFound):
		response.NotFound(c, 31001, "时间表不存在")
	case errors.Is(err, service.ErrTimetableNotOwner):
		response.Forbidden(c, 31002, "无权操作他人的时间表")
	case errors.Is(err, service.ErrTimetableLimit):
		response.Conflict(c, 31003, "同一学期最多创建 3 张时间表")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 31004, "课程不存在")
	case errors.Is(err, service.ErrTimetableCourseExists):
		response.Conflict(c, 31005, "该课程已在时间表中")
	case errors.Is(err, service.ErrCourseTimeConflict):
		response.Conflict(c, 31006, "该课程与时间表中已有课程时间冲突")
	case errors.Is(err, service.ErrInvalidPeriod):
		response.Error(c, http.StatusInternalServerError, 31007, "课程节次数据非法")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 21001, "用户不存在")
	default:
		response.InternalError(c)
	}
}
