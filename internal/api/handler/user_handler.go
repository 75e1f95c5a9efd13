package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"kukey/backend/internal/dto"
	"kukey/backend/internal/service"
	"kukey/backend/pkg/response"
)

// UserHandler 用户/积分模块 HTTP 处理器
type UserHandler struct {
	userSvc   service.UserService
	pointSvc  service.PointService
	itemSvc   service.ItemService
	exportSvc service.ExportService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService, pointSvc service.PointService, itemSvc service.ItemService, exportSvc service.ExportService) *UserHandler {
	return &UserHandler{userSvc: userSvc, pointSvc: pointSvc, itemSvc: itemSvc, exportSvc: exportSvc}
}

// GetMe 当前用户详情
// GET /api/v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.userSvc.GetMe(c.Request.Context(), userID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	response.OK(c, result)
}

// GetPointHistory 积分流水
// GET /api/v1/users/me/point-histories
func (h *UserHandler) GetPointHistory(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.pointSvc.History(c.Request.Context(), userID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	response.OK(c, result)
}

// ExportPointHistory 积分流水导出为 Excel
// GET /api/v1/users/me/point-histories/export
func (h *UserHandler) ExportPointHistory(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	data, filename, err := h.exportSvc.PointHistoryXLSX(c.Request.Context(), userID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// PurchaseItem 购买道具
// POST /api/v1/users/me/items
func (h *UserHandler) PurchaseItem(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.PurchaseItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.itemSvc.Purchase(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	response.OK(c, result)
}

// handleUserError 统一用户/积分模块错误映射
func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 21001, "用户不存在")
	case errors.Is(err, service.ErrPointNotEnough):
		response.Conflict(c, 21002, "积分不足")
	case errors.Is(err, service.ErrItemCategoryUnknown):
		response.BadRequest(c, 21003, "未知的道具品类")
	case errors.Is(err, service.ErrItemMetadataMissing):
		response.BadRequest(c, 21004, "道具参数缺失或非法")
	case errors.Is(err, service.ErrItemPointMismatch):
		response.Conflict(c, 21005, "道具价格与价目表不一致")
	case errors.Is(err, service.ErrCharacterNotFound):
		response.NotFound(c, 21006, "角色信息不存在")
	case errors.Is(err, service.ErrCharacterMaxLevel):
		response.Conflict(c, 21007, "角色已达最高等级")
	default:
		response.InternalError(c)
	}
}
