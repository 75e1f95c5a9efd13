package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"kukey/backend/internal/dto"
	"kukey/backend/internal/service"
	"kukey/backend/pkg/response"
)

// CommentHandler 评论模块 HTTP 处理器
type CommentHandler struct {
	svc service.CommentService
}

// NewCommentHandler 创建 CommentHandler
func NewCommentHandler(svc service.CommentService) *CommentHandler {
	return &CommentHandler{svc: svc}
}

// Create 创建评论或回复
// POST /api/v1/posts/:id/comments?parent_comment_id=xxx
func (h *CommentHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	var parentID *string
	if v := c.Query("parent_comment_id"); v != "" {
		parentID = &v
	}

	result, err := h.svc.Create(c.Request.Context(), c.Param("id"), parentID, userID, &req)
	if err != nil {
		handleCommentError(c, err)
		return
	}
	response.Created(c, result)
}

// List 帖子下全部评论
// GET /api/v1/posts/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListByPost(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleCommentError(c, err)
		return
	}
	response.OK(c, result)
}

// Update 修改评论
// PATCH /api/v1/comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.svc.Update(c.Request.Context(), c.Param("id"), userID, &req); err != nil {
		handleCommentError(c, err)
		return
	}
	response.OK(c, nil)
}

// Delete 删除评论
// DELETE /api/v1/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleCommentError(c, err)
		return
	}
	response.OK(c, nil)
}

// ToggleLike 点赞/取消点赞
// POST /api/v1/comments/:id/like
func (h *CommentHandler) ToggleLike(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.svc.ToggleLike(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleCommentError(c, err)
		return
	}
	response.OK(c, result)
}

// handleCommentError 统一评论模块错误映射
func handleCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		response.NotFound(c, 41001, "帖子不存在")
	case errors.Is(err, service.ErrCommentNotFound):
		response.NotFound(c, 41002, "评论不存在")
	case errors.Is(err, service.ErrCommentNotOwner):
		response.Forbidden(c, 41003, "无权操作他人评论")
	case errors.Is(err, service.ErrParentCommentNotFound):
		response.NotFound(c, 41004, "父评论不存在")
	case errors.Is(err, service.ErrParentCommentMismatch):
		response.BadRequest(c, 41005, "父评论不属于该帖子")
	case errors.Is(err, service.ErrCommentSelfLike):
		response.Forbidden(c, 41006, "不能给自己的评论点赞")
	default:
		response.InternalError(c)
	}
}
