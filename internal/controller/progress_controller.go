package controller

import (
	"errors"

	"quiz_extended_backend/internal/model"
	"quiz_extended_backend/internal/service"
	"quiz_extended_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	Service *service.CompletionService
}

func NewProgressController(svc *service.CompletionService) *ProgressController {
	return &ProgressController{Service: svc}
}

type CompletionReq struct {
	ContentID      string `json:"contentId" binding:"required"`
	ContentType    string `json:"contentType" binding:"required"`
	ParentLessonID string `json:"parentLessonId"`
	StepIndex      *int   `json:"stepIndex"`
}

func (r *CompletionReq) key() model.CompletionKey {
	key := model.CompletionKey{
		ContentID:      r.ContentID,
		ContentType:    model.ContentType(r.ContentType),
		ParentLessonID: r.ParentLessonID,
		StepIndex:      model.NoStepIndex,
	}
	if r.StepIndex != nil {
		key.StepIndex = *r.StepIndex
	}
	return key
}

// @Summary 标记内容完成
// @Tags 进度模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "课程ID"
// @Param body body CompletionReq true "完成项"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/progress/complete [post]
func (c *ProgressController) MarkComplete(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	var req CompletionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Service.MarkComplete(viewer, ctx.Param("courseId"), req.key()); err != nil {
		if errors.Is(err, util.ErrInvalidContentType) {
			util.BadRequest(ctx, err.Error())
			return
		}
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 取消内容完成标记
// @Tags 进度模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "课程ID"
// @Param body body CompletionReq true "完成项"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/progress/uncomplete [post]
func (c *ProgressController) UnmarkComplete(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	var req CompletionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Service.UnmarkComplete(viewer, ctx.Param("courseId"), req.key()); err != nil {
		if errors.Is(err, util.ErrInvalidContentType) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 课程进度汇总
// @Description 按内容类型统计完成数与总数
// @Tags 进度模块
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/progress [get]
func (c *ProgressController) CourseProgress(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.Service.CourseProgress(viewer, ctx.Param("courseId"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}
