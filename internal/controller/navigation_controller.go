package controller

import (
	"errors"

	"quiz_extended_backend/internal/service"
	"quiz_extended_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NavigationController struct {
	Service *service.NavigatorService
}

func NewNavigationController(svc *service.NavigatorService) *NavigationController {
	return &NavigationController{Service: svc}
}

// @Summary 课程测验导航序列
// @Description 按课时与测验的作者排序展开，学生视角隐藏不可见内容
// @Tags 导航模块
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/navigation [get]
func (c *NavigationController) Sequence(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	items, err := c.Service.Sequence(ctx.Request.Context(), viewer, ctx.Param("courseId"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// @Summary 定位当前测验的前后项与续答入口
// @Tags 导航模块
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "课程ID"
// @Param quizId query string false "当前测验ID，缺省时只返回序列与续答入口"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/navigation/resolve [get]
func (c *NavigationController) Resolve(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.Service.Resolve(ctx.Request.Context(), viewer, ctx.Param("courseId"), ctx.Query("quizId"))
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
