package controller

import (
	"errors"

	"quiz_extended_backend/internal/service"
	"quiz_extended_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FavoriteController struct {
	Service *service.FavoriteService
}

func NewFavoriteController(svc *service.FavoriteService) *FavoriteController {
	return &FavoriteController{Service: svc}
}

// @Summary 收藏/取消收藏题目
// @Tags 收藏模块
// @Produce json
// @Security BearerAuth
// @Param questionId path string true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/questions/{questionId}/favorite [post]
func (c *FavoriteController) Toggle(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	favorited, err := c.Service.Toggle(viewer, ctx.Param("questionId"))
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"favorited": favorited})
}

// @Summary 查询题目收藏状态
// @Tags 收藏模块
// @Produce json
// @Security BearerAuth
// @Param questionId path string true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/questions/{questionId}/favorite [get]
func (c *FavoriteController) Status(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	favorited, err := c.Service.IsFavorited(viewer, ctx.Param("questionId"))
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"favorited": favorited})
}

// @Summary 我的收藏题目列表
// @Tags 收藏模块
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/favorites [get]
func (c *FavoriteController) List(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	favorites, err := c.Service.List(viewer)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, favorites)
}
