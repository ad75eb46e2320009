package controller

import (
	"errors"
	"strconv"

	"quiz_extended_backend/internal/service"
	"quiz_extended_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RankingController struct {
	Service *service.RankingService
	Stats   *service.StatsService
}

func NewRankingController(svc *service.RankingService, stats *service.StatsService) *RankingController {
	return &RankingController{Service: svc, Stats: stats}
}

// @Summary 测验排行榜
// @Description 返回榜首区与当前用户邻近区
// @Tags 排名模块
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "测验ID"
// @Param topN query int false "榜首区大小"
// @Param window query int false "邻近区半径"
// @Param riskMode query bool false "是否使用风险分"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/leaderboard [get]
func (c *RankingController) Leaderboard(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	topN, _ := strconv.Atoi(ctx.DefaultQuery("topN", "0"))
	window, _ := strconv.Atoi(ctx.DefaultQuery("window", "0"))
	riskMode := ctx.DefaultQuery("riskMode", "true") == "true"

	board, err := c.Service.Leaderboard(ctx.Request.Context(), viewer, ctx.Param("quizId"), topN, window, riskMode)
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, board)
}

// @Summary 测验统计（均分与前20%分界）
// @Description 样本不足时返回 insufficientData 标记，绝不返回 0 值统计
// @Tags 排名模块
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/statistics [get]
func (c *RankingController) Statistics(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.Service.QuizStatistics(ctx.Request.Context(), viewer, ctx.Param("quizId"))
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

// @Summary 手动触发统计重算
// @Description 不等定时任务，立即重算全部测验的群体统计
// @Tags 排名模块
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/admin/statistics/recompute [post]
func (c *RankingController) RecomputeStats(ctx *gin.Context) {
	if err := c.Stats.RecomputeAll(ctx.Request.Context()); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
