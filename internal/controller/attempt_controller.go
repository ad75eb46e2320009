package controller

import (
	"errors"
	"net/http"

	"quiz_extended_backend/internal/service"
	"quiz_extended_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	Service *service.AttemptService
}

func NewAttemptController(svc *service.AttemptService) *AttemptController {
	return &AttemptController{Service: svc}
}

// @Summary 开始或恢复作答
// @Tags 作答模块
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/attempt/start [post]
func (c *AttemptController) Start(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.Service.Start(ctx.Request.Context(), viewer, ctx.Param("quizId"))
	if err != nil {
		var locked *service.QuizLockedError
		switch {
		case errors.As(err, &locked):
			ctx.JSON(http.StatusForbidden, util.Response{
				Code:    http.StatusForbidden,
				Message: "quiz not yet unlocked",
				Data:    gin.H{"unlockAt": locked.UnlockAt},
			})
		case errors.Is(err, util.ErrQuizNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

type RecordAnswerReq struct {
	QuestionID string  `json:"questionId" binding:"required"`
	Answer     *string `json:"answer"`
	IsRisked   bool    `json:"isRisked"`
}

// @Summary 记录单题作答（自动保存）
// @Tags 作答模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "测验ID"
// @Param body body RecordAnswerReq true "作答内容"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/attempt/answer [post]
func (c *AttemptController) RecordAnswer(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	var req RecordAnswerReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	err := c.Service.RecordAnswer(viewer, ctx.Param("quizId"), req.QuestionID, req.Answer, req.IsRisked)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAttemptNotRunning):
			util.Error(ctx, http.StatusConflict, err.Error())
		case errors.Is(err, util.ErrQuestionNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, nil)
}

// @Summary 交卷
// @Description 判分并生成成绩；重复提交幂等返回既有成绩
// @Tags 作答模块
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/attempt/submit [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	attempt, err := c.Service.Submit(ctx.Request.Context(), viewer, ctx.Param("quizId"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAttemptNotRunning):
			util.Error(ctx, http.StatusConflict, err.Error())
		case errors.Is(err, util.ErrQuizNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"attemptId":   attempt.ID,
		"submittedAt": attempt.SubmittedAt,
		"result":      attempt.Result(),
	})
}

// @Summary 中途离开（保留自动保存）
// @Tags 作答模块
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/attempt/exit [post]
func (c *AttemptController) Exit(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	if err := c.Service.Exit(ctx.Request.Context(), viewer, ctx.Param("quizId")); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 放弃作答（丢弃自动保存，重新开始）
// @Tags 作答模块
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{quizId}/attempt/abandon [post]
func (c *AttemptController) Abandon(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	if err := c.Service.Abandon(ctx.Request.Context(), viewer, ctx.Param("quizId")); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 回看历史作答
// @Tags 作答模块
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "作答记录ID"
// @Success 200 {object} util.Response
// @Router /api/attempts/{attemptId} [get]
func (c *AttemptController) Review(ctx *gin.Context) {
	viewer, ok := util.GetViewer(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	review, err := c.Service.Review(viewer, ctx.Param("attemptId"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAttemptNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, review)
}
