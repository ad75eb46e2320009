package app

import (
	"quiz_extended_backend/docs"
	"quiz_extended_backend/internal/config"
	"quiz_extended_backend/internal/middleware"
	"quiz_extended_backend/internal/model"
	"quiz_extended_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	router.GET("/api/health", c.health.HealthCheck)

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		// 作答模块
		quiz := authGroup.Group("/quizzes/:quizId")
		{
			quiz.POST("/attempt/start", c.attempt.Start)
			quiz.POST("/attempt/answer", c.attempt.RecordAnswer)
			quiz.POST("/attempt/submit", c.attempt.Submit)
			quiz.POST("/attempt/exit", c.attempt.Exit)
			quiz.POST("/attempt/abandon", c.attempt.Abandon)

			// 排名模块
			quiz.GET("/leaderboard", c.ranking.Leaderboard)
			quiz.GET("/statistics", c.ranking.Statistics)
		}

		authGroup.GET("/attempts/:attemptId", c.attempt.Review)

		// 进度与导航模块
		course := authGroup.Group("/courses/:courseId")
		{
			course.GET("/progress", c.progress.CourseProgress)
			course.POST("/progress/complete", c.progress.MarkComplete)
			course.POST("/progress/uncomplete", c.progress.UnmarkComplete)
			course.GET("/navigation", c.navigation.Sequence)
			course.GET("/navigation/resolve", c.navigation.Resolve)
		}

		// 收藏模块
		authGroup.POST("/questions/:questionId/favorite", c.favorite.Toggle)
		authGroup.GET("/questions/:questionId/favorite", c.favorite.Status)
		authGroup.GET("/favorites", c.favorite.List)

		// 管理模块(教师/管理员)
		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.Teacher))
		{
			admin.POST("/statistics/recompute", c.ranking.RecomputeStats)
		}
	}
}
