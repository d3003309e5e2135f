package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yumi-nakamura/GharProject-sub000/config"
	"github.com/yumi-nakamura/GharProject-sub000/controllers"
	"github.com/yumi-nakamura/GharProject-sub000/middleware"
	"github.com/yumi-nakamura/GharProject-sub000/services"
)

func RegisterRoutes(r *gin.Engine, conf config.Config, analysisService *services.AnalysisService, store *services.AnalysisStore) {
	authController := controllers.NewAuthController(conf)
	analysisController := controllers.NewAnalysisController(analysisService, store)
	reportController := controllers.NewReportController(services.NewAggregator(config.DB))
	otayoriController := controllers.OtayoriController{}
	petController := controllers.PetController{}
	userController := controllers.UserController{}
	redeemController := controllers.RedeemController{}

	// 公开路由（无需认证）
	public := r.Group("/api/v1")
	{
		public.POST("/auth/wechat", authController.WechatLogin)
		public.POST("/auth/test-user", authController.CreateTestUser)
	}

	// 需要认证的路由
	private := r.Group("/api/v1")
	private.Use(middleware.AuthMiddleware()) // 应用认证中间件
	{
		// AI分析相关接口
		private.POST("/analysis", analysisController.Analyze)
		private.POST("/analysis/save", analysisController.Save)
		private.DELETE("/analysis/:id", analysisController.Delete)
		private.GET("/analysis/candidates", analysisController.ListCandidates)
		private.GET("/analysis/history", analysisController.ListHistory)

		// 日志记录同步
		private.POST("/sync/otayori", otayoriController.SyncOtayori)
		private.GET("/sync/updates", otayoriController.GetUpdates)

		// 宠物档案
		private.GET("/pets", petController.ListPets)
		private.POST("/pets", petController.CreatePet)
		private.PUT("/pets/:id", petController.UpdatePet)

		// 健康报告
		private.GET("/report", reportController.GetHealthReport)

		private.GET("/user", userController.GetUser)
		private.GET("/user/energy", userController.GetEnergy)
		private.POST("/redeem", redeemController.RedeemCode)
	}

	// 内部路由组（仅限服务器内部调用）
	internal := r.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware())
	{
		internal.GET("/user/add-energy", userController.AddEnergy)
		internal.GET("/redeem/generate", redeemController.CreateRedeemCode)
	}

	// 测试路由
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
}
