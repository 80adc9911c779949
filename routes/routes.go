package routes

import (
	"toolbank/app"
	"toolbank/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	Mount(r, controllers.GetSrv(a), a.Config.Upload.Dir)
}

// Mount wires every handler onto r. uploadDir is served under /uploads.
func Mount(r *gin.Engine, s *controllers.Srv, uploadDir string) {
	// 控制器与依赖
	toolCtl := controllers.NewToolController(s)
	neighborCtl := controllers.NewNeighborController(s)
	loanCtl := controllers.NewLoanController(s)

	r.GET("/healthz", s.Health)
	if uploadDir != "" {
		r.Static("/uploads", uploadDir)
	}

	// ------------------------------
	// 工具 herramientas
	// ------------------------------
	tools := r.Group("/herramientas")
	{
		tools.GET("", toolCtl.List)
		tools.GET("/estados", toolCtl.Conditions)
		tools.GET("/:id", toolCtl.Get)
		tools.POST("", toolCtl.Create)
		tools.PUT("/:id", toolCtl.Update)
		tools.PATCH("/:id/disponibilidad", toolCtl.SetAvailability)
		tools.DELETE("/:id", toolCtl.Delete)
		tools.GET("/:id/prestamos", toolCtl.Loans)
	}

	// ------------------------------
	// 邻居 vecinos
	// ------------------------------
	neighbors := r.Group("/vecinos")
	{
		neighbors.GET("", neighborCtl.List) // ?documento=
		neighbors.GET("/:id", neighborCtl.Get)
		neighbors.POST("", neighborCtl.Create)
		neighbors.PUT("/:id", neighborCtl.Update)
		neighbors.DELETE("/:id", neighborCtl.Delete)
		neighbors.GET("/:id/prestamos", neighborCtl.Loans)
	}

	// ------------------------------
	// 借还 prestamos
	// ------------------------------
	loans := r.Group("/prestamos")
	{
		loans.GET("", loanCtl.List)
		loans.GET("/activos", loanCtl.ListActive)
		loans.GET("/:id", loanCtl.Get)
		loans.POST("", loanCtl.Create)
		loans.PUT("/:id", loanCtl.Update)
		loans.PUT("/:id/devolver", loanCtl.Return)
		loans.DELETE("/:id", loanCtl.Delete)
	}
}
