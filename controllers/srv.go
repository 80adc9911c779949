// controllers/srv.go
package controllers

import (
	"log/slog"
	"strconv"
	"time"

	"toolbank/app"
	"toolbank/db"
	"toolbank/ports"
	"toolbank/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Srv struct {
	Tools     *services.ToolService
	Neighbors *services.NeighborService
	Loans     *services.LoanService
	Uploads   *Uploader
	DB        *gorm.DB
	Log       *slog.Logger
	Now       func() time.Time
}

func GetSrv(a *app.App) *Srv {
	return NewSrv(db.NewRepo(a.DB), a.DB, NewUploader(a.Config.Upload.Dir, a.Config.Upload.MaxBytes), a.Log,
		services.WithLocker(a.Locker))
}

func NewSrv(uow ports.UnitOfWork, conn *gorm.DB, up *Uploader, log *slog.Logger, opts ...services.Option) *Srv {
	return &Srv{
		Tools:     services.NewToolService(uow, opts...),
		Neighbors: services.NewNeighborService(uow, opts...),
		Loans:     services.NewLoanService(uow, opts...),
		Uploads:   up,
		DB:        conn,
		Log:       log,
		Now:       time.Now,
	}
}

// --- helpers ---

// pathID parses a positive integer path parameter; it writes the 400 itself.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
