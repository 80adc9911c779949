package controllers

import (
	"net/http"

	"toolbank/db"

	"github.com/gin-gonic/gin"
)

func (s *Srv) Health(c *gin.Context) {
	if err := db.Ping(s.DB); err != nil {
		s.Log.Error("health check failed", "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "db": "up"})
}
