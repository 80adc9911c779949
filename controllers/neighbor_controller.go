package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type NeighborController struct{ *Srv }

func NewNeighborController(s *Srv) *NeighborController { return &NeighborController{Srv: s} }

// List returns every neighbor, or the single match of ?documento=.
func (nc *NeighborController) List(c *gin.Context) {
	if doc, ok := c.GetQuery("documento"); ok {
		n, err := nc.Neighbors.FindByDocument(c.Request.Context(), doc)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, neighborOut(n))
		return
	}
	ns, err := nc.Neighbors.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, neighborsOut(ns))
}

func (nc *NeighborController) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	n, err := nc.Neighbors.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, neighborOut(n))
}

func (nc *NeighborController) Create(c *gin.Context) {
	var in neighborRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := nc.Neighbors.Create(c.Request.Context(), in.neighbor())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, neighborOut(n))
}

func (nc *NeighborController) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in neighborRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := nc.Neighbors.Update(c.Request.Context(), id, in.patch())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, neighborOut(n))
}

func (nc *NeighborController) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := nc.Neighbors.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (nc *NeighborController) Loans(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := nc.Srv.Loans.ListByNeighbor(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loanRowsOut(rows, nc.Now()))
}
