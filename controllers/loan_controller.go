package controllers

import (
	"net/http"

	"toolbank/services"

	"github.com/gin-gonic/gin"
)

type LoanController struct{ *Srv }

func NewLoanController(s *Srv) *LoanController { return &LoanController{Srv: s} }

func (lc *LoanController) List(c *gin.Context) {
	rows, err := lc.Loans.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loanRowsOut(rows, lc.Now()))
}

func (lc *LoanController) ListActive(c *gin.Context) {
	rows, err := lc.Loans.ListActive(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loanRowsOut(rows, lc.Now()))
}

func (lc *LoanController) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	l, err := lc.Loans.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loanOut(l, lc.Now()))
}

func (lc *LoanController) Create(c *gin.Context) {
	var in loanRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	l, err := lc.Loans.Create(c.Request.Context(), services.NewLoan{
		NeighborID:   firstInt(in.VecinoID, in.VecinoIDCamel).Value,
		ToolID:       firstInt(in.HerramientaID, in.HerramientaIDCamel).Value,
		Observations: in.Observaciones,
		LoanDate:     in.FechaPrestamo.ptr(),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, loanOut(l, lc.Now()))
}

func (lc *LoanController) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in loanRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	l, err := lc.Loans.Update(c.Request.Context(), id, in.patch())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loanOut(l, lc.Now()))
}

// 归还
func (lc *LoanController) Return(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	l, err := lc.Loans.Return(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loanOut(l, lc.Now()))
}

func (lc *LoanController) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := lc.Loans.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
