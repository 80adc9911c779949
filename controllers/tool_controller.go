package controllers

import (
	"net/http"
	"strings"

	"toolbank/models"

	"github.com/gin-gonic/gin"
)

type ToolController struct{ *Srv }

func NewToolController(s *Srv) *ToolController { return &ToolController{Srv: s} }

// bind reads JSON or multipart form fields, storing the optional "imagen"
// file. The returned ref is empty when no file was sent.
func (tc *ToolController) bind(c *gin.Context) (toolRequest, string, bool) {
	var in toolRequest
	if err := c.ShouldBind(&in); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return in, "", false
	}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return in, "", true
	}
	fh, err := c.FormFile("imagen")
	if err == http.ErrMissingFile {
		return in, "", true
	}
	if err != nil {
		badRequest(c, "invalid image upload: "+err.Error())
		return in, "", false
	}
	ref, err := tc.Uploads.Save(fh)
	if err != nil {
		fail(c, err)
		return in, "", false
	}
	in.ImagenURL = &ref
	return in, ref, true
}

func (tc *ToolController) List(c *gin.Context) {
	tools, err := tc.Tools.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toolsOut(tools))
}

func (tc *ToolController) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := tc.Tools.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toolOut(t))
}

func (tc *ToolController) Create(c *gin.Context) {
	in, uploaded, ok := tc.bind(c)
	if !ok {
		return
	}
	t, err := tc.Tools.Create(c.Request.Context(), in.tool())
	if err != nil {
		tc.Uploads.Remove(uploaded)
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toolOut(t))
}

func (tc *ToolController) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in, uploaded, ok := tc.bind(c)
	if !ok {
		return
	}

	var previous *string
	if uploaded != "" {
		if cur, err := tc.Tools.Get(c.Request.Context(), id); err == nil {
			previous = cur.ImageURL
		}
	}

	t, err := tc.Tools.Update(c.Request.Context(), id, in.patch())
	if err != nil {
		tc.Uploads.Remove(uploaded)
		fail(c, err)
		return
	}
	if previous != nil && *previous != uploaded {
		tc.Uploads.Remove(*previous)
	}
	c.JSON(http.StatusOK, toolOut(t))
}

func (tc *ToolController) SetAvailability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Disponible *bool `json:"disponible"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.Disponible == nil {
		badRequest(c, "disponible (bool) is required")
		return
	}
	t, err := tc.Tools.SetAvailability(c.Request.Context(), id, *in.Disponible)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toolOut(t))
}

func (tc *ToolController) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var image *string
	if cur, err := tc.Tools.Get(c.Request.Context(), id); err == nil {
		image = cur.ImageURL
	}
	if err := tc.Tools.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	if image != nil {
		tc.Uploads.Remove(*image)
	}
	c.Status(http.StatusNoContent)
}

func (tc *ToolController) Loans(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := tc.Srv.Loans.ListByTool(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loanRowsOut(rows, tc.Now()))
}

// Conditions lists accepted "estado" values.
func (tc *ToolController) Conditions(c *gin.Context) {
	out := make([]string, len(models.Conditions))
	for i, cond := range models.Conditions {
		out[i] = wireCondition(cond)
	}
	c.JSON(http.StatusOK, out)
}
