package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"toolbank/models"
)

// The HTTP API speaks Spanish field names; this file translates between
// them and the models.

var conditionFromWire = map[string]models.Condition{
	"nuevo":   models.ConditionNew,
	"bueno":   models.ConditionGood,
	"regular": models.ConditionFair,
	"malo":    models.ConditionPoor,
}

var conditionToWire = map[models.Condition]string{
	models.ConditionNew:  "nuevo",
	models.ConditionGood: "bueno",
	models.ConditionFair: "regular",
	models.ConditionPoor: "malo",
}

// parseCondition accepts the Spanish and the English names in any case.
// Unknown values pass through for the service to reject.
func parseCondition(raw string) models.Condition {
	c := models.NormalizeCondition(raw)
	if mapped, ok := conditionFromWire[string(c)]; ok {
		return mapped
	}
	return c
}

func wireCondition(c models.Condition) string {
	if s, ok := conditionToWire[c]; ok {
		return s
	}
	return string(c)
}

// flexInt accepts 7 and "7" in JSON bodies.
type flexInt struct {
	Set   bool
	Value int64
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("%s is not an integer id", b)
	}
	f.Set, f.Value = true, n
	return nil
}

// flexTime accepts RFC 3339 timestamps and plain dates.
type flexTime struct {
	Set   bool
	Value time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(*s)); err == nil {
			f.Set, f.Value = true, t.UTC()
			return nil
		}
	}
	return fmt.Errorf("%q is not a date", *s)
}

func (f flexInt) ptr() *int64 {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

func (f flexTime) ptr() *time.Time {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

func firstString(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstInt(vals ...flexInt) flexInt {
	for _, v := range vals {
		if v.Set {
			return v
		}
	}
	return flexInt{}
}

// ---- tools ----

type toolRequest struct {
	Tipo           *string `json:"tipo" form:"tipo"`
	Nombre         *string `json:"nombre" form:"nombre"`
	Estado         *string `json:"estado" form:"estado"`
	Disponible     *bool   `json:"disponible" form:"disponible"`
	Notas          *string `json:"notas" form:"notas"`
	ImagenURL      *string `json:"imagen_url" form:"imagen_url"`
	ImagenURLCamel *string `json:"imagenUrl" form:"imagenUrl"`
}

func (r toolRequest) tool() *models.Tool {
	t := models.NewTool(deref(r.Tipo), deref(r.Nombre), "")
	if r.Estado != nil {
		t.Condition = parseCondition(*r.Estado)
	}
	if r.Disponible != nil {
		t.Available = *r.Disponible
	}
	t.Notes = r.Notas
	t.ImageURL = firstString(r.ImagenURL, r.ImagenURLCamel)
	return t
}

func (r toolRequest) patch() models.ToolPatch {
	p := models.ToolPatch{
		Category:  r.Tipo,
		Name:      r.Nombre,
		Available: r.Disponible,
		Notes:     r.Notas,
		ImageURL:  firstString(r.ImagenURL, r.ImagenURLCamel),
	}
	if r.Estado != nil {
		c := parseCondition(*r.Estado)
		p.Condition = &c
	}
	return p
}

type toolResponse struct {
	ID         int64     `json:"id"`
	Tipo       string    `json:"tipo"`
	Nombre     string    `json:"nombre"`
	Estado     string    `json:"estado"`
	Disponible bool      `json:"disponible"`
	Notas      *string   `json:"notas"`
	ImagenURL  *string   `json:"imagen_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toolOut(t *models.Tool) toolResponse {
	return toolResponse{
		ID:         t.ID,
		Tipo:       t.Category,
		Nombre:     t.Name,
		Estado:     wireCondition(t.Condition),
		Disponible: t.Available,
		Notas:      t.Notes,
		ImagenURL:  t.ImageURL,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func toolsOut(ts []models.Tool) []toolResponse {
	out := make([]toolResponse, len(ts))
	for i := range ts {
		out[i] = toolOut(&ts[i])
	}
	return out
}

// ---- neighbors ----

type neighborRequest struct {
	NombreCompleto      *string `json:"nombre_completo"`
	NombreCompletoCamel *string `json:"nombreCompleto"`
	Documento           *string `json:"documento"`
	Telefono            *string `json:"telefono"`
	Email               *string `json:"email"`
}

func (r neighborRequest) neighbor() *models.Neighbor {
	return &models.Neighbor{
		FullName: deref(firstString(r.NombreCompleto, r.NombreCompletoCamel)),
		Document: deref(r.Documento),
		Phone:    r.Telefono,
		Email:    r.Email,
	}
}

func (r neighborRequest) patch() models.NeighborPatch {
	return models.NeighborPatch{
		FullName: firstString(r.NombreCompleto, r.NombreCompletoCamel),
		Document: r.Documento,
		Phone:    r.Telefono,
		Email:    r.Email,
	}
}

type neighborResponse struct {
	ID             int64     `json:"id"`
	NombreCompleto string    `json:"nombre_completo"`
	Documento      string    `json:"documento"`
	Telefono       *string   `json:"telefono"`
	Email          *string   `json:"email"`
	CreatedAt      time.Time `json:"created_at"`
}

func neighborOut(n *models.Neighbor) neighborResponse {
	return neighborResponse{
		ID:             n.ID,
		NombreCompleto: n.FullName,
		Documento:      n.Document,
		Telefono:       n.Phone,
		Email:          n.Email,
		CreatedAt:      n.CreatedAt,
	}
}

func neighborsOut(ns []models.Neighbor) []neighborResponse {
	out := make([]neighborResponse, len(ns))
	for i := range ns {
		out[i] = neighborOut(&ns[i])
	}
	return out
}

// ---- loans ----

type loanRequest struct {
	VecinoID           flexInt  `json:"vecino_id"`
	VecinoIDCamel      flexInt  `json:"vecinoId"`
	HerramientaID      flexInt  `json:"herramienta_id"`
	HerramientaIDCamel flexInt  `json:"herramientaId"`
	FechaPrestamo      flexTime `json:"fecha_prestamo"`
	FechaDevolucion    flexTime `json:"fecha_devolucion"`
	Observaciones      *string  `json:"observaciones"`
}

func (r loanRequest) patch() models.LoanPatch {
	return models.LoanPatch{
		NeighborID:   firstInt(r.VecinoID, r.VecinoIDCamel).ptr(),
		ToolID:       firstInt(r.HerramientaID, r.HerramientaIDCamel).ptr(),
		LoanDate:     r.FechaPrestamo.ptr(),
		ReturnDate:   r.FechaDevolucion.ptr(),
		Observations: r.Observaciones,
	}
}

type loanResponse struct {
	ID              int64      `json:"id"`
	VecinoID        int64      `json:"vecino_id"`
	HerramientaID   int64      `json:"herramienta_id"`
	FechaPrestamo   time.Time  `json:"fecha_prestamo"`
	FechaDevolucion *time.Time `json:"fecha_devolucion"`
	Observaciones   *string    `json:"observaciones"`
	Activo          bool       `json:"activo"`
	DiasPrestamo    int        `json:"dias_prestamo"`

	// set on listings only
	Vecino            *string `json:"vecino,omitempty"`
	Herramienta       *string `json:"herramienta,omitempty"`
	HerramientaImagen *string `json:"herramienta_imagen,omitempty"`
}

func loanOut(l *models.Loan, now time.Time) loanResponse {
	return loanResponse{
		ID:              l.ID,
		VecinoID:        l.NeighborID,
		HerramientaID:   l.ToolID,
		FechaPrestamo:   l.LoanDate,
		FechaDevolucion: l.ReturnDate,
		Observaciones:   l.Observations,
		Activo:          l.IsActive(),
		DiasPrestamo:    l.DurationDays(now),
	}
}

func loanRowsOut(rows []models.LoanRow, now time.Time) []loanResponse {
	out := make([]loanResponse, len(rows))
	for i, r := range rows {
		l := models.Loan{
			ID: r.ID, NeighborID: r.NeighborID, ToolID: r.ToolID,
			LoanDate: r.LoanDate, ReturnDate: r.ReturnDate, Observations: r.Observations,
		}
		o := loanOut(&l, now)
		vecino, herramienta := r.NeighborName, r.ToolName
		o.Vecino, o.Herramienta, o.HerramientaImagen = &vecino, &herramienta, r.ToolImageURL
		out[i] = o
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
