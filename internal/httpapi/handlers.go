package httpapi

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Skufu/leukovision/internal/assessment"
)

type ErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

type AssessmentResponse struct {
	ID        string `json:"id"`
	RiskClass int    `json:"riskClass"`
	RiskLevel string `json:"riskLevel"`
	Severity  string `json:"severity"`
	Guidance  string `json:"guidance"`
	Saved     bool   `json:"saved"`
	SaveError string `json:"saveError,omitempty"`
}

type handler struct {
	assessor *assessment.Service
}

func (h *handler) home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", nil)
}

func (h *handler) form(c *gin.Context) {
	c.HTML(http.StatusOK, "form.html", gin.H{"Questions": questions})
}

func (h *handler) submitForm(c *gin.Context) {
	var in Intake
	if err := c.ShouldBind(&in); err != nil {
		status, resp := bindFailure(err)
		c.HTML(status, "form.html", gin.H{"Questions": questions, "Errors": resp.Fields, "Error": resp.Error})
		return
	}

	res, err := h.assessor.Assess(c.Request.Context(), in.Record())
	if err != nil {
		status, resp := assessFailure(err)
		_ = c.Error(err)
		c.HTML(status, "form.html", gin.H{"Questions": questions, "Error": resp.Error})
		return
	}

	c.HTML(http.StatusOK, "result.html", gin.H{
		"Tier":  res.Tier,
		"Saved": res.Saved,
		"ID":    res.ID.String(),
	})
}

func (h *handler) createAssessment(c *gin.Context) {
	var in Intake
	if err := c.ShouldBindJSON(&in); err != nil {
		status, resp := bindFailure(err)
		c.JSON(status, resp)
		return
	}

	res, err := h.assessor.Assess(c.Request.Context(), in.Record())
	if err != nil {
		status, resp := assessFailure(err)
		_ = c.Error(err)
		c.JSON(status, resp)
		return
	}

	out := AssessmentResponse{
		ID:        res.ID.String(),
		RiskClass: int(res.Tier.Class),
		RiskLevel: res.Tier.Label,
		Severity:  string(res.Tier.Severity),
		Guidance:  res.Tier.Guidance,
		Saved:     res.Saved,
	}
	if res.SaveError != nil {
		out.SaveError = "result computed but not saved"
	}
	c.JSON(http.StatusOK, out)
}

func bindFailure(err error) (int, ErrorResponse) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, ErrorResponse{Error: "payload too large"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "validation_failed", Fields: fields}
	}

	return http.StatusBadRequest, ErrorResponse{Error: "invalid payload"}
}

func assessFailure(err error) (int, ErrorResponse) {
	if errors.Is(err, assessment.ErrInvalidInput) {
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "validation_failed"}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "assessment failed"}
}

var fieldNamesOnce sync.Once

// registerFieldNames makes validation errors report json field names
// instead of Go struct field names.
func registerFieldNames() {
	fieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
}
