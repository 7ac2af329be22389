package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/service"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/access"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/workflow"
)

const (
	// EmployeeHeader carries the signed-in employee's email
	EmployeeHeader = "X-Employee-Email"

	actorKey   = "actor"
	dateLayout = "2006-01-02"
)

// Handlers contains HTTP request handlers
type Handlers struct {
	services Services
	location *time.Location
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, location *time.Location, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		location: location,
		logger:   logger,
	}
}

// Response is the standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	// Warning is set when the request succeeded but a side effect failed
	Warning string `json:"warning,omitempty"`
}

// HealthResponse is the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	})
}

// Identify resolves the employee named by EmployeeHeader and stores the
// actor in both the gin context and the request context.
func (h *Handlers) Identify(c *gin.Context) {
	email := strings.TrimSpace(c.GetHeader(EmployeeHeader))
	if email == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Error: "missing " + EmployeeHeader + " header"})
		return
	}

	emp, err := h.services.Employees.GetByEmail(c.Request.Context(), email)
	if err != nil {
		h.logger.Error("Failed to resolve employee", "email", email, "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, Response{Error: "failed to resolve employee"})
		return
	}
	if emp == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Error: "unknown employee"})
		return
	}

	a := access.NewActor(emp.Name, emp.Email, emp.Roles)
	c.Set(actorKey, a)
	c.Request = c.Request.WithContext(access.WithActor(c.Request.Context(), a))
	c.Next()
}

func actorFrom(c *gin.Context) (access.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return access.Actor{}, false
	}
	a, ok := v.(access.Actor)
	return a, ok
}

func mustActor(c *gin.Context) access.Actor {
	a, _ := actorFrom(c)
	return a
}

// MeResponse describes the signed-in employee
type MeResponse struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Roles        []string `json:"roles"`
	Capabilities []string `json:"capabilities"`
}

var allCapabilities = []access.Capability{
	access.CapVerify,
	access.CapApprove,
	access.CapReject,
	access.CapReset,
	access.CapDeleteOrder,
	access.CapEditOrder,
	access.CapMarkPayment,
	access.CapClearCompletion,
	access.CapManageVendors,
	access.CapMarkPODownload,
}

// Me handles GET /api/me
func (h *Handlers) Me(c *gin.Context) {
	a := mustActor(c)

	caps := make([]string, 0, len(allCapabilities))
	for _, capability := range allCapabilities {
		if a.Can(capability) {
			caps = append(caps, string(capability))
		}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: MeResponse{
		Name:         a.Name,
		Email:        a.Email,
		Roles:        a.Roles.Tokens(),
		Capabilities: caps,
	}})
}

// ListEmployees handles GET /api/employees
func (h *Handlers) ListEmployees(c *gin.Context) {
	employees, err := h.services.Employees.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: employees})
}

// statusFor maps a service error to an HTTP status code
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrPermissionDenied), errors.Is(err, workflow.ErrGuardFailed):
		return http.StatusForbidden
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConfirmationRequired):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, service.ErrPrecondition),
		errors.Is(err, service.ErrVendorInUse):
		return http.StatusConflict
	case errors.Is(err, service.ErrPartialBatch):
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an error envelope. Internal errors are logged and
// reported without detail.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		msg = "internal error"
	}
	c.JSON(status, Response{Success: false, Error: msg})
}

func badRequest(c *gin.Context, format string, args ...interface{}) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: fmt.Sprintf(format, args...)})
}

// parseDate reads a YYYY-MM-DD value as midnight in the configured location.
// An empty value yields nil.
func (h *Handlers) parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, h.location)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return &t, nil
}

func paramInt64(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid %s", name)
		return 0, false
	}
	return id, true
}

func confirmed(c *gin.Context) bool {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func sendSpreadsheet(c *gin.Context, file *service.ExportedFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Header("X-File-Path", file.Path)
	c.Data(http.StatusOK, xlsxContentType, file.Content)
}
