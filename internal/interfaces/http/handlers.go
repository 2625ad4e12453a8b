package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procureflow/invoiceflow/internal/application/port"
	"github.com/procureflow/invoiceflow/internal/application/service"
	"github.com/procureflow/invoiceflow/internal/domain/entity"
	"github.com/procureflow/invoiceflow/internal/domain/lifecycle"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	invoiceService service.InvoiceService
	reviewService  service.ReviewService
	matchService   service.MatchService
	auditService   service.AuditService
	vendorService  service.VendorService
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	invoiceService service.InvoiceService,
	reviewService service.ReviewService,
	matchService service.MatchService,
	auditService service.AuditService,
	vendorService service.VendorService,
	logger Logger,
) *Handlers {
	return &Handlers{
		invoiceService: invoiceService,
		reviewService:  reviewService,
		matchService:   matchService,
		auditService:   auditService,
		vendorService:  vendorService,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CreateInvoiceRequest is the JSON body for POST /invoices
type CreateInvoiceRequest struct {
	Title         string     `json:"title" binding:"required"`
	Description   string     `json:"description"`
	InvoiceNumber string     `json:"invoice_number" binding:"required"`
	PONumber      string     `json:"po_number"`
	VendorID      string     `json:"vendor_id"`
	Amount        string     `json:"amount" binding:"required"`
	Currency      string     `json:"currency"`
	DueDate       *time.Time `json:"due_date"`
	Items         []LineItem `json:"items"`
	FileURL       string     `json:"file_url"`
	FileName      string     `json:"file_name"`
	FileType      string     `json:"file_type"`
}

// LineItem is one invoice line in API requests
type LineItem struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// TransitionRequest is the JSON body for POST /invoices/:id/transition
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// CreateVendorRequest is the JSON body for POST /vendors
type CreateVendorRequest struct {
	Name    string `json:"name" binding:"required"`
	Code    string `json:"code" binding:"required"`
	Contact string `json:"contact"`
}

// actorFrom reads the caller's identity and roles from request headers.
// Authentication itself lives at the gateway; these headers arrive
// already verified.
func actorFrom(c *gin.Context) (entity.Actor, bool) {
	id := c.GetHeader("X-Actor-ID")
	if id == "" {
		return entity.Actor{}, false
	}
	actor := entity.Actor{ID: id}
	for _, role := range strings.Split(c.GetHeader("X-Actor-Roles"), ",") {
		switch strings.TrimSpace(strings.ToLower(role)) {
		case "reviewer":
			actor.Reviewer = true
		case "admin":
			actor.Admin = true
		}
	}
	return actor, true
}

func requireActor(c *gin.Context) (entity.Actor, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "X-Actor-ID header is required"})
	}
	return actor, ok
}

// writeError maps domain errors onto HTTP status codes
func (h *Handlers) writeError(c *gin.Context, err error) {
	switch {
	case entity.IsValidation(err):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, entity.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "not found"})
	case errors.Is(err, lifecycle.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: err.Error()})
	case errors.Is(err, lifecycle.ErrInvalidTransition), errors.Is(err, lifecycle.ErrInvalidStatus):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, entity.ErrConcurrentModification):
		c.JSON(http.StatusConflict, Response{Success: false, Error: "invoice was modified concurrently, reload and retry"})
	case port.IsGatewayError(err):
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateInvoice handles POST /api/v1/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	input, err := toCreateInput(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	inv, err := h.invoiceService.Create(c.Request.Context(), input, actor)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: inv})
}

func toCreateInput(req *CreateInvoiceRequest) (service.CreateInvoiceInput, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return service.CreateInvoiceInput{}, entity.NewValidationError("amount", "must be a decimal number")
	}

	input := service.CreateInvoiceInput{
		Title:         req.Title,
		Description:   req.Description,
		InvoiceNumber: req.InvoiceNumber,
		PONumber:      req.PONumber,
		Amount:        amount,
		Currency:      req.Currency,
		DueDate:       req.DueDate,
		FileURL:       req.FileURL,
		FileName:      req.FileName,
		FileType:      req.FileType,
	}

	if req.VendorID != "" {
		vendorID, err := uuid.Parse(req.VendorID)
		if err != nil {
			return service.CreateInvoiceInput{}, entity.NewValidationError("vendor_id", "must be a UUID")
		}
		input.VendorID = vendorID
	}

	for _, item := range req.Items {
		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return service.CreateInvoiceInput{}, entity.NewValidationError("items.unit_price", "must be a decimal number")
		}
		input.Items = append(input.Items, entity.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			Total:       unitPrice.Mul(decimal.NewFromInt(item.Quantity)),
		})
	}
	return input, nil
}

// GetInvoice handles GET /api/v1/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid invoice id"})
		return
	}

	inv, err := h.invoiceService.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: inv})
}

// ListInvoices handles GET /api/v1/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	filter := port.InvoiceFilter{}
	if status := c.Query("status"); status != "" {
		s := entity.Status(status)
		if !s.IsValid() {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unknown status"})
			return
		}
		filter.Status = s
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	invoices, err := h.invoiceService.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: invoices})
}

// StatusCounts handles GET /api/v1/invoices/status-counts
func (h *Handlers) StatusCounts(c *gin.Context) {
	counts, err := h.invoiceService.StatusCounts(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: counts})
}

// TransitionInvoice handles POST /api/v1/invoices/:id/transition
func (h *Handlers) TransitionInvoice(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid invoice id"})
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	inv, err := h.reviewService.Transition(c.Request.Context(), service.TransitionInput{
		InvoiceID: id,
		Target:    entity.Status(req.Status),
		Notes:     req.Notes,
	}, actor)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: inv})
}

// PermittedTargets handles GET /api/v1/invoices/:id/permitted-targets
func (h *Handlers) PermittedTargets(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid invoice id"})
		return
	}

	targets, err := h.reviewService.PermittedTargets(c.Request.Context(), id, actor)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: targets})
}

// MatchReport handles GET /api/v1/invoices/:id/match-report
func (h *Handlers) MatchReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid invoice id"})
		return
	}

	report, err := h.matchService.Report(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// InvoiceAuditTrail handles GET /api/v1/invoices/:id/audit-trail
func (h *Handlers) InvoiceAuditTrail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid invoice id"})
		return
	}

	trail, err := h.auditService.Trail(c.Request.Context(), entity.EntityTypeInvoice, id.String())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: trail})
}

// RecentAuditTrail handles GET /api/v1/audit-trail
func (h *Handlers) RecentAuditTrail(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.auditService.Recent(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// CreateVendor handles POST /api/v1/vendors
func (h *Handlers) CreateVendor(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	vendor, err := h.vendorService.Create(c.Request.Context(), service.CreateVendorInput{
		Name:    req.Name,
		Code:    req.Code,
		Contact: req.Contact,
	}, actor)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: vendor})
}

// ListVendors handles GET /api/v1/vendors
func (h *Handlers) ListVendors(c *gin.Context) {
	vendors, err := h.vendorService.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: vendors})
}

// GetVendor handles GET /api/v1/vendors/:id
func (h *Handlers) GetVendor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid vendor id"})
		return
	}

	vendor, err := h.vendorService.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: vendor})
}
