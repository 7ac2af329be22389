package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/service"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/workflow"
)

// createOrderRequest is the body of POST /api/orders. Dates are YYYY-MM-DD.
type createOrderRequest struct {
	VendorID            int64                  `json:"vendor_id"`
	ContactID           *int64                 `json:"contact_id"`
	RequestDate         string                 `json:"request_date"`
	DeliveryRequestDate string                 `json:"delivery_request_date"`
	Currency            string                 `json:"currency"`
	ProgressType        entity.ProgressType    `json:"progress_type"`
	PaymentCategory     entity.PaymentCategory `json:"payment_category"`
	ProjectVendor       string                 `json:"project_vendor"`
	SalesOrderNumber    string                 `json:"sales_order_number"`
	ProjectItem         string                 `json:"project_item"`
	Lines               []service.LineInput    `json:"lines"`
}

type editOrderRequest struct {
	DeliveryRequestDate string             `json:"delivery_request_date"`
	VendorID            *int64             `json:"vendor_id"`
	ContactID           *int64             `json:"contact_id"`
	Lines               []service.LineEdit `json:"lines"`
}

func (h *Handlers) boardQuery(c *gin.Context) (service.BoardQuery, bool) {
	from, err := h.parseDate(c.Query("from"))
	if err != nil {
		badRequest(c, "%v", err)
		return service.BoardQuery{}, false
	}
	to, err := h.parseDate(c.Query("to"))
	if err != nil {
		badRequest(c, "%v", err)
		return service.BoardQuery{}, false
	}
	return service.BoardQuery{
		Tab:      c.Query("tab"),
		Employee: c.Query("employee"),
		Query:    c.Query("q"),
		From:     from,
		To:       to,
	}, true
}

// GetBoard handles GET /api/board
func (h *Handlers) GetBoard(c *gin.Context) {
	q, ok := h.boardQuery(c)
	if !ok {
		return
	}

	board, err := h.services.Board.Load(c.Request.Context(), mustActor(c), q)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := Response{Success: true, Data: board}
	if board.Stale {
		resp.Warning = "showing last loaded data; refresh failed"
	}
	c.JSON(http.StatusOK, resp)
}

// ExportBoard handles GET /api/board/export
func (h *Handlers) ExportBoard(c *gin.Context) {
	q, ok := h.boardQuery(c)
	if !ok {
		return
	}

	file, err := h.services.Exports.ExportBoard(c.Request.Context(), mustActor(c), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	sendSpreadsheet(c, file)
}

// CreateOrder handles POST /api/orders
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}

	requestDate, err := h.parseDate(req.RequestDate)
	if err != nil {
		badRequest(c, "%v", err)
		return
	}
	deliveryDate, err := h.parseDate(req.DeliveryRequestDate)
	if err != nil {
		badRequest(c, "%v", err)
		return
	}

	lines, err := h.services.Orders.Create(c.Request.Context(), mustActor(c), service.CreateOrderInput{
		VendorID:            req.VendorID,
		ContactID:           req.ContactID,
		RequestDate:         requestDate,
		DeliveryRequestDate: deliveryDate,
		Currency:            req.Currency,
		ProgressType:        req.ProgressType,
		PaymentCategory:     req.PaymentCategory,
		ProjectVendor:       req.ProjectVendor,
		SalesOrderNumber:    req.SalesOrderNumber,
		ProjectItem:         req.ProjectItem,
		Lines:               req.Lines,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: lines})
}

// GetOrder handles GET /api/orders/:orderNumber
func (h *Handlers) GetOrder(c *gin.Context) {
	lines, err := h.services.Orders.Get(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: lines})
}

// EditOrder handles PUT /api/orders/:orderNumber. A partially applied edit
// answers 207 with the per-line outcomes.
func (h *Handlers) EditOrder(c *gin.Context) {
	var req editOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	deliveryDate, err := h.parseDate(req.DeliveryRequestDate)
	if err != nil {
		badRequest(c, "%v", err)
		return
	}

	result, err := h.services.Orders.Edit(c.Request.Context(), mustActor(c), c.Param("orderNumber"), service.EditOrderInput{
		DeliveryRequestDate: deliveryDate,
		VendorID:            req.VendorID,
		ContactID:           req.ContactID,
		Lines:               req.Lines,
	})
	if err != nil {
		if result != nil && statusFor(err) == http.StatusMultiStatus {
			c.JSON(http.StatusMultiStatus, Response{Success: false, Data: result, Error: err.Error()})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// DeleteOrder handles DELETE /api/orders/:orderNumber?confirm=true
func (h *Handlers) DeleteOrder(c *gin.Context) {
	if err := h.services.Orders.DeleteOrder(c.Request.Context(), mustActor(c), c.Param("orderNumber"), confirmed(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// DeleteLine handles DELETE /api/orders/:orderNumber/lines/:lineNumber?confirm=true
func (h *Handlers) DeleteLine(c *gin.Context) {
	lineNumber, err := strconv.Atoi(c.Param("lineNumber"))
	if err != nil || lineNumber <= 0 {
		badRequest(c, "invalid lineNumber")
		return
	}
	if err := h.services.Orders.DeleteLine(c.Request.Context(), mustActor(c), c.Param("orderNumber"), lineNumber, confirmed(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ListNotifications handles GET /api/orders/:orderNumber/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	history, err := h.services.Notifications.History(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: history})
}

// ExportOrder handles GET /api/orders/:orderNumber/spreadsheet
func (h *Handlers) ExportOrder(c *gin.Context) {
	file, err := h.services.Exports.ExportOrder(c.Request.Context(), mustActor(c), c.Param("orderNumber"))
	if err != nil {
		h.fail(c, err)
		return
	}
	sendSpreadsheet(c, file)
}

// Verify handles POST /api/orders/:orderNumber/verify
func (h *Handlers) Verify(c *gin.Context) { h.transition(c, workflow.TriggerVerify) }

// Approve handles POST /api/orders/:orderNumber/approve
func (h *Handlers) Approve(c *gin.Context) { h.transition(c, workflow.TriggerApprove) }

// Reject handles POST /api/orders/:orderNumber/reject
func (h *Handlers) Reject(c *gin.Context) { h.transition(c, workflow.TriggerReject) }

// Reset handles POST /api/orders/:orderNumber/reset
func (h *Handlers) Reset(c *gin.Context) { h.transition(c, workflow.TriggerReset) }

func (h *Handlers) transition(c *gin.Context, trigger workflow.Trigger) {
	result, err := h.services.Approvals.Transition(c.Request.Context(), mustActor(c), c.Param("orderNumber"), trigger)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result, Warning: result.NotificationWarning})
}

// MarkReceived handles POST /api/orders/:orderNumber/receipt
func (h *Handlers) MarkReceived(c *gin.Context) {
	h.respondLines(c)(h.services.Orders.MarkReceived(c.Request.Context(), mustActor(c), c.Param("orderNumber")))
}

// MarkPaymentCompleted handles POST /api/orders/:orderNumber/payment
func (h *Handlers) MarkPaymentCompleted(c *gin.Context) {
	h.respondLines(c)(h.services.Orders.MarkPaymentCompleted(c.Request.Context(), mustActor(c), c.Param("orderNumber")))
}

// ClearReceived handles DELETE /api/orders/:orderNumber/receipt
func (h *Handlers) ClearReceived(c *gin.Context) {
	h.respondLines(c)(h.services.Orders.ClearCompletion(c.Request.Context(), mustActor(c), c.Param("orderNumber"), entity.CompletionReceipt))
}

// ClearPayment handles DELETE /api/orders/:orderNumber/payment
func (h *Handlers) ClearPayment(c *gin.Context) {
	h.respondLines(c)(h.services.Orders.ClearCompletion(c.Request.Context(), mustActor(c), c.Param("orderNumber"), entity.CompletionPayment))
}

func (h *Handlers) respondLines(c *gin.Context) func([]*entity.PurchaseLine, error) {
	return func(lines []*entity.PurchaseLine, err error) {
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: lines})
	}
}
