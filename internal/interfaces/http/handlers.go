package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-desk/internal/application/service"
	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/internal/report"
	"github.com/garyjia/expense-desk/pkg/utils"
)

const (
	receiptField    = "receipt"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	deps           Deps
	logger         Logger
	maxUploadBytes int64
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Deps, maxUploadBytes int64) *Handlers {
	return &Handlers{
		deps:           deps,
		logger:         deps.Logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	if h.deps.Health == nil {
		respond(c, http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC()})
		return
	}

	health := h.deps.Health.Health(c.Request.Context())
	status := http.StatusOK
	label := "healthy"
	if !health.Overall {
		status = http.StatusServiceUnavailable
		label = "unhealthy"
	}
	c.JSON(status, Response{
		Success: health.Overall,
		Data: gin.H{
			"status":     label,
			"components": health.Components,
			"timestamp":  time.Now().UTC(),
		},
	})
}

// Login handles POST /auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "email is required")
		return
	}

	user, token, err := h.deps.Auth.Login(c.Request.Context(), req.Email, req.Role)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, LoginResponse{UserResponse: toUserResponse(user), AccessToken: token})
}

// Me handles GET /auth/me
func (h *Handlers) Me(c *gin.Context) {
	respond(c, http.StatusOK, toUserResponse(currentUser(c)))
}

// ListExpenses handles GET /expenses
func (h *Handlers) ListExpenses(c *gin.Context) {
	expenses, err := h.deps.Expenses.FindAll(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, toExpenseResponses(expenses))
}

// ListAllExpenses handles GET /expenses/all
func (h *Handlers) ListAllExpenses(c *gin.Context) {
	rows, err := h.deps.Expenses.FindAllGlobal(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, toExpenseWithOwnerResponses(rows))
}

// ExportExpenses handles GET /expenses/export
func (h *Handlers) ExportExpenses(c *gin.Context) {
	rows, err := h.deps.Expenses.FindAllGlobal(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	values := make([]entity.ExpenseWithOwner, 0, len(rows))
	for _, r := range rows {
		values = append(values, *r)
	}

	// Render fully before writing headers so a failure still yields a JSON error
	var buf bytes.Buffer
	if err := report.WriteExpenses(&buf, values); err != nil {
		respondError(c, h.logger, fmt.Errorf("render export: %w", err))
		return
	}

	filename := fmt.Sprintf("expenses-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// AnalyzeReceipt handles POST /expenses/analyze
func (h *Handlers) AnalyzeReceipt(c *gin.Context) {
	upload, found, err := h.readReceipt(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !found {
		abort(c, http.StatusBadRequest, "receipt file is required")
		return
	}

	analysis, err := h.deps.Receipts.Analyze(c.Request.Context(), upload)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, analysis)
}

// CreateExpense handles POST /expenses as JSON or multipart with an optional receipt.
// The receipt is stored only after the fields pass validation and is discarded when Create fails.
func (h *Handlers) CreateExpense(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateExpenseRequest
	var upload *service.ReceiptUpload
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		parsed, receipt, err := h.parseMultipartCreate(c)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		req, upload = parsed, receipt
	} else if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req, err := req.sanitized()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var storedRef string
	if upload != nil {
		ref, err := h.deps.Receipts.Store(ctx, *upload)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		storedRef = ref
		req.ReceiptImageRef = &ref
	}

	user := currentUser(c)
	expense, err := h.deps.Expenses.Create(ctx, service.CreateExpenseInput{
		OwnerID:         user.ID,
		Amount:          req.Amount,
		Date:            req.Date,
		Vendor:          req.Vendor,
		Description:     req.Description,
		Category:        req.Category,
		ReceiptImageRef: req.ReceiptImageRef,
		Status:          strings.ToUpper(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		if storedRef != "" {
			if derr := h.deps.Receipts.Discard(context.WithoutCancel(ctx), storedRef); derr != nil {
				h.logger.Error("Failed to discard receipt of rejected expense", "error", derr, "ref", storedRef)
			}
		}
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, toExpenseResponse(expense))
}

// parseMultipartCreate reads the form fields and the attached receipt, if any
func (h *Handlers) parseMultipartCreate(c *gin.Context) (CreateExpenseRequest, *service.ReceiptUpload, error) {
	var req CreateExpenseRequest

	amount, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("amount")))
	if err != nil {
		return req, nil, fmt.Errorf("%w: %q", service.ErrInvalidAmount, c.PostForm("amount"))
	}
	req.Amount = amount
	req.Date = c.PostForm("date")
	req.Status = c.PostForm("status")
	req.Vendor = optionalForm(c, "vendor")
	req.Description = optionalForm(c, "description")
	req.Category = optionalForm(c, "category")
	req.ReceiptImageRef = optionalForm(c, "receiptImageRef")

	upload, found, err := h.readReceipt(c)
	if err != nil {
		return req, nil, err
	}
	if !found {
		return req, nil, nil
	}
	return req, &upload, nil
}

// GetExpense handles GET /expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	expense, err := h.deps.Expenses.Get(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, toExpenseResponse(expense))
}

// UpdateExpense handles PATCH /expenses/:id
func (h *Handlers) UpdateExpense(c *gin.Context) {
	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	fields, err := req.toUpdate()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if fields.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*fields.Status))
		fields.Status = &status
	}

	expense, err := h.deps.Expenses.Update(c.Request.Context(), c.Param("id"), currentUser(c).ID, fields)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, toExpenseResponse(expense))
}

// DeleteExpense handles DELETE /expenses/:id
func (h *Handlers) DeleteExpense(c *gin.Context) {
	if err := h.deps.Expenses.Remove(c.Request.Context(), c.Param("id"), currentUser(c).ID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": c.Param("id"), "deleted": true})
}

// SubmitExpense handles POST /expenses/:id/submit
func (h *Handlers) SubmitExpense(c *gin.Context) {
	expense, err := h.deps.Expenses.Submit(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, toExpenseResponse(expense))
}

// RequestRevision handles POST /expenses/:id/request-revision
func (h *Handlers) RequestRevision(c *gin.Context) {
	reason, valid := bindReason(c)
	if !valid {
		return
	}

	expense, err := h.deps.Expenses.RequestRevision(c.Request.Context(), c.Param("id"), currentUser(c).ID, reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, toExpenseResponse(expense))
}

// ApproveExpense handles POST /expenses/:id/approve
func (h *Handlers) ApproveExpense(c *gin.Context) {
	expense, err := h.deps.Expenses.Approve(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, toExpenseResponse(expense))
}

// RejectExpense handles POST /expenses/:id/reject
func (h *Handlers) RejectExpense(c *gin.Context) {
	reason, valid := bindReason(c)
	if !valid {
		return
	}

	expense, err := h.deps.Expenses.Reject(c.Request.Context(), c.Param("id"), currentUser(c).ID, reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, toExpenseResponse(expense))
}

// ExpenseHistory handles GET /expenses/:id/history
func (h *Handlers) ExpenseHistory(c *gin.Context) {
	entries, err := h.deps.History.List(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, toHistoryResponses(entries))
}

// bindReason reads the optional reason body and passes it on verbatim. A missing
// body yields an empty reason, which the service rejects with ErrMissingReason.
func bindReason(c *gin.Context) (string, bool) {
	var req ReasonRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			abort(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return "", false
		}
	}
	if utils.ExceedsLength(req.Reason, maxReasonLength) {
		abort(c, http.StatusBadRequest, tooLong("reason", maxReasonLength).Error())
		return "", false
	}
	return req.Reason, true
}

// readReceipt loads the multipart receipt file. found is false when none was sent.
func (h *Handlers) readReceipt(c *gin.Context) (service.ReceiptUpload, bool, error) {
	fh, err := c.FormFile(receiptField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return service.ReceiptUpload{}, false, nil
		}
		return service.ReceiptUpload{}, false, fmt.Errorf("%w: %w", service.ErrEmptyReceipt, err)
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		return service.ReceiptUpload{}, true, fmt.Errorf("%w: %d bytes exceeds %d", service.ErrReceiptTooLarge, fh.Size, h.maxUploadBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return service.ReceiptUpload{}, true, fmt.Errorf("open receipt: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return service.ReceiptUpload{}, true, fmt.Errorf("read receipt: %w", err)
	}
	return service.ReceiptUpload{Filename: fh.Filename, Data: data}, true, nil
}

func optionalForm(c *gin.Context, key string) *string {
	v, exists := c.GetPostForm(key)
	if !exists {
		return nil
	}
	return &v
}
