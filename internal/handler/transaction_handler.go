package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/service"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// MaxRecentLimit caps the limit query parameter of the recent list
const MaxRecentLimit = 100

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	ledger      *service.LedgerService
	attachments *service.AttachmentService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(ledger *service.LedgerService, attachments *service.AttachmentService) *TransactionHandler {
	return &TransactionHandler{
		ledger:      ledger,
		attachments: attachments,
	}
}

// TransactionRequest represents the create and update transaction request body
type TransactionRequest struct {
	Title      string  `json:"title"`
	Amount     string  `json:"amount"`
	Date       *string `json:"date,omitempty"`
	CategoryID string  `json:"category"`
	Note       *string `json:"note,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Amount        string  `json:"amount"`
	Date          string  `json:"date"`
	CategoryID    string  `json:"category"`
	CategoryIcon  string  `json:"categoryIcon,omitempty"`
	CategoryColor string  `json:"categoryColor,omitempty"`
	Note          *string `json:"note,omitempty"`
	AttachmentURL *string `json:"attachmentUrl,omitempty"`
}

// parseDate accepts a calendar date or an RFC 3339 timestamp
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// toInput parses the request into service input. The returned validation
// errors are empty when parsing succeeded.
func (req TransactionRequest) toInput() (service.TransactionInput, []ValidationError) {
	var errs []ValidationError

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		errs = append(errs, ValidationError{Field: "amount", Message: "Must be a valid decimal number"})
	}

	var date *time.Time
	if req.Date != nil && *req.Date != "" {
		parsed, err := parseDate(*req.Date)
		if err != nil {
			errs = append(errs, ValidationError{Field: "date", Message: "Must be YYYY-MM-DD or an RFC 3339 timestamp"})
		} else {
			date = &parsed
		}
	}

	return service.TransactionInput{
		Title:      req.Title,
		Amount:     amount,
		Date:       date,
		CategoryID: req.CategoryID,
		Note:       req.Note,
	}, errs
}

// GetRecent handles GET /api/v1/transactions/recent
func (h *TransactionHandler) GetRecent(c echo.Context) error {
	limit := service.DefaultRecentLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > MaxRecentLimit {
			return NewValidationError(c, "Invalid limit", []ValidationError{
				{Field: "limit", Message: "Limit must be between 0 and 100"},
			})
		}
		limit = n
	}

	transactions := h.ledger.RecentTransactions(c.Request().Context(), limit)
	return c.JSON(http.StatusOK, toTransactionResponses(transactions))
}

// GetByMonth handles GET /api/v1/transactions/:year/:month
func (h *TransactionHandler) GetByMonth(c echo.Context) error {
	year, month, err := util.ParseYearMonth(c.Param("year"), c.Param("month"))
	if err != nil {
		return NewServiceError(c, err, "Invalid year or month")
	}

	transactions, err := h.ledger.TransactionsForMonth(c.Request().Context(), month, year)
	if err != nil {
		return NewServiceError(c, err, "Failed to get transactions")
	}
	return c.JSON(http.StatusOK, toTransactionResponses(transactions))
}

// CreateTransaction handles POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, errs := req.toInput()
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	transaction, err := h.ledger.RecordTransaction(c.Request().Context(), input)
	if err != nil {
		return NewServiceError(c, err, "Failed to create transaction")
	}

	log.Info().
		Str("transaction_id", transaction.ID).
		Str("amount", transaction.Amount.String()).
		Msg("Transaction recorded")

	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// UpdateTransaction handles PUT /api/v1/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, errs := req.toInput()
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	transaction, err := h.ledger.UpdateTransaction(c.Request().Context(), c.Param("id"), input)
	if err != nil {
		return NewServiceError(c, err, "Failed to update transaction")
	}
	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	if err := h.ledger.DeleteTransaction(ctx, id); err != nil {
		return NewServiceError(c, err, "Failed to delete transaction")
	}
	h.attachments.Remove(ctx, id)

	return c.NoContent(http.StatusNoContent)
}

// UploadAttachment handles POST /api/v1/transactions/:id/attachment
func (h *TransactionHandler) UploadAttachment(c echo.Context) error {
	if !h.attachments.IsEnabled() {
		return NewServiceUnavailableError(c, "Attachments are disabled (storage not configured)")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	// Read one byte past the limit so oversized files are still rejected
	data, err := io.ReadAll(io.LimitReader(src, service.MaxAttachmentSize+1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	transaction, err := h.attachments.Upload(c.Request().Context(), c.Param("id"), data, file.Filename)
	if err != nil {
		return NewServiceError(c, err, "Failed to upload attachment")
	}

	log.Info().
		Str("transaction_id", transaction.ID).
		Int("size", len(data)).
		Msg("Attachment uploaded")

	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// GetAttachment handles GET /api/v1/transactions/:id/attachment
func (h *TransactionHandler) GetAttachment(c echo.Context) error {
	r, err := h.attachments.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return NewServiceError(c, err, "Failed to load attachment")
	}
	defer r.Close()

	return c.Stream(http.StatusOK, "image/jpeg", r)
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		Title:         t.Title,
		Amount:        t.Amount.StringFixed(2),
		Date:          t.Date.Format(time.RFC3339),
		CategoryID:    t.CategoryID,
		CategoryIcon:  t.CategoryIcon,
		CategoryColor: t.CategoryColor,
		Note:          t.Note,
		AttachmentURL: t.AttachmentURL,
	}
}

func toTransactionResponses(transactions []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(transactions))
	for i := range transactions {
		responses[i] = toTransactionResponse(&transactions[i])
	}
	return responses
}
