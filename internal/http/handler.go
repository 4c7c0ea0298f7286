package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/freelance-market/internal/http/middleware"
	"github.com/nurpe/freelance-market/internal/model"
	"github.com/nurpe/freelance-market/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ContractService interface {
	GetContract(ctx context.Context, id int64, caller model.Profile) (*model.Contract, error)
	ListContracts(ctx context.Context, caller model.Profile) ([]model.Contract, error)
	ListUnpaidJobs(ctx context.Context, caller model.Profile) ([]model.Job, error)
}

type PaymentService interface {
	PayJob(ctx context.Context, jobID int64, caller model.Profile) (*model.Job, error)
	Receipt(ctx context.Context, jobID int64, caller model.Profile) (*service.FileResult, error)
}

type DepositService interface {
	Deposit(ctx context.Context, input service.DepositInput) (*model.DepositResult, error)
}

type AdminService interface {
	BestProfession(ctx context.Context, period model.Period) (*model.ProfessionTotal, error)
	BestClients(ctx context.Context, period model.Period, limit int) ([]model.ClientTotal, error)
	ExportBestClients(ctx context.Context, period model.Period, limit int) (*service.FileResult, error)
}

type Handler struct {
	contracts ContractService
	payments  PaymentService
	deposits  DepositService
	admin     AdminService
	log       zerolog.Logger
}

func NewHandler(contracts ContractService, payments PaymentService, deposits DepositService, admin AdminService, log zerolog.Logger) *Handler {
	return &Handler{
		contracts: contracts,
		payments:  payments,
		deposits:  deposits,
		admin:     admin,
		log:       log,
	}
}

func (h *Handler) Register(router *gin.Engine, profileMiddleware gin.HandlerFunc, limiter *middleware.RateLimiter) {
	protected := router.Group("/")
	protected.Use(profileMiddleware)

	protected.GET("/contracts/:id", h.getContract)
	protected.GET("/contracts", h.listContracts)
	protected.GET("/jobs/unpaid", h.listUnpaidJobs)
	protected.POST("/jobs/:job_id/pay", limiter.Handler(), h.payJob)
	protected.GET("/jobs/:job_id/receipt", h.jobReceipt)
	protected.POST("/balances/deposit/:userId", limiter.Handler(), h.deposit)

	admin := protected.Group("/admin")
	admin.GET("/best-profession", h.bestProfession)
	admin.GET("/best-clients", h.bestClients)
	admin.GET("/best-clients/export", h.exportBestClients)
}

func (h *Handler) getContract(c *gin.Context) {
	caller, ok := middleware.MustProfile(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "missing profile")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	contract, err := h.contracts.GetContract(c.Request.Context(), id, caller)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) listContracts(c *gin.Context) {
	caller, ok := middleware.MustProfile(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "missing profile")
		return
	}

	contracts, err := h.contracts.ListContracts(c.Request.Context(), caller)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if contracts == nil {
		contracts = []model.Contract{}
	}
	c.JSON(http.StatusOK, contracts)
}

func (h *Handler) listUnpaidJobs(c *gin.Context) {
	caller, ok := middleware.MustProfile(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "missing profile")
		return
	}

	jobs, err := h.contracts.ListUnpaidJobs(c.Request.Context(), caller)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) payJob(c *gin.Context) {
	caller, ok := middleware.MustProfile(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "missing profile")
		return
	}

	jobID, ok := parseIDParam(c, "job_id")
	if !ok {
		return
	}

	job, err := h.payments.PayJob(c.Request.Context(), jobID, caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.log.Info().Int64("job_id", job.ID).Int64("client_id", caller.ID).Str("amount", job.Price.String()).Msg("job paid")
	c.JSON(http.StatusOK, job)
}

func (h *Handler) jobReceipt(c *gin.Context) {
	caller, ok := middleware.MustProfile(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "missing profile")
		return
	}

	jobID, ok := parseIDParam(c, "job_id")
	if !ok {
		return
	}

	result, err := h.payments.Receipt(c.Request.Context(), jobID, caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
	JobID  int64           `json:"jobId" binding:"required"`
}

func (h *Handler) deposit(c *gin.Context) {
	caller, ok := middleware.MustProfile(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "unauthorized", "missing profile")
		return
	}

	targetID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	result, err := h.deposits.Deposit(c.Request.Context(), service.DepositInput{
		TargetID: targetID,
		Amount:   req.Amount,
		JobID:    req.JobID,
		Caller:   caller,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.log.Info().Int64("client_id", caller.ID).Int64("target_id", targetID).Str("amount", req.Amount.String()).Msg("deposit made")
	c.JSON(http.StatusOK, result)
}

func (h *Handler) bestProfession(c *gin.Context) {
	period, ok := parsePeriod(c)
	if !ok {
		return
	}

	best, err := h.admin.BestProfession(c.Request.Context(), period)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.log.Debug().Str("profession", best.Profession).Str("total", best.Total.String()).Msg("best profession")
	c.JSON(http.StatusOK, best.Profession)
}

func (h *Handler) bestClients(c *gin.Context) {
	period, ok := parsePeriod(c)
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	clients, err := h.admin.BestClients(c.Request.Context(), period, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if clients == nil {
		clients = []model.ClientTotal{}
	}
	c.JSON(http.StatusOK, clients)
}

func (h *Handler) exportBestClients(c *gin.Context) {
	period, ok := parsePeriod(c)
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	result, err := h.admin.ExportBestClients(c.Request.Context(), period, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, xlsxContentType, result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var rejection *service.RejectionError
	switch {
	case errors.As(err, &rejection):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": "conflict", "reason": rejection.Reason})
	case errors.Is(err, service.ErrPermissionDenied):
		writeError(c, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(c, http.StatusConflict, "conflict", err.Error())
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		writeError(c, http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeError(c *gin.Context, status int, kind, message string) {
	c.JSON(status, gin.H{"error": message, "kind": kind})
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "invalid_input", "invalid "+name)
		return 0, false
	}
	return id, true
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeError(c, http.StatusBadRequest, "invalid_input", "invalid limit")
		return 0, false
	}
	return limit, true
}

func parsePeriod(c *gin.Context) (model.Period, bool) {
	start, _, err := parseDate(c.Query("startDate"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_input", "invalid startDate")
		return model.Period{}, false
	}

	end, dateOnly, err := parseDate(c.Query("endDate"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_input", "invalid endDate")
		return model.Period{}, false
	}
	if dateOnly {
		end = end.AddDate(0, 0, 1).Add(-time.Microsecond)
	}

	return model.Period{Start: start, End: end}, true
}

// parseDate reports whether raw carried only a calendar date.
func parseDate(raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, service.ErrInvalidInput
	}
	if parsed, err := time.Parse(time.DateOnly, raw); err == nil {
		return parsed, true, nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, false, nil
		}
	}
	return time.Time{}, false, service.ErrInvalidInput
}
