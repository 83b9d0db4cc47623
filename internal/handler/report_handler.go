package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/model"
)

type ReportStore interface {
	GetLatest() (*model.StoredReport, error)
	GetByDate(date string) (*model.StoredReport, error)
	GetDates(limit int) ([]string, error)
	Count() (int, error)
}

type ReportHandler struct {
	repository ReportStore
}

func NewReportHandler(repository ReportStore) *ReportHandler {
	return &ReportHandler{repository: repository}
}

func (h *ReportHandler) GetLatest(c *gin.Context) {
	report, err := h.repository.GetLatest()
	if err != nil {
		slog.Error("error fetching latest report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No reports archived"})
		return
	}

	c.JSON(http.StatusOK, toReportResponse(report))
}

func (h *ReportHandler) GetByDate(c *gin.Context) {
	date := c.Param("date")

	if _, err := time.Parse("2006-01-02", date); err != nil {
		slog.Error("invalid report date", "date", date, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	report, err := h.repository.GetByDate(date)
	if err != nil {
		slog.Error("error fetching report", "error", err, "date", date)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}

	c.JSON(http.StatusOK, toReportResponse(report))
}

func (h *ReportHandler) GetDates(c *gin.Context) {
	limit := getQueryLimit(c)

	dates, err := h.repository.GetDates(limit)
	if err != nil {
		slog.Error("error fetching report dates", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	total, err := h.repository.Count()
	if err != nil {
		slog.Error("error fetching report count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if dates == nil {
		dates = []string{}
	}

	c.JSON(http.StatusOK, DatesResponse{
		Dates: dates,
		Total: total,
		Limit: limit,
	})
}

func (h *ReportHandler) GetHealth(c *gin.Context) {
	_, err := h.repository.Count()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

func toReportResponse(report *model.StoredReport) ReportResponse {
	return ReportResponse{
		Date:      report.Date,
		CreatedAt: report.CreatedAt.Format(time.RFC3339),
		Report:    json.RawMessage(report.Payload),
	}
}

func getQueryInt(name string, defaultValue int, c *gin.Context) int {
	param := c.Query(name)

	if param == "" {
		return defaultValue
	}

	parsedValue, err := strconv.Atoi(param)
	if err != nil {
		slog.Warn("invalid query parameter, using default", "param", name, "value", param, "error", err)
		return defaultValue
	}

	return parsedValue
}

func getQueryLimit(c *gin.Context) int {
	const (
		defaultLimit = 30
		maxLimit     = 365
	)

	limit := getQueryInt("limit", defaultLimit, c)
	if limit < 1 {
		slog.Warn("invalid query parameter, using default", "param", "limit", "value", limit, "default", defaultLimit)
		return defaultLimit
	}

	if limit > maxLimit {
		slog.Warn("query parameter exceeds max, clamping", "param", "limit", "value", limit, "max", maxLimit)
		return maxLimit
	}

	return limit
}
