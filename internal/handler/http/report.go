package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/timeclock/internal/domain/report"
	"github.com/cmlabs-hris/timeclock/internal/handler/http/response"
)

type ReportHandler interface {
	Monthly(w http.ResponseWriter, r *http.Request)
	Months(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.Service
}

func NewReportHandler(reportService report.Service) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// Monthly handles GET /reports/monthly?month=YYYY-MM&page=N. Month defaults
// to the current one and page to 1.
func (h *reportHandlerImpl) Monthly(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	req := report.MonthlyReportRequest{
		Month: r.URL.Query().Get("month"),
		Page:  1,
	}
	if req.Month == "" {
		req.Month = h.reportService.Months()[0].Value
	}
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			response.BadRequest(w, "invalid page parameter", nil)
			return
		}
		req.Page = page
	}

	result, err := h.reportService.Monthly(r.Context(), session, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Rows, &response.Meta{
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
		Showing:    result.Showing,
	})
}

// Months handles GET /reports/months
func (h *reportHandlerImpl) Months(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.reportService.Months())
}
