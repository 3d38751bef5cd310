package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"position-desk/internal/contracts"
	"position-desk/internal/logger"
	"position-desk/internal/metrics"
	"position-desk/internal/recon"
	"position-desk/internal/report"
	"position-desk/internal/sheet"
	"position-desk/internal/types"
)

type httpError struct {
	status int
	msg    string
	err    error
}

func (e *httpError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *httpError) Unwrap() error { return e.err }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index", map[string]any{
		"Title":       "File Upload Dashboard",
		"MaxUploadMB": s.deps.MaxUploadBytes >> 20,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type reconcileResponse struct {
	RequestID string            `json:"request_id"`
	File      string            `json:"file"`
	Result    types.ReconResult `json:"result"`
	Summary   string            `json:"summary"`
	Bars      []report.Bar      `json:"bars"`
}

// reconcileUpload reads the multipart "file" field and reconciles it.
func (s *Server) reconcileUpload(w http.ResponseWriter, r *http.Request) (reconcileResponse, error) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.deps.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			metrics.UploadsRejected.WithLabelValues("too_large").Inc()
			return reconcileResponse{}, &httpError{http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d MB", s.deps.MaxUploadBytes>>20), err}
		}
		metrics.UploadsRejected.WithLabelValues("bad_form").Inc()
		return reconcileResponse{}, &httpError{http.StatusBadRequest, "invalid upload form", err}
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		metrics.UploadsRejected.WithLabelValues("missing_file").Inc()
		return reconcileResponse{}, &httpError{http.StatusBadRequest, "no file uploaded", err}
	}
	defer file.Close()

	if sheet.Format(hdr.Filename) == "" {
		metrics.UploadsRejected.WithLabelValues("unsupported_format").Inc()
		return reconcileResponse{}, &httpError{http.StatusBadRequest, "only .xls, .xlsx and .csv files are accepted", sheet.ErrUnsupportedFormat}
	}
	metrics.UploadBytes.Observe(float64(hdr.Size))

	table, err := s.deps.Loader.Load(ctx, hdr.Filename, file)
	if err != nil {
		metrics.UploadsRejected.WithLabelValues("unreadable").Inc()
		return reconcileResponse{}, &httpError{http.StatusBadRequest, "error parsing position file", err}
	}

	res, err := s.deps.Reconciler.Reconcile(ctx, table)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, recon.ErrEmptyTable) || errors.Is(err, recon.ErrColumnIdentification) || errors.Is(err, recon.ErrAggregation) {
			status = http.StatusUnprocessableEntity
		}
		return reconcileResponse{}, &httpError{status, "reconciliation failed", err}
	}

	return reconcileResponse{
		RequestID: RequestID(ctx),
		File:      hdr.Filename,
		Result:    res,
		Summary:   report.Summary(res),
		Bars:      report.M2MBars(res),
	}, nil
}

func (s *Server) handleReconcilePage(w http.ResponseWriter, r *http.Request) {
	resp, err := s.reconcileUpload(w, r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	chart := report.BarChartSVG(resp.Bars, s.deps.ChartWidth, s.deps.ChartHeight, "M2M by stock")
	s.render(w, r, http.StatusOK, "result", map[string]any{
		"Title":     "Reconciliation - " + resp.File,
		"File":      resp.File,
		"RequestID": resp.RequestID,
		"Result":    resp.Result,
		"Sums": []struct {
			Label string
			Value string
		}{
			{types.FX, resp.Result.FXSum.String()},
			{types.CE, resp.Result.CESum.String()},
			{types.PE, resp.Result.PESum.String()},
		},
		// Generated by BarChartSVG, which escapes every label.
		"Chart":     template.HTML(chart),
		"Positions": resp.Result.Positions,
	})
}

func (s *Server) handleReconcileAPI(w http.ResponseWriter, r *http.Request) {
	resp, err := s.reconcileUpload(w, r)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleContractsPage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Contracts == nil {
		http.NotFound(w, r)
		return
	}
	now := s.now().In(contracts.IST)
	s.render(w, r, http.StatusOK, "contracts", map[string]any{
		"Title":  "NSE Token List",
		"Date":   now.Format("2006-01-02"),
		"Months": contracts.Months,
		"Params": s.contractDefaults(now),
	})
}

func (s *Server) contractDefaults(now time.Time) contracts.Params {
	if s.deps.ContractParams != nil {
		return s.deps.ContractParams(now)
	}
	return contracts.Params{Month: contracts.MonthCode(now), OIThreshold: 4, ATMPct: 8, Ascending: true}
}

// contractParams overlays the submitted form on the configured defaults.
func (s *Server) contractParams(r *http.Request) (time.Time, contracts.Params, error) {
	now := s.now().In(contracts.IST)
	p := s.contractDefaults(now)
	date := now

	if v := r.FormValue("date"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, contracts.IST)
		if err != nil {
			return date, p, fmt.Errorf("date must be YYYY-MM-DD, got %q", v)
		}
		date = d
	}
	if v := r.FormValue("month"); v != "" {
		p.Month = strings.ToUpper(v)
	}
	if v := r.FormValue("oi_threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return date, p, fmt.Errorf("oi_threshold: %w", err)
		}
		p.OIThreshold = f
	}
	if v := r.FormValue("atm_pct"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return date, p, fmt.Errorf("atm_pct: %w", err)
		}
		p.ATMPct = f
	}
	switch r.FormValue("sort") {
	case "asc":
		p.Ascending = true
	case "desc":
		p.Ascending = false
	}
	return date, p, nil
}

func (s *Server) handleContractsAPI(w http.ResponseWriter, r *http.Request) {
	if s.deps.Contracts == nil {
		http.NotFound(w, r)
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = strings.ToLower(r.FormValue("format"))
	}
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" && format != "txt" {
		s.writeAPIError(w, r, &httpError{status: http.StatusBadRequest, msg: fmt.Sprintf("unknown format %q", format)})
		return
	}

	date, p, err := s.contractParams(r)
	if err != nil {
		s.writeAPIError(w, r, &httpError{http.StatusBadRequest, "invalid parameters", err})
		return
	}

	rep, err := s.deps.Contracts.Build(r.Context(), "http", date, p)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, contracts.ErrNoData) {
			status = http.StatusNotFound
		}
		s.writeAPIError(w, r, &httpError{status, "token list build failed", err})
		return
	}

	switch format {
	case "json":
		writeJSON(w, http.StatusOK, rep)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", contracts.FileName(date, p, "csv")))
		if err := contracts.WriteCSV(w, rep.Result); err != nil {
			logger.ErrorWithErr(r.Context(), "Failed to write token CSV", err)
		}
	case "txt":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", contracts.FileName(date, p, "txt")))
		if err := contracts.WriteTXT(w, rep.Result); err != nil {
			logger.ErrorWithErr(r.Context(), "Failed to write token list", err)
		}
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any) {
	data["RequestID"] = RequestID(r.Context())
	data["Contracts"] = s.deps.Contracts != nil
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages.ExecuteTemplate(w, page, data); err != nil {
		logger.ErrorWithErr(r.Context(), "Failed to render page", err, "page", page)
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	logger.Warn(r.Context(), "Request failed", "error", err.Error(), "status", status)
	s.render(w, r, status, "error", map[string]any{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": msg,
		"Detail":  errors.Unwrap(err),
	})
}

func (s *Server) writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	logger.Warn(r.Context(), "Request failed", "error", err.Error(), "status", status)
	body := map[string]string{"error": msg, "request_id": RequestID(r.Context())}
	if inner := errors.Unwrap(err); inner != nil {
		body["detail"] = inner.Error()
	}
	writeJSON(w, status, body)
}

func classify(err error) (int, string) {
	var he *httpError
	if errors.As(err, &he) {
		return he.status, he.msg
	}
	return http.StatusInternalServerError, "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
