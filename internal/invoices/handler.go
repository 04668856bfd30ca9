package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/molaris/molaris/internal/platform/httpx"
	"github.com/molaris/molaris/internal/shared"
)

// RenderCounter records served PDF documents.
type RenderCounter interface {
	CountPDFRender(docType string)
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	renders  RenderCounter
}

func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, renders RenderCounter) *Handler {
	return &Handler{logger: logger, service: service, validate: validate, renders: renders}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.List)
	r.Post("/invoices", h.Create)
	r.Post("/invoices/from-quote", h.CreateFromQuote)
	r.Get("/invoices/{id}", h.Show)
	r.Put("/invoices/{id}", h.Update)
	r.Post("/invoices/{id}/issue", h.Issue)
	r.Post("/invoices/{id}/pay", h.MarkPaid)
	r.Post("/invoices/{id}/void", h.Void)
	r.Get("/invoices/{id}/pdf", h.PDF)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parseListRequest(r *http.Request) ListRequest {
	filters := shared.ParseListFilters(r)
	req := ListRequest{Limit: filters.Limit, Offset: filters.Offset}

	q := r.URL.Query()
	if v := q.Get("patient_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.PatientID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		st := InvoiceStatus(v)
		req.Status = &st
	}
	if v := q.Get("date_from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.DateFrom = &t
		}
	}
	if v := q.Get("date_to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.DateTo = &t
		}
	}
	return req
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, total, err := h.service.List(r.Context(), parseListRequest(r))
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.ListResponse[InvoiceListRow]{Items: items, Total: total})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}
	resp, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	resp, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) CreateFromQuote(w http.ResponseWriter, r *http.Request) {
	var req FromQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	resp, err := h.service.CreateFromQuote(r.Context(), req)
	if err != nil {
		h.logger.Error("create invoice from quote", slog.Int64("quote_id", req.QuoteID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}

	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	resp, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request, action func(context.Context, int64) (*InvoiceResponse, error)) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}
	resp, err := action(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	h.status(w, r, h.service.Issue)
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.status(w, r, h.service.MarkPaid)
}

func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	h.status(w, r, h.service.Void)
}

func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "")
		return
	}
	pdf, filename, err := h.service.RenderPDF(r.Context(), id)
	if err != nil {
		h.logger.Error("render invoice pdf", slog.Int64("invoice_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.renders != nil {
		h.renders.CountPDFRender("invoice")
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	_, _ = w.Write(pdf)
}
