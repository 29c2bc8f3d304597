package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/FACorreiaa/echo-ledger/internal/api/middleware"
	"github.com/FACorreiaa/echo-ledger/internal/domain/import/mapper"
	"github.com/FACorreiaa/echo-ledger/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/echo-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/echo-ledger/internal/domain/import/sniffer"
	"github.com/FACorreiaa/echo-ledger/internal/domain/import/transform"
	"github.com/FACorreiaa/echo-ledger/pkg/money"
)

// MaxUploadBytes bounds the size of an uploaded statement.
const MaxUploadBytes = 32 << 20

// ImportHandler handles the import endpoints
type ImportHandler struct {
	importSvc *importservice.ImportService
	logger    *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importSvc *importservice.ImportService, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importSvc: importSvc,
		logger:    logger,
	}
}

type columnResponse struct {
	Index        int      `json:"index"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Samples      []string `json:"samples,omitempty"`
	HasNegative  bool     `json:"has_negative"`
	HasPositive  bool     `json:"has_positive"`
	IsMonotonic  bool     `json:"is_monotonic"`
	DetectedRole string   `json:"detected_role,omitempty"`
}

type analysisResponse struct {
	Table             string               `json:"table"`
	HeaderRowIndex    int                  `json:"header_row_index"`
	DataStartRowIndex int                  `json:"data_start_row_index"`
	Fingerprint       string               `json:"fingerprint"`
	Columns           []columnResponse     `json:"columns"`
	Roles             mapper.ColumnRoleMap `json:"roles"`
}

type rowErrorResponse struct {
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Reason string `json:"reason"`
	Raw    string `json:"raw"`
}

type importResponse struct {
	Table                  string             `json:"table"`
	FileName               string             `json:"file_name"`
	Account                string             `json:"account"`
	StartDate              string             `json:"start_date"`
	EndDate                string             `json:"end_date"`
	OpeningBalance         string             `json:"opening_balance"`
	ProposedOpeningBalance string             `json:"proposed_opening_balance"`
	OpeningBalanceSource   string             `json:"opening_balance_source"`
	ClosingBalance         string             `json:"closing_balance"`
	RowsImported           int                `json:"rows_imported"`
	RowsSkipped            int                `json:"rows_skipped"`
	RowsFailed             int                `json:"rows_failed"`
	Errors                 []rowErrorResponse `json:"errors,omitempty"`
}

type structuralResponse struct {
	Error  string             `json:"error"`
	Rule   string             `json:"rule"`
	Table  string             `json:"table"`
	Errors []rowErrorResponse `json:"errors,omitempty"`
}

// Analyze handles POST /v1/analyze. The body is the raw file; ?name= gives
// the file name used for format detection and ?sheet= selects a sheet.
func (h *ImportHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readBody(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	analyses, err := h.importSvc.Analyze(r.Context(), q.Get("name"), data, q.Get("sheet"))
	if err != nil {
		h.writeImportError(w, err)
		return
	}

	out := make([]analysisResponse, 0, len(analyses))
	for _, a := range analyses {
		out = append(out, toAnalysisResponse(a))
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"tables": out})
}

// Import handles POST /v1/import. Query parameters: name, sheet, account,
// opening_balance and date_layout. Role maps that need a human are refused
// with 409; use the CLI for interactive resolution. Earlier ledger rows of
// the account take precedence over opening_balance; the response reports
// which one was used in opening_balance_source.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readBody(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	req := importservice.ImportRequest{
		Name:         q.Get("name"),
		Data:         data,
		Sheet:        q.Get("sheet"),
		AccountLabel: q.Get("account"),
		DateLayout:   q.Get("date_layout"),
		Currency:     q.Get("currency"),
	}
	if raw := q.Get("opening_balance"); raw != "" {
		opening, err := money.Parse(raw)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "invalid opening_balance")
			return
		}
		req.OpeningBalance = opening
	}
	if req.AccountLabel == "" {
		middleware.WriteError(w, http.StatusBadRequest, "account is required")
		return
	}

	res, err := h.importSvc.WithResolver(importservice.AutoResolver{}).Import(r.Context(), req)
	if err != nil {
		h.writeImportError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, toImportResponse(res))
}

func (h *ImportHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "file too large")
			return nil, false
		}
		middleware.WriteError(w, http.StatusBadRequest, "failed to read body")
		return nil, false
	}
	return data, true
}

func (h *ImportHandler) writeImportError(w http.ResponseWriter, err error) {
	var structural *importservice.StructuralError
	switch {
	case errors.As(err, &structural):
		middleware.WriteJSON(w, http.StatusUnprocessableEntity, structuralResponse{
			Error:  structural.Err.Error(),
			Rule:   structural.Rule,
			Table:  structural.Table,
			Errors: toRowErrors(structural.Rows),
		})
	case errors.Is(err, importservice.ErrResolutionRequired):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, parser.ErrEmptyFile),
		errors.Is(err, parser.ErrUnsupportedFormat),
		errors.Is(err, parser.ErrSheetNotFound),
		errors.Is(err, sniffer.ErrInvalidDelimiter):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("import request failed", "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "import failed")
	}
}

func toAnalysisResponse(a importservice.Analysis) analysisResponse {
	roles := map[int]string{}
	for _, role := range mapper.AllRoles {
		if idx := a.Roles.Get(role); idx != mapper.Unassigned {
			if prev, ok := roles[idx]; ok {
				roles[idx] = prev + "," + string(role)
				continue
			}
			roles[idx] = string(role)
		}
	}

	cols := make([]columnResponse, 0, len(a.Structure.Columns))
	for _, c := range a.Structure.Columns {
		cols = append(cols, columnResponse{
			Index:        c.Index,
			Name:         c.DisplayName,
			Type:         c.InferredType.String(),
			Samples:      c.SampleValues,
			HasNegative:  c.HasNegative,
			HasPositive:  c.HasPositive,
			IsMonotonic:  c.IsMonotonic,
			DetectedRole: roles[c.Index],
		})
	}
	return analysisResponse{
		Table:             a.Table,
		HeaderRowIndex:    a.Structure.HeaderRowIndex,
		DataStartRowIndex: a.Structure.DataStartRowIndex,
		Fingerprint:       a.Structure.Fingerprint,
		Columns:           cols,
		Roles:             a.Roles,
	}
}

func toImportResponse(res *importservice.ImportResult) importResponse {
	return importResponse{
		Table:                  res.Table,
		FileName:               res.FileName,
		Account:                res.Account,
		StartDate:              res.StartDate.Format(time.DateOnly),
		EndDate:                res.EndDate.Format(time.DateOnly),
		OpeningBalance:         money.Format(res.OpeningBalance),
		ProposedOpeningBalance: money.Format(res.ProposedOpening),
		OpeningBalanceSource:   res.OpeningSource,
		ClosingBalance:         money.Format(res.ClosingBalance),
		RowsImported:           res.RowsImported,
		RowsSkipped:            res.RowsSkipped,
		RowsFailed:             res.RowsFailed,
		Errors:                 toRowErrors(res.Errors),
	}
}

func toRowErrors(errs []transform.RowError) []rowErrorResponse {
	var out []rowErrorResponse
	for _, e := range errs {
		out = append(out, rowErrorResponse{Row: e.Row, Column: e.Column, Reason: e.Reason, Raw: e.Raw})
	}
	return out
}
