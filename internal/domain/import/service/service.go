// Package service provides the import orchestration logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/echo-ledger/internal/domain/import/mapper"
	"github.com/FACorreiaa/echo-ledger/internal/domain/import/parser"
	"github.com/FACorreiaa/echo-ledger/internal/domain/import/sniffer"
	"github.com/FACorreiaa/echo-ledger/internal/domain/import/transform"
	"github.com/FACorreiaa/echo-ledger/internal/domain/ledger"
	"github.com/FACorreiaa/echo-ledger/pkg/metrics"
	"github.com/FACorreiaa/echo-ledger/pkg/money"
)

const tracerName = "github.com/FACorreiaa/echo-ledger/import"

var (
	ErrResolutionRequired = errors.New("column roles need manual resolution")
	ErrMissingAccount     = errors.New("account label is required")
	ErrNoTables           = errors.New("file contains no tables")
)

// Rules reported by StructuralError besides the mapper's own rule names.
const (
	RuleStructure = "structure"
	RuleOverride  = "override"
	RuleRows      = "rows"
)

// StructuralError reports that a file could not be understood at all:
// no data row, no date, description or amount column, or no row that
// survived the transformation. Rule names the step that gave up. Rows holds
// the row-level errors when every row failed.
type StructuralError struct {
	Table string
	Rule  string
	Err   error
	Rows  []transform.RowError
}

func (e *StructuralError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("structural error (%s): %v", e.Rule, e.Err)
	}
	return fmt.Sprintf("structural error in %s (%s): %v", e.Table, e.Rule, e.Err)
}

func structural(table, rule string, err error) *StructuralError {
	var ruleErr *mapper.RuleError
	if errors.As(err, &ruleErr) {
		rule = ruleErr.Rule
	}
	return &StructuralError{Table: table, Rule: rule, Err: err}
}

func (e *StructuralError) Unwrap() error { return e.Err }

// Resolver is the human in the loop. ResolveRoles receives the detected map
// and returns the confirmed one; ConfirmOpeningBalance receives the proposed
// opening balance and returns the confirmed one.
type Resolver interface {
	ResolveRoles(ctx context.Context, structure *sniffer.FileStructure, proposed mapper.ColumnRoleMap) (mapper.ColumnRoleMap, error)
	ConfirmOpeningBalance(ctx context.Context, account string, start time.Time, proposed decimal.Decimal) (decimal.Decimal, error)
}

// BalanceLookup answers the running balance of the latest row of account
// strictly before date.
type BalanceLookup interface {
	PriorBalance(ctx context.Context, account string, date time.Time) (decimal.Decimal, bool, error)
}

// Sink persists the final rows of one import.
type Sink interface {
	Persist(ctx context.Context, name string, rows []ledger.CanonicalRow) error
}

// Indexer makes imported rows searchable.
type Indexer interface {
	IndexRows(rows []ledger.CanonicalRow) error
}

// ImportRequest describes one uploaded file.
type ImportRequest struct {
	Name           string
	Data           []byte
	Sheet          string
	AccountLabel   string
	OpeningBalance decimal.Decimal
	// ForceReview sends the detected roles to the resolver even when the
	// detection is confident.
	ForceReview bool
	DateLayout  string
	Currency    string
}

// Analysis is the detected structure of one table.
type Analysis struct {
	Table     string
	Structure *sniffer.FileStructure
	Roles     mapper.ColumnRoleMap
}

// ImportResult contains the result of an import operation
type ImportResult struct {
	Table          string
	SourceID       string
	Account        string
	FileName       string
	StartDate      time.Time
	EndDate        time.Time
	OpeningBalance decimal.Decimal

	// ProposedOpening is what the resolver was offered. OpeningSource tells
	// whether it came from the request or from earlier ledger rows.
	ProposedOpening decimal.Decimal
	OpeningSource   string
	ClosingBalance  decimal.Decimal
	RowsImported    int
	RowsSkipped     int
	RowsFailed      int
	Errors          []transform.RowError
	Roles           mapper.ColumnRoleMap
	Duration        time.Duration
}

// Where the proposed opening balance came from.
const (
	OpeningFromRequest = "request"
	OpeningFromLedger  = "ledger"
)

// SheetResult is the outcome of one sheet of a workbook import.
type SheetResult struct {
	Sheet  string
	Result *ImportResult
	Err    error
}

// ImportService orchestrates file analysis and import operations
type ImportService struct {
	resolver Resolver
	balances BalanceLookup
	sink     Sink
	indexer  Indexer
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewImportService creates a new import service
func NewImportService(resolver Resolver, balances BalanceLookup, sink Sink, m *metrics.Metrics, logger *slog.Logger) *ImportService {
	return &ImportService{
		resolver: resolver,
		balances: balances,
		sink:     sink,
		metrics:  m,
		tracer:   otel.Tracer(tracerName),
		logger:   logger,
	}
}

// WithIndexer enables search indexing of imported rows.
func (s *ImportService) WithIndexer(indexer Indexer) *ImportService {
	s.indexer = indexer
	return s
}

// WithResolver returns a copy of the service that asks resolver instead.
func (s *ImportService) WithResolver(resolver Resolver) *ImportService {
	out := *s
	out.resolver = resolver
	return &out
}

// Analyze detects the structure and roles of every table in a file without
// importing anything.
func (s *ImportService) Analyze(ctx context.Context, name string, data []byte, sheet string) ([]Analysis, error) {
	tables, err := parser.Read(name, data, sheet)
	if err != nil {
		return nil, err
	}

	out := make([]Analysis, 0, len(tables))
	for _, t := range tables {
		structure, roles, err := s.detect(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, Analysis{Table: t.Name, Structure: structure, Roles: roles})
	}
	return out, nil
}

// Import imports the requested sheet, or the first table of the file.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	tables, err := parser.Read(req.Name, req.Data, req.Sheet)
	if err != nil {
		s.metrics.ImportFile(metrics.FileFailed)
		return nil, err
	}
	if len(tables) == 0 {
		s.metrics.ImportFile(metrics.FileFailed)
		return nil, ErrNoTables
	}
	return s.importTable(ctx, req, tables[0])
}

// ImportWorkbook imports every sheet of a workbook one after another. Each
// sheet is its own import: a failing sheet is reported in its SheetResult
// and earlier sheets stay persisted. When the request has no account label
// the sheet name is used.
func (s *ImportService) ImportWorkbook(ctx context.Context, req ImportRequest) ([]SheetResult, error) {
	tables, err := parser.Read(req.Name, req.Data, req.Sheet)
	if err != nil {
		return nil, err
	}

	results := make([]SheetResult, 0, len(tables))
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		sheetReq := req
		if sheetReq.AccountLabel == "" {
			sheetReq.AccountLabel = t.Name
		}
		res, err := s.importTable(ctx, sheetReq, t)
		if err != nil {
			s.logger.Warn("sheet import failed", "sheet", t.Name, "error", err)
		}
		results = append(results, SheetResult{Sheet: t.Name, Result: res, Err: err})
	}
	return results, nil
}

func (s *ImportService) importTable(ctx context.Context, req ImportRequest, table parser.Table) (*ImportResult, error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "import.table", trace.WithAttributes(
		attribute.String("import.table", table.Name),
		attribute.String("import.account", req.AccountLabel),
	))
	defer span.End()

	res, err := s.run(ctx, req, table)
	s.metrics.ObserveImportDuration(time.Since(started))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.ImportFile(metrics.FileFailed)
		return nil, err
	}
	res.Duration = time.Since(started)

	s.metrics.ImportFile(metrics.FileImported)
	s.metrics.ImportRows(metrics.RowsImported, res.RowsImported)
	s.metrics.ImportRows(metrics.RowsSkippedDate, res.RowsSkipped)
	s.metrics.ImportRows(metrics.RowsFailedAmount, res.RowsFailed)
	span.SetAttributes(attribute.Int("import.rows", res.RowsImported))

	s.logger.Info("import completed",
		"file", res.FileName,
		"table", res.Table,
		"account", res.Account,
		"rows_imported", res.RowsImported,
		"rows_skipped", res.RowsSkipped,
		"rows_failed", res.RowsFailed,
		"opening_balance", money.Display(res.OpeningBalance, req.Currency),
		"closing_balance", money.Display(res.ClosingBalance, req.Currency),
		"duration", res.Duration,
	)
	return res, nil
}

func (s *ImportService) run(ctx context.Context, req ImportRequest, table parser.Table) (*ImportResult, error) {
	if req.AccountLabel == "" {
		return nil, ErrMissingAccount
	}

	structure, roles, err := s.detect(ctx, table)
	if err != nil {
		return nil, err
	}

	if roles.RequiresManualResolution || (req.ForceReview && s.resolver != nil) {
		if roles, err = s.resolveRoles(ctx, structure, roles); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := transform.Config{
		AccountLabel: req.AccountLabel,
		SourceID:     uuid.NewString(),
		DateLayout:   req.DateLayout,
	}

	_, span := s.tracer.Start(ctx, "import.pass1")
	prov, err := transform.Pass1(table.Rows, structure, roles, cfg)
	span.End()
	if err != nil {
		if errors.Is(err, transform.ErrNoRows) {
			serr := structural(table.Name, RuleRows, err)
			serr.Rows = prov.Errors
			s.logRowErrors(table.Name, prov.Errors)
			return nil, serr
		}
		return nil, structural(table.Name, RuleOverride, err)
	}
	s.logRowErrors(table.Name, prov.Errors)

	ob, err := s.openingBalance(ctx, req, prov.StartDate)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, span = s.tracer.Start(ctx, "import.pass2")
	rows := transform.Pass2(prov, ob.confirmed)
	span.End()

	name := ledger.FileName(req.AccountLabel, prov.StartDate, prov.EndDate)
	if err := s.persist(ctx, name, rows); err != nil {
		return nil, err
	}

	return &ImportResult{
		Table:           table.Name,
		SourceID:        cfg.SourceID,
		Account:         req.AccountLabel,
		FileName:        name,
		StartDate:       prov.StartDate,
		EndDate:         prov.EndDate,
		OpeningBalance:  ob.confirmed,
		ProposedOpening: ob.proposed,
		OpeningSource:   ob.source,
		ClosingBalance:  rows[len(rows)-1].RunningBalance,
		RowsImported:    len(rows),
		RowsSkipped:     prov.SkippedNoDate,
		RowsFailed:      len(prov.Errors),
		Errors:          prov.Errors,
		Roles:           roles,
	}, nil
}

func (s *ImportService) detect(ctx context.Context, table parser.Table) (*sniffer.FileStructure, mapper.ColumnRoleMap, error) {
	_, span := s.tracer.Start(ctx, "import.analyze")
	defer span.End()

	structure, err := sniffer.Analyze(table.Rows)
	if err != nil {
		return nil, mapper.ColumnRoleMap{}, structural(table.Name, RuleStructure, err)
	}
	roles, err := mapper.Detect(structure)
	if err != nil {
		return nil, mapper.ColumnRoleMap{}, structural(table.Name, RuleStructure, err)
	}

	span.SetAttributes(
		attribute.Int("import.columns", len(structure.Columns)),
		attribute.Bool("import.manual_resolution", roles.RequiresManualResolution),
	)
	if roles.RequiresManualResolution {
		s.logger.Warn("column roles need manual resolution", "table", table.Name, "notes", len(roles.Notes))
	}
	for _, note := range roles.Notes {
		s.logger.Warn("role detection note", "table", table.Name, "note", note)
	}
	return structure, roles, nil
}

func (s *ImportService) logRowErrors(table string, rowErrs []transform.RowError) {
	for _, e := range rowErrs {
		s.logger.Debug("row skipped", "table", table, "row", e.Row, "column", e.Column, "reason", e.Reason, "raw", e.Raw)
	}
}

func (s *ImportService) resolveRoles(ctx context.Context, structure *sniffer.FileStructure, detected mapper.ColumnRoleMap) (mapper.ColumnRoleMap, error) {
	if s.resolver == nil {
		return mapper.ColumnRoleMap{}, ErrResolutionRequired
	}
	resolved, err := s.resolver.ResolveRoles(ctx, structure, detected)
	if err != nil {
		return mapper.ColumnRoleMap{}, fmt.Errorf("failed to resolve column roles: %w", err)
	}
	if err := mapper.Validate(resolved, structure); err != nil {
		return mapper.ColumnRoleMap{}, structural("", RuleOverride, err)
	}
	return resolved.Confirmed(), nil
}

type opening struct {
	confirmed decimal.Decimal
	proposed  decimal.Decimal
	source    string
}

// openingBalance proposes the prior balance from the ledger, falling back to
// the request, and lets the resolver confirm it.
func (s *ImportService) openingBalance(ctx context.Context, req ImportRequest, start time.Time) (opening, error) {
	out := opening{proposed: money.Round(req.OpeningBalance), source: OpeningFromRequest}
	if s.balances != nil {
		prior, found, err := s.balances.PriorBalance(ctx, req.AccountLabel, start)
		if err != nil {
			return opening{}, fmt.Errorf("failed to look up prior balance: %w", err)
		}
		if found {
			prior = money.Round(prior)
			if !req.OpeningBalance.IsZero() && !prior.Equal(out.proposed) {
				s.logger.Info("requested opening balance replaced by ledger history",
					"account", req.AccountLabel,
					"requested", money.Format(out.proposed),
					"ledger", money.Format(prior),
				)
			}
			s.logger.Debug("prior balance found", "account", req.AccountLabel, "before", start, "balance", money.Format(prior))
			out.proposed, out.source = prior, OpeningFromLedger
		}
	}

	out.confirmed = out.proposed
	if s.resolver == nil {
		return out, nil
	}
	confirmed, err := s.resolver.ConfirmOpeningBalance(ctx, req.AccountLabel, start, out.proposed)
	if err != nil {
		return opening{}, fmt.Errorf("failed to confirm opening balance: %w", err)
	}
	out.confirmed = money.Round(confirmed)
	return out, nil
}

func (s *ImportService) persist(ctx context.Context, name string, rows []ledger.CanonicalRow) error {
	ctx, span := s.tracer.Start(ctx, "import.persist", trace.WithAttributes(attribute.String("import.file", name)))
	defer span.End()

	if s.sink != nil {
		if err := s.sink.Persist(ctx, name, rows); err != nil {
			return fmt.Errorf("failed to persist rows: %w", err)
		}
	}
	if s.indexer != nil {
		if err := s.indexer.IndexRows(rows); err != nil {
			s.logger.Warn("failed to index imported rows", "file", name, "error", err)
		}
	}
	return nil
}

// AutoResolver accepts every proposal. It refuses maps that need a human.
type AutoResolver struct{}

func (AutoResolver) ResolveRoles(_ context.Context, _ *sniffer.FileStructure, proposed mapper.ColumnRoleMap) (mapper.ColumnRoleMap, error) {
	if proposed.RequiresManualResolution {
		return mapper.ColumnRoleMap{}, ErrResolutionRequired
	}
	return proposed, nil
}

func (AutoResolver) ConfirmOpeningBalance(_ context.Context, _ string, _ time.Time, proposed decimal.Decimal) (decimal.Decimal, error) {
	return proposed, nil
}
