package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/echo-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/echo-ledger/internal/domain/import/mapper"
	importservice "github.com/FACorreiaa/echo-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/echo-ledger/pkg/money"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Show the detected structure and column roles of a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, _ := cmd.Flags().GetString("sheet")
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			return withDependencies(cmd.Context(), func(deps *Dependencies) error {
				analyses, err := deps.ImportService.Analyze(cmd.Context(), filepath.Base(args[0]), data, sheet)
				if err != nil {
					return err
				}
				for _, a := range analyses {
					printAnalysis(cmd.OutOrStdout(), a)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("sheet", "", "only analyze this workbook sheet")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a statement into the ledger",
		Long: `Import a CSV or Excel statement into the ledger.

Ambiguous column layouts and the opening balance are confirmed on the
terminal. With --yes the proposals are accepted as they are and a layout
that needs a human fails instead.

Examples:
  ledger import ~/Downloads/extrato.csv --account CHK --opening-balance 1250,40
  ledger import ~/Downloads/accounts.xlsx --all-sheets --yes`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().StringP("account", "a", "", "account label (defaults to the sheet name with --all-sheets)")
	cmd.Flags().String("opening-balance", "", "balance before the first transaction")
	cmd.Flags().String("sheet", "", "workbook sheet to import (default: first)")
	cmd.Flags().Bool("all-sheets", false, "import every sheet of a workbook as its own account")
	cmd.Flags().String("date-layout", "", "Go time layout of the date column, when known")
	cmd.Flags().String("currency", "", "ISO currency code used for display")
	cmd.Flags().Bool("review", false, "review the detected columns even when detection is confident")
	cmd.Flags().BoolP("yes", "y", false, "accept proposals without prompting")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	account, _ := cmd.Flags().GetString("account")
	rawOpening, _ := cmd.Flags().GetString("opening-balance")
	sheet, _ := cmd.Flags().GetString("sheet")
	allSheets, _ := cmd.Flags().GetBool("all-sheets")
	dateLayout, _ := cmd.Flags().GetString("date-layout")
	currency, _ := cmd.Flags().GetString("currency")
	review, _ := cmd.Flags().GetBool("review")
	yes, _ := cmd.Flags().GetBool("yes")

	if account == "" && !allSheets {
		return errors.New("--account is required")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	req := importservice.ImportRequest{
		Name:         filepath.Base(args[0]),
		Data:         data,
		Sheet:        sheet,
		AccountLabel: account,
		ForceReview:  review,
		DateLayout:   dateLayout,
		Currency:     currency,
	}
	if rawOpening != "" {
		if req.OpeningBalance, err = parseBalance(rawOpening); err != nil {
			return fmt.Errorf("invalid --opening-balance: %w", err)
		}
	}

	return withDependencies(cmd.Context(), func(deps *Dependencies) error {
		svc := deps.ImportService
		if !yes {
			svc = svc.WithResolver(newPromptResolver(cmd.InOrStdin(), cmd.OutOrStdout()))
		}
		out := cmd.OutOrStdout()

		if !allSheets {
			res, err := svc.Import(cmd.Context(), req)
			if err != nil {
				return err
			}
			printImport(out, res, currency)
			return nil
		}

		results, err := svc.ImportWorkbook(cmd.Context(), req)
		if err != nil {
			return err
		}
		var failed int
		for _, r := range results {
			if r.Err != nil {
				failed++
				fmt.Fprintf(out, "%s: %v\n", r.Sheet, r.Err)
				continue
			}
			printImport(out, r.Result, currency)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d sheets failed", failed, len(results))
		}
		return nil
	})
}

func suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest TEXT",
		Short: "Suggest a category for a transaction description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.Join(args, " ")
			return withDependencies(cmd.Context(), func(deps *Dependencies) error {
				printSuggestion(cmd.OutOrStdout(), deps.CategorizationService.Suggest(description))
				return nil
			})
		},
	}
}

func learnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "learn TEXT CATEGORY",
		Short: "Teach the classifier that a description belongs to a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDependencies(cmd.Context(), func(deps *Dependencies) error {
				code, err := deps.CategorizationService.Learn(args[0], args[1])
				if err != nil {
					return err
				}
				if _, err := deps.Vocabulary.Flush(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "learned %q as %s (%d words known)\n", args[0], code, deps.Vocabulary.Size())
				return nil
			})
		},
	}
}

func categorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize ACCOUNT",
		Short: "Suggest categories for uncategorized ledger rows (database only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apply, _ := cmd.Flags().GetBool("apply")
			limit, _ := cmd.Flags().GetInt("limit")
			account := args[0]

			return withDependencies(cmd.Context(), func(deps *Dependencies) error {
				if deps.LedgerRepo == nil {
					return errors.New("categorize needs DATABASE_URL")
				}
				rows, err := deps.LedgerRepo.Uncategorized(cmd.Context(), account, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				var applied int
				for _, s := range deps.CategorizationService.SuggestRows(rows) {
					fmt.Fprintf(out, "%-40s ", s.Description)
					printSuggestion(out, s.Suggestion)
					if !apply || !s.Suggestion.HasCategory() {
						continue
					}
					if err := deps.LedgerRepo.SetCategory(cmd.Context(), account, s.RowKey, s.Suggestion.Category); err != nil {
						return err
					}
					applied++
				}
				if apply {
					fmt.Fprintf(out, "%d rows categorized\n", applied)
				}
				return nil
			})
		},
	}
	cmd.Flags().Bool("apply", false, "store the suggested categories")
	cmd.Flags().Int("limit", 100, "maximum rows to consider")
	return cmd
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search imported transactions by description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			query := strings.Join(args, " ")

			return withDependencies(cmd.Context(), func(deps *Dependencies) error {
				hits, err := deps.SearchIndex.Search(query, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, h := range hits {
					d := h.Document
					fmt.Fprintf(out, "%s  %-10s %12s  %s\n", d.Date, d.Account, d.Amount, d.Description)
				}
				if len(hits) == 0 {
					fmt.Fprintln(out, "no matches")
				}
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 20, "maximum results")
	return cmd
}

func printAnalysis(w io.Writer, a importservice.Analysis) {
	fmt.Fprintf(w, "%s: header row %d, data from row %d, fingerprint %s\n",
		a.Table, a.Structure.HeaderRowIndex, a.Structure.DataStartRowIndex, a.Structure.Fingerprint)
	for _, c := range a.Structure.Columns {
		var roles []string
		for _, role := range mapper.AllRoles {
			if a.Roles.Get(role) == c.Index {
				roles = append(roles, string(role))
			}
		}
		fmt.Fprintf(w, "  [%d] %-20s %-8s %s\n", c.Index, c.DisplayName, c.InferredType, strings.Join(roles, ","))
	}
	if a.Roles.RequiresManualResolution {
		fmt.Fprintln(w, "  needs manual resolution:")
		for _, n := range a.Roles.Notes {
			fmt.Fprintf(w, "    %s\n", n)
		}
	}
}

func printImport(w io.Writer, res *importservice.ImportResult, currency string) {
	fmt.Fprintf(w, "%s: %d rows imported, %d skipped, %d failed\n", res.FileName, res.RowsImported, res.RowsSkipped, res.RowsFailed)
	fmt.Fprintf(w, "  %s .. %s  opening %s  closing %s\n",
		res.StartDate.Format(time.DateOnly), res.EndDate.Format(time.DateOnly),
		money.Display(res.OpeningBalance, currency), money.Display(res.ClosingBalance, currency))
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  row %d: %s\n", e.Row, e.Reason)
	}
}

func printSuggestion(w io.Writer, s categorization.Suggestion) {
	if !s.HasCategory() {
		fmt.Fprintln(w, "no suggestion")
		return
	}
	fmt.Fprintf(w, "%s (%.2f, %s)\n", s.Category, s.Confidence, s.Source)
}
