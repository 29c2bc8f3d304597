package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/echo-ledger/internal/domain/import/mapper"
	"github.com/FACorreiaa/echo-ledger/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-ledger/internal/domain/import/sniffer"
	"github.com/FACorreiaa/echo-ledger/pkg/money"
)

var errAborted = errors.New("input closed before the import was confirmed")

// promptResolver asks on a terminal for the column roles and the opening
// balance. An empty answer keeps the proposal; "-" clears a role.
type promptResolver struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPromptResolver(in io.Reader, out io.Writer) *promptResolver {
	return &promptResolver{in: bufio.NewScanner(in), out: out}
}

func (p *promptResolver) ResolveRoles(ctx context.Context, structure *sniffer.FileStructure, proposed mapper.ColumnRoleMap) (mapper.ColumnRoleMap, error) {
	fmt.Fprintln(p.out, "Columns:")
	for _, c := range structure.Columns {
		fmt.Fprintf(p.out, "  [%d] %-20s %-8s %s\n", c.Index, c.DisplayName, c.InferredType, strings.Join(c.SampleValues, " | "))
	}
	for _, note := range proposed.Notes {
		fmt.Fprintf(p.out, "  note: %s\n", note)
	}

	roles := proposed
	for _, role := range mapper.AllRoles {
		for {
			if err := ctx.Err(); err != nil {
				return roles, err
			}
			answer, err := p.ask(fmt.Sprintf("%s column [%s]: ", role, columnLabel(roles.Get(role))))
			if err != nil {
				return roles, err
			}
			idx, err := parseColumn(answer, roles.Get(role), len(structure.Columns))
			if err != nil {
				fmt.Fprintln(p.out, err)
				continue
			}
			roles = roles.With(role, idx)
			break
		}
	}
	return roles, nil
}

func (p *promptResolver) ConfirmOpeningBalance(ctx context.Context, account string, start time.Time, proposed decimal.Decimal) (decimal.Decimal, error) {
	for {
		if err := ctx.Err(); err != nil {
			return proposed, err
		}
		answer, err := p.ask(fmt.Sprintf("Opening balance of %s on %s [%s]: ", account, start.Format(time.DateOnly), money.Format(proposed)))
		if err != nil {
			return proposed, err
		}
		if answer == "" {
			return proposed, nil
		}
		balance, err := parseBalance(answer)
		if err != nil {
			fmt.Fprintf(p.out, "not an amount: %q\n", answer)
			continue
		}
		return balance, nil
	}
}

func (p *promptResolver) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", errAborted
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func parseColumn(answer string, current, width int) (int, error) {
	switch answer {
	case "":
		return current, nil
	case "-":
		return mapper.Unassigned, nil
	}
	idx, err := strconv.Atoi(answer)
	if err != nil || idx < 0 || idx >= width {
		return current, fmt.Errorf("enter a column between 0 and %d, - for none", width-1)
	}
	return idx, nil
}

// parseBalance accepts amounts the way statements write them: "1.250,40",
// "1,250.40" or "-12".
func parseBalance(s string) (decimal.Decimal, error) {
	d, ok := normalizer.ParseAmount(s)
	if !ok {
		return decimal.Zero, fmt.Errorf("not an amount: %q", s)
	}
	return money.Round(d), nil
}

func columnLabel(idx int) string {
	if idx == mapper.Unassigned {
		return "-"
	}
	return strconv.Itoa(idx)
}
