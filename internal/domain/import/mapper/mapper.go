// Package mapper assigns semantic roles (date, description, debit, credit,
// balance) to the profiled columns of a bank statement.
//
// Detection is an ordered list of named rules. Each rule either decides part
// of the role map or has no opinion; the names of the rules that decided are
// kept on the result so the outcome can be audited rule by rule.
package mapper

import (
	"errors"
	"fmt"

	"github.com/FACorreiaa/echo-ledger/internal/domain/import/sniffer"
)

// Unassigned marks a role without a column.
const Unassigned = -1

var (
	ErrNoDateColumn        = errors.New("no date column found")
	ErrNoDescriptionColumn = errors.New("no description column found")
	ErrNoAmountColumn      = errors.New("no amount column found")
	ErrColumnOutOfRange    = errors.New("column index out of range")
)

// ColumnRoleMap maps each logical role to a column index. Debit and Credit
// share an index when a single signed column holds both.
type ColumnRoleMap struct {
	Date        int `json:"date"`
	ValueDate   int `json:"value_date"`
	Description int `json:"description"`
	Debit       int `json:"debit"`
	Credit      int `json:"credit"`
	Balance     int `json:"balance"`

	RequiresManualResolution bool     `json:"requires_manual_resolution"`
	Notes                    []string `json:"notes,omitempty"`
	AppliedRules             []string `json:"applied_rules,omitempty"`
}

// NewColumnRoleMap returns a map with every role unassigned.
func NewColumnRoleMap() ColumnRoleMap {
	return ColumnRoleMap{
		Date:        Unassigned,
		ValueDate:   Unassigned,
		Description: Unassigned,
		Debit:       Unassigned,
		Credit:      Unassigned,
		Balance:     Unassigned,
	}
}

// Combined reports whether debit and credit come from one signed column.
func (m ColumnRoleMap) Combined() bool {
	return m.Debit != Unassigned && m.Debit == m.Credit
}

// RuleError names the detection rule that failed.
type RuleError struct {
	Rule string
	Err  error
}

func (e *RuleError) Error() string { return fmt.Sprintf("rule %s: %v", e.Rule, e.Err) }

func (e *RuleError) Unwrap() error { return e.Err }

// Outcome is what a rule reports back.
type Outcome int

const (
	NoOpinion Outcome = iota
	Decided
)

// Rule is one named step of role detection.
type Rule struct {
	Name  string
	Apply func(d *detection) (Outcome, error)
}

// detection is the working state shared by the rules of one Detect call.
type detection struct {
	structure  *sniffer.FileStructure
	roles      ColumnRoleMap
	numbers    []sniffer.ColumnProfile
	candidates []sniffer.ColumnProfile
}

// Rules returns the detection rules in evaluation order.
func Rules() []Rule {
	return []Rule{
		{Name: "date", Apply: dateRule},
		{Name: "description", Apply: descriptionRule},
		{Name: "balance", Apply: balanceRule},
		{Name: "amount-fallback", Apply: amountFallbackRule},
		{Name: "single-amount", Apply: singleAmountRule},
		{Name: "two-amounts", Apply: twoAmountsRule},
		{Name: "extra-amounts", Apply: extraAmountsRule},
	}
}

// Detect assigns roles to the columns of structure. A returned error is
// structural and names the rule that failed.
func Detect(structure *sniffer.FileStructure) (ColumnRoleMap, error) {
	d := &detection{
		structure: structure,
		roles:     NewColumnRoleMap(),
		numbers:   structure.ColumnsOfType(sniffer.TypeNumber),
	}

	for _, rule := range Rules() {
		outcome, err := rule.Apply(d)
		if err != nil {
			return ColumnRoleMap{}, &RuleError{Rule: rule.Name, Err: err}
		}
		if outcome == Decided {
			d.roles.AppliedRules = append(d.roles.AppliedRules, rule.Name)
		}
	}
	return d.roles, nil
}

// dateRule: the first date column is the transaction date; a second one is
// the value date, otherwise the value date aliases the transaction date.
func dateRule(d *detection) (Outcome, error) {
	dates := d.structure.ColumnsOfType(sniffer.TypeDate)
	if len(dates) == 0 {
		return NoOpinion, ErrNoDateColumn
	}
	d.roles.Date = dates[0].Index
	d.roles.ValueDate = dates[0].Index
	if len(dates) > 1 {
		d.roles.ValueDate = dates[1].Index
	}
	return Decided, nil
}

// descriptionRule picks the text column with the longest average sample.
func descriptionRule(d *detection) (Outcome, error) {
	texts := d.structure.ColumnsOfType(sniffer.TypeText)
	if len(texts) == 0 {
		return NoOpinion, ErrNoDescriptionColumn
	}
	best := texts[0]
	for _, c := range texts[1:] {
		if c.AverageSampleLength() > best.AverageSampleLength() {
			best = c
		}
	}
	d.roles.Description = best.Index
	return Decided, nil
}

// balanceRule takes the first monotonic number column as the running balance;
// every non-monotonic number column is an amount candidate.
func balanceRule(d *detection) (Outcome, error) {
	for _, c := range d.numbers {
		if c.IsMonotonic {
			if d.roles.Balance == Unassigned {
				d.roles.Balance = c.Index
			}
			continue
		}
		d.candidates = append(d.candidates, c)
	}
	if d.roles.Balance == Unassigned {
		return NoOpinion, nil
	}
	return Decided, nil
}

// amountFallbackRule: without non-monotonic columns, every number column but
// the balance becomes a candidate.
func amountFallbackRule(d *detection) (Outcome, error) {
	if len(d.candidates) > 0 {
		return NoOpinion, nil
	}
	for _, c := range d.numbers {
		if c.Index != d.roles.Balance {
			d.candidates = append(d.candidates, c)
		}
	}
	if len(d.candidates) == 0 {
		return NoOpinion, ErrNoAmountColumn
	}
	return Decided, nil
}

func singleAmountRule(d *detection) (Outcome, error) {
	if len(d.candidates) != 1 {
		return NoOpinion, nil
	}
	c := d.candidates[0]

	switch {
	case c.HasNegative && c.HasPositive:
		d.roles.Debit, d.roles.Credit = c.Index, c.Index

	case c.HasNegative:
		d.roles.Debit = c.Index
		if other, ok := d.findNumber(c.Index, positiveOnly); ok {
			d.assignFromAnyNumber(&d.roles.Credit, other)
		} else {
			d.flag(fmt.Sprintf("column %q has only negative values and no credit column was found", c.DisplayName))
		}

	case c.HasPositive:
		d.roles.Credit = c.Index
		if other, ok := d.findNumber(c.Index, negativeOnly); ok {
			d.assignFromAnyNumber(&d.roles.Debit, other)
		} else {
			d.flag(fmt.Sprintf("column %q has only positive values and no debit column was found", c.DisplayName))
		}

	default:
		d.roles.Debit, d.roles.Credit = c.Index, c.Index
		d.flag(fmt.Sprintf("column %q carries no sign information", c.DisplayName))
	}
	return Decided, nil
}

// twoAmountsRule: the column holding negative values is the debit. When both
// or neither do, the first is debit and a human must confirm.
func twoAmountsRule(d *detection) (Outcome, error) {
	if len(d.candidates) < 2 {
		return NoOpinion, nil
	}
	first, second := d.candidates[0], d.candidates[1]

	switch {
	case first.HasNegative && !second.HasNegative:
		d.roles.Debit, d.roles.Credit = first.Index, second.Index
	case second.HasNegative && !first.HasNegative:
		d.roles.Debit, d.roles.Credit = second.Index, first.Index
	default:
		d.roles.Debit, d.roles.Credit = first.Index, second.Index
		d.flag(fmt.Sprintf("cannot tell debit from credit between %q and %q", first.DisplayName, second.DisplayName))
	}
	return Decided, nil
}

// extraAmountsRule records the amount columns that were ignored.
func extraAmountsRule(d *detection) (Outcome, error) {
	if len(d.candidates) <= 2 {
		return NoOpinion, nil
	}
	for _, c := range d.candidates[2:] {
		d.roles.Notes = append(d.roles.Notes, fmt.Sprintf("ignored extra amount column %q", c.DisplayName))
	}
	return Decided, nil
}

func positiveOnly(c sniffer.ColumnProfile) bool { return c.HasPositive && !c.HasNegative }
func negativeOnly(c sniffer.ColumnProfile) bool { return c.HasNegative && !c.HasPositive }

// findNumber searches every number column, balance included.
func (d *detection) findNumber(exclude int, match func(sniffer.ColumnProfile) bool) (sniffer.ColumnProfile, bool) {
	for _, c := range d.numbers {
		if c.Index != exclude && match(c) {
			return c, true
		}
	}
	return sniffer.ColumnProfile{}, false
}

// assignFromAnyNumber sets role to c, releasing the balance role if c held it.
func (d *detection) assignFromAnyNumber(role *int, c sniffer.ColumnProfile) {
	*role = c.Index
	if d.roles.Balance == c.Index {
		d.roles.Balance = Unassigned
		d.roles.Notes = append(d.roles.Notes, fmt.Sprintf("column %q reused as amount instead of balance", c.DisplayName))
	}
}

func (d *detection) flag(note string) {
	d.roles.RequiresManualResolution = true
	d.roles.Notes = append(d.roles.Notes, note)
}
