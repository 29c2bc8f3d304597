package mapper

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/echo-ledger/internal/domain/import/sniffer"
)

// Role names a logical column role.
type Role string

const (
	RoleDate        Role = "date"
	RoleValueDate   Role = "value_date"
	RoleDescription Role = "description"
	RoleDebit       Role = "debit"
	RoleCredit      Role = "credit"
	RoleBalance     Role = "balance"
)

// AllRoles lists the roles in display order.
var AllRoles = []Role{RoleDate, RoleValueDate, RoleDescription, RoleDebit, RoleCredit, RoleBalance}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllRoles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Get returns the column index assigned to role.
func (m ColumnRoleMap) Get(role Role) int {
	switch role {
	case RoleDate:
		return m.Date
	case RoleValueDate:
		return m.ValueDate
	case RoleDescription:
		return m.Description
	case RoleDebit:
		return m.Debit
	case RoleCredit:
		return m.Credit
	case RoleBalance:
		return m.Balance
	}
	return Unassigned
}

// With returns a copy of m with role set to index. Notes and the applied
// rule trail are copied, never shared.
func (m ColumnRoleMap) With(role Role, index int) ColumnRoleMap {
	out := m
	out.Notes = append([]string(nil), m.Notes...)
	out.AppliedRules = append([]string(nil), m.AppliedRules...)
	switch role {
	case RoleDate:
		out.Date = index
	case RoleValueDate:
		out.ValueDate = index
	case RoleDescription:
		out.Description = index
	case RoleDebit:
		out.Debit = index
	case RoleCredit:
		out.Credit = index
	case RoleBalance:
		out.Balance = index
	}
	return out
}

// Confirmed returns a copy marked as resolved by a human.
func (m ColumnRoleMap) Confirmed() ColumnRoleMap {
	out := m.With(RoleDate, m.Date)
	out.RequiresManualResolution = false
	if out.ValueDate == Unassigned {
		out.ValueDate = out.Date
	}
	return out
}

// Validate checks a role map, typically one edited by a human, against the
// structure it will be applied to.
func Validate(m ColumnRoleMap, structure *sniffer.FileStructure) error {
	width := len(structure.Columns)
	for _, role := range AllRoles {
		idx := m.Get(role)
		if idx != Unassigned && (idx < 0 || idx >= width) {
			return fmt.Errorf("%s column %d: %w", role, idx, ErrColumnOutOfRange)
		}
	}
	if m.Date == Unassigned {
		return ErrNoDateColumn
	}
	if m.Description == Unassigned {
		return ErrNoDescriptionColumn
	}
	if m.Debit == Unassigned && m.Credit == Unassigned {
		return ErrNoAmountColumn
	}
	return nil
}
