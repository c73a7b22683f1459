// Package access derives the row-level visibility predicate applied to every document query.
package access

import (
	"fmt"

	"docportal/internal/model"
)

type kind uint8

const (
	ownerOnly kind = iota
	unrestricted
)

// Filter restricts which document rows a caller may see. The zero value is an owner-only
// filter with an empty owner and therefore matches nothing.
type Filter struct {
	kind    kind
	ownerID string
}

// Unrestricted matches every row.
func Unrestricted() Filter {
	return Filter{kind: unrestricted}
}

// OwnerOnly matches rows owned by ownerID.
func OwnerOnly(ownerID string) Filter {
	return Filter{kind: ownerOnly, ownerID: ownerID}
}

// For returns the filter for a session user. Only an administrator acting in administrative
// mode is unrestricted; everyone else, including an administrator impersonating a user,
// sees only their own documents.
func For(u model.User) Filter {
	if u.Role == model.RoleAdmin && u.ImpersonationMode == model.ModeAdmin {
		return Unrestricted()
	}
	return OwnerOnly(u.ID)
}

func (f Filter) IsUnrestricted() bool {
	return f.kind == unrestricted
}

// OwnerID returns the required owner and true for owner-only filters.
func (f Filter) OwnerID() (string, bool) {
	if f.kind == unrestricted {
		return "", false
	}
	return f.ownerID, true
}

// Allows reports whether doc passes the filter.
func (f Filter) Allows(doc *model.Document) bool {
	if doc == nil {
		return false
	}
	if f.kind == unrestricted {
		return true
	}
	return f.ownerID != "" && doc.OwnerID == f.ownerID
}

// Where renders the filter as a SQL predicate on column using positional parameter $nextArg.
// Unrestricted filters render as TRUE with no arguments.
func (f Filter) Where(column string, nextArg int) (string, []any) {
	if f.kind == unrestricted {
		return "TRUE", nil
	}
	return fmt.Sprintf("%s = $%d", column, nextArg), []any{f.ownerID}
}

func (f Filter) String() string {
	if f.kind == unrestricted {
		return "unrestricted"
	}
	return "owner=" + f.ownerID
}
