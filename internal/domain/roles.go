package domain

import "strings"

type Role string

const (
	// RoleUser is every self-registered account.
	RoleUser Role = "user"
	// RoleAdmin can read contact messages, manage ads and reply to visitors.
	RoleAdmin Role = "admin"
)

func IsValidRole(r string) bool {
	return r == string(RoleUser) || r == string(RoleAdmin)
}

// RoleRank: bigger => higher privilege
func RoleRank(r string) int {
	switch r {
	case string(RoleUser):
		return 1
	case string(RoleAdmin):
		return 2
	default:
		return 0
	}
}

// AdminAllowList decides the role of an account at creation time.
// Entries are canonical emails.
type AdminAllowList map[string]struct{}

// ParseAdminAllowList reads a comma separated list such as the ADMIN_EMAILS env value.
func ParseAdminAllowList(raw string) AdminAllowList {
	out := AdminAllowList{}
	for _, part := range strings.Split(raw, ",") {
		e := NormalizeEmail(part)
		if e != "" {
			out[e] = struct{}{}
		}
	}
	return out
}

// RoleFor returns RoleAdmin when email is on the list, RoleUser otherwise.
func (l AdminAllowList) RoleFor(email string) Role {
	if _, ok := l[NormalizeEmail(email)]; ok {
		return RoleAdmin
	}
	return RoleUser
}
