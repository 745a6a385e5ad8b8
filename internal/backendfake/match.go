package backendfake

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/jrsteele09/vineyard-dashboard/users"
)

// matches applies equality filters from the query string.
// Array fields match when any element equals the filter value.
func matches(rec record, query url.Values) bool {
	for key := range query {
		want := query.Get(key)
		switch v := rec[key].(type) {
		case []any:
			found := false
			for _, el := range v {
				if fmt.Sprint(el) == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case nil:
			return false
		default:
			if fmt.Sprint(v) != want {
				return false
			}
		}
	}
	return true
}

// isZero reports JSON values a partial update leaves untouched
func isZero(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	}
	return false
}

func sortUsers(list []users.User) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].Email < list[j].Email
	})
}

// mergeUser copies the non-zero fields of patch onto u
func mergeUser(u *users.User, patch users.User) {
	if patch.FirstName != "" {
		u.FirstName = patch.FirstName
	}
	if patch.LastName != "" {
		u.LastName = patch.LastName
	}
	if patch.Email != "" {
		u.Email = patch.Email
	}
	if patch.Phone != "" {
		u.Phone = patch.Phone
	}
	if patch.Role != "" {
		u.Role = patch.Role
	}
	if patch.CompanyName != "" {
		u.CompanyName = patch.CompanyName
	}
	if patch.ABN != "" {
		u.ABN = patch.ABN
	}
	if patch.SiteIDs != nil {
		u.SiteIDs = patch.SiteIDs
	}
	if patch.Skills != nil {
		u.Skills = patch.Skills
	}
	if patch.HourlyRate != 0 {
		u.HourlyRate = patch.HourlyRate
	}
	if patch.Avatar != "" {
		u.Avatar = patch.Avatar
	}
	if !patch.CreatedAt.IsZero() {
		u.CreatedAt = patch.CreatedAt
	}
}
