package jurisdiction

import "strings"

// Scope is the set of districts and commissionerates an officer may see.
type Scope struct {
	Role      Role     `json:"role"`
	Range     string   `json:"range,omitempty"`
	Districts []string `json:"districts"`
	// Sub names an SDPO's own division. It is informational: visibility
	// covers the whole owning district.
	Sub string `json:"sub,omitempty"`
}

// Contains reports whether a canonical key is inside the scope.
func (s Scope) Contains(key string) bool {
	for _, d := range s.Districts {
		if d == key {
			return true
		}
	}
	return false
}

// ScopeFor derives the visible scope from an officer's rank and jurisdiction text.
func ScopeFor(role Role, text string) Scope {
	switch role {
	case RoleDGP:
		all := AllDistricts()
		all = append(all, Commissionerates()...)
		return Scope{Role: role, Districts: all}

	case RoleDIG:
		name := resolveRange(text)
		return Scope{Role: role, Range: name, Districts: Districts(name)}

	case RoleSDPO:
		sub := strings.TrimSpace(text)
		if district, ok := lookupSub(sub); ok {
			r, _ := RangeOf(district)
			return Scope{Role: role, Range: r, Districts: []string{district}, Sub: canonicalSub(district, sub)}
		}
		res := ResolveDetailed(text, RoleSP)
		return Scope{Role: role, Range: res.Range, Districts: []string{res.Key}}

	default:
		res := ResolveDetailed(text, role)
		return Scope{Role: role, Range: res.Range, Districts: []string{res.Key}}
	}
}

// resolveRange accepts "Eluru Range", "eluru" or a district name inside the range.
func resolveRange(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	lower = strings.TrimSpace(strings.TrimSuffix(lower, "range"))
	for _, r := range policeStructure.Ranges {
		base := strings.ToLower(strings.TrimSuffix(r.Name, " Range"))
		if lower == base {
			return r.Name
		}
	}
	district := Resolve(text, RoleSP)
	r, _ := RangeOf(district)
	return r
}

func lookupSub(name string) (string, bool) {
	for sub, district := range subIndex {
		if strings.EqualFold(sub, name) {
			return district, true
		}
	}
	return "", false
}

func canonicalSub(district, name string) string {
	for _, s := range subDivisions[district] {
		if strings.EqualFold(s, name) {
			return s
		}
	}
	return name
}
