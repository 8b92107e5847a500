package jurisdiction

import "strings"

// Role is an officer's rank in the hierarchy.
type Role string

const (
	RoleDGP  Role = "DGP"
	RoleDIG  Role = "DIG"
	RoleSP   Role = "SP"
	RoleCP   Role = "CP"
	RoleSDPO Role = "SDPO"
)

// Valid reports whether r is a known rank.
func (r Role) Valid() bool {
	switch r {
	case RoleDGP, RoleDIG, RoleSP, RoleCP, RoleSDPO:
		return true
	}
	return false
}

// ParseRole parses a rank case-insensitively.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Method records how a Resolution was reached.
type Method string

const (
	MethodExact           Method = "exact"
	MethodAlias           Method = "alias"
	MethodSubstring       Method = "substring"
	MethodCommissionerate Method = "commissionerate"
	MethodFallback        Method = "fallback"
)

// Resolution is the outcome of resolving free text to a canonical key.
type Resolution struct {
	Input      string `json:"input"`
	Normalized string `json:"normalized"`
	Role       Role   `json:"role"`
	Key        string `json:"key"`
	Range      string `json:"range,omitempty"`
	Method     Method `json:"method"`
}

// Fallback reports whether no rule matched and the default was used.
func (r Resolution) Fallback() bool {
	return r.Method == MethodFallback
}

var suffixTokens = []string{"district", "commissionerate", "city"}

// Normalize trims whitespace and strips trailing District, Commissionerate
// and City tokens.
func Normalize(text string) string {
	fields := strings.Fields(text)
	for len(fields) > 0 && isSuffix(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

func isSuffix(tok string) bool {
	for _, s := range suffixTokens {
		if strings.EqualFold(tok, s) {
			return true
		}
	}
	return false
}

// Resolve maps a free-text jurisdiction to a canonical district (SP and other
// ranks) or commissionerate (CP). It never fails: unmatched input yields
// DefaultDistrict or DefaultCommissionerate.
func Resolve(text string, role Role) string {
	return ResolveDetailed(text, role).Key
}

// ResolveDetailed is Resolve plus the matching method and owning range. The
// range is empty for commissionerates.
func ResolveDetailed(text string, role Role) Resolution {
	res := Resolution{Input: text, Normalized: Normalize(text), Role: role}
	if role == RoleCP {
		// Commissionerates sit in no range.
		res.Key, res.Method = resolveCommissionerate(text)
		return res
	}

	res.Key, res.Method = resolveDistrict(res.Normalized)
	res.Range, _ = RangeOf(res.Key)
	return res
}

func resolveDistrict(normalized string) (string, Method) {
	if normalized == "" {
		return DefaultDistrict, MethodFallback
	}
	lower := strings.ToLower(normalized)

	for _, d := range allDistricts {
		if strings.ToLower(d) == lower {
			return d, MethodExact
		}
	}

	if d, ok := aliases[lower]; ok {
		return d, MethodAlias
	}

	for _, d := range allDistricts {
		ld := strings.ToLower(d)
		if strings.Contains(lower, ld) || strings.Contains(ld, lower) {
			return d, MethodSubstring
		}
	}

	return DefaultDistrict, MethodFallback
}

// resolveCommissionerate matches on the raw text so that "Visakhapatnam City
// Police" and "Vizag" both land on the same commissionerate.
func resolveCommissionerate(text string) (string, Method) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "visakhapatnam"), strings.Contains(lower, "vizag"), strings.Contains(lower, "visakha"):
		return "Visakhapatnam City", MethodCommissionerate
	case strings.Contains(lower, "vijayawada"), strings.Contains(lower, "bezawada"), hasWord(lower, "ntr"):
		return "Vijayawada City", MethodCommissionerate
	}
	return DefaultCommissionerate, MethodFallback
}

func hasWord(s, word string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '-' || r == '.'
	}) {
		if f == word {
			return true
		}
	}
	return false
}
