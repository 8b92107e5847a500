package jurisdiction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		role   Role
		want   string
		method Method
	}{
		{"strips district suffix", "Eluru District", RoleSP, "Eluru", MethodExact},
		{"alias anantapur", "Anantapur", RoleSP, "Ananthapuramu", MethodAlias},
		{"alias kadapa", "Kadapa", RoleSP, "YSR Kadapa", MethodAlias},
		{"alias after suffix strip", "Kadapa District", RoleSP, "YSR Kadapa", MethodAlias},
		{"case insensitive exact", "  nellore  ", RoleSP, "Nellore", MethodExact},
		{"input contains district", "Prakasam Police Office", RoleSP, "Prakasam", MethodSubstring},
		{"district contains input", "Godavari", RoleSP, "East Godavari", MethodSubstring},
		{"unmatched falls back", "Nonexistent Place", RoleSP, "Guntur", MethodFallback},
		{"empty falls back", "   ", RoleSP, "Guntur", MethodFallback},
		{"cp visakhapatnam", "Visakhapatnam City Police", RoleCP, "Visakhapatnam City", MethodCommissionerate},
		{"cp vizag", "Vizag", RoleCP, "Visakhapatnam City", MethodCommissionerate},
		{"cp vijayawada", "Vijayawada Commissionerate", RoleCP, "Vijayawada City", MethodCommissionerate},
		{"cp ntr word", "NTR Police Commissionerate", RoleCP, "Vijayawada City", MethodCommissionerate},
		{"cp ntr inside word ignored", "Central Office", RoleCP, "Visakhapatnam City", MethodFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.input, tt.role))
			assert.Equal(t, tt.method, ResolveDetailed(tt.input, tt.role).Method)
		})
	}
}

func TestResolveNeverEmpty(t *testing.T) {
	inputs := []string{"", "x", "District", "City", "Commissionerate City", "???"}
	for _, in := range inputs {
		for _, role := range []Role{RoleSP, RoleCP, RoleDGP, RoleDIG, RoleSDPO} {
			assert.NotEmpty(t, Resolve(in, role), "input %q role %s", in, role)
		}
	}
}

func TestResolveDetailedRange(t *testing.T) {
	res := ResolveDetailed("Eluru District", RoleSP)
	assert.Equal(t, "Eluru Range", res.Range)
	assert.Equal(t, "Eluru", res.Normalized)
	assert.False(t, res.Fallback())

	res = ResolveDetailed("Nowhere", RoleSP)
	assert.True(t, res.Fallback())
	assert.Equal(t, "Guntur Range", res.Range)

	res = ResolveDetailed("Vijayawada City Police", RoleCP)
	assert.Equal(t, "Vijayawada City", res.Key)
	assert.Empty(t, res.Range)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Eluru", Normalize("Eluru District"))
	assert.Equal(t, "Visakhapatnam", Normalize("Visakhapatnam City Commissionerate"))
	assert.Equal(t, "Visakhapatnam City Police", Normalize(" Visakhapatnam   City Police "))
	assert.Equal(t, "", Normalize("district"))
}

func TestSubJurisdictions(t *testing.T) {
	t.Run("should include Kandukur under Nellore", func(t *testing.T) {
		assert.Contains(t, subNames(SubJurisdictions("Nellore")), "Kandukur")
	})

	t.Run("should not include Kandukur under Prakasam", func(t *testing.T) {
		assert.NotContains(t, subNames(SubJurisdictions("Prakasam")), "Kandukur")
	})

	t.Run("should carry the parent range", func(t *testing.T) {
		for _, s := range SubJurisdictions("Nellore") {
			assert.Equal(t, "Guntur Range", s.ParentRange)
		}
	})

	t.Run("should return empty for unknown key", func(t *testing.T) {
		subs := SubJurisdictions("Atlantis")
		assert.NotNil(t, subs)
		assert.Empty(t, subs)
	})

	t.Run("should list commissionerate divisions", func(t *testing.T) {
		subs := SubJurisdictions("Vijayawada City")
		require.NotEmpty(t, subs)
		assert.Equal(t, "Vijayawada City", subs[0].ParentRange)
	})
}

func TestLookupSubJurisdictions(t *testing.T) {
	tests := []struct {
		in      string
		key     string
		wantSub string
	}{
		{"Nellore", "Nellore", "Kandukur"},
		{"Nellore District", "Nellore", "Kandukur"},
		{"cuddapah", "YSR Kadapa", "Proddatur"},
		{"Vijayawada City Police", "Vijayawada City", "Nandigama"},
		{"Vizag City", "Visakhapatnam City", "Gajuwaka"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			key, subs := LookupSubJurisdictions(tt.in)
			assert.Equal(t, tt.key, key)
			assert.Contains(t, subNames(subs), tt.wantSub)
		})
	}

	t.Run("unresolvable text yields nothing", func(t *testing.T) {
		key, subs := LookupSubJurisdictions("Atlantis")
		assert.Equal(t, "Atlantis", key)
		assert.Empty(t, subs)
	})
}

func TestStructureInvariants(t *testing.T) {
	t.Run("every district belongs to exactly one range", func(t *testing.T) {
		seen := map[string]string{}
		for _, r := range PoliceStructure().Ranges {
			for _, d := range r.Districts {
				prev, dup := seen[d]
				assert.False(t, dup, "%s in %s and %s", d, prev, r.Name)
				seen[d] = r.Name
			}
		}
		assert.LessOrEqual(t, len(seen), 30)
	})

	t.Run("every sub-jurisdiction belongs to exactly one district", func(t *testing.T) {
		seen := map[string]string{}
		for district, subs := range subDivisions {
			for _, s := range subs {
				prev, dup := seen[s]
				assert.False(t, dup, "%s in %s and %s", s, prev, district)
				seen[s] = district
			}
		}
	})

	t.Run("every district and commissionerate has divisions", func(t *testing.T) {
		for _, d := range append(AllDistricts(), Commissionerates()...) {
			assert.NotEmpty(t, SubJurisdictions(d), d)
		}
	})

	t.Run("aliases point at known districts", func(t *testing.T) {
		for alias, d := range aliases {
			_, ok := RangeOf(d)
			assert.True(t, ok, "alias %s -> %s", alias, d)
		}
	})

	t.Run("copies do not alias the static table", func(t *testing.T) {
		s := PoliceStructure()
		s.Ranges[0].Districts[0] = "Changed"
		assert.Equal(t, "Srikakulam", PoliceStructure().Ranges[0].Districts[0])
	})
}

func TestScopeFor(t *testing.T) {
	t.Run("dgp sees everything", func(t *testing.T) {
		s := ScopeFor(RoleDGP, "")
		assert.Len(t, s.Districts, len(AllDistricts())+len(Commissionerates()))
		assert.True(t, s.Contains("Vijayawada City"))
	})

	t.Run("dig sees the range", func(t *testing.T) {
		s := ScopeFor(RoleDIG, "Guntur Range")
		assert.Equal(t, "Guntur Range", s.Range)
		assert.True(t, s.Contains("Nellore"))
		assert.False(t, s.Contains("Eluru"))
	})

	t.Run("dig resolves a district name to its range", func(t *testing.T) {
		s := ScopeFor(RoleDIG, "Kadapa")
		assert.Equal(t, "Kurnool Range", s.Range)
	})

	t.Run("sp sees one district", func(t *testing.T) {
		s := ScopeFor(RoleSP, "Eluru District")
		assert.Equal(t, []string{"Eluru"}, s.Districts)
	})

	t.Run("cp sees the commissionerate", func(t *testing.T) {
		s := ScopeFor(RoleCP, "Vizag")
		assert.Equal(t, []string{"Visakhapatnam City"}, s.Districts)
	})

	t.Run("sdpo resolves the owning district", func(t *testing.T) {
		s := ScopeFor(RoleSDPO, "kandukur")
		assert.Equal(t, []string{"Nellore"}, s.Districts)
		assert.Equal(t, "Kandukur", s.Sub)
		assert.True(t, s.Contains("Nellore"))
		assert.False(t, s.Contains("Kandukur"))
	})
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" sp ")
	assert.True(t, ok)
	assert.Equal(t, RoleSP, r)

	_, ok = ParseRole("constable")
	assert.False(t, ok)
}

func subNames(subs []SubJurisdiction) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.Name)
	}
	return out
}
