package communication

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/terminal-bench/policedash/internal/jurisdiction"
	"github.com/terminal-bench/policedash/internal/models"
)

// officerNamespace keeps seeded officer ids stable across restarts.
var officerNamespace = uuid.MustParse("6f1c2a4e-0d5b-4c8e-9a57-3b1e2f7d9c10")

// StateName is the jurisdiction recorded for the DGP.
const StateName = "Andhra Pradesh"

// SeedOfficers builds one officer per post in the hierarchy: a DGP, a DIG per
// range, an SP per district, a CP per commissionerate and an SDPO per
// sub-jurisdiction. Ids and badge numbers derive from the post, so repeated
// seeding yields identical records.
func SeedOfficers(now time.Time) []models.Officer {
	var out []models.Officer
	add := func(rank jurisdiction.Role, title, juris string) {
		badge := BadgeFor(rank, juris)
		out = append(out, models.Officer{
			ID:           uuid.NewSHA1(officerNamespace, []byte(badge)),
			Name:         title,
			Rank:         rank,
			Jurisdiction: juris,
			BadgeNumber:  badge,
			Email:        strings.ToLower(badge) + "@police.ap.gov.in",
			Status:       models.OfficerActive,
			CreatedAt:    now,
		})
	}

	add(jurisdiction.RoleDGP, "Director General of Police", StateName)
	for _, r := range jurisdiction.Ranges() {
		add(jurisdiction.RoleDIG, "DIG "+r, r)
	}
	for _, d := range jurisdiction.AllDistricts() {
		add(jurisdiction.RoleSP, "SP "+d, d+" District")
		for _, sub := range jurisdiction.SubJurisdictions(d) {
			add(jurisdiction.RoleSDPO, "SDPO "+sub.Name, sub.Name)
		}
	}
	for _, c := range jurisdiction.Commissionerates() {
		add(jurisdiction.RoleCP, "Commissioner of Police, "+c, c)
		for _, sub := range jurisdiction.SubJurisdictions(c) {
			add(jurisdiction.RoleSDPO, "ACP "+sub.Name, sub.Name)
		}
	}
	return out
}

// BadgeFor derives the badge number of a seeded post.
func BadgeFor(rank jurisdiction.Role, juris string) string {
	var b strings.Builder
	b.WriteString(string(rank))
	b.WriteByte('-')
	lastDash := true
	for _, r := range strings.ToUpper(juris) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
