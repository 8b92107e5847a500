package jurisdiction

import "strings"

// SubJurisdiction is an SDPO-level division of a district or commissionerate.
type SubJurisdiction struct {
	Name        string `json:"name" yaml:"name"`
	ParentRange string `json:"parent_range" yaml:"parent_range"`
}

// Range groups districts under a DIG.
type Range struct {
	Name      string   `json:"name"`
	Districts []string `json:"districts"`
}

// Structure is the fixed state police hierarchy.
type Structure struct {
	Ranges           []Range  `json:"ranges"`
	Commissionerates []string `json:"commissionerates"`
}

const (
	// DefaultDistrict is returned when no district matches.
	DefaultDistrict = "Guntur"
	// DefaultCommissionerate is returned when no commissionerate matches.
	DefaultCommissionerate = "Visakhapatnam City"
)

var policeStructure = Structure{
	Ranges: []Range{
		{Name: "Visakhapatnam Range", Districts: []string{
			"Srikakulam", "Vizianagaram", "Parvathipuram Manyam", "Alluri Sitharama Raju", "Anakapalli",
		}},
		{Name: "Eluru Range", Districts: []string{
			"East Godavari", "Kakinada", "Dr. B.R. Ambedkar Konaseema", "West Godavari", "Eluru", "Krishna",
		}},
		{Name: "Guntur Range", Districts: []string{
			"Guntur", "Palnadu", "Bapatla", "Prakasam", "Nellore",
		}},
		{Name: "Kurnool Range", Districts: []string{
			"Kurnool", "Nandyal", "YSR Kadapa", "Annamayya",
		}},
		{Name: "Ananthapuramu Range", Districts: []string{
			"Ananthapuramu", "Sri Sathya Sai", "Chittoor", "Tirupati",
		}},
	},
	Commissionerates: []string{"Visakhapatnam City", "Vijayawada City"},
}

// subDivisions lists SDPO divisions per district. Commissionerate divisions
// carry the commissionerate itself as their parent.
var subDivisions = map[string][]string{
	"Srikakulam":                  {"Srikakulam", "Tekkali", "Kasibugga"},
	"Vizianagaram":                {"Vizianagaram", "Bobbili", "Cheepurupalli"},
	"Parvathipuram Manyam":        {"Parvathipuram", "Palakonda"},
	"Alluri Sitharama Raju":       {"Paderu", "Chintapalle", "Rampachodavaram", "Chinturu"},
	"Anakapalli":                  {"Anakapalli", "Narsipatnam", "Parawada"},
	"East Godavari":               {"Rajamahendravaram", "Kovvur", "Nidadavole"},
	"Kakinada":                    {"Kakinada", "Peddapuram", "Pithapuram"},
	"Dr. B.R. Ambedkar Konaseema": {"Amalapuram", "Ramachandrapuram", "Kothapeta"},
	"West Godavari":               {"Bhimavaram", "Narsapuram", "Tadepalligudem"},
	"Eluru":                       {"Eluru", "Jangareddygudem", "Nuzvid"},
	"Krishna":                     {"Machilipatnam", "Gudivada", "Avanigadda", "Gannavaram"},
	"Guntur":                      {"Guntur East", "Guntur West", "Guntur South", "Tenali", "Thullur"},
	"Palnadu":                     {"Narasaraopet", "Sattenapalli", "Gurazala"},
	"Bapatla":                     {"Bapatla", "Chirala", "Repalle"},
	"Prakasam":                    {"Ongole", "Darsi", "Markapur", "Kanigiri"},
	"Nellore":                     {"Nellore Town", "Nellore Rural", "Kavali", "Atmakur", "Kandukur"},
	"Kurnool":                     {"Kurnool", "Adoni", "Pattikonda", "Yemmiganur"},
	"Nandyal":                     {"Nandyal", "Allagadda", "Dhone"},
	"YSR Kadapa":                  {"Kadapa", "Proddatur", "Pulivendula", "Jammalamadugu"},
	"Annamayya":                   {"Rayachoti", "Madanapalle", "Rajampet"},
	"Ananthapuramu":               {"Ananthapuramu Urban", "Ananthapuramu Rural", "Guntakal", "Tadipatri", "Kalyandurg"},
	"Sri Sathya Sai":              {"Puttaparthi", "Penukonda", "Kadiri", "Dharmavaram", "Hindupur"},
	"Chittoor":                    {"Chittoor", "Palamaner", "Kuppam", "Nagari"},
	"Tirupati":                    {"Tirupati", "Srikalahasti", "Gudur", "Naidupeta", "Sullurpeta"},
	"Visakhapatnam City":          {"Dwaraka", "Gajuwaka", "Pendurthi", "Harbour"},
	"Vijayawada City":             {"Vijayawada Central", "Vijayawada East", "Vijayawada West", "Nandigama", "Tiruvuru"},
}

// alias maps alternate spellings to canonical district names. Keys are lower case.
var aliases = map[string]string{
	"anantapur":                   "Ananthapuramu",
	"anantapuramu":                "Ananthapuramu",
	"ananthapur":                  "Ananthapuramu",
	"kadapa":                      "YSR Kadapa",
	"cuddapah":                    "YSR Kadapa",
	"ysr":                         "YSR Kadapa",
	"konaseema":                   "Dr. B.R. Ambedkar Konaseema",
	"ambedkar konaseema":          "Dr. B.R. Ambedkar Konaseema",
	"spsr nellore":                "Nellore",
	"sri potti sriramulu nellore": "Nellore",
	"manyam":                      "Parvathipuram Manyam",
	"parvathipuram":               "Parvathipuram Manyam",
	"asr":                         "Alluri Sitharama Raju",
	"paderu":                      "Alluri Sitharama Raju",
	"puttaparthi":                 "Sri Sathya Sai",
	"satya sai":                   "Sri Sathya Sai",
	"ongole":                      "Prakasam",
	"rajahmundry":                 "East Godavari",
	"rajamahendravaram":           "East Godavari",
	"machilipatnam":               "Krishna",
	"narasaraopet":                "Palnadu",
	"rayachoti":                   "Annamayya",
}

var (
	districtRange map[string]string
	allDistricts  []string
	subIndex      map[string]string
)

func init() {
	districtRange = make(map[string]string)
	for _, r := range policeStructure.Ranges {
		for _, d := range r.Districts {
			districtRange[d] = r.Name
			allDistricts = append(allDistricts, d)
		}
	}

	subIndex = make(map[string]string)
	for district, subs := range subDivisions {
		for _, s := range subs {
			subIndex[s] = district
		}
	}
}

// PoliceStructure returns a copy of the static hierarchy.
func PoliceStructure() Structure {
	out := Structure{
		Ranges:           make([]Range, len(policeStructure.Ranges)),
		Commissionerates: append([]string(nil), policeStructure.Commissionerates...),
	}
	for i, r := range policeStructure.Ranges {
		out.Ranges[i] = Range{Name: r.Name, Districts: append([]string(nil), r.Districts...)}
	}
	return out
}

// Ranges returns range names in declaration order.
func Ranges() []string {
	names := make([]string, 0, len(policeStructure.Ranges))
	for _, r := range policeStructure.Ranges {
		names = append(names, r.Name)
	}
	return names
}

// Districts returns the districts of a range, or nil for an unknown range.
func Districts(rangeName string) []string {
	for _, r := range policeStructure.Ranges {
		if r.Name == rangeName {
			return append([]string(nil), r.Districts...)
		}
	}
	return nil
}

// AllDistricts returns every district in declaration order.
func AllDistricts() []string {
	return append([]string(nil), allDistricts...)
}

// Commissionerates returns the commissionerate names.
func Commissionerates() []string {
	return append([]string(nil), policeStructure.Commissionerates...)
}

// RangeOf returns the range owning a district.
func RangeOf(district string) (string, bool) {
	r, ok := districtRange[district]
	return r, ok
}

// IsCommissionerate reports whether key names a commissionerate.
func IsCommissionerate(key string) bool {
	for _, c := range policeStructure.Commissionerates {
		if c == key {
			return true
		}
	}
	return false
}

// SubJurisdictions returns the SDPO divisions of a district or commissionerate.
// Unknown keys yield an empty slice.
func SubJurisdictions(key string) []SubJurisdiction {
	names := subDivisions[key]
	parent, ok := districtRange[key]
	if !ok {
		parent = key
	}

	out := make([]SubJurisdiction, 0, len(names))
	for _, n := range names {
		out = append(out, SubJurisdiction{Name: n, ParentRange: parent})
	}
	return out
}

// DistrictOfSub returns the district or commissionerate owning a sub-jurisdiction.
func DistrictOfSub(name string) (string, bool) {
	d, ok := subIndex[name]
	return d, ok
}

// LookupKey resolves a district or commissionerate name without falling
// back. Text mentioning a city or commissionerate is tried as CP first.
func LookupKey(name string) (string, bool) {
	if len(SubJurisdictions(name)) > 0 {
		return name, true
	}

	order := []Role{RoleSP, RoleCP}
	if lower := strings.ToLower(name); strings.Contains(lower, "city") || strings.Contains(lower, "commissionerate") {
		order[0], order[1] = order[1], order[0]
	}
	for _, role := range order {
		if res := ResolveDetailed(name, role); !res.Fallback() {
			return res.Key, true
		}
	}
	return name, false
}

// LookupSubJurisdictions accepts a key or free text such as "Nellore
// District" or "Vijayawada City Police" and returns the matched key with its
// sub-divisions. Text that resolves only by fallback keeps its input as key
// and yields an empty list.
func LookupSubJurisdictions(name string) (string, []SubJurisdiction) {
	key, ok := LookupKey(name)
	if !ok {
		return name, nil
	}
	return key, SubJurisdictions(key)
}
