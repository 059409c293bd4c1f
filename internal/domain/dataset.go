package domain

import "sort"

// Repository is the default provenance URL written into every dataset.
const Repository = "https://github.com/ISI-MIP/isipedia-countries"

// Kind identifies how country membership was computed.
type Kind string

const (
	// KindBinary marks every cell touched by a country polygon.
	KindBinary Kind = "binary"
	// KindBinaryExclusive marks cells whose centre lies inside a country polygon.
	KindBinaryExclusive Kind = "binary_exclusive"
	// KindFractional stores the fraction of each cell covered by a country.
	KindFractional Kind = "fractional"
)

// Fractional reports whether masks of this kind hold fractions rather than 0/1.
func (k Kind) Fractional() bool {
	return k == KindFractional
}

// Note returns the human-readable dataset note for the kind.
func (k Kind) Note() string {
	switch k {
	case KindBinary:
		return `Any grid cell that is "touched" by a polygon is marked as belonging to that country. ` +
			`Note bordering grid cells will be marked as belonging to several countries.`
	case KindBinaryExclusive:
		return "Any grid cell whose center is contained in a polygon is marked as belonging to that country. " +
			"Each grid cell belongs to a single country, but some coastal grid cells may be left out (e.g. tiny island)."
	case KindFractional:
		return "Fractional mask"
	default:
		return ""
	}
}

// Group is a named aggregate of countries (e.g., small island states).
type Group struct {
	Code    string   `toml:"code" json:"code"`
	Name    string   `toml:"name" json:"name"`
	Members []string `toml:"members" json:"members"`
}

// DefaultGroups returns the regional Small Island Developing States groups.
func DefaultGroups() []Group {
	return []Group{
		{
			Code: "CSID",
			Name: "Caribbean island small states",
			Members: []string{"ATG", "BHS", "BLZ", "BMU", "BRB", "CUW", "CYM", "DMA",
				"GRD", "KNA", "LCA", "SXM", "TCA", "VCT", "VGB", "VIR"},
		},
		{
			Code:    "IOSID",
			Name:    "Indian Ocean island small state",
			Members: []string{"BHR", "COM", "MDV", "MUS", "SGP", "STP", "SYC"},
		},
		{
			Code:    "PSID",
			Name:    "Pacific island small states",
			Members: []string{"ASM", "FSM", "GUM", "KIR", "MHL", "MNP", "NRU", "PLW", "TON", "TUV"},
		},
	}
}

// CountryMask is one country's membership mask.
type CountryMask struct {
	Code string
	Name string
	Note string
	Mask *Mask
}

// GroupMask is an aggregate mask built from member countries.
type GroupMask struct {
	Group
	Mask *Mask
}

// MaskSet is a complete mask dataset held in memory until written out.
type MaskSet struct {
	Grid       Grid
	Resolution string
	Kind       Kind

	// Global metadata.
	Source     string
	Repository string
	Version    string
	Note       string

	Countries []*CountryMask // Sorted by code.
	Groups    []*GroupMask

	// World is the dense row-major union/total of all countries (nil until computed).
	World []float32

	// Labels optionally assigns each cell a 1-based country index (0 = none).
	Labels     []int32
	LabelNames map[int32]string
}

// Country returns the mask of the given code.
func (s *MaskSet) Country(code string) (*CountryMask, bool) {
	i := sort.Search(len(s.Countries), func(i int) bool { return s.Countries[i].Code >= code })
	if i < len(s.Countries) && s.Countries[i].Code == code {
		return s.Countries[i], true
	}
	return nil, false
}

// Group returns the group mask of the given code.
func (s *MaskSet) Group(code string) (*GroupMask, bool) {
	for _, g := range s.Groups {
		if g.Code == code {
			return g, true
		}
	}
	return nil, false
}

// Codes returns the country codes in dataset order.
func (s *MaskSet) Codes() []string {
	codes := make([]string, len(s.Countries))
	for i, c := range s.Countries {
		codes[i] = c.Code
	}
	return codes
}

// SortCountries orders countries by code.
func (s *MaskSet) SortCountries() {
	sort.Slice(s.Countries, func(i, j int) bool { return s.Countries[i].Code < s.Countries[j].Code })
}
