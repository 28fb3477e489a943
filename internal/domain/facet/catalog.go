package facet

// DefaultRAGQuery is the retrieval topic used when the user does not supply one.
const DefaultRAGQuery = "climate change opinions and sentiment reactions to brands " +
	"and conversations around global warming and sustainability"

// Option is a single choice in a form dropdown.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Catalog lists the dropdown choices in display order. The first option of each list is "all".
type Catalog struct {
	Genders   []Option `json:"genders"`
	Tribes    []Option `json:"tribes"`
	AgeGroups []Option `json:"age_groups"`
	Countries []Option `json:"countries"`
	Platforms []Option `json:"platforms"`
}

// Labels are the dropdown labels picked in the form.
type Labels struct {
	Gender   string
	Tribe    string
	AgeGroup string
	Country  string
	Platform string
	RAGQuery string
}

// DefaultCatalog returns the choices of the deployed audience form.
func DefaultCatalog() Catalog {
	return Catalog{
		Genders: []Option{
			{Label: "", Value: ""},
			{Label: "male", Value: "male"},
			{Label: "female", Value: "female"},
		},
		Tribes: []Option{
			{Label: "All tribes", Value: ""},
			{Label: "Activists", Value: "0"},
			{Label: "Techno-Evangelists", Value: "1"},
			{Label: "Sustainability Shortcutters", Value: "2"},
			{Label: "Climate Cynics", Value: "3"},
			{Label: "Populist Skeptics", Value: "4"},
			{Label: "Eco-Conscious Trendsetters", Value: "5"},
			{Label: "Disaster Doomscrollers", Value: "6"},
			{Label: "Politically-Charged Debators", Value: "7"},
		},
		AgeGroups: []Option{
			{Label: "All Ages", Value: ""},
			{Label: "Under 19s", Value: "<=18"},
			{Label: "19-29", Value: "19_29"},
			{Label: "30-39", Value: "30_39"},
			{Label: "Over 39", Value: "40+"},
		},
		Countries: []Option{
			{Label: "Global", Value: ""},
			{Label: "United Kingdom", Value: "GB"},
			{Label: "United States", Value: "US"},
			{Label: "China", Value: "CN"},
			{Label: "India", Value: "IN"},
			{Label: "Germany", Value: "DE"},
		},
		Platforms: []Option{
			{Label: "All", Value: ""},
			{Label: "TikTok", Value: "TikTok"},
			{Label: "Facebook", Value: "Facebook"},
			{Label: "YouTube", Value: "YouTube"},
			{Label: "X", Value: "Twitter"},
		},
	}
}

// Resolve converts form labels into a Selection. Unknown labels resolve to blank.
func (c Catalog) Resolve(l Labels) Selection {
	return Selection{
		Tribe:    lookup(c.Tribes, l.Tribe),
		AgeGroup: lookup(c.AgeGroups, l.AgeGroup),
		Country:  lookup(c.Countries, l.Country),
		Gender:   lookup(c.Genders, l.Gender),
		Platform: lookup(c.Platforms, l.Platform),
		RAGQuery: l.RAGQuery,
	}
}

func lookup(opts []Option, label string) string {
	for _, o := range opts {
		if o.Label == label {
			return o.Value
		}
	}
	return ""
}
