package sources

// Crawl strategies. Each source declares which page topology it has:
// "recursive" walks a link-following site over plain HTTP, "listdetail"
// drives a browser session through a site map of detail pages.
const (
	StrategyRecursive  = "recursive"
	StrategyListDetail = "listdetail"
)

type Config struct {
	Name      string    // Derived from filename (without .yml extension)
	City      string    `yaml:"city"`
	Strategy  string    `yaml:"strategy"`
	BaseURL   string    `yaml:"base_url"`
	SeedURL   string    `yaml:"seed_url"`
	Selectors Selectors `yaml:"selectors"`
	Settings  Settings  `yaml:"settings"`
}

// Selectors holds the CSS selectors driving extraction. Recursive sources
// use Stop/Links/Title/Date/Content/Tabs/Attachments; list/detail sources
// use Categories/DetailLinks plus the Detail* fields.
type Selectors struct {
	Stop        string `yaml:"stop"`        // marks a content page
	Links       string `yaml:"links"`       // child links on a list page
	Title       string `yaml:"title"`
	Date        string `yaml:"date"`
	Content     string `yaml:"content"`
	Tabs        string `yaml:"tabs"`        // auxiliary tab links of a record
	Attachments string `yaml:"attachments"` // downloadable document links

	Categories   string `yaml:"categories"`    // top-level site map categories
	DetailLinks  string `yaml:"detail_links"`  // detail page links per category
	DetailTitle  string `yaml:"detail_title"`  // heading on a detail page
	DateLabel    string `yaml:"date_label"`    // row label of the publish date cell
	ContentLabel string `yaml:"content_label"` // row label of the content cell
}

type Settings struct {
	Enabled         bool `yaml:"enabled"`
	MaxLinksPerPage int  `yaml:"max_links_per_page"`
	MaxTabs         int  `yaml:"max_tabs"`
	MaxCategories   int  `yaml:"max_categories"`
	TableTitleCell  int  `yaml:"table_title_cell"`
	TableDateCell   int  `yaml:"table_date_cell"`
	CourtesyDelay   int  `yaml:"courtesy_delay"` // milliseconds between detail loads
	MinContentLen   int  `yaml:"min_content_len"`
}

// Overrides carries per-invocation replacements for a source's selectors
// and output sink. Zero-valued fields keep the source file's values.
type Overrides struct {
	SeedURL    string     `json:"seedUrl,omitempty"`
	Selectors  *Selectors `json:"selectors,omitempty"`
	OutputPath string     `json:"outputPath,omitempty"`
}

// Merged returns a copy of c with non-empty override fields applied.
func (c *Config) Merged(o *Overrides) *Config {
	merged := *c
	if o == nil {
		return &merged
	}
	if o.SeedURL != "" {
		merged.SeedURL = o.SeedURL
	}
	if o.Selectors != nil {
		merged.Selectors = mergeSelectors(c.Selectors, *o.Selectors)
	}
	return &merged
}

func mergeSelectors(base, over Selectors) Selectors {
	pick := func(b, o string) string {
		if o != "" {
			return o
		}
		return b
	}
	return Selectors{
		Stop:         pick(base.Stop, over.Stop),
		Links:        pick(base.Links, over.Links),
		Title:        pick(base.Title, over.Title),
		Date:         pick(base.Date, over.Date),
		Content:      pick(base.Content, over.Content),
		Tabs:         pick(base.Tabs, over.Tabs),
		Attachments:  pick(base.Attachments, over.Attachments),
		Categories:   pick(base.Categories, over.Categories),
		DetailLinks:  pick(base.DetailLinks, over.DetailLinks),
		DetailTitle:  pick(base.DetailTitle, over.DetailTitle),
		DateLabel:    pick(base.DateLabel, over.DateLabel),
		ContentLabel: pick(base.ContentLabel, over.ContentLabel),
	}
}
