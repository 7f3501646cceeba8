package cfg

type Cfg struct {
	// Application configuration
	SourcesDir string
	Port       string
	OutputPath string
	DBPath     string

	// Crawl configuration
	SourceWorkers int
	ContentMaxLen int
	FetchTimeout  int
	PageTimeout   int
	CourtesyDelay int

	// Attachment configuration
	AttachmentWorkers  int
	AttachmentTimeout  int
	AttachmentMaxBytes int64
	AttachmentMaxPages int

	// Application metadata
	UserAgent    string
	APIAccessKey string
	Timezone     string
	Debug        bool
	Version      string
}
