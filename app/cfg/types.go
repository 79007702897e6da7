package cfg

import "time"

type Cfg struct {
	// Catalog source configuration
	CatalogUser   string
	CatalogRepo   string
	CatalogAPIURL string
	CatalogDir    string
	ParsersDir    string
	TemplatesDir  string

	// Application configuration
	Port                 string
	ContentType          string
	HTTPTimeout          time.Duration
	RefreshCheckInterval time.Duration
	RefreshStaleAfter    time.Duration
	RefreshConcurrency   int
	RenderCacheTTL       time.Duration
	RedisAddr            string
	DBPath               string
	APIAccessKey         string
	Tracing              bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
