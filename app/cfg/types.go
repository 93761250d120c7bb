package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	ContentDir        string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Analytics collaborator
	AnalyticsUrl   string
	AnalyticsToken string

	// Application metadata
	UserAgent   string
	Timezone    string
	Environment string
	Debug       bool
	Version     string
}

func (c *Cfg) IsProduction() bool {
	return c.Environment == "production"
}
