package config

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	MigrationsDir string
	Port          string
	AdminToken    string
	Slack         SlackConfig
	OpenAI        OpenAIConfig
	Turso         TursoConfig
	ProjectID     string
}
type SlackConfig struct {
	Token         string
	ChannelID     string
	SigningSecret string
}
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}
type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
