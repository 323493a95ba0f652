package config

type ServiceConfig struct {
	Name        string           `yaml:"name"`
	Environment string           `yaml:"environment"`
	Version     string           `yaml:"version"`
	ClientURL   string           `yaml:"client_url"`
	Aggregator  AggregatorConfig `yaml:"aggregator"`
}

// AggregatorConfig holds the open-banking aggregator credentials and
// callback settings. Every field is mandatory at startup.
type AggregatorConfig struct {
	BaseURL          string `yaml:"base_url"`
	PartnerID        string `yaml:"partner_id"`
	PartnerSecret    string `yaml:"partner_secret"`
	AppKey           string `yaml:"app_key"`
	RedirectURI      string `yaml:"redirect_uri"`
	WebhookURL       string `yaml:"webhook_url"`
	WebhookPublicKey string `yaml:"webhook_public_key"`
}
