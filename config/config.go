package config

import (
	"fmt"
	"os"
)

// Config aggregates the settings of every subsystem. It is loaded once at
// process start and passed by reference to the components that need it.
type Config struct {
	ServerPort int
	Database   DatabaseConfig
	Auth       AuthConfig
	OAuth      OAuthConfig
	RabbitMQ   RabbitMQConfig
	PubSub     PubSubConfig
	Mail       MailConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// AuthConfig holds the token-signing secret. The secret is mandatory: server
// startup fails without it rather than falling back to a default.
type AuthConfig struct {
	JWTSecret string
}

// OAuthConfig holds social-login provider credentials and redirect targets.
type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string

	FacebookClientID     string
	FacebookClientSecret string

	// CallbackBaseURL is the externally reachable base of this server, used
	// to build provider redirect URIs (e.g. https://api.example.com).
	CallbackBaseURL string

	// ClientDeepLink is the mobile-app URL the callback redirects to with
	// the freshly minted session token appended as ?token=.
	ClientDeepLink string
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

// MailConfig configures the outbound email sender used by the worker.
type MailConfig struct {
	SendGridAPIKey string
	FromAddress    string
	FromName       string

	// ResetLinkBase is the page the reset email links to; the raw reset
	// token is appended as ?token=.
	ResetLinkBase string
}

func LoadConfig() Config {
	loadDotEnv()

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "irrigafacil"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "irrigafacil_db"),
			UseSSL:   getEnvBool("DB_USE_SSL", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		OAuth: OAuthConfig{
			GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
			FacebookClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
			FacebookClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
			CallbackBaseURL:      getEnv("OAUTH_CALLBACK_BASE_URL", "http://localhost:8080"),
			ClientDeepLink:       getEnv("CLIENT_DEEP_LINK", "irrigafacil://login"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH_COUNT", 8),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
		Mail: MailConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			FromAddress:    getEnv("MAIL_FROM_ADDRESS", "nao-responda@irrigafacil.com.br"),
			FromName:       getEnv("MAIL_FROM_NAME", "IrrigaFácil"),
			ResetLinkBase:  getEnv("MAIL_RESET_LINK_BASE", "https://app.irrigafacil.com.br/redefinir-senha"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "1" || valueStr == "true" || valueStr == "yes"
	}
	return defaultValue
}
