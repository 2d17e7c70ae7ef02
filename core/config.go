package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName  string
		Env      string // DEV (local; default), TEST, QA, PROD
		Build    string
		Debug    bool
		TestMode bool

		SecretKey              string
		InstitutionEmailDomain string // e.g. "university.edu"; empty disables the check
		DefaultFromEmail       mail.Address
		FrontendBaseURL        string
		RollbarToken           string
		SendgridAPIKey         string

		Server     serverConfig
		Auth       authConfig
		Database   databaseConfig
		Completion completionConfig
	}

	serverConfig struct {
		Address         string
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	// authConfig describes the identity provider's session tokens.
	authConfig struct {
		SigningKey string
		Issuer     string
	}

	databaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// completionConfig points to an OpenAI-compatible chat completion API.
	completionConfig struct {
		BaseURL string
		APIKey  string
		Model   string
		Timeout time.Duration
	}
)

func (c databaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewConfig loads the configuration from the environment.
// Variables are prefixed with the uppercased ENV, e.g. PROD_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Sauti")
	v.SetDefault("secretKey", "t8#q-2u@k1m!vz0x$c9_w7e&r5(b)n3j")
	v.SetDefault("institutionEmailDomain", "")
	v.SetDefault("defaultFromEmail", "Sauti <noreply@localhost>")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("auth.signingKey", "")
	v.SetDefault("auth.issuer", "")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "sauti")
	v.SetDefault("database.user", "sauti")
	v.SetDefault("database.password", "sauti")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("completion.baseURL", "https://api.openai.com/v1")
	v.SetDefault("completion.apiKey", "")
	v.SetDefault("completion.model", "gpt-4o-mini")
	v.SetDefault("completion.timeout", 20*time.Second)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	conf := &Config{
		AppName:  v.GetString("appName"),
		Env:      env,
		Build:    v.GetString("build"),
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),

		SecretKey:              v.GetString("secretKey"),
		InstitutionEmailDomain: CleanString(v.GetString("institutionEmailDomain"), true /* lower */),
		DefaultFromEmail:       *fromEmail,
		FrontendBaseURL:        strings.TrimSuffix(v.GetString("frontendBaseURL"), "/"),
		RollbarToken:           v.GetString("rollbarToken"),
		SendgridAPIKey:         v.GetString("sendgridApiKey"),

		Server: serverConfig{
			Address:         v.GetString("server.address"),
			Host:            v.GetString("server.host"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Auth: authConfig{
			SigningKey: v.GetString("auth.signingKey"),
			Issuer:     v.GetString("auth.issuer"),
		},
		Database: databaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Completion: completionConfig{
			BaseURL: strings.TrimSuffix(v.GetString("completion.baseURL"), "/"),
			APIKey:  v.GetString("completion.apiKey"),
			Model:   v.GetString("completion.model"),
			Timeout: v.GetDuration("completion.timeout"),
		},
	}
	if err := conf.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}

// Validate reports settings the app cannot safely run with.
// The identity provider's signing key has no default: outside of tests it must be set explicitly.
func (c *Config) Validate() error {
	if c.Auth.SigningKey == "" && !c.TestMode {
		return errors.Errorf("auth.signingKey is required (%s_AUTH_SIGNINGKEY)", c.Env)
	}
	return nil
}
