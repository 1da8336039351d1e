package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName      string
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		Debug        bool
		TestMode     bool
		RollbarToken string

		Server   ServerConfig
		Backend  BackendConfig
		Auth     AuthConfig
		Admin    AdminConfig
		Database DatabaseConfig
		Mail     MailConfig
		Client   ClientConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		DisableReqLogs  bool
		AllowedOrigins  []string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	BackendConfig struct {
		URL     string
		Timeout time.Duration
		// DashboardSections maps a dashboard section name to the origin path counted for it.
		DashboardSections map[string]string
	}

	AuthConfig struct {
		CookieName string
		JWTSecret  string
	}

	AdminConfig struct {
		MaskForbidden bool
	}

	DatabaseConfig struct {
		Engine        string // empty: in-memory audit trail
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	MailConfig struct {
		DefaultFromEmail   mail.Address
		SendgridApiKey     string
		FeedbackRecipients []mail.Address
	}

	ClientConfig struct {
		GatewayURL     string
		TokenFile      string
		UnreadInterval time.Duration
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

// NewConfig loads the configuration from the environment.
// Variables are prefixed with the ENV name, eg. DEV_BACKEND_URL.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Pathwise")
	conf.SetDefault("build", "develop")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.disableReqLogs", false)
	conf.SetDefault("server.allowedOrigins", []string{"http://localhost:3000"})
	conf.SetDefault("server.readTimeout", 5*time.Second)
	conf.SetDefault("server.writeTimeout", 30*time.Second)
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("backend.url", "http://localhost:8080")
	conf.SetDefault("backend.timeout", 10*time.Second)
	conf.SetDefault("backend.dashboardUsers", "/api/admin/users")
	conf.SetDefault("backend.dashboardAchievements", "/api/achievements")
	conf.SetDefault("backend.dashboardCourses", "/api/courses")
	conf.SetDefault("backend.dashboardComments", "/api/admin/comments")
	conf.SetDefault("backend.dashboardFeedback", "/api/feedback")
	conf.SetDefault("auth.cookieName", "token")
	conf.SetDefault("auth.jwtSecret", "")
	conf.SetDefault("admin.maskForbidden", false)
	conf.SetDefault("database.engine", "")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "pathwise")
	conf.SetDefault("database.user", "pathwise")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.adminUser", "")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("mail.defaultFromEmail", "Pathwise <noreply@localhost>")
	conf.SetDefault("mail.sendgridApiKey", "")
	conf.SetDefault("mail.feedbackRecipients", "")
	conf.SetDefault("client.gatewayURL", "http://localhost:8000")
	conf.SetDefault("client.tokenFile", defaultTokenFile())
	conf.SetDefault("client.unreadInterval", 30*time.Second)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if p := os.Getenv("ENV_FILE"); p != "" {
		dotEnvPath = p
	}
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	defaultFrom, err := mail.ParseAddress(conf.GetString("mail.defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.mail.defaultFromEmail: %v", err)
	}
	var recipients []mail.Address
	if raw := CleanString(conf.GetString("mail.feedbackRecipients")); raw != "" {
		addrs, err := mail.ParseAddressList(raw)
		if err != nil {
			log.Fatalf("config.mail.feedbackRecipients: %v", err)
		}
		for _, a := range addrs {
			recipients = append(recipients, *a)
		}
	}

	return &Config{
		AppName:      conf.GetString("appName"),
		Env:          env,
		Build:        conf.GetString("build"),
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		RollbarToken: conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			Address:         conf.GetString("server.address"),
			DebugHost:       conf.GetString("server.debugHost"),
			DisableReqLogs:  conf.GetBool("server.disableReqLogs"),
			AllowedOrigins:  conf.GetStringSlice("server.allowedOrigins"),
			ReadTimeout:     conf.GetDuration("server.readTimeout"),
			WriteTimeout:    conf.GetDuration("server.writeTimeout"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
		Backend: BackendConfig{
			URL:     strings.TrimRight(conf.GetString("backend.url"), "/"),
			Timeout: conf.GetDuration("backend.timeout"),
			DashboardSections: map[string]string{
				"users":        conf.GetString("backend.dashboardUsers"),
				"achievements": conf.GetString("backend.dashboardAchievements"),
				"courses":      conf.GetString("backend.dashboardCourses"),
				"comments":     conf.GetString("backend.dashboardComments"),
				"feedback":     conf.GetString("backend.dashboardFeedback"),
			},
		},
		Auth: AuthConfig{
			CookieName: conf.GetString("auth.cookieName"),
			JWTSecret:  conf.GetString("auth.jwtSecret"),
		},
		Admin: AdminConfig{
			MaskForbidden: conf.GetBool("admin.maskForbidden"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
		Mail: MailConfig{
			DefaultFromEmail:   *defaultFrom,
			SendgridApiKey:     conf.GetString("mail.sendgridApiKey"),
			FeedbackRecipients: recipients,
		},
		Client: ClientConfig{
			GatewayURL:     strings.TrimRight(conf.GetString("client.gatewayURL"), "/"),
			TokenFile:      conf.GetString("client.tokenFile"),
			UnreadInterval: conf.GetDuration("client.unreadInterval"),
		},
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "pathwise", "token")
}
