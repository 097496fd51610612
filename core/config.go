package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address         string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	BackendConfig struct {
		BaseURL        string
		LoginTimeout   time.Duration
		RequestTimeout time.Duration
	}

	SessionConfig struct {
		Store      string // cookie | memory
		CookieName string
		Secure     bool
		MaxAge     time.Duration
	}

	Config struct {
		Env          string
		Debug        bool
		TestMode     bool
		AppName      string
		Build        string
		SecretKey    string
		RollbarToken string
		Location     *time.Location

		Server  ServerConfig
		Backend BackendConfig
		Session SessionConfig

		RosterViewTTL  time.Duration
		CLISessionFile string
	}
)

// defaultSecretKey signs sessions in DEV and TEST only; any other env must set its own.
const defaultSecretKey = "tne-2x!k$9fl-q0w(e8u+dv%h3n&zr7p@5mcy"

var errDefaultSecretKey = errors.New("secretKey must be set outside DEV and TEST")

const (
	SessionStoreCookie = "cookie"
	SessionStoreMemory = "memory"
)

// NewConfig reads the configuration from defaults, an optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed with the current env, eg. `PROD_BACKEND_BASEURL`.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Sistema de Control TNE")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", defaultSecretKey)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("timezone", "America/Santiago")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("backend.baseURL", "https://tne-registro.onrender.com")
	v.SetDefault("backend.loginTimeout", 5*time.Second)
	v.SetDefault("backend.requestTimeout", 30*time.Second)

	v.SetDefault("session.store", SessionStoreCookie)
	v.SetDefault("session.cookieName", "tne_session")
	v.SetDefault("session.secure", false)
	v.SetDefault("session.maxAge", 30*24*time.Hour)

	v.SetDefault("roster.viewTTL", 30*time.Minute)
	v.SetDefault("cli.sessionFile", defaultCLISessionFile())

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	if err := checkSecretKey(env, v.GetString("secretKey")); err != nil {
		log.Fatalf("config: %v", err)
	}

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		log.Printf("config: loading timezone %q: %v; falling back to UTC", v.GetString("timezone"), err)
		loc = time.UTC
	}

	return &Config{
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		Build:        v.GetString("build"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Location:     loc,
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(v.GetString("backend.baseURL"), "/"),
			LoginTimeout:   v.GetDuration("backend.loginTimeout"),
			RequestTimeout: v.GetDuration("backend.requestTimeout"),
		},
		Session: SessionConfig{
			Store:      strings.ToLower(v.GetString("session.store")),
			CookieName: v.GetString("session.cookieName"),
			Secure:     v.GetBool("session.secure"),
			MaxAge:     v.GetDuration("session.maxAge"),
		},
		RosterViewTTL:  v.GetDuration("roster.viewTTL"),
		CLISessionFile: v.GetString("cli.sessionFile"),
	}
}

func defaultCLISessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".tne", "session.json")
	}
	return filepath.Join(home, ".tne", "session.json")
}

// checkSecretKey refuses an empty key, and the default key outside DEV and TEST.
func checkSecretKey(env, key string) error {
	if key == "" {
		return errors.New("secretKey is empty")
	}
	if key == defaultSecretKey && env != "DEV" && env != "TEST" {
		return errDefaultSecretKey
	}
	return nil
}
