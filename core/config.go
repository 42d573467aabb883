package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	apiConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	credentialsConfig struct {
		Path string // empty: $HOME/.masomo/credentials
	}

	portalConfig struct {
		Host            string
		Address         string
		PendingWait     time.Duration
		ShutdownTimeout time.Duration
	}

	Config struct {
		Env          string
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		RollbarToken string

		API         apiConfig
		Credentials credentialsConfig
		Portal      portalConfig
	}
)

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed with the uppercased ENV value, eg. DEV_APIBASEURL.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "Masomo")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("apiBaseURL", "http://localhost:8000")
	conf.SetDefault("apiTimeout", 10*time.Second)
	conf.SetDefault("credentialsPath", "")
	conf.SetDefault("portalHost", "localhost")
	conf.SetDefault("portalAddress", "localhost:8080")
	conf.SetDefault("portalPendingWait", 2*time.Second)
	conf.SetDefault("portalShutdownTimeout", 5*time.Second)
	conf.SetDefault("testMode", false)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        conf.GetString("build"),
		AppName:      conf.GetString("appName"),
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		RollbarToken: conf.GetString("rollbarToken"),
		API: apiConfig{
			BaseURL: strings.TrimRight(conf.GetString("apiBaseURL"), "/"),
			Timeout: conf.GetDuration("apiTimeout"),
		},
		Credentials: credentialsConfig{
			Path: conf.GetString("credentialsPath"),
		},
		Portal: portalConfig{
			Host:            conf.GetString("portalHost"),
			Address:         conf.GetString("portalAddress"),
			PendingWait:     conf.GetDuration("portalPendingWait"),
			ShutdownTimeout: conf.GetDuration("portalShutdownTimeout"),
		},
	}
}

// configDir returns $MASOMO_CONFIG_DIR or `./config`.
func configDir() string {
	if dir := os.Getenv("MASOMO_CONFIG_DIR"); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	return filepath.Join(wd, "config")
}
