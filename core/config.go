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
	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	UploadsConfig struct {
		Root string // upload root; every stored file and derived artifact lives under it
	}

	ConverterConfig struct {
		SofficeBin      string // empty: probe well known locations, then PATH
		Timeout         time.Duration
		InvalidateStale bool // reconvert when the source is newer than its cached PDF

		// fallback renderer layout
		FontSize     float64
		LineHeight   float64
		Margin       float64
		CharsPerLine int
	}

	Config struct {
		Env          string
		Debug        bool
		TestMode     bool
		AppName      string
		Build        string
		RollbarToken string
		WorkDir      string

		Server    ServerConfig
		Uploads   UploadsConfig
		Converter ConverterConfig
	}
)

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Sanggar Belajar")
	v.SetDefault("build", "develop")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("uploads.root", "uploads")
	v.SetDefault("converter.sofficeBin", "")
	v.SetDefault("converter.timeout", 90*time.Second)
	v.SetDefault("converter.invalidateStale", false)
	v.SetDefault("converter.fontSize", 11.0)
	v.SetDefault("converter.lineHeight", 14.0)
	v.SetDefault("converter.margin", 50.0)
	v.SetDefault("converter.charsPerLine", 90)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	root := v.GetString("uploads.root")
	if !filepath.IsAbs(root) {
		root = filepath.Join(wd, root)
	}

	return &Config{
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		Build:        v.GetString("build"),
		RollbarToken: v.GetString("rollbarToken"),
		WorkDir:      wd,
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Uploads: UploadsConfig{
			Root: root,
		},
		Converter: ConverterConfig{
			SofficeBin:      v.GetString("converter.sofficeBin"),
			Timeout:         v.GetDuration("converter.timeout"),
			InvalidateStale: v.GetBool("converter.invalidateStale"),
			FontSize:        v.GetFloat64("converter.fontSize"),
			LineHeight:      v.GetFloat64("converter.lineHeight"),
			Margin:          v.GetFloat64("converter.margin"),
			CharsPerLine:    v.GetInt("converter.charsPerLine"),
		},
	}
}
