package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/trezcool/ratiba/core/timegrid"
)

type (
	Config struct {
		Env      string
		Build    string
		Debug    bool
		TestMode bool
		WorkDir  string

		AppName                   string
		SecretKey                 string
		FrontendBaseURL           string
		DefaultFromEmail          mail.Address
		SendgridAPIKey            string
		RollbarToken              string
		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Grid     GridConfig
		Jobs     JobsConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine     string // postgres | memory
		Host       string
		Port       int
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	// GridConfig drives slot generation for every grid view.
	GridConfig struct {
		StartHour      int
		EndHour        int
		SlotMinutes    int
		TimeFormat     timegrid.TimeFormat
		MeridiemPolicy timegrid.MeridiemPolicy
		Days           []string
		CacheTTL       time.Duration
	}

	JobsConfig struct {
		DigestCron string // empty disables the daily digest
		Timezone   string
	}
)

func (db DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", db.Host, db.Port)
}

func (db DatabaseConfig) InMemory() bool {
	return db.Engine == "memory"
}

// Normalize fills zero values with defaults and drops unknown days.
func (g *GridConfig) Normalize() {
	if g.StartHour < 0 || g.StartHour >= timegrid.MaxEndHour {
		g.StartHour = 7
	}
	if g.EndHour > timegrid.MaxEndHour {
		g.EndHour = timegrid.MaxEndHour
	}
	if g.EndHour <= g.StartHour {
		g.EndHour = 21
		if g.EndHour <= g.StartHour {
			g.EndHour = timegrid.MaxEndHour
		}
	}
	if g.SlotMinutes <= 0 {
		g.SlotMinutes = 30
	}
	switch g.TimeFormat {
	case timegrid.Format12Hour, timegrid.Format24Hour:
	default:
		g.TimeFormat = timegrid.Format12Hour
	}
	switch g.MeridiemPolicy {
	case timegrid.MeridiemTwentyFourHour, timegrid.MeridiemRequired:
	default:
		g.MeridiemPolicy = timegrid.MeridiemTwentyFourHour
	}

	days := make([]string, 0, len(g.Days))
	for _, d := range g.Days {
		if day, ok := timegrid.CanonicalDay(d); ok {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		days = append(days, timegrid.Weekdays[:6]...)
	}
	g.Days = days
}

// Slots generates the display slots for this configuration.
func (g GridConfig) Slots() []timegrid.TimeSlot {
	return timegrid.GenerateTimeSlots(g.StartHour, g.EndHour, g.SlotMinutes, g.TimeFormat)
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// defaults
	v.SetDefault("build", "dev")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Ratiba")
	v.SetDefault("secretKey", "k3y-ch4ng3-m3(r4t1b4)!x9#q2w%e7u")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromName", "Ratiba")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "ratiba")
	v.SetDefault("database.user", "ratiba")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("grid.startHour", 7)
	v.SetDefault("grid.endHour", 21)
	v.SetDefault("grid.slotMinutes", 30)
	v.SetDefault("grid.timeFormat", string(timegrid.Format12Hour))
	v.SetDefault("grid.meridiemPolicy", string(timegrid.MeridiemTwentyFourHour))
	v.SetDefault("grid.days", "monday,tuesday,wednesday,thursday,friday,saturday")
	v.SetDefault("grid.cacheTTL", 30*time.Second)

	v.SetDefault("jobs.digestCron", "0 6 * * 1-6")
	v.SetDefault("jobs.timezone", "Local")

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

	conf := &Config{
		Env:      env,
		Build:    v.GetString("build"),
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),
		WorkDir:  wd,

		AppName:         v.GetString("appName"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("defaultFromName"),
			Address: v.GetString("defaultFromEmail"),
		},
		SendgridAPIKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),

		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Host:       v.GetString("database.host"),
			Port:       v.GetInt("database.port"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disableTLS"),
		},
		Grid: GridConfig{
			StartHour:      v.GetInt("grid.startHour"),
			EndHour:        v.GetInt("grid.endHour"),
			SlotMinutes:    v.GetInt("grid.slotMinutes"),
			TimeFormat:     timegrid.TimeFormat(v.GetString("grid.timeFormat")),
			MeridiemPolicy: timegrid.MeridiemPolicy(v.GetString("grid.meridiemPolicy")),
			Days:           strings.Split(v.GetString("grid.days"), ","),
			CacheTTL:       v.GetDuration("grid.cacheTTL"),
		},
		Jobs: JobsConfig{
			DigestCron: v.GetString("jobs.digestCron"),
			Timezone:   v.GetString("jobs.timezone"),
		},
	}
	conf.Grid.Normalize()
	return conf
}

// NewTestConfig returns a config suitable for unit tests; it does not read the environment.
func NewTestConfig() *Config {
	conf := &Config{
		Env:                       "TEST",
		Build:                     "test",
		Debug:                     true,
		TestMode:                  true,
		AppName:                   "Ratiba",
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:3000",
		DefaultFromEmail:          mail.Address{Name: "Ratiba", Address: "noreply@localhost"},
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: ServerConfig{
			Host:                      "localhost",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Database: DatabaseConfig{Engine: "memory"},
		Grid: GridConfig{
			StartHour:   7,
			EndHour:     9,
			SlotMinutes: 30,
			Days:        []string{timegrid.Monday, timegrid.Tuesday, timegrid.Wednesday},
		},
	}
	conf.Grid.Normalize()
	return conf
}
