package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/coreybb/readings/datastore"
	"github.com/coreybb/readings/datekeys"
	"github.com/coreybb/readings/esv"
	"github.com/spf13/viper"
)

const (
	keyPort            = "PORT"
	keyESVAPIKey       = "ESV_API_KEY"
	keyESVBaseURL      = "ESV_BASE_URL"
	keyDBDriver        = "DB_DRIVER"
	keyDatabaseURL     = "DB_CONNECTION_STRING"
	keyTimezone        = "TIMEZONE"
	keyDateKeyFormat   = "DATE_KEY_FORMAT"
	keyCacheDefaultTTL = "CACHE_DEFAULT_TTL"
	keyTaskTimeout     = "TASK_TIMEOUT"
	keyWarmDays        = "SCHEDULER_WARM_DAYS"
	keySchedulerCron   = "SCHEDULER_CRON"
	keyLogLevel        = "LOG_LEVEL"
	keyLogFormat       = "LOG_FORMAT"
)

const (
	defaultPort             = "8080"
	defaultDatabaseURL      = "user=postgres password=password dbname=readings host=localhost port=5432 sslmode=disable"
	defaultSQLiteDatabase   = "readings.db"
	defaultTimezone         = "America/Chicago"
	defaultCacheDefaultTTL  = time.Hour
	defaultTaskTimeout      = 30 * time.Second
	defaultWarmDays         = 2
	defaultLogLevel         = "info"
	defaultLogFormat        = "text"
	driverStatic            = "static"
	shutdownTimeout         = 15 * time.Second
	deferredDrainTimeout    = 10 * time.Second
	serverReadHeaderTimeout = 10 * time.Second
	esvRequestTimeout       = 20 * time.Second
)

type config struct {
	port            string
	esvAPIKey       string
	esvBaseURL      string
	dbDriver        string
	databaseURL     string
	location        *time.Location
	keyFormat       datekeys.Format
	cacheDefaultTTL time.Duration
	taskTimeout     time.Duration
	warmDays        int
	schedulerCron   string
}

// newViper returns a viper instance reading from the environment, with the
// defaults every command shares.
func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(keyPort, defaultPort)
	v.SetDefault(keyESVBaseURL, esv.DefaultBaseURL)
	v.SetDefault(keyDBDriver, datastore.DriverPostgres)
	v.SetDefault(keyTimezone, defaultTimezone)
	v.SetDefault(keyDateKeyFormat, string(datekeys.FormatMonthDay))
	v.SetDefault(keyCacheDefaultTTL, defaultCacheDefaultTTL)
	v.SetDefault(keyTaskTimeout, defaultTaskTimeout)
	v.SetDefault(keyWarmDays, defaultWarmDays)
	v.SetDefault(keyLogLevel, defaultLogLevel)
	v.SetDefault(keyLogFormat, defaultLogFormat)

	v.AutomaticEnv()
	return v
}

func loadConfig(v *viper.Viper) (config, error) {
	driver := strings.ToLower(strings.TrimSpace(v.GetString(keyDBDriver)))
	switch driver {
	case datastore.DriverPostgres, datastore.DriverSQLite, driverStatic:
	default:
		return config{}, fmt.Errorf("invalid %s %q (want postgres, sqlite or static)", keyDBDriver, driver)
	}

	keyFormat, err := datekeys.ParseFormat(v.GetString(keyDateKeyFormat))
	if err != nil {
		return config{}, fmt.Errorf("invalid %s: %w", keyDateKeyFormat, err)
	}

	loc, err := time.LoadLocation(v.GetString(keyTimezone))
	if err != nil {
		return config{}, fmt.Errorf("invalid %s: %w", keyTimezone, err)
	}

	dbURL := v.GetString(keyDatabaseURL)
	if dbURL == "" {
		switch driver {
		case datastore.DriverPostgres:
			dbURL = defaultDatabaseURL
			slog.Warn("DB_CONNECTION_STRING not set, using default local connection string")
		case datastore.DriverSQLite:
			dbURL = defaultSQLiteDatabase
		}
	}

	apiKey := v.GetString(keyESVAPIKey)
	if apiKey == "" {
		slog.Warn("ESV_API_KEY not set. Passage requests will be rejected upstream")
	}

	if driver == driverStatic && keyFormat != datekeys.FormatISO {
		slog.Warn("The static reading plan is keyed by ISO dates; set DATE_KEY_FORMAT=iso or every lookup will miss")
	}

	return config{
		port:            v.GetString(keyPort),
		esvAPIKey:       apiKey,
		esvBaseURL:      v.GetString(keyESVBaseURL),
		dbDriver:        driver,
		databaseURL:     dbURL,
		location:        loc,
		keyFormat:       keyFormat,
		cacheDefaultTTL: v.GetDuration(keyCacheDefaultTTL),
		taskTimeout:     v.GetDuration(keyTaskTimeout),
		warmDays:        v.GetInt(keyWarmDays),
		schedulerCron:   v.GetString(keySchedulerCron),
	}, nil
}

// newLogger builds the process logger. format is "text" or "json".
func newLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", keyLogLevel, level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid %s %q (want text or json)", keyLogFormat, format)
	}
}
