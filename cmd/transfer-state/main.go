package main

import (
	"flag"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/transfer-state/transfer-state/render"
	"github.com/transfer-state/transfer-state/session"
)

var (
	// CLI flags
	configFilenameFlag string
	portFlag           int
	upstreamFlag       string
	templatesFlag      string
	sessionsFlag       string
	dbFilenameFlag     string
	redisAddrFlag      string
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on")
	flag.StringVar(&upstreamFlag, "upstream", "", "API origin URL for server-side fetches (overrides config)")
	flag.StringVar(&templatesFlag, "templates", "templates/*.html", "Template glob (overrides config)")
	flag.StringVar(&sessionsFlag, "sessions", "", "Session store to use: memory, sqlite or redis (empty for none)")
	flag.StringVar(&dbFilenameFlag, "db", "sessions.db", "Session DB file name for the sqlite store (use 'memory' for an in-memory db)")
	flag.StringVar(&redisAddrFlag, "redis", "localhost:6379", "Redis address for the redis session store")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	var config Config
	if configFilenameFlag != "" {
		var err error
		config, err = getConfig(configFilenameFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not read config file")
		}
	}

	if upstreamFlag != "" {
		config.Upstream = upstreamFlag
	}
	if config.Upstream == "" {
		log.Fatal().Msg("Please specify upstream")
	}
	upstreamURL, err := url.Parse(config.Upstream)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not parse upstream URL")
	}

	templatesGlob := config.Templates
	if templatesGlob == "" {
		templatesGlob = templatesFlag
	}
	templates, err := template.ParseGlob(templatesGlob)
	if err != nil {
		log.Fatal().Err(err).Str("glob", templatesGlob).Msg("Could not parse templates")
	}

	port := portFlag
	if config.Port > 0 {
		port = config.Port
	}

	renderConfig := render.Config{
		Renderer: &render.TemplateRenderer{
			Templates: templates,
			Routes:    config.Routes,
		},
		Upstream:      *upstreamURL,
		Locales:       config.Locales,
		Sessions:      newSessionStore(),
		SessionCookie: config.SessionCookie,
	}

	coordinator, err := render.New(renderConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not create render coordinator")
	}

	log.Info().Msgf("Rendering on port %v with data from %s", port, upstreamURL)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), coordinator); err != nil {
		panic(err)
	}
}

// newSessionStore creates the session store selected on the command line,
// or returns nil when session resolution is disabled.
func newSessionStore() session.Store {
	switch sessionsFlag {
	case "":
		return nil
	case "memory":
		store, err := session.NewMemoryStore(24 * time.Hour)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not create memory session store")
		}
		return store
	case "sqlite":
		dbFilename := dbFilenameFlag
		if dbFilename == "memory" {
			dbFilename = "file::memory:?cache=shared"
		}
		store, err := session.NewSQLiteStore(dbFilename)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not create sqlite session store")
		}
		return store
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: redisAddrFlag})
		return session.NewRedisStore(client)
	default:
		log.Fatal().Msgf("Unsupported session store: %s", sessionsFlag)
		return nil
	}
}
