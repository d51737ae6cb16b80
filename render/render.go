// Package render coordinates server-side render passes. For every incoming
// document request it sets up a request-scoped transfer state and a
// credential-forwarding fetch client, runs one render pass, embeds the state
// snapshot into the produced document, and writes it out. Nothing is shared
// between requests and no render output is cached.
package render

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	transferstate "github.com/transfer-state/transfer-state"
	"github.com/transfer-state/transfer-state/client"
	"github.com/transfer-state/transfer-state/session"
)

// DefaultSessionCookie is the cookie resolved against the session store
// when Config.SessionCookie is not set.
const DefaultSessionCookie = "session"

// Locale selects a base path prefix and a static asset directory for one
// locale build of the application.
type Locale struct {
	// Language tag, e.g. "en" or "fi".
	Code string `yaml:"code"`
	// Path prefix the locale is served under, e.g. "/fi". Empty means the
	// site root; that locale is also the fallback for unmatched paths.
	BasePath string `yaml:"basePath"`
	// Directory of the locale's static assets. Served under
	// <basePath>/assets/ when set.
	AssetDir string `yaml:"assetDir"`
	// Marks the fallback locale when several are configured.
	Default bool `yaml:"default"`
}

// baseHref is the href prefix the renderer should use for links.
func (l Locale) baseHref() string {
	base := strings.TrimSuffix(l.BasePath, "/")
	return base + "/"
}

type Config struct {
	// Renderer producing the document markup for one pass.
	Renderer Renderer
	// Base URL of the API origin for server-side fetches.
	Upstream url.URL
	// Locale variants to serve. A single root locale is assumed if empty.
	Locales []Locale
	// Optional session store. When set, the incoming session cookie is
	// resolved and the session exposed to the render pass.
	Sessions session.Store
	// Name of the session cookie. Defaults to DefaultSessionCookie.
	SessionCookie string
	// HTTP client used for server-side fetches. http.DefaultClient semantics
	// if nil.
	HTTPClient *http.Client
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
}

// Coordinator renders one document per incoming request.
// It implements http.Handler.
type Coordinator struct {
	renderer      Renderer
	upstream      url.URL
	sessions      session.Store
	sessionCookie string
	httpClient    *http.Client
	log           zerolog.Logger
	router        chi.Router
}

// New initializes a render coordinator and its locale routing.
func New(config Config) (*Coordinator, error) {
	if config.Renderer == nil {
		return nil, errors.New("render: a Renderer is required")
	}

	logger := log.Logger
	if config.Logger != nil {
		logger = *config.Logger
	}
	logger = logger.With().Str("upstream", config.Upstream.String()).Logger()

	sessionCookie := config.SessionCookie
	if sessionCookie == "" {
		sessionCookie = DefaultSessionCookie
	}

	co := &Coordinator{
		renderer:      config.Renderer,
		upstream:      config.Upstream,
		sessions:      config.Sessions,
		sessionCookie: sessionCookie,
		httpClient:    config.HTTPClient,
		log:           logger,
	}
	co.router = co.buildRouter(config.Locales)
	return co, nil
}

// buildRouter mounts every locale under its base path, with the default
// locale catching everything that matches no other mount.
func (co *Coordinator) buildRouter(locales []Locale) chi.Router {
	if len(locales) == 0 {
		locales = []Locale{{Code: "en", Default: true}}
	}

	r := chi.NewRouter()
	r.Use(hlog.NewHandler(co.log))
	r.Use(hlog.RequestIDHandler("request_id", "X-Request-Id"))

	fallback := locales[0]
	for _, locale := range locales {
		if locale.Default {
			fallback = locale
		}
		base := strings.TrimSuffix(locale.BasePath, "/")
		if locale.AssetDir != "" {
			assets := http.StripPrefix(base+"/assets/", http.FileServer(http.Dir(locale.AssetDir)))
			r.Handle(base+"/assets/*", assets)
		}
		if base != "" {
			locale := locale
			r.HandleFunc(base, func(w http.ResponseWriter, req *http.Request) {
				co.renderDocument(w, req, locale)
			})
			r.HandleFunc(base+"/*", func(w http.ResponseWriter, req *http.Request) {
				co.renderDocument(w, req, locale)
			})
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		co.renderDocument(w, req, fallback)
	})
	return r
}

// ServeHTTP implements the http.Handler interface.
func (co *Coordinator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	co.router.ServeHTTP(w, r)
}

// renderDocument runs one full render pass for an incoming request.
func (co *Coordinator) renderDocument(w http.ResponseWriter, r *http.Request, locale Locale) {
	logger := co.getLogger(r)

	state := transferstate.NewCache()
	fetcher, err := client.New(client.Config{
		Mode:        client.ModeServer,
		BaseURL:     co.upstream,
		State:       state,
		Credentials: credentialFromRequest(r),
		HTTPClient:  co.httpClient,
		Logger:      logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Could not create fetch client")
		http.Error(w, "Could not render document", http.StatusInternalServerError)
		return
	}

	pass := &Pass{
		Client:   fetcher,
		State:    state,
		Locale:   locale,
		BaseHref: locale.baseHref(),
		Session:  co.resolveSession(r, logger),
		Request:  r,
	}

	doc, err := co.renderer.Render(r.Context(), pass)
	if err != nil {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Render failed")
		// best effort: the client still gets a response, partial or empty
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(doc)
		return
	}

	// the renderer has returned, so every fetch of this pass has completed
	// and the snapshot is final
	out, err := transferstate.Embed(doc, state)
	if err != nil {
		logger.Error().Err(err).Msg("Could not embed transfer state")
		out = doc
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		logger.Error().Err(err).Msg("Could not write document to client")
	}
	logger.Debug().
		Str("path", r.URL.Path).
		Str("locale", locale.Code).
		Int("stateEntries", state.Len()).
		Msg("Rendered document")
}

// resolveSession looks up the session behind the incoming session cookie.
// An absent cookie or unknown token is not an error: the pass simply renders
// signed-out.
func (co *Coordinator) resolveSession(r *http.Request, logger *zerolog.Logger) *session.Session {
	if co.sessions == nil {
		return nil
	}
	cookie, err := r.Cookie(co.sessionCookie)
	if err != nil {
		return nil
	}
	s, err := co.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			logger.Error().Err(err).Msg("Could not resolve session")
		}
		return nil
	}
	return s
}

// getLogger returns the logger from the request context.
// If no logger is found, it will return the coordinator logger.
func (co *Coordinator) getLogger(r *http.Request) *zerolog.Logger {
	logger := hlog.FromRequest(r)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &co.log
	}
	return logger
}
