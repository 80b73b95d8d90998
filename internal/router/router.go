package router

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "petguard/docs"
	"petguard/internal/adapters/auth/gotrue"
	"petguard/internal/adapters/auth/local"
	"petguard/internal/adapters/capabilities/plansfeatures"
	"petguard/internal/adapters/geocoding/nominatim"
	"petguard/internal/adapters/storage/blob"
	mem "petguard/internal/adapters/storage/memory"
	pg "petguard/internal/adapters/storage/postgres"
	"petguard/internal/domain/pets"
	"petguard/internal/domain/profiles"
	"petguard/internal/domain/public"
	"petguard/internal/domain/reports"
	"petguard/internal/guard"
	"petguard/internal/media"
	"petguard/internal/middleware"
	"petguard/internal/platform/config"
	"petguard/internal/platform/logger"
	"petguard/internal/platform/metrics"
	"petguard/internal/ports/auth"
	"petguard/internal/ports/geocoding"
	"petguard/internal/ports/photos"
	"petguard/internal/session"
	"petguard/internal/web"
)

type Options struct {
	Config *config.Config
	Logger logger.Logger

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Photos pisa el bucket de la config (main lo abre y lo cierra).
	Photos photos.Store
	// AuthBackend pisa el proveedor de la config; lo usan los tests.
	AuthBackend auth.Backend
	// Geocoder pisa Nominatim.
	Geocoder geocoding.ReverseGeocoder
}

type repos struct {
	pets     pets.Repository
	profiles profiles.Repository
	reports  reports.Repository
	auth     local.Store
}

func NewRouter(opts Options) (http.Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("router: config is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover(log))

	st := newRepos(opts.DB)

	// Perfiles
	profilesSvc := profiles.NewService(st.profiles, profiles.Options{
		DefaultMaxPets: cfg.Pets.DefaultMaxPets,
		EnsureOnRead:   cfg.Auth.Provider == config.AuthProviderGoTrue,
	})

	// Sesión
	backend := opts.AuthBackend
	if backend == nil {
		b, err := newAuthBackend(cfg, st.auth)
		if err != nil {
			return nil, err
		}
		backend = b
	}
	cookies := session.CookieCodec{Secure: cfg.HTTP.SecureCookies}
	sessions := session.NewAdapter(session.Options{
		Backend:        backend,
		Provisioner:    profilesSvc,
		Hub:            session.NewHub(),
		Logger:         log,
		ResolveTimeout: cfg.Auth.ResolveTimeout,
	})

	// Cuota: servicio de planes con fallback a profiles.max_pets.
	plansClient, err := plansfeatures.NewClient(plansfeatures.Config{
		BaseURL: cfg.Plans.BaseURL,
		APIKey:  cfg.Plans.APIKey,
	})
	if err != nil {
		return nil, errors.Wrap(err, "plans client")
	}
	quota := plansfeatures.NewResolver(plansClient, profilesSvc, log)

	store := opts.Photos
	if store == nil {
		bs, err := blob.Open(context.Background(), cfg.Photos.BucketURL, cfg.Photos.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		store = bs
	}

	petsSvc := pets.NewService(st.pets, pets.Options{
		Quota:  quota,
		Photos: store,
		Logger: log,
		PhotoRules: media.Rules{
			MaxBytes: cfg.Photos.MaxBytes,
			MinDim:   cfg.Photos.MinDim,
			MaxDim:   cfg.Photos.MaxDim,
		},
		OptimizePhotos: cfg.Photos.Optimize.Enabled,
		OptimizeOptions: media.OptimizeOptions{
			MaxDim:  cfg.Photos.Optimize.MaxDim,
			Quality: cfg.Photos.Optimize.Quality,
		},
		PublicBaseURL: cfg.HTTP.PublicBaseURL,
		QR:            pets.QRConfig{Size: cfg.QRCode.Size, Level: cfg.QRCode.Level},
	})

	geocoder := opts.Geocoder
	if geocoder == nil && cfg.Geocoding.Enabled {
		g, err := nominatim.New(nominatim.Config{
			BaseURL:   cfg.Geocoding.BaseURL,
			UserAgent: cfg.Geocoding.UserAgent,
			Timeout:   cfg.Geocoding.Timeout,
			CacheSize: cfg.Geocoding.CacheSize,
			CacheTTL:  cfg.Geocoding.CacheTTL,
		})
		if err != nil {
			return nil, errors.Wrap(err, "geocoder")
		}
		geocoder = g
	}

	reportsSvc := reports.NewService(st.reports, petsSvc, reports.Options{
		Geocoder:       geocoder,
		GeocodeTimeout: cfg.Geocoding.Timeout,
		Logger:         log,
	})
	publicSvc := public.NewService(petsSvc, profilesSvc, reportsSvc, log)
	limiter := public.NewClientLimiter(cfg.Reports.RatePerMinute, cfg.Reports.Burst)

	policy := policyFrom(cfg.Guard)

	// El route guard va antes que todo lo que toque backend: en mantenimiento
	// ningún request llega a resolver sesión.
	rg, err := guard.NewRouteGuard(guard.RouteOptions{
		Mode:       guard.Mode(cfg.Guard.Mode),
		Policy:     policy,
		Sessions:   sessions,
		Cookies:    cookies,
		RetryAfter: cfg.Guard.Maintenance.RetryAfter,
		Basic: guard.BasicCredentials{
			Username: cfg.Guard.Basic.Username,
			Password: cfg.Guard.Basic.Password,
			Realm:    cfg.Guard.Basic.Realm,
		},
		Logger: log,
	})
	if err != nil {
		return nil, err
	}
	r.Use(rg.Middleware)

	var verifier auth.AuthVerifier
	if v, ok := backend.(auth.AuthVerifier); ok {
		verifier = v
	}
	r.Use(middleware.AuthContext(middleware.AuthOptions{
		Sessions:  sessions,
		Cookies:   cookies,
		Verifier:  verifier,
		DevHeader: cfg.HTTP.DevAuthHeader,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// API JSON por módulo
	pets.RegisterRoutes(r, petsSvc)
	profiles.RegisterRoutes(r, profilesSvc)
	reports.RegisterRoutes(r, reportsSvc)
	public.RegisterRoutes(r, publicSvc, limiter)

	// Páginas
	srv, err := web.NewServer(web.Options{
		Sessions:      sessions,
		Cookies:       cookies,
		Profiles:      profilesSvc,
		Pets:          petsSvc,
		Reports:       reportsSvc,
		Public:        publicSvc,
		Limiter:       limiter,
		Photos:        servedPhotos(cfg, store),
		Policy:        policy,
		ClientTimeout: cfg.ClientGuard.Timeout,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}
	srv.RegisterRoutes(r)

	return r, nil
}

func newRepos(db *sql.DB) repos {
	if db != nil {
		return repos{
			pets:     pg.NewPetsRepo(db),
			profiles: pg.NewProfilesRepo(db),
			reports:  pg.NewReportsRepo(db),
			auth:     pg.NewAuthStore(db),
		}
	}
	return repos{
		pets:     mem.NewPetRepo(),
		profiles: mem.NewProfileRepo(),
		reports:  mem.NewReportRepo(),
		auth:     mem.NewAuthStore(),
	}
}

func newAuthBackend(cfg *config.Config, store local.Store) (auth.Backend, error) {
	switch cfg.Auth.Provider {
	case config.AuthProviderGoTrue:
		client, err := gotrue.NewClient(gotrue.Config{
			URL:     cfg.Auth.GoTrue.URL,
			AnonKey: cfg.Auth.GoTrue.AnonKey,
			Timeout: cfg.Auth.GoTrue.Timeout,
		})
		if err != nil {
			return nil, errors.Wrap(err, "gotrue client")
		}
		return gotrue.NewBackend(client), nil
	case config.AuthProviderLocal, "":
		b, err := local.New(local.Config{
			AccessSecret:  cfg.Auth.Local.AccessSecret,
			RefreshSecret: cfg.Auth.Local.RefreshSecret,
			AccessTTL:     cfg.Auth.Local.AccessTTL,
			RefreshTTL:    cfg.Auth.Local.RefreshTTL,
			ReuseInterval: cfg.Auth.Local.ReuseInterval,
			BcryptCost:    cfg.Auth.Local.BcryptCost,
		}, store, store)
		if err != nil {
			return nil, errors.Wrap(err, "local auth")
		}
		return b, nil
	default:
		return nil, errors.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}
}

func policyFrom(g config.GuardConfig) guard.Policy {
	p := guard.DefaultPolicy()
	if len(g.ProtectedPrefixes) > 0 {
		p.ProtectedPrefixes = g.ProtectedPrefixes
	}
	if g.LoginPath != "" {
		p.LoginPath = g.LoginPath
	}
	if g.SignupPath != "" {
		p.SignupPath = g.SignupPath
	}
	if g.LandingPath != "" {
		p.LandingPath = g.LandingPath
	}
	p.RedirectSignup = g.RedirectSignup
	p.Debug = g.Debug
	return p
}

// servedPhotos: sin CDN las fotos se sirven desde /photos/ del mismo host.
func servedPhotos(cfg *config.Config, store photos.Store) photos.Store {
	if strings.TrimSpace(cfg.Photos.PublicBaseURL) != "" {
		return nil
	}
	return store
}
