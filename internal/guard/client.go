package guard

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"petguard/internal/domain/pets"
	"petguard/internal/domain/profiles"
	"petguard/internal/platform/logger"
	"petguard/internal/platform/metrics"
	"petguard/internal/ports/auth"
)

const DefaultClientTimeout = 5 * time.Second

var ErrAlreadyMounted = errors.New("guard: client guard already mounted")

// SessionSource es la vista del session adapter que usa el client guard.
type SessionSource interface {
	SessionResolver
	OnSessionChange(handler func(auth.Event)) (unsubscribe func())
}

// Loader trae los datos del dashboard. Las tres cargas son independientes.
type Loader interface {
	Profile(ctx context.Context, claims auth.Claims) (profiles.Profile, error)
	Pets(ctx context.Context, ownerUserID string) ([]pets.Pet, error)
	ReportCount(ctx context.Context, ownerUserID string) (int, error)
}

// Navigator saca al usuario de la página. No debe llamar de vuelta al guard.
type Navigator interface {
	Navigate(to string)
}

type NavigatorFunc func(to string)

func (f NavigatorFunc) Navigate(to string) { f(to) }

// Snapshot es lo que la página muestra una vez cargada.
type Snapshot struct {
	Claims      auth.Claims
	Profile     profiles.Profile
	Pets        []pets.Pet
	ReportCount int
}

type ClientOptions struct {
	Sessions  SessionSource
	Loader    Loader
	Navigator Navigator
	// OnReady recibe el snapshot si la carga termina antes del timeout y del unmount.
	OnReady   func(Snapshot)
	Timeout   time.Duration
	LoginPath string
	Debug     bool
	Logger    logger.Logger
}

// ClientGuard es el ciclo de vida de una página abierta: una instancia por página.
// Navigate se llama a lo sumo una vez por mount, venga del timeout, del
// SIGNED_OUT o de la falta de sesión.
type ClientGuard struct {
	sessions  SessionSource
	loader    Loader
	nav       Navigator
	onReady   func(Snapshot)
	timeout   time.Duration
	loginPath string
	debug     bool
	log       logger.Logger

	mu          sync.Mutex
	gen         uint64
	mounted     bool
	loaded      bool
	navigated   bool
	userID      string
	timer       *time.Timer
	unsubscribe func()
	cancel      context.CancelFunc
	done        chan struct{}
}

func NewClientGuard(opts ClientOptions) *ClientGuard {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	login := opts.LoginPath
	if login == "" {
		login = DefaultPolicy().LoginPath
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	onReady := opts.OnReady
	if onReady == nil {
		onReady = func(Snapshot) {}
	}
	return &ClientGuard{
		sessions:  opts.Sessions,
		loader:    opts.Loader,
		nav:       opts.Navigator,
		onReady:   onReady,
		timeout:   timeout,
		loginPath: login,
		debug:     opts.Debug,
		log:       log.With(map[string]any{"component": "client_guard"}),
	}
}

// Mount arranca la verificación en background y vuelve enseguida.
func (g *ClientGuard) Mount(ctx context.Context, tokens auth.Tokens) error {
	g.mu.Lock()
	if g.mounted {
		g.mu.Unlock()
		return ErrAlreadyMounted
	}
	g.gen++
	gen := g.gen
	g.mounted = true
	g.loaded = false
	g.navigated = false
	g.userID = ""

	loadCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	done := make(chan struct{})
	g.done = done
	g.timer = time.AfterFunc(g.timeout, func() {
		g.expire(gen)
	})
	g.mu.Unlock()

	unsubscribe := g.sessions.OnSessionChange(func(ev auth.Event) {
		g.onSessionEvent(gen, ev)
	})
	g.mu.Lock()
	if g.gen == gen && g.mounted {
		g.unsubscribe = unsubscribe
		unsubscribe = nil
	}
	g.mu.Unlock()
	if unsubscribe != nil {
		// ya desmontado
		unsubscribe()
	}

	go g.run(loadCtx, gen, tokens, done)
	return nil
}

// Unmount cancela todo lo pendiente y espera a la carga en curso.
// Después de Unmount no se entrega nada.
func (g *ClientGuard) Unmount() {
	g.mu.Lock()
	if !g.mounted {
		g.mu.Unlock()
		return
	}
	g.mounted = false
	g.gen++
	if g.timer != nil {
		g.timer.Stop()
	}
	unsubscribe, cancel, done := g.unsubscribe, g.cancel, g.done
	g.unsubscribe, g.cancel, g.timer = nil, nil, nil
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (g *ClientGuard) run(ctx context.Context, gen uint64, tokens auth.Tokens, done chan struct{}) {
	defer close(done)

	res := g.sessions.GetSession(ctx, tokens)
	if !res.Authenticated() {
		g.navigateLogin(gen, "no_session")
		return
	}
	claims := res.Session.Claims()

	g.mu.Lock()
	if g.gen != gen {
		g.mu.Unlock()
		return
	}
	g.userID = claims.UserID
	g.mu.Unlock()

	snap, err := g.load(ctx, claims)
	if err != nil {
		if ctx.Err() == nil {
			g.log.Warn("dashboard load failed", map[string]any{"user_id": claims.UserID, "error": err})
		}
		g.navigateLogin(gen, "load_failed")
		return
	}
	g.deliver(gen, snap)
}

func (g *ClientGuard) load(ctx context.Context, claims auth.Claims) (Snapshot, error) {
	snap := Snapshot{Claims: claims}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		p, err := g.loader.Profile(ctx, claims)
		snap.Profile = p
		return err
	})
	eg.Go(func() error {
		ps, err := g.loader.Pets(ctx, claims.UserID)
		snap.Pets = ps
		return err
	})
	eg.Go(func() error {
		n, err := g.loader.ReportCount(ctx, claims.UserID)
		snap.ReportCount = n
		return err
	})
	if err := eg.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (g *ClientGuard) onSessionEvent(gen uint64, ev auth.Event) {
	if ev.Type != auth.EventSignedOut {
		return
	}
	g.mu.Lock()
	uid := g.userID
	g.mu.Unlock()
	// el hub es de todo el proceso: solo cuenta el sign-out de este usuario
	if uid == "" || ev.UserID != uid {
		return
	}
	g.navigateLogin(gen, "signed_out")
}

// expire es el fail-safe: si la carga no terminó a tiempo, al login.
func (g *ClientGuard) expire(gen uint64) {
	g.navigateLogin(gen, "timeout")
}

// navigateLogin y deliver corren con el lock tomado: así Unmount no puede
// colarse entre el chequeo de generación y la llamada.
func (g *ClientGuard) navigateLogin(gen uint64, reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.gen != gen || !g.mounted || g.navigated {
		return
	}
	if reason == "timeout" && g.loaded {
		return
	}
	g.navigated = true
	if g.timer != nil {
		g.timer.Stop()
	}
	if g.cancel != nil {
		g.cancel()
	}

	metrics.GuardDecisions.WithLabelValues("client", "redirect_login").Inc()
	if g.debug {
		g.log.Debug("client guard navigating to login", map[string]any{"reason": reason, "user_id": g.userID})
	}
	g.nav.Navigate(g.loginPath)
}

func (g *ClientGuard) deliver(gen uint64, snap Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.gen != gen || !g.mounted || g.navigated {
		return
	}
	g.loaded = true
	if g.timer != nil {
		g.timer.Stop()
	}

	metrics.GuardDecisions.WithLabelValues("client", "continue").Inc()
	g.onReady(snap)
}
