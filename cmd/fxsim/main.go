package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/chewxy/math32"
	"github.com/gdamore/tcell/v2"
	"github.com/gekko3d/gekkofx"
	"github.com/gekko3d/gekkofx/sim/emitter"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

var (
	// Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "fxsim_info",
		Help:        "fxsim information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// Keeps config field names readable when the binary is obfuscated.
var _ = reflect.TypeOf(config{})

type config struct {
	Preset      string        `cli:""        env:"FXSIM_PRESET"       help:"Preset file (json|yaml|toml) the emitters are built from."`
	PresetDir   string        `cli:""        env:"FXSIM_PRESET_DIR"   help:"Directory of presets loaded into the library."`
	Watch       bool          `cli:""        env:"FXSIM_WATCH"        help:"Reload presets from the preset directory when they change."`
	Emitters    int           `cli:""        env:"FXSIM_EMITTERS"     help:"Number of emitters placed on a ring."`
	Radius      int           `cli:""        env:"FXSIM_RADIUS"       help:"Radius of the emitter ring."`
	Orbit       time.Duration `cli:""        env:"FXSIM_ORBIT"        help:"Time for the ring to turn once, 0 keeps it still."`
	Frames      int           `cli:""        env:"FXSIM_FRAMES"       help:"Frames to simulate, 0 runs until interrupted."`
	Step        time.Duration `cli:""        env:"FXSIM_STEP"         help:"Fixed simulation step, 0 uses the wall clock."`
	Seed        int           `cli:""        env:"FXSIM_SEED"         help:"Seed of the first emitter; the others follow it."`
	Parallel    bool          `cli:""        env:"FXSIM_PARALLEL"     help:"Step emitters on separate goroutines."`
	View        bool          `cli:""        env:"FXSIM_VIEW"         help:"Draw particles in the terminal."`
	MetricsAddr string        `cli:""        env:"FXSIM_METRICS_ADDR" help:"Listening address for Prometheus metrics, empty disables them."`
	LogLevel    string        `cli:""        env:"FXSIM_LOG_LEVEL"    help:"Log level (debug|info|warning|error)."`
	LogIndent   bool          `cli:""        env:"FXSIM_LOG_INDENT"   help:"Indent logs."`
	RebuildTree int           `cli:",hidden" env:"FXSIM_REBUILD_TREE" help:"Frames between full rebuilds of the dynamic AABB tree."`
	Version     bool          `cli:""        env:"-"                  help:"Show version."`
	Help        bool          `cli:""        env:"-"                  help:"Show help."`
}

func main() {
	conf := config{
		Emitters:    4,
		Radius:      8,
		Orbit:       time.Second * 6,
		Frames:      300,
		Step:        time.Millisecond * 16,
		Seed:        1,
		LogLevel:    logs.InfoLevel.String(),
		RebuildTree: 120,
	}

	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Runs particle emitters headless or in the terminal.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal

	var wg sync.WaitGroup
	if conf.MetricsAddr != "" {
		var admin http.ServeMux
		admin.Handle("/metrics", promhttp.Handler())
		serve(ctx, &wg, &http.Server{Addr: conf.MetricsAddr, Handler: &admin})
	}

	var log gekkofx.Logger = newToolingLogger(conf.LogLevel == "debug")
	modules := []gekkofx.Module{
		gekkofx.TimeModule{FixedStep: conf.Step},
	}

	var screen tcell.Screen
	if conf.View {
		s, err := tcell.NewScreen()
		if err != nil {
			logs.Fatal(errors.New("creating terminal screen failed").Wrap(err))
		}
		if err := s.Init(); err != nil {
			logs.Fatal(errors.New("initializing terminal screen failed").Wrap(err))
		}
		screen = s
		// log lines would tear the drawing
		log = gekkofx.NewNopLogger()
		go pollKeys(screen, cancel)
	}

	lib := gekkofx.NewEmitterLibrary()
	modules = append(modules,
		gekkofx.LoggingModule{Logger: log},
		orbitModule{Period: conf.Orbit},
		gekkofx.HierarchyModule{},
		gekkofx.ParticlesModule{Parallel: conf.Parallel},
		gekkofx.SpatialModule{RebuildEvery: conf.RebuildTree},
		gekkofx.LifecycleModule{},
		gekkofx.PresetModule{Dir: conf.PresetDir, Watch: conf.Watch, Library: lib},
		gekkofx.MetricsModule{},
	)
	if screen != nil {
		modules = append(modules, gekkofx.TerminalViewModule{
			Screen: screen,
			Scale:  1,
		})
	}
	app := gekkofx.NewApp().UseModules(modules...)

	id, err := pickPreset(lib, conf.Preset)
	if err != nil {
		if screen != nil {
			screen.Fini()
		}
		logs.Fatal(err)
	}
	spawnRing(app.Commands(), lib, id, conf)

	pace := time.Duration(0)
	if screen != nil || conf.Frames == 0 {
		pace = conf.Step
		if pace <= 0 {
			pace = time.Millisecond * 16
		}
	}

	start := time.Now()
	frames := run(ctx, app, conf.Frames, pace)
	if screen != nil {
		screen.Fini()
	}
	cancel()

	if err := app.Close(); err != nil {
		logs.Warn(errors.New("closing resources failed").Wrap(err))
	}
	wg.Wait()

	summary(app, frames, time.Since(start))
}

func validateConfig(conf config) error {
	if conf.Emitters <= 0 {
		return errors.New("at least one emitter is required").
			WithTag("emitters", conf.Emitters)
	}
	if conf.Step < 0 {
		return errors.New("step must not be negative").
			WithTag("step", conf.Step)
	}
	if conf.Frames < 0 {
		return errors.New("frames must not be negative").
			WithTag("frames", conf.Frames)
	}
	if conf.Watch && conf.PresetDir == "" {
		return errors.New("watching presets requires a preset directory")
	}
	return nil
}

// pickPreset returns the library id the emitters are built from: the given
// file, else the first preset of the library, else the default configuration.
func pickPreset(lib *gekkofx.EmitterLibrary, path string) (gekkofx.AssetId, error) {
	if path != "" {
		id, err := lib.LoadFile(path)
		if err != nil {
			return "", errors.New("loading preset failed").
				WithTag("path", path).
				Wrap(err)
		}
		return id, nil
	}
	if names := lib.Names(); len(names) != 0 {
		p, _ := lib.ByName(names[0])
		return p.ID, nil
	}
	return lib.Add(gekkofx.PresetFromConfig("default", emitter.DefaultConfig())), nil
}

// pivot marks the root entity the emitter ring hangs from.
type pivot struct{}

func spawnRing(cmd *gekkofx.Commands, lib *gekkofx.EmitterLibrary, id gekkofx.AssetId, conf config) {
	p, _ := lib.Get(id)
	root := gekkofx.NewTransform(mgl32.Vec3{})
	pivotId := cmd.AddEntity(pivot{}, &root, &gekkofx.LocalTransformComponent{})

	for i := 0; i < conf.Emitters; i++ {
		angle := 2 * math32.Pi * float32(i) / float32(conf.Emitters)
		offset := mgl32.Vec3{math32.Cos(angle), 0, math32.Sin(angle)}.Mul(float32(conf.Radius))

		em := gekkofx.NewParticleEmitterComponent(p.Config(), uint64(conf.Seed+i))
		em.Preset = id
		world := gekkofx.NewTransform(offset)
		cmd.AddEntity(em, &world,
			&gekkofx.LocalTransformComponent{
				Position: offset,
				Rotation: mgl32.QuatIdent(),
				Scale:    mgl32.Vec3{1, 1, 1},
			},
			&gekkofx.Parent{Entity: pivotId},
		)
	}

	logs.WithTag("preset", p.Name).
		WithTag("emitters", conf.Emitters).
		WithTag("radius", conf.Radius).
		Info("spawned emitter ring")
}

// orbitModule turns the pivot about Y once per Period.
type orbitModule struct {
	Period time.Duration
}

func (m orbitModule) Install(app *gekkofx.App, cmd *gekkofx.Commands) {
	if m.Period <= 0 {
		return
	}
	app.UseSystem(
		gekkofx.System(func(t *gekkofx.Time, cmd *gekkofx.Commands) {
			angle := 2 * math32.Pi * float32(t.Elapsed.Seconds()/m.Period.Seconds())
			gekkofx.MakeQuery2[pivot, gekkofx.TransformComponent](cmd).Map(func(eid gekkofx.EntityId, _ *pivot, tr *gekkofx.TransformComponent) bool {
				tr.Rotation = mgl32.QuatRotate(angle, mgl32.Vec3{0, 1, 0})
				return true
			})
		}).InStage(gekkofx.PreUpdate),
	)
}

func run(ctx context.Context, app *gekkofx.App, frames int, pace time.Duration) int {
	var tick <-chan time.Time
	if pace > 0 {
		ticker := time.NewTicker(pace)
		defer ticker.Stop()
		tick = ticker.C
	}

	n := 0
	for (frames == 0 || n < frames) && ctx.Err() == nil {
		if app.RunFrames(1) == 0 {
			break
		}
		n++
		if tick != nil {
			select {
			case <-ctx.Done():
			case <-tick:
			}
		}
	}
	return n
}

func pollKeys(screen tcell.Screen, cancel context.CancelFunc) {
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				cancel()
				return
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}

func serve(ctx context.Context, wg *sync.WaitGroup, s *http.Server) {
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(context.Background()); err != nil {
			logs.Warn(errors.Newf("shutting down the server failed").
				WithTag("addr", s.Addr).
				Wrap(err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logs.WithTag("addr", s.Addr).Info("starting metrics server")

		switch err := s.ListenAndServe(); err {
		case nil, http.ErrServerClosed:
			logs.WithTag("addr", s.Addr).Info("stopping metrics server")
		default:
			logs.Warn(errors.Newf("metrics server stopped").
				WithTag("addr", s.Addr).
				Wrap(err))
		}
	}()
}

func summary(app *gekkofx.App, frames int, elapsed time.Duration) {
	var stats emitter.Stats
	emitters := 0
	cmd := app.Commands()
	gekkofx.MakeQuery1[gekkofx.ParticleEmitterComponent](cmd).Map(func(eid gekkofx.EntityId, em *gekkofx.ParticleEmitterComponent) bool {
		s := em.Emitter.Stats()
		stats.Spawned += s.Spawned
		stats.Expired += s.Expired
		stats.Killed += s.Killed
		stats.Collisions += s.Collisions
		emitters++
		return true
	})

	packed := 0
	if frame, ok := gekkofx.Resource[gekkofx.ParticleFrame](app); ok {
		packed = len(frame.Instances)
	}

	logs.WithTag("frames", frames).
		WithTag("elapsed", elapsed.String()).
		WithTag("emitters", emitters).
		WithTag("particles", packed).
		WithTag("spawned", stats.Spawned).
		WithTag("expired", stats.Expired).
		WithTag("killed", stats.Killed).
		WithTag("collisions", stats.Collisions).
		Info("simulation finished")
}

// toolingLogger sends simulation logs through the structured logger.
type toolingLogger struct {
	debug atomic.Bool
}

func newToolingLogger(debug bool) *toolingLogger {
	l := &toolingLogger{}
	l.debug.Store(debug)
	return l
}

func (l *toolingLogger) DebugEnabled() bool {
	return l.debug.Load()
}

func (l *toolingLogger) SetDebug(enabled bool) {
	l.debug.Store(enabled)
	if enabled {
		logs.SetLevel(logs.ParseLevel("debug"))
	} else {
		logs.SetLevel(logs.InfoLevel)
	}
}

func (l *toolingLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	logs.WithTag("module", "gekkofx").Debug(errors.Newf(format, args...))
}

func (l *toolingLogger) Infof(format string, args ...any) {
	logs.WithTag("module", "gekkofx").Info(fmt.Sprintf(format, args...))
}

func (l *toolingLogger) Warnf(format string, args ...any) {
	logs.Warn(errors.Newf(format, args...).WithTag("module", "gekkofx"))
}

func (l *toolingLogger) Errorf(format string, args ...any) {
	logs.Warn(errors.Newf(format, args...).
		WithTag("module", "gekkofx").
		WithTag("severity", "error"))
}
