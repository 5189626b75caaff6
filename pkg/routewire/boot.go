package routewire

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/toyz/routewire/internal/cache"
	"github.com/toyz/routewire/internal/errors"
	"github.com/toyz/routewire/internal/metadata"
	"github.com/toyz/routewire/internal/scanner"
	"github.com/toyz/routewire/internal/utils"
	"github.com/toyz/routewire/internal/wiring"
	"github.com/toyz/routewire/pkg/container"
	"github.com/toyz/routewire/pkg/web"
)

// URLGeneratorKey is the container key the router is exposed under, for
// controllers that build links with @DI(serviceIds={"url_generator"}).
const URLGeneratorKey = "url_generator"

// Result summarizes a boot
type Result struct {
	// Classes are the controllers that were wired
	Classes []metadata.ClassInfo
	// Routes is the number of annotated routes mounted, not counting the
	// shortened variants of trailing defaulted variables
	Routes int
	// FromCache is set when metadata came from an existing snapshot
	FromCache bool
}

// Boot discovers annotated controllers, or replays them from the snapshot
// cache, and wires them: every controller becomes a shared service in c and
// its routes are mounted on router. router must resolve handlers from c.
// Any error aborts the boot; routes mounted before the error stay mounted.
func Boot(ctx context.Context, cfg Config, reg *Registry, c *container.Container, router *web.Router, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	ctx, span := o.tracer.Start(ctx, "routewire.boot")
	defer span.End()

	res, err := boot(ctx, cfg, reg, c, router, o, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("routewire.classes", len(res.Classes)),
		attribute.Int("routewire.routes", res.Routes),
	)
	return res, nil
}

func boot(ctx context.Context, cfg Config, reg *Registry, c *container.Container, router *web.Router, o *options, span trace.Span) (*Result, error) {
	switch {
	case reg == nil:
		return nil, errors.ConfigurationError("registry", "a type registry is required")
	case c == nil:
		return nil, errors.ConfigurationError("container", "a service container is required")
	case router == nil:
		return nil, errors.ConfigurationError("router", "a router is required")
	case router.Container() != c:
		return nil, errors.ConfigurationError("router", "router resolves handlers from a different container")
	}

	source, static := o.reader.(metadata.DeclarationSource)
	if err := cfg.validate(!static); err != nil {
		return nil, err
	}

	level := utils.DiagnosticWarn
	if cfg.Verbose {
		level = utils.DiagnosticVerbose
	}
	diag := utils.NewWriterDiagnostics(level, o.out)

	var snapshots *cache.Controller
	if cfg.CacheDirectory != "" {
		snapshots = cache.New(cfg.CacheDirectory)
	}
	fresh := snapshots != nil && snapshots.IsFresh(cfg.Debug)
	span.SetAttributes(attribute.Bool("routewire.cache.fresh", fresh))

	var classes []metadata.ClassInfo
	if !fresh {
		walker := metadata.NewWalker(scanner.New(diag), o.reader, reg, diag).
			WithCallables(web.CallableChain{reg, router.Callables()})
		discovered, err := discover(ctx, o, walker, cfg.Paths, source)
		if err != nil {
			return nil, err
		}
		diag.Verbose("Discovered %d controllers", len(discovered))
		classes = discovered

		if snapshots != nil {
			if err := snapshots.Update(discovered); err != nil {
				return nil, err
			}
			diag.Verbose("Wrote controller cache %s", snapshots.File())
		}
	}

	if snapshots != nil {
		snap, err := snapshots.Load()
		if err != nil {
			return nil, err
		}
		if fresh {
			diag.Verbose("Loaded %d controllers from %s (generated %s)", len(snap.Classes), snapshots.File(), snap.Generated)
		}
		classes = snap.Classes
	}

	classes = registered(classes, reg, diag)

	if !c.Has(URLGeneratorKey) {
		c.Set(URLGeneratorKey, router)
	}
	if !hasCallables(router.Callables(), reg) {
		router.AddCallables(reg)
	}

	_, wireSpan := o.tracer.Start(ctx, "routewire.wire")
	defer wireSpan.End()

	if err := wiring.Services(classes, reg, c); err != nil {
		wireSpan.RecordError(err)
		return nil, err
	}
	routes, err := wiring.Routes(classes, router, c)
	if err != nil {
		wireSpan.RecordError(err)
		return nil, err
	}
	diag.Verbose("Mounted %d routes from %d controllers", routes, len(classes))

	return &Result{Classes: classes, Routes: routes, FromCache: fresh}, nil
}

func discover(ctx context.Context, o *options, walker *metadata.Walker, paths []string, source metadata.DeclarationSource) ([]metadata.ClassInfo, error) {
	ctx, span := o.tracer.Start(ctx, "routewire.discover")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("routewire.paths", paths))

	var (
		classes []metadata.ClassInfo
		err     error
	)
	if len(paths) == 0 && source != nil {
		classes, err = walker.WalkDeclarations(source.Declarations())
	} else {
		classes, err = walker.Walk(ctx, paths)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return classes, nil
}

// registered drops snapshot classes whose type is not in reg; a snapshot can
// outlive the types it was generated for.
func registered(classes []metadata.ClassInfo, reg *Registry, diag *utils.DiagnosticSystem) []metadata.ClassInfo {
	kept := classes[:0:0]
	for _, class := range classes {
		if !reg.Has(class.Name) {
			diag.Warn("Skipping controller %s: type is not registered", class.Name)
			continue
		}
		kept = append(kept, class)
	}
	return kept
}

func hasCallables(cs web.Callables, reg *Registry) bool {
	switch v := cs.(type) {
	case *Registry:
		return v == reg
	case web.CallableChain:
		for _, c := range v {
			if hasCallables(c, reg) {
				return true
			}
		}
	}
	return false
}
