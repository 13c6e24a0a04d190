package guide

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	domain "guias/internal/domain/guide"
	"guias/internal/errs"
	"guias/internal/ports"
)

const (
	defaultDuplicateWindow = 10 * time.Minute
	defaultAuthCodeTTL     = 15 * time.Minute
)

var errContextRequired = errors.New("context is required")

type Dependencies struct {
	Stores  ports.StageStores
	Legacy  ports.LegacyEntrySource
	Query   ports.GuideQueryRepository
	Cache   ports.Cache
	UOW     ports.UnitOfWork
	Metrics ports.GuideMetrics
}

type Options struct {
	DisplayLocation *time.Location
	DuplicateWindow time.Duration
	AuthCodeTTL     time.Duration
	Now             func() time.Time
}

// Service is the guide aggregation engine: it resolves consolidated guides and records stage data.
// It keeps no state between calls; every resolution re-reads the stores.
type Service struct {
	stores   ports.StageStores
	legacy   ports.LegacyEntrySource
	query    ports.GuideQueryRepository
	cache    ports.Cache
	uow      ports.UnitOfWork
	metrics  ports.GuideMetrics
	conv     domain.Converter
	validate *validator.Validate

	duplicateWindow time.Duration
	authCodeTTL     time.Duration
	now             func() time.Time
}

func NewService(deps Dependencies, opts Options) *Service {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = ports.NopGuideMetrics{}
	}
	loc := opts.DisplayLocation
	if loc == nil {
		loc = domain.LoadDisplayLocation("")
	}
	window := opts.DuplicateWindow
	if window <= 0 {
		window = defaultDuplicateWindow
	}
	ttl := opts.AuthCodeTTL
	if ttl <= 0 {
		ttl = defaultAuthCodeTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		stores:          deps.Stores,
		legacy:          deps.Legacy,
		query:           deps.Query,
		cache:           deps.Cache,
		uow:             deps.UOW,
		metrics:         metrics,
		conv:            domain.NewConverter(loc),
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		duplicateWindow: window,
		authCodeTTL:     ttl,
		now:             now,
	}
}

// Converter exposes the display-timezone converter used by the service.
func (s *Service) Converter() domain.Converter {
	return s.conv
}

func checkContext(ctx context.Context) error {
	if ctx == nil {
		return errContextRequired
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	return nil
}

func (s *Service) nowUTC() string {
	return domain.FormatUTC(s.now())
}

// withTx runs fn in a transaction when a unit of work is wired, otherwise directly.
func (s *Service) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.uow == nil {
		return fn(ctx)
	}
	return s.uow.WithTx(ctx, fn)
}
