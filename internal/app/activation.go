package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vidyasagar/pagenav/internal/builder"
	"github.com/vidyasagar/pagenav/internal/pages"
	"github.com/vidyasagar/pagenav/internal/routing"
	"github.com/vidyasagar/pagenav/internal/storage"
)

// activation is the per-load state carried in RouteContext.Services.
type activation struct {
	tab   int
	width int
	page  *pages.RenderedPage // set by the final handler
}

// newActivation composes the chain that runs whenever a page becomes current:
// logging, then visit recording (when enabled), then loading from src.
func newActivation(src *pages.Source, visits *storage.VisitLog, log *zap.Logger) builder.HandlerFunc {
	b := builder.New().Use(logActivation(log))
	if visits != nil {
		b.UseFunc(recordVisit(visits, log))
	}
	return b.Build(loadPage(src))
}

func logActivation(log *zap.Logger) builder.Middleware {
	return func(next builder.HandlerFunc) builder.HandlerFunc {
		return func(ctx context.Context, rc *routing.RouteContext) error {
			start := time.Now()
			err := next(ctx, rc)

			fields := []zap.Field{
				zap.Stringer("page", rc.Page),
				zap.Duration("took", time.Since(start)),
			}
			if act, ok := rc.Services.(*activation); ok {
				fields = append(fields, zap.Int("tab", act.tab))
			}
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Warn("page activation failed", append(fields, zap.Error(err))...)
				}
				return err
			}
			log.Debug("page activated", append(fields, zap.String("title", rc.Title))...)
			return nil
		}
	}
}

func recordVisit(visits *storage.VisitLog, log *zap.Logger) func(context.Context, *routing.RouteContext, func() error) error {
	return func(ctx context.Context, rc *routing.RouteContext, next func() error) error {
		if err := next(); err != nil {
			return err
		}
		if err := visits.Record(ctx, rc.Page.Name, rc.Title); err != nil {
			log.Warn("recording visit", zap.Stringer("page", rc.Page), zap.Error(err))
		}
		return nil
	}
}

func loadPage(src *pages.Source) builder.HandlerFunc {
	return func(ctx context.Context, rc *routing.RouteContext) error {
		act, ok := rc.Services.(*activation)
		if !ok {
			return errors.New("page activation without load state")
		}
		page, err := src.Load(ctx, rc.Page, act.width)
		if err != nil {
			return err
		}
		act.page = page
		rc.Title = page.Title
		return nil
	}
}
