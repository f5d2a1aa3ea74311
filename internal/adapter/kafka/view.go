package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
)

var _ port.ViewedProductsReader = (*ActivityView)(nil)

// An ActivityViewConfig used for setup [ActivityView].
//
// All fields are required.
type ActivityViewConfig struct {
	SeedBrokers []string
	Group       string
	TableSerde  Serde
}

// An ActivityView serves the activity group table from a local copy.
type ActivityView struct {
	gv *goka.View
}

func NewActivityView(
	config ActivityViewConfig, opts ...goka.ViewOption,
) (ActivityView, error) {
	const op = "NewActivityView"

	opts = append([]goka.ViewOption{withNonlogViewOpt()}, opts...)
	gv, err := goka.NewView(
		config.SeedBrokers,
		goka.GroupTable(goka.Group(config.Group)),
		viewedProductsCodec{config.TableSerde},
		opts...,
	)
	if err != nil {
		return ActivityView{}, opErr(err, op)
	}

	return ActivityView{gv}, nil
}

// Run blocks until ctx is done or the view fails.
func (v ActivityView) Run(ctx context.Context) {
	const op = "ActivityView.Run"
	log := slog.With("op", op)

	log.Info("running")
	err := v.gv.Run(ctx)
	if err != nil {
		log.Error("unexpected fail on run", "err", err)
		return
	}
	log.Info("stopped")
}

// ViewedProducts returns the products the user viewed, oldest first.
// An unknown user has no views.
func (v ActivityView) ViewedProducts(
	ctx context.Context, username string,
) ([]string, error) {
	const op = "ActivityView.ViewedProducts"

	if err := ctx.Err(); err != nil {
		return nil, opErr(err, op)
	}

	value, err := v.gv.Get(username)
	if err != nil {
		return nil, opErr(err, op)
	}

	ids, err := viewedIDs(value)
	if err != nil {
		return nil, opErr(err, op)
	}
	return ids, nil
}

// viewedIDs converts a group table value, nil is an empty history.
func viewedIDs(value any) ([]string, error) {
	if value == nil {
		return []string{}, nil
	}

	viewed, ok := value.(schema.ViewedProductsV1)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidValueType, value)
	}
	if viewed.ProductIDs == nil {
		return []string{}, nil
	}
	return slices.Clone(viewed.ProductIDs), nil
}
