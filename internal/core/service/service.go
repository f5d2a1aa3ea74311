package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/recommend"
	"github.com/niksmo/storefront/internal/core/search"
)

var _ port.ProductSearcher = (*Service)(nil)
var _ port.ProductRecommender = (*Service)(nil)
var _ port.ViewTracker = (*Service)(nil)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrUsernameRequired = errors.New("username is required")
)

// MaxLimit caps every result size a caller can ask for.
const MaxLimit = 50

// Limits are the result sizes used when a caller passes a limit <= 0.
type Limits struct {
	Suggest        int
	Similar        int
	Recommend      int
	BoughtTogether int
}

var defaultLimits = Limits{
	Suggest:        5,
	Similar:        4,
	Recommend:      6,
	BoughtTogether: 4,
}

// Deps are the driven ports of the service. ActivityProc is optional.
type Deps struct {
	Products     port.ProductsReader
	Orders       port.OrdersReader
	Activity     port.ActivityReader
	Viewed       port.ViewedProductsReader
	Views        port.ProductViewsProducer
	Searches     port.SearchQueriesProducer
	ActivityProc port.ActivityProcessor
}

type Opt func(*Service)

func WithLimits(l Limits) Opt {
	return func(s *Service) {
		if l.Suggest > 0 {
			s.limits.Suggest = l.Suggest
		}
		if l.Similar > 0 {
			s.limits.Similar = l.Similar
		}
		if l.Recommend > 0 {
			s.limits.Recommend = l.Recommend
		}
		if l.BoughtTogether > 0 {
			s.limits.BoughtTogether = l.BoughtTogether
		}
	}
}

func WithClock(now func() time.Time) Opt {
	return func(s *Service) {
		s.now = now
	}
}

func WithEventIDFunc(fn func() string) Opt {
	return func(s *Service) {
		s.newEventID = fn
	}
}

type Service struct {
	products     port.ProductsReader
	orders       port.OrdersReader
	activity     port.ActivityReader
	viewed       port.ViewedProductsReader
	views        port.ProductViewsProducer
	searches     port.SearchQueriesProducer
	activityProc port.ActivityProcessor

	engine     search.Engine
	limits     Limits
	now        func() time.Time
	newEventID func() string
}

func New(deps Deps, opts ...Opt) Service {
	s := Service{
		products:     deps.Products,
		orders:       deps.Orders,
		activity:     deps.Activity,
		viewed:       deps.Viewed,
		views:        deps.Views,
		searches:     deps.Searches,
		activityProc: deps.ActivityProc,
		limits:       defaultLimits,
		now:          time.Now,
		newEventID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.engine = search.NewEngine(search.WithClock(s.now))
	return s
}

// Run runs the background components in separate goroutines.
//
// Blocks current goroutine while components is preparing to ready state.
func (s Service) Run(ctx context.Context, stopFn context.CancelFunc) {
	if s.activityProc == nil {
		return
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go s.activityProc.Run(ctx, stopFn, &wg)
	wg.Wait()
}

func (s Service) Close() {
	if s.activityProc != nil {
		s.activityProc.Close()
	}
}

// Search returns the catalog products matching opts, best first.
//
// Exact-match filters are pushed down to the products reader. A non-empty
// query is published as a search event; publishing failures are only logged.
func (s Service) Search(
	ctx context.Context, username string, opts domain.SearchOptions,
) ([]domain.Product, error) {
	const op = "Service.Search"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	catalog, err := s.products.ListProducts(ctx, domain.ProductQuery{
		Gender:     opts.Gender,
		Category:   opts.Category,
		Featured:   opts.Featured,
		BestSeller: opts.BestSeller,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := s.engine.Search(catalog, opts)

	if q := strings.TrimSpace(opts.Query); q != "" {
		s.publishSearch(ctx, username, q, len(res))
	}
	return res, nil
}

func (s Service) publishSearch(
	ctx context.Context, username, query string, results int,
) {
	const op = "Service.publishSearch"
	log := slog.With("op", op)

	if s.searches == nil {
		return
	}

	err := s.searches.ProduceSearchQuery(ctx, domain.SearchQuery{
		EventID:    s.newEventID(),
		Username:   username,
		Query:      query,
		Results:    results,
		SearchedAt: s.now(),
	})
	if err != nil {
		log.Warn("failed to publish search query", "err", err)
	}
}

func (s Service) Suggest(
	ctx context.Context, partial string, limit int,
) ([]string, error) {
	const op = "Service.Suggest"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	catalog, err := s.products.ListProducts(ctx, domain.ProductQuery{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return search.Suggest(
		catalog, partial, effectiveLimit(limit, s.limits.Suggest),
	), nil
}

func (s Service) Similar(
	ctx context.Context, productID string, limit int,
) ([]domain.Product, error) {
	const op = "Service.Similar"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ref, err := s.readProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	catalog, err := s.products.ListProducts(ctx, domain.ProductQuery{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return recommend.Similar(
		ref, catalog, effectiveLimit(limit, s.limits.Similar),
	), nil
}

func (s Service) BoughtTogether(
	ctx context.Context, productID string, limit int,
) ([]domain.Product, error) {
	const op = "Service.BoughtTogether"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.readProduct(ctx, productID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders, err := s.orders.OrdersWithProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	catalog, err := s.products.ListProducts(ctx, domain.ProductQuery{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return recommend.FrequentlyBoughtWith(
		productID, orders, catalog,
		effectiveLimit(limit, s.limits.BoughtTogether),
	), nil
}

// Recommend ranks the catalog for the requesting user.
//
// An anonymous request is scored on its explicit preferences only.
// When the viewed-products view is unavailable the user is scored
// without views.
func (s Service) Recommend(
	ctx context.Context, req domain.RecommendRequest,
) ([]domain.Product, error) {
	const op = "Service.Recommend"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	activity, err := s.userActivity(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	catalog, err := s.products.ListProducts(ctx, domain.ProductQuery{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	activity = recommend.InferPreferences(catalog, activity)
	return recommend.Personalized(
		catalog, activity, req.ExcludeID,
		effectiveLimit(req.Limit, s.limits.Recommend),
	), nil
}

func (s Service) userActivity(
	ctx context.Context, req domain.RecommendRequest,
) (domain.UserActivity, error) {
	const op = "Service.userActivity"
	log := slog.With("op", op)

	a := domain.UserActivity{
		Categories: req.Categories,
		Colors:     req.Colors,
	}
	if req.Username == "" {
		return a, nil
	}

	if s.viewed != nil {
		viewed, err := s.viewed.ViewedProducts(ctx, req.Username)
		if err != nil {
			log.Warn("viewed products are unavailable", "err", err)
		}
		a.ViewedProducts = viewed
	}

	wishlist, err := s.activity.WishlistItems(ctx, req.Username)
	if err != nil {
		return domain.UserActivity{}, fmt.Errorf("%s: %w", op, err)
	}
	a.WishlistItems = wishlist

	purchased, err := s.activity.PurchasedProducts(ctx, req.Username)
	if err != nil {
		return domain.UserActivity{}, fmt.Errorf("%s: %w", op, err)
	}
	a.PurchasedProducts = purchased

	return a, nil
}

// TrackView publishes a product view of a known product.
func (s Service) TrackView(
	ctx context.Context, username, productID string,
) error {
	const op = "Service.TrackView"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%s: %w", op, ErrUsernameRequired)
	}

	if _, err := s.readProduct(ctx, productID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.views.ProduceView(ctx, domain.ProductView{
		EventID:   s.newEventID(),
		Username:  username,
		ProductID: productID,
		ViewedAt:  s.now(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s Service) readProduct(
	ctx context.Context, productID string,
) (domain.Product, error) {
	p, err := s.products.ReadProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return domain.Product{}, ErrProductNotFound
		}
		return domain.Product{}, err
	}
	return p, nil
}

func effectiveLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	return min(limit, MaxLimit)
}
