package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
)

// GET v1/products/search?q&category&gender&min_price&max_price&colors&sizes&featured&best_seller&username (200 OK, 400 Bad request)
// GET v1/products/suggestions?q&limit (200 OK, 400 Bad request)
// POST v1/products/{id}/views JSON {"username": string} (202 Accepted, 400 Bad request, 404 Not found)

var errInvalidParam = errors.New("invalid query parameter")

type ProductsHandler struct {
	searcher port.ProductSearcher
	tracker  port.ViewTracker
}

func RegisterProducts(
	mux *http.ServeMux, searcher port.ProductSearcher, tracker port.ViewTracker,
) {
	h := ProductsHandler{searcher, tracker}
	mux.HandleFunc("GET /v1/products/search", h.GetSearch)
	mux.HandleFunc("GET /v1/products/suggestions", h.GetSuggestions)
	mux.HandleFunc("POST /v1/products/{id}/views", h.PostView)
}

func (h ProductsHandler) GetSearch(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetSearch"
	log := slog.With("op", op)

	q := r.URL.Query()
	opts, err := searchOptions(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Warn("failed to parse query", "err", err)
		return
	}

	ps, err := h.searcher.Search(r.Context(), q.Get("username"), opts)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, fromDomain(ps))
}

func (h ProductsHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetSuggestions"
	log := slog.With("op", op)

	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Warn("failed to parse limit", "err", err)
		return
	}

	suggestions, err := h.searcher.Suggest(r.Context(), q.Get("q"), limit)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}

	writeJSON(w, log, http.StatusOK, SuggestionsResponse{suggestions})
}

func (h ProductsHandler) PostView(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.PostView"
	log := slog.With("op", op)

	var req ViewRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	productID := r.PathValue("id")
	err = h.tracker.TrackView(r.Context(), req.Username, productID)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	if _, err = w.Write([]byte("Accepted")); err != nil {
		log.Error("failed to write response body", "err", err)
		return
	}

	log.Info("accepted", "productID", productID)
}

// GET v1/products/{id}/similar?limit (200 OK, 400 Bad request, 404 Not found)
// GET v1/products/{id}/bought-together?limit (200 OK, 400 Bad request, 404 Not found)
// GET v1/recommendations?username&exclude&categories&colors&limit (200 OK, 400 Bad request)

type RecommendationsHandler struct {
	recommender port.ProductRecommender
}

func RegisterRecommendations(
	mux *http.ServeMux, recommender port.ProductRecommender,
) {
	h := RecommendationsHandler{recommender}
	mux.HandleFunc("GET /v1/products/{id}/similar", h.GetSimilar)
	mux.HandleFunc("GET /v1/products/{id}/bought-together", h.GetBoughtTogether)
	mux.HandleFunc("GET /v1/recommendations", h.GetRecommendations)
}

func (h RecommendationsHandler) GetSimilar(w http.ResponseWriter, r *http.Request) {
	const op = "RecommendationsHandler.GetSimilar"
	h.byProduct(w, r, op, h.recommender.Similar)
}

func (h RecommendationsHandler) GetBoughtTogether(
	w http.ResponseWriter, r *http.Request,
) {
	const op = "RecommendationsHandler.GetBoughtTogether"
	h.byProduct(w, r, op, h.recommender.BoughtTogether)
}

type byProductFunc func(
	ctx context.Context, productID string, limit int,
) ([]domain.Product, error)

func (h RecommendationsHandler) byProduct(
	w http.ResponseWriter, r *http.Request, op string, fn byProductFunc,
) {
	log := slog.With("op", op)

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Warn("failed to parse limit", "err", err)
		return
	}

	ps, err := fn(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, fromDomain(ps))
}

func (h RecommendationsHandler) GetRecommendations(
	w http.ResponseWriter, r *http.Request,
) {
	const op = "RecommendationsHandler.GetRecommendations"
	log := slog.With("op", op)

	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Warn("failed to parse limit", "err", err)
		return
	}

	ps, err := h.recommender.Recommend(r.Context(), domain.RecommendRequest{
		Username:   strings.TrimSpace(q.Get("username")),
		ExcludeID:  q.Get("exclude"),
		Categories: splitList(q["categories"]),
		Colors:     splitList(q["colors"]),
		Limit:      limit,
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, fromDomain(ps))
}

func searchOptions(q url.Values) (domain.SearchOptions, error) {
	opts := domain.SearchOptions{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Colors:   splitList(q["colors"]),
		Sizes:    splitList(q["sizes"]),
	}

	if g := q.Get("gender"); g != "" {
		opts.Gender = domain.Gender(strings.ToUpper(g))
		if !opts.Gender.Valid() {
			return domain.SearchOptions{}, fmt.Errorf("%w: gender", errInvalidParam)
		}
	}

	var err error
	if opts.MinPrice, err = parseFloat(q, "min_price"); err != nil {
		return domain.SearchOptions{}, err
	}
	if opts.MaxPrice, err = parseFloat(q, "max_price"); err != nil {
		return domain.SearchOptions{}, err
	}
	if opts.Featured, err = parseBool(q, "featured"); err != nil {
		return domain.SearchOptions{}, err
	}
	if opts.BestSeller, err = parseBool(q, "best_seller"); err != nil {
		return domain.SearchOptions{}, err
	}
	return opts, nil
}

func parseFloat(q url.Values, key string) (*float64, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("%w: %s", errInvalidParam, key)
	}
	return &v, nil
}

func parseBool(q url.Values, key string) (*bool, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errInvalidParam, key)
	}
	return &v, nil
}

// parseLimit returns 0 for a missing limit, the service applies its default.
func parseLimit(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: limit", errInvalidParam)
	}
	return v, nil
}

// splitList accepts both repeated and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for item := range strings.SplitSeq(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		http.Error(w, "product not found", http.StatusNotFound)
		log.Info("product not found", "err", err)
	case errors.Is(err, service.ErrUsernameRequired):
		http.Error(w, "username is required", http.StatusBadRequest)
		log.Warn("bad request", "err", err)
	default:
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		log.Error("failed to serve request", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}
