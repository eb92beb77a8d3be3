package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"

	"aqdash/internal/engine"
	"aqdash/internal/logging"
	"aqdash/internal/metrics"
	"aqdash/internal/models"
)

const defaultRecordsLimit = 100

type Handler struct {
	store    atomic.Pointer[engine.ColumnStore]
	metrics  *metrics.Metrics
	logger   logging.Logger
	defaultK int
}

// NewHandler accepts a nil store; every data route answers 503 until SetStore.
func NewHandler(store *engine.ColumnStore, m *metrics.Metrics, logger logging.Logger, defaultK int) *Handler {
	h := &Handler{metrics: m, logger: logger, defaultK: defaultK}
	if store != nil {
		h.SetStore(store)
	}
	return h
}

// SetStore publishes a freshly loaded store. Requests in flight keep the
// store they started with.
func (h *Handler) SetStore(store *engine.ColumnStore) {
	h.store.Store(store)
	h.metrics.ObserveLoad(store.Stats)
	h.logger.Info("dataset published", logging.Int("records", store.Len()))
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/metrics", echo.WrapHandler(h.metrics.Handler()))

	api := e.Group("/api")
	api.GET("/options", h.GetOptions)
	api.GET("/views", h.GetViews)
	api.GET("/kpis", h.view(func(v models.Views) interface{} { return v.KPIs }))
	api.GET("/geo", h.view(func(v models.Views) interface{} { return v.Geo }))
	api.GET("/trend", h.view(func(v models.Views) interface{} { return v.Trend }))
	api.GET("/process", h.view(func(v models.Views) interface{} { return v.Process }))
	api.GET("/treemap", h.view(func(v models.Views) interface{} { return v.Treemap }))
	api.GET("/segments", h.view(func(v models.Views) interface{} { return v.Segmentation }))
	api.GET("/ranking", h.GetRanking)
	api.GET("/records", h.GetRecords)
}

// --- PARAMS ---

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// parseParams reads pollutant (repeatable or comma separated), from, to,
// country and k. Missing selections are passed through as absent so the
// engine answers with its empty result set; only malformed numbers are
// rejected.
func parseParams(c echo.Context, defaultK int) (engine.Params, error) {
	var p engine.Params

	for _, raw := range c.QueryParams()["pollutant"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				p.Pollutants = append(p.Pollutants, s)
			}
		}
	}

	from, to := c.QueryParam("from"), c.QueryParam("to")
	if from != "" && to != "" {
		lo, err := strconv.Atoi(from)
		if err != nil {
			return p, fmt.Errorf("from: %w", err)
		}
		hi, err := strconv.Atoi(to)
		if err != nil {
			return p, fmt.Errorf("to: %w", err)
		}
		p.Years = &engine.YearRange{Low: lo, High: hi}
	}

	p.Country = strings.TrimSpace(c.QueryParam("country"))
	if p.Country == "" {
		p.Country = engine.AllCountries
	}

	p.K = defaultK
	if vals, ok := c.QueryParams()["k"]; ok {
		p.K = 0
		if s := strings.TrimSpace(vals[0]); s != "" {
			k, err := strconv.Atoi(s)
			if err != nil {
				return p, fmt.Errorf("k: %w", err)
			}
			p.K = k
		}
	}
	return p, nil
}

func (h *Handler) loadedStore() (*engine.ColumnStore, error) {
	store := h.store.Load()
	if store == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "dataset is still loading")
	}
	return store, nil
}

func (h *Handler) compute(c echo.Context) (models.Views, error) {
	store, err := h.loadedStore()
	if err != nil {
		return models.Views{}, err
	}
	p, err := parseParams(c, h.defaultK)
	if err != nil {
		return models.Views{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	start := time.Now()
	v := engine.Compute(store, p)
	h.metrics.ObserveCompute(v.Segmentation.Status, time.Since(start))
	return v, nil
}

// --- HANDLERS ---

func (h *Handler) Health(c echo.Context) error {
	if h.store.Load() == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "loading"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) GetOptions(c echo.Context) error {
	store, err := h.loadedStore()
	if err != nil {
		return err
	}
	opts := store.Options()
	opts.Default.K = h.defaultK
	return c.JSON(http.StatusOK, opts)
}

// GetViews returns every view of one recomputation. The body is
// deterministic, so its hash doubles as a strong ETag.
func (h *Handler) GetViews(c echo.Context) error {
	v, err := h.compute(c)
	if err != nil {
		return err
	}
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	etag := fmt.Sprintf(`"%016x"`, xxh3.Hash(body))
	c.Response().Header().Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSONBlob(http.StatusOK, body)
}

// view serves a single view of a full recomputation.
func (h *Handler) view(pick func(models.Views) interface{}) echo.HandlerFunc {
	return func(c echo.Context) error {
		v, err := h.compute(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, pick(v))
	}
}

// returns at most 20 countries, fewer with ?limit=
func (h *Handler) GetRanking(c echo.Context) error {
	v, err := h.compute(c)
	if err != nil {
		return err
	}
	limit, _ := getPaginationParams(c, len(v.Ranking.Rows))
	if limit < len(v.Ranking.Rows) {
		v.Ranking.Rows = v.Ranking.Rows[:limit]
	}
	return c.JSON(http.StatusOK, v.Ranking)
}

// filtered records, paginated
func (h *Handler) GetRecords(c echo.Context) error {
	store, err := h.loadedStore()
	if err != nil {
		return err
	}
	p, err := parseParams(c, h.defaultK)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sub := engine.Filter(store, p.Criteria)
	total := sub.Len()
	limit, offset := getPaginationParams(c, defaultRecordsLimit)

	page := []models.Record{}
	if offset < total {
		end := min(offset+limit, total)
		page = sub.Slice(offset, end).Records()
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   page,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
