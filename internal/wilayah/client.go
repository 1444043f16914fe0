// Package wilayah talks to the remote Indonesian administrative-area lookup
// service and caches its responses for the process lifetime.
package wilayah

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Area is one entry of the reference dataset: a plain id/name pair. The
// service scopes child lists by parent id, so Area itself carries none.
type Area struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Administrative levels, top down.
const (
	LevelProvince = "province"
	LevelRegency  = "regency"
	LevelDistrict = "district"
	LevelVillage  = "village"
)

// DefaultBaseURL points at the public static mirror of the administrative
// dataset.
const DefaultBaseURL = "https://www.emsifa.com/api-wilayah-indonesia/api"

const defaultTimeout = 10 * time.Second

// Store is an optional durable mirror of the reference cache. Lookups
// consult it before going to the network and write fresh lists through.
// A nil slice from Get means the scope has not been mirrored yet.
type Store interface {
	GetAreas(level, parentID string) ([]Area, error)
	PutAreas(level, parentID string, areas []Area) error
	ClearAreas() error
}

// Client fetches reference areas with an in-process cache per scope key.
// Content for a given key is deterministic, so concurrent duplicate fetches
// are harmless: last writer wins.
type Client struct {
	httpClient *http.Client
	baseURL    string
	store      Store
	logger     *zap.Logger

	mu    sync.Mutex
	cache map[string][]Area
}

// NewClient creates a lookup client. baseURL falls back to DefaultBaseURL,
// store may be nil.
func NewClient(baseURL string, store Store, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		store:      store,
		logger:     logger.With(zap.String("component", "wilayah")),
		cache:      make(map[string][]Area),
	}
}

// Provinces returns the full top-level province list.
func (c *Client) Provinces(ctx context.Context) ([]Area, error) {
	return c.lookup(ctx, LevelProvince, "", "provinces.json")
}

// Regencies returns the regencies/cities of one province.
func (c *Client) Regencies(ctx context.Context, provinceID string) ([]Area, error) {
	return c.lookup(ctx, LevelRegency, provinceID, "regencies/"+provinceID+".json")
}

// Districts returns the districts of one regency.
func (c *Client) Districts(ctx context.Context, regencyID string) ([]Area, error) {
	return c.lookup(ctx, LevelDistrict, regencyID, "districts/"+regencyID+".json")
}

// Villages returns the villages of one district.
func (c *Client) Villages(ctx context.Context, districtID string) ([]Area, error) {
	return c.lookup(ctx, LevelVillage, districtID, "villages/"+districtID+".json")
}

// ClearCache drops the in-memory cache for all four levels and, when a
// store is attached, the durable mirror as well.
func (c *Client) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string][]Area)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.ClearAreas(); err != nil {
			c.logger.Warn("clearing area store failed", zap.Error(err))
		}
	}
}

func (c *Client) lookup(ctx context.Context, level, parentID, path string) ([]Area, error) {
	key := level + ":" + parentID

	c.mu.Lock()
	if areas, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return areas, nil
	}
	c.mu.Unlock()

	if c.store != nil {
		areas, err := c.store.GetAreas(level, parentID)
		if err != nil {
			c.logger.Warn("area store read failed", zap.String("scope", key), zap.Error(err))
		} else if areas != nil {
			c.putCache(key, areas)
			return areas, nil
		}
	}

	areas, err := c.fetch(ctx, path)
	if err != nil {
		return nil, err
	}

	c.putCache(key, areas)
	if c.store != nil {
		if err := c.store.PutAreas(level, parentID, areas); err != nil {
			c.logger.Warn("area store write failed", zap.String("scope", key), zap.Error(err))
		}
	}
	return areas, nil
}

func (c *Client) putCache(key string, areas []Area) {
	c.mu.Lock()
	c.cache[key] = areas
	c.mu.Unlock()
}

func (c *Client) fetch(ctx context.Context, path string) ([]Area, error) {
	url := c.baseURL + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("lookup %s: status=%d body=%s", path, resp.StatusCode, string(body))
	}

	// An empty array is a valid "no data" answer, not an error.
	var areas []Area
	if err := json.NewDecoder(resp.Body).Decode(&areas); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if areas == nil {
		areas = []Area{}
	}
	return areas, nil
}
