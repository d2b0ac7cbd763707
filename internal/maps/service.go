package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/platform/config"
	"github.com/vglena/valorapro/platform/logger"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org"
	searchLimit         = 8
	minQueryLength      = 3
)

// ErrNotFound is returned by Geocode when Nominatim has no match.
var ErrNotFound = errors.New("address not found")

var (
	regionPrefix   = regexp.MustCompile(`(?i)^Comunidad (?:Autónoma )?de `)
	provincePrefix = regexp.MustCompile(`(?i)^Provincia de `)
	leadingDe      = regexp.MustCompile(`(?i)^de\s+`)
)

type cachedSearch struct {
	suggestions []AddressSuggestion
	expiresAt   time.Time
}

// Service talks to Nominatim. Requests are spaced by a shared limiter and
// search results are cached per query.
type Service struct {
	client    *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
	cacheTTL  time.Duration
	cache     sync.Map // map[string]cachedSearch
	log       *logger.Logger
}

func NewService(cfg config.GeocodingConfig, log *logger.Logger) *Service {
	baseURL := strings.TrimRight(cfg.GetNominatimURL(), "/")
	if baseURL == "" {
		baseURL = defaultNominatimURL
	}
	interval := cfg.GetNominatimMinInterval()
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Service{
		client:    &http.Client{Timeout: 5 * time.Second},
		baseURL:   baseURL,
		userAgent: cfg.GetNominatimUserAgent(),
		limiter:   rate.NewLimiter(limit, 1),
		cacheTTL:  cfg.GetGeocodeCacheTTL(),
		log:       log,
	}
}

// SearchAddress returns up to eight Spanish address suggestions for q.
// Queries shorter than three characters return nothing.
func (s *Service) SearchAddress(ctx context.Context, query string) ([]AddressSuggestion, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minQueryLength {
		return []AddressSuggestion{}, nil
	}

	key := strings.ToLower(query)
	if cached, ok := s.cache.Load(key); ok {
		entry := cached.(cachedSearch)
		if time.Now().Before(entry.expiresAt) {
			return entry.suggestions, nil
		}
		s.cache.Delete(key)
	}

	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("addressdetails", "1")
	params.Add("limit", strconv.Itoa(searchLimit))
	params.Add("countrycodes", "es")

	rawResults, err := s.search(ctx, params)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(rawResults))
	suggestions := make([]AddressSuggestion, 0, len(rawResults))
	for _, raw := range rawResults {
		if _, dup := seen[raw.DisplayName]; dup {
			continue
		}
		seen[raw.DisplayName] = struct{}{}
		suggestions = append(suggestions, buildSuggestion(raw))
	}

	if s.cacheTTL > 0 {
		s.cache.Store(key, cachedSearch{suggestions: suggestions, expiresAt: time.Now().Add(s.cacheTTL)})
	}
	return suggestions, nil
}

// Geocode places a location on the map. Municipality and province are required.
func (s *Service) Geocode(ctx context.Context, req GeocodeRequest) (domain.Coordinates, error) {
	if strings.TrimSpace(req.Municipality) == "" || strings.TrimSpace(req.Province) == "" {
		return domain.Coordinates{}, ErrNotFound
	}

	parts := make([]string, 0, 5)
	for _, p := range []string{req.StreetType, req.StreetName, req.StreetNumber, req.Municipality, req.Province} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	params := url.Values{}
	params.Add("q", strings.Join(parts, " "))
	params.Add("format", "json")
	params.Add("limit", "1")

	rawResults, err := s.search(ctx, params)
	if err != nil {
		return domain.Coordinates{}, err
	}
	if len(rawResults) == 0 {
		return domain.Coordinates{}, ErrNotFound
	}

	lat, latErr := strconv.ParseFloat(rawResults[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(rawResults[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim returned invalid coordinates %q,%q", rawResults[0].Lat, rawResults[0].Lon)
	}
	return domain.Coordinates{Lat: lat, Lon: lon}, nil
}

// GeocodeLocation is Geocode for a profile location.
func (s *Service) GeocodeLocation(ctx context.Context, loc domain.Location) (domain.Coordinates, error) {
	return s.Geocode(ctx, GeocodeRequest{
		StreetType:   loc.StreetType,
		StreetName:   loc.StreetName,
		StreetNumber: loc.StreetNumber,
		Municipality: loc.Municipality,
		Province:     loc.Province,
	})
}

func (s *Service) search(ctx context.Context, params url.Values) ([]nominatimResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/search?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "es")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("nominatim request failed", "error", err)
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		s.log.Error("nominatim upstream error", "status", resp.StatusCode)
		return nil, fmt.Errorf("upstream api error: %d", resp.StatusCode)
	}

	var rawResults []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&rawResults); err != nil {
		s.log.Error("failed to decode nominatim payload", "error", err)
		return nil, err
	}
	return rawResults, nil
}

func buildSuggestion(raw nominatimResponse) AddressSuggestion {
	addr := raw.Address
	streetType, streetName := splitStreetType(firstNonEmpty(addr.Road, addr.Pedestrian, addr.Street, addr.Square))

	suggestion := AddressSuggestion{
		Label:        raw.DisplayName,
		StreetType:   streetType,
		StreetName:   streetName,
		StreetNumber: addr.HouseNumber,
		PostalCode:   addr.Postcode,
		Municipality: firstNonEmpty(addr.City, addr.Town, addr.Municipality, addr.Village),
		Province:     cleanProvince(firstNonEmpty(addr.County, addr.State, addr.Province)),
	}
	suggestion.Lat, _ = strconv.ParseFloat(raw.Lat, 64)
	suggestion.Lon, _ = strconv.ParseFloat(raw.Lon, 64)
	return suggestion
}

// splitStreetType turns "Calle de Alcalá" into ("Calle", "Alcalá"). Roads
// without a known prefix keep their full name and default to Calle.
func splitStreetType(road string) (string, string) {
	road = strings.TrimSpace(road)
	lower := strings.ToLower(road)
	for _, t := range domain.StreetTypes {
		if !strings.HasPrefix(lower, strings.ToLower(t)) {
			continue
		}
		rest := road[len(t):]
		if rest != "" && rest[0] != ' ' {
			continue
		}
		return t, strings.TrimSpace(leadingDe.ReplaceAllString(strings.TrimSpace(rest), ""))
	}
	return "Calle", road
}

// cleanProvince strips region prefixes ("Comunidad de Madrid") and matches
// the result against the province list.
func cleanProvince(name string) string {
	name = regionPrefix.ReplaceAllString(strings.TrimSpace(name), "")
	name = provincePrefix.ReplaceAllString(name, "")
	return domain.CanonicalProvince(strings.TrimSpace(name))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
