package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pokescan/backend/internal/metrics"
	"github.com/pokescan/backend/internal/models"
)

const (
	pokemonTCGBaseURL        = "https://api.pokemontcg.io/v2"
	pokemonTCGDefaultTimeout = 30 * time.Second

	// providerCacheTTL matches the freshness the rest of the system is
	// built around: snapshots are daily, so day-old provider data is valid.
	providerCacheTTL  = 24 * time.Hour
	providerCacheSize = 1024
)

// ErrCardNotFound reports that the provider knows no card with the given
// ID. It is distinct from transport or provider failures, which callers
// must treat as retryable.
var ErrCardNotFound = errors.New("card not found")

// CardQuote bundles a card's display metadata with the price facets the
// provider reported alongside it.
type CardQuote struct {
	Card   models.Card
	Facets models.PriceFacets
}

// PokemonTCGService is the Card Data Provider client (pokemontcg.io v2).
// Responses are cached for 24 hours to stay inside the API's daily request
// budget; the cache is owned by the service and constructed with it.
type PokemonTCGService struct {
	client  *http.Client
	apiKey  string
	baseURL string
	cache   *expirable.LRU[string, []CardQuote]
}

func NewPokemonTCGService(apiKey string) *PokemonTCGService {
	return &PokemonTCGService{
		client: &http.Client{
			Timeout: pokemonTCGDefaultTimeout,
		},
		apiKey:  apiKey,
		baseURL: pokemonTCGBaseURL,
		cache:   expirable.NewLRU[string, []CardQuote](providerCacheSize, nil, providerCacheTTL),
	}
}

type pokemonListResponse struct {
	Data       []pokemonCard `json:"data"`
	TotalCount int           `json:"totalCount"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
}

type pokemonCardResponse struct {
	Data pokemonCard `json:"data"`
}

type pokemonCard struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Number     string             `json:"number"`
	Rarity     string             `json:"rarity"`
	Types      []string           `json:"types"`
	Set        pokemonSet         `json:"set"`
	Images     pokemonImages      `json:"images"`
	TCGPlayer  *pokemonTCGPlayer  `json:"tcgplayer"`
	CardMarket *pokemonCardMarket `json:"cardmarket"`
}

type pokemonSet struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type pokemonImages struct {
	Small string `json:"small"`
	Large string `json:"large"`
}

type pokemonTCGPlayer struct {
	Prices    map[string]pokemonPriceSet `json:"prices"`
	UpdatedAt string                     `json:"updatedAt"`
}

type pokemonPriceSet struct {
	Low    *float64 `json:"low"`
	Mid    *float64 `json:"mid"`
	High   *float64 `json:"high"`
	Market *float64 `json:"market"`
}

type pokemonCardMarket struct {
	Prices    *pokemonCMPrices `json:"prices"`
	UpdatedAt string           `json:"updatedAt"`
}

type pokemonCMPrices struct {
	AverageSellPrice *float64 `json:"averageSellPrice"`
	LowPrice         *float64 `json:"lowPrice"`
	TrendPrice       *float64 `json:"trendPrice"`
	Avg1             *float64 `json:"avg1"`
	Avg7             *float64 `json:"avg7"`
	Avg30            *float64 `json:"avg30"`
	ReverseHoloTrend *float64 `json:"reverseHoloTrend"`
}

// GetCard fetches one card by ID, with price facets.
func (s *PokemonTCGService) GetCard(ctx context.Context, id string) (*CardQuote, error) {
	cacheKey := "card:" + id
	if quotes, ok := s.cache.Get(cacheKey); ok && len(quotes) == 1 {
		metrics.ProviderCacheHits.Inc()
		quote := quotes[0]
		return &quote, nil
	}
	metrics.ProviderCacheMisses.Inc()

	reqURL := fmt.Sprintf("%s/cards/%s", s.baseURL, url.PathEscape(id))

	var cardResp pokemonCardResponse
	if err := s.doGet(ctx, reqURL, &cardResp); err != nil {
		return nil, err
	}

	quote := cardResp.Data.toQuote()
	s.cache.Add(cacheKey, []CardQuote{quote})
	return &quote, nil
}

// SearchCards searches the catalog by card name.
func (s *PokemonTCGService) SearchCards(ctx context.Context, query string, limit int) ([]CardQuote, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	cacheKey := fmt.Sprintf("search:%s:%d", query, limit)
	if quotes, ok := s.cache.Get(cacheKey); ok {
		metrics.ProviderCacheHits.Inc()
		return quotes, nil
	}
	metrics.ProviderCacheMisses.Inc()

	q := url.QueryEscape(fmt.Sprintf("name:%q", query))
	reqURL := fmt.Sprintf("%s/cards?q=%s&pageSize=%d&orderBy=-set.releaseDate", s.baseURL, q, limit)

	var listResp pokemonListResponse
	if err := s.doGet(ctx, reqURL, &listResp); err != nil {
		return nil, err
	}

	quotes := make([]CardQuote, len(listResp.Data))
	for i, pc := range listResp.Data {
		quotes[i] = pc.toQuote()
	}
	s.cache.Add(cacheKey, quotes)
	return quotes, nil
}

// GetTrendingCards returns recent high-rarity cards as a trending feed.
func (s *PokemonTCGService) GetTrendingCards(ctx context.Context, limit int) ([]CardQuote, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	cacheKey := fmt.Sprintf("trending:%d", limit)
	if quotes, ok := s.cache.Get(cacheKey); ok {
		metrics.ProviderCacheHits.Inc()
		return quotes, nil
	}
	metrics.ProviderCacheMisses.Inc()

	q := url.QueryEscape(`rarity:"Special Illustration Rare" OR rarity:"Hyper Rare"`)
	reqURL := fmt.Sprintf("%s/cards?q=%s&pageSize=%d&orderBy=-set.releaseDate", s.baseURL, q, limit)

	var listResp pokemonListResponse
	if err := s.doGet(ctx, reqURL, &listResp); err != nil {
		return nil, err
	}

	quotes := make([]CardQuote, len(listResp.Data))
	for i, pc := range listResp.Data {
		quotes[i] = pc.toQuote()
	}
	s.cache.Add(cacheKey, quotes)
	return quotes, nil
}

func (s *PokemonTCGService) doGet(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}

	metrics.ProviderRequestsTotal.Inc()
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach pokemon tcg api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrCardNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pokemon tcg api returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode pokemon tcg response: %w", err)
	}
	return nil
}

func (pc pokemonCard) toQuote() CardQuote {
	rarity := pc.Rarity
	if rarity == "" {
		rarity = "Unknown"
	}

	card := models.Card{
		ID:            pc.ID,
		Name:          pc.Name,
		CardNumber:    pc.Number,
		SetCode:       pc.Set.ID,
		SetName:       pc.Set.Name,
		Rarity:        rarity,
		ImageURL:      pc.Images.Small,
		ImageURLLarge: pc.Images.Large,
	}
	card.SetTypeList(pc.Types)

	return CardQuote{
		Card:   card,
		Facets: pc.facets(),
	}
}

// facets maps the provider's price blocks onto the snapshot facet set. The
// primary market facet prefers holofoil, then normal, then reverse holo,
// since high-value cards are usually only printed holo.
func (pc pokemonCard) facets() models.PriceFacets {
	var f models.PriceFacets

	if pc.TCGPlayer != nil {
		if normal, ok := pc.TCGPlayer.Prices["normal"]; ok {
			f.TCGLow = normal.Low
			f.TCGMid = normal.Mid
			f.TCGHigh = normal.High
		}
		if holo, ok := pc.TCGPlayer.Prices["holofoil"]; ok {
			f.TCGHolofoilMarket = holo.Market
			if f.TCGLow == nil {
				f.TCGLow = holo.Low
				f.TCGMid = holo.Mid
				f.TCGHigh = holo.High
			}
		}
		if reverse, ok := pc.TCGPlayer.Prices["reverseHolofoil"]; ok {
			f.TCGReverseHoloMarket = reverse.Market
		}
		f.TCGMarket = pc.primaryMarket()
	}

	if pc.CardMarket != nil && pc.CardMarket.Prices != nil {
		cm := pc.CardMarket.Prices
		f.CMAvgSell = cm.AverageSellPrice
		f.CMLow = cm.LowPrice
		f.CMTrend = cm.TrendPrice
		f.CMAvg1 = cm.Avg1
		f.CMAvg7 = cm.Avg7
		f.CMAvg30 = cm.Avg30
		f.CMReverseHoloTrend = cm.ReverseHoloTrend
	}

	return f
}

// primaryMarket extracts the best available market price for a card.
func (pc pokemonCard) primaryMarket() *float64 {
	if pc.TCGPlayer == nil {
		return nil
	}
	for _, variant := range []string{"holofoil", "normal", "reverseHolofoil", "1stEditionHolofoil"} {
		if ps, ok := pc.TCGPlayer.Prices[variant]; ok && ps.Market != nil {
			return ps.Market
		}
	}
	return nil
}
