package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pinscout-backend/internal/models"
)

// CollectorClient harvests candidate pins from the content-collection
// service. The service renders the biased feed as an HTML page; pins
// are extracted from the markup and streamed to the caller one by one.
type CollectorClient struct {
	baseURL    string
	apiKey     string
	maxPins    int
	httpClient *http.Client
}

var _ Collector = (*CollectorClient)(nil)

func NewCollectorClient(baseURL, apiKey string, maxPins int) *CollectorClient {
	if maxPins <= 0 {
		maxPins = 25
	}
	return &CollectorClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		maxPins: maxPins,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

func (c *CollectorClient) Collect(ctx context.Context, text string, emit func(pin models.Pin) error) error {
	doc, err := c.fetchFeed(ctx, text)
	if err != nil {
		return err
	}

	var emitErr error
	count := 0
	doc.Find("section.feed article.pin").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if count >= c.maxPins {
			return false
		}

		pin, ok := extractPin(sel, i)
		if !ok {
			return true
		}

		if err := emit(pin); err != nil {
			emitErr = err
			return false
		}
		count++
		return true
	})
	if emitErr != nil {
		return emitErr
	}

	if count == 0 {
		return collaboratorErr("collector", fmt.Errorf("feed contained no usable pins"))
	}

	return nil
}

func (c *CollectorClient) fetchFeed(ctx context.Context, text string) (*goquery.Document, error) {
	feedURL := c.baseURL + "/feed?" + url.Values{
		"q":     {text},
		"limit": {strconv.Itoa(c.maxPins)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, collaboratorErr("collector", fmt.Errorf("new request: %w", err))
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, collaboratorErr("collector", fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, collaboratorErr("collector", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, collaboratorErr("collector", fmt.Errorf("parse feed: %w", err))
	}

	return doc, nil
}

// extractPin pulls one candidate out of a feed card. Cards missing an
// image or landing link are skipped rather than failing the harvest.
func extractPin(sel *goquery.Selection, position int) (models.Pin, bool) {
	sourceURL, _ := sel.Find("img").First().Attr("src")
	landingURL, _ := sel.Find("a").First().Attr("href")
	if sourceURL == "" || landingURL == "" {
		return models.Pin{}, false
	}

	pin := models.Pin{
		SourceURL:   sourceURL,
		LandingURL:  landingURL,
		Title:       strings.TrimSpace(sel.Find("h3").First().Text()),
		Description: strings.TrimSpace(sel.Find("p.description").First().Text()),
		Verdict:     models.VerdictUnscored,
	}

	meta := map[string]any{"position": position}
	if pinID, ok := sel.Attr("data-pin-id"); ok {
		meta["feed_pin_id"] = pinID
	}
	if raw, err := json.Marshal(meta); err == nil {
		pin.Metadata = raw
	}

	return pin, true
}
