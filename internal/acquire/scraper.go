package acquire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tormknd/RecipeMe/internal/pipeline"
)

// ScraperRecipe is the pre-structured payload returned by the specialized
// scraper service for social-media sources.
type ScraperRecipe struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	SourceURL   string   `json:"source_url"`
	Servings    string   `json:"servings,omitempty"`
	PrepTime    string   `json:"prep_time,omitempty"`
	CookTime    string   `json:"cook_time,omitempty"`
	Tips        []string `json:"tips,omitempty"`
}

type scraperResponse struct {
	Success bool           `json:"success"`
	Method  string         `json:"method,omitempty"`
	Data    *ScraperRecipe `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	// Only the latest progress message survives the synchronous call;
	// intermediate ones are lost.
	Progress *struct {
		Stage      string  `json:"stage,omitempty"`
		Message    string  `json:"message,omitempty"`
		Percentage float64 `json:"percentage,omitempty"`
	} `json:"progress,omitempty"`
	Usage *struct {
		PromptTokens     int     `json:"promptTokens,omitempty"`
		CandidatesTokens int     `json:"candidatesTokens,omitempty"`
		TotalTokens      int     `json:"totalTokens,omitempty"`
		CostEUR          float64 `json:"costEUR,omitempty"`
	} `json:"usage,omitempty"`
}

const scraperUnavailableMessage = "Le service de scraping n'est pas accessible. " +
	"Vérifiez que le conteneur recipe-scraper-api est bien lancé et que la variable RECIPE_SCRAPER_URL est correctement configurée."

// ScraperClient calls the specialized social-media scraper service over a
// synchronous request/response call.
type ScraperClient struct {
	baseURL string
	http    *http.Client
	log     *logrus.Logger
}

// NewScraperClient builds a client for the scraper service. baseURL may omit
// the scheme; http:// is assumed.
func NewScraperClient(baseURL string, log *logrus.Logger) *ScraperClient {
	baseURL = strings.Trim(strings.TrimSpace(baseURL), `"'`)
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &ScraperClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 180 * time.Second},
		log:     log,
	}
}

// Process asks the scraper to resolve a social-media URL. It returns the
// structured recipe and the service's latest progress message, if any.
// A connection failure is classified as service-unavailable, distinct from a
// content error reported by the service itself.
func (c *ScraperClient) Process(ctx context.Context, url string) (*ScraperRecipe, string, error) {
	payload, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return nil, "", fmt.Errorf("marshal scraper request: %w", err)
	}

	endpoint := c.baseURL + "/process"
	c.log.WithFields(logrus.Fields{"url": url, "endpoint": endpoint}).Info("Calling scraper API for social media content")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("build scraper request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", &pipeline.AcquisitionError{
			Message:     scraperUnavailableMessage,
			Unavailable: true,
			Err:         err,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &pipeline.AcquisitionError{Message: "lecture de la réponse du scraper impossible", Err: err}
	}

	var parsed scraperResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, "", &pipeline.AcquisitionError{
			Message: fmt.Sprintf("Scraper API Error: %s", resp.Status),
			Err:     err,
		}
	}

	progressMessage := ""
	if parsed.Progress != nil {
		progressMessage = parsed.Progress.Message
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !parsed.Success || parsed.Data == nil {
		message := parsed.Error
		if message == "" {
			message = "Failed to scrape social media content"
		}
		c.log.WithFields(logrus.Fields{"status": resp.StatusCode, "error": message}).Error("Scraper API returned error or no data")
		return nil, progressMessage, &pipeline.AcquisitionError{Message: message}
	}

	if parsed.Method != "" {
		c.log.WithField("method", parsed.Method).Info("Scraper API method")
	}
	return parsed.Data, progressMessage, nil
}
