// Package acquire resolves a recipe URL into either a pre-structured recipe
// (specialized social-media scraper) or reduced plain text (generic pages).
package acquire

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Tormknd/RecipeMe/internal/ingredient"
	"github.com/Tormknd/RecipeMe/internal/pipeline"
	"github.com/Tormknd/RecipeMe/models"
)

// Result is the outcome of acquisition: exactly one of Structured or Text is
// set. A structured result bypasses the generative step entirely.
type Result struct {
	Structured *models.RecipeContent
	Text       string
}

// socialHosts are the platforms handled by the specialized scraper. Their
// content is not fetchable generically, so scraper failures are fatal.
var socialHosts = []string{"instagram.com", "tiktok.com", "facebook.com"}

// IsSocialURL reports whether url points at a known social platform.
func IsSocialURL(url string) bool {
	for _, host := range socialHosts {
		if strings.Contains(url, host) {
			return true
		}
	}
	return false
}

// Acquirer classifies a URL by host and fetches its raw content.
type Acquirer struct {
	scraper *ScraperClient
	reader  *Reader
	log     *logrus.Logger
}

// NewAcquirer wires the scraper client and the page reader.
func NewAcquirer(scraper *ScraperClient, reader *Reader, log *logrus.Logger) *Acquirer {
	return &Acquirer{scraper: scraper, reader: reader, log: log}
}

// Acquire resolves url into a Result. Social URLs go through the scraper and
// fail the job when it does; generic URLs degrade to the raw URL string as
// text on fetch failure — the model may still know the page.
func (a *Acquirer) Acquire(ctx context.Context, url string, onProgress pipeline.ProgressFunc) (*Result, error) {
	if IsSocialURL(url) {
		recipe, progressMessage, err := a.scraper.Process(ctx, url)
		if progressMessage != "" && onProgress != nil {
			onProgress(progressMessage)
		}
		if err != nil {
			return nil, err
		}
		content := convertScraperRecipe(recipe)
		a.log.WithField("title", content.Title).Info("Using structured recipe from scraper API, skipping generative step")
		return &Result{Structured: &content}, nil
	}

	if onProgress != nil {
		onProgress("Récupération du contenu...")
	}
	text, err := a.reader.Reduce(ctx, url)
	if err != nil {
		a.log.WithFields(logrus.Fields{"url": url, "error": err}).Warn("Fetch failed, falling back to raw URL analysis")
		return &Result{Text: url}, nil
	}
	return &Result{Text: text}, nil
}

// convertScraperRecipe maps the scraper payload to the canonical content
// shape. Only the ingredient line parser runs here; no model call.
func convertScraperRecipe(recipe *ScraperRecipe) models.RecipeContent {
	title := recipe.Title
	if title == "" {
		title = models.FallbackTitle
	}
	steps := recipe.Steps
	if steps == nil {
		steps = []string{}
	}
	return models.RecipeContent{
		Title:        title,
		Ingredients:  ingredient.ParseAll(recipe.Ingredients),
		Instructions: steps,
		PrepTime:     optional(recipe.PrepTime),
		CookTime:     optional(recipe.CookTime),
		Servings:     optional(recipe.Servings),
		Tags:         []string{},
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
