package acquire

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tormknd/RecipeMe/internal/pipeline"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestIsSocialURL(t *testing.T) {
	assert.True(t, IsSocialURL("https://www.instagram.com/reel/abc/"))
	assert.True(t, IsSocialURL("https://www.tiktok.com/@chef/video/123"))
	assert.True(t, IsSocialURL("https://facebook.com/watch?v=1"))
	assert.False(t, IsSocialURL("https://www.marmiton.org/recettes/tarte"))
	assert.False(t, IsSocialURL("https://example.com"))
}

func TestAcquireSocialReturnsStructuredRecipe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/process", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"method": "transcript",
			"data": {
				"title": "Poulet basquaise",
				"ingredients": ["500 g de poulet", "2 poivrons", "sel"],
				"steps": ["Faire revenir le poulet.", "Ajouter les poivrons."],
				"source_url": "https://instagram.com/reel/abc",
				"prep_time": "15 min",
				"servings": "4 personnes"
			},
			"progress": {"stage": "done", "message": "Analyse de la vidéo terminée", "percentage": 100}
		}`))
	}))
	defer server.Close()

	acquirer := NewAcquirer(NewScraperClient(server.URL, testLogger()), NewReader(), testLogger())

	var messages []string
	result, err := acquirer.Acquire(context.Background(), "https://instagram.com/reel/abc", func(m string) {
		messages = append(messages, m)
	})
	require.NoError(t, err)
	require.NotNil(t, result.Structured)
	assert.Empty(t, result.Text)

	content := result.Structured
	assert.Equal(t, "Poulet basquaise", content.Title)
	require.Len(t, content.Ingredients, 3)
	assert.Equal(t, "poulet", content.Ingredients[0].Name)
	require.NotNil(t, content.Ingredients[0].Quantity)
	assert.Equal(t, "500", *content.Ingredients[0].Quantity)
	require.NotNil(t, content.Ingredients[0].Unit)
	assert.Equal(t, "g", *content.Ingredients[0].Unit)
	assert.Equal(t, "sel", content.Ingredients[2].Name)
	assert.Nil(t, content.Ingredients[2].Quantity)
	require.NotNil(t, content.PrepTime)
	assert.Equal(t, "15 min", *content.PrepTime)
	assert.Nil(t, content.CookTime)
	assert.Equal(t, []string{"Analyse de la vidéo terminée"}, messages)
}

func TestAcquireSocialScraperContentError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"success": false, "error": "Aucune recette détectée dans cette vidéo"}`))
	}))
	defer server.Close()

	acquirer := NewAcquirer(NewScraperClient(server.URL, testLogger()), NewReader(), testLogger())

	_, err := acquirer.Acquire(context.Background(), "https://tiktok.com/@x/video/1", nil)
	var acquisition *pipeline.AcquisitionError
	require.ErrorAs(t, err, &acquisition)
	assert.False(t, acquisition.Unavailable)
	assert.Equal(t, "Aucune recette détectée dans cette vidéo", acquisition.Message)
}

func TestAcquireSocialScraperUnreachable(t *testing.T) {
	// Nothing listens on port 1.
	acquirer := NewAcquirer(NewScraperClient("http://localhost:1", testLogger()), NewReader(), testLogger())

	_, err := acquirer.Acquire(context.Background(), "https://instagram.com/reel/abc", nil)
	var acquisition *pipeline.AcquisitionError
	require.ErrorAs(t, err, &acquisition)
	assert.True(t, acquisition.Unavailable)
	assert.Contains(t, acquisition.Message, "RECIPE_SCRAPER_URL")
}

func TestAcquireGenericPageReducesToText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Site</title></head><body>
			<nav>Accueil | Recettes</nav>
			<main><h1>Tarte fine aux tomates</h1><p>Une pâte, des tomates, du thym.</p></main>
			<footer>© 2026</footer>
			<script>track();</script>
		</body></html>`))
	}))
	defer server.Close()

	acquirer := NewAcquirer(NewScraperClient("http://localhost:1", testLogger()), NewReader(), testLogger())

	var messages []string
	result, err := acquirer.Acquire(context.Background(), server.URL, func(m string) {
		messages = append(messages, m)
	})
	require.NoError(t, err)
	assert.Nil(t, result.Structured)
	assert.Contains(t, result.Text, "Tarte fine aux tomates")
	assert.NotContains(t, result.Text, "Accueil")
	assert.NotContains(t, result.Text, "track()")
	assert.Equal(t, []string{"Récupération du contenu..."}, messages)
}

func TestAcquireGenericFetchFailureFallsBackToURL(t *testing.T) {
	acquirer := NewAcquirer(NewScraperClient("http://localhost:1", testLogger()), NewReader(), testLogger())

	url := "http://localhost:1/recette"
	result, err := acquirer.Acquire(context.Background(), url, nil)
	require.NoError(t, err, "generic fetch failures degrade, they do not fail the job")
	assert.Nil(t, result.Structured)
	assert.Equal(t, url, result.Text)
}

func TestScraperClientBaseURLNormalization(t *testing.T) {
	log := testLogger()
	assert.Equal(t, "http://scraper:5000", NewScraperClient("scraper:5000", log).baseURL)
	assert.Equal(t, "http://scraper:5000", NewScraperClient(`"http://scraper:5000/"`, log).baseURL)
	assert.Equal(t, "http://localhost:5000", NewScraperClient("  ", log).baseURL)
	assert.Equal(t, "https://scraper.internal", NewScraperClient("https://scraper.internal", log).baseURL)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "héll", Truncate("héllo", 4), "cuts on rune boundaries")
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestExtractMainContentPriority(t *testing.T) {
	html := `<html><body><article>fallback</article><main>principal</main></body></html>`
	content, err := extractMainContent(html)
	require.NoError(t, err)
	assert.Contains(t, content, "principal")
	assert.NotContains(t, content, "fallback")

	html = `<html><body><article>article seul</article></body></html>`
	content, err = extractMainContent(html)
	require.NoError(t, err)
	assert.True(t, strings.Contains(content, "article seul"))
}
