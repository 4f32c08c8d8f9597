package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/danielpatrickdp/hinteval/internal/evidence"
	"github.com/danielpatrickdp/hinteval/internal/feature"
)

// #region options

// Options control one collection run.
type Options struct {
	CacheDir            string
	Timeout             time.Duration
	Retries             int
	Force               bool
	Screenshot          bool
	CollectAlternatives bool
	UserAgent           string
}

// DefaultOptions returns the shipped collector settings.
func DefaultOptions(cacheDir string) Options {
	return Options{
		CacheDir: cacheDir,
		Timeout:  30 * time.Second,
		Retries:  2,
	}
}

// #endregion options

// #region fetcher

// Page is one captured page.
type Page struct {
	FinalURL   string
	HTML       string
	Screenshot []byte
}

// Fetcher loads one URL and returns the rendered page. The production
// implementation drives a headless browser; tests substitute a stub.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// #endregion fetcher

// #region collector

// Collector caches web evidence for tasks. It only ever writes into the
// cache directory; scoring reads the cache and never goes near the network.
type Collector struct {
	opts    Options
	fetcher Fetcher
}

// New returns a collector using the given fetcher.
func New(opts Options, fetcher Fetcher) *Collector {
	return &Collector{opts: opts, fetcher: fetcher}
}

// SourceResult describes what happened to one cache key.
type SourceResult struct {
	Key        string
	Skipped    bool
	PageStatus string
	Err        error
}

// TaskResult summarizes the collection of one task.
type TaskResult struct {
	TaskID  string
	Sources []SourceResult
}

// CollectTask fetches every evidence URL of one task into its cache
// directory. Individual fetch failures are recorded in the source metadata
// and the result; they never abort the task.
func (c *Collector) CollectTask(ctx context.Context, task feature.TaskInput) (TaskResult, error) {
	res := TaskResult{TaskID: task.TaskID}
	if task.TaskID == "" {
		return res, fmt.Errorf("collect: empty task_id")
	}

	taskDir := evidence.TaskDir(c.opts.CacheDir, task.TaskID)
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		return res, fmt.Errorf("create task dir %s: %w", taskDir, err)
	}
	if err := writeJSON(filepath.Join(taskDir, "task.json"), task); err != nil {
		return res, err
	}

	for _, target := range taskTargets(task) {
		res.Sources = append(res.Sources, c.collectSource(ctx, taskDir, target.key, target.url))
	}

	if c.opts.CollectAlternatives {
		for _, alt := range c.alternativeTargets(taskDir, task) {
			res.Sources = append(res.Sources, c.collectSource(ctx, taskDir, alt.key, alt.url))
		}
	}
	return res, nil
}

type target struct {
	key string
	url string
}

func taskTargets(task feature.TaskInput) []target {
	candidates := []target{
		{evidence.KeyResultIMDB, task.ResultLinks.IMDB},
		{evidence.KeyResultGoogle, task.ResultLinks.Google},
		{evidence.KeyQueryIMDB, task.QueryLinks.IMDB},
		{evidence.KeyQueryGoogle, task.QueryLinks.Google},
	}
	var out []target
	for _, t := range candidates {
		if t.url != "" {
			out = append(out, t)
		}
	}
	return out
}

func (c *Collector) collectSource(ctx context.Context, taskDir, key, url string) SourceResult {
	res := SourceResult{Key: key}
	if !c.opts.Force && cached(taskDir, key) {
		res.Skipped = true
		return res
	}

	meta := evidence.SourceMeta{
		InputURL:  url,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	page, err := c.fetchWithRetries(ctx, url)
	if err != nil {
		meta.Error = err.Error()
		meta.PageStatus = "error"
		res.Err = err
	} else {
		meta.FinalURL = page.FinalURL
		meta.PageStatus = classifyPage(page.FinalURL, page.HTML)
		htmlName := key + ".html"
		if err := os.WriteFile(filepath.Join(taskDir, htmlName), []byte(page.HTML), 0o644); err != nil {
			meta.Error = err.Error()
			res.Err = err
		} else {
			meta.HTMLPath = htmlName
		}
		if c.opts.Screenshot && len(page.Screenshot) > 0 {
			shotName := key + ".png"
			if err := os.WriteFile(filepath.Join(taskDir, shotName), page.Screenshot, 0o644); err == nil {
				meta.ScreenshotPath = shotName
			}
		}
	}
	res.PageStatus = meta.PageStatus

	if err := writeJSON(filepath.Join(taskDir, key+".json"), meta); err != nil && res.Err == nil {
		res.Err = err
	}
	return res
}

func (c *Collector) fetchWithRetries(ctx context.Context, url string) (Page, error) {
	attempts := c.opts.Retries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Page{}, err
		}
		fetchCtx, cancel := ctx, context.CancelFunc(func() {})
		if c.opts.Timeout > 0 {
			fetchCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		}
		page, err := c.fetcher.Fetch(fetchCtx, url)
		cancel()
		if err == nil {
			return page, nil
		}
		lastErr = err
	}
	return Page{}, fmt.Errorf("fetch %s: %w", url, lastErr)
}

func cached(taskDir, key string) bool {
	if _, err := os.Stat(filepath.Join(taskDir, key+".json")); err != nil {
		return false
	}
	return true
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// #endregion collector

// #region page-status

// googleBlockMarkers are the page fragments Google serves instead of results
// when it declines to answer.
var googleBlockMarkers = []string{
	"unusual traffic from your computer network",
	"our systems have detected unusual traffic",
	"to continue, please type the characters",
	"detected unusual activity",
}

// classifyPage decides whether a captured page is usable evidence or a
// block/consent interstitial.
func classifyPage(finalURL, html string) string {
	lowered := strings.ToLower(finalURL)
	if strings.Contains(lowered, "consent.google.com") ||
		strings.Contains(lowered, "consent.youtube.com") ||
		strings.Contains(lowered, "/sorry/") {
		return "blocked"
	}
	body := strings.ToLower(html)
	for _, marker := range googleBlockMarkers {
		if strings.Contains(body, marker) {
			return "blocked"
		}
	}
	if strings.Contains(body, "captcha") && strings.Contains(body, "verify") {
		return "blocked"
	}
	return "ok"
}

// #endregion page-status

// #region alternatives

const (
	harvestLimit = 5
	altFetchMax  = 3
)

// alternativeTargets harvests competing IMDb pages from the already-cached
// query evidence. The result's own page never counts as an alternative.
func (c *Collector) alternativeTargets(taskDir string, task feature.TaskInput) []target {
	html, err := os.ReadFile(filepath.Join(taskDir, evidence.KeyQueryIMDB+".html"))
	if err != nil {
		return nil
	}
	urls := HarvestIMDBLinks(string(html), harvestLimit, task.ResultLinks.IMDB)

	var out []target
	for i, u := range urls {
		if i >= altFetchMax {
			break
		}
		out = append(out, target{key: evidence.AltKeys()[i], url: u})
	}
	return out
}

// HarvestIMDBLinks extracts up to limit distinct IMDb title/name URLs from a
// search result page, skipping any URL that resolves to exclude's page.
func HarvestIMDBLinks(html string, limit int, exclude string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	excludeID := imdbEntityID(exclude)

	var urls []string
	seen := make(map[string]bool)
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		id := imdbEntityID(href)
		if id == "" || seen[id] || (excludeID != "" && id == excludeID) {
			return true
		}
		seen[id] = true
		urls = append(urls, canonicalIMDBURL(id))
		return len(urls) < limit
	})
	return urls
}

// imdbEntityID pulls the tt/nm identifier out of an IMDb URL, or "" when the
// URL is not an entity page.
func imdbEntityID(raw string) string {
	for _, prefix := range []string{"/title/", "/name/"} {
		idx := strings.Index(raw, prefix)
		if idx < 0 {
			continue
		}
		rest := raw[idx+len(prefix):]
		end := strings.IndexAny(rest, "/?&#")
		if end >= 0 {
			rest = rest[:end]
		}
		if strings.HasPrefix(rest, "tt") || strings.HasPrefix(rest, "nm") {
			return rest
		}
	}
	return ""
}

func canonicalIMDBURL(id string) string {
	if strings.HasPrefix(id, "nm") {
		return "https://www.imdb.com/name/" + id + "/"
	}
	return "https://www.imdb.com/title/" + id + "/"
}

// #endregion alternatives
