package extract

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/hinteval/internal/evidence"
	"github.com/danielpatrickdp/hinteval/internal/feature"
)

const inceptionHTML = `<html><head>
<script type="application/ld+json">
{"@type":"Movie","name":"Inception","aggregateRating":{"ratingValue":8.8,"ratingCount":2400000}}
</script>
<meta property="og:title" content="Inception (2010) - IMDb"/>
</head><body></body></html>`

const personHTML = `<html><head>
<script type="application/ld+json">
{"@type":"Person","name":"Ryan Gosling"}
</script>
</head><body>STARmeter 1,234</body></html>`

const findHTML = `<html><body>
<a href="/title/tt1375666/">Inception</a>
<a href="/title/tt0816692/">Interstellar</a>
<a href="/chart/top/">ignored</a>
</body></html>`

func writeCacheEntry(t *testing.T, taskDir, key, html string, meta evidence.SourceMeta) {
	t.Helper()
	if html != "" {
		if err := os.WriteFile(filepath.Join(taskDir, key+".html"), []byte(html), 0o644); err != nil {
			t.Fatalf("write html: %v", err)
		}
		meta.HTMLPath = key + ".html"
	}
	data, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("marshal meta: %v", err)
	}
	if err := os.WriteFile(filepath.Join(taskDir, key+".json"), data, 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}
}

func writeTask(t *testing.T, cacheDir string, task feature.TaskInput) string {
	t.Helper()
	taskDir := evidence.TaskDir(cacheDir, task.TaskID)
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}
	if err := os.WriteFile(filepath.Join(taskDir, "task.json"), data, 0o644); err != nil {
		t.Fatalf("write task: %v", err)
	}
	return taskDir
}

func okMeta(url string) evidence.SourceMeta {
	return evidence.SourceMeta{InputURL: url, FinalURL: url, PageStatus: "ok", Timestamp: "2026-08-01T00:00:00Z"}
}

func TestExtractRecordParsesIMDB(t *testing.T) {
	dir := t.TempDir()
	task := feature.TaskInput{TaskID: "t1", Query: "incep", Result: "Inception"}
	taskDir := writeTask(t, dir, task)
	writeCacheEntry(t, taskDir, evidence.KeyResultIMDB, inceptionHTML, okMeta("https://www.imdb.com/title/tt1375666/"))
	writeCacheEntry(t, taskDir, evidence.KeyQueryIMDB, findHTML, okMeta("https://www.imdb.com/find/?q=incep"))

	rec, err := evidence.LoadRecord(taskDir)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	feats, err := ExtractRecord(rec)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if feats.OfficialTitle != "Inception" {
		t.Fatalf("expected Inception, got %q", feats.OfficialTitle)
	}
	if feats.ContentType != feature.ContentMovie {
		t.Fatalf("expected movie, got %s", feats.ContentType)
	}
	if feats.IMDBRating == nil || *feats.IMDBRating != 8.8 {
		t.Fatalf("expected rating 8.8, got %+v", feats.IMDBRating)
	}
	if feats.IMDBVotes == nil || *feats.IMDBVotes != 2400000 {
		t.Fatalf("expected 2400000 votes, got %+v", feats.IMDBVotes)
	}
	if feats.Confidence != feature.ConfidenceHigh {
		t.Fatalf("expected high confidence, got %s", feats.Confidence)
	}
	if len(feats.QueryCandidates) != 2 {
		t.Fatalf("expected 2 candidates, got %v", feats.QueryCandidates)
	}
	if feats.EvidenceRefs["result_imdb_url"] == "" {
		t.Fatal("expected a result_imdb_url evidence ref")
	}
}

func TestExtractRecordParsesPerson(t *testing.T) {
	dir := t.TempDir()
	task := feature.TaskInput{TaskID: "t1", Query: "ryan", Result: "Ryan Gosling"}
	taskDir := writeTask(t, dir, task)
	writeCacheEntry(t, taskDir, evidence.KeyResultIMDB, personHTML, okMeta("https://www.imdb.com/name/nm0331516/"))

	rec, err := evidence.LoadRecord(taskDir)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	feats, err := ExtractRecord(rec)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if feats.ContentType != feature.ContentPerson {
		t.Fatalf("expected person, got %s", feats.ContentType)
	}
	if feats.Starmeter == nil || *feats.Starmeter != 1234 {
		t.Fatalf("expected starmeter 1234, got %+v", feats.Starmeter)
	}
}

func TestExtractRecordBlockedEvidenceIsLowConfidence(t *testing.T) {
	dir := t.TempDir()
	task := feature.TaskInput{TaskID: "t1", Query: "incep", Result: "Inception"}
	taskDir := writeTask(t, dir, task)
	blocked := evidence.SourceMeta{InputURL: "u", PageStatus: "blocked", Timestamp: "2026-08-01T00:00:00Z"}
	writeCacheEntry(t, taskDir, evidence.KeyResultIMDB, "<html>captcha verify</html>", blocked)

	rec, err := evidence.LoadRecord(taskDir)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	feats, err := ExtractRecord(rec)

	if !errors.Is(err, ErrExtractionBlocked) {
		t.Fatalf("expected ErrExtractionBlocked, got %v", err)
	}
	if feats.Confidence != feature.ConfidenceLow {
		t.Fatalf("expected low confidence, got %s", feats.Confidence)
	}
	if !feats.ResultIMDBBlocked {
		t.Fatal("expected the blocked flag")
	}
	if feats.TaskID != "t1" {
		t.Fatal("blocked extraction must still return the task echo")
	}
}

func TestExtractRecordAlternatives(t *testing.T) {
	dir := t.TempDir()
	task := feature.TaskInput{TaskID: "t1", Query: "incep", Result: "Inception"}
	taskDir := writeTask(t, dir, task)
	writeCacheEntry(t, taskDir, evidence.KeyResultIMDB, inceptionHTML, okMeta("https://www.imdb.com/title/tt1375666/"))

	altHTML := `<html><script type="application/ld+json">
	{"@type":"Movie","name":"Interstellar","aggregateRating":{"ratingValue":8.6,"ratingCount":1900000}}
	</script></html>`
	writeCacheEntry(t, taskDir, "alt_imdb_1", altHTML, okMeta("https://www.imdb.com/title/tt0816692/"))

	rec, err := evidence.LoadRecord(taskDir)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	feats, err := ExtractRecord(rec)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if len(feats.Alternatives) != 1 {
		t.Fatalf("expected 1 alternative, got %d", len(feats.Alternatives))
	}
	if feats.BestAlternative == nil || feats.BestAlternative.Name != "Interstellar" {
		t.Fatalf("expected Interstellar as best alternative, got %+v", feats.BestAlternative)
	}
	if feats.BestAlternative.Source != "alt_imdb_1" {
		t.Fatalf("expected alt_imdb_1 source, got %s", feats.BestAlternative.Source)
	}
}

func TestExtractCacheIdempotent(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []string{"t1", "t2"} {
		task := feature.TaskInput{TaskID: id, Query: "incep", Result: "Inception"}
		taskDir := writeTask(t, dir, task)
		writeCacheEntry(t, taskDir, evidence.KeyResultIMDB, inceptionHTML, okMeta("https://www.imdb.com/title/tt1375666/"))
	}

	first, err := ExtractCache(dir)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	second, err := ExtractCache(dir)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	a, _ := json.Marshal(first.Features)
	b, _ := json.Marshal(second.Features)
	if string(a) != string(b) {
		t.Fatal("extraction over an unchanged cache must be byte-identical")
	}
	if len(first.Features) != 2 {
		t.Fatalf("expected 2 feature records, got %d", len(first.Features))
	}
	if first.Features[0].TaskID != "t1" || first.Features[1].TaskID != "t2" {
		t.Fatalf("expected sorted task order, got %s, %s", first.Features[0].TaskID, first.Features[1].TaskID)
	}
}

func TestExtractCacheSkipsMalformedEntries(t *testing.T) {
	dir := t.TempDir()
	task := feature.TaskInput{TaskID: "t1", Query: "incep", Result: "Inception"}
	taskDir := writeTask(t, dir, task)
	writeCacheEntry(t, taskDir, evidence.KeyResultIMDB, inceptionHTML, okMeta("u"))

	// A directory without task.json is malformed and must not sink the batch.
	if err := os.MkdirAll(filepath.Join(dir, "broken"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	res, err := ExtractCache(dir)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(res.Features) != 1 {
		t.Fatalf("expected 1 feature record, got %d", len(res.Features))
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("expected 1 skip note, got %v", res.Skipped)
	}
}
