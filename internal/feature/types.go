package feature

// #region task-input

// TaskLinks holds the evidence URLs attached to a query or result.
// Unknown link kinds are tolerated on input and ignored.
type TaskLinks struct {
	Google    string `json:"google,omitempty"`
	Youtube   string `json:"youtube,omitempty"`
	IMDB      string `json:"imdb,omitempty"`
	Translate string `json:"translate,omitempty"`
}

// TaskInput is the immutable task row produced by the labeling pipeline:
// a query, the hinted result string, and the evidence links to cache.
type TaskInput struct {
	TaskID      string    `json:"task_id"`
	Query       string    `json:"query"`
	Result      string    `json:"result"`
	QueryLinks  TaskLinks `json:"query_links"`
	ResultLinks TaskLinks `json:"result_links"`
}

// #endregion task-input

// #region content-type

// ContentType classifies the entity a page describes.
type ContentType string

const (
	ContentMovie    ContentType = "movie"
	ContentSeries   ContentType = "series"
	ContentShort    ContentType = "short"
	ContentPerson   ContentType = "person"
	ContentCategory ContentType = "category"
	ContentUnknown  ContentType = "unknown"
)

// #endregion content-type

// #region confidence

// Confidence states how much of the result evidence was usable.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// #endregion confidence

// #region alternative

// AlternativeCandidate is a competing entity parsed from alternative evidence.
type AlternativeCandidate struct {
	Name        string      `json:"name,omitempty"`
	IMDBURL     string      `json:"imdb_url,omitempty"`
	ContentType ContentType `json:"content_type"`
	IMDBVotes   *int        `json:"imdb_votes,omitempty"`
	IMDBRating  *float64    `json:"imdb_rating,omitempty"`
	Starmeter   *int        `json:"starmeter,omitempty"`
	Source      string      `json:"source,omitempty"`
}

// #endregion alternative

// #region features

// Features is the per-task feature record the scorer consumes. One Features
// value is serialized per line in a feature file.
//
// Invariant: Confidence is low exactly when neither result source was usable;
// a low-confidence record carries no trustworthy fields beyond the task echo.
type Features struct {
	TaskID        string      `json:"task_id"`
	Query         string      `json:"query"`
	Result        string      `json:"result"`
	OfficialTitle string      `json:"official_title,omitempty"`
	ContentType   ContentType `json:"content_type"`
	IMDBVotes     *int        `json:"imdb_votes,omitempty"`
	IMDBRating    *float64    `json:"imdb_rating,omitempty"`
	Starmeter     *int        `json:"starmeter,omitempty"`

	QueryCandidates []string               `json:"query_candidates"`
	Alternatives    []AlternativeCandidate `json:"alternatives"`
	BestAlternative *AlternativeCandidate  `json:"best_alternative,omitempty"`

	ResultIMDBOk        bool `json:"result_imdb_ok"`
	ResultGoogleOk      bool `json:"result_google_ok"`
	ResultIMDBBlocked   bool `json:"result_imdb_blocked"`
	ResultGoogleBlocked bool `json:"result_google_blocked"`

	Confidence   Confidence        `json:"confidence"`
	EvidenceRefs map[string]string `json:"evidence_refs,omitempty"`
	Errors       []string          `json:"errors,omitempty"`
}

// #endregion features

// #region labeled

// LabeledExample is a labeled-file row: Features plus a human gold rating.
// The gold label may arrive under gold_rating, label, or rating; Gold()
// resolves the precedence once so callers never re-check aliases.
type LabeledExample struct {
	TaskID     string    `json:"task_id"`
	GoldRating string    `json:"gold_rating,omitempty"`
	Label      string    `json:"label,omitempty"`
	Rating     string    `json:"rating,omitempty"`
	Features   *Features `json:"features,omitempty"`
}

// Gold returns the effective gold label for the example.
func (e LabeledExample) Gold() string {
	if e.GoldRating != "" {
		return e.GoldRating
	}
	if e.Label != "" {
		return e.Label
	}
	return e.Rating
}

// #endregion labeled
