package backend

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Filter narrows search, stats and chat requests.
type Filter struct {
	Topic     string
	StartYear *int
	EndYear   *int
}

func (f Filter) query() url.Values {
	q := url.Values{}
	if f.Topic != "" {
		q.Set("topic", f.Topic)
	}
	if f.StartYear != nil {
		q.Set("startYear", strconv.Itoa(*f.StartYear))
	}
	if f.EndYear != nil {
		q.Set("endYear", strconv.Itoa(*f.EndYear))
	}
	return q
}

// Year is a publication year. The backend sends it as a number, a numeric
// string, or null; anything unparseable decodes to zero.
type Year int

func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*y = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*y = Year(int(f))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*y = 0
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		*y = 0
		return nil
	}
	*y = Year(n)
	return nil
}

func (y Year) MarshalJSON() ([]byte, error) {
	if y == 0 {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(y))), nil
}

func (y Year) String() string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(int(y))
}

// Paper is a search hit.
type Paper struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Authors      []string            `json:"authors"`
	Year         Year                `json:"year"`
	Journal      string              `json:"journal"`
	Keywords     []string            `json:"keywords"`
	Abstract     string              `json:"abstract"`
	TopicID      string              `json:"topicId"`
	AbstractMeta *AbstractMeta       `json:"abstractMeta,omitempty"`
	Structured   *StructuredAbstract `json:"structured,omitempty"`
}

// AbstractMeta is the metadata block split out of a raw abstract.
type AbstractMeta struct {
	Keywords  string `json:"keywords,omitempty"`
	CLC       string `json:"clc,omitempty"`
	DocCode   string `json:"docCode,omitempty"`
	ArticleID string `json:"articleId,omitempty"`
}

// StructuredAbstract holds the extracted sections of a paper.
type StructuredAbstract struct {
	Background       string `json:"background"`
	ResearchQuestion string `json:"research_question"`
	Methods          string `json:"methods"`
	Conclusions      string `json:"conclusions"`
	Contributions    string `json:"contributions"`
	Limitations      string `json:"limitations"`
}

type TopicCount struct {
	TopicID string `json:"topic_id"`
	Count   int    `json:"count"`
}

type YearCount struct {
	Year  Year `json:"year"`
	Count int  `json:"count"`
}

type NameValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// SearchResult is the response of the search endpoint.
type SearchResult struct {
	Results           []Paper      `json:"results"`
	Total             int          `json:"total"`
	TopicDistribution []TopicCount `json:"topicDistribution,omitempty"`
	YearDistribution  []YearCount  `json:"yearDistribution,omitempty"`
}

// DashboardStats holds aggregate series. Chart-only payloads stay raw.
type DashboardStats struct {
	YearlyCounts             []YearCount     `json:"yearlyCounts"`
	TopKeywords              []NameValue     `json:"topKeywords"`
	AttitudeDistribution     []NameValue     `json:"attitudeDistribution"`
	ResearchPathDistribution []NameValue     `json:"researchPathDistribution"`
	Clusters                 json.RawMessage `json:"clusters,omitempty"`
	TopicDistribution        json.RawMessage `json:"topicDistribution,omitempty"`
	Cooccurrence             json.RawMessage `json:"cooccurrence,omitempty"`
	TrendSeries              json.RawMessage `json:"trendSeries,omitempty"`
	AttitudeEvolution        json.RawMessage `json:"attitudeEvolution,omitempty"`
}

type ChatRequest struct {
	Question  string `json:"question"`
	Topic     string `json:"topic,omitempty"`
	StartYear *int   `json:"startYear,omitempty"`
	EndYear   *int   `json:"endYear,omitempty"`
}

type ChatResponse struct {
	Answer             string   `json:"answer"`
	ReferencedPaperIDs []string `json:"referencedPaperIds"`
}

type GenerateRequest struct {
	Topic     string `json:"topic"`
	StartYear *int   `json:"startYear,omitempty"`
	EndYear   *int   `json:"endYear,omitempty"`
}

type GenerateResponse struct {
	Draft    string   `json:"draft"`
	PaperIDs []string `json:"paperIds"`
}

type RefineRequest struct {
	Draft    string   `json:"draft"`
	Question string   `json:"question"`
	Topic    string   `json:"topic,omitempty"`
	PaperIDs []string `json:"paperIds,omitempty"`
}

type RefineResponse struct {
	Draft string `json:"draft"`
}

// ExportFormat selects the server-side rendering of a draft.
type ExportFormat string

const (
	ExportPlain ExportFormat = "txt"
	ExportLaTeX ExportFormat = "latex"
)

// ParseExportFormat accepts the wire names plus a few common aliases.
func ParseExportFormat(s string) (ExportFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text", "plain":
		return ExportPlain, true
	case "latex", "tex":
		return ExportLaTeX, true
	}
	return "", false
}

type ExportRequest struct {
	Draft  string       `json:"draft"`
	Format ExportFormat `json:"format"`
}

type ExportResponse struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
	Mime     string `json:"mime,omitempty"`
}

// PaperBrief is the minimal bibliographic record used in reference lists.
type PaperBrief struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Year    Year     `json:"year"`
	Journal string   `json:"journal"`
}

type papersResponse struct {
	Papers []PaperBrief `json:"papers"`
}
