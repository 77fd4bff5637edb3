package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/blevesearch/bleve/v2/search"

	"github.com/Aman-CERP/litsearch/internal/analysis"
	"github.com/Aman-CERP/litsearch/internal/catalog"
	lserrors "github.com/Aman-CERP/litsearch/internal/errors"
)

// Result is one search hit, or an error marker standing in for a namespace
// that could not be read. Error markers carry only Namespace and Error.
type Result struct {
	ID              string       `json:"id,omitempty"`
	Category        string       `json:"category,omitempty"`
	Title           string       `json:"title,omitempty"`
	FirstName       string       `json:"firstName,omitempty"`
	LastName        string       `json:"lastName,omitempty"`
	Period          string       `json:"period,omitempty"`
	PublicDomain    string       `json:"isPublicDomain,omitempty"`
	PublicationYear int          `json:"publicationYear,omitempty"`
	TopicModel      string       `json:"topic_model,omitempty"`
	ParentID        string       `json:"parentId,omitempty"`
	ParentTitle     string       `json:"parentTitle,omitempty"`
	ActorFirstName  string       `json:"actFirstName,omitempty"`
	ActorLastName   string       `json:"actLastName,omitempty"`
	ActNumber       string       `json:"actNumber,omitempty"`
	SceneNumber     string       `json:"sceneNumber,omitempty"`
	CharFirstName   string       `json:"character_first_name,omitempty"`
	CharLastName    string       `json:"character_last_name,omitempty"`
	Context         string       `json:"context,omitempty"`
	Score           float64      `json:"score,omitempty"`
	Namespace       catalog.Kind `json:"namespace"`
	Error           string       `json:"error,omitempty"`
	Code            string       `json:"code,omitempty"`
}

// IsError reports whether r is an error marker.
func (r Result) IsError() bool {
	return r.Error != ""
}

// ErrorMarker is the placeholder for a namespace that failed to open. The
// message is fixed; the cause is logged, and only its code is exposed.
func ErrorMarker(ns catalog.Kind, err error) Result {
	code := lserrors.GetCode(err)
	if code == "" {
		code = lserrors.ErrCodeSearchFailed
	}
	return Result{
		Namespace: ns,
		Error:     fmt.Sprintf("search unavailable for %s", ns),
		Code:      code,
	}
}

// storedValues flattens a hit's stored fields to strings.
func storedValues(fields map[string]interface{}) func(string) []string {
	return func(field string) []string {
		switch v := fields[field].(type) {
		case nil:
			return nil
		case []interface{}:
			out := make([]string, 0, len(v))
			for _, item := range v {
				out = append(out, stringify(item))
			}
			return out
		default:
			return []string{stringify(v)}
		}
	}
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func first(values func(string) []string, field string) string {
	vals := values(field)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func newResult(ns catalog.Kind, hit *search.DocumentMatch, values func(string) []string) Result {
	r := Result{
		ID:             hit.ID,
		Category:       first(values, analysis.FieldCategory),
		Title:          first(values, analysis.FieldTitle),
		FirstName:      first(values, analysis.FieldFirstName),
		LastName:       first(values, analysis.FieldLastName),
		Period:         first(values, analysis.FieldPeriod),
		PublicDomain:   first(values, analysis.FieldPublicDomain),
		TopicModel:     first(values, analysis.FieldTopicModel),
		ParentID:       first(values, analysis.FieldParentID),
		ParentTitle:    first(values, analysis.FieldParentTitle),
		ActorFirstName: first(values, analysis.FieldActorFirstName),
		ActorLastName:  first(values, analysis.FieldActorLastName),
		ActNumber:      first(values, analysis.FieldActNumber),
		SceneNumber:    first(values, analysis.FieldSceneNumber),
		CharFirstName:  first(values, analysis.FieldCharFirstName),
		CharLastName:   first(values, analysis.FieldCharLastName),
		Score:          hit.Score,
		Namespace:      ns,
	}
	if y, err := strconv.ParseFloat(first(values, analysis.FieldPublicationYear), 64); err == nil {
		r.PublicationYear = int(y)
	}
	return r
}

// Encode marshals results as a JSON array; no results encode as [].
func Encode(results []Result) ([]byte, error) {
	if results == nil {
		results = []Result{}
	}
	return json.Marshal(results)
}

// WriteJSON writes results to w as a JSON array.
func WriteJSON(w io.Writer, results []Result) error {
	if results == nil {
		results = []Result{}
	}
	return json.NewEncoder(w).Encode(results)
}
