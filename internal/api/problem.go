package api

import (
	"encoding/json"
	"net/http"
	"sort"
)

// Problem is an RFC 7807 problem details body.
type Problem struct {
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	Status        int            `json:"status"`
	Detail        string         `json:"detail,omitempty"`
	Instance      string         `json:"instance,omitempty"`
	InvalidParams []InvalidParam `json:"invalid-params,omitempty"`
}

type InvalidParam struct {
	PropertyName string `json:"propertyName"`
	ErrorType    string `json:"errorType"`
}

func newProblem(status int, detail string) Problem {
	return Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

func fieldProblem(fields map[string]string) Problem {
	p := newProblem(http.StatusBadRequest, "There is a problem with your request")
	p.Title = "Bad Request"
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p.InvalidParams = append(p.InvalidParams, InvalidParam{PropertyName: name, ErrorType: fields[name]})
	}
	return p
}

func writeProblem(w http.ResponseWriter, r *http.Request, p Problem) {
	if p.Instance == "" {
		p.Instance = r.URL.Path
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
