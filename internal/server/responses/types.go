// Package responses defines the JSON bodies returned by the pagepress API.
package responses

import (
	"time"

	"git.home.luguber.info/inful/pagepress/internal/journal"
	"git.home.luguber.info/inful/pagepress/internal/pipeline"
)

// StatusResponse is returned by /api/status.
type StatusResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Uptime    float64           `json:"uptime"`
	StartTime time.Time         `json:"start_time"`
	Pipeline  pipeline.Snapshot `json:"pipeline"`
}

// RevisionsResponse is returned by /api/revisions.
type RevisionsResponse struct {
	Session   string          `json:"session"`
	Revisions []journal.Entry `json:"revisions"`
}

// ArtifactHeader mirrors the artifact header without its size bookkeeping.
type ArtifactHeader struct {
	Version int    `json:"version"`
	Theme   string `json:"theme"`
	Target  string `json:"target"`
	Style   string `json:"style"`
	Digest  string `json:"digest"`
}

// ArtifactBody is the decoded page fragment for one theme.
type ArtifactBody struct {
	Title string   `json:"title"`
	HTML  string   `json:"html"`
	Fonts []string `json:"fonts"`
}

// ArtifactResponse is returned by /api/artifacts/{name}.
type ArtifactResponse struct {
	Name   string         `json:"name"`
	Header ArtifactHeader `json:"header"`
	Body   ArtifactBody   `json:"body"`
}

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
}
