package models

import "time"

// Project is the metadata for a generated project scaffold
type Project struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Stack      string    `json:"stack"`
	Path       string    `json:"path"`
	Files      []string  `json:"files"`
	PreviewURL string    `json:"preview_url,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
