package intent

import (
	"regexp"
	"strings"
)

// Classification labels one inbound message. Project creation wins ties:
// when NeedsProject is true the browser check is skipped for that turn.
type Classification struct {
	NeedsBrowser bool
	NeedsProject bool
}

// Classifier labels an incoming message. The keyword implementation below is
// the default; it can be swapped for a model-based one without touching
// callers.
type Classifier interface {
	Classify(message string) Classification
}

// urlPattern matches bare domains and full URLs ("google.com", "https://...")
var urlPattern = regexp.MustCompile(`(?i)\bhttps?://\S+|\b[a-z0-9-]+\.(com|org|net|io|dev|co|ai|edu|gov)\b`)

var browserKeywords = []string{
	"go to", "goto", "navigate", "open", "visit", "browse",
	"click", "fill", "type", "search", "scroll",
	"extract", "scrape", "screenshot", "website", "webpage", "web page",
	"google", "amazon", "wikipedia", "youtube", "github",
}

var projectKeywords = []string{
	"build me", "create a", "create an", "make me", "make a",
	"new project", "new app", "scaffold", "boilerplate",
	"web app", "webapp", "full-stack", "fullstack", "landing page",
}

// Keyword is the default membership-test classifier. It never fails; the
// worst case is a misclassification.
type Keyword struct{}

// NewKeyword creates the default keyword classifier
func NewKeyword() *Keyword {
	return &Keyword{}
}

// Classify labels the message by case-insensitive substring matching.
func (k *Keyword) Classify(message string) Classification {
	lower := strings.ToLower(message)

	for _, kw := range projectKeywords {
		if strings.Contains(lower, kw) {
			return Classification{NeedsProject: true}
		}
	}

	if urlPattern.MatchString(lower) {
		return Classification{NeedsBrowser: true}
	}
	for _, kw := range browserKeywords {
		if strings.Contains(lower, kw) {
			return Classification{NeedsBrowser: true}
		}
	}

	return Classification{}
}
