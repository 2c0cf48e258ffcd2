// Package browser executes structured actions against a remote headless
// browser over CDP. Each call is a fresh acquire/execute/release cycle; a
// connection is never held across two invocations.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/shehryarbajwa/browserpilot/pkg/models"
)

const (
	navigateTimeout = 30 * time.Second
	elementTimeout  = 10 * time.Second
	settleDelay     = 2 * time.Second
)

// Result is what one executed action produced. Screenshot is a PNG of the
// viewport after the action; Extracted is only set for extract actions.
type Result struct {
	Screenshot []byte
	Extracted  map[string]string
}

// Executor runs one action at a time against a remote ws endpoint
type Executor struct {
	stealth bool
}

// NewExecutor creates an executor. When stealthEnabled is set, freshly
// opened pages get the stealth evasions injected.
func NewExecutor(stealthEnabled bool) *Executor {
	return &Executor{stealth: stealthEnabled}
}

// Execute connects to the remote browser, runs the action and captures a
// post-action screenshot. Any failure is logged and converted to a nil
// result so the caller can degrade the turn instead of aborting it.
func (e *Executor) Execute(ctx context.Context, wsEndpoint string, action models.Action) *Result {
	result, err := e.execute(ctx, wsEndpoint, action)
	if err != nil {
		log.Warn("browser: action failed", "type", action.Type, "error", err)
		return nil
	}
	return result
}

func (e *Executor) execute(ctx context.Context, wsEndpoint string, action models.Action) (_ *Result, retErr error) {
	// rod surfaces some CDP failures as panics; treat them like errors
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("browser panic: %v", r)
		}
	}()

	browser := rod.New().Context(ctx).ControlURL(wsEndpoint)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := e.acquirePage(browser)
	if err != nil {
		return nil, err
	}

	result := &Result{}

	switch action.Type {
	case models.ActionGoto:
		err = e.navigate(page, action.URL)
	case models.ActionClick:
		err = e.click(page, action.Selector)
	case models.ActionFill:
		err = e.fill(page, action.Selector, action.Text)
	case models.ActionExtract:
		result.Extracted = e.extract(page, action.Selectors)
	case models.ActionScroll:
		err = e.scroll(page, action.Direction)
	case models.ActionScreenshot:
		time.Sleep(500 * time.Millisecond)
	default:
		// Unknown types are a no-op that still yields a screenshot
		log.Debug("browser: unknown action type, screenshot only", "type", action.Type)
	}
	if err != nil {
		return nil, err
	}

	// Unconditional, even for variants whose purpose is not visual
	shot, err := page.Screenshot(false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	result.Screenshot = shot

	return result, nil
}

// acquirePage reuses the first open page if one exists, else opens a fresh
// one.
func (e *Executor) acquirePage(browser *rod.Browser) (*rod.Page, error) {
	pages, err := browser.Pages()
	if err == nil && len(pages) > 0 {
		return pages.First(), nil
	}

	if e.stealth {
		return stealth.Page(browser)
	}
	return browser.Page(proto.TargetCreateTarget{})
}

func (e *Executor) navigate(page *rod.Page, urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("goto action without a url")
	}

	log.Debug("browser: navigating", "url", urlStr)

	page = page.Timeout(navigateTimeout)
	if err := page.Navigate(urlStr); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		log.Warn("browser: WaitLoad timeout, continuing", "url", urlStr)
	}

	// Give dynamic content a moment to settle
	stable := page.Timeout(settleDelay)
	if err := stable.WaitStable(500 * time.Millisecond); err != nil {
		log.Debug("browser: stability wait timeout (normal for SPAs)", "url", urlStr)
	}

	return nil
}

func (e *Executor) click(page *rod.Page, selector string) error {
	el, err := page.Timeout(elementTimeout).Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s", selector)
	}

	if err := el.ScrollIntoView(); err != nil {
		log.Warn("browser: failed to scroll into view", "error", err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}

	page.WaitStable(time.Second)
	return nil
}

func (e *Executor) fill(page *rod.Page, selector, text string) error {
	el, err := page.Timeout(elementTimeout).Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s", selector)
	}

	// Clear existing content, then input replaces the selection
	if err := el.SelectAllText(); err != nil {
		log.Warn("browser: failed to select text", "error", err)
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}

	return nil
}

// extract is best-effort per selector: missing elements yield an empty
// string, never an error.
func (e *Executor) extract(page *rod.Page, selectors []string) map[string]string {
	extracted := make(map[string]string, len(selectors))

	for _, selector := range selectors {
		if selector == "title" {
			info, err := page.Info()
			if err == nil {
				extracted[selector] = info.Title
			} else {
				extracted[selector] = ""
			}
			continue
		}

		el, err := page.Timeout(elementTimeout).Element(selector)
		if err != nil {
			extracted[selector] = ""
			continue
		}
		text, err := el.Text()
		if err != nil {
			extracted[selector] = ""
			continue
		}
		extracted[selector] = text
	}

	return extracted
}

// scroll moves roughly one viewport height up or down
func (e *Executor) scroll(page *rod.Page, direction string) error {
	var err error
	switch direction {
	case "up":
		_, err = page.Eval(`() => window.scrollBy(0, -window.innerHeight)`)
	default:
		_, err = page.Eval(`() => window.scrollBy(0, window.innerHeight)`)
	}
	if err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}
