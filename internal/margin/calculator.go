package margin

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Config drives the SPAN calculator page.
type Config struct {
	URL            string
	Expiry         string // contract expiry as the scrip list shows it, e.g. 26-DEC-2024
	Headless       bool
	StepWait       time.Duration
	SettleWait     time.Duration // after the last leg, before reading the total
	Timeout        time.Duration
	TotalSelectors []string
}

// Calculator owns one browser tab on the SPAN calculator.
type Calculator struct {
	cfg      Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

var _ Quoter = (*Calculator)(nil)

func NewCalculator(ctx context.Context, cfg Config) (*Calculator, error) {
	if cfg.Expiry == "" {
		return nil, errors.New("margin expiry is required")
	}
	if len(cfg.TotalSelectors) == 0 {
		return nil, errors.New("at least one total selector is required")
	}

	l := launcher.New().Headless(cfg.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	c := &Calculator{cfg: cfg, launcher: l, browser: browser}
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	c.page = page
	if err := page.Timeout(cfg.Timeout).Navigate(cfg.URL); err != nil {
		c.Close()
		return nil, fmt.Errorf("navigate %s: %w", cfg.URL, err)
	}
	if err := page.Timeout(cfg.Timeout).WaitLoad(); err != nil {
		c.Close()
		return nil, fmt.Errorf("wait for %s: %w", cfg.URL, err)
	}
	return c, nil
}

// form is the calculator page as a quote drives it.
type form interface {
	pickScrip(scrip string) error
	click(selector string) error
	selectValue(selector, value string) error
	fill(selector, text string) error
	total(selectors []string) (string, error)
	// reset clears the basket after a successful quote.
	reset() error
	// reload navigates the tab afresh, dropping any legs a failed quote left behind.
	reload() error
}

// Quote adds the future (sell), the ATM put (sell) and the ATM call (buy) for
// stock, reads the basket total, then resets the form.
func (c *Calculator) Quote(ctx context.Context, stock, strike string) (float64, error) {
	f := &rodForm{
		page:  c.page.Context(ctx).Timeout(c.cfg.Timeout),
		fresh: c.page.Timeout(c.cfg.Timeout),
		url:   c.cfg.URL,
	}
	return c.quote(ctx, f, stock, strike)
}

func (c *Calculator) quote(ctx context.Context, f form, stock, strike string) (amount float64, err error) {
	defer func() {
		if err == nil {
			return
		}
		if rerr := f.reload(); rerr != nil {
			err = errors.Join(err, fmt.Errorf("reload calculator: %w", rerr))
		}
	}()

	if err := f.pickScrip(stock + " " + c.cfg.Expiry); err != nil {
		return 0, err
	}

	steps := []func() error{
		func() error { return f.click(`input[type="radio"][value="sell"]`) },
		func() error { return f.click(`input[type="submit"][value="Add"]`) },
		func() error { return f.selectValue("select#product", "OPT") },
		func() error { return f.selectValue("select#option_type", "PE") },
		func() error { return f.fill("input#strike_price", strike) },
		func() error { return f.click(`input[type="submit"][value="Add"]`) },
		func() error { return f.selectValue("select#option_type", "CE") },
		func() error { return f.click(`input[type="radio"][value="buy"]`) },
		func() error { return f.click(`input[type="submit"][value="Add"]`) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return 0, err
		}
		if err := c.pause(ctx, c.cfg.StepWait); err != nil {
			return 0, err
		}
	}
	if err := c.pause(ctx, c.cfg.SettleWait); err != nil {
		return 0, err
	}

	text, err := f.total(c.cfg.TotalSelectors)
	if err != nil {
		return 0, err
	}
	amount, err = ParseMargin(text)
	if err != nil {
		return 0, err
	}
	if err := f.reset(); err != nil {
		return 0, err
	}
	return amount, nil
}

// rodForm drives the live page. page carries the quote's context; fresh does
// not, so a reload still runs after the quote's context is cancelled.
type rodForm struct {
	page  *rod.Page
	fresh *rod.Page
	url   string
}

func (f *rodForm) pickScrip(scrip string) error {
	if err := f.click("span#select2-scrip-container"); err != nil {
		return err
	}
	if _, err := f.page.Element("ul.select2-results__options"); err != nil {
		return fmt.Errorf("scrip list: %w", err)
	}
	opt, err := f.page.ElementR("li.select2-results__option", regexp.QuoteMeta(scrip))
	if err != nil {
		return fmt.Errorf("scrip %q not listed: %w", scrip, err)
	}
	return opt.Click(proto.InputMouseButtonLeft, 1)
}

// total tries each selector in turn since the page markup has changed over time.
func (f *rodForm) total(selectors []string) (string, error) {
	var lastErr error
	for _, sel := range selectors {
		has, el, err := f.page.Has(sel)
		if err != nil {
			lastErr = err
			continue
		}
		if !has {
			continue
		}
		text, err := el.Text()
		if err != nil {
			lastErr = err
			continue
		}
		if _, err := ParseMargin(text); err == nil {
			return text, nil
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("read total margin: %w", lastErr)
	}
	return "", errors.New("total margin not found on page")
}

func (f *rodForm) click(selector string) error {
	el, err := f.page.Element(selector)
	if err != nil {
		return fmt.Errorf("element not found %s: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (f *rodForm) selectValue(selector, value string) error {
	el, err := f.page.Element(selector)
	if err != nil {
		return fmt.Errorf("element not found %s: %w", selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return err
	}
	return el.Select([]string{fmt.Sprintf(`option[value="%s"]`, value)}, true, rod.SelectorTypeCSSSector)
}

func (f *rodForm) fill(selector, text string) error {
	el, err := f.page.Element(selector)
	if err != nil {
		return fmt.Errorf("element not found %s: %w", selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(text)
}

func (f *rodForm) reset() error {
	if err := f.click("input#reset"); err != nil {
		return err
	}
	return f.page.WaitLoad()
}

func (f *rodForm) reload() error {
	if err := f.fresh.Navigate(f.url); err != nil {
		return err
	}
	return f.fresh.WaitLoad()
}

func (c *Calculator) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (c *Calculator) Close() error {
	var err error
	if c.browser != nil {
		err = c.browser.Close()
	}
	if c.launcher != nil {
		c.launcher.Kill()
	}
	return err
}
