package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/netip"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"catalog-api/internal/scroll"
)

// DefaultOffsets scrolls down twice, then back up twice.
var DefaultOffsets = []float64{0, 400, 800, 600, 200}

// Sample is one scroll step: the offset asked for, the offset the page
// actually reached and the header visibility after observing it.
type Sample struct {
	Requested float64 `json:"requested"`
	Actual    float64 `json:"actual"`
	Visible   bool    `json:"visible"`
}

type ProbeOptions struct {
	// ExecPath points at a Chrome binary; empty lets chromedp find one.
	ExecPath string
	// AllowedHosts lists the only hostnames Run will visit.
	AllowedHosts []string
	Timeout      time.Duration
	Logger       *slog.Logger
}

// ScrollProbe drives a headless Chrome through a list of scroll offsets and
// feeds the real window.scrollY readings into a header tracker.
type ScrollProbe struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	allowed     []string
	timeout     time.Duration
	logger      *slog.Logger
}

func NewScrollProbe(opts ProbeOptions) *ScrollProbe {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(1280, 800),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Chrome is not started until the first Run.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	return &ScrollProbe{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		allowed:     slices.Clone(opts.AllowedHosts),
		timeout:     timeout,
		logger:      logger,
	}
}

// Run loads pageURL and scrolls it to each offset in turn.
func (p *ScrollProbe) Run(ctx context.Context, pageURL string, offsets []float64) ([]Sample, error) {
	if err := ValidateURL(pageURL, p.allowed); err != nil {
		return nil, err
	}
	if err := checkResolved(ctx, net.DefaultResolver, pageURL); err != nil {
		return nil, err
	}
	if len(offsets) == 0 {
		offsets = DefaultOffsets
	}

	taskCtx, taskCancel := chromedp.NewContext(p.allocCtx)
	defer taskCancel()

	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, p.timeout)
	defer timeoutCancel()

	// Stop when the caller goes away too.
	stop := context.AfterFunc(ctx, timeoutCancel)
	defer stop()

	// Pad the page so every requested offset is reachable.
	var height string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(
			`document.body.style.minHeight = "%dpx"`, int(slices.Max(offsets))+2*800,
		), &height),
	)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", pageURL, err)
	}

	window := scroll.NewWindow()
	tracker := scroll.NewTracker()
	detach := tracker.Attach(window)
	defer detach()

	samples := make([]Sample, 0, len(offsets))
	for _, y := range offsets {
		var actual float64
		err := chromedp.Run(taskCtx,
			chromedp.Evaluate(fmt.Sprintf(`window.scrollTo(0, %g); window.scrollY`, y), &actual),
		)
		if err != nil {
			return samples, fmt.Errorf("scroll to %g: %w", y, err)
		}

		window.Scroll(actual)
		samples = append(samples, Sample{Requested: y, Actual: actual, Visible: tracker.Visible()})
	}

	p.logger.Info("scroll probe finished",
		slog.String("url", pageURL),
		slog.Int("samples", len(samples)),
	)
	return samples, nil
}

func (p *ScrollProbe) Close() {
	if p == nil {
		return
	}
	p.allocCancel()
}

// ParseOffsets parses a comma separated list of non-negative offsets.
// An empty string yields DefaultOffsets.
func ParseOffsets(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return slices.Clone(DefaultOffsets), nil
	}

	parts := strings.Split(s, ",")
	offsets := make([]float64, 0, len(parts))
	for _, part := range parts {
		y, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || y < 0 || math.IsInf(y, 0) || math.IsNaN(y) {
			return nil, fmt.Errorf("invalid offset %q", part)
		}
		offsets = append(offsets, y)
	}
	return offsets, nil
}

var ErrHostNotAllowed = errors.New("host is not allowed")

// ValidateURL accepts absolute http and https URLs whose hostname is listed in
// allowed. Link-local, unspecified and multicast IP literals are refused even
// when listed.
func ValidateURL(raw string, allowed []string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("url must use http or https")
	}
	host := u.Hostname()
	if host == "" {
		return errors.New("url must be absolute")
	}
	if !slices.ContainsFunc(allowed, func(h string) bool { return strings.EqualFold(strings.TrimSpace(h), host) }) {
		return fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
	}
	if addr, err := netip.ParseAddr(host); err == nil && blocked(addr) {
		return fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
	}
	return nil
}

type ipResolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// checkResolved refuses hosts whose name resolves to an address that is never
// a page, such as the cloud metadata endpoint.
func checkResolved(ctx context.Context, r ipResolver, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	addrs, err := r.LookupNetIP(ctx, "ip", u.Hostname())
	if err != nil {
		return fmt.Errorf("resolve %s: %w", u.Hostname(), err)
	}
	for _, addr := range addrs {
		if blocked(addr) {
			return fmt.Errorf("%w: %s resolves to %s", ErrHostNotAllowed, u.Hostname(), addr)
		}
	}
	return nil
}

func blocked(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() ||
		addr.IsUnspecified()
}
