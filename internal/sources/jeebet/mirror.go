package jeebet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

const mirrorUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

// resolveMirror resolves the bookmaker's current domain from a mirror link.
// The site rotates domains; the mirror either 30x-redirects or serves a
// small HTML page whose script rewrites location. Plain HTTP is tried
// first, a headless browser handles the script case.
func resolveMirror(mirrorURL string, timeout time.Duration) (string, error) {
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return nil
		},
	}

	req, err := http.NewRequest(http.MethodHead, mirrorURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", mirrorUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return resolveMirrorWithJS(mirrorURL, timeout)
	}
	resp.Body.Close()

	if finalURL := resp.Request.URL.String(); finalURL != mirrorURL {
		slog.Info("Resolved bookmaker mirror", "mirror", mirrorURL, "resolved", finalURL, "via", "http")
		return finalURL, nil
	}

	// HEAD didn't move, check whether GET serves a script redirect.
	req, err = http.NewRequest(http.MethodGet, mirrorURL, nil)
	if err != nil {
		return resolveMirrorWithJS(mirrorURL, timeout)
	}
	req.Header.Set("User-Agent", mirrorUserAgent)

	resp, err = client.Do(req)
	if err != nil {
		return resolveMirrorWithJS(mirrorURL, timeout)
	}
	defer resp.Body.Close()

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if err == nil {
			s := string(body)
			if strings.Contains(s, "window.location") || strings.Contains(s, "location.href") ||
				strings.Contains(s, "document.location") {
				return resolveMirrorWithJS(mirrorURL, timeout)
			}
		}
	}

	if finalURL := resp.Request.URL.String(); finalURL != mirrorURL {
		slog.Info("Resolved bookmaker mirror", "mirror", mirrorURL, "resolved", finalURL, "via", "http")
		return finalURL, nil
	}
	return resolveMirrorWithJS(mirrorURL, timeout)
}

// resolveMirrorWithJS loads the mirror page in a headless browser and reads
// the location after scripts run.
func resolveMirrorWithJS(mirrorURL string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(mirrorUserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	ctx, cancel = chromedp.NewContext(allocCtx)
	defer cancel()

	var finalURL string
	err := chromedp.Run(ctx,
		chromedp.Navigate(mirrorURL),
		chromedp.Sleep(2*time.Second),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return "", fmt.Errorf("headless navigation: %w", err)
	}

	if finalURL == "" || finalURL == mirrorURL {
		err = chromedp.Run(ctx,
			chromedp.Sleep(3*time.Second),
			chromedp.Location(&finalURL),
		)
		if err != nil {
			return "", fmt.Errorf("headless wait: %w", err)
		}
	}

	if finalURL == "" {
		return "", fmt.Errorf("failed to resolve mirror URL %s", mirrorURL)
	}
	if finalURL != mirrorURL {
		slog.Info("Resolved bookmaker mirror", "mirror", mirrorURL, "resolved", finalURL, "via", "headless")
	}
	return finalURL, nil
}
