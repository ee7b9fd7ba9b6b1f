// Package notify implements the Notifier port.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.Notifier = (*SlackNotifier)(nil)
	_ driven.Notifier = (*LogNotifier)(nil)
)

var anchorPattern = regexp.MustCompile(`<a href="([^"]*)">([^<]*)</a>`)

var (
	slackEscaper    = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	slackURLEscaper = strings.NewReplacer("<", "%3C", ">", "%3E", "|", "%7C")
)

// SlackNotifier posts messages to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	http       *http.Client
}

// NewSlackNotifier creates a SlackNotifier. A nil httpClient selects a
// client with a 10-second timeout.
func NewSlackNotifier(webhookURL string, httpClient *http.Client) *SlackNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &SlackNotifier{webhookURL: webhookURL, http: httpClient}
}

type slackPayload struct {
	Text string `json:"text"`
}

// Notify posts message, with HTML anchors rewritten as Slack links.
func (n *SlackNotifier) Notify(ctx context.Context, message string) error {
	body, err := json.Marshal(slackPayload{Text: SlackText(message)})
	if err != nil {
		return fmt.Errorf("encode slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("post slack message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post slack message: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}

// SlackText converts an HTML message to Slack mrkdwn. Anchors become
// <url|text> links and the remaining text is re-escaped for Slack, which
// treats only &, < and > as control characters.
func SlackText(message string) string {
	var b strings.Builder
	last := 0
	for _, m := range anchorPattern.FindAllStringSubmatchIndex(message, -1) {
		b.WriteString(slackEscape(message[last:m[0]]))
		href := html.UnescapeString(message[m[2]:m[3]])
		b.WriteString("<")
		b.WriteString(slackURLEscaper.Replace(href))
		b.WriteString("|")
		b.WriteString(slackEscape(message[m[4]:m[5]]))
		b.WriteString(">")
		last = m[1]
	}
	b.WriteString(slackEscape(message[last:]))
	return b.String()
}

func slackEscape(s string) string {
	return slackEscaper.Replace(html.UnescapeString(s))
}
