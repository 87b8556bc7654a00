package render

import (
	"net/url"
	"strings"

	"ghclient/internal/logging"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

var (
	htmlPolicy    = bluemonday.UGCPolicy()
	htmlConverter = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
)

// HTMLToMarkdown sanitizes an HTML body as rendered by the API and converts
// it to Markdown. Relative links are resolved against origin.
func HTMLToMarkdown(html, origin string) (string, error) {
	clean := htmlPolicy.Sanitize(html)
	md, err := htmlConverter.ConvertString(clean, converter.WithDomain(origin))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}

// bodyText prefers the server-rendered HTML body and falls back to the raw
// Markdown body.
func bodyText(body, bodyHTML, pageURL string) string {
	if strings.TrimSpace(bodyHTML) == "" {
		return body
	}
	md, err := HTMLToMarkdown(bodyHTML, originOf(pageURL))
	if err != nil || md == "" {
		logging.Debug("Falling back to raw body", "url", pageURL, "error", err)
		return body
	}
	return md
}

// originOf returns scheme://host of u, or "" when u is not absolute.
func originOf(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
