package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/JakeFAU/floorplan-crawler/internal/crawler"
)

// Defaults for the gallery page layout.
const (
	DefaultProjectLinkXPath = "/html/body/main/div/div/aside/div[2]/div[1]/a/@href"
	DefaultKeyParam         = "key"
)

// HTMLKeyExtractor pulls the project key out of a gallery page.
type HTMLKeyExtractor struct {
	xpath    string
	keyParam string
	logger   *zap.Logger
}

// NewHTMLKeyExtractor builds an extractor. Empty xpath or keyParam fall back to
// the gallery defaults.
func NewHTMLKeyExtractor(xpath, keyParam string, logger *zap.Logger) *HTMLKeyExtractor {
	if xpath == "" {
		xpath = DefaultProjectLinkXPath
	}
	if keyParam == "" {
		keyParam = DefaultKeyParam
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTMLKeyExtractor{xpath: xpath, keyParam: keyParam, logger: logger}
}

// Extract accepts nil, []byte or string.
func (e *HTMLKeyExtractor) Extract(input any) (crawler.Extraction, error) {
	var body []byte
	switch v := input.(type) {
	case nil:
	case []byte:
		body = v
	case string:
		body = []byte(v)
	default:
		return crawler.Extraction{}, fmt.Errorf("html extractor got %T: %w", input, crawler.ErrUnsupportedInput)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		e.logger.Error("empty html data")
		return crawler.FailedExtraction("empty HTML body"), nil
	}

	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		e.logger.Error("could not parse html data", zap.Error(err))
		return crawler.FailedExtraction("parse html: %v", err), nil
	}

	node, err := htmlquery.Query(doc, e.xpath)
	if err != nil {
		e.logger.Error("invalid project link xpath", zap.String("xpath", e.xpath), zap.Error(err))
		return crawler.FailedExtraction("evaluate xpath: %v", err), nil
	}
	if node == nil {
		e.logger.Error("could not extract href attribute from html data")
		return crawler.FailedExtraction("no element matches %s", e.xpath), nil
	}

	href := hrefOf(node)
	if href == "" {
		e.logger.Error("could not extract href attribute from html data")
		return crawler.FailedExtraction("empty href"), nil
	}

	value := queryParam(href, e.keyParam)
	if value == "" {
		e.logger.Error("could not extract param value from url", zap.String("href", href), zap.String("param", e.keyParam))
		return crawler.FailedExtraction("no %q parameter in %s", e.keyParam, href), nil
	}
	return crawler.ParameterExtraction(value), nil
}

// hrefOf reads the link from either an attribute match or an anchor element match.
func hrefOf(node *html.Node) string {
	if href := htmlquery.SelectAttr(node, "href"); href != "" {
		return href
	}
	return strings.TrimSpace(htmlquery.InnerText(node))
}

func queryParam(href, name string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return u.Query().Get(name)
}
