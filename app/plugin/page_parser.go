package plugin

import (
	"fmt"
	"maps"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// PageParser is a Parser bound to the document of one fetched page.
type PageParser struct {
	parser *Parser
	base   *url.URL
	text   string
	doc    *goquery.Document
}

func (pp *PageParser) Extract() (Tree, error) {
	switch pp.parser.definition.Type {
	case ParserTypeFeed:
		return pp.extractFeed()
	case ParserTypeArticle:
		tree, err := pp.extractArticle()
		if err != nil {
			return nil, err
		}
		maps.Copy(tree, pp.extractFields())
		return tree, nil
	default:
		return pp.extractFields(), nil
	}
}

func (pp *PageParser) extractFields() Tree {
	return Tree(extractFields(pp.doc.Selection, pp.parser.definition.Fields, pp.base))
}

func extractFields(root *goquery.Selection, fields map[string]*FieldDefinition, base *url.URL) map[string]any {
	values := make(map[string]any, len(fields))
	for name, field := range fields {
		values[name] = extractField(root, field, base)
	}
	return values
}

func extractField(root *goquery.Selection, field *FieldDefinition, base *url.URL) any {
	matches := root.FindMatcher(field.matcher)

	if field.All {
		values := make([]any, 0, matches.Length())
		matches.Each(func(_ int, s *goquery.Selection) {
			values = append(values, fieldValue(s, field, base))
		})
		return values
	}

	first := matches.First()
	if first.Length() == 0 {
		if len(field.Fields) > 0 {
			return map[string]any{}
		}
		return ""
	}
	return fieldValue(first, field, base)
}

func fieldValue(s *goquery.Selection, field *FieldDefinition, base *url.URL) any {
	if len(field.Fields) > 0 {
		return extractFields(s, field.Fields, base)
	}

	var value string
	switch {
	case field.Attr != "":
		value, _ = s.Attr(field.Attr)
	case field.HTML:
		value, _ = s.Html()
	default:
		value = s.Text()
	}
	value = strings.TrimSpace(value)

	if field.Absolute && value != "" && base != nil {
		if resolved, err := base.Parse(value); err == nil {
			value = resolved.String()
		}
	}

	return value
}

func (pp *PageParser) extractFeed() (Tree, error) {
	feed, err := pp.parser.services.feedParser().ParseString(pp.text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	tree := Tree{
		"title":       feed.Title,
		"description": feed.Description,
		"link":        feed.Link,
		"language":    feed.Language,
		"image":       "",
	}
	if feed.Image != nil {
		tree["image"] = feed.Image.URL
	}

	items := make([]any, 0, len(feed.Items))
	for _, item := range feed.Items {
		items = append(items, feedItem(item))
	}
	tree["items"] = items

	return tree, nil
}

func feedItem(item *gofeed.Item) map[string]any {
	published := item.Published
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.Format(time.RFC3339)
	}

	authors := make([]any, 0, len(item.Authors))
	for _, author := range item.Authors {
		if author != nil && strings.TrimSpace(author.Name) != "" {
			authors = append(authors, strings.TrimSpace(author.Name))
		}
	}

	categories := make([]any, 0, len(item.Categories))
	for _, category := range item.Categories {
		categories = append(categories, category)
	}

	return map[string]any{
		"title":       item.Title,
		"link":        item.Link,
		"description": item.Description,
		"content":     item.Content,
		"published":   published,
		"authors":     authors,
		"categories":  categories,
	}
}

func (pp *PageParser) extractArticle() (Tree, error) {
	article, err := pp.parser.services.extractArticle(pp.text, pp.base)
	if err != nil {
		return nil, fmt.Errorf("failed to extract article: %w", err)
	}

	return Tree{
		"title":     article.Title,
		"byline":    article.Byline,
		"excerpt":   article.Excerpt,
		"content":   article.Content,
		"text":      strings.TrimSpace(article.TextContent),
		"site_name": article.SiteName,
		"image":     article.Image,
	}, nil
}
