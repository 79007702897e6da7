package plugin

import (
	"errors"
	"strings"
	"testing"

	"github.com/lysyi3m/page-comb/app/catalog"
)

const articleParserYAML = `
name: Example articles
match:
  - '^https?://(www\.)?example\.com/articles/'
redirect:
  pattern: '^https?://m\.example\.com/articles/(.*)$'
  replace: 'https://example.com/articles/$1'
fields:
  title: h1
  tags:
    selector: '.tag'
    all: true
  image:
    selector: 'img.hero'
    attr: src
    absolute: true
  body:
    selector: '.content'
    html: true
  missing: '.does-not-exist'
  comments:
    selector: '.comment'
    all: true
    fields:
      author: '.author'
      text: '.text'
`

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Page title</title></head>
<body>
  <h1>  Hello world  </h1>
  <span class="tag">go</span><span class="tag">web</span>
  <img class="hero" src="/img/hero.png">
  <div class="content"><p>Body</p></div>
  <div class="comment"><span class="author">ann</span><p class="text">First!</p></div>
  <div class="comment"><span class="author">bob</span><p class="text">Second</p></div>
</body>
</html>`

func makeParser(t *testing.T, text string) *Parser {
	t.Helper()
	parser, err := NewFactory().MakeParser(&catalog.File{Name: "test.yml", Text: text, Link: "https://github.com/octo/plugins/blob/main/parsers/test.yml"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return parser
}

func TestParserDefinition(t *testing.T) {
	parser := makeParser(t, articleParserYAML)

	if parser.Name() != "Example articles" {
		t.Errorf("Expected name 'Example articles', got '%s'", parser.Name())
	}
	if parser.Link() != "https://github.com/octo/plugins/blob/main/parsers/test.yml" {
		t.Errorf("Unexpected link '%s'", parser.Link())
	}
	if parser.Type() != ParserTypeHTML {
		t.Errorf("Expected default type html, got '%s'", parser.Type())
	}
}

func TestParserMatches(t *testing.T) {
	parser := makeParser(t, articleParserYAML)

	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/articles/1", true},
		{"http://www.example.com/articles/abc?x=1", true},
		{"https://example.com/about", false},
		{"https://nomatch.example", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := parser.Matches(tt.url); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestParserMatchSingleString(t *testing.T) {
	parser := makeParser(t, `
name: Single
match: '^https://single\.example/'
fields:
  title: h1
`)
	if !parser.Matches("https://single.example/page") {
		t.Error("Expected single-string match pattern to be accepted")
	}
}

func TestParserRedirectURL(t *testing.T) {
	parser := makeParser(t, articleParserYAML)

	if got := parser.RedirectURL("https://m.example.com/articles/42"); got != "https://example.com/articles/42" {
		t.Errorf("Expected rewritten URL, got '%s'", got)
	}
	if got := parser.RedirectURL("https://example.com/articles/42"); got != "" {
		t.Errorf("Expected no redirect, got '%s'", got)
	}

	noRedirect := makeParser(t, `
name: Plain
match: '^https://plain\.example/'
fields:
  title: h1
`)
	if got := noRedirect.RedirectURL("https://plain.example/"); got != "" {
		t.Errorf("Expected no redirect for parser without redirect, got '%s'", got)
	}
}

func TestParserExtractHTML(t *testing.T) {
	parser := makeParser(t, articleParserYAML)

	pageParser, err := parser.ForPage("https://example.com/articles/1", articlePage)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	tree, err := pageParser.Extract()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if tree["title"] != "Hello world" {
		t.Errorf("Expected trimmed title 'Hello world', got '%v'", tree["title"])
	}

	tags, ok := tree["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "go" || tags[1] != "web" {
		t.Errorf("Expected tags [go web], got %#v", tree["tags"])
	}

	if tree["image"] != "https://example.com/img/hero.png" {
		t.Errorf("Expected absolute image URL, got '%v'", tree["image"])
	}

	if tree["body"] != "<p>Body</p>" {
		t.Errorf("Expected inner HTML body, got '%v'", tree["body"])
	}

	if tree["missing"] != "" {
		t.Errorf("Expected empty string for missing field, got '%v'", tree["missing"])
	}

	comments, ok := tree["comments"].([]any)
	if !ok || len(comments) != 2 {
		t.Fatalf("Expected 2 comments, got %#v", tree["comments"])
	}
	second, ok := comments[1].(map[string]any)
	if !ok || second["author"] != "bob" || second["text"] != "Second" {
		t.Errorf("Unexpected second comment: %#v", comments[1])
	}
}

func TestParserForPageIsIndependent(t *testing.T) {
	parser := makeParser(t, articleParserYAML)

	first, err := parser.ForPage("https://example.com/articles/1", `<h1>One</h1>`)
	if err != nil {
		t.Fatal(err)
	}
	second, err := parser.ForPage("https://example.com/articles/2", `<h1>Two</h1>`)
	if err != nil {
		t.Fatal(err)
	}

	firstTree, _ := first.Extract()
	secondTree, _ := second.Extract()

	if firstTree["title"] != "One" || secondTree["title"] != "Two" {
		t.Errorf("Expected page-bound extraction, got '%v' and '%v'", firstTree["title"], secondTree["title"])
	}
}

func TestParserExtractFeed(t *testing.T) {
	parser := makeParser(t, `
name: Blog feed
match: '^https://blog\.example/feed'
type: feed
`)

	rss := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Blog</title>
    <link>https://blog.example</link>
    <description>Posts</description>
    <item>
      <title>First post</title>
      <link>https://blog.example/1</link>
      <description>Hello</description>
      <category>go</category>
      <pubDate>Mon, 03 Jul 2023 10:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

	pageParser, err := parser.ForPage("https://blog.example/feed", rss)
	if err != nil {
		t.Fatal(err)
	}
	tree, err := pageParser.Extract()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if tree["title"] != "Blog" {
		t.Errorf("Expected feed title 'Blog', got '%v'", tree["title"])
	}

	items, ok := tree["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("Expected 1 item, got %#v", tree["items"])
	}
	item := items[0].(map[string]any)
	if item["title"] != "First post" {
		t.Errorf("Expected item title 'First post', got '%v'", item["title"])
	}
	if item["published"] != "2023-07-03T10:00:00Z" {
		t.Errorf("Expected RFC3339 published date, got '%v'", item["published"])
	}
	categories := item["categories"].([]any)
	if len(categories) != 1 || categories[0] != "go" {
		t.Errorf("Expected categories [go], got %#v", categories)
	}
}

func TestParserExtractFeedInvalid(t *testing.T) {
	parser := makeParser(t, `
name: Blog feed
match: '^https://blog\.example/feed'
type: feed
`)

	pageParser, err := parser.ForPage("https://blog.example/feed", "not a feed")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pageParser.Extract(); err == nil {
		t.Error("Expected error for invalid feed")
	}
}

func TestParserExtractArticle(t *testing.T) {
	parser := makeParser(t, `
name: Readable
match: '^https://news\.example/'
type: article
fields:
  heading: 'article h1'
`)

	page := `<!DOCTYPE html>
<html>
<head><title>Test Article</title></head>
<body>
  <header><h1>Site Header</h1><nav>Navigation</nav></header>
  <main>
    <article>
      <h1>Main Article Title</h1>
      <p>This is the main content of the article. It contains several paragraphs of meaningful text that should be extracted by the readability algorithm.</p>
      <p>This is another paragraph with more content. The readability algorithm should identify this as the main content area and extract it properly.</p>
      <p>Here is some more substantial content to ensure we meet the character threshold. This paragraph adds more context and information that would be valuable to readers.</p>
    </article>
  </main>
  <footer><p>Copyright 2024</p></footer>
</body>
</html>`

	pageParser, err := parser.ForPage("https://news.example/story", page)
	if err != nil {
		t.Fatal(err)
	}
	tree, err := pageParser.Extract()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	content, _ := tree["content"].(string)
	if !strings.Contains(content, "main content of the article") {
		t.Errorf("Expected readable content, got '%s'", content)
	}
	if tree["heading"] != "Main Article Title" {
		t.Errorf("Expected selector field merged into article tree, got '%v'", tree["heading"])
	}
}

func TestParserDefinitionErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"invalid yaml", "name: [unclosed"},
		{"missing name", "match: '^https://x/'\nfields:\n  title: h1\n"},
		{"missing match", "name: X\nfields:\n  title: h1\n"},
		{"bad match pattern", "name: X\nmatch: '('\nfields:\n  title: h1\n"},
		{"bad redirect pattern", "name: X\nmatch: x\nredirect:\n  pattern: '('\nfields:\n  title: h1\n"},
		{"unknown type", "name: X\nmatch: x\ntype: pdf\n"},
		{"html without fields", "name: X\nmatch: x\n"},
		{"feed with fields", "name: X\nmatch: x\ntype: feed\nfields:\n  title: h1\n"},
		{"bad selector", "name: X\nmatch: x\nfields:\n  title: 'h1[['\n"},
		{"empty selector", "name: X\nmatch: x\nfields:\n  title:\n    attr: href\n"},
		{"nested fields with attr", "name: X\nmatch: x\nfields:\n  item:\n    selector: li\n    attr: id\n    fields:\n      a: a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFactory().MakeParser(&catalog.File{Name: "bad.yml", Text: tt.text, Link: "bad.yml"})
			if err == nil {
				t.Fatal("Expected definition error")
			}

			var defErr *DefinitionError
			if !errors.As(err, &defErr) {
				t.Fatalf("Expected DefinitionError, got %T: %v", err, err)
			}
			if defErr.Link != "bad.yml" {
				t.Errorf("Expected link 'bad.yml', got '%s'", defErr.Link)
			}
		})
	}
}
