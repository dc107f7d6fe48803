// Package shell renders the page chrome around the dashboard: header
// navigation, hero copy, the informational overlays and the footer.
package shell

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

//go:embed content/*.md
var contentFS embed.FS

//go:embed templates/layout.html
var layoutHTML string

// Topic is one informational overlay.
type Topic struct {
	Slug     string
	NavLabel string
	Title    string
	Markdown string
	HTML     template.HTML
}

// Page is the data the layout renders.
type Page struct {
	Title string
	// Body is trusted, already-rendered HTML for the main slot.
	Body template.HTML
	// Overlay, when set, is shown as a modal above the body.
	Overlay *Topic
	// CloseHref is where the overlay's dismiss controls link to.
	CloseHref string
	// RefreshSeconds adds a meta refresh when positive.
	RefreshSeconds int
	// Head is extra trusted markup for <head>, such as chart scripts.
	Head template.HTML
	Year int
}

// Hero and footer copy
const (
	HeroTitle     = "Advancing the Global"
	HeroHighlight = "Energy Transition."
	HeroLead      = "SolarSight combines high-resolution irradiance telemetry with LightGBM gradient boosting to forecast solar yield, supporting residential energy autonomy, institutional ESG reporting and carbon-neutral municipal infrastructure."
	DismissLabel  = "Dismiss Intelligence"
)

// SDGGoal is a UN Sustainable Development Goal shown in the footer.
type SDGGoal struct {
	Number int
	Name   string
}

// FooterGoals lists the goals in display order.
var FooterGoals = []SDGGoal{
	{7, "Affordable & Clean Energy"},
	{11, "Sustainable Cities"},
	{13, "Climate Action"},
}

var topicOrder = []struct{ slug, nav string }{
	{"forecasting", "Forecasting"},
	{"insights", "Global Insights"},
	{"methodology", "Methodology"},
}

var (
	loadOnce sync.Once
	topics   []Topic
	bySlug   map[string]int
	layout   *template.Template
	loadErr  error
)

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
}

func load() error {
	loadOnce.Do(func() {
		md := newMarkdown()
		bySlug = make(map[string]int, len(topicOrder))
		for _, t := range topicOrder {
			src, err := contentFS.ReadFile("content/" + t.slug + ".md")
			if err != nil {
				loadErr = fmt.Errorf("failed to read topic %s: %w", t.slug, err)
				return
			}
			topic, err := renderTopic(md, t.slug, t.nav, src)
			if err != nil {
				loadErr = err
				return
			}
			bySlug[t.slug] = len(topics)
			topics = append(topics, topic)
		}

		layout, loadErr = template.New("layout").Parse(layoutHTML)
		if loadErr != nil {
			loadErr = fmt.Errorf("failed to parse layout template: %w", loadErr)
		}
	})
	return loadErr
}

// renderTopic converts markdown to HTML. The first level-one heading
// becomes the title and is dropped from the body.
func renderTopic(md goldmark.Markdown, slug, nav string, src []byte) (Topic, error) {
	doc := md.Parser().Parse(text.NewReader(src))

	title := nav
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			title = string(h.Text(src))
			doc.RemoveChild(doc, h)
			break
		}
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, doc); err != nil {
		return Topic{}, fmt.Errorf("failed to render topic %s: %w", slug, err)
	}
	return Topic{
		Slug:     slug,
		NavLabel: nav,
		Title:    title,
		Markdown: string(src),
		HTML:     template.HTML(buf.String()),
	}, nil
}

// Topics returns all overlay topics in navigation order.
func Topics() []Topic {
	if load() != nil {
		return nil
	}
	return append([]Topic(nil), topics...)
}

// LookupTopic returns the topic with the given slug.
func LookupTopic(slug string) (Topic, bool) {
	if load() != nil {
		return Topic{}, false
	}
	i, ok := bySlug[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return Topic{}, false
	}
	return topics[i], true
}

type layoutData struct {
	Page
	Topics        []Topic
	HeroTitle     string
	HeroHighlight string
	HeroLead      string
	DismissLabel  string
	Goals         []SDGGoal
}

// Render writes the full page.
func Render(w io.Writer, p Page) error {
	if err := load(); err != nil {
		return err
	}
	if p.Title == "" {
		p.Title = "SolarSight"
	}
	if p.Year == 0 {
		p.Year = time.Now().Year()
	}
	if p.CloseHref == "" {
		p.CloseHref = "/"
	}

	data := layoutData{
		Page:          p,
		Topics:        topics,
		HeroTitle:     HeroTitle,
		HeroHighlight: HeroHighlight,
		HeroLead:      HeroLead,
		DismissLabel:  DismissLabel,
		Goals:         FooterGoals,
	}
	if err := layout.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render layout: %w", err)
	}
	return nil
}
