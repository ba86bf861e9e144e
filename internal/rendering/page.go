package rendering

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/jonathan/portfolio/internal/content"
	"github.com/jonathan/portfolio/internal/types"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// TrackerScriptPath is where the page loads its telemetry script from.
const TrackerScriptPath = "/static/tracker.js"

// Metadata is the document head content used by browsers and link previews.
type Metadata struct {
	Title       string
	Description string
	SiteName    string
	SiteURL     string
	ImageURL    string
	Keywords    []string
}

// PageData is passed to the page template.
type PageData struct {
	Meta       Metadata
	Basics     types.Basics
	Featured   []types.Experience
	Projects   []types.Project
	Skills     []types.SkillGroup
	Experience []types.Experience
	Education  []types.Education
	Links      []types.Link
	TrackerSrc string
}

// NewMetadata derives page metadata from the resume basics.
func NewMetadata(basics types.Basics, siteURL string) Metadata {
	siteURL = strings.TrimSuffix(siteURL, "/")
	return Metadata{
		Title:       basics.Name + content.DateRangeSeparator + basics.Title,
		Description: basics.Summary,
		SiteName:    basics.Name,
		SiteURL:     siteURL,
		ImageURL:    siteURL + "/opengraph-image.png",
		Keywords:    []string{"software engineer", "portfolio", basics.Title},
	}
}

// NewPageData builds the template data for a resume.
func NewPageData(resume *types.Resume, siteURL string) *PageData {
	return &PageData{
		Meta:       NewMetadata(resume.Basics, siteURL),
		Basics:     resume.Basics,
		Featured:   resume.FeaturedExperience(),
		Projects:   resume.VisibleProjects(),
		Skills:     resume.Skills,
		Experience: resume.Experience,
		Education:  resume.Education,
		Links:      resume.Basics.Links(),
		TrackerSrc: TrackerScriptPath,
	}
}

// Page is a parsed page template ready to render resumes.
type Page struct {
	tmpl *template.Template
}

// NewPage parses the page template. An empty templatePath uses the built-in
// template; otherwise the file at templatePath is used.
func NewPage(templatePath string) (*Page, error) {
	tmpl, err := parseTemplate("page", "templates/page.html.tmpl", templatePath)
	if err != nil {
		return nil, err
	}
	return &Page{tmpl: tmpl}, nil
}

// Render writes the page for resume to w.
func (p *Page) Render(w io.Writer, resume *types.Resume, siteURL string) error {
	if resume == nil {
		return &RenderError{Message: "resume is nil"}
	}
	if err := p.tmpl.Execute(w, NewPageData(resume, siteURL)); err != nil {
		return &TemplateError{
			Message: "failed to execute template",
			Cause:   err,
		}
	}
	return nil
}

// StaticFiles returns the embedded static assets rooted at the static
// directory, so "tracker.js" is at the top level.
func StaticFiles() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return staticFS
	}
	return sub
}

// Static serves StaticFiles. Mounted under /static/ it serves the tracker
// at TrackerScriptPath.
func Static() http.FileSystem {
	return http.FS(StaticFiles())
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"dateRange":  content.FormatDateRange,
		"markdown":   Markdown,
		"inline":     InlineMarkdown,
		"trimScheme": trimScheme,
		"deref":      deref,
		"join":       strings.Join,
	}
}

// parseTemplate reads and parses a template, from overridePath when set or
// from the embedded file otherwise.
func parseTemplate(name, embedded, overridePath string) (*template.Template, error) {
	var (
		source []byte
		err    error
	)
	if overridePath != "" {
		source, err = os.ReadFile(overridePath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, &TemplateError{
					Message: fmt.Sprintf("template file not found: %s", overridePath),
					Cause:   err,
				}
			}
			return nil, &TemplateError{
				Message: fmt.Sprintf("failed to read template file: %s", overridePath),
				Cause:   err,
			}
		}
	} else {
		source, err = templateFS.ReadFile(embedded)
		if err != nil {
			return nil, &TemplateError{Message: "embedded template missing: " + embedded, Cause: err}
		}
	}

	tmpl, err := template.New(name).Funcs(funcMap()).Parse(string(source))
	if err != nil {
		return nil, &TemplateError{
			Message: "failed to parse template",
			Cause:   err,
		}
	}
	return tmpl, nil
}

func trimScheme(url string) string {
	url = strings.TrimPrefix(url, "https://")
	return strings.TrimPrefix(url, "http://")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
