package rendering

import (
	"embed"
	"html/template"
	"os"
	"regexp"
	"strings"

	"github.com/jonathan/resume-studio/internal/dom"
	"github.com/jonathan/resume-studio/internal/types"
)

// Element ids of the two capture roots in a rendered preview.
const (
	ResumePreviewID    = "resume-preview"
	ThumbnailPreviewID = "thumbnail-preview"
)

//go:embed templates/preview.html.tmpl
var templatesFS embed.FS

const defaultTemplate = "templates/preview.html.tmpl"

// colorValue admits CSS color syntax and nothing that could end a declaration.
var colorValue = regexp.MustCompile(`^\s*[#a-zA-Z0-9(),.%/ -]+\s*$`)

// themeAccents are the default accent colors per theme, written the way the
// design system emits them.
var themeAccents = map[string]string{
	"modern":  "oklch(0.546 0.245 262.881)",
	"classic": "oklch(0.373 0.034 259.733)",
	"minimal": "oklch(0.21 0.006 285.885)",
}

// TemplateData represents the data structure passed to the preview template
type TemplateData struct {
	Title          string
	Theme          string
	Accent         template.CSS
	Palette        []string
	Profile        types.ProfileInfo
	Contact        []ContactItem
	Companies      []CompanySection
	Education      []types.Education
	Skills         []types.Skill
	Projects       []types.Project
	Certifications []types.Certification
	Languages      []types.Language
	Interests      []string
}

// ContactItem is one line of the contact block
type ContactItem struct {
	Label string
	Value string
	Href  template.URL
}

// CompanySection represents a company with one or more roles
type CompanySection struct {
	Company string
	Roles   []RoleSection
}

// RoleSection represents a role within a company with merged date ranges
type RoleSection struct {
	Role         string
	DateRanges   string // e.g., "2020-08 - 2021-10, 2023-07 - Present"
	Descriptions []string
}

// Render renders the preview page for d. An empty templatePath uses the
// built-in template.
func Render(d types.Draft, templatePath string) (string, error) {
	tmpl, err := parseTemplate(templatePath)
	if err != nil {
		return "", err
	}

	var result strings.Builder
	if err := tmpl.Execute(&result, buildTemplateData(d)); err != nil {
		return "", &TemplateError{
			Phase:    PhaseExecute,
			Template: templatePath,
			Message:  "failed to execute template",
			Cause:    err,
		}
	}
	return result.String(), nil
}

// RenderDocument renders the preview and parses it into a visual tree.
func RenderDocument(d types.Draft, templatePath string) (*dom.Document, error) {
	html, err := Render(d, templatePath)
	if err != nil {
		return nil, err
	}
	doc, err := dom.ParseString(html)
	if err != nil {
		return nil, &TemplateError{
			Phase:    PhaseMount,
			Template: templatePath,
			Message:  "rendered preview is not a usable document",
			Cause:    err,
		}
	}
	return doc, nil
}

// parseTemplate reads and parses a preview template file
func parseTemplate(templatePath string) (*template.Template, error) {
	var content []byte
	var err error
	if templatePath == "" {
		content, err = templatesFS.ReadFile(defaultTemplate)
	} else {
		content, err = os.ReadFile(templatePath)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TemplateError{
				Phase:    PhaseLoad,
				Template: templatePath,
				Message:  "template file not found",
				Cause:    err,
			}
		}
		return nil, &TemplateError{
			Phase:    PhaseLoad,
			Template: templatePath,
			Message:  "failed to read template file",
			Cause:    err,
		}
	}

	tmpl, err := template.New("preview").Funcs(template.FuncMap{
		"displayURL": DisplayURL,
		"dateRange":  DateRange,
		"initials":   Initials,
		"percent":    clampPercent,
		"imageSrc":   imageURL,
	}).Parse(string(content))
	if err != nil {
		return nil, &TemplateError{
			Phase:    PhaseParse,
			Template: templatePath,
			Message:  "failed to parse template",
			Cause:    err,
		}
	}
	return tmpl, nil
}

// buildTemplateData constructs the template data from a draft, dropping
// blank placeholder entries.
func buildTemplateData(d types.Draft) *TemplateData {
	theme := d.Template.Theme
	if _, ok := themeAccents[theme]; !ok {
		theme = "modern"
	}
	accent := themeAccents[theme]
	if len(d.Template.ColorPalette) > 0 && colorValue.MatchString(d.Template.ColorPalette[0]) {
		accent = strings.TrimSpace(d.Template.ColorPalette[0])
	}

	data := &TemplateData{
		Title:     d.Title,
		Theme:     theme,
		Accent:    template.CSS(accent),
		Palette:   d.Template.ColorPalette,
		Profile:   d.ProfileInfo,
		Contact:   contactItems(d.ContactInfo),
		Companies: groupByCompanyAndRole(d.WorkExperience),
	}
	for _, e := range d.Education {
		if !blank(e.Degree, e.Institution) {
			data.Education = append(data.Education, e)
		}
	}
	for _, s := range d.Skills {
		if !blank(s.Name) {
			data.Skills = append(data.Skills, s)
		}
	}
	for _, p := range d.Projects {
		if !blank(p.Title, p.Description) {
			data.Projects = append(data.Projects, p)
		}
	}
	for _, c := range d.Certifications {
		if !blank(c.Title, c.Issuer) {
			data.Certifications = append(data.Certifications, c)
		}
	}
	for _, l := range d.Languages {
		if !blank(l.Name) {
			data.Languages = append(data.Languages, l)
		}
	}
	for _, i := range d.Interests {
		if !blank(i) {
			data.Interests = append(data.Interests, i)
		}
	}
	return data
}

func contactItems(c types.ContactInfo) []ContactItem {
	candidates := []ContactItem{
		{Label: "Email", Value: c.Email, Href: linkURL("mailto:" + c.Email)},
		{Label: "Phone", Value: c.Phone, Href: linkURL("tel:" + c.Phone)},
		{Label: "Location", Value: c.Location},
		{Label: "LinkedIn", Value: DisplayURL(c.LinkedIn), Href: linkURL(c.LinkedIn)},
		{Label: "GitHub", Value: DisplayURL(c.GitHub), Href: linkURL(c.GitHub)},
		{Label: "Website", Value: DisplayURL(c.Website), Href: linkURL(c.Website)},
	}
	var out []ContactItem
	for _, item := range candidates {
		if !blank(item.Value) {
			out = append(out, item)
		}
	}
	return out
}

// roleKey is used for grouping entries by company and role
type roleKey struct {
	Company string
	Role    string
}

// groupByCompanyAndRole groups work entries by company, then by role, in
// order of first appearance, merging date ranges of repeated roles.
func groupByCompanyAndRole(work []types.WorkExperience) []CompanySection {
	roleData := make(map[roleKey][]types.WorkExperience)
	companyOrder := []string{}
	companyRoleOrder := make(map[string][]string)
	seenRoles := make(map[roleKey]bool)

	for _, w := range work {
		if blank(w.Company, w.Role) {
			continue
		}
		key := roleKey{Company: strings.TrimSpace(w.Company), Role: strings.TrimSpace(w.Role)}
		if _, ok := companyRoleOrder[key.Company]; !ok {
			companyOrder = append(companyOrder, key.Company)
			companyRoleOrder[key.Company] = nil
		}
		if !seenRoles[key] {
			seenRoles[key] = true
			companyRoleOrder[key.Company] = append(companyRoleOrder[key.Company], key.Role)
		}
		roleData[key] = append(roleData[key], w)
	}

	companies := make([]CompanySection, 0, len(companyOrder))
	for _, company := range companyOrder {
		section := CompanySection{Company: company}
		for _, role := range companyRoleOrder[company] {
			entries := roleData[roleKey{Company: company, Role: role}]
			rs := RoleSection{Role: role, DateRanges: mergeDateRanges(entries)}
			for _, e := range entries {
				if !blank(e.Description) {
					rs.Descriptions = append(rs.Descriptions, e.Description)
				}
			}
			section.Roles = append(section.Roles, rs)
		}
		companies = append(companies, section)
	}
	return companies
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

var linkSchemes = []string{"http://", "https://", "mailto:", "tel:"}

// linkURL trusts href only when it uses a known scheme; anything else renders
// without a link.
func linkURL(href string) template.URL {
	h := strings.TrimSpace(href)
	lower := strings.ToLower(h)
	for _, s := range linkSchemes {
		if strings.HasPrefix(lower, s) && len(h) > len(s) {
			return template.URL(h)
		}
	}
	return ""
}

// imageURL admits web and inline image sources.
func imageURL(src string) template.URL {
	s := strings.TrimSpace(src)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:image/") {
		return template.URL(s)
	}
	return ""
}
