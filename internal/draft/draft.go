package draft

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jonathan/resume-studio/internal/types"
)

const (
	// DefaultTitle is the title given to a freshly created draft
	DefaultTitle = "Professional Resume"
	// UntitledTitle replaces a blank title on hydrated drafts
	UntitledTitle = "Untitled"
	// DefaultTheme is the template theme of a new draft
	DefaultTheme = "modern"
)

// WholeItem is the key passed to UpdateArrayItem to replace an entire element
// instead of patching one of its fields.
const WholeItem = ""

// New returns an empty draft with one blank placeholder in every sequence.
func New() types.Draft {
	return types.Draft{
		Title: DefaultTitle,
		Template: types.Template{
			Theme:        DefaultTheme,
			ColorPalette: []string{},
		},
		WorkExperience: []types.WorkExperience{{}},
		Education:      []types.Education{{}},
		Skills:         []types.Skill{{}},
		Projects:       []types.Project{{}},
		Certifications: []types.Certification{{}},
		Languages:      []types.Language{{}},
		Interests:      []string{""},
	}
}

// Hydrate merges a persisted draft over the blank seed. Sections that are
// absent or empty in the stored record keep their placeholder so every
// sequence stays non-empty.
func Hydrate(stored types.Draft) types.Draft {
	d := New()

	d.Title = stored.Title
	if strings.TrimSpace(d.Title) == "" {
		d.Title = UntitledTitle
	}
	d.ThumbnailLink = stored.ThumbnailLink
	if stored.Template.Theme != "" {
		d.Template = stored.Template
		if d.Template.ColorPalette == nil {
			d.Template.ColorPalette = []string{}
		}
	}
	d.ProfileInfo = stored.ProfileInfo
	d.ContactInfo = stored.ContactInfo

	d.WorkExperience = keepSeed(stored.WorkExperience, d.WorkExperience)
	d.Education = keepSeed(stored.Education, d.Education)
	d.Skills = keepSeed(stored.Skills, d.Skills)
	d.Projects = keepSeed(stored.Projects, d.Projects)
	d.Certifications = keepSeed(stored.Certifications, d.Certifications)
	d.Languages = keepSeed(stored.Languages, d.Languages)
	d.Interests = keepSeed(stored.Interests, d.Interests)

	return d
}

func keepSeed[T any](stored, seed []T) []T {
	if len(stored) == 0 {
		return seed
	}
	return slices.Clone(stored)
}

// DisplayTitle returns the draft title, or the default when it is blank.
func DisplayTitle(d types.Draft) string {
	if t := strings.TrimSpace(d.Title); t != "" {
		return d.Title
	}
	return DefaultTitle
}

// SetTitle replaces the title. A blank title falls back to the default.
func SetTitle(d types.Draft, title string) types.Draft {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	d.Title = title
	return d
}

// SetTheme replaces the template selector wholesale.
func SetTheme(d types.Draft, theme string, palette []string) types.Draft {
	if palette == nil {
		palette = []string{}
	}
	d.Template = types.Template{
		Theme:        theme,
		ColorPalette: slices.Clone(palette),
	}
	return d
}

// UpdateField replaces one field inside a scalar section
// (profileInfo, contactInfo or template) and returns the new draft.
func UpdateField(d types.Draft, section types.Section, key string, value any) (types.Draft, error) {
	var err error
	switch section {
	case types.SectionProfileInfo:
		d.ProfileInfo, err = setProfileInfo(d.ProfileInfo, key, value)
	case types.SectionContactInfo:
		d.ContactInfo, err = setContactInfo(d.ContactInfo, key, value)
	case types.SectionTemplate:
		d.Template, err = setTemplate(d.Template, key, value)
	default:
		return d, &FieldError{Section: string(section), Message: "not a scalar section"}
	}
	if err != nil {
		return d, &FieldError{Section: string(section), Key: key, Message: "cannot update field", Cause: err}
	}
	return d, nil
}

// Len returns the number of elements in a sequence section.
func Len(d types.Draft, section types.Section) (int, error) {
	switch section {
	case types.SectionWorkExperience:
		return len(d.WorkExperience), nil
	case types.SectionEducation:
		return len(d.Education), nil
	case types.SectionSkills:
		return len(d.Skills), nil
	case types.SectionProjects:
		return len(d.Projects), nil
	case types.SectionCertifications:
		return len(d.Certifications), nil
	case types.SectionLanguages:
		return len(d.Languages), nil
	case types.SectionInterests:
		return len(d.Interests), nil
	}
	return 0, &FieldError{Section: string(section), Message: "not a sequence section"}
}

// CheckIndex returns an IndexError when index is outside the section bounds.
// Callers at an I/O boundary use it before UpdateArrayItem or RemoveArrayItem,
// which treat a bad index as a programming error.
func CheckIndex(d types.Draft, section types.Section, index int) error {
	n, err := Len(d, section)
	if err != nil {
		return err
	}
	if index < 0 || index >= n {
		return &IndexError{Section: string(section), Index: index, Length: n}
	}
	return nil
}

func mustIndex(d types.Draft, section types.Section, index int) {
	if err := CheckIndex(d, section, index); err != nil {
		panic(fmt.Sprintf("draft: %v", err))
	}
}

// UpdateArrayItem changes one element of a sequence section. When key is
// WholeItem the element is replaced by value; otherwise the named field of the
// element is set. The sequence length never changes. An out-of-range index
// panics.
func UpdateArrayItem(d types.Draft, section types.Section, index int, key string, value any) (types.Draft, error) {
	mustIndex(d, section, index)

	var err error
	switch section {
	case types.SectionWorkExperience:
		d.WorkExperience, err = updateItem(d.WorkExperience, index, key, value, setWorkExperience)
	case types.SectionEducation:
		d.Education, err = updateItem(d.Education, index, key, value, setEducation)
	case types.SectionSkills:
		d.Skills, err = updateItem(d.Skills, index, key, value, setSkill)
	case types.SectionProjects:
		d.Projects, err = updateItem(d.Projects, index, key, value, setProject)
	case types.SectionCertifications:
		d.Certifications, err = updateItem(d.Certifications, index, key, value, setCertification)
	case types.SectionLanguages:
		d.Languages, err = updateItem(d.Languages, index, key, value, setLanguage)
	case types.SectionInterests:
		d.Interests, err = updateItem(d.Interests, index, key, value, setInterest)
	}
	if err != nil {
		return d, &FieldError{Section: string(section), Key: key, Message: "cannot update item", Cause: err}
	}
	return d, nil
}

// AppendArrayItem adds one element at the end of a sequence section.
// item may be the element type itself or its decoded JSON form.
func AppendArrayItem(d types.Draft, section types.Section, item any) (types.Draft, error) {
	var err error
	switch section {
	case types.SectionWorkExperience:
		d.WorkExperience, err = appendItem(d.WorkExperience, item)
	case types.SectionEducation:
		d.Education, err = appendItem(d.Education, item)
	case types.SectionSkills:
		d.Skills, err = appendItem(d.Skills, item)
	case types.SectionProjects:
		d.Projects, err = appendItem(d.Projects, item)
	case types.SectionCertifications:
		d.Certifications, err = appendItem(d.Certifications, item)
	case types.SectionLanguages:
		d.Languages, err = appendItem(d.Languages, item)
	case types.SectionInterests:
		d.Interests, err = appendItem(d.Interests, item)
	default:
		return d, &FieldError{Section: string(section), Message: "not a sequence section"}
	}
	if err != nil {
		return d, &FieldError{Section: string(section), Message: "cannot append item", Cause: err}
	}
	return d, nil
}

// RemoveArrayItem deletes the element at index from a sequence section.
// An out-of-range index panics.
func RemoveArrayItem(d types.Draft, section types.Section, index int) types.Draft {
	mustIndex(d, section, index)

	switch section {
	case types.SectionWorkExperience:
		d.WorkExperience = removeItem(d.WorkExperience, index)
	case types.SectionEducation:
		d.Education = removeItem(d.Education, index)
	case types.SectionSkills:
		d.Skills = removeItem(d.Skills, index)
	case types.SectionProjects:
		d.Projects = removeItem(d.Projects, index)
	case types.SectionCertifications:
		d.Certifications = removeItem(d.Certifications, index)
	case types.SectionLanguages:
		d.Languages = removeItem(d.Languages, index)
	case types.SectionInterests:
		d.Interests = removeItem(d.Interests, index)
	}
	return d
}

// Clone returns a deep copy of d. Mutation functions never write into shared
// slices, so Clone is only needed before handing a draft to code that does.
func Clone(d types.Draft) types.Draft {
	d.Template.ColorPalette = slices.Clone(d.Template.ColorPalette)
	d.WorkExperience = slices.Clone(d.WorkExperience)
	d.Education = slices.Clone(d.Education)
	d.Skills = slices.Clone(d.Skills)
	d.Projects = slices.Clone(d.Projects)
	d.Certifications = slices.Clone(d.Certifications)
	d.Languages = slices.Clone(d.Languages)
	d.Interests = slices.Clone(d.Interests)
	return d
}

func updateItem[T any](items []T, index int, key string, value any, set func(T, string, any) (T, error)) ([]T, error) {
	var next T
	var err error
	if key == WholeItem {
		next, err = decodeItem[T](value)
	} else {
		next, err = set(items[index], key, value)
	}
	if err != nil {
		return items, err
	}
	out := slices.Clone(items)
	out[index] = next
	return out, nil
}

func appendItem[T any](items []T, item any) ([]T, error) {
	next, err := decodeItem[T](item)
	if err != nil {
		return items, err
	}
	return append(slices.Clip(items), next), nil
}

func removeItem[T any](items []T, index int) []T {
	return slices.Delete(slices.Clone(items), index, index+1)
}
