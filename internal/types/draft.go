// Package types provides type definitions for structured data used throughout the resume-studio system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// Draft is the structured resume document authored in the editor.
// Every sequence is expected to hold at least one element; the editor seeds
// a blank placeholder for each.
type Draft struct {
	Title          string           `json:"title"`
	ThumbnailLink  string           `json:"thumbnailLink"`
	Template       Template         `json:"template"`
	ProfileInfo    ProfileInfo      `json:"profileInfo"`
	ContactInfo    ContactInfo      `json:"contactInfo"`
	WorkExperience []WorkExperience `json:"workExperience"`
	Education      []Education      `json:"education"`
	Skills         []Skill          `json:"skills"`
	Projects       []Project        `json:"projects"`
	Certifications []Certification  `json:"certifications"`
	Languages      []Language       `json:"languages"`
	Interests      []string         `json:"interests"`
}

// Template selects the visual theme used to render the draft
type Template struct {
	Theme        string   `json:"theme"`
	ColorPalette []string `json:"colorPalette"`
}

// ProfileInfo holds the headline section of the resume
type ProfileInfo struct {
	ProfilePreviewURL string `json:"profilePreviewUrl,omitempty"`
	FullName          string `json:"fullName"`
	Designation       string `json:"designation"`
	Summary           string `json:"summary"`
}

// ContactInfo holds contact details and profile links
type ContactInfo struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Website  string `json:"website"`
}

// WorkExperience is a single position held
type WorkExperience struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

// Education is a single degree or program
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// Skill is a named skill with a self-assessed level from 1 to 100
type Skill struct {
	Name     string `json:"name"`
	Progress int    `json:"progress"`
}

// Project is a portfolio entry
type Project struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	GitHub      string `json:"github"`
	LiveDemo    string `json:"liveDemo"`
}

// Certification is a credential issued by a third party
type Certification struct {
	Title  string `json:"title"`
	Issuer string `json:"issuer"`
	Year   string `json:"year"`
}

// Language is a spoken language with a proficiency from 1 to 100
type Language struct {
	Name     string `json:"name"`
	Progress int    `json:"progress"`
}

// DraftRecord is a draft as stored by the persistence layer
type DraftRecord struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	Completion int       `json:"completion"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Draft
}

// DraftPayload is the body sent to the store on update: the full section set
// plus the completion percentage computed at save time.
type DraftPayload struct {
	Draft
	Completion int `json:"completion"`
}

// Section names a top-level part of a draft
type Section string

// Scalar sections hold a single record of string fields.
const (
	SectionProfileInfo Section = "profileInfo"
	SectionContactInfo Section = "contactInfo"
	SectionTemplate    Section = "template"
)

// Sequence sections hold ordered lists of elements.
const (
	SectionWorkExperience Section = "workExperience"
	SectionEducation      Section = "education"
	SectionSkills         Section = "skills"
	SectionProjects       Section = "projects"
	SectionCertifications Section = "certifications"
	SectionLanguages      Section = "languages"
	SectionInterests      Section = "interests"
)

// IsScalar reports whether s is a scalar section
func (s Section) IsScalar() bool {
	switch s {
	case SectionProfileInfo, SectionContactInfo, SectionTemplate:
		return true
	}
	return false
}

// IsSequence reports whether s is a sequence section
func (s Section) IsSequence() bool {
	switch s {
	case SectionWorkExperience, SectionEducation, SectionSkills, SectionProjects,
		SectionCertifications, SectionLanguages, SectionInterests:
		return true
	}
	return false
}
