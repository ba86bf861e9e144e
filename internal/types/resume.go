// Package types provides type definitions for structured data used throughout the portfolio service.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "sort"

// Resume is the validated content document every page section renders from.
// It is treated as read-only once loaded.
type Resume struct {
	Basics     Basics       `json:"basics"`
	Skills     []SkillGroup `json:"skills"`
	Experience []Experience `json:"experience"`
	Projects   []Project    `json:"projects,omitempty"`
	Education  []Education  `json:"education"`
}

// Basics holds the identity and contact fields shown in the hero and contact sections
type Basics struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Headline string `json:"headline"`
	Location string `json:"location"`
	Email    string `json:"email"`
	GitHub   string `json:"github"`
	LinkedIn string `json:"linkedin"`
	Summary  string `json:"summary"`
}

// SkillGroup is a named category of skills
type SkillGroup struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Experience is a single role. Featured entries carry an optional
// problem/solution/impact narrative for the selected work section.
type Experience struct {
	Company    string   `json:"company"`
	Role       string   `json:"role"`
	Location   string   `json:"location"`
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Featured   *bool    `json:"featured,omitempty"`
	Problem    *string  `json:"problem,omitempty"`
	Solution   *string  `json:"solution,omitempty"`
	Impact     *string  `json:"impact,omitempty"`
	Highlights []string `json:"highlights"`
}

// Project is a personal or professional project card
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Link         *string  `json:"link,omitempty"`
	GitHub       *string  `json:"github,omitempty"`
	Image        *string  `json:"image,omitempty"`
	Date         *string  `json:"date,omitempty"`
	Visible      *bool    `json:"visible,omitempty"`
	Featured     *bool    `json:"featured,omitempty"`
}

// Education is a single degree entry
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Period      string `json:"period"`
}

// Link is a labeled outbound link tracked on click
type Link struct {
	Label string
	URL   string
}

// IsFeatured reports whether the experience is marked featured
func (e Experience) IsFeatured() bool {
	return e.Featured != nil && *e.Featured
}

// IsFeatured reports whether the project is marked featured
func (p Project) IsFeatured() bool {
	return p.Featured != nil && *p.Featured
}

// IsVisible reports whether the project should be shown. Projects are
// visible unless explicitly hidden.
func (p Project) IsVisible() bool {
	return p.Visible == nil || *p.Visible
}

// FeaturedExperience returns the featured entries in document order.
func (r *Resume) FeaturedExperience() []Experience {
	var featured []Experience
	for _, exp := range r.Experience {
		if exp.IsFeatured() {
			featured = append(featured, exp)
		}
	}
	return featured
}

// VisibleProjects returns visible projects with featured ones first.
// Ordering within each group follows the document.
func (r *Resume) VisibleProjects() []Project {
	var visible []Project
	for _, p := range r.Projects {
		if p.IsVisible() {
			visible = append(visible, p)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].IsFeatured() && !visible[j].IsFeatured()
	})
	return visible
}

// Links returns the contact links in display order.
func (b Basics) Links() []Link {
	return []Link{
		{Label: "Email", URL: "mailto:" + b.Email},
		{Label: "GitHub", URL: b.GitHub},
		{Label: "LinkedIn", URL: b.LinkedIn},
	}
}
