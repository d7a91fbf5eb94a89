// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import "strings"

// maxSectionLen caps the size of a single parsed section.
const maxSectionLen = 100000

// Sections holds the recognizable parts of a paper split out of its
// extracted text.
type Sections struct {
	Abstract     string `json:"abstract"`
	Introduction string `json:"introduction"`
	Methodology  string `json:"methodology"`
	Results      string `json:"results"`
	Conclusion   string `json:"conclusion"`
	References   string `json:"references"`
}

// sectionHeaders maps keywords to section targets, checked in order.
// A short line containing a keyword switches the current section.
var sectionHeaders = []struct {
	keywords []string
	assign   func(*Sections) *string
}{
	{[]string{"abstract"}, func(s *Sections) *string { return &s.Abstract }},
	{[]string{"introduction", "background"}, func(s *Sections) *string { return &s.Introduction }},
	{[]string{"method", "approach", "model", "implementation"}, func(s *Sections) *string { return &s.Methodology }},
	{[]string{"result", "evaluation", "experiment", "performance"}, func(s *Sections) *string { return &s.Results }},
	{[]string{"conclusion", "discussion", "future work"}, func(s *Sections) *string { return &s.Conclusion }},
	{[]string{"reference", "bibliography"}, func(s *Sections) *string { return &s.References }},
}

// ParseSections splits extracted text into paper sections using a line
// heuristic: a line shorter than 30 characters containing a section
// keyword starts that section. Text before any header lands in the
// abstract. Each section is truncated at maxSectionLen.
func ParseSections(text string) Sections {
	var s Sections
	if text == "" {
		return s
	}

	current := &s.Abstract
	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		lower := strings.ToLower(line)

		if target := matchHeader(&s, line, lower); target != nil {
			current = target
			continue
		}

		if line != "" {
			*current += line + "\n"
		}
	}

	for _, f := range []*string{&s.Abstract, &s.Introduction, &s.Methodology, &s.Results, &s.Conclusion, &s.References} {
		if len(*f) > maxSectionLen {
			*f = (*f)[:maxSectionLen] + "... [truncated]"
		}
	}
	return s
}

func matchHeader(s *Sections, line, lower string) *string {
	if len(line) >= 30 {
		return nil
	}
	for _, h := range sectionHeaders {
		for _, kw := range h.keywords {
			if strings.Contains(lower, kw) {
				return h.assign(s)
			}
		}
	}
	return nil
}
