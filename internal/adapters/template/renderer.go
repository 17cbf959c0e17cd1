// Package template renders outreach emails from operator-editable template
// files. A template is a plain text file whose first line is the subject and
// whose remaining lines are the body.
package template

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"coldmailer/internal/core"
)

// StylePatterns holds the greeting patterns for one style. Patterns may use
// the {title}, {first_name} and {last_name} placeholders.
type StylePatterns struct {
	WithTitle    string
	WithoutTitle string
}

// Sender identifies the person on whose behalf emails are written.
type Sender struct {
	Name      string
	Signature string
}

// Config configures a Renderer.
type Config struct {
	Dir           string
	Styles        map[string]StylePatterns
	Sender        Sender
	SubjectPrefix string
}

// Renderer is a core.TemplateRenderer backed by .tmpl files on disk.
type Renderer struct {
	cfg Config
}

// NewRenderer creates a renderer reading templates from cfg.Dir.
func NewRenderer(cfg Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// templateData is the namespace exposed to template authors.
type templateData struct {
	Greeting  string
	Recruiter recruiterData
	Sender    Sender
	Job       jobData
	Custom    map[string]string
}

type recruiterData struct {
	Email      string
	FirstName  string
	LastName   string
	FullName   string
	Title      string
	Company    string
	JobTitle   string
	Department string
}

type jobData struct {
	Title      string
	Department string
}

// Render produces the message for one contact. Unknown templates yield a
// core.TemplateError wrapping core.ErrTemplateNotFound; references to
// variables absent from the data fail rather than rendering "<no value>".
func (r *Renderer) Render(name string, contact *core.Contact, customVars map[string]string) (*core.Message, error) {
	path := filepath.Join(r.cfg.Dir, name+".tmpl")
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &core.TemplateError{Name: name, Err: core.ErrTemplateNotFound}
		}
		return nil, &core.TemplateError{Name: name, Err: err}
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, &core.TemplateError{Name: name, Err: fmt.Errorf("parse failed: %w", err)}
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, r.buildData(contact, customVars)); err != nil {
		return nil, &core.TemplateError{Name: name, Err: fmt.Errorf("execute failed: %w", err)}
	}

	msg, err := splitSubject(sb.String())
	if err != nil {
		return nil, &core.TemplateError{Name: name, Err: err}
	}
	if r.cfg.SubjectPrefix != "" {
		msg.Subject = r.cfg.SubjectPrefix + msg.Subject
	}
	return msg, nil
}

func (r *Renderer) buildData(contact *core.Contact, customVars map[string]string) templateData {
	custom := make(map[string]string, len(contact.CustomFields)+len(customVars))
	for k, v := range contact.CustomFields {
		custom[k] = v
	}
	for k, v := range customVars {
		custom[k] = v
	}
	return templateData{
		Greeting: r.greeting(contact),
		Recruiter: recruiterData{
			Email:      contact.Email,
			FirstName:  contact.FirstName,
			LastName:   contact.LastName,
			FullName:   contact.FullName(),
			Title:      contact.Title,
			Company:    contact.Company,
			JobTitle:   contact.JobTitle,
			Department: contact.Department,
		},
		Sender: r.cfg.Sender,
		Job: jobData{
			Title:      contact.JobTitle,
			Department: contact.Department,
		},
		Custom: custom,
	}
}

// greeting builds the salutation for the contact's configured style, falling
// back to semi_formal when the style is unknown.
func (r *Renderer) greeting(contact *core.Contact) string {
	style, ok := r.cfg.Styles[string(contact.GreetingStyle)]
	if !ok {
		style, ok = r.cfg.Styles[string(core.GreetingSemiFormal)]
	}
	if !ok {
		return fmt.Sprintf("Hi %s,", contact.FirstName)
	}

	pattern := style.WithoutTitle
	if contact.Title != "" && style.WithTitle != "" {
		pattern = style.WithTitle
	}
	replacer := strings.NewReplacer(
		"{title}", contact.Title,
		"{first_name}", contact.FirstName,
		"{last_name}", contact.LastName,
	)
	return replacer.Replace(pattern)
}

// splitSubject separates the subject line from the body. A leading
// "Subject:" label on the first line is accepted and stripped.
func splitSubject(rendered string) (*core.Message, error) {
	first, rest, found := strings.Cut(rendered, "\n")
	if !found {
		return nil, core.ErrMissingSubject
	}
	subject := strings.TrimSpace(first)
	if lower := strings.ToLower(subject); strings.HasPrefix(lower, "subject:") {
		subject = strings.TrimSpace(subject[len("subject:"):])
	}
	if subject == "" {
		return nil, core.ErrMissingSubject
	}
	return &core.Message{Subject: subject, Body: strings.TrimSpace(rest)}, nil
}

// ListTemplates returns the template names available in the directory,
// sorted alphabetically.
func (r *Renderer) ListTemplates() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(r.cfg.Dir, "*.tmpl"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ".tmpl"))
	}
	sort.Strings(names)
	return names, nil
}

// TemplateExists reports whether a template with this name is on disk.
func (r *Renderer) TemplateExists(name string) bool {
	_, err := os.Stat(filepath.Join(r.cfg.Dir, name+".tmpl"))
	return err == nil
}
