package template

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldmailer/internal/core"
)

func testStyles() map[string]StylePatterns {
	return map[string]StylePatterns{
		"formal":      {WithTitle: "Dear {title} {last_name},", WithoutTitle: "Dear {first_name} {last_name},"},
		"semi_formal": {WithTitle: "Hello {title} {last_name},", WithoutTitle: "Hello {first_name},"},
		"casual":      {WithTitle: "Hi {first_name},", WithoutTitle: "Hi {first_name},"},
	}
}

func testRenderer(t *testing.T, templates map[string]string) *Renderer {
	t.Helper()
	dir := t.TempDir()
	for name, content := range templates {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".tmpl"), []byte(content), 0o644))
	}
	return NewRenderer(Config{
		Dir:    dir,
		Styles: testStyles(),
		Sender: Sender{Name: "Jane Doe", Signature: "Jane Doe\njane@example.com"},
	})
}

func renderContact() *core.Contact {
	return &core.Contact{
		ID:            "c1",
		Email:         "alex@example.com",
		FirstName:     "Alex",
		LastName:      "Rivera",
		Title:         "Dr.",
		Company:       "Example Corp",
		JobTitle:      "Engineering Manager",
		GreetingStyle: core.GreetingFormal,
	}
}

func TestRenderSubjectAndBody(t *testing.T) {
	r := testRenderer(t, map[string]string{
		"default": "Subject: Hello from {{.Sender.Name}}\n\n{{.Greeting}}\n\nI noticed {{.Recruiter.Company}} is hiring.\n\n{{.Sender.Signature}}\n",
	})

	msg, err := r.Render("default", renderContact(), nil)

	require.NoError(t, err)
	assert.Equal(t, "Hello from Jane Doe", msg.Subject)
	assert.Contains(t, msg.Body, "Dear Dr. Rivera,")
	assert.Contains(t, msg.Body, "Example Corp is hiring")
	assert.Contains(t, msg.Body, "jane@example.com")
	assert.NotContains(t, msg.Body, "Subject:")
}

func TestRenderSubjectWithoutLabel(t *testing.T) {
	r := testRenderer(t, map[string]string{
		"bare": "Quick question about {{.Recruiter.Company}}\n\nbody text\n",
	})

	msg, err := r.Render("bare", renderContact(), nil)

	require.NoError(t, err)
	assert.Equal(t, "Quick question about Example Corp", msg.Subject)
	assert.Equal(t, "body text", msg.Body)
}

func TestRenderSubjectPrefix(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.tmpl"), []byte("Subject: Hi\n\nbody\n"), 0o644))
	r := NewRenderer(Config{Dir: dir, Styles: testStyles(), SubjectPrefix: "[Outreach] "})

	msg, err := r.Render("default", renderContact(), nil)

	require.NoError(t, err)
	assert.Equal(t, "[Outreach] Hi", msg.Subject)
}

func TestRenderGreetingStyles(t *testing.T) {
	r := testRenderer(t, map[string]string{"g": "Subject: s\n\n{{.Greeting}}\n"})

	cases := []struct {
		style core.GreetingStyle
		title string
		want  string
	}{
		{core.GreetingFormal, "Dr.", "Dear Dr. Rivera,"},
		{core.GreetingFormal, "", "Dear Alex Rivera,"},
		{core.GreetingSemiFormal, "Ms.", "Hello Ms. Rivera,"},
		{core.GreetingSemiFormal, "", "Hello Alex,"},
		{core.GreetingCasual, "Dr.", "Hi Alex,"},
		// Unknown styles fall back to semi_formal.
		{core.GreetingStyle("shouty"), "", "Hello Alex,"},
	}
	for _, tc := range cases {
		contact := renderContact()
		contact.GreetingStyle = tc.style
		contact.Title = tc.title

		msg, err := r.Render("g", contact, nil)

		require.NoError(t, err)
		assert.Equal(t, tc.want, msg.Body, "style %s title %q", tc.style, tc.title)
	}
}

func TestRenderCustomVarsOverrideContactFields(t *testing.T) {
	r := testRenderer(t, map[string]string{
		"ref": "Subject: via {{index .Custom \"referral\"}}\n\n{{index .Custom \"referral\"}} sent me.\n",
	})
	contact := renderContact()
	contact.CustomFields = map[string]string{"referral": "Sam Lee"}

	msg, err := r.Render("ref", contact, nil)
	require.NoError(t, err)
	assert.Equal(t, "via Sam Lee", msg.Subject)

	msg, err = r.Render("ref", contact, map[string]string{"referral": "Pat Kim"})
	require.NoError(t, err)
	assert.Equal(t, "via Pat Kim", msg.Subject)
}

func TestRenderMissingTemplate(t *testing.T) {
	r := testRenderer(t, nil)

	_, err := r.Render("nope", renderContact(), nil)

	var te *core.TemplateError
	require.ErrorAs(t, err, &te)
	assert.True(t, errors.Is(err, core.ErrTemplateNotFound))
}

func TestRenderMissingSubjectLine(t *testing.T) {
	r := testRenderer(t, map[string]string{"onlysubject": "just one line no body"})

	_, err := r.Render("onlysubject", renderContact(), nil)

	assert.ErrorIs(t, err, core.ErrMissingSubject)
}

func TestRenderUndefinedVariableFails(t *testing.T) {
	r := testRenderer(t, map[string]string{
		"bad": "Subject: s\n\n{{index .Custom \"nonexistent\"}} oops\n",
	})

	msg, err := r.Render("bad", renderContact(), nil)

	// index on a missing key yields an empty string rather than an error;
	// a misspelled field reference does fail.
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "oops")

	r2 := testRenderer(t, map[string]string{"worse": "Subject: s\n\n{{.Recruiter.Nope}}\n"})
	_, err = r2.Render("worse", renderContact(), nil)
	assert.Error(t, err)
}

func TestSeedDefaultsAndList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SeedDefaults(dir))

	r := NewRenderer(Config{Dir: dir, Styles: testStyles(), Sender: Sender{Name: "Jane"}})
	names, err := r.ListTemplates()
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "follow_up", "referral"}, names)
	assert.True(t, r.TemplateExists("default"))
	assert.False(t, r.TemplateExists("missing"))

	// Seeded templates must render with ordinary contact data.
	msg, err := r.Render("default", renderContact(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.Subject)
	assert.Contains(t, msg.Body, "Dear Dr. Rivera,")

	msg, err = r.Render("referral", renderContact(), map[string]string{"referral": "Sam Lee"})
	require.NoError(t, err)
	assert.Contains(t, msg.Subject, "Sam Lee")
}

func TestSeedDefaultsPreservesEdits(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SeedDefaults(dir))
	edited := []byte("Subject: edited\n\nedited body\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.tmpl"), edited, 0o644))

	require.NoError(t, SeedDefaults(dir))

	content, err := os.ReadFile(filepath.Join(dir, "default.tmpl"))
	require.NoError(t, err)
	assert.Equal(t, edited, content)
}
