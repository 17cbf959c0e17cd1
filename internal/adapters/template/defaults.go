package template

import (
	"os"
	"path/filepath"
)

var defaultTemplates = map[string]string{
	"default": `Subject: Experienced engineer interested in opportunities at {{.Recruiter.Company}}

{{.Greeting}}

I hope this message finds you well. I came across {{.Recruiter.Company}} and was impressed by the work your team is doing.

I am an experienced software engineer looking for my next role, and I believe my background could be a strong fit for your organization. I would welcome the chance to discuss any current or upcoming openings.

Would you be open to a short call in the coming weeks?

Best regards,
{{.Sender.Name}}

{{.Sender.Signature}}
`,
	"follow_up": `Subject: Following up on my previous note

{{.Greeting}}

I wanted to follow up on my earlier message about opportunities at {{.Recruiter.Company}}. I understand how busy things get, so I will keep this short.

I remain very interested in your team and would appreciate a few minutes of your time if anything relevant has opened up.

Best regards,
{{.Sender.Name}}

{{.Sender.Signature}}
`,
	"referral": `Subject: Introduction via {{index .Custom "referral"}}

{{.Greeting}}

{{index .Custom "referral"}} suggested I reach out to you about opportunities at {{.Recruiter.Company}}. They spoke highly of the team and thought my background would be a good match.

I would love to set up a brief conversation to learn more about what you are hiring for.

Best regards,
{{.Sender.Name}}

{{.Sender.Signature}}
`,
}

// SeedDefaults writes the built-in templates into dir. Existing files are
// left untouched so operator edits survive re-initialization.
func SeedDefaults(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, content := range defaultTemplates {
		path := filepath.Join(dir, name+".tmpl")
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
