package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/google/uuid"

	"github.com/Ariffin97/portal-mpa-sub001/models"
)

// Kind names the event a notification reports.
type Kind string

const (
	KindReceived         Kind = "received"
	KindApproved         Kind = "approved"
	KindRejected         Kind = "rejected"
	KindMoreInfoRequired Kind = "more_info_required"
)

// KindFor returns the notification kind for reaching status, or false when
// the status is not announced to the applicant.
func KindFor(status models.Status) (Kind, bool) {
	switch status {
	case models.StatusApproved:
		return KindApproved, true
	case models.StatusRejected:
		return KindRejected, true
	case models.StatusMoreInfoRequired:
		return KindMoreInfoRequired, true
	}
	return "", false
}

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

var defaultTemplates = map[Kind][2]string{
	KindReceived: {
		"Application {{.ApplicationID}} received",
		`Dear {{.Event.ContactPerson}},

We have received your application to sanction "{{.Event.EventTitle}}".
Your application ID is {{.ApplicationID}}. Please quote it in all correspondence.
`,
	},
	KindApproved: {
		"Application {{.ApplicationID}} approved",
		`Dear {{.Event.ContactPerson}},

Your application {{.ApplicationID}} for "{{.Event.EventTitle}}" has been approved.
`,
	},
	KindRejected: {
		"Application {{.ApplicationID}} rejected",
		`Dear {{.Event.ContactPerson}},

Your application {{.ApplicationID}} for "{{.Event.EventTitle}}" has been rejected.

Reason: {{.Remarks}}
`,
	},
	KindMoreInfoRequired: {
		"More information required for application {{.ApplicationID}}",
		`Dear {{.Event.ContactPerson}},

Before we can continue reviewing application {{.ApplicationID}} for "{{.Event.EventTitle}}" we need the following:

{{.RequiredInfo}}

Please reply through the portal.
`,
	},
}

// Composer renders messages from the built-in templates.
type Composer struct {
	templates map[Kind]messageTemplate
}

func NewComposer() (*Composer, error) {
	c := &Composer{templates: make(map[Kind]messageTemplate, len(defaultTemplates))}
	for kind, src := range defaultTemplates {
		subject, err := template.New(string(kind) + ".subject").Option("missingkey=zero").Parse(src[0])
		if err != nil {
			return nil, fmt.Errorf("parse %s subject: %w", kind, err)
		}
		body, err := template.New(string(kind) + ".body").Option("missingkey=zero").Parse(src[1])
		if err != nil {
			return nil, fmt.Errorf("parse %s body: %w", kind, err)
		}
		c.templates[kind] = messageTemplate{subject: subject, body: body}
	}
	return c, nil
}

// Compose renders the message of kind for app, addressed to its contact.
func (c *Composer) Compose(app *models.Application, kind Kind) (Message, error) {
	tmpl, ok := c.templates[kind]
	if !ok {
		return Message{}, fmt.Errorf("no template for %q", kind)
	}
	var subject, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, app); err != nil {
		return Message{}, fmt.Errorf("render %s subject: %w", kind, err)
	}
	if err := tmpl.body.Execute(&body, app); err != nil {
		return Message{}, fmt.Errorf("render %s body: %w", kind, err)
	}
	return Message{
		ID:            uuid.NewString(),
		ApplicationID: app.ApplicationID,
		Kind:          kind,
		To:            app.Event.ContactEmail,
		Phone:         app.Event.ContactPhone,
		Subject:       subject.String(),
		Body:          body.String(),
	}, nil
}
