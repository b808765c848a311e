// internal/model/template.go
package model

const (
	TemplateConnection = "connection"
	TemplateFollowUp   = "followUp"
)

type Template struct {
	Type    string `json:"type,omitempty" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message" validate:"required"`
	Delay   int    `json:"delay,omitempty"` // days, follow-ups only
}

// Templates groups templates by category.
type Templates map[string][]Template

func DefaultTemplates() Templates {
	return Templates{
		TemplateConnection: {
			{
				Name:    "Default",
				Subject: "Professional connection",
				Message: "Hi {{first_name}}, I came across your profile and would like to connect to grow our professional network. Thanks!",
			},
			{
				Name:    "Company",
				Subject: "Interested in {{empresa}}",
				Message: "Hi {{first_name}}, I saw you work at {{empresa}} and would love to connect and swap notes about the industry.",
			},
		},
		TemplateFollowUp: {
			{
				Name:    "Follow-up 1",
				Delay:   2,
				Message: "Hi {{first_name}}, thanks for accepting my invitation! I'd like to hear more about your work at {{empresa}}.",
			},
			{
				Name:    "Follow-up 2",
				Delay:   5,
				Message: "{{first_name}}, hope all is well! I'd like to keep in touch for future opportunities.",
			},
		},
	}
}
