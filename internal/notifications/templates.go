package notifications

import (
	"strings"
)

// Template identifies an email sent on an assessment decision.
type Template string

const (
	TemplateAssessmentAccepted        Template = "assessment-accepted"
	TemplateAssessmentRejected        Template = "assessment-rejected"
	TemplatePlacementRequestSubmitted Template = "placement-request-submitted"
)

type emailTemplate struct {
	subject string
	body    string
}

var templates = map[Template]emailTemplate{
	TemplateAssessmentAccepted: {
		subject: "Approved Premises application assessed as suitable: {{crn}}",
		body: "Dear {{name}},\n\n" +
			"The application for {{crn}} has been assessed as suitable for an Approved Premises placement.\n\n" +
			"View the application: {{applicationUrl}}",
	},
	TemplateAssessmentRejected: {
		subject: "Approved Premises application assessed as unsuitable: {{crn}}",
		body: "Dear {{name}},\n\n" +
			"The application for {{crn}} has been assessed as unsuitable for an Approved Premises placement.\n\n" +
			"View the application: {{applicationUrl}}",
	},
	TemplatePlacementRequestSubmitted: {
		subject: "Placement request submitted: {{crn}}",
		body: "Dear {{name}},\n\n" +
			"A request for placement has been submitted for {{crn}} and will be matched to a suitable Approved Premises.\n\n" +
			"View the application: {{applicationUrl}}",
	},
}

// render replaces {{key}} placeholders; unknown placeholders are left as they are.
func render(tmpl string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
