package campaign

import (
	"fmt"

	"github.com/osteele/liquid"

	"github.com/attendly/attendly/internal/domain"
)

// renderer expands Liquid placeholders in campaign subjects and bodies,
// e.g. "Hi {{ recipient }}". Plain text without tags renders to itself,
// so campaigns that never use placeholders only pay a parse.
type renderer struct {
	engine *liquid.Engine
}

func newRenderer() *renderer {
	return &renderer{engine: liquid.NewEngine()}
}

// campaignTemplate is a parsed campaign, rendered once per recipient.
type campaignTemplate struct {
	subject *liquid.Template
	body    *liquid.Template
}

// parse compiles the campaign's subject and body. Malformed Liquid syntax
// is rejected here, before any recipient is contacted.
func (r *renderer) parse(c *domain.Campaign) (*campaignTemplate, error) {
	subject, err := r.engine.ParseString(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("parsing campaign subject: %w", err)
	}
	body, err := r.engine.ParseString(c.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing campaign body: %w", err)
	}
	return &campaignTemplate{subject: subject, body: body}, nil
}

// render produces the subject and body for one recipient.
func (t *campaignTemplate) render(c *domain.Campaign, recipient string) (subject, body string, err error) {
	bindings := map[string]interface{}{
		"recipient":       recipient,
		"event_id":        c.EventID,
		"campaign_id":     c.ID,
		"organization_id": c.OrganizationID,
	}

	s, err := t.subject.Render(bindings)
	if err != nil {
		return "", "", fmt.Errorf("rendering campaign subject: %w", err)
	}
	b, err := t.body.Render(bindings)
	if err != nil {
		return "", "", fmt.Errorf("rendering campaign body: %w", err)
	}
	return string(s), string(b), nil
}
