package quiz

import (
	"strings"

	"github.com/AlhasanIQ/oriki/catalog"
	"github.com/AlhasanIQ/oriki/contract"
)

// BuildPayload maps answers onto the generate request by each question's
// payload field. Questions whose field the service doesn't know are left
// out.
func BuildPayload(c *catalog.Catalog, answers *AnswerSet) contract.GenerateRequest {
	var req contract.GenerateRequest
	for _, q := range c.Questions() {
		a, ok := answers.Get(q.ID)
		if !ok {
			continue
		}
		applyField(&req, q.PayloadField(), a.Values())
	}
	if answers.NameOnlySelected() {
		if name := strings.TrimSpace(answers.DisplayName()); name != "" {
			req.DisplayName = &name
		}
	}
	return req
}

func applyField(req *contract.GenerateRequest, field string, values []string) {
	if field == "top_values" {
		req.TopValues = append([]string(nil), values...)
		return
	}
	v := strings.Join(values, ",")
	switch field {
	case "greatest_strength":
		req.GreatestStrength = v
	case "aspirational_trait":
		req.AspirationalTrait = v
	case "metaphor_archetype":
		req.MetaphorArchetype = v
	case "energy_style":
		req.EnergyStyle = v
	case "life_focus":
		req.LifeFocus = v
	case "cultural_mode":
		req.CulturalMode = v
	case "pronouns":
		req.Pronouns = v
	case "free_write_letter":
		req.FreeWriteLetter = strings.TrimSpace(v)
	}
}
