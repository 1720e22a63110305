package questions

import (
	"fmt"
	"strings"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/knowledge"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WithIndustry appends industry flavoured questions to set: up to
// maxPerTechnology for every technology in stack the industry covers, keyed
// "<technology> (<industry>)". set is returned unchanged when nothing applies.
func (g *Generator) WithIndustry(set Set, industry knowledge.Industry, stack candidate.TechStack, maxPerTechnology int) Set {
	if len(industry.Questions) == 0 {
		return set
	}
	if maxPerTechnology <= 0 {
		maxPerTechnology = 1
	}

	title := industry.Title
	if title == "" {
		title = cases.Title(language.English).String(industry.Name)
	}

	seen := make(map[string]struct{})
	for _, tech := range prioritized(stack) {
		key := strings.ToLower(tech.name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		available := industry.Questions[key]
		if len(available) == 0 {
			continue
		}

		set = append(set, Entry{
			Technology: fmt.Sprintf("%s (%s)", tech.name, title),
			Questions:  g.sample(available, maxPerTechnology),
		})
	}

	return set
}
