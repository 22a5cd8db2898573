package provider

import (
	"fmt"
	"strings"
)

const DefaultVoice = "alloy"

// NarrationText is the text sent for audio synthesis: the poem, a blank
// line, then the affirmations.
func NarrationText(poemLines, affirmations []string) string {
	return JoinLines(poemLines) + "\n\n" + JoinLines(affirmations)
}

func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// ShareText is the plain-text form used for clipboard and QR sharing.
func ShareText(poemLines, affirmations []string) string {
	var b strings.Builder
	b.WriteString("My Oriki (Praise Poetry):\n\n")
	b.WriteString(JoinLines(poemLines))
	if len(affirmations) > 0 {
		b.WriteString("\n\n\"" + affirmations[0] + "\"")
	}
	return b.String()
}

// IsYorubaMode reports whether the cultural disclaimer applies.
func IsYorubaMode(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "yoruba", "yoruba_inspired":
		return true
	default:
		return false
	}
}

const CulturalDisclaimer = "This Oríkì draws inspiration from Yoruba praise poetry traditions. " +
	"It is a creative, modern interpretation and not a traditional lineage Oríkì."

// RenderMarkdown lays out a result for terminal rendering.
func RenderMarkdown(poemLines, affirmations []string, mode string) string {
	var b strings.Builder
	b.WriteString("# Your Oríkì\n\n")
	for _, line := range poemLines {
		b.WriteString("> ")
		b.WriteString(line)
		b.WriteString("  \n")
	}
	if len(affirmations) > 0 {
		b.WriteString("\n## Affirmations\n\n")
		for _, a := range affirmations {
			b.WriteString("- ")
			b.WriteString(a)
			b.WriteString("\n")
		}
	}
	if strings.TrimSpace(mode) != "" {
		b.WriteString(fmt.Sprintf("\n*Tradition: %s*\n", mode))
	}
	if IsYorubaMode(mode) {
		b.WriteString("\n_" + CulturalDisclaimer + "_\n")
	}
	return b.String()
}
