package generators

import (
	"fmt"
	"strings"

	"dailybread/internal/content"
)

const narrativeSystemPrompt = `You write short devotional and wellness content for a daily mobile app.
Write warm, plain, encouraging prose. Never add headings, labels, markdown,
emoji, or quotation marks around the whole answer. Respond with the text only.`

type fieldPrompt struct {
	devotional  string
	affirmation string
}

var fieldPrompts = map[content.Field]fieldPrompt{
	content.FieldCameraScript: {
		devotional:  "Write a 45 to 60 word script a presenter reads to camera introducing today's verse %s: %q. Speak directly to the viewer.",
		affirmation: "Write a 45 to 60 word script a presenter reads to camera introducing today's affirmation: %[2]q. Speak directly to the viewer.",
	},
	content.FieldReflection: {
		devotional:  "Write a 180 to 250 word reflection on %s: %q. Explain its context briefly and close with one practical takeaway for today.",
		affirmation: "Write a 180 to 250 word reflection on the affirmation %[2]q. Close with one practical takeaway for today.",
	},
	content.FieldMeditationScript: {
		devotional:  "Write a calm 300 to 400 word guided meditation built around %s: %q. Include gentle breathing cues and pauses marked with an ellipsis.",
		affirmation: "Write a calm 300 to 400 word guided meditation built around the affirmation %[2]q. Include gentle breathing cues and pauses marked with an ellipsis.",
	},
	content.FieldVisualPrompt: {
		devotional:  "Describe in under 40 words a serene background image that suits %s: %q. No people, no text in the image.",
		affirmation: "Describe in under 40 words a serene background image that suits the affirmation %[2]q. No people, no text in the image.",
	},
}

func narrativePrompt(field content.Field, req Request) (string, error) {
	prompt, ok := fieldPrompts[field]
	if !ok {
		return "", fmt.Errorf("generators: unknown narrative field %q", field)
	}
	template := prompt.devotional
	if req.Mode == content.ModeAffirmation {
		template = prompt.affirmation
	}
	text := fmt.Sprintf(template, req.Reference, req.PrimaryText)
	if lang := strings.TrimSpace(req.LanguageName); lang != "" && !strings.EqualFold(lang, "English") {
		text += fmt.Sprintf(" Write it in %s.", lang)
	}
	return text, nil
}

const quoteSystemPrompt = `You write one-sentence affirmations for a daily wellness app.
Each affirmation is first person or second person, present tense, under 20
words, and concrete. Respond with the affirmation only.`

func quotePrompt(recent []string, rejected string) string {
	var b strings.Builder
	b.WriteString("Write today's affirmation.")
	if len(recent) > 0 {
		b.WriteString(" It must not repeat or closely paraphrase any of these recent affirmations:\n")
		for _, q := range recent {
			b.WriteString("- ")
			b.WriteString(strings.TrimSpace(q))
			b.WriteString("\n")
		}
	}
	if rejected != "" {
		fmt.Fprintf(&b, "\nYour previous answer %q was too similar to a recent affirmation. Choose a different theme.", rejected)
	}
	return b.String()
}
