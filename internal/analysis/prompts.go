package analysis

import (
	"fmt"
	"strings"
)

// Prompt construction. One English template per call shape; the output
// language is steered by a directive line instead of duplicating every
// prompt per language.

func languageDirective(lang string) string {
	if lang == LangEnglish {
		return "Write everything in English and refer to the person in THIRD PERSON (using their name or pronouns he/she/they, never \"you\" or \"I\")."
	}
	return "Пишите всё на русском языке и обращайтесь к человеку в ТРЕТЬЕМ ЛИЦЕ (используя имя или местоимения он/она/они, никогда \"вы\" или \"я\")."
}

const promptFormattingRule = `IMPORTANT FORMATTING: when providing lists, use ONLY clean text without numbers, bullets, or other formatting symbols.`

const promptEvidenceRule = `For EVERY insight you provide, give: the observation, WHY you think it is true (evidence from their communication), specific examples or quotes that support it, and how the pattern shows up in their behavior.`

func profileSystemPrompt(lang string) string {
	return strings.Join([]string{
		`You are a brilliant, insightful, and slightly provocative psychologist who sees through people's facades. Provide a DEEP, BOLD, and HONEST psychological analysis that cuts through the surface: their true personality, how they really communicate, their emotional landscape, their relationship patterns, their triggers and coping mechanisms, therapy goals and growth areas, and practical recommendations. Be direct and compassionate, but do not sugarcoat.`,
		promptEvidenceRule,
		languageDirective(lang),
		promptFormattingRule,
	}, "\n\n")
}

func profileUserPrompt(personName, chatText string) string {
	return fmt.Sprintf(`Person Name: %s

Chat Messages:
%s

Give a DEEP, INSIGHTFUL, and BOLD psychological analysis that reveals what is really going on with this person. Provide many specific examples and quotes from their communication, explain WHY each insight is true, and dig into what drives their behavior, what patterns they are stuck in, and what they need to work on.`, personName, chatText)
}

func periodSystemPrompt(lang string) string {
	return strings.Join([]string{
		`You are a brilliant, insightful psychologist analyzing a specific time period in someone's life through their communication patterns. Focus ONLY on this period: their personality and behavior during it, how they communicated, their emotional landscape, key events or patterns, and whether they showed growth, regression, or stability.`,
		promptEvidenceRule,
		languageDirective(lang),
		promptFormattingRule,
	}, "\n\n")
}

func periodUserPrompt(personName string, period Period, lang string, chatText string) string {
	return fmt.Sprintf(`Person Name: %s
Period: %s
Start Date: %s
End Date: %s

Chat Messages from this period:
%s

Give a DEEP, INSIGHTFUL, and BOLD psychological analysis of what was really going on with this person during this specific time period, backed by concrete evidence from their communication in it.`,
		personName, period.Label, MonthLabel(period.Start, lang), MonthLabel(period.End, lang), chatText)
}

func timelineSystemPrompt(lang string) string {
	return strings.Join([]string{
		`You are a brilliant, insightful psychologist analyzing someone's personality evolution over time through multiple time periods. Identify how their personality evolved, the core characteristics that persist across all periods, critical transformation points, recurring themes, their overall growth trajectory, and predictions about their future development. Use varied examples; do not repeat the same quote more than twice.`,
		promptEvidenceRule,
		languageDirective(lang),
		promptFormattingRule,
	}, "\n\n")
}

func timelineUserPrompt(personName, periodsDigest string) string {
	return fmt.Sprintf(`Person Name: %s

Period Analyses:
%s

Give a DEEP, INSIGHTFUL, and BOLD psychological analysis of how this person has evolved over time and what their timeline reveals about their true nature, backed by evidence from different periods.`, personName, periodsDigest)
}

func namerSystemPrompt(lang string) string {
	if lang == LangEnglish {
		return "You are an expert in psychological analysis and in naming periods of a person's life."
	}
	return "Ты эксперт по психологическому анализу и именованию временных периодов."
}

func namerUserPrompt(personName, lang string, periods []Period) string {
	var sb strings.Builder
	if lang == LangEnglish {
		fmt.Fprintf(&sb, "Review the following time periods from the life of a person named %s and give each a short, expressive name.\n\nPeriods:\n", personName)
	} else {
		fmt.Fprintf(&sb, "Проанализируй следующие временные периоды из жизни человека по имени %s и дай каждому периоду краткое, но выразительное название.\n\nПериоды:\n", personName)
	}
	for _, p := range periods {
		fmt.Fprintf(&sb, "Period %d: %s - %s\nMessages: %d\n",
			p.Index+1, MonthLabel(p.Start, lang), MonthLabel(p.End, lang), len(p.Messages))
	}
	if lang == LangEnglish {
		sb.WriteString("\nGive each period a 2-4 word name reflecting its main theme or character. Return only the period names, one per line, without numbering.")
	} else {
		sb.WriteString("\nДай каждому периоду название из 2-4 слов, отражающее основную тему или характер этого времени. Верни только названия периодов, каждое с новой строки, без номеров.")
	}
	return sb.String()
}
