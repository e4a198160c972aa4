package service

import (
	"fmt"
	"strings"

	"github.com/yourname/habitcoach/internal"
)

// personaSystems maps each coach persona to its system instruction.
// calm is the default for unknown or empty personas.
var personaSystems = map[internal.Persona]string{
	internal.PersonaCalm:      "You are a calm, empathetic habit coach. Use a steady, reassuring tone and simple, actionable steps.",
	internal.PersonaDirect:    "You are a direct, no-nonsense habit coach. Be concise, practical, and action-first. Avoid fluff.",
	internal.PersonaMotivator: "You are an upbeat, encouraging habit coach. Be supportive and optimistic while staying specific and practical.",
}

func PersonaSystem(persona internal.Persona) string {
	if system, ok := personaSystems[persona]; ok {
		return system
	}
	return personaSystems[internal.PersonaCalm]
}

// fallbackTimes keys the suggested time commitment by difficulty.
var fallbackTimes = map[internal.Difficulty]string{
	internal.DifficultyEasy:   "2 minutes",
	internal.DifficultyMedium: "5 minutes",
	internal.DifficultyHard:   "10 minutes",
}

func fallbackTime(difficulty internal.Difficulty) string {
	if t, ok := fallbackTimes[difficulty]; ok {
		return t
	}
	return fallbackTimes[internal.DifficultyMedium]
}

const (
	NoHabitsSuggestion = "Create your first habit to get personalized suggestions!"
	noHabitPlan        = "Create your first habit to get a personalized plan!"

	// FallbackAnswer is the persona-independent reply for the question
	// endpoint when generation is unavailable.
	FallbackAnswer = "I could not generate an answer right now. Please try again."
)

// FallbackSuggestion is the deterministic text used when the
// generator is unavailable. It never calls out anywhere.
func FallbackSuggestion(focus *HabitStats) string {
	if focus == nil {
		return NoHabitsSuggestion
	}
	habit := focus.Habit
	return fmt.Sprintf("Today, do the easiest %s version of %q to move toward %q.",
		fallbackTime(habit.Difficulty), habit.HabitName, habit.Goal)
}

// FallbackPlan is the deterministic three-line plan fallback.
func FallbackPlan(habit *internal.Habit) string {
	if habit == nil {
		return noHabitPlan
	}
	t := fallbackTime(habit.Difficulty)
	return strings.Join([]string{
		fmt.Sprintf("Today: Do a %s starter session of %q.", t, habit.HabitName),
		"How: Pick the easiest version and stop when the timer ends.",
		fmt.Sprintf("Why: It builds momentum toward %q.", habit.Goal),
	}, "\n")
}

func writeHabitHeader(b *strings.Builder, title string, focus HabitStats) {
	habit := focus.Habit
	b.WriteString(title)
	b.WriteString("\n\n")
	fmt.Fprintf(b, "Name: %s\n", habit.HabitName)
	fmt.Fprintf(b, "Goal: %s\n", habit.Goal)
	fmt.Fprintf(b, "Frequency: %s\n", habit.Frequency)
	fmt.Fprintf(b, "Difficulty: %s\n", habit.Difficulty)
	fmt.Fprintf(b, "Last 7 days: %d done, %d skipped\n", focus.Done, focus.Skipped)
	if len(focus.RecentNotes) > 0 {
		fmt.Fprintf(b, "Recent notes: %s\n", strings.Join(focus.RecentNotes, "; "))
	}
}

// BuildSuggestionPrompt renders the focus habit into the general
// suggestion prompt.
func BuildSuggestionPrompt(focus HabitStats) string {
	var b strings.Builder
	writeHabitHeader(&b, "Focus habit:", focus)
	b.WriteString("\nTask: Give 1 small, realistic action the user can take today for this habit. " +
		"Be specific to the habit and goal. Keep it under 80 words. " +
		"Avoid generic advice. If there are no recent logs, suggest a starter action.")
	return b.String()
}

// BuildPlanPrompt renders a habit into the daily plan prompt.
func BuildPlanPrompt(focus HabitStats) string {
	var b strings.Builder
	writeHabitHeader(&b, "Habit details:", focus)
	b.WriteString("\nTask: Provide a daily action plan for today specific to this habit. " +
		"Respond in 3 short lines with this exact format:\n" +
		"Today: <one concrete action>\n" +
		"How: <2-3 short steps>\n" +
		"Why: <tie to the goal>\n" +
		"Keep the whole response under 90 words and avoid generic advice.")
	return b.String()
}

// BuildQuestionPrompt renders a habit plus a free-form user question.
func BuildQuestionPrompt(focus HabitStats, question string) string {
	var b strings.Builder
	writeHabitHeader(&b, "Habit details:", focus)
	fmt.Fprintf(&b, "\nUser question: %s\n", question)
	b.WriteString("\nAnswer the question with concise, practical guidance specific to this habit. " +
		"Keep it under 120 words. Be supportive, not generic.")
	return b.String()
}
