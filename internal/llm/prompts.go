package llm

import (
	"fmt"
	"strings"
)

// ReplyContext is everything the reply prompt is built from. Empty blocks
// should already carry the "none" sentinel.
type ReplyContext struct {
	Today     string
	Profile   string
	Memories  string
	History   string
	Reminders string
	Location  string
	Utterance string
}

// ReplyPrompt generates the prompt for the assistant's answer to a user turn.
func ReplyPrompt(c ReplyContext) string {
	return fmt.Sprintf(`Today is %s.
You are a personal companion for an older adult. Answer supportively and clearly, taking into account their health, background, daily routine and how they are feeling.

--- USER PROFILE (long-term facts) ---
%s

--- RECENT MEMORIES (things that happened lately) ---
%s

--- CHAT HISTORY (oldest first) ---
%s

--- UPCOMING REMINDERS (mention the time when it helps) ---
%s

--- USER LOCATION ---
%s

--- USER QUESTION ---
The user said: "%s"

How to answer:
- Be kind and patient.
- Use plain, simple language suited to an older reader, with no technical jargon.
- A little gentle humour is welcome.
- Use the location only when it makes the answer more useful.
- Never use emojis.
- Sound warm and natural, like a friend who remembers them.`,
		c.Today, c.Profile, c.Memories, c.History, c.Reminders, c.Location, c.Utterance)
}

// MemoryQueryPrompt rewrites an utterance into a sentence phrased like the
// stored memories, for use as a recall query.
func MemoryQueryPrompt(utterance, history, profile string) string {
	return fmt.Sprintf(`You turn a user's message into a memory-style search query.

The user's message:
"%s"

The conversation so far (oldest first):
%s

What is known long-term about the user:
%s

Write one short sentence shaped like a stored memory that would be useful for answering this message. Stored memories usually describe:
- something specific that happened
- a short-term goal or plan
- a feeling or reaction

Reply with that single sentence only. If no memory could help, reply with "none".`, utterance, history, profile)
}

// CoreFactPrompt asks for newly revealed durable facts about the user.
func CoreFactPrompt(question, answer string) string {
	return fmt.Sprintf(`The user said: "%s"
The assistant replied: "%s"

Pick out only long-term personal facts that describe who the user is:
- relationships (partner, children, friends, family roles)
- occupation or studies
- hobbies and passions
- biography (age, hometown, cultural background)

Leave out:
- things that happened today or recently
- plans, moods and passing feelings
- tasks and appointments
- dates and times

Reply with one natural sentence summarising only the new facts. If there is nothing new, reply with "none".`, question, answer)
}

// MergePrompt folds a new fact into the existing profile paragraph.
func MergePrompt(existing, fact string) string {
	if strings.TrimSpace(existing) == "" {
		existing = "(empty)"
	}
	return fmt.Sprintf(`Existing core information about the user:
%s

New fact to merge in:
%s

Rewrite the core information as one short, coherent paragraph that includes the new fact. Where the two disagree, the new fact wins. Reply with the paragraph only.`, existing, fact)
}

// ShortTermMemoryPrompt asks for an event-level memory worth recalling later.
func ShortTermMemoryPrompt(question, answer string) string {
	return fmt.Sprintf(`The user said: "%s"
The assistant replied: "%s"

Pick out short-term or event-specific information that could help answer future questions, such as:
- something the user did or that happened to them (saw the doctor, visited a friend)
- how they felt or what they enjoyed (nervous about the trip, loved the film)
- something they intend to do soon (wants to call their sister, plans to bake)

Leave out:
- long-term facts such as age or occupation
- vague or generic remarks
- anything irrelevant or already known

Reply with one concise sentence, or "none" if nothing is worth remembering.`, question, answer)
}

// ReminderPrompt asks for zero or more reminder records in a fixed line format.
func ReminderPrompt(today, utterance string) string {
	tags := "MEDICATION, APPOINTMENT, EVENT, TASK, PERSONAL, WORK, FINANCE, HEALTH, TRAVEL, SOCIAL, EDUCATION, LEISURE, OTHER"
	return fmt.Sprintf(`Today is %s.

The user said: "%s"

Extract any reminders from this message. A reminder is a task plus the date, and optionally the time, it should happen.
Resolve relative expressions such as "tomorrow" or "next Thursday" to calendar dates using today's date.

For each reminder write exactly these four lines, in this order:

Task: <short title>
Date: <YYYY-MM-DD or YYYY-MM-DD HH:mm>
Description: <one short sentence>
Tags: <comma-separated, chosen from: %s>

If there is nothing to remind the user about, reply with "none".`, today, utterance, tags)
}

// GamePrompt generates the prompt for the cognitive game host.
func GamePrompt(profile, utterance, history string) string {
	return fmt.Sprintf(`You are a friendly Cognitive Game Master who helps older adults stay mentally sharp and engaged through gentle games and playful conversation.

Everything happens right here in the chat. Never suggest activities that need real-world materials, apps, or leaving the conversation. You host the game and offer exactly one activity at a time.

Your tone is:
- warm and encouraging
- simple and clear, with no complicated words
- cheerful without ever being childish

--- USER PROFILE ---
%s

--- USER INPUT ---
"%s"

--- RECENT CONTEXT (oldest first) ---
%s

Reply with one game, question or small challenge the user can start right away. If the message is vague ("something fun"), suggest one activity and ask whether they would like it or something else.

Do not offer several options, use bullet points or formatting, explain the purpose of the game, or repeat the user's words back.
Assume the user wants to play unless they say otherwise.`, profile, utterance, history)
}
