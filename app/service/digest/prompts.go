package digest

import (
	"fmt"
	"strings"
)

const InitialPrompt = "What environmental topic would you like to look up news on?"

const SystemPrompt = `
You are an AI news summarizer and question generator.

Follow these steps to engage the user:

1. Request a Keyword: Ask the user for an environmental topic or keyword. If the user discusses a non-environmental topic, politely redirect them to an environmental keyword.

2. Return the article title, article summary and links.
    - Summarize the content of the articles returned. The summaries **must be based on the source articles without speculations or assumptions**.
    - Number your summaries and include the article name and source.

3. Generate Quiz Questions:
    Generate 3 quiz questions based on the summaries provided. Provide three possible answers per question:
    - There should be one correct answer and two incorrect answers.
    - Use linebreaks according to this template:
    {
        Question 1: <question>\n
        A: <first option>\n
        B: <second option>\n
        C: <third option>
    }

4. Evaluate Answers:
- Check the user's answers using the summaries and explain any incorrect responses with clear reasoning.

Important Note: At any point in the conversation, if the user brings up a non-environmental topic, politely refuse and suggest they provide a relevant environmental keyword.
`

const relevancePrompt = "Check if text is related to environmental topics. Return 'yes' or 'no'."

const (
	ReplyNoSummaries          = "No summaries available to generate quiz questions from."
	ReplyNoAnswers            = "You didn't provide any answers."
	ReplyNoNews               = "Sorry, I couldn't find any news related to that topic."
	ReplyAnswersFormat        = `Please submit your answers in the form "answers: A, B, C".`
	ReplyAssistantUnavailable = "Sorry, I couldn't reach the assistant right now. Please try again."

	offTopicReplyFormat = "Sorry, %s is not an environmental topic. Please try again with a relevant environmental keyword."
)

func offTopicReply(input string) string {
	return fmt.Sprintf(offTopicReplyFormat, input)
}

func quizPrompt(summaries string) string {
	return "Generate 3 quiz questions based on the following summaries:\n\n" + summaries
}

func evaluationPrompt(summaries, questions string, answers []string) string {
	var numbered strings.Builder
	for i, answer := range answers {
		fmt.Fprintf(&numbered, "%d. %s\n", i+1, answer)
	}

	return fmt.Sprintf(
		"Use the following news summaries to evaluate the user's answers to each of the quiz questions. "+
			"Explicitly state if each answer is correct or not. "+
			"If an answer is wrong, explain what the correct answer should be. "+
			"If an answer is correct, congratulate the user.\n\n"+
			"Summaries:\n%s\n\nQuestions:\n%s\n\nUser answers:\n%s",
		summaries, questions, numbered.String(),
	)
}
