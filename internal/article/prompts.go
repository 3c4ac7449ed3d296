package article

import "fmt"

// BuildIntroductionPrompt creates the prompt for the opening paragraph.
func BuildIntroductionPrompt(title, keyPoints, audience, tone, references string) string {
	return fmt.Sprintf(`Write an engaging introduction for an article titled "%s".

Target audience: %s
Tone: %s
Key points to preview: %s

Reference content from original source:
%s

Create a compelling hook, provide context, and end with a clear thesis statement.
Write 1 concise paragraph that draws readers in and sets up the article's main points.
Use the reference content to ensure accuracy and avoid hallucination, especially for niche topics.
Use proper line breaks (\n\n) between sentences or logical breaks to improve readability.

Return only the introduction text, no additional formatting.`, title, audience, tone, keyPoints, references)
}

// BuildSectionPrompt creates the prompt for one outline section.
func BuildSectionPrompt(heading, subpoints, previous, tone, audience, references string) string {
	return fmt.Sprintf(`Write a detailed section for the heading "%s".

Subpoints to cover: %s
Target audience: %s
Tone: %s
Previous content for context: %s

Reference content from original source:
%s

Write 1-2 focused paragraphs that thoroughly cover the subpoints.
Use proper line breaks (\n\n) between paragraphs and logical breaks within paragraphs to improve readability.
Ensure smooth transitions from the previous content.
Use the reference content to provide accurate information and avoid hallucination, especially for niche topics.
Use examples and explanations appropriate for the target audience.
Keep it concise but comprehensive.

Return only the section content with the heading, no additional formatting.`, heading, subpoints, audience, tone, previous, references)
}

// BuildConclusionPrompt creates the prompt for the closing paragraph.
func BuildConclusionPrompt(title, keyPoints, articleContent, tone, references string) string {
	return fmt.Sprintf(`Write a compelling conclusion for an article titled "%s".

Key points covered: %s
Tone: %s
Article content for context: %s

Reference content from original source:
%s

Create a conclusion that:
1. Summarizes the main points
2. Reinforces the article's value
3. Includes a call-to-action or next steps
4. Ends with a memorable final thought

Write 1 concise paragraph that provides closure and inspires action.
Use the reference content to ensure accuracy and avoid hallucination.
Use proper line breaks (\n\n) between sentences or logical breaks to improve readability.

Return only the conclusion text, no additional formatting.`, title, keyPoints, tone, articleContent, references)
}
