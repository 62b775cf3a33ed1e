package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"assessment_engine/internal/grading"
)

const systemInstruction = "You are an expert educational assessment grader. " +
	"Evaluate student answers fairly and provide constructive feedback. " +
	"Return your response as valid JSON only, with no additional text."

const gradingInstructions = `

**Grading Instructions:**
1. Evaluate the accuracy and completeness of the student's answer
2. Award partial credit where appropriate
3. Consider different valid ways of expressing the same concept
4. For multiple choice/true-false, be strict about correctness
5. For essays and short answers, evaluate understanding and completeness

**Return your evaluation as a JSON object with this exact structure (no markdown, just JSON):**
{
    "score": <number between 0 and max_points>,
    "feedback": "<brief overall feedback message>",
    "strengths": ["<strength 1>", "<strength 2>"],
    "improvements": ["<area for improvement 1>", "<area for improvement 2>"],
    "detailed_analysis": "<detailed explanation of the grading decision>"
}

**Important:**
- Be fair but rigorous in your grading
- Provide constructive, specific feedback
- Award full points only for excellent answers
- Partial credit should reflect the degree of understanding shown
- Return ONLY valid JSON, no additional text or markdown
`

// BuildPrompt renders the grading request for one answer. The option set is
// only included for multiple choice questions.
func BuildPrompt(q grading.Question, studentAnswer string) string {
	var b strings.Builder
	b.WriteString("Grade the following student answer:\n\n")
	fmt.Fprintf(&b, "**Question Type:** %s\n", q.Type)
	fmt.Fprintf(&b, "**Maximum Points:** %d\n\n", q.Points)
	fmt.Fprintf(&b, "**Expected Answer:**\n%s\n\n", q.ExpectedText())
	fmt.Fprintf(&b, "**Student's Answer:**\n%s\n", studentAnswer)

	if q.Type == grading.MultipleChoice && len(q.Options) > 0 {
		if opts, err := json.MarshalIndent(q.Options, "", "  "); err == nil {
			fmt.Fprintf(&b, "\n**Available Options:**\n%s\n", opts)
		}
	}

	b.WriteString(gradingInstructions)
	return b.String()
}
