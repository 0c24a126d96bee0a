package remote

import "strings"

const systemPrompt = `You are a scam and phishing detection assistant. You read messages, emails and pasted text and judge how likely they are to be a scam.
Respond with a single JSON object and nothing else.`

const promptTemplate = `Analyze the following content for potential scams and return a JSON object with the specified structure.

Content to analyze:
---
{{content}}
---

JSON Structure to follow:
{
    "riskScore": "A number from 0 to 100 indicating the level of risk.",
    "riskLevel": "A string that is one of: 'safe', 'low', 'medium', 'high'.",
    "riskMessage": "A concise, one-sentence summary of the risk assessment.",
    "details": [
        {
            "type": "A string that is one of: 'info', 'warning', 'danger'.",
            "title": "A short, descriptive title for the finding.",
            "message": "A detailed explanation of this specific finding."
        }
    ],
    "recommendations": [
        "A string containing a clear, actionable recommendation for the user."
    ]
}

Your response must be a valid JSON object that conforms to this structure.
Do not include any text or markdown formatting before or after the JSON object.`

// BuildPrompt embeds content into the classification prompt
func BuildPrompt(content string) string {
	return strings.Replace(promptTemplate, "{{content}}", content, 1)
}
