package answer

import "fmt"

// refusalText is the fixed reply when no grounding documents survived
// retrieval. An ungrounded refusal is a successful outcome, not an error;
// clients rely on the exact wording.
const refusalText = "I couldn't find any products matching your query. Could you try rephrasing?"

const promptTemplate = `You are a helpful product search assistant. Based on the search results below, answer the user's question accurately.

Search Results:
%s

User Question: %s

Instructions:
- Provide a concise answer
- Reference specific products from the search results
- If multiple products match, compare them briefly
- Be conversational
- If no products perfectly match, suggest the closest alternatives

Answer:`

// buildPrompt assembles the generation prompt from the rendered context
// block and the user's original question.
func buildPrompt(contextBlock, question string) string {
	return fmt.Sprintf(promptTemplate, contextBlock, question)
}
