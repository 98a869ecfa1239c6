package chat

import (
	"fmt"
	"strings"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/conversation"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/knowledge"
)

// systemPrompt sets the assistant's role and answering rules. The model is
// steered toward the retrieved context but allowed to fall back to general
// knowledge with an explicit disclaimer, so gaps in the corpus do not
// produce flat refusals.
const systemPrompt = `You are an expert assistant specialized in LangChain, LangGraph, and LangSmith frameworks.

Your job is to help developers understand and use these frameworks effectively.

INSTRUCTIONS:
1. First, try to answer based on the provided context from documentation
2. If the context is relevant, use it to provide a detailed answer with code examples
3. If the context doesn't directly answer the question but is related, use your knowledge of LangChain/LangGraph/LangSmith to help
4. Include code examples when relevant
5. Mention which framework (LangChain, LangGraph, or LangSmith) the answer relates to
6. If the answer is completely missing from the context and you cannot infer it, say "I don't have information about that in my specific documentation, but generally speaking..." and continue with a helpful general answer
7. Do NOT invent library features that don't exist. Use general knowledge only when you are certain

Provide comprehensive, beginner-friendly explanations. Break complex concepts into simple terms and use analogies when helpful.`

// userPromptTemplate carries the retrieved context, prior turns, and the
// question into a single user message.
const userPromptTemplate = `CONTEXT FROM DOCUMENTATION:
%s

CHAT HISTORY (previous context, ignore if unrelated to the new question):
%s

LATEST USER QUESTION (focus your answer here):
%s`

// noContextFound replaces the context block when retrieval comes back empty.
const noContextFound = "No relevant documentation found in the knowledge base."

// buildUserPrompt renders the user message from retrieval results and history.
func buildUserPrompt(results []knowledge.Result, history []conversation.Message, query string) string {
	return fmt.Sprintf(userPromptTemplate, formatContext(results), formatHistory(history), query)
}

// formatContext renders retrieval results as numbered, framework-tagged
// blocks separated by horizontal rules.
func formatContext(results []knowledge.Result) string {
	if len(results) == 0 {
		return noContextFound
	}

	blocks := make([]string, 0, len(results))
	for i, r := range results {
		framework := r.Document.Metadata[knowledge.MetaFramework]
		if framework == "" {
			framework = "unknown"
		}
		blocks = append(blocks, fmt.Sprintf("[Document %d - %s]\n%s",
			i+1, strings.ToUpper(framework), r.Document.Content))
	}
	return strings.Join(blocks, "\n---\n")
}

// formatHistory renders prior turns as alternating User/Assistant lines.
func formatHistory(history []conversation.Message) string {
	if len(history) == 0 {
		return "No previous conversation."
	}

	lines := make([]string, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case conversation.RoleUser:
			lines = append(lines, "User: "+msg.Content)
		case conversation.RoleAssistant:
			lines = append(lines, "Assistant: "+msg.Content)
		}
	}
	return strings.Join(lines, "\n")
}

// sourceURLs returns the distinct source URLs behind the results, in
// retrieval order.
func sourceURLs(results []knowledge.Result) []string {
	var urls []string
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		url := r.Document.Metadata[knowledge.MetaSource]
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		urls = append(urls, url)
	}
	return urls
}
