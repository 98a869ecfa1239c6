// Package docs crawls the documentation corpus, extracts readable text, and
// splits it into chunks for the knowledge base.
package docs

// Framework identifiers stored in chunk metadata.
const (
	FrameworkLangChain = "langchain"
	FrameworkLangGraph = "langgraph"
	FrameworkLangSmith = "langsmith"
)

// Source is one documentation page to ingest.
type Source struct {
	URL       string
	Framework string
}

// langchainURLs covers the core LangChain documentation: concepts, the most
// used how-to guides, and the tutorials.
var langchainURLs = []string{
	"https://python.langchain.com/docs/introduction/",
	"https://python.langchain.com/docs/concepts/",
	"https://python.langchain.com/docs/concepts/architecture/",

	"https://python.langchain.com/docs/concepts/chat_models/",
	"https://python.langchain.com/docs/concepts/messages/",
	"https://python.langchain.com/docs/concepts/llms/",

	"https://python.langchain.com/docs/concepts/prompt_templates/",
	"https://python.langchain.com/docs/concepts/few_shot_prompting/",
	"https://python.langchain.com/docs/concepts/example_selectors/",
	"https://python.langchain.com/docs/how_to/prompt_templates/",
	"https://python.langchain.com/docs/how_to/custom_prompt_templates/",
	"https://python.langchain.com/docs/how_to/prompts_composition/",

	"https://python.langchain.com/docs/concepts/output_parsers/",
	"https://python.langchain.com/docs/concepts/structured_outputs/",

	"https://python.langchain.com/docs/concepts/runnables/",
	"https://python.langchain.com/docs/concepts/lcel/",
	"https://python.langchain.com/docs/concepts/streaming/",

	"https://python.langchain.com/docs/concepts/rag/",
	"https://python.langchain.com/docs/concepts/vectorstores/",
	"https://python.langchain.com/docs/concepts/retrievers/",
	"https://python.langchain.com/docs/concepts/text_splitters/",
	"https://python.langchain.com/docs/concepts/embedding_models/",

	"https://python.langchain.com/docs/concepts/document_loaders/",

	"https://python.langchain.com/docs/concepts/agents/",
	"https://python.langchain.com/docs/concepts/tools/",
	"https://python.langchain.com/docs/concepts/tool_calling/",

	"https://python.langchain.com/docs/concepts/memory/",
	"https://python.langchain.com/docs/concepts/chat_history/",

	"https://python.langchain.com/docs/how_to/sequence/",
	"https://python.langchain.com/docs/how_to/parallel/",
	"https://python.langchain.com/docs/how_to/binding/",
	"https://python.langchain.com/docs/how_to/fallbacks/",

	"https://python.langchain.com/docs/tutorials/",
	"https://python.langchain.com/docs/tutorials/rag/",
	"https://python.langchain.com/docs/tutorials/chatbot/",
	"https://python.langchain.com/docs/tutorials/agents/",
}

// langgraphURLs covers LangGraph concepts, how-tos, and tutorials.
var langgraphURLs = []string{
	"https://langchain-ai.github.io/langgraph/",
	"https://langchain-ai.github.io/langgraph/tutorials/introduction/",

	"https://langchain-ai.github.io/langgraph/concepts/high_level/",
	"https://langchain-ai.github.io/langgraph/concepts/low_level/",
	"https://langchain-ai.github.io/langgraph/concepts/agentic_concepts/",
	"https://langchain-ai.github.io/langgraph/concepts/human_in_the_loop/",
	"https://langchain-ai.github.io/langgraph/concepts/persistence/",
	"https://langchain-ai.github.io/langgraph/concepts/memory/",
	"https://langchain-ai.github.io/langgraph/concepts/streaming/",

	"https://langchain-ai.github.io/langgraph/how-tos/",
	"https://langchain-ai.github.io/langgraph/how-tos/state-model/",
	"https://langchain-ai.github.io/langgraph/how-tos/subgraph/",
	"https://langchain-ai.github.io/langgraph/how-tos/branching/",

	"https://langchain-ai.github.io/langgraph/tutorials/",
	"https://langchain-ai.github.io/langgraph/tutorials/workflows/",
	"https://langchain-ai.github.io/langgraph/tutorials/multi-agent/",
}

// langsmithURLs covers LangSmith observability, evaluation, and prompts.
var langsmithURLs = []string{
	"https://docs.smith.langchain.com/",
	"https://docs.smith.langchain.com/getting-started/quick-start",

	"https://docs.smith.langchain.com/observability/",
	"https://docs.smith.langchain.com/observability/concepts",
	"https://docs.smith.langchain.com/observability/how_to_guides/tracing/",

	"https://docs.smith.langchain.com/evaluation/",
	"https://docs.smith.langchain.com/evaluation/concepts",
	"https://docs.smith.langchain.com/evaluation/how_to_guides/",

	"https://docs.smith.langchain.com/prompts/",
	"https://docs.smith.langchain.com/prompts/concepts",
}

// Sources returns the full ingest corpus.
func Sources() []Source {
	var out []Source
	for _, u := range langchainURLs {
		out = append(out, Source{URL: u, Framework: FrameworkLangChain})
	}
	for _, u := range langgraphURLs {
		out = append(out, Source{URL: u, Framework: FrameworkLangGraph})
	}
	for _, u := range langsmithURLs {
		out = append(out, Source{URL: u, Framework: FrameworkLangSmith})
	}
	return out
}
