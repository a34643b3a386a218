package ideas

import "github.com/matiasleandrokruk/ideaforge/internal/infra/llm"

// Endpoint names one generation operation. It doubles as the history label.
type Endpoint string

const (
	EndpointGenerateIdea    Endpoint = "generate-idea"
	EndpointAnalyzeIdeas    Endpoint = "analyze-ideas"
	EndpointCategorizeIdea  Endpoint = "categorize-idea"
	EndpointCheckSimilarity Endpoint = "check-similarity"
	EndpointSummarizeIdea   Endpoint = "summarize-idea"
	EndpointFeedbackIdea    Endpoint = "feedback-idea"
	EndpointTest            Endpoint = "test"
)

// testPrompt is sent by the connectivity check.
const testPrompt = "Hello, this is a test."

// profile is the fixed per-endpoint prompt setup.
type profile struct {
	template string
	system   string
	override llm.Parameters
}

var profiles = map[Endpoint]profile{
	EndpointGenerateIdea: {
		template: "generate_idea.tmpl",
		system:   "You are a creative AI assistant specialized in generating innovative ideas. Your responses should be practical, detailed, and actionable.",
	},
	EndpointAnalyzeIdeas: {
		template: "analyze_ideas.tmpl",
		system:   "You are an expert AI analyst specialized in identifying connections and opportunities between different ideas. Your analysis should be thorough, practical, and actionable.",
	},
	EndpointCategorizeIdea: {
		template: "categorize_idea.tmpl",
		system:   "You are a helpful assistant specialized in categorizing ideas.",
	},
	EndpointCheckSimilarity: {
		template: "check_similarity.tmpl",
		system:   "You are a helpful assistant specialized in analyzing text similarities.",
	},
	EndpointSummarizeIdea: {
		template: "summarize_idea.tmpl",
		system:   "You are a helpful assistant specialized in summarizing and analyzing ideas.",
		override: llm.Parameters{MaxLength: 400, Temperature: 0.5},
	},
	EndpointFeedbackIdea: {
		template: "feedback_idea.tmpl",
		system:   "You are a helpful assistant specialized in providing detailed feedback on ideas.",
		override: llm.Parameters{MaxLength: 600, Temperature: 0.6},
	},
	EndpointTest: {
		override: llm.Parameters{MaxLength: 50},
	},
}

// businessIdeaTemplate replaces generate_idea.tmpl when the caller sends
// category and keywords instead of a free-form prompt.
const businessIdeaTemplate = "generate_business_idea.tmpl"

// DefaultParameters returns the base generation parameters for provider.
// Text-generation endpoints take sampling switches the chat API rejects, so
// the two sets differ.
func DefaultParameters(provider string) llm.Parameters {
	if provider == llm.ProviderHuggingFace {
		return llm.Parameters{
			MaxLength:   500,
			Temperature: 0.7,
			TopP:        0.9,
			DoSample:    true,
			Extra: map[string]any{
				"num_return_sequences": 1,
				"repetition_penalty":   1.2,
			},
		}
	}
	return llm.Parameters{
		MaxLength:   1000,
		Temperature: 0.7,
		TopP:        0.9,
	}
}

// parametersFor merges the endpoint override onto the provider defaults.
func parametersFor(provider string, e Endpoint) llm.Parameters {
	return DefaultParameters(provider).Merge(profiles[e].override)
}
