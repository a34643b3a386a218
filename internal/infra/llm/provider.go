// Submitter adapters (HuggingFace inference, Groq / OpenAI-compatible chat)
// implement this interface so the orchestrator is never coupled to a vendor.

package llm

import "context"

// Submitter performs exactly one request/response cycle against a remote
// inference endpoint and classifies the result. It never retries or sleeps;
// all timing policy belongs to the Orchestrator.
type Submitter interface {
	// Submit sends one generation request.
	Submit(ctx context.Context, req GenerationRequest) Outcome

	// Status performs one side-effect-free model status check.
	// Success means the model is loaded and ready to serve.
	Status(ctx context.Context, modelID string) Outcome

	// ModelInfo returns static metadata about the provider/model.
	ModelInfo() ModelMeta
}
