// Package openai provides an ai.Embedder backed by any OpenAI-compatible
// embedding API.
//
// The implementation uses langchaingo's OpenAI client, so it works with
// the OpenAI API as well as local servers that speak the same protocol
// (Ollama, LocalAI, vLLM). The host, model and API key come from
// ai.Config; hosts without a /v1 suffix are normalized automatically.
package openai
