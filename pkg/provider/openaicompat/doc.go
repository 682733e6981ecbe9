// Package openaicompat holds the Chat Completions wire types and the shared
// encode/decode/error-mapping code used by every OpenAI-compatible adapter
// (OpenAI, Groq, Fireworks, Perplexity). Provider packages configure a Base
// and delegate to it.
package openaicompat
