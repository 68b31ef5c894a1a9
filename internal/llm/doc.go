// Package llm classifies free-text expense descriptions through a language
// model. Provider clients for OpenAI and Anthropic sit behind the narrow
// Client interface, and Classifier validates their output against a closed
// category set.
package llm
