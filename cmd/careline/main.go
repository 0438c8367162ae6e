// Careline is a customer-facing healthcare chat service backed by
// interchangeable LLM providers.
//
// It answers LINE webhook messages and a JSON chat API, providing:
//   - Multi-tier rate limiting with ban escalation for abusive callers
//   - Response caching and in-flight request deduplication
//   - Per-provider circuit breaking with automatic fallback across backends
//   - Curated healthcare answers for sensitive topics (HIV, PrEP, STDs)
//   - A deterministic static fallback when every backend is down
//
// Usage:
//
//	# Start the server with default configuration
//	careline run
//
//	# Start with a custom configuration file
//	careline run --config /path/to/config.yaml
//
//	# Validate a configuration file
//	careline validate --config /path/to/config.yaml
//
//	# Show version information
//	careline version
package main

func main() {
	Execute()
}
