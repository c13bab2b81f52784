// Switchboard is an LLM request gateway. It spreads completion requests
// over a pool of backends with load balancing, per-backend rate limits,
// retry with failover, a response cache and a usage ledger.
//
// Usage:
//
//	# Start the gateway
//	switchboard run --config config.yaml
//
//	# Reload backends and routing when the file changes
//	switchboard run --config config.yaml --watch
//
//	# Check a configuration file
//	switchboard validate --config config.yaml
//
//	# List the configured backends
//	switchboard models --config config.yaml
//
//	# Show version information
//	switchboard version
package main

func main() {
	Execute()
}
