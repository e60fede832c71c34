// Package hedera executes abilities against the Hedera network through its
// EVM-compatible JSON-RPC relay, and provides a simulated backend for
// development environments.
package hedera
