// Package agent contains the core orchestrator responsible for translating
// natural-language requests into ability executions. It coordinates the model
// call, tool selection, backend dispatch, and response formatting for each
// conversational turn.
package agent
