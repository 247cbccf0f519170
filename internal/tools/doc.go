// Package tools implements the tool registry: the single source of truth
// for tool schemas and the validated dispatch path in front of them.
//
// Each tool is registered once with its mcp.Tool schema and a handler.
// Every caller, whether the MCP server, the LLM function-calling surface,
// or the HTTP boundary, goes through Dispatch, which validates the tool
// name and required parameters against the registered schema before the
// handler ever runs.
package tools
