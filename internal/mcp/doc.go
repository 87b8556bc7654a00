// Package mcp provides a Model Context Protocol (MCP) server for ghclient using mcp-go.
//
// The server exposes the typed GitHub operations as tools so that AI assistants
// can read repositories, pull requests, issues and gists through the account
// configured for ghclient.
//
// # Implementation
//
// The package uses the mcp-go library (github.com/mark3labs/mcp-go) and
// communicates via stdin/stdout using JSON-RPC 2.0.
//
// # Credentials
//
// Every tool runs under the auth-retry orchestrator. Because stdin carries the
// protocol, the orchestrator is built without a credential prompter: a missing
// or rejected credential is reported as a tool error instead of opening a
// login form. Run `ghclient login` beforehand.
//
// # Usage
//
// The server is typically started as a subprocess by an AI assistant:
//
//	ghclient mcp
//
// It reads requests from stdin and writes responses to stdout until EOF.
// Logs go to stderr, or to ghclient.log when DEBUG is set.
//
// # References
//
//   - Model Context Protocol: https://modelcontextprotocol.io
//   - mcp-go: https://github.com/mark3labs/mcp-go
package mcp
