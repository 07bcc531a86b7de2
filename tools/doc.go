// Package tools defines the Tool interface for agent-callable tools, including
// registration, parameter schema, and MCP integration. Tools let a hosting
// agent interact with external systems and APIs in a structured, extensible way.
package tools
