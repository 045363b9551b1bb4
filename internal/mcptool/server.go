package mcptool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "supplier-risk"

// NewServer returns an MCP server with the evaluation tools registered.
func NewServer(version string, tools *Tools) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)

	mcp.AddTool(server, MetadataEvaluateSupplier, tools.EvaluateSupplier)
	if tools.evaluations != nil {
		mcp.AddTool(server, MetadataGetEvaluation, tools.GetEvaluation)
	}

	return server
}
