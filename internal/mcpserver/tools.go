package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// searchKnowledgeTool defines the search_knowledge MCP tool.
var searchKnowledgeTool = mcp.NewTool("search_knowledge",
	mcp.WithDescription("Ask a question against the knowledge base. Returns a retrieval-grounded answer plus the supporting graph items."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Natural language question"),
	),
	mcp.WithNumber("top_k",
		mcp.Description("Maximum number of retrieval results to consider (default from configuration)"),
	),
)

// listDocumentsTool defines the list_documents MCP tool.
var listDocumentsTool = mcp.NewTool("list_documents",
	mcp.WithDescription("List the documents in the knowledge base with their processing status and graph group id."),
)

// getDocumentContentTool defines the get_document_content MCP tool.
var getDocumentContentTool = mcp.NewTool("get_document_content",
	mcp.WithDescription("Get the parsed markdown content of one document."),
	mcp.WithNumber("upload_id",
		mcp.Required(),
		mcp.Description("Numeric upload id of the document"),
	),
)

// getGraphTool defines the get_graph MCP tool.
var getGraphTool = mcp.NewTool("get_graph",
	mcp.WithDescription("Get the knowledge graph as a Mermaid diagram, optionally limited to specific document group ids."),
	mcp.WithString("group_ids",
		mcp.Description("Comma-separated graph group ids; omit for the whole knowledge base"),
	),
)
