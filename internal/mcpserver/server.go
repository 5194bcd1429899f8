// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the portfolio content tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/harlan/vitrin/internal/blog"
	"github.com/harlan/vitrin/internal/filestore"
)

// Server wraps the MCP server with the content tools.
type Server struct {
	mcp   *server.MCPServer
	repo  *blog.Repository
	store *filestore.Store
}

// New creates a new MCP server with all tools registered.
func New(repo *blog.Repository, store *filestore.Store) *Server {
	s := &Server{repo: repo, store: store}

	s.mcp = server.NewMCPServer(
		"Vitrin",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List all blog posts, drafts included, newest first."),
		mcp.WithString("tag", mcp.Description("Optional tag to filter published posts by")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read a blog post's metadata and Markdown content by slug."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug (e.g. hello-world)")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("create_post",
		mcp.WithDescription("Create a new blog post draft. Metadata MUST follow the "+
			"post format contract; read it first via the get_post_contract tool or the "+
			"vitrin://post-format resource. Posts are created unpublished."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Post title")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Short summary for listings")),
		mcp.WithString("author", mcp.Required(), mcp.Description("Author name")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown body")),
		mcp.WithString("slug", mcp.Description("Optional slug; derived from the title when omitted")),
		mcp.WithString("tags", mcp.Description("Optional comma-separated tags")),
	), s.createPost)

	s.mcp.AddTool(mcp.NewTool("read_resource",
		mcp.WithDescription("Read one of the whitelisted site documents "+
			"(profile, experience, skills, settings) as JSON."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Resource name")),
	), s.readResource)

	s.mcp.AddTool(mcp.NewTool("get_post_contract",
		mcp.WithDescription("Returns the canonical post format contract. "+
			"Call this before creating posts to ensure correct structure."),
	), s.getPostContract)

	// Resource: post format contract.
	s.mcp.AddResource(
		mcp.NewResource("vitrin://post-format", "Post Format Contract",
			mcp.WithResourceDescription("Canonical blog post format that all posts must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := ""
	if v, err := req.RequireString("tag"); err == nil {
		tag = v
	}

	var (
		posts []blog.Post
		err   error
	)
	if tag != "" {
		posts, err = s.repo.ListPublished(tag)
	} else {
		posts, err = s.repo.List()
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(posts, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	post, content, err := s.repo.Get(slug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	meta, _ := json.MarshalIndent(post, "", "  ")
	return mcp.NewToolResultText(string(meta) + "\n\n" + content), nil
}

func (s *Server) createPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	author, err := req.RequireString("author")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	meta := blog.Post{
		Title:       title,
		Description: description,
		Author:      author,
		// Drafts only: publishing stays a human decision in the admin UI.
		Published: false,
	}
	if v, err := req.RequireString("slug"); err == nil {
		meta.Slug = v
	}
	if v, err := req.RequireString("tags"); err == nil && v != "" {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				meta.Tags = append(meta.Tags, t)
			}
		}
	}

	created, err := s.repo.Create(meta, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created draft: %s", created.Slug)), nil
}

func (s *Server) readResource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.store.Load(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(doc)), nil
}

func (s *Server) getPostContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readPostFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "vitrin://post-format",
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}
