package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ghclient/internal/github"
	"ghclient/internal/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes the typed GitHub operations as MCP tools.
type Server struct {
	client    *github.Client
	orch      *github.Orchestrator
	logger    *logging.AppLogger
	mcpServer *server.MCPServer
	tools     []string
}

// NewServer creates a server whose tools call client under orch. orch should
// be built without a credential prompter: stdin carries the protocol.
func NewServer(client *github.Client, orch *github.Orchestrator, logger *logging.AppLogger, version string) *Server {
	if logger == nil {
		logger = logging.GetDefault()
	}
	s := &Server{
		client:    client,
		orch:      orch,
		logger:    logger.WithComponent("mcp"),
		mcpServer: server.NewMCPServer("ghclient", version, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s
}

// Start serves JSON-RPC on stdin/stdout until EOF.
func (s *Server) Start() error {
	s.logger.Info("Starting MCP server", "tools", len(s.tools))
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Tools returns the names of the registered tools.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcpServer.AddTool(tool, handler)
	s.tools = append(s.tools, tool.Name)
}

func withRepo() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
		mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
	}
}

func newTool(name, description string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(description)}, opts...)...)
}

func (s *Server) registerTools() {
	s.addTool(newTool("whoami", "Show the authenticated GitHub user"), s.handleWhoami)
	s.addTool(newTool("token_scopes", "List the OAuth scopes of the configured token"), s.handleTokenScopes)

	s.addTool(newTool("get_repo", "Get repository details including fork parent and source", withRepo()...), s.handleGetRepo)
	s.addTool(newTool("list_branches", "List repository branches", withRepo()...), s.handleListBranches)
	s.addTool(newTool("find_fork", "Find the fork of a repository owned by a user",
		append(withRepo(), mcp.WithString("user", mcp.Required(), mcp.Description("Login of the fork owner")))...,
	), s.handleFindFork)

	s.addTool(newTool("list_pull_requests", "List open pull requests", withRepo()...), s.handleListPullRequests)
	s.addTool(newTool("get_pull_request", "Get a pull request",
		append(withRepo(), mcp.WithNumber("number", mcp.Required(), mcp.Description("Pull request number")))...,
	), s.handleGetPullRequest)

	s.addTool(newTool("search_issues", "Search issues of a repository",
		append(withRepo(), mcp.WithString("query", mcp.Required(), mcp.Description("Search terms")))...,
	), s.handleSearchIssues)
	s.addTool(newTool("assigned_issues", "List open issues, optionally only those assigned to a user",
		append(withRepo(), mcp.WithString("assignee", mcp.Description("Assignee login")))...,
	), s.handleAssignedIssues)
	s.addTool(newTool("get_issue", "Get an issue with its comments",
		append(withRepo(), mcp.WithNumber("number", mcp.Required(), mcp.Description("Issue number")))...,
	), s.handleGetIssue)

	s.addTool(newTool("get_gist", "Get a gist with its files",
		mcp.WithString("id", mcp.Required(), mcp.Description("Gist ID")),
	), s.handleGetGist)
	s.addTool(newTool("create_gist", "Create a single-file gist",
		mcp.WithString("filename", mcp.Required(), mcp.Description("File name")),
		mcp.WithString("content", mcp.Required(), mcp.Description("File content")),
		mcp.WithString("description", mcp.Description("Gist description")),
		mcp.WithBoolean("public", mcp.Description("Create a public gist")),
	), s.handleCreateGist)
}

// runTool executes work with valid credentials and encodes the value as JSON.
// API failures become tool errors rather than protocol errors.
func runTool[T any](ctx context.Context, s *Server, name string, work github.Work[T]) (*mcp.CallToolResult, error) {
	s.logger.Debug("Tool called", "tool", name)
	v, err := github.RunWithValidCredentials(ctx, s.orch, work)
	if err != nil {
		s.logger.Warn("Tool failed", "tool", name, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", name, err)), nil
	}
	return jsonResult(v)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func repoArg(req mcp.CallToolRequest) (github.RepoPath, error) {
	owner, err := req.RequireString("owner")
	if err != nil {
		return github.RepoPath{}, err
	}
	repo, err := req.RequireString("repo")
	if err != nil {
		return github.RepoPath{}, err
	}
	owner, repo = strings.TrimSpace(owner), strings.TrimSpace(repo)
	if owner == "" || repo == "" {
		return github.RepoPath{}, fmt.Errorf("owner and repo must not be empty")
	}
	return github.RepoPath{Owner: owner, Repo: repo}, nil
}

func numberArg(req mcp.CallToolRequest) (int64, error) {
	n, err := req.RequireFloat("number")
	if err != nil {
		return 0, err
	}
	if n < 1 || n != float64(int64(n)) {
		return 0, fmt.Errorf("number must be a positive integer")
	}
	return int64(n), nil
}

func (s *Server) handleWhoami(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return runTool(ctx, s, "whoami", func(ctx context.Context, creds github.Credentials) (github.UserDetailed, error) {
		return s.client.CurrentUserDetailed(ctx, creds)
	})
}

func (s *Server) handleTokenScopes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return runTool(ctx, s, "token_scopes", func(ctx context.Context, creds github.Credentials) ([]string, error) {
		return s.client.TokenScopes(ctx, creds)
	})
}

func (s *Server) handleGetRepo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := repoArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return runTool(ctx, s, "get_repo", func(ctx context.Context, creds github.Credentials) (github.RepoDetailed, error) {
		return s.client.RepoDetailed(ctx, creds, repo)
	})
}

func (s *Server) handleListBranches(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := repoArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return runTool(ctx, s, "list_branches", func(ctx context.Context, creds github.Credentials) ([]github.Branch, error) {
		return s.client.RepoBranches(ctx, creds, repo)
	})
}

func (s *Server) handleFindFork(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := repoArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	user, err := req.RequireString("user")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return runTool(ctx, s, "find_fork", func(ctx context.Context, creds github.Credentials) (map[string]any, error) {
		fork, err := s.client.FindForkByUser(ctx, creds, repo, user)
		if err != nil {
			return nil, err
		}
		return map[string]any{"found": fork != nil, "fork": fork}, nil
	})
}

func (s *Server) handleListPullRequests(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := repoArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return runTool(ctx, s, "list_pull_requests", func(ctx context.Context, creds github.Credentials) ([]github.PullRequest, error) {
		return s.client.PullRequests(ctx, creds, repo)
	})
}

func (s *Server) handleGetPullRequest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := repoArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	number, err := numberArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return runTool(ctx, s, "get_pull_request", func(ctx context.Context, creds github.Credentials) (github.PullRequest, error) {
		return s.client.PullRequest(ctx, creds, repo, number)
	})
}

func (s *Server) handleSearchIssues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := repoArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return runTool(ctx, s, "search_issues", func(ctx context.Context, creds github.Credentials) ([]github.Issue, error) {
		return s.client.IssuesQueried(ctx, creds, repo, query)
	})
}

func (s *Server) handleAssignedIssues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := repoArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	assignee := req.GetString("assignee", "")
	return runTool(ctx, s, "assigned_issues", func(ctx context.Context, creds github.Credentials) ([]github.Issue, error) {
		return s.client.IssuesAssigned(ctx, creds, repo, assignee)
	})
}

type issueWithComments struct {
	github.Issue
	Comments []github.IssueComment `json:"comments"`
}

func (s *Server) handleGetIssue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := repoArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	number, err := numberArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return runTool(ctx, s, "get_issue", func(ctx context.Context, creds github.Credentials) (issueWithComments, error) {
		issue, err := s.client.Issue(ctx, creds, repo, number)
		if err != nil {
			return issueWithComments{}, err
		}
		comments, err := s.client.IssueComments(ctx, creds, repo, number)
		if err != nil {
			return issueWithComments{}, err
		}
		return issueWithComments{Issue: issue, Comments: comments}, nil
	})
}

func (s *Server) handleGetGist(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return runTool(ctx, s, "get_gist", func(ctx context.Context, creds github.Credentials) (github.Gist, error) {
		return s.client.Gist(ctx, creds, id)
	})
}

func (s *Server) handleCreateGist(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description := req.GetString("description", "")
	public := req.GetBool("public", false)

	var files []github.FileContent
	if strings.TrimSpace(content) != "" {
		files = append(files, github.FileContent{Name: filename, Content: content})
	}
	return runTool(ctx, s, "create_gist", func(ctx context.Context, creds github.Credentials) (map[string]string, error) {
		gist, err := s.client.CreateGist(ctx, creds, files, description, !public)
		if err != nil {
			return nil, err
		}
		return map[string]string{"id": gist.ID, "html_url": gist.HTMLURL}, nil
	})
}
