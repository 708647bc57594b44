package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/sparhub/sparrow/pkg/mcp"
	"github.com/sparhub/sparrow/pkg/plugin"
)

const linkedinDefaultCommand = "linkedin-mcp-server"

// profileActions and companyActions are the accepted aliases for the two
// scraping operations.
var (
	profileActions = map[string]bool{"scrape_profile": true, "get_profile": true, "profile": true}
	companyActions = map[string]bool{"scrape_company": true, "get_company": true, "company": true}
)

// LinkedInPlugin scrapes LinkedIn profiles and companies through an
// external MCP server. Outside Docker it spawns and supervises the server
// itself; in Docker it connects to a shared instance.
type LinkedInPlugin struct {
	logger *slog.Logger
	meta   plugin.Metadata

	cookie    string
	serverURL string
	process   *mcp.Process
	client    *mcp.Client

	// Only these external tools are exposed.
	allowedTools map[string]bool
}

// NewLinkedIn constructs the LinkedIn plugin.
func NewLinkedIn() plugin.Plugin {
	return &LinkedInPlugin{
		logger: slog.Default().With("plugin", "linkedin_external"),
		allowedTools: map[string]bool{
			"get_person_profile":  true,
			"get_company_profile": true,
		},
		meta: plugin.Metadata{
			Name:        "linkedin_external",
			Version:     "1.0.0",
			Description: "LinkedIn profile and company scraper via external MCP server",
			Author:      "MCP Server Team",
			Capabilities: []string{
				"scrape_profile", "get_profile", "profile",
				"scrape_company", "get_company", "company",
			},
			// Required params depend on the action: linkedin_username or a
			// profile URL for profiles, company_name for companies.
			RequiredParams: map[string]string{},
			OptionalParams: map[string]string{
				"get_employees": "For company scraping - whether to fetch employee list (boolean)",
			},
		},
	}
}

// Initialize loads the cookie, resolves or spawns the external server and
// pre-establishes the MCP session so the first request does not pay the
// handshake cost.
func (p *LinkedInPlugin) Initialize(ctx context.Context, config map[string]any) error {
	p.logger.Info("initializing linkedin external plugin")

	p.cookie = stringParam(config, "linkedin_cookie")
	if p.cookie == "" {
		p.cookie = os.Getenv("LINKEDIN_COOKIE")
	}
	if p.cookie == "" {
		return fmt.Errorf("linkedin_cookie: LinkedIn cookie is required. Set LINKEDIN_COOKIE environment variable.")
	}

	if err := p.setupExternalServer(ctx, config); err != nil {
		return err
	}

	p.client = mcp.NewClient(p.serverURL,
		mcp.WithTimeout(mcp.LinkedInRequestTimeout),
		mcp.WithMaxRetries(mcp.LinkedInMaxRetries),
	)

	if err := p.client.InitializeSession(ctx); err != nil {
		// Session setup retries on the first request.
		p.logger.Warn("failed to initialize MCP session", "error", err)
	} else {
		tools := p.client.ListTools(ctx)
		for expected := range p.allowedTools {
			if !toolPresent(tools, expected) {
				p.logger.Warn("expected tool not available in external server", "tool", expected)
			}
		}
	}

	p.logger.Info("linkedin external plugin initialized")
	return nil
}

// Docker deployments share one MCP server; local runs spawn a private one
// with the cookie passed on the command line.
func (p *LinkedInPlugin) setupExternalServer(ctx context.Context, config map[string]any) error {
	if os.Getenv("DOCKER_ENV") == "true" {
		p.serverURL = os.Getenv("LINKEDIN_EXTERNAL_SERVER_URL")
		if p.serverURL == "" {
			return fmt.Errorf("LINKEDIN_EXTERNAL_SERVER_URL: environment variable not set in Docker")
		}
		p.logger.Info("using external LinkedIn MCP server in Docker network", "url", p.serverURL)
		p.process = nil
		return nil
	}

	host := stringParam(config, "external_server_host")
	if host == "" {
		host = mcp.DefaultHost
	}
	port := intParam(config, "external_server_port", mcp.LinkedInDefaultPort)
	command := stringParam(config, "server_command")
	if command == "" {
		command = linkedinDefaultCommand
	}

	args := []string{
		"run",
		"--transport", "streamable-http",
		"--host", host,
		"--port", fmt.Sprintf("%d", port),
		"--cookie", p.cookie,
		// Validate the cookie upfront so a bad one fails at startup, not on
		// the first scrape.
		"--no-lazy-init",
	}

	p.process = mcp.NewProcess(command, args, host, port, mcp.LinkedInStartupTimeout)
	p.serverURL = p.process.ServerURL()

	if err := p.process.Start(ctx); err != nil {
		p.logger.Error("failed to start LinkedIn MCP server", "error", err)
		return err
	}
	p.logger.Info("LinkedIn MCP server started", "url", p.serverURL)
	return nil
}

func (p *LinkedInPlugin) Execute(ctx context.Context, req *plugin.Request) (*plugin.Response, error) {
	if p.client == nil {
		return plugin.NewErrorResponse(req.RequestID, "Plugin not initialized. Please check configuration."), nil
	}

	p.logger.Info("linkedin plugin received request", "action", req.Action)

	// Unhealthy server gets one restart before the call.
	if !p.client.HealthCheck(ctx) {
		p.logger.Warn("LinkedIn MCP server health check failed, attempting restart")
		if p.process != nil {
			if err := p.process.Restart(ctx); err != nil {
				return plugin.NewErrorResponse(req.RequestID,
					fmt.Sprintf("Failed to call external LinkedIn MCP server: %v", err)), nil
			}
		}
		if err := p.client.InitializeSession(ctx); err != nil {
			p.logger.Warn("session re-initialization failed", "error", err)
		}
	}

	toolName, toolArgs, errMsg := p.resolveToolCall(req)
	if errMsg != "" {
		return plugin.NewErrorResponse(req.RequestID, errMsg), nil
	}

	if !p.allowedTools[toolName] {
		return plugin.NewErrorResponse(req.RequestID,
			fmt.Sprintf("Tool '%s' is not allowed", toolName)), nil
	}

	p.logger.Info("calling external LinkedIn MCP tool", "tool", toolName)
	response := p.client.CallTool(ctx, toolName, toolArgs)

	if response.IsError {
		errText := response.Text()
		p.logger.Error("external MCP error", "error", errText)
		return plugin.NewErrorResponse(req.RequestID, "External MCP error: "+errText), nil
	}

	var data any = response.Text()
	// The external server often returns JSON as a string; surface it
	// structured when it parses.
	if text, ok := data.(string); ok && strings.HasPrefix(strings.TrimSpace(text), "{") {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(text), &parsed); err == nil {
			data = parsed
		}
	}

	resp := plugin.NewSuccessResponse(req.RequestID, data)
	resp.Metadata["external_tool"] = toolName
	resp.Metadata["external_server"] = p.serverURL
	resp.Metadata["action_performed"] = toolName
	return resp, nil
}

// resolveToolCall maps the request action and parameters onto an external
// tool invocation. Returns a non-empty error message when the request
// cannot be satisfied.
func (p *LinkedInPlugin) resolveToolCall(req *plugin.Request) (tool string, args map[string]any, errMsg string) {
	action := strings.ToLower(req.Action)

	switch {
	case action == "get_person_profile":
		username := stringParam(req.Parameters, "linkedin_username")
		if username == "" {
			return "", nil, "Missing required parameter: linkedin_username"
		}
		return "get_person_profile", map[string]any{"linkedin_username": username}, ""

	case profileActions[action]:
		profileInput := stringParam(req.Parameters, "profile")
		if profileInput == "" {
			profileInput = stringParam(req.Parameters, "url")
		}
		if profileInput == "" {
			profileInput = stringParam(req.Parameters, "username")
		}
		if profileInput == "" {
			return "", nil, "Validation error: Profile URL or username is required"
		}

		username := stringParam(req.Parameters, "linkedin_username")
		if username == "" {
			username = ExtractLinkedInUsername(profileInput)
		}
		if username == "" {
			return "", nil, "Validation error: linkedin_username parameter is required for profile scraping"
		}
		return "get_person_profile", map[string]any{"linkedin_username": username}, ""

	case companyActions[action]:
		companyName := stringParam(req.Parameters, "company_name")
		if companyName == "" {
			return "", nil, "Validation error: company_name parameter is required for company scraping"
		}
		args := map[string]any{"company_name": companyName}
		if boolParam(req.Parameters, "get_employees") {
			args["get_employees"] = true
		}
		return "get_company_profile", args, ""

	default:
		return "", nil, "Validation error: Could not determine scraping type. Provide 'action', 'url', 'linkedin_username', or 'company_name'"
	}
}

func (p *LinkedInPlugin) ValidateRequest(req *plugin.Request) bool {
	return plugin.HasRequiredParams(p.meta, req)
}

// Shutdown closes the MCP client and stops the supervised server process.
// Safe to call multiple times.
func (p *LinkedInPlugin) Shutdown(ctx context.Context) error {
	p.logger.Info("shutting down linkedin external plugin")
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
	if p.process != nil {
		p.process.Stop()
		p.process = nil
	}
	return nil
}

func (p *LinkedInPlugin) Metadata() plugin.Metadata { return p.meta }

// ExtractLinkedInUsername pulls the username out of a profile URL like
// https://www.linkedin.com/in/jane-doe/. Returns "" when the URL does not
// carry one.
func ExtractLinkedInUsername(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "in" {
		return parts[1]
	}
	return ""
}

func toolPresent(tools []mcp.Tool, name string) bool {
	for _, tool := range tools {
		if toolName, _ := tool["name"].(string); toolName == name {
			return true
		}
	}
	return false
}
