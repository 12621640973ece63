package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/ownerlookup/api/handler"
	"github.com/use-agent/ownerlookup/models"
)

func main() {
	apiURL := os.Getenv("OWNERLOOKUP_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("OWNERLOOKUP_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "OWNERLOOKUP_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"ownerlookup",
		handler.Version,
		server.WithToolCapabilities(false),
	)

	// A lookup signs in and walks two pages, and queues behind any
	// running lookup, so the client timeout is generous.
	client := &http.Client{Timeout: 5 * time.Minute}
	s.AddTool(lookupOwnersTool(), handleLookupOwners(strings.TrimRight(apiURL, "/"), apiKey, client))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}

func lookupOwnersTool() mcp.Tool {
	return mcp.NewTool("lookup_owners",
		mcp.WithDescription("Look up the owners (officers) of a US company on OpenCorporates. Only results registered in the service's configured states are matched."),
		mcp.WithString("business_name",
			mcp.Required(),
			mcp.Description("The company name to search for, e.g. 'Acme LLC'"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Serve a cached result younger than this many milliseconds (default: 0, always look up)"),
		),
	)
}

func handleLookupOwners(apiURL, apiKey string, client *http.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("business_name")
		if err != nil || strings.TrimSpace(name) == "" {
			return mcp.NewToolResultError("business_name is required"), nil
		}

		reqBody := models.LookupRequest{
			BusinessName: name,
			MaxAge:       int(request.GetFloat("max_age", 0)),
		}
		body, err := json.Marshal(reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/api/v1/lookup", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("X-API-Key", apiKey)

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var lookupResp models.LookupResponse
		if err := json.Unmarshal(respBody, &lookupResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !lookupResp.Success || lookupResp.Owners == nil {
			errMsg := fmt.Sprintf("lookup failed (HTTP %d)", resp.StatusCode)
			if lookupResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", lookupResp.Error.Code, lookupResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(formatOwners(lookupResp)), nil
	}
}

func formatOwners(resp models.LookupResponse) string {
	o := resp.Owners
	var b strings.Builder
	fmt.Fprintf(&b, "Business: %s\nStatus: %s\n", resp.BusinessName, o.Status)
	if o.MatchedName != "" {
		fmt.Fprintf(&b, "Matched: %s\n", o.MatchedName)
	}
	if o.SourceURL != "" {
		fmt.Fprintf(&b, "Source: %s\n", o.SourceURL)
	}
	if o.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", o.Reason)
	}
	if resp.CacheStatus != "" {
		fmt.Fprintf(&b, "Cache: %s\n", resp.CacheStatus)
	}

	b.WriteString("\nOwners:\n")
	if o.Text == "" {
		b.WriteString("(none found)")
	} else {
		b.WriteString(o.Text)
	}
	return b.String()
}
