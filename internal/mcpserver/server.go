// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Laguz saved-search tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/search"
)

// ActionContractURI is the resource URI of the action contract.
const ActionContractURI = "laguz://action-contract"

// Server wraps the MCP server with Laguz tools.
type Server struct {
	mcp    *server.MCPServer
	notes  *noteservice.Service
	search *search.Service
}

// New creates a new MCP server with all Laguz tools registered.
func New(notes *noteservice.Service, searchSvc *search.Service) *Server {
	s := &Server{notes: notes, search: searchSvc}

	s.mcp = server.NewMCPServer(
		"Laguz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("quick_search",
		mcp.WithDescription("Search notes with the attribute query language (e.g. #todo, ~owner, \"free text\"). Archived notes are excluded."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.quickSearch)

	s.mcp.AddTool(mcp.NewTool("search_from_note",
		mcp.WithDescription("Resolve a saved search note to the ids of the notes it matches."),
		mcp.WithString("noteId", mcp.Required(), mcp.Description("Id of a note of type search")),
	), s.searchFromNote)

	s.mcp.AddTool(mcp.NewTool("search_and_execute",
		mcp.WithDescription("Resolve a saved search note and apply its actions to every match. "+
			"Read the action contract first via get_action_contract or the "+ActionContractURI+" resource."),
		mcp.WithString("noteId", mcp.Required(), mcp.Description("Id of a note of type search")),
	), s.searchAndExecute)

	s.mcp.AddTool(mcp.NewTool("related_notes",
		mcp.WithDescription("Find notes sharing an attribute, by name only and by name and value."),
		mcp.WithString("type", mcp.Required(), mcp.Enum(models.AttributeLabel, models.AttributeRelation), mcp.Description("Attribute type")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Attribute name")),
		mcp.WithString("value", mcp.Description("Attribute value; the target note id for relations")),
	), s.relatedNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note with its attributes, inherited attributes and revisions."),
		mcp.WithString("noteId", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("get_action_contract",
		mcp.WithDescription("Returns the JSON contract of the actions a search note may carry in its #action labels."),
	), s.getActionContract)

	// Resource: action contract.
	s.mcp.AddResource(
		mcp.NewResource(ActionContractURI, "Action Contract",
			mcp.WithResourceDescription("JSON format of #action labels on search notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readActionContractResource,
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

func (s *Server) quickSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids, err := s.search.QuickSearch(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return idsResult(ids), nil
}

func (s *Server) searchFromNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("noteId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids, err := s.search.SearchFromNote(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(describe(err, id)), nil
	}
	return idsResult(ids), nil
}

func (s *Server) searchAndExecute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("noteId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.search.SearchAndExecute(ctx, id); err != nil {
		return mcp.NewToolResultError(describe(err, id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("executed: %s", id)), nil
}

func (s *Server) relatedNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	attr := models.Attribute{Type: typ, Name: name, Value: req.GetString("value", "")}
	if err := validation.ValidateStruct(&attr,
		validation.Field(&attr.Type, validation.In(models.AttributeLabel, models.AttributeRelation)),
		validation.Field(&attr.Name, validation.Required),
	); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	related, err := s.search.RelatedNotes(ctx, attr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(related, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("noteId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.GetNote(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(describe(err, id)), nil
	}
	out, _ := json.MarshalIndent(note, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getActionContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ActionContract), nil
}

func (s *Server) readActionContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ActionContractURI,
			MIMEType: "text/markdown",
			Text:     ActionContract,
		},
	}, nil
}

func idsResult(ids []string) *mcp.CallToolResult {
	if len(ids) == 0 {
		return mcp.NewToolResultText("no notes found")
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n"))
}

// describe turns service errors into short tool messages.
func describe(err error, id string) string {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return fmt.Sprintf("not found: %s", id)
	case errors.Is(err, apperr.ErrTypeMismatch):
		return fmt.Sprintf("not a search note: %s", id)
	default:
		return err.Error()
	}
}
