// Package mcpserver exposes the question-answering service as MCP tools so
// editor agents can index documents and ask grounded questions over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/logging"
	"github.com/simiyu-dess/OnboardIQ/internal/service"
)

// Port is the subset of the service the tools call.
type Port interface {
	IndexFiles(ctx context.Context, paths []string, clearExisting bool) (service.IndexReport, error)
	Retrieve(ctx context.Context, query string) ([]domain.Fragment, error)
	Answer(ctx context.Context, query string) (service.Answer, error)
	DocumentCount(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) error
}

// Server wraps an MCP SDK server with the tools registered.
type Server struct {
	MCPServer *sdkmcp.Server
	svc       Port
	log       *zap.Logger
}

// NewServer creates a server named onboardiq at version.
func NewServer(svc Port, version string, log *zap.Logger) *Server {
	s := &Server{
		MCPServer: sdkmcp.NewServer(&sdkmcp.Implementation{Name: "onboardiq", Version: version}, nil),
		svc:       svc,
		log:       logging.OrNop(log).Named("mcp"),
	}
	s.registerTools()
	return s
}

// Run serves over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("serving MCP over stdio")
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "index_files",
		Description: "Load, split and index documents (.txt, .md, .pdf, .docx). Paths may be files, directories or globs.",
	}, s.handleIndex)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the indexed documents. Out-of-context questions get an explanatory reply instead.",
	}, s.handleAsk)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "retrieve",
		Description: "Return the indexed fragments most similar to a query, without generating an answer.",
	}, s.handleRetrieve)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "count",
		Description: "Return the number of indexed fragments.",
	}, s.handleCount)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "clear_all",
		Description: "Delete the indexed collection.",
	}, s.handleClear)
}

// --- Tool input/output types ---

type indexInput struct {
	Paths  []string `json:"paths" jsonschema:"files, directories or glob patterns to index"`
	Append bool     `json:"append,omitempty" jsonschema:"keep the existing collection instead of replacing it"`
}

type indexOutput struct {
	Files     int    `json:"files"`
	Documents int    `json:"documents"`
	Fragments int    `json:"fragments"`
	Summary   string `json:"summary,omitempty"`
}

type askInput struct {
	Query string `json:"query" jsonschema:"the question to answer"`
	Trace bool   `json:"trace,omitempty" jsonschema:"include every stage's output"`
}

type reference struct {
	Source string   `json:"source"`
	Page   *int     `json:"page,omitempty"`
	Score  *float64 `json:"score,omitempty"`
	Text   string   `json:"text"`
}

type stage struct {
	ID      string `json:"id"`
	Persona string `json:"persona"`
	Output  string `json:"output"`
	Millis  int64  `json:"millis"`
}

type askOutput struct {
	RunID        string      `json:"run_id"`
	Answer       string      `json:"answer"`
	Workflow     string      `json:"workflow,omitempty"`
	OutOfContext bool        `json:"out_of_context"`
	Degraded     bool        `json:"degraded,omitempty"`
	Explanation  string      `json:"explanation"`
	References   []reference `json:"references"`
	Trace        []stage     `json:"trace,omitempty"`
}

type retrieveInput struct {
	Query string `json:"query" jsonschema:"text to search for"`
}

type retrieveOutput struct {
	Fragments []reference `json:"fragments"`
}

type countOutput struct {
	Count int `json:"count"`
}

type clearOutput struct {
	OK bool `json:"ok"`
}

// --- Tool handlers ---

func (s *Server) handleIndex(ctx context.Context, _ *sdkmcp.CallToolRequest, in indexInput) (*sdkmcp.CallToolResult, indexOutput, error) {
	if len(in.Paths) == 0 {
		return nil, indexOutput{}, errors.New("paths is required")
	}
	report, err := s.svc.IndexFiles(ctx, in.Paths, !in.Append)
	if err != nil {
		return nil, indexOutput{}, fmt.Errorf("index_files: %w", err)
	}
	return nil, indexOutput{
		Files:     report.Files,
		Documents: report.Documents,
		Fragments: report.Fragments,
		Summary:   report.Summary,
	}, nil
}

func (s *Server) handleAsk(ctx context.Context, _ *sdkmcp.CallToolRequest, in askInput) (*sdkmcp.CallToolResult, askOutput, error) {
	if in.Query == "" {
		return nil, askOutput{}, errors.New("query is required")
	}
	ans, err := s.svc.Answer(ctx, in.Query)
	if err != nil {
		return nil, askOutput{}, fmt.Errorf("ask: %w", err)
	}
	out := askOutput{
		RunID:        ans.RunID,
		Answer:       ans.Text,
		Workflow:     string(ans.Workflow),
		OutOfContext: ans.OutOfContext,
		Degraded:     ans.Degraded,
		Explanation:  ans.Verdict.Explanation,
		References:   references(ans.References),
	}
	if in.Trace {
		for _, rec := range ans.Trace {
			out.Trace = append(out.Trace, stage{
				ID:      rec.StageID,
				Persona: rec.Persona,
				Output:  rec.Output,
				Millis:  rec.Duration.Milliseconds(),
			})
		}
	}
	s.log.Debug("ask", zap.String("run_id", ans.RunID), zap.Bool("out_of_context", ans.OutOfContext))
	return nil, out, nil
}

func (s *Server) handleRetrieve(ctx context.Context, _ *sdkmcp.CallToolRequest, in retrieveInput) (*sdkmcp.CallToolResult, retrieveOutput, error) {
	frags, err := s.svc.Retrieve(ctx, in.Query)
	if err != nil {
		return nil, retrieveOutput{}, fmt.Errorf("retrieve: %w", err)
	}
	return nil, retrieveOutput{Fragments: references(frags)}, nil
}

func (s *Server) handleCount(ctx context.Context, _ *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, countOutput, error) {
	n, err := s.svc.DocumentCount(ctx)
	if err != nil {
		return nil, countOutput{}, err
	}
	return nil, countOutput{Count: n}, nil
}

func (s *Server) handleClear(ctx context.Context, _ *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, clearOutput, error) {
	if err := s.svc.ClearAll(ctx); err != nil {
		return nil, clearOutput{}, err
	}
	return nil, clearOutput{OK: true}, nil
}

func references(frags []domain.Fragment) []reference {
	refs := make([]reference, 0, len(frags))
	for _, f := range frags {
		refs = append(refs, reference{Source: f.Source, Page: f.Page, Score: f.RelevanceScore, Text: f.Content})
	}
	return refs
}
