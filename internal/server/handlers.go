package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/source-extract/internal/config"
	"github.com/ironsheep/source-extract/internal/extract"
	"github.com/ironsheep/source-extract/internal/position"
	"github.com/ironsheep/source-extract/internal/render"
	"github.com/ironsheep/source-extract/internal/skyimage"
	"github.com/ironsheep/source-extract/internal/srcerr"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "fits_header", "source_extract").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Invalid arguments, including unusable extraction settings, return code
// -32602. Any other tool failure returns -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warnf("tool %s failed: %v", params.Name, err)
		if srcerr.IsConfiguration(err) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "fits_header":
		return s.handleFitsHeader(args)
	case "fits_cache_clear":
		return s.handleCacheClear()
	case "source_position":
		return s.handleSourcePosition(args)
	case "source_extract":
		return s.handleSourceExtract(args)
	case "source_extract_batch":
		return s.handleSourceExtractBatch(args)
	default:
		return nil, srcerr.Configf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{JSONRPC: "2.0", ID: id, Error: e}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return srcerr.WrapConfig(err, "invalid arguments")
	}
	return nil
}

// === Header ===

type fitsHeaderArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleFitsHeader(args json.RawMessage) (interface{}, error) {
	var a fitsHeaderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, srcerr.Configf("path is required")
	}
	return skyimage.LoadHeaderInfo(s.cache, a.Path)
}

// CacheClearResult reports how many images were dropped from the cache.
type CacheClearResult struct {
	Evicted int `json:"evicted"`
}

func (s *Server) handleCacheClear() (interface{}, error) {
	n := s.cache.Len()
	s.cache.Clear()
	s.log.Debugf("cache cleared, %d images dropped", n)
	return &CacheClearResult{Evicted: n}, nil
}

// === Position ===

type sourcePositionArgs struct {
	Source string `json:"source"`
	LocDir string `json:"loc_dir"`
}

// PositionResult is the resolved position of a named source.
type PositionResult struct {
	Source  string  `json:"source"`
	LocFile string  `json:"loc_file"`
	RA      float64 `json:"ra_deg"`
	Dec     float64 `json:"dec_deg"`
}

func (s *Server) handleSourcePosition(args json.RawMessage) (interface{}, error) {
	var a sourcePositionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Source == "" {
		return nil, srcerr.Configf("source is required")
	}
	if a.LocDir == "" {
		a.LocDir = "."
	}
	pos, err := position.Load(a.LocDir, a.Source)
	if err != nil {
		return nil, err
	}
	return &PositionResult{
		Source:  a.Source,
		LocFile: position.LocFile(a.LocDir, a.Source),
		RA:      pos.RA,
		Dec:     pos.Dec,
	}, nil
}

// === Extraction ===

// extractArgs are the settings shared by both extraction tools. Zero values
// select the command-line defaults.
type extractArgs struct {
	Source         string   `json:"source"`
	LocDir         string   `json:"loc_dir"`
	Position       string   `json:"position"`
	Radius         float64  `json:"radius"`
	RMSInnerRadius *float64 `json:"rms_inner_radius"`
	RMSOuterRadius *float64 `json:"rms_outer_radius"`
	Polarization   int      `json:"polarization"`
	GaussfitMult   float64  `json:"gaussfit_mult"`
}

// options resolves the position, from the explicit text when given and from
// <loc_dir>/<source>.loc otherwise, and fills in defaults.
func (a extractArgs) options(s *Server) (extract.Options, error) {
	opts := extract.DefaultOptions()
	opts.Log = s.log
	opts.SourceName = a.Source

	switch {
	case a.Position != "":
		pos, err := position.Parse(a.Position)
		if err != nil {
			return opts, err
		}
		opts.Position = pos
	case a.Source != "":
		dir := a.LocDir
		if dir == "" {
			dir = "."
		}
		pos, err := position.Load(dir, a.Source)
		if err != nil {
			return opts, err
		}
		opts.Position = pos
	default:
		return opts, srcerr.Configf("either source or position is required")
	}

	if a.Radius != 0 {
		opts.Radius = a.Radius
	}
	if a.GaussfitMult != 0 {
		opts.GaussfitMult = a.GaussfitMult
	}
	// Stokes codes are never 0
	if a.Polarization != 0 {
		opts.Polarization = a.Polarization
	}
	opts.RMSInnerRadius, opts.RMSOuterRadius = a.RMSInnerRadius, a.RMSOuterRadius
	return opts, opts.Validate()
}

type sourceExtractArgs struct {
	Path string `json:"path"`
	extractArgs
	IncludePlot bool `json:"include_plot"`
}

// ExtractResult is the source_extract tool output.
type ExtractResult struct {
	Source string               `json:"source,omitempty"`
	Result *extract.FitResult   `json:"result"`
	Figure *render.FigureResult `json:"figure,omitempty"`
}

func (s *Server) handleSourceExtract(args json.RawMessage) (interface{}, error) {
	var a sourceExtractArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, srcerr.Configf("path is required")
	}
	opts, err := a.options(s)
	if err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, d, err := extract.Measure(img, opts)
	if err != nil {
		return nil, err
	}

	out := &ExtractResult{Source: a.Source, Result: res}
	if a.IncludePlot {
		fig, err := s.figure.Encode(d)
		if err != nil {
			// the measurement stands without its figure
			s.log.Warnf("%s: figure not rendered: %v", a.Path, err)
		} else {
			out.Figure = fig
		}
	}
	return out, nil
}

type sourceExtractBatchArgs struct {
	Paths []string `json:"paths"`
	extractArgs
	Output    string `json:"output"`
	Overwrite bool   `json:"overwrite"`
}

// SkippedImage names an image the batch could not measure.
type SkippedImage struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// BatchResult is the source_extract_batch tool output.
type BatchResult struct {
	Results   []*extract.FitResult `json:"results"`
	Skipped   []SkippedImage       `json:"skipped,omitempty"`
	Table     string               `json:"table"`
	TablePath string               `json:"table_path,omitempty"`
}

func (s *Server) handleSourceExtractBatch(args json.RawMessage) (interface{}, error) {
	var a sourceExtractBatchArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, srcerr.Configf("paths must name at least one image")
	}
	opts, err := a.options(s)
	if err != nil {
		return nil, err
	}
	if a.Output != "" {
		if err := config.CheckOutput(a.Output, a.Overwrite); err != nil {
			return nil, err
		}
	}

	// a private cache: the batch evicts each image once measured
	outcomes, err := extract.NewBatch(opts, nil, s.log).Run(a.Paths)
	if err != nil {
		return nil, err
	}

	out := &BatchResult{Results: extract.Successes(outcomes)}
	for _, f := range extract.Failures(outcomes) {
		out.Skipped = append(out.Skipped, SkippedImage{Path: f.Path, Error: f.Err.Error()})
	}

	var table bytes.Buffer
	if err := extract.WriteTable(&table, out.Results); err != nil {
		return nil, err
	}
	out.Table = table.String()

	if a.Output != "" {
		if err := extract.SaveTable(a.Output, out.Results, a.Overwrite); err != nil {
			return nil, err
		}
		out.TablePath = a.Output
	}
	s.log.Infof("batch: %d measured, %d skipped%s", len(out.Results), len(out.Skipped), tableNote(out.TablePath))
	return out, nil
}

func tableNote(path string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf(", table %s", path)
}
