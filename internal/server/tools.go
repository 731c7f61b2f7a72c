package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// extractProperties are the schema entries shared by both extraction tools.
func extractProperties() map[string]interface{} {
	return map[string]interface{}{
		"source": map[string]interface{}{
			"type":        "string",
			"description": "Source name. Its position is read from <loc_dir>/<source>.loc unless position is given",
		},
		"loc_dir": map[string]interface{}{
			"type":        "string",
			"description": "Directory holding the .loc files (default: current directory)",
		},
		"position": map[string]interface{}{
			"type":        "string",
			"description": "Explicit position as \"HH:MM:SS ±DD:MM:SS\"",
		},
		"radius": map[string]interface{}{
			"type":        "number",
			"description": "Radius in degrees around the position to search for the peak (default: 1.0)",
		},
		"rms_inner_radius": map[string]interface{}{
			"type":        "number",
			"description": "Inner radius in degrees of the rms annulus; requires rms_outer_radius",
		},
		"rms_outer_radius": map[string]interface{}{
			"type":        "number",
			"description": "Outer radius in degrees of the rms annulus; requires rms_inner_radius",
		},
		"polarization": map[string]interface{}{
			"type":        "integer",
			"description": "Stokes code of the plane to measure (default: 1, Stokes I)",
		},
		"gaussfit_mult": map[string]interface{}{
			"type":        "number",
			"description": "Beam multiplier for the Gaussian fit mask (default: 1.0)",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	single := extractProperties()
	single["path"] = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the FITS image",
	}
	single["include_plot"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Return the diagnostic figure as a base64-encoded PNG",
		"default":     false,
	}

	batch := extractProperties()
	batch["paths"] = map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": "FITS images to measure; rows are ordered by path",
	}
	batch["output"] = map[string]interface{}{
		"type":        "string",
		"description": "Also write the results table to this path",
	}
	batch["overwrite"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Replace an existing output table",
		"default":     false,
	}

	return []Tool{
		{
			Name:        "fits_header",
			Description: "Describe a FITS image cube: axes, polarizations, frequency, beam and pixel size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the FITS image",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "fits_cache_clear",
			Description: "Drop every cached FITS image to release memory. Later calls reload from disk.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
				"required":   []string{},
			},
		},
		{
			Name:        "source_position",
			Description: "Resolve a source name to RA/Dec in degrees from its .loc file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": map[string]interface{}{
						"type":        "string",
						"description": "Source name",
					},
					"loc_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory holding the .loc files (default: current directory)",
					},
				},
				"required": []string{"source"},
			},
		},
		{
			Name: "source_extract",
			Description: "Measure a point source in one FITS image: peak flux, its error from the background rms, " +
				"and the peak and integrated flux of a beam-masked 2D Gaussian fit.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": single,
				"required":   []string{"path"},
			},
		},
		{
			Name: "source_extract_batch",
			Description: "Measure a source across many FITS images and build the spectrum table. " +
				"Images with defects are skipped and reported.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": batch,
				"required":   []string{"paths"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
