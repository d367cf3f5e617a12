package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"time"

	"github.com/ironsheep/gauge-reader/internal/detection"
	"github.com/ironsheep/gauge-reader/internal/gauge"
	"github.com/ironsheep/gauge-reader/internal/imaging"
	"github.com/ironsheep/gauge-reader/internal/publish"
	"github.com/ironsheep/gauge-reader/internal/review"
)

// errNoQueue is returned by the review tools when the server has no queue.
var errNoQueue = errors.New("review queue is not enabled")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "gauge_read", "image_load").
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
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	// Gauge Reading
	case "gauge_read":
		return s.handleGaugeRead(ctx, args)
	case "gauge_profile":
		return s.handleGaugeProfile(args)

	// Review
	case "gauge_reviews_pending":
		return s.handleReviewsPending(args)
	case "gauge_review_decide":
		return s.handleReviewDecide(args)

	// Diagnostics
	case "gauge_debug_edges":
		return s.handleDebugEdges(args)
	case "gauge_detect_lines":
		return s.handleDetectLines(args)

	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// === Gauge Reading Handlers ===

type gaugeReadArgs struct {
	Path             string   `json:"path"`
	PreviousAngleDeg *float64 `json:"previous_angle_deg"`
	Archive          *bool    `json:"archive"`
}

type gaugeReadResult struct {
	gauge.Reading
	ValueText    string           `json:"value_text"`
	AngleDeg     float64          `json:"angle_deg"`
	Archived     string           `json:"archived,omitempty"`
	ArchiveError string           `json:"archive_error,omitempty"`
	Publish      *publish.Verdict `json:"publish,omitempty"`
	PublishError string           `json:"publish_error,omitempty"`
}

func (s *Server) handleGaugeRead(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a gaugeReadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	// Captures are read fresh; the same path usually holds a new image.
	img, err := imaging.LoadFile(a.Path)
	if err != nil {
		return nil, err
	}
	frame, err := gauge.NewFrame(img, fileTime(a.Path), a.Path)
	if err != nil {
		return nil, err
	}

	var opts []gauge.ProcessOption
	if a.PreviousAngleDeg != nil {
		opts = append(opts, gauge.WithPreviousAngle(gauge.Rad(*a.PreviousAngleDeg)))
	}
	r, err := s.pipeline.Process(ctx, frame, opts...)
	if err != nil {
		return nil, err
	}

	res := gaugeReadResult{
		Reading:   r,
		ValueText: r.ValueString(),
		AngleDeg:  math.Round(r.Observation.Angle*180/math.Pi*100) / 100,
	}
	if s.archiver != nil && boolOr(a.Archive, true) {
		loc, err := s.archiver.Archive(ctx, r)
		res.Archived = loc
		if err != nil {
			res.ArchiveError = err.Error()
		}
	}
	if s.publisher != nil {
		v, err := s.publisher.Handle(ctx, r)
		res.Publish = &v
		if err != nil {
			res.PublishError = err.Error()
		}
	}
	return res, nil
}

// fileTime is the modification time of path, or zero when unknown.
func fileTime(path string) time.Time {
	if info, err := os.Stat(path); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}

type profileInfo struct {
	Name             string             `json:"name"`
	Width            int                `json:"width"`
	Height           int                `json:"height"`
	Pivot            detection.PointF   `json:"pivot"`
	ReferenceAxisDeg float64            `json:"reference_axis_deg"`
	Clockwise        bool               `json:"clockwise"`
	ControlPoints    []controlInfo      `json:"control_points"`
	OutOfRange       string             `json:"out_of_range"`
	Needle           gauge.NeedleParams `json:"needle"`
	Quality          gauge.Thresholds   `json:"quality"`
	ReviewTimeout    string             `json:"review_timeout"`
	DeadZonePixels   int                `json:"dead_zone_pixels"`
	Dial             gauge.DialParams   `json:"dial"`
}

type controlInfo struct {
	AngleDeg float64 `json:"angle_deg"`
	Value    float64 `json:"value"`
}

func (s *Server) handleGaugeProfile(args json.RawMessage) (interface{}, error) {
	p := s.pipeline.Profile()
	info := profileInfo{
		Name:             p.Name,
		Width:            p.Width,
		Height:           p.Height,
		Pivot:            p.Pivot(),
		ReferenceAxisDeg: roundDeg(p.ReferenceAxis),
		Clockwise:        p.Clockwise,
		OutOfRange:       string(p.OutOfRange),
		Needle:           p.Needle,
		Quality:          p.Quality,
		ReviewTimeout:    p.ReviewTimeout.String(),
		Dial:             p.Dial,
	}
	for _, cp := range p.ControlPoints {
		info.ControlPoints = append(info.ControlPoints, controlInfo{AngleDeg: roundDeg(cp.Angle), Value: cp.Value})
	}
	if p.Mask != nil {
		info.DeadZonePixels = p.Mask.Count()
	}
	return info, nil
}

func roundDeg(rad float64) float64 {
	return math.Round(rad*180/math.Pi*100) / 100
}

// === Review Handlers ===

type reviewsPendingArgs struct {
	IncludePreview *bool `json:"include_preview"`
}

type reviewsPendingResult struct {
	Count int           `json:"count"`
	Items []review.Item `json:"items"`
}

func (s *Server) handleReviewsPending(args json.RawMessage) (interface{}, error) {
	var a reviewsPendingArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, errNoQueue
	}
	items := s.queue.Pending()
	if !boolOr(a.IncludePreview, true) {
		for i := range items {
			items[i].Preview = ""
		}
	}
	return reviewsPendingResult{Count: len(items), Items: items}, nil
}

type reviewDecideArgs struct {
	ID       string `json:"id"`
	Decision string `json:"decision"`
}

func (s *Server) handleReviewDecide(args json.RawMessage) (interface{}, error) {
	var a reviewDecideArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, errNoQueue
	}
	if err := s.queue.Decide(a.ID, gauge.Decision(a.Decision)); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"id":       a.ID,
		"decision": a.Decision,
	}, nil
}

// === Diagnostic Handlers ===

type debugEdgesArgs struct {
	Path          string `json:"path"`
	Canonical     *bool  `json:"canonical"`
	ThresholdLow  int    `json:"threshold_low"`
	ThresholdHigh int    `json:"threshold_high"`
}

// loadView returns the image at path, normalized and masked when canonical.
func (s *Server) loadView(path string, canonical bool) (image.Image, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	if !canonical {
		return img, nil
	}
	f, err := s.pipeline.Prepare(gauge.Frame{Image: img, Source: path})
	if err != nil {
		return nil, err
	}
	return f.Image, nil
}

func (s *Server) handleDebugEdges(args json.RawMessage) (interface{}, error) {
	var a debugEdgesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	n := s.pipeline.Profile().Needle
	if a.ThresholdLow == 0 {
		a.ThresholdLow = n.CannyLow
	}
	if a.ThresholdHigh == 0 {
		a.ThresholdHigh = n.CannyHigh
	}
	img, err := s.loadView(a.Path, boolOr(a.Canonical, true))
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, a.ThresholdLow, a.ThresholdHigh)
}

type detectLinesArgs struct {
	Path      string `json:"path"`
	Canonical *bool  `json:"canonical"`
	MinLength int    `json:"min_length"`
}

func (s *Server) handleDetectLines(args json.RawMessage) (interface{}, error) {
	var a detectLinesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MinLength == 0 {
		a.MinLength = int(s.pipeline.Profile().Needle.MinLength)
	}
	img, err := s.loadView(a.Path, boolOr(a.Canonical, true))
	if err != nil {
		return nil, err
	}
	return detection.DetectLines(img, a.MinLength)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}
