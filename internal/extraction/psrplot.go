package extraction

import (
	"context"
	"errors"
	"fmt"

	"candpipe/internal/sigproc"
)

// ErrRenderTool is returned when the rendering tool exits non-zero.
var ErrRenderTool = errors.New("render tool failed")

// DefaultRenderTool is the conventional name of the rendering binary.
const DefaultRenderTool = "psrplot"

// Renderer invokes the external rendering tool to produce the dynamic
// spectrum PNG from a folded archive.
type Renderer struct {
	runner sigproc.Runner
	tool   string
}

// NewRenderer creates a Renderer. An empty tool name selects
// DefaultRenderTool.
func NewRenderer(runner sigproc.Runner, tool string) *Renderer {
	if tool == "" {
		tool = DefaultRenderTool
	}
	return &Renderer{runner: runner, tool: tool}
}

// RenderRequest carries one rendering invocation's parameters.
type RenderRequest struct {
	ArchivePath    string
	MaskFile       string // psrsh zap mask
	ChannelScrunch int
	LeftLabel      string // annotation above the plot, left
	RightLabel     string // annotation above the plot, right
	OutputPath     string // destination PNG
}

// Render produces the PNG at req.OutputPath.
func (r *Renderer) Render(ctx context.Context, req RenderRequest) error {
	args := []string{
		"-p", "freq+",
		"-J", req.MaskFile,
		"-j", fmt.Sprintf("F %d", req.ChannelScrunch),
		"-c", "above:l=" + req.LeftLabel,
		"-c", "above:c=",
		"-c", "above:r=" + req.RightLabel,
		"-c", "x:unit=ms",
		"-c", "y:reverse=1",
		"-D", req.OutputPath + "/PNG",
		req.ArchivePath,
	}

	if err := r.runner.Run(ctx, "", r.tool, args...); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderTool, err)
	}
	return nil
}
