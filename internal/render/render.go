// Package render formats agent output for the terminal: markdown answers,
// conversation transcripts, live progress and failure banners.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/simonyos/travelagent/internal/agent"
	"github.com/simonyos/travelagent/internal/llm"
	"github.com/simonyos/travelagent/internal/tools"
)

const maxResultLen = 300

// Options configure a Renderer.
type Options struct {
	Width int
	// Style is a glamour style name. "dark" avoids terminal color queries;
	// "notty" renders plain text.
	Style string
	Theme *Theme
}

// Renderer turns agent results into terminal text.
type Renderer struct {
	md     *glamour.TermRenderer
	styles styles
	width  int
}

// New creates a renderer.
func New(opts Options) (*Renderer, error) {
	if opts.Width <= 0 {
		opts.Width = 100
	}
	if opts.Style == "" {
		opts.Style = "dark"
	}
	theme := DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithStylePath(opts.Style),
		glamour.WithWordWrap(opts.Width-10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return &Renderer{md: md, styles: newStyles(theme), width: opts.Width}, nil
}

// Markdown renders content as terminal markdown, falling back to the raw
// text when it cannot be parsed.
func (r *Renderer) Markdown(content string) string {
	out, err := r.md.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(out)
}

// Answer renders a final answer with its header.
func (r *Renderer) Answer(result *agent.Result) string {
	var sb strings.Builder
	sb.WriteString(r.styles.assistant.Render("✈ Travel Planner"))
	sb.WriteString(" " + r.styles.badge.Render(fmt.Sprintf("%d turns · %d tools", result.Iterations, len(result.ToolCalls))))
	sb.WriteString("\n\n")
	sb.WriteString(r.Markdown(result.Answer))
	sb.WriteString("\n")
	return sb.String()
}

// Failure renders a banner describing why a run stopped.
func (r *Renderer) Failure(result *agent.Result, err error) string {
	failure := agent.Classify(err)
	if result != nil && result.Failure != "" {
		failure = result.Failure
	}

	title := r.styles.errorText.Render("✗ " + failureTitle(failure))
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	body := title + "\n" + detail
	if result != nil {
		body += "\n" + r.styles.muted.Render(fmt.Sprintf("after %d turns and %d tool calls", result.Iterations, len(result.ToolCalls)))
	}
	return r.styles.banner.Render(body) + "\n"
}

func failureTitle(failure string) string {
	switch failure {
	case agent.FailureConvergence:
		return "No answer within the iteration limit"
	case agent.FailureBackendExhausted:
		return "Model backend unavailable after retries"
	case agent.FailureBackendFatal:
		return "Model backend rejected the request"
	case agent.FailureCanceled:
		return "Cancelled"
	}
	return "Internal error"
}

// Transcript renders every message of a conversation with a role badge.
func (r *Renderer) Transcript(messages []llm.Message) string {
	var sb strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			sb.WriteString(r.styles.system.Render("ℹ system") + "\n")
			sb.WriteString(r.styles.muted.Render(indent(firstLine(msg.Content))) + "\n\n")

		case llm.RoleUser:
			sb.WriteString(r.styles.user.Render("◉ You") + "\n")
			sb.WriteString(r.styles.body.Render(msg.Content) + "\n\n")

		case llm.RoleAssistant:
			sb.WriteString(r.styles.assistant.Render("✈ Assistant") + "\n")
			if msg.Content != "" {
				sb.WriteString(indent(r.Markdown(msg.Content)) + "\n")
			}
			for _, req := range msg.ToolRequests {
				sb.WriteString("  " + r.styles.warning.Render("→ "+req.Name) + r.styles.muted.Render(" "+requestArgs(req)) + "\n")
			}
			sb.WriteString("\n")

		case llm.RoleTool:
			icon := r.styles.success.Render("✓")
			if msg.IsError {
				icon = r.styles.errorText.Render("✗")
			}
			sb.WriteString("  " + icon + " " + r.styles.tool.Render(msg.Name) + r.styles.muted.Render(" ("+msg.ToolCallID+")") + "\n")
			sb.WriteString(r.styles.muted.Render(indent(truncate(msg.Content))) + "\n\n")
		}
	}
	return sb.String()
}

// ToolLine renders one finished tool call.
func (r *Renderer) ToolLine(exec agent.ToolExecution) string {
	icon := r.styles.success.Render("✓")
	if !exec.Result.Success {
		icon = r.styles.errorText.Render("✗")
	}
	line := "  " + icon + " " + r.styles.tool.Render(exec.Name)
	if exec.Args != "" {
		line += r.styles.muted.Render(" → " + exec.Args)
	}
	return line + r.styles.muted.Render(fmt.Sprintf(" (%s)", exec.Duration.Round(time.Millisecond)))
}

func requestArgs(req llm.ToolRequest) string {
	if req.Arguments == nil {
		return req.RawArguments
	}
	parts := make([]string, 0, len(req.Arguments))
	for _, k := range sortedKeys(req.Arguments) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, req.Arguments[k]))
	}
	return strings.Join(parts, " ")
}

func truncate(s string) string {
	s = strings.TrimRight(s, "\n")
	if len(s) > maxResultLen {
		return s[:maxResultLen] + "\n⋯ (truncated)"
	}
	return s
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ⋯"
	}
	return s
}

// Progress writes live agent events to w. It implements agent.EventHandler
// and is safe to share between concurrent runs.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	styles  styles
	verbose bool
}

// NewProgress creates a progress printer. verbose adds tool results.
func NewProgress(w io.Writer, verbose bool) *Progress {
	return &Progress{w: w, styles: newStyles(DefaultTheme()), verbose: verbose}
}

func (p *Progress) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

func (p *Progress) OnThinking(iteration int) {
	p.printf("%s\n", p.styles.assistant.Render(fmt.Sprintf("● thinking (turn %d)...", iteration)))
}

func (p *Progress) OnToolUse(req llm.ToolRequest) {
	p.printf("  %s %s\n", p.styles.warning.Render("◐ "+req.Name), p.styles.muted.Render(requestArgs(req)))
}

func (p *Progress) OnToolResult(req llm.ToolRequest, result tools.ToolResult) {
	icon := p.styles.success.Render("✓")
	if !result.Success {
		icon = p.styles.errorText.Render("✗")
	}
	line := fmt.Sprintf("  %s %s", icon, p.styles.tool.Render(req.Name))
	if !result.Success {
		line += " " + p.styles.errorText.Render(result.Error)
	} else if p.verbose {
		line += "\n" + p.styles.muted.Render(indent(truncate(result.Output)))
	}
	p.printf("%s\n", line)
}

func (p *Progress) OnRetry(attempt int, delay time.Duration, err error) {
	p.printf("  %s\n", p.styles.warning.Render(fmt.Sprintf("↻ backend busy, retry %d in %s: %v", attempt, delay, err)))
}

// Badge renders a short label, used for the provider/model banner.
func (r *Renderer) Badge(text string) string {
	return r.styles.badge.Render(text)
}

// Width returns the configured output width.
func (r *Renderer) Width() int { return r.width }

// Separator renders a horizontal rule.
func (r *Renderer) Separator() string {
	return r.styles.muted.Render(strings.Repeat("─", min(r.width, 60)))
}

var _ agent.EventHandler = (*Progress)(nil)

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
