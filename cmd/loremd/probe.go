package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweetpotato0/lorem-mcp/lorem"
	"github.com/sweetpotato0/lorem-mcp/mcp"
	"github.com/sweetpotato0/lorem-mcp/probe"
	"github.com/sweetpotato0/lorem-mcp/prompt"
	"github.com/sweetpotato0/lorem-mcp/tool"
)

type probeFlags struct {
	mcpEndpoint string
	prompt      string
	paragraphs  int
	model       string
	llmURL      string
	keepAlive   time.Duration
}

func newProbeCmd(a *app) *cobra.Command {
	var f probeFlags

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check whether a language model uses generate_lorem_ipsum",
		Long: `Runs three conversations against an OpenAI-compatible endpoint:
  1. a plain request for lorem ipsum
  2. the same request with a system hint naming the tool, no tool declared
  3. the tool declared; calls are executed and the result sent back

The tool runs in process unless --mcp-endpoint points at a running loremd,
in which case calls go over MCP.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			llm := a.cfg.LLM
			if f.model != "" {
				llm.Model = f.model
			}
			if f.llmURL != "" {
				llm.URL = f.llmURL
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := probe.New(llm, probe.WithLogger(a.logger.With("component", "probe")))
			if err != nil {
				return err
			}
			if err := client.Available(ctx); err != nil {
				return err
			}

			prompts, err := probePrompts(f.prompt, f.paragraphs)
			if err != nil {
				return err
			}

			registry, closeTools, err := a.probeTools(ctx, f.mcpEndpoint, f.keepAlive)
			if err != nil {
				return err
			}
			defer closeTools()

			return runProbe(ctx, cmd.OutOrStdout(), client, registry, prompts)
		},
	}

	cmd.Flags().StringVar(&f.mcpEndpoint, "mcp-endpoint", "", "MCP endpoint to call the tool through, e.g. http://localhost:8000/mcp")
	cmd.Flags().IntVar(&f.paragraphs, "paragraphs", probe.DefaultParagraphs, "Paragraph count the conversations ask for")
	cmd.Flags().StringVar(&f.prompt, "prompt", "", "Replace the user prompt of the tool conversation; may use {{.Count}} and {{.Tool}}")
	cmd.Flags().DurationVar(&f.keepAlive, "keep-alive", 0, "Ping interval for the MCP session of --mcp-endpoint, 0 disables")
	cmd.Flags().StringVar(&f.model, "model", "", "Model name (LLM_MODEL)")
	cmd.Flags().StringVar(&f.llmURL, "llm-url", "", "Chat completions URL (LLM_API_URL)")
	return cmd
}

// probePrompts renders the built-in conversations, with override replacing
// the tool conversation template when set.
func probePrompts(override string, count int) (probe.Prompts, error) {
	templates := prompt.Defaults()
	if override != "" {
		if err := templates.Override(prompt.ToolCall, override); err != nil {
			return probe.Prompts{}, err
		}
	}
	return probe.BuildPrompts(templates, count)
}

func (a *app) probeTools(ctx context.Context, endpoint string, keepAlive time.Duration) (*tool.Registry, func(), error) {
	registry := tool.NewRegistry()
	if endpoint == "" {
		if err := registry.Register(lorem.NewTool(lorem.NewGenerator())); err != nil {
			return nil, nil, err
		}
		return registry, func() {}, nil
	}

	p, err := mcp.NewProvider(ctx, mcp.Config{Endpoint: endpoint},
		mcp.WithLogger(a.logger.With("component", "mcp-client")),
		mcp.WithClientInfo("loremd-probe", mcp.ServerVersion),
		mcp.WithKeepAlive(keepAlive),
	)
	if err != nil {
		return nil, nil, err
	}
	n, err := registry.Sync(ctx, p)
	if err != nil {
		_ = p.Close()
		return nil, nil, err
	}
	a.logger.Info("loaded MCP tools", "endpoint", endpoint, "count", n)
	return registry, func() { _ = p.Close() }, nil
}

func runProbe(ctx context.Context, out io.Writer, client *probe.Client, registry *tool.Registry, prompts probe.Prompts) error {
	heading(out, "1. CONVERSATION WITHOUT TOOL")
	plain, err := client.Chat(ctx, prompts.Plain)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, plain.Transcript.String())
	stats := probe.Analyze(plain.Content)
	fmt.Fprintf(out, "\nwords: %d, paragraphs: %d, most frequent letter: %q (%d), longest word: %q\n",
		stats.Words, stats.Paragraphs, stats.MostFrequentLetter, stats.LetterCount, stats.LongestWord)

	heading(out, "2. CONVERSATION WITH TOOL HINT")
	hinted, err := client.ChatWithHint(ctx, prompts.System, prompts.Hint)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hinted.Transcript.String())
	fmt.Fprintf(out, "\nmentions tool: %t\nmodel: %s\ntotal tokens: %d\nfinish reason: %s\n",
		hinted.MentionsTool(), hinted.Model, hinted.TotalTokens, hinted.FinishReason)

	heading(out, "3. TOOL ROUND TRIP")
	report, err := client.ToolRoundTrip(ctx, prompts.Tool, registry)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, report.Transcript.String())
	if !report.ToolCalled() {
		fmt.Fprintln(out, "\nno tool calls in response")
	}
	for _, call := range report.Calls {
		status := "ok"
		if call.Err != nil {
			status = call.Err.Error()
		}
		fmt.Fprintf(out, "\ntool call %s: %s(%v) -> %s\n", call.ID, call.Name, call.Args, status)
	}
	fmt.Fprintf(out, "total tokens: %d\nfinish reason: %s\n", report.TotalTokens, report.FinishReason)

	if n, err := probe.EstimateTokens(report.Answer, client.Model()); err == nil {
		fmt.Fprintf(out, "answer token estimate: %d\n", n)
	}
	return nil
}

func heading(out io.Writer, title string) {
	fmt.Fprintf(out, "\n%s\n%s\n", title, strings.Repeat("-", 40))
}
