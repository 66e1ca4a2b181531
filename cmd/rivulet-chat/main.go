// Command rivulet-chat streams one completion to the terminal. While the
// response is in flight it shows a compact progress line; on completion it
// renders the answer as markdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/casualjim/rivulet"
	"github.com/casualjim/rivulet/pkg/natsx"
	"github.com/casualjim/rivulet/pkg/slogx"
	"github.com/casualjim/rivulet/pubsub"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/fogfish/opts"
	_ "github.com/joho/godotenv/autoload"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log = zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: slog.LevelWarn}),
	))
}

func main() {
	var (
		providerName = flag.String("provider", "openai-chat", "wire format: openai-chat, anthropic, ollama")
		model        = flag.String("model", "gpt-4o-mini", "model name")
		system       = flag.String("system", "", "system instruction")
		baseURL      = flag.String("base-url", "", "override the provider endpoint")
		maxTokens    = flag.Int("max-tokens", 0, "generation cap, 0 for provider default")
		useNATS      = flag.Bool("nats", false, "publish session events to NATS_URL")
		raw          = flag.Bool("raw", false, "print the final answer without markdown rendering")
	)
	flag.Parse()

	prompt := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: rivulet-chat [flags] <prompt>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *providerName, *model, *system, *baseURL, prompt, *maxTokens, *useNATS, *raw); err != nil {
		slog.Error("chat failed", slogx.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, providerName, model, system, baseURL, prompt string, maxTokens int, useNATS, raw bool) error {
	options := []opts.Option[rivulet.Options]{
		rivulet.WithProvider(providerName),
		rivulet.WithModel(model),
		rivulet.WithPrompt(prompt),
	}
	if system != "" {
		options = append(options, rivulet.WithSystem(system))
	}
	if baseURL != "" {
		options = append(options, rivulet.WithBaseURL(baseURL))
	}
	if maxTokens > 0 {
		options = append(options, rivulet.WithMaxTokens(maxTokens))
	}
	if useNATS {
		nc, err := natsx.NewClient()
		if err != nil {
			return fmt.Errorf("connecting to nats: %w", err)
		}
		defer nc.Close()
		options = append(options, rivulet.WithBroker(pubsub.NATS(nc), ""))
	}

	done := make(chan error, 1)
	progress := newProgressLine(os.Stderr)

	options = append(options,
		rivulet.WithOnStream(func(answer string, state rivulet.State) {
			progress.update(answer, state)
		}),
		rivulet.WithOnComplete(func(answer string, state rivulet.State) {
			progress.clear()
			done <- printAnswer(answer, state, raw)
		}),
		rivulet.WithOnError(func(err error, _ rivulet.State) {
			progress.clear()
			done <- err
		}),
	)

	handle, err := rivulet.Start(ctx, options...)
	if err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		handle.Cancel()
		fmt.Fprintln(os.Stderr, color.YellowString("cancelled"))
		return nil
	}
}

func printAnswer(answer string, state rivulet.State, raw bool) error {
	if state.Thinking != nil && state.Thinking.FullText != "" {
		fmt.Fprintf(os.Stderr, "%s %s\n\n",
			color.MagentaString("thought:"), state.Thinking.Summary)
	}
	if raw {
		fmt.Println(answer)
		return nil
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return err
	}
	out, err := renderer.Render(answer)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// progressLine rewrites a single status line in place while streaming.
type progressLine struct {
	out  *os.File
	last int
}

func newProgressLine(out *os.File) *progressLine {
	return &progressLine{out: out}
}

func (p *progressLine) update(answer string, state rivulet.State) {
	status := fmt.Sprintf("%d chars", len(answer))
	if state.Thinking != nil {
		status = color.MagentaString(state.Thinking.Summary) + " " + status
	}
	line := color.CyanString("streaming ") + status
	p.write(line)
}

func (p *progressLine) clear() {
	p.write("")
	fmt.Fprint(p.out, "\r")
}

func (p *progressLine) write(line string) {
	pad := p.last - len(line)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(p.out, "\r%s%s", line, strings.Repeat(" ", pad))
	p.last = len(line)
}
