package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/bananadesuyo/iwataGPT/pkg/chat"
	"github.com/bananadesuyo/iwataGPT/pkg/corpus"
	"github.com/bananadesuyo/iwataGPT/pkg/markov"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	userPrompt = "俺: "
	botPrefix  = "AI: "
)

// repl is the terminal chat loop around a single session.
type repl struct {
	session *chat.Session
	catalog corpus.Catalog
	in      io.Reader
	out     io.Writer
}

func runChat(cmd *cobra.Command, _ []string) error {
	cm, err := NewConfigManager(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := cm.Get()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Server.SlogLevel()}))

	modelName, _ := cmd.Flags().GetString("model")
	seed, _ := cmd.Flags().GetUint64("seed")
	watch, _ := cmd.Flags().GetBool("watch")

	tokenizer, err := cfg.Chat.NewTokenizer()
	if err != nil {
		return fmt.Errorf("failed to create tokenizer: %w", err)
	}

	opts := cfg.Chat.GenerateOptions()
	if seed != 0 {
		opts = append(opts, markov.WithChooser(markov.NewLockedChooser(rand.New(rand.NewPCG(seed, seed)))))
	}
	gen := markov.NewReplyGenerator(tokenizer, opts...)
	gen.SetLogger(logger)

	session := chat.NewSession("cli", tokenizer, gen, nil)
	session.SetLogger(logger)

	r := &repl{
		session: session,
		catalog: cfg.Chat.Models,
		in:      cmd.InOrStdin(),
		out:     cmd.OutOrStdout(),
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	eg, egCtx := errgroup.WithContext(ctx)
	if watch {
		r.watch(egCtx, eg, logger)
	}

	eg.Go(func() error {
		defer cancel()
		return r.run(egCtx, modelName)
	})
	return eg.Wait()
}

// run loads the initial model and answers lines from r.in until EOF or /quit.
func (r *repl) run(ctx context.Context, modelName string) error {
	r.switchModel(ctx, modelName)

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, userPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}

		line := scanner.Text()
		if line == "" {
			continue
		}

		if cmdLine := strings.TrimSpace(line); strings.HasPrefix(cmdLine, "/") {
			if quit := r.command(ctx, cmdLine); quit {
				return nil
			}
			continue
		}

		reply := r.session.Reply(line)
		fmt.Fprintln(r.out, botPrefix+reply.Text)
	}
}

// command handles a slash command and reports whether the loop should end.
func (r *repl) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true
	case "/models":
		active := r.session.Active()
		for _, entry := range r.catalog {
			marker := " "
			if entry.Source == active {
				marker = "*"
			}
			fmt.Fprintf(r.out, "%s %s (%s)\n", marker, entry.Name, entry.Source)
		}
	case "/model":
		if arg == "" {
			fmt.Fprintln(r.out, "usage: /model <name>")
			return false
		}
		r.switchModel(ctx, arg)
	default:
		fmt.Fprintf(r.out, "unknown command %s\n", name)
	}
	return false
}

// switchModel loads the named catalog model, or the default when name is
// empty, and prints the status line.
func (r *repl) switchModel(ctx context.Context, name string) {
	var (
		entry corpus.Entry
		ok    bool
	)
	if name == "" {
		entry, ok = r.catalog.Default()
	} else {
		entry, ok = r.catalog.Resolve(name)
	}
	if !ok {
		fmt.Fprintf(r.out, "--- %s ---\n", switchStatus(name, false))
		return
	}

	success := r.session.LoadAndLearn(ctx, entry.Source)
	fmt.Fprintf(r.out, "--- %s ---\n", switchStatus(entry.Source, success))
}

// watch reloads the active model whenever its local corpus file changes.
func (r *repl) watch(ctx context.Context, eg *errgroup.Group, logger *slog.Logger) {
	for _, entry := range r.catalog {
		path, ok := entry.LocalPath()
		if !ok {
			continue
		}
		eg.Go(func() error {
			return corpus.Watch(ctx, path, 500*time.Millisecond, func() {
				if r.session.Active() != entry.Source {
					return
				}
				if err := r.session.Load(ctx, entry.Source); err != nil {
					logger.Warn("Reload failed, keeping the current model", "model", entry.Name, "error", err)
					return
				}
				logger.Info("Model reloaded", "model", entry.Name)
			})
		})
	}
}
