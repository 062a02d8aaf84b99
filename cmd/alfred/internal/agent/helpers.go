package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/sipeed/alfred/cmd/alfred/internal"
	"github.com/sipeed/alfred/pkg/agent"
	"github.com/sipeed/alfred/pkg/resolver"
)

func agentCmd(ctx context.Context, message, sessionKey string, debug bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := internal.LoadConfig()
	if err := internal.SetupLogging(cfg, debug); err != nil {
		return err
	}

	loop, err := agent.NewLoop(cfg)
	if err != nil {
		return fmt.Errorf("error starting alfred: %w", err)
	}
	defer loop.Close()

	if message != "" {
		resp, err := loop.ProcessDirect(ctx, message, sessionKey)
		printResponse(os.Stdout, resp, err)
		if err != nil {
			return err
		}
		if resp.Summary != nil && !resp.Summary.OK {
			return errors.New("one or more orders failed")
		}
		return nil
	}

	if cfg.Dispatch.WatchCatalog {
		loop.StartWatching(ctx)
	}

	fmt.Printf("%s At your service. Type /help for commands, or say goodbye to leave.\n\n", internal.Logo)
	interactiveMode(ctx, loop, sessionKey, filepath.Join(filepath.Dir(internal.GetConfigPath()), ".repl_history"))
	return nil
}

func interactiveMode(ctx context.Context, loop *agent.Loop, sessionKey, historyFile string) {
	prompt := fmt.Sprintf("%s You: ", internal.Logo)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		simpleInteractiveMode(ctx, loop, sessionKey, os.Stdin, os.Stdout)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye, sir.")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}
		if !handleLine(ctx, loop, sessionKey, line, os.Stdout) {
			return
		}
	}
}

func simpleInteractiveMode(ctx context.Context, loop *agent.Loop, sessionKey string, in io.Reader, out io.Writer) {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprintf(out, "%s You: ", internal.Logo)
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye, sir.")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}
		if !handleLine(ctx, loop, sessionKey, line, out) {
			return
		}
	}
}

// handleLine processes one input line and reports whether to keep reading.
func handleLine(ctx context.Context, loop *agent.Loop, sessionKey, line string, out io.Writer) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}
	resp, err := loop.ProcessDirect(ctx, input, sessionKey)
	printResponse(out, resp, err)
	return err != nil || !resp.Goodbye
}

func printResponse(out io.Writer, resp *agent.Response, err error) {
	if err != nil {
		var noOrders *resolver.NoOrdersError
		if errors.As(err, &noOrders) {
			printWarnings(out, noOrders.Warnings)
		}
		fmt.Fprintf(out, "%s %s\n\n", internal.Logo, agent.UserMessage(err))
		return
	}
	printWarnings(out, resp.Warnings)
	if resp.Text != "" {
		fmt.Fprintf(out, "%s %s\n", internal.Logo, resp.Text)
	}
	if resp.Narration != "" {
		fmt.Fprintf(out, "%s %s\n", internal.Logo, resp.Narration)
	}
	fmt.Fprintln(out)
}

func printWarnings(out io.Writer, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(out, "⚠ %s\n", w)
	}
}
