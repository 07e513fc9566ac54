package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/LitReview/internal/chat"
	"github.com/TobiSchelling/LitReview/internal/database"
	"github.com/TobiSchelling/LitReview/internal/render"
)

var (
	chatTopic string
	chatNew   bool
	chatWidth int
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask the analysis assistant about the collection",
	Long: `Ask one question, or start an interactive session when no question is given.

The transcript is kept per terminal session. In interactive mode, /new starts
a fresh conversation and /quit leaves.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctrl := chat.NewController(newClient(), db.Scope(database.SessionScope(cfg.GetSessionID())))
		ctrl.Observe(exchangePrinter(cmd.OutOrStdout(), chatWidth))
		if chatNew {
			if err := ctrl.NewChat(); err != nil {
				return err
			}
		}
		ctrl.Load()

		scope := chat.Scope{
			Topic:     chatTopic,
			StartYear: optionalYear("start", filterStart, cmd),
			EndYear:   optionalYear("end", filterEnd, cmd),
		}

		if len(args) > 0 {
			return ask(ctrl, strings.Join(args, " "), scope)
		}
		return repl(ctrl, scope)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatTopic, "topic", "t", "", "Restrict answers to a topic")
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "Start a new conversation")
	chatCmd.Flags().IntVarP(&chatWidth, "width", "w", render.DefaultWidth, "Wrap width")
	addYearFlags(chatCmd)
}

func ask(ctrl *chat.Controller, question string, scope chat.Scope) error {
	ctx, stop := signalContext()
	defer stop()

	_, err := ctrl.Send(ctx, question, scope)
	if errors.Is(err, chat.ErrEmptyQuestion) || errors.Is(err, chat.ErrBusy) {
		return err
	}
	return nil
}

// exchangePrinter writes the placeholder when a question goes out and the
// assistant entry once it settles.
func exchangePrinter(w io.Writer, width int) func(chat.Snapshot) {
	return func(s chat.Snapshot) {
		if len(s.Messages) == 0 {
			return
		}
		last := s.Messages[len(s.Messages)-1]
		switch s.Phase {
		case chat.Sending:
			fmt.Fprintln(w, render.Message(last, width))
		case chat.Resolved, chat.Failed:
			fmt.Fprintln(w, render.Message(last, width))
			fmt.Fprintln(w)
		}
	}
}

func repl(ctrl *chat.Controller, scope chat.Scope) error {
	if msgs := ctrl.Messages(); len(msgs) > 0 {
		fmt.Println(render.Transcript(msgs, chatWidth))
		fmt.Println()
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/new":
			if err := ctrl.NewChat(); err != nil {
				return err
			}
			fmt.Println("Started a new conversation.")
			continue
		}

		if err := ask(ctrl, line, scope); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
