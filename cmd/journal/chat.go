package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"os/signal"
	"path"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sumalravindran/My-journal-new/internal/chat"
	"github.com/sumalravindran/My-journal-new/internal/consolidate"
)

const chatHelp = `Type a message and press enter. Commands:
  /note <text>   add to the journal without asking for a reply
  /image <url>   attach an image (optional caption after the url)
  /flush         consolidate pending messages now
  /status        show the consolidation cursor
  /quit          flush and exit`

func newChatCmd() *cobra.Command {
	var (
		stream  string
		noReply bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the journal; messages are consolidated after a pause",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(options(true))
			if err != nil {
				return err
			}
			defer a.shutdown()

			session, err := a.session(stream)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %d message(s), %d consolidated\n%s\n",
				stream, len(session.Messages()), session.Processed(), chatHelp)
			return runChat(ctx, session, cmd.InOrStdin(), cmd.OutOrStdout(), noReply)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&stream, "stream", string(chat.StreamPersonal), "conversation stream (personal, professional, ...)")
	flags.BoolVar(&noReply, "no-reply", false, "only journal messages; never ask the assistant for a reply")
	return cmd
}

// runChat reads lines from in until EOF, /quit or ctx is done, then forces
// a final flush
func runChat(ctx context.Context, session *consolidate.Session, in io.Reader, out io.Writer, noReply bool) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "> ")
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return leave(session, out)
		case line, ok = <-lines:
			if !ok {
				fmt.Fprintln(out)
				return leave(session, out)
			}
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmd, rest, _ := strings.Cut(line, " ")
		switch cmd {
		case "/quit", "/exit":
			return leave(session, out)
		case "/help":
			fmt.Fprintln(out, chatHelp)
		case "/status":
			fmt.Fprintf(out, "%d message(s), %d consolidated, state %s\n",
				len(session.Messages()), session.Processed(), session.State())
		case "/flush":
			fmt.Fprintln(out, session.Flush(ctx, "cli"))
		case "/note":
			if _, err := session.Append(chat.Message{Role: chat.RoleUser, Text: strings.TrimSpace(rest)}, "cli"); err != nil {
				return err
			}
		case "/image":
			m, err := imageMessage(rest)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if _, err := session.Append(m, "cli"); err != nil {
				return err
			}
		default:
			m := chat.Message{Role: chat.RoleUser, Text: line}
			if noReply {
				if _, err := session.Append(m, "cli"); err != nil {
					return err
				}
				continue
			}
			reply, err := session.Send(ctx, m, "cli")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, reply.Text)
		}
	}
}

// imageMessage parses "/image <url> [caption]"
func imageMessage(args string) (chat.Message, error) {
	url, caption, _ := strings.Cut(strings.TrimSpace(args), " ")
	if url == "" {
		return chat.Message{}, fmt.Errorf("usage: /image <url> [caption]")
	}
	return chat.Message{
		Role: chat.RoleUser,
		Text: strings.TrimSpace(caption),
		Attachment: &chat.Attachment{
			Kind:     chat.AttachmentImage,
			Name:     path.Base(url),
			MimeType: mime.TypeByExtension(path.Ext(url)),
			URL:      url,
		},
	}, nil
}

func leave(session *consolidate.Session, out io.Writer) error {
	res := session.Leave(context.Background())
	if res.Outcome != consolidate.OutcomeNoop {
		fmt.Fprintf(out, "[%s] %s\n", session.ID(), res)
	}
	return nil
}
