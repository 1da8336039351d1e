package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/trezcool/pathwise/client"
	"github.com/trezcool/pathwise/core/course"
	"github.com/trezcool/pathwise/core/feedback"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	store    client.TokenStore
	client   *client.Client
	interval time.Duration
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  token [-clear] - store a bearer token (prompted) or forget it")
	_, _ = fmt.Fprintln(cli.out, "  unread [-watch] - print the unread messages count")
	_, _ = fmt.Fprintln(cli.out, "  progress -course ID [-toggle TASK] - print (or update) a course progress")
	_, _ = fmt.Fprintln(cli.out, "  feedback -comment COMMENT [-rating 1-5] [-page PAGE] - send feedback")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	tokenClear := tokenCmd.Bool("clear", false, "Forget the stored token.")

	unreadCmd := flag.NewFlagSet("unread", flag.ExitOnError)
	unreadWatch := unreadCmd.Bool("watch", false, "Keep polling until interrupted.")

	progressCmd := flag.NewFlagSet("progress", flag.ExitOnError)
	progressCourse := progressCmd.String("course", "", "The course ID.")
	progressToggle := progressCmd.String("toggle", "", "A task ID to mark done or undone.")

	feedbackCmd := flag.NewFlagSet("feedback", flag.ExitOnError)
	feedbackComment := feedbackCmd.String("comment", "", "The feedback.")
	feedbackRating := feedbackCmd.Int("rating", 0, "An optional rating, from 1 to 5.")
	feedbackPage := feedbackCmd.String("page", "", "The page the feedback is about.")

	ctx := context.Background()

	switch args[1] {
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenClear {
			return cli.store.Clear()
		}
		_, _ = fmt.Fprint(cli.out, "Enter token:")
		raw, err := readPasswordFunc(int(syscall.Stdin))
		_, _ = fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		token := strings.TrimSpace(string(raw))
		if token == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.store.SetToken(token)
	case "unread":
		if err := unreadCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *unreadWatch {
			return cli.watchUnread()
		}
		n, err := cli.client.UnreadCount(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cli.out, "%d unread\n", n)
		return nil
	case "progress":
		if err := progressCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *progressCourse == "" {
			progressCmd.Usage()
			return errHelp
		}
		return cli.progress(ctx, *progressCourse, *progressToggle)
	case "feedback":
		if err := feedbackCmd.Parse(args[2:]); err != nil {
			return err
		}
		fb := feedback.Feedback{Comment: *feedbackComment, Rating: *feedbackRating, Page: *feedbackPage}
		if err := cli.client.SubmitFeedback(ctx, fb); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cli.out, "Thank you for your feedback!")
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) progress(ctx context.Context, courseID, taskID string) error {
	tracker := client.NewProgressTracker(cli.client, courseID)
	p, err := tracker.Load(ctx)
	if err != nil {
		return err
	}
	if taskID != "" {
		if p, err = tracker.Toggle(ctx, course.ID(taskID)); err != nil {
			return err
		}
	}
	for _, t := range tracker.Tasks() {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		_, _ = fmt.Fprintf(cli.out, "[%s] %s %s\n", mark, t.ID, t.Title)
	}
	_, _ = fmt.Fprintf(cli.out, "%d/%d tasks done (%d%%)\n", p.Completed, p.Total, p.Percent)
	return nil
}

func (cli *commandLine) watchUnread() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	poller := client.NewUnreadPoller(cli.client, cli.interval, func(n int) {
		_, _ = fmt.Fprintf(cli.out, "%s %d unread\n", time.Now().Format("15:04:05"), n)
	})
	poller.OnError = func(err error) {
		if client.IsUnauthorized(err) {
			select {
			case errs <- err:
			default:
			}
		}
		_, _ = fmt.Fprintf(cli.out, "error: %v\n", err)
	}

	go poller.Run(ctx)
	select {
	case <-ctx.Done():
		return nil
	case err := <-errs:
		return err
	}
}
