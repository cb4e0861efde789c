// Package main serves the working directory for local development of the game.
//
// Usage:
//
//	server [port]
//
// The port defaults to 8081. A port that is not a number is ignored.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/text/width"

	"github.com/tash-vibe/subway/internal/devserver"
	"github.com/tash-vibe/subway/internal/mimetype"
)

const defaultPort = 8081

func main() {
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	restoreSignalsOnDone(ctx, stop)

	if err := run(ctx, os.Args[1:], os.Stdout, http.Dir(".")); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// run serves root until ctx is done.
func run(ctx context.Context, args []string, w io.Writer, root http.FileSystem) error {
	port := resolvePort(args)

	types, err := mimetype.Default()
	if err != nil {
		return fmt.Errorf("failed to load MIME types: %w", err)
	}

	printBanner(w, port)

	addr := net.JoinHostPort("", strconv.Itoa(port))
	ln, err := devserver.Listen(ctx, addr)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Press Ctrl+C to stop the server")

	srv := devserver.New(root, types)
	if err := srv.Serve(ctx, ln); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nServer stopped.")
	return nil
}

// restoreSignalsOnDone calls stop once ctx is done, so a second interrupt
// during shutdown kills the process.
func restoreSignalsOnDone(ctx context.Context, stop func()) {
	go func() {
		<-ctx.Done()
		stop()
	}()
}

// resolvePort returns the port given as the first argument, or defaultPort
// when there is none or it is not an integer.
func resolvePort(args []string) int {
	if len(args) == 0 {
		return defaultPort
	}
	port, err := parsePort(args[0])
	if err != nil {
		return defaultPort
	}
	return port
}

// parsePort parses an integer the way Python's int() does for the forms a
// port is likely to take: surrounding spaces, one sign, full-width digits and
// single underscores between digits.
func parsePort(s string) (int, error) {
	s = width.Narrow.String(strings.TrimSpace(s))

	sign := ""
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		sign, s = s[:1], s[1:]
	}
	if strings.HasPrefix(s, "_") || strings.HasSuffix(s, "_") || strings.Contains(s, "__") {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return strconv.Atoi(sign + strings.ReplaceAll(s, "_", ""))
}

func printBanner(w io.Writer, port int) {
	url := color.New(color.FgCyan, color.Underline).SprintFunc()
	note := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(w, "Starting custom server on %s\n", url(fmt.Sprintf("http://localhost:%d", port)))
	fmt.Fprintln(w, note("Serving .js files as application/javascript (Fixing Windows MIME type issue)"))
}
