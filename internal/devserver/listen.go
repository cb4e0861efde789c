package devserver

import (
	"context"
	"fmt"
	"net"
)

// Listen binds a TCP listener on addr. On unix the net package enables
// SO_REUSEADDR on every listener, so the server can be restarted right after
// it stops without waiting for old connections to leave TIME_WAIT.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return ln, nil
}
