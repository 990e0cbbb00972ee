package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	wishlogging "github.com/charmbracelet/wish/logging"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
)

const (
	maxSSHLine = 1 << 20
	// sshFrameTimeout bounds one streamed frame write to a client that stopped reading
	sshFrameTimeout = 10 * time.Second
)

// SSHServer exposes the command envelope and the event stream over SSH as JSON
// lines. The remote command selects the mode:
//
//	ssh host                        read requests from stdin, one response per line
//	ssh host events [type,...]      stream events
//	ssh host output <id> [afterSeq] replay and follow a session's output
//	ssh host <command> [params]     run one command and exit
type SSHServer struct {
	addr       string
	dispatcher *Dispatcher
	events     EventSource
	outputs    OutputSource
	wishServer *ssh.Server
}

// NewSSHServer creates an SSH gateway. The host key is created under hostKeyPath
// on first start.
func NewSSHServer(
	addr, hostKeyPath, authorizedKeysPath string,
	dispatcher *Dispatcher,
	events EventSource,
	outputs OutputSource,
) (*SSHServer, error) {
	s := &SSHServer{
		addr:       addr,
		dispatcher: dispatcher,
		events:     events,
		outputs:    outputs,
	}

	// Middleware executes in reverse order (last to first)
	wishServer, err := wish.NewServer(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithPublicKeyAuth(publicKeyHandler(authorizedKeysPath)),
		wish.WithMiddleware(
			s.middleware(),
			wishlogging.Middleware(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH server: %w", err)
	}

	s.wishServer = wishServer
	return s, nil
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *SSHServer) Start(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		logging.Logger.Info("SSH gateway listening", "address", s.addr)
		if err := s.wishServer.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logging.Logger.Info("Shutting down SSH gateway")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.wishServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown SSH server: %w", err)
		}
		return nil
	case err := <-serverErr:
		return err
	}
}

func (s *SSHServer) middleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			code := s.handle(sess.Context(), sess.Command(), sess, sess)
			_ = sess.Exit(code)
			next(sess)
		}
	}
}

// handle runs one SSH session and returns its exit code
func (s *SSHServer) handle(ctx context.Context, args []string, in io.Reader, out io.Writer) int {
	enc := json.NewEncoder(out)

	if len(args) == 0 {
		return s.serveRequests(ctx, in, enc)
	}

	switch args[0] {
	case "events":
		var types []string
		if len(args) > 1 {
			types = strings.Split(args[1], ",")
		}
		return s.streamEvents(ctx, types, json.NewEncoder(newTimeoutWriter(out, sshFrameTimeout)))
	case "output":
		if len(args) < 2 {
			_ = enc.Encode(Response{Error: &Error{Code: CodeValidation, Message: "usage: output <session-id> [afterSeq]"}})
			return 2
		}
		var afterSeq int64
		if len(args) > 2 {
			parsed, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				_ = enc.Encode(Response{Error: &Error{Code: CodeValidation, Message: "afterSeq must be an integer"}})
				return 2
			}
			afterSeq = parsed
		}
		return s.streamOutput(ctx, args[1], afterSeq, json.NewEncoder(newTimeoutWriter(out, sshFrameTimeout)))
	default:
		req := Request{Command: args[0]}
		if len(args) > 1 {
			req.Params = json.RawMessage(strings.Join(args[1:], " "))
		}
		resp := s.dispatcher.Dispatch(ctx, req)
		_ = enc.Encode(resp)
		if !resp.OK {
			return 1
		}
		return 0
	}
}

func (s *SSHServer) serveRequests(ctx context.Context, in io.Reader, enc *json.Encoder) int {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSHLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			_ = enc.Encode(Response{Error: &Error{Code: CodeValidation, Message: "malformed command envelope: " + err.Error()}})
			continue
		}
		if err := enc.Encode(s.dispatcher.Dispatch(ctx, req)); err != nil {
			return 1
		}
	}
	if err := scanner.Err(); err != nil {
		logging.Logger.Warn("SSH request stream failed", "error", err)
		return 1
	}
	return 0
}

func (s *SSHServer) streamEvents(ctx context.Context, types []string, enc *json.Encoder) int {
	wanted := map[domain.EventType]bool{}
	for _, t := range types {
		if t = strings.TrimSpace(t); t != "" {
			wanted[domain.EventType(t)] = true
		}
	}

	sub := s.events.Subscribe(func(e domain.Event) bool {
		return len(wanted) == 0 || wanted[e.Type]
	})
	defer s.events.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return 0
		case <-sub.Done:
			logging.Logger.Warn("SSH event stream too slow, disconnecting")
			return 1
		case e := <-sub.C:
			frame, err := encodeEvent(e)
			if err != nil {
				logging.Logger.Error("Failed to encode event", "type", e.Type, "error", err)
				continue
			}
			if err := enc.Encode(frame); err != nil {
				logging.Logger.Debug("SSH event stream write failed", "error", err)
				return 1
			}
		}
	}
}

func (s *SSHServer) streamOutput(ctx context.Context, sessionID string, afterSeq int64, enc *json.Encoder) int {
	messages, err := s.outputs.Stream(ctx, sessionID, afterSeq)
	if err != nil {
		_ = enc.Encode(Response{Error: toError(err)})
		return 1
	}
	for msg := range messages {
		if err := enc.Encode(msg); err != nil {
			logging.Logger.Debug("SSH output stream write failed", "session_id", sessionID, "error", err)
			return 1
		}
	}
	return 0
}

// EnsureHostKeyDir creates the directory holding the SSH host key
func EnsureHostKeyDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create SSH directory: %w", err)
	}
	return nil
}
