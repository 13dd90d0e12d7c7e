package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"github.com/google/uuid"

	"hotdock/internal/daemon"
	"hotdock/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer listens on path. shutdown is invoked by the Stop endpoint and may
// be nil.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger, shutdown func()) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("restrict socket permissions: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	svc := &service{daemon: d, logger: logger, ctx: serverCtx, shutdown: shutdown}
	if err := rpcServer.RegisterName(serviceName, svc); err != nil {
		cancel()
		_ = listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve accepts connections in the background until Close.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"),
				)
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"),
		)
	}
}

type service struct {
	daemon   *daemon.Daemon
	logger   *slog.Logger
	ctx      context.Context
	shutdown func()
}

func (s *service) requestContext() (context.Context, *slog.Logger) {
	ctx := logging.WithPassID(s.ctx, uuid.NewString())
	return ctx, logging.WithContext(ctx, s.logger)
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	orch := status.Orchestrator
	*resp = StatusResponse{
		Running:        status.Running,
		PID:            status.PID,
		StartedAt:      status.StartedAt,
		LockPath:       status.LockPath,
		ConfigPath:     status.ConfigPath,
		State:          orch.StateName,
		DebounceArmed:  orch.DebounceArmed,
		RerunPending:   orch.RerunPending,
		Passes:         orch.Passes,
		Primary:        orch.Primary,
		Position:       orch.Position,
		Workspaces:     status.Workspaces,
		Pending:        status.Pending,
		HotplugRunning: status.HotplugRunning,
		HotplugEvents:  status.HotplugEvents,
		LastPass:       fromReport(orch.LastPass),
	}
	return nil
}

func (s *service) Workspaces(_ WorkspacesRequest, resp *WorkspacesResponse) error {
	entries := s.daemon.Workspaces()
	resp.Workspaces = make([]Workspace, 0, len(entries))
	for _, entry := range entries {
		resp.Workspaces = append(resp.Workspaces, fromWorkspace(entry))
	}
	return nil
}

func (s *service) Outputs(_ OutputsRequest, resp *OutputsResponse) error {
	ctx, _ := s.requestContext()
	outputs, err := s.daemon.Outputs(ctx)
	if err != nil {
		return fmt.Errorf("probe outputs: %w", err)
	}
	resp.Outputs = fromOutputs(outputs)
	return nil
}

func (s *service) Layout(_ LayoutRequest, resp *LayoutResponse) error {
	ctx, _ := s.requestContext()
	args, err := s.daemon.LayoutArgs(ctx)
	if err != nil {
		return fmt.Errorf("preview layout: %w", err)
	}
	resp.Args = args
	return nil
}

func (s *service) Trigger(_ TriggerRequest, resp *TriggerResponse) error {
	ctx, logger := s.requestContext()
	logger.Info("manual pass requested", logging.String(logging.FieldEventType, "ipc_trigger"))
	report, err := s.daemon.Trigger(ctx)
	if err != nil {
		return err
	}
	if converted := fromReport(report); converted != nil {
		resp.Report = *converted
	}
	return nil
}

func (s *service) Reconcile(_ ReconcileRequest, resp *ReconcileResponse) error {
	ctx, logger := s.requestContext()
	result, err := s.daemon.Reconcile(ctx)
	if err != nil {
		return err
	}
	logger.Debug("manual reconcile", logging.Bool("changed", result.Changed()))
	*resp = ReconcileResponse{
		Added:      result.Added,
		Remembered: result.Remembered,
		Cleared:    result.Cleared,
		Unchanged:  result.Unchanged,
	}
	return nil
}

func (s *service) Reload(_ ReloadRequest, resp *ReloadResponse) error {
	if err := s.daemon.ReloadConfig(); err != nil {
		resp.Reloaded = false
		resp.Message = err.Error()
		return nil
	}
	resp.Reloaded = true
	resp.Message = "config reloaded"
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("daemon stop requested via IPC", logging.String(logging.FieldEventType, "ipc_stop"))
	if s.shutdown != nil {
		go s.shutdown()
	}
	resp.Stopped = true
	return nil
}
