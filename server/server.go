// Package server wires the module manager, execution engine, tool
// discovery table, and RPC dispatcher into a running WasmForge instance,
// and exposes the two transports the original supports: line-delimited
// JSON-RPC over stdio, and the same protocol over TCP with every
// connection serialized behind one global mutex.
//
// Grounded on original_source/desktop-app/src/main.rs
// (WasmForgeServer, run_stdio_server, run_tcp_server,
// handle_tcp_connection).
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/wasmforge/wasmforge/capability"
	"github.com/wasmforge/wasmforge/config"
	"github.com/wasmforge/wasmforge/discovery"
	"github.com/wasmforge/wasmforge/internal/errdefs"
	"github.com/wasmforge/wasmforge/modmanager"
	"github.com/wasmforge/wasmforge/rpc"
	"github.com/wasmforge/wasmforge/wasmexec"
)

// Server owns every long-lived component of one WasmForge instance.
type Server struct {
	cfg        *config.Config
	log        *logrus.Entry
	manager    *modmanager.Manager
	engine     *wasmexec.Engine
	table      *discovery.Table
	dispatcher *rpc.Dispatcher

	// mu serializes every request handled over any transport: the
	// underlying wazero modules are not safe for concurrent reload while
	// a call is in flight.
	mu sync.Mutex
}

// New builds a Server: it loads every configured module, instantiates it,
// and discovers its tools. A single module's load failure is logged and
// skipped, never fatal.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Server, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	entry := log.WithField("component", "server")

	manager, err := modmanager.New(cfg, log)
	if err != nil {
		return nil, err
	}
	manager.LoadAll()

	engine := wasmexec.NewEngine(ctx, log)
	engine.LoadFromManager(ctx, manager)

	table := discovery.NewTable(log)
	if err := table.Rebuild(engine, cfg); err != nil {
		return nil, err
	}
	discovery.Print(table, entry)

	exec := capability.NewExecutor(engine, log)
	dispatcher := rpc.NewDispatcher(engine, table, exec, cfg, log)

	entry.WithField("tools", table.Count()).Info("WasmForge server initialized")

	return &Server{
		cfg:        cfg,
		log:        entry,
		manager:    manager,
		engine:     engine,
		table:      table,
		dispatcher: dispatcher,
	}, nil
}

// ReloadModule reloads one module's bytes (re-fetching/re-checksumming per
// its source), re-instantiates it in the execution engine, and rebuilds
// the discovered-tools table so the change is visible to new calls.
func (s *Server) ReloadModule(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.manager.Reload(name); err != nil {
		return err
	}
	if err := s.engine.Reload(ctx, name, s.manager); err != nil {
		return err
	}
	return s.table.Rebuild(s.engine, s.cfg)
}

// Close releases every instantiated module and the shared wazero runtime.
func (s *Server) Close(ctx context.Context) error {
	return s.engine.Close(ctx)
}

func (s *Server) handle(ctx context.Context, line []byte) (rpc.Response, bool) {
	var req rpc.Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.log.WithError(err).Warn("failed to parse request")
		return rpc.Response{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatcher.Handle(ctx, req), true
}

// RunStdio reads one JSON-RPC request per line from r and writes one
// response per line to w, until r is exhausted.
func (s *Server) RunStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	s.log.Info("WasmForge MCP Server started on stdio")

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		resp, ok := s.handle(ctx, []byte(line))
		if !ok {
			continue
		}
		out, err := json.Marshal(resp)
		if err != nil {
			return errdefs.Protocol(fmt.Errorf("encode response: %w", err))
		}
		if _, err := fmt.Fprintf(w, "%s\n", out); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// RunTCP listens on host:port and serves the same line-delimited protocol
// to every connection, each handled on its own goroutine; the server's mu
// guarantees requests from different connections never race on shared
// module state.
func (s *Server) RunTCP(ctx context.Context, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errdefs.Config(fmt.Errorf("bind TCP listener on %s: %w", addr, err))
	}
	defer listener.Close()

	s.log.WithField("addr", addr).Info("WasmForge MCP Server listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return errdefs.Protocol(fmt.Errorf("accept connection: %w", err))
			}
		}
		s.log.WithField("remote", conn.RemoteAddr()).Info("new connection")
		go s.handleConnection(ctx, conn)
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		resp, ok := s.handle(ctx, []byte(line))
		if !ok {
			continue
		}
		out, err := json.Marshal(resp)
		if err != nil {
			s.log.WithError(err).Warn("failed to encode response")
			return
		}
		if _, err := conn.Write(append(out, '\n')); err != nil {
			s.log.WithError(err).Warn("connection write failed")
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.log.WithError(err).Warn("connection read failed")
	}
}
