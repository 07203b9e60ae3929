package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/chronoshards/api"
	"github.com/wricardo/mcp-training/chronoshards/transport/mcp"
	"github.com/wricardo/mcp-training/chronoshards/transport/websocket"
)

const shutdownTimeout = 10 * time.Second

// serveAction runs both surfaces on one port together with the /mcp
// endpoint and an optional ngrok tunnel
func serveAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	hub := websocket.NewHub(a.logger.Named("ws"))
	go hub.Run(ctx)
	go a.cleanupSessions(ctx)

	addr := net.JoinHostPort(a.opts.Host, strconv.Itoa(a.opts.Port))
	handler := a.handler(api.SurfaceAll, hub, mcp.NewClient(loopbackURL(a.opts.Host, a.opts.Port)))

	a.logger.Info("HTTP server configured",
		zap.String("addr", addr),
		zap.String("rest", "http://"+addr+"/api"),
		zap.String("websocket", "ws://"+addr+"/ws?session=<session_id>"),
		zap.String("mcp", "http://"+addr+"/mcp"),
	)

	var wg sync.WaitGroup
	if a.opts.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.runTunnel(ctx, handler)
		}()
	}

	err = a.serveHTTP(ctx, newHTTPServer(addr, handler))
	wg.Wait()
	a.logger.Info("server stopped")
	return err
}

// splitAction runs the start surface and the main surface on their own
// ports. Both share one game service so a game started on one is played on
// the other.
func splitAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	hub := websocket.NewHub(a.logger.Named("ws"))
	go hub.Run(ctx)
	go a.cleanupSessions(ctx)

	startAddr := net.JoinHostPort(a.opts.Host, strconv.Itoa(a.opts.StartPort))
	mainAddr := net.JoinHostPort(a.opts.Host, strconv.Itoa(a.opts.MainPort))

	a.logger.Info("split surfaces configured",
		zap.String("start", "http://"+startAddr+"/start"),
		zap.String("main", "http://"+mainAddr+"/main"),
	)

	err = a.serveHTTP(ctx,
		newHTTPServer(startAddr, a.handler(api.SurfaceStart, nil, nil)),
		newHTTPServer(mainAddr, a.handler(api.SurfaceMain, hub, nil)),
	)
	a.logger.Info("server stopped")
	return err
}

// mcpAction runs an MCP stdio server. It proxies --api-url when given,
// otherwise an API already listening on --port, otherwise an internal API
// bound to a random loopback port.
func mcpAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	baseURL := a.opts.APIURL
	if baseURL == "" {
		external := loopbackURL("localhost", a.opts.Port)
		a.logger.Info("checking for external API server", zap.String("url", external))
		if apiReachable(ctx, external) {
			baseURL = external
		}
	}

	if baseURL == "" {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internal := &http.Server{Handler: a.handler(api.SurfaceAll, nil, nil)}
		go func() {
			if err := internal.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = internal.Shutdown(shutdownCtx)
		}()

		baseURL = "http://" + listener.Addr().String()
		a.logger.Info("started internal HTTP server", zap.String("url", baseURL))
	}

	a.logger.Info("MCP stdio server ready", zap.String("api", baseURL))
	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// handler builds the HTTP handler for one surface. A nil mcpClient leaves
// /mcp unmounted.
func (a *app) handler(surface api.Surface, hub *websocket.Hub, mcpClient *mcp.Client) http.Handler {
	apiServer := api.NewServer(a.service, hub, api.Options{
		Logger:        a.logger.Named("api"),
		Surface:       surface,
		AllowedOrigin: a.opts.AllowedOrigin,
		StaticDir:     a.opts.StaticDir,
	})
	if mcpClient == nil {
		return apiServer
	}

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.Handle("/mcp", mcpHandler(mcpClient))
	return mux
}

// mcpHandler answers JSON-RPC messages posted to /mcp
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData) //nolint:errcheck
	}
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// serveHTTP runs servers until ctx is done or one of them fails, then shuts
// all of them down
func (a *app) serveHTTP(ctx context.Context, servers ...*http.Server) error {
	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			a.logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("HTTP server on %s failed: %w", srv.Addr, err)
			}
		}(srv)
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case runErr = <-errCh:
		a.logger.Error("shutting down after server failure", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("HTTP server shutdown error", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}
	return runErr
}

// runTunnel serves handler through an ngrok endpoint until ctx is done
func (a *app) runTunnel(ctx context.Context, handler http.Handler) {
	if a.opts.NgrokAuthToken == "" {
		a.logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	a.logger.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if a.opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(a.opts.NgrokDomain))
		a.logger.Info("using custom ngrok domain", zap.String("domain", a.opts.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(a.opts.NgrokAuthToken))
	if err != nil {
		a.logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			a.logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	url := tun.URL()
	a.logger.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("start", url+"/start"),
		zap.String("mcp", url+"/mcp"),
	)

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		a.logger.Error("ngrok server error", zap.Error(err))
	}
	a.logger.Info("ngrok tunnel closed")
}

// loopbackURL is the base URL the process uses to call its own API
func loopbackURL(host string, port int) string {
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// apiReachable reports whether a game API answers its health check at baseURL
func apiReachable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
