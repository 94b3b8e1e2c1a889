package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DevN0mad/OpenProjectTools/internal/services"
	"github.com/DevN0mad/OpenProjectTools/internal/storage"
)

const APIv1Prefix = "/api/v1/"

// ToolServerOpts параметры для настройки сервера инструментов.
type ToolServerOpts struct {
	Address             string `yaml:"address" validate:"required"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds" validate:"min=0"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds" validate:"min=0"`
	IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds" validate:"min=0"`
}

// ToolServer обрабатывает вызовы инструментов поверх HTTP. Каждый
// инструмент принимает JSON-аргументы и возвращает единый конверт
// {"success": true, ...} либо {"success": false, "error": "..."}.
type ToolServer struct {
	logger  *slog.Logger
	opts    *ToolServerOpts
	srv     *http.Server
	opSrv   *services.OpenProjectService
	storage *storage.Storage
	tools   map[string]tool
}

// NewToolServer создаёт сервер инструментов.
func NewToolServer(logger *slog.Logger, opSrv *services.OpenProjectService, store *storage.Storage, opts *ToolServerOpts) *ToolServer {
	if logger == nil {
		logger = slog.Default()
	}

	s := &ToolServer{
		logger:  logger,
		opts:    opts,
		opSrv:   opSrv,
		storage: store,
	}
	s.tools = s.registerTools()
	return s
}

// Register регистрирует маршруты сервера инструментов.
func (h *ToolServer) Register(mux *http.ServeMux) {
	mux.HandleFunc(withPrefix("tools/"), h.handleTool)
	mux.HandleFunc(withPrefix("invocations"), h.handleInvocations)
}

// handleTool обрабатывает один вызов инструмента.
func (h *ToolServer) handleTool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed", "method", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, withPrefix("tools/"))
	toolFn, ok := h.tools[name]
	if !ok {
		h.writeResult(w, failure("Unknown tool: "+name))
		return
	}

	var args map[string]any
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil && err.Error() != "EOF" {
			h.writeResult(w, failure("Invalid JSON arguments: "+err.Error()))
			return
		}
	}
	if args == nil {
		args = map[string]any{}
	}

	started := time.Now()
	result := h.invoke(r.Context(), name, toolFn, args)
	h.audit(r.Context(), name, result, time.Since(started))

	h.writeResult(w, result)
}

// invoke вызывает инструмент и превращает любую ошибку в конверт отказа.
func (h *ToolServer) invoke(ctx context.Context, name string, toolFn tool, args map[string]any) map[string]any {
	payload, err := toolFn.call(ctx, args)
	if err != nil {
		h.logger.Warn("Tool call failed", "tool", name, "error", err)
		return failure(toolErrorMessage(toolFn, err))
	}

	result := map[string]any{"success": true}
	for k, v := range payload {
		result[k] = v
	}
	return result
}

// audit пишет результат вызова в журнал хранилища.
func (h *ToolServer) audit(ctx context.Context, name string, result map[string]any, duration time.Duration) {
	if h.storage == nil {
		return
	}

	success, _ := result["success"].(bool)
	errText, _ := result["error"].(string)

	if err := h.storage.RecordInvocation(ctx, name, success, errText, duration); err != nil {
		h.logger.Error("Failed to audit invocation", "tool", name, "error", err)
	}
}

// handleInvocations отдаёт последние записи журнала вызовов.
func (h *ToolServer) handleInvocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.storage == nil {
		http.Error(w, "Audit log is not configured", http.StatusNotFound)
		return
	}

	invocations, err := h.storage.RecentInvocations(r.Context(), 50)
	if err != nil {
		h.logger.Error("Failed to list invocations", "error", err)
		http.Error(w, "Failed to list invocations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(invocations); err != nil {
		h.logger.Error("Failed to encode invocations", "error", err)
	}
}

func (h *ToolServer) writeResult(w http.ResponseWriter, result map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("Failed to encode tool result", "error", err)
	}
}

// Start запускает сервер инструментов.
func (h *ToolServer) Start(ctx context.Context) error {
	h.logger.Info("Starting tool server", "address", h.opts.Address)
	mux := http.NewServeMux()
	h.Register(mux)
	h.srv = &http.Server{
		Addr:         h.opts.Address,
		ReadTimeout:  time.Duration(h.opts.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(h.opts.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(h.opts.IdleTimeoutSeconds) * time.Second,
		Handler:      mux,
	}

	go func() {
		<-ctx.Done()

		h.logger.Info("Shutting down tool server (ctx canceled)")

		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			h.logger.Error("Tool server shutdown error", "error", err)
		}
	}()

	if err := h.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		h.logger.Error("Tool server error", "error", err)
		return err
	}

	h.logger.Info("Tool server stopped")
	return nil
}

// withPrefix добавляет префикс к пути API.
func withPrefix(postfix string) string {
	return APIv1Prefix + strings.TrimSpace(postfix)
}
