package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pavi2410/droidkit/adb"
	"github.com/pavi2410/droidkit/discovery"
	"github.com/pavi2410/droidkit/models"
	"github.com/pavi2410/droidkit/pairing"
	"github.com/pavi2410/droidkit/parser"
	"github.com/pavi2410/droidkit/service"
	"github.com/pavi2410/droidkit/sysinfo"
)

// JobHeader carries the id of the job that served a request.
const JobHeader = "X-Job-ID"

// Handlers delegate every blocking device sequence to the dispatcher and wait
// for it with the request context.
type Handlers struct {
	dm     *service.DeviceManager
	jobs   *service.Dispatcher
	hub    *WebSocketHub
	logger *zap.Logger
}

func NewHandlers(dm *service.DeviceManager, jobs *service.Dispatcher, hub *WebSocketHub, logger *zap.Logger) *Handlers {
	return &Handlers{dm: dm, jobs: jobs, hub: hub, logger: logger.Named("api")}
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
		"status":     "ok",
		"message":    "droidkit is running",
		"ws_clients": h.hub.ClientCount(),
	}))
}

func (h *Handlers) ListDevices(c *gin.Context) {
	respond(h, c, "list-devices", "", h.dm.ListDevices)
}

func (h *Handlers) Connect(c *gin.Context) {
	var req models.ConnectRequest
	if !bind(c, &req) {
		return
	}
	identity := adb.JoinAddress(req.IP, req.Port)
	// Device work outlives a cancelled request.
	ctx := context.WithoutCancel(c.Request.Context())
	respond(h, c, "connect", identity, func() (*sysinfo.DeviceReport, error) {
		return h.dm.Connect(ctx, req.IP, req.Port)
	})
}

func (h *Handlers) Discover(c *gin.Context) {
	window, err := queryDuration(c, "window")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
		return
	}
	ctx := context.WithoutCancel(c.Request.Context())
	respond(h, c, "discover", "", func() ([]discovery.Device, error) {
		return h.dm.Discover(ctx, window)
	})
}

func (h *Handlers) Pair(c *gin.Context) {
	var req models.PairRequest
	if !bind(c, &req) {
		return
	}
	identity := adb.JoinAddress(req.IP, req.Port)
	ctx := context.WithoutCancel(c.Request.Context())
	respond(h, c, "pair", identity, func() (*sysinfo.DeviceReport, error) {
		return h.dm.Pair(ctx, req.IP, req.Port, req.Code)
	})
}

func (h *Handlers) PairedDevices(c *gin.Context) {
	devices, err := h.dm.PairedDevices(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(devices))
}

func (h *Handlers) ForgetDevice(c *gin.Context) {
	id := c.Param("id")
	if err := h.dm.ForgetDevice(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse("forgot "+id))
}

func (h *Handlers) Disconnect(c *gin.Context) {
	serial := c.Param("serial")
	_, jobID, err := service.Run(c.Request.Context(), h.jobs, "disconnect", serial, func() (struct{}, error) {
		return struct{}{}, h.dm.Disconnect(serial)
	})
	setJobHeader(c, jobID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse("disconnected "+serial))
}

func (h *Handlers) Report(c *gin.Context) {
	serial := c.Param("serial")
	respond(h, c, "report", serial, func() (*sysinfo.DeviceReport, error) {
		return h.dm.Report(serial)
	})
}

func (h *Handlers) ListFiles(c *gin.Context) {
	serial := c.Param("serial")
	path := c.DefaultQuery("path", "/sdcard")
	respond(h, c, "list-files", serial, func() ([]parser.FileEntry, error) {
		return h.dm.ListFiles(serial, path)
	})
}

func (h *Handlers) PullFile(c *gin.Context) {
	serial := c.Param("serial")
	var req models.PullRequest
	if !bind(c, &req) {
		return
	}
	respond(h, c, "pull-file", serial, func() (*models.PullResult, error) {
		return h.dm.PullToDownloads(serial, req.Remote, req.Local)
	})
}

func (h *Handlers) Shell(c *gin.Context) {
	serial := c.Param("serial")
	var req models.ShellRequest
	if !bind(c, &req) {
		return
	}
	respond(h, c, "shell", serial, func() (*models.ShellResult, error) {
		return h.dm.RunCommand(serial, req.Command)
	})
}

func (h *Handlers) System(c *gin.Context) {
	serial := c.Param("serial")
	respond(h, c, "system", serial, func() (sysinfo.SystemReport, error) {
		return h.dm.System(serial)
	})
}

// Section serves one sub-report of the system report.
func (h *Handlers) Section(section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		serial := c.Param("serial")
		respond(h, c, section, serial, func() (any, error) {
			switch section {
			case "hardware":
				return h.dm.Hardware(serial)
			case "display":
				return h.dm.Display(serial)
			case "battery":
				return h.dm.Battery(serial)
			case "build":
				return h.dm.Build(serial)
			default:
				return h.dm.Network(serial)
			}
		})
	}
}

func (h *Handlers) Packages(c *gin.Context) {
	serial := c.Param("serial")
	respond(h, c, "packages", serial, func() ([]string, error) {
		return h.dm.Packages(serial)
	})
}

func (h *Handlers) Logcat(c *gin.Context) {
	serial := c.Param("serial")
	lines := 0
	if raw := c.Query("lines"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("lines must be an integer"))
			return
		}
		lines = n
	}
	respond(h, c, "logcat", serial, func() (*models.ShellResult, error) {
		out, err := h.dm.Logcat(serial, lines)
		if err != nil {
			return nil, err
		}
		return &models.ShellResult{Output: out}, nil
	})
}

func (h *Handlers) Job(c *gin.Context) {
	job, ok := h.jobs.Job(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse("job not found"))
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(job))
}

// respond runs fn as a job and writes its result in the response envelope.
func respond[T any](h *Handlers, c *gin.Context, kind, deviceID string, fn func() (T, error)) {
	v, jobID, err := service.Run(c.Request.Context(), h.jobs, kind, deviceID, fn)
	setJobHeader(c, jobID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(v))
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	resp := models.ErrorResponse(err.Error())
	var perr *pairing.PairingError
	if errors.As(err, &perr) {
		resp.Message = perr.Message()
	}
	c.JSON(status, resp)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var perr *pairing.PairingError
	switch {
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrDispatcherStopped),
		errors.Is(err, discovery.ErrListenerStart),
		errors.Is(err, discovery.ErrListenerStop):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, adb.ErrInvalidAddress),
		errors.Is(err, pairing.ErrInvalidPairingCode),
		errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, adb.ErrNoDeviceFound):
		return http.StatusNotFound
	case errors.As(err, &perr) && perr.Kind == pairing.KindTimeout,
		errors.Is(err, adb.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &perr),
		errors.Is(err, adb.ErrConnectionRefused),
		errors.Is(err, adb.ErrCommunication),
		errors.Is(err, adb.ErrHandshake),
		errors.Is(err, service.ErrRemoteCommand),
		errors.Is(err, sysinfo.ErrPartialDataUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
		return false
	}
	return true
}

func setJobHeader(c *gin.Context, jobID string) {
	if jobID != "" {
		c.Header(JobHeader, jobID)
	}
}

func queryDuration(c *gin.Context, key string) (time.Duration, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.New(key + " must be a duration such as 5s")
	}
	if d < 0 {
		return 0, errors.New(key + " must not be negative")
	}
	return d, nil
}
