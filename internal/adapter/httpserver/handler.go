package httpserver

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/magicaleks/freq-server/internal/domain"
	"github.com/magicaleks/freq-server/internal/impls"
)

const (
	// maxBodyBytes bounds the DeallocateFrequency text parameter.
	maxBodyBytes = 1 << 10

	statusPath = "Status"
)

type transportError struct {
	Ok    bool   `json:"ok" xml:"ok"`
	Error string `json:"error" xml:"error"`
}

type API struct {
	dispatcher impls.Dispatcher
	snapshots  impls.SnapshotSource
	logger     *slog.Logger
}

func NewAPI(dispatcher impls.Dispatcher, snapshots impls.SnapshotSource, logger *slog.Logger) *API {
	return &API{dispatcher: dispatcher, snapshots: snapshots, logger: logger}
}

func (a *API) RegisterRoutes(router *gin.Engine, basePath string) {
	router.GET("/ping", a.ping)

	group := router.Group(basePath)
	group.POST("/:operation", a.post)
	group.GET("/:operation", a.get)
}

func (a *API) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) post(c *gin.Context) {
	op := domain.ParseOperation(c.Param("operation"))
	if op == domain.OpUnknown {
		a.notFound(c)
		return
	}
	a.operation(c, op)
}

// get serves the status snapshot and the operations that take no parameter.
func (a *API) get(c *gin.Context) {
	name := c.Param("operation")
	if name == statusPath {
		a.status(c)
		return
	}
	op := domain.ParseOperation(name)
	if op == domain.OpUnknown || op.HasBody() {
		a.notFound(c)
		return
	}
	a.operation(c, op)
}

// operation answers 200 for every domain outcome; only transport failures
// use other status codes.
func (a *API) operation(c *gin.Context, op domain.Operation) {
	var body string
	if op.HasBody() {
		text, err := readBody(c)
		if err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			a.logger.Warn("read request body", "op", op, "err", err)
			render(c, status, transportError{Ok: false, Error: err.Error()})
			return
		}
		body = text
	}

	resp := a.dispatcher.Dispatch(c.Request.Context(), op, body)
	render(c, http.StatusOK, resp)
}

func (a *API) status(c *gin.Context) {
	render(c, http.StatusOK, a.snapshots.Snapshot())
}

func (a *API) notFound(c *gin.Context) {
	render(c, http.StatusNotFound, transportError{Ok: false, Error: "unknown operation " + c.Param("operation")})
}

func readBody(c *gin.Context) (string, error) {
	if c.Request.Body == nil {
		return "", nil
	}
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// render encodes v as XML unless the client explicitly asks for JSON.
// Missing or wildcard Accept headers get XML.
func render(c *gin.Context, status int, v any) {
	if c.NegotiateFormat(gin.MIMEXML, gin.MIMEXML2, gin.MIMEJSON) == gin.MIMEJSON {
		c.JSON(status, v)
		return
	}
	c.XML(status, v)
}
