package http

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LerianStudio/lib-transactor/transactor"
	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestInfo holds the access log data of one request.
type RequestInfo struct {
	Method        string
	Username      string
	URI           string
	Referer       string
	RemoteAddress string
	Status        int
	Date          time.Time
	Duration      time.Duration
	UserAgent     string
	TraceID       string
	Protocol      string
	Size          int
}

// NewRequestInfo creates an instance of RequestInfo.
func NewRequestInfo(c *fiber.Ctx) *RequestInfo {
	username, referer := "-", "-"

	parsedURL, err := url.Parse(string(c.Request().URI().FullURI()))
	if err == nil && parsedURL.User != nil {
		if name := parsedURL.User.Username(); name != "" {
			username = name
		}
	}

	if c.Get("Referer") != "" {
		referer = c.Get("Referer")
	}

	return &RequestInfo{
		TraceID:       c.Get(constant.HeaderID),
		Method:        c.Method(),
		URI:           c.OriginalURL(),
		Username:      username,
		Referer:       referer,
		UserAgent:     c.Get(constant.HeaderUserAgent),
		RemoteAddress: c.IP(),
		Protocol:      c.Protocol(),
		Date:          time.Now().UTC(),
	}
}

// CLFString produces a log entry similar to the Common Log Format.
// Ref: https://httpd.apache.org/docs/trunk/logs.html#common
func (r *RequestInfo) CLFString() string {
	return strings.Join([]string{
		r.RemoteAddress,
		"-",
		r.Username,
		r.Protocol,
		r.Date.Format("[02/Jan/2006:15:04:05 -0700]"),
		`"` + r.Method + " " + r.URI + `"`,
		strconv.Itoa(r.Status),
		strconv.Itoa(r.Size),
		r.Referer,
		r.UserAgent,
	}, " ")
}

// String implements fmt.Stringer.
func (r *RequestInfo) String() string {
	return r.CLFString()
}

// FinishRequestInfo records the status, size and duration of the response.
func (r *RequestInfo) FinishRequestInfo(c *fiber.Ctx) {
	r.Duration = time.Now().UTC().Sub(r.Date)
	r.Status = c.Response().StatusCode()
	r.Size = len(c.Response().Body())
}

type logMiddleware struct {
	Logger log.Logger
}

// LogMiddlewareOption configures WithHTTPLogging.
type LogMiddlewareOption func(l *logMiddleware)

// WithCustomLogger sets the logger access entries are written to.
func WithCustomLogger(logger log.Logger) LogMiddlewareOption {
	return func(l *logMiddleware) {
		if logger != nil {
			l.Logger = logger
		}
	}
}

func buildOpts(opts ...LogMiddlewareOption) *logMiddleware {
	mid := &logMiddleware{
		Logger: log.NewNop(),
	}

	for _, opt := range opts {
		opt(mid)
	}

	return mid
}

// WithHTTPLogging assigns a request id and writes one access log line per request.
// The request-scoped logger is stored in the user context for handlers.
func WithHTTPLogging(opts ...LogMiddlewareOption) fiber.Handler {
	mid := buildOpts(opts...)

	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Next()
		}

		setRequestHeaderID(c)

		info := NewRequestInfo(c)

		logger := mid.Logger.With(log.String(constant.HeaderID, info.TraceID))

		c.SetUserContext(transactor.ContextWithLogger(c.UserContext(), logger))

		err := c.Next()
		if err != nil {
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		info.FinishRequestInfo(c)

		logger.Log(c.UserContext(), log.LevelInfo, info.CLFString(),
			log.Int("status", info.Status),
			log.String("duration", info.Duration.String()))

		return nil
	}
}

func setRequestHeaderID(c *fiber.Ctx) {
	headerID := c.Get(constant.HeaderID)

	if transactor.IsNilOrEmpty(&headerID) {
		headerID = uuid.New().String()
		c.Request().Header.Set(constant.HeaderID, headerID)
	}

	c.Set(constant.HeaderID, headerID)
	c.SetUserContext(transactor.ContextWithHeaderID(c.UserContext(), headerID))
}
