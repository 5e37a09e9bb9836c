package constant

const (
	// HeaderID is the request identifier header key.
	HeaderID = "X-Request-Id"
	// HeaderUserAgent is the HTTP User-Agent header key.
	HeaderUserAgent = "User-Agent"
	// MetadataID is the gRPC metadata key carrying the request identifier.
	MetadataID = "metadata_id"
	// MetadataTraceparent is the lowercase W3C traceparent key used in gRPC metadata.
	MetadataTraceparent = "traceparent"
	// MetadataTracestate is the lowercase W3C tracestate key used in gRPC metadata.
	MetadataTracestate = "tracestate"
	// LoggerDefaultSeparator separates the request id prefix from log messages.
	LoggerDefaultSeparator = " | "
	// DefaultErrorTitle is used when a transport error carries no title.
	DefaultErrorTitle = "request_failed"
)
