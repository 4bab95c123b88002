package binder

import "errors"

// Error variables define common binding failures that can occur during request processing.
// Body failures are also wrapped with handler.ErrContentTypeRejected so the
// dispatcher answers them with 400.
var (
	// ErrUnsupportedMediaType indicates the Content-Type header specifies a media type
	// the resolver cannot decode into a body parameter.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrMissingContentType indicates the request lacks a Content-Type header
	// while a body parameter is declared.
	ErrMissingContentType = errors.New("missing content type")

	// ErrFailedToParseJSON indicates the request body contains invalid JSON
	// or doesn't match the target schema.
	ErrFailedToParseJSON = errors.New("failed to parse JSON request body")

	// ErrFailedToParseForm indicates form data parsing failed due to malformed
	// multipart boundaries or invalid URL-encoded data.
	ErrFailedToParseForm = errors.New("failed to parse form data")

	// ErrFailedToParseXML indicates the request body is not well-formed XML
	// for the target type.
	ErrFailedToParseXML = errors.New("failed to parse XML request body")

	// ErrFailedToParseYAML indicates the request body is not valid YAML.
	ErrFailedToParseYAML = errors.New("failed to parse YAML request body")

	// ErrNoSessionStore indicates a session parameter was declared on a
	// resolver built without a session store.
	ErrNoSessionStore = errors.New("session store not configured")
)
