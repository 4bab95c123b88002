package binder

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/chainmux/core/handler"
)

// DefaultMultipartMemory is how much of a multipart body is held in memory
// before file parts spill to disk.
const DefaultMultipartMemory = 32 << 20

// decodeBody reads the request body and decodes it by Content-Type.
// Without p.New, structured payloads become maps/slices, text becomes a
// string and XML stays raw text.
func decodeBody(ctx *handler.Context, p handler.Param) (any, error) {
	contentType := ctx.Request().Header.Get("Content-Type")
	if contentType == "" {
		return nil, reject(ErrMissingContentType, "body parameter %q requires a Content-Type", p.Name)
	}
	mediaType, mtParams, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, reject(ErrUnsupportedMediaType, "malformed Content-Type %q", contentType)
	}

	body, err := ctx.Body()
	if err != nil {
		return nil, err
	}

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return decodeJSON(body, p)

	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, reject(ErrFailedToParseForm, "%v", err)
		}
		return formTarget(flatten(values), p)

	case mediaType == "multipart/form-data":
		boundary := mtParams["boundary"]
		if boundary == "" {
			return nil, reject(ErrFailedToParseForm, "multipart body without boundary")
		}
		form, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(DefaultMultipartMemory)
		if err != nil {
			return nil, reject(ErrFailedToParseForm, "%v", err)
		}
		fields := flatten(form.Value)
		if p.New != nil {
			return formTarget(fields, p)
		}
		for name, files := range form.File {
			fields[name] = files
		}
		return fields, nil

	case mediaType == "application/xml" || mediaType == "text/xml" || strings.HasSuffix(mediaType, "+xml"):
		if p.New == nil {
			return string(body), nil
		}
		target := p.New()
		if err := xml.Unmarshal(body, target); err != nil {
			return nil, reject(ErrFailedToParseXML, "%v", err)
		}
		return target, nil

	case mediaType == "application/yaml" || mediaType == "application/x-yaml" || mediaType == "text/yaml":
		target := newTarget(p)
		if err := yaml.Unmarshal(body, target); err != nil {
			return nil, reject(ErrFailedToParseYAML, "%v", err)
		}
		return unwrap(target, p), nil

	case strings.HasPrefix(mediaType, "text/"):
		return string(body), nil

	case mediaType == "application/octet-stream":
		return body, nil

	default:
		return nil, reject(ErrUnsupportedMediaType, "cannot bind %q from %s", p.Name, mediaType)
	}
}

func decodeJSON(body []byte, p handler.Param) (any, error) {
	target := newTarget(p)
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(target); err != nil {
		return nil, reject(ErrFailedToParseJSON, "%v", err)
	}
	return unwrap(target, p), nil
}

// formTarget returns fields as-is or decodes them into p.New() through JSON.
func formTarget(fields map[string]any, p handler.Param) (any, error) {
	if p.New == nil {
		return fields, nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, reject(ErrFailedToParseForm, "%v", err)
	}
	target := p.New()
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, reject(ErrFailedToParseForm, "%v", err)
	}
	return target, nil
}

// flatten maps single-valued fields to a string and repeated fields to a slice.
func flatten(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch len(v) {
		case 0:
		case 1:
			out[k] = v[0]
		default:
			out[k] = v
		}
	}
	return out
}

func newTarget(p handler.Param) any {
	if p.New != nil {
		return p.New()
	}
	var v any
	return &v
}

func unwrap(target any, p handler.Param) any {
	if p.New != nil {
		return target
	}
	return *(target.(*any))
}

func reject(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", handler.ErrContentTypeRejected, kind, fmt.Sprintf(format, args...))
}
