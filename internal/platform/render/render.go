// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package render produces the server-rendered HTML pages.

Templates are embedded in the binary and parsed once at startup. Every page
is executed with a [View] that carries the request principal, so the layout
can embed the CSRF hidden field in each form without handlers passing it
explicitly. html/template escapes all user-supplied strings by context.
*/
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/constants"
	"github.com/taibuivan/shopfront/internal/platform/ctxutil"
	"github.com/taibuivan/shopfront/internal/platform/respond"
	"github.com/taibuivan/shopfront/internal/platform/sec"
)

//go:embed templates/*.html
var files embed.FS

const layoutFile = "templates/layout.html"

// Data is the page-specific payload. Pages index it by key.
type Data map[string]any

// View is the root value every template receives.
type View struct {
	Title     string
	Principal sec.Principal
	CSRFToken string
	Data      Data
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded layout together with every page.
func New() (*Renderer, error) {
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: list templates: %w", err)
	}

	renderer := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		if name == layoutFile {
			continue
		}
		page, err := template.New("layout").ParseFS(files, layoutFile, name)
		if err != nil {
			return nil, fmt.Errorf("render: parse %s: %w", name, err)
		}
		key := strings.TrimSuffix(strings.TrimPrefix(name, "templates/"), ".html")
		renderer.pages[key] = page
	}

	return renderer, nil
}

// Page renders a named page with the request principal.
//
// The page is buffered first so a template error becomes a clean 500
// instead of a half-written response.
func (renderer *Renderer) Page(writer http.ResponseWriter, request *http.Request, status int, name, title string, data Data) {
	page, ok := renderer.pages[name]
	if !ok {
		http.Error(writer, "page not found", http.StatusInternalServerError)
		return
	}

	principal := ctxutil.GetPrincipal(request.Context())
	if data == nil {
		data = Data{}
	}

	var buffer bytes.Buffer
	err := page.ExecuteTemplate(&buffer, "layout", View{
		Title:     title,
		Principal: principal,
		CSRFToken: principal.CSRFToken,
		Data:      data,
	})
	if err != nil {
		ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "template_render_failed",
			slog.String("page", name),
			slog.Any("error", err),
		)
		http.Error(writer, "An unexpected error occurred", http.StatusInternalServerError)
		return
	}

	header := writer.Header()
	header.Set(constants.HeaderContentType, "text/html; charset=utf-8")
	// Pages embed per-session secrets.
	header.Set("Cache-Control", "no-store")
	writer.WriteHeader(status)
	_, _ = buffer.WriteTo(writer)
}

// Message renders the generic single-paragraph result page.
func (renderer *Renderer) Message(writer http.ResponseWriter, request *http.Request, status int, title, message string) {
	renderer.Page(writer, request, status, "message", title, Data{"Message": message})
}

// Error renders an application error as a page with its status.
// Non-application errors become a generic 500 and are logged.
func (renderer *Renderer) Error(writer http.ResponseWriter, request *http.Request, err error) {
	appError := apperr.As(err)
	if appError == nil || appError.HTTPStatus >= http.StatusInternalServerError {
		ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "page_server_error",
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			slog.Any("error", err),
		)
		if appError == nil {
			appError = apperr.Internal(err)
		}
	}

	message := appError.Message
	for _, detail := range appError.Details {
		message += ". " + detail.Field + ": " + detail.Message
	}
	renderer.Message(writer, request, appError.HTTPStatus, http.StatusText(appError.HTTPStatus), message)
}

// Fail answers form posts and browser navigations with an error page and
// every other client with the JSON error envelope.
func (renderer *Renderer) Fail(writer http.ResponseWriter, request *http.Request, err error) {
	if respond.IsFormPost(request) || respond.WantsHTML(request) {
		renderer.Error(writer, request, err)
		return
	}
	respond.Error(writer, request, err)
}
