// Package web is a thin layer over gin that lets handlers return errors and
// compose middleware as plain functions.
package web

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handler handles a single request. A non-nil error that was not already
// written to the client is rendered by the App.
type Handler func(c *Context) error

// Middleware wraps a Handler with additional behaviour.
type Middleware func(Handler) Handler

// App is the entrypoint into the application. It embeds the gin engine so
// that gin-level middleware and raw handlers can still be registered.
type App struct {
	*gin.Engine
	log zerolog.Logger
	mw  []Middleware
}

// NewApp creates an App with method-not-allowed handling and JSON 404/405
// responses. Middleware given here wraps every handler registered via Handle.
func NewApp(log zerolog.Logger, mw ...Middleware) *App {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.NoRoute(func(gc *gin.Context) {
		gc.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"status":  false,
			"message": fmt.Sprintf("Route %s not found", gc.Request.URL.Path),
		})
	})
	engine.NoMethod(func(gc *gin.Context) {
		gc.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{
			"status":  false,
			"message": fmt.Sprintf("Method %s not allowed on %s", gc.Request.Method, gc.Request.URL.Path),
		})
	})

	registerValidator()

	return &App{
		Engine: engine,
		log:    log,
		mw:     mw,
	}
}

// Handle registers handler for method and path. Route middleware runs inside
// the application-wide middleware.
func (a *App) Handle(method string, path string, handler Handler, mw ...Middleware) {
	handler = wrapMiddleware(mw, handler)
	handler = wrapMiddleware(a.mw, handler)

	h := func(gc *gin.Context) {
		c := NewContext(gc)
		if err := handler(c); err != nil && !gc.Writer.Written() {
			_ = c.RespondError(err)
		}
	}

	a.Engine.Handle(method, path, h)
}

func (a *App) Get(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodGet, path, handler, mw...)
}

func (a *App) Post(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodPost, path, handler, mw...)
}

func (a *App) Put(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodPut, path, handler, mw...)
}

func (a *App) Patch(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodPatch, path, handler, mw...)
}

func (a *App) Delete(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodDelete, path, handler, mw...)
}

// Log returns the application logger.
func (a *App) Log() zerolog.Logger {
	return a.log
}

// wrapMiddleware wraps handler so that mw[0] is the outermost layer.
func wrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] != nil {
			handler = mw[i](handler)
		}
	}
	return handler
}
