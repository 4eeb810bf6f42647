package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// user service
	router.HandlerFunc(http.MethodPost, "/v1/users/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/login", app.loginUserHandler)

	// post service
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.listPostsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts/create", app.requireAuthUser(app.createPostHandler))
	router.HandlerFunc(http.MethodGet, "/v1/posts/view/:id", app.getPostHandler)
	router.HandlerFunc(http.MethodPut, "/v1/posts/update/:id", app.requireAuthUser(app.updatePostHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/posts/delete/:id", app.requireAuthUser(app.deletePostHandler))
	router.HandlerFunc(http.MethodGet, "/v1/posts/user/:id", app.listPostsByUserHandler)

	// uploaded images
	router.HandlerFunc(http.MethodGet, "/v1/files/:ref", app.serveFileHandler)

	// live post events
	router.HandlerFunc(http.MethodGet, "/v1/events", app.notifyService.ServeWS)

	return app.recoverPanic(app.enableCORS(app.rateLimit(app.logRequest(app.authenticate(router)))))
}
