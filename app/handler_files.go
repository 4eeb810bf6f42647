package main

import (
	"errors"
	"io"
	"net/http"

	"github.com/hikarune/postfeed/internal/blobservice"
)

func (app *application) serveFileHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := app.readStringParam(r, "ref")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	file, err := app.blobs.Open(r.Context(), ref)
	if err != nil {
		switch {
		case errors.Is(err, blobservice.ErrBlobNotFound):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}
	defer file.Close()

	if contentType := blobservice.ContentTypeFor(ref); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	_, err = io.Copy(w, file)
	if err != nil {
		app.logError(r, err)
	}
}
