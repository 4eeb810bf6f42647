package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hikarune/postfeed/internal/blobservice"
	"github.com/hikarune/postfeed/internal/common"
	"github.com/hikarune/postfeed/internal/postservice"
)

const maxUploadBytes = 10 << 20

// readPostForm pulls the title, content and optional image out of a
// multipart form. An image with an unsupported content type is dropped and
// the rest of the form still goes through; the upstream clients have always
// treated a rejected image as "no image was sent".
func (app *application) readPostForm(w http.ResponseWriter, r *http.Request) (string, string, *string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	err := r.ParseMultipartForm(maxUploadBytes)
	if err != nil {
		return "", "", nil, errors.New("request body must be a valid multipart form")
	}

	title := r.FormValue("title")
	content := r.FormValue("content")

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return title, content, nil, nil
		}
		return "", "", nil, err
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")

	ref, err := app.blobs.Save(r.Context(), file, contentType)
	if err != nil {
		if errors.Is(err, blobservice.ErrUnsupportedType) {
			app.logger.Info("dropped upload with unsupported content type", slog.String("content_type", contentType), slog.String("filename", header.Filename))
			return title, content, nil, nil
		}
		return "", "", nil, err
	}

	return title, content, &ref, nil
}

func (app *application) createPostHandler(w http.ResponseWriter, r *http.Request) {
	title, content, fileRef, err := app.readPostForm(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	req := &postservice.CreatePostRequest{
		Title:   title,
		Content: content,
		FileRef: fileRef,
		UserID:  user.ID,
	}

	post, err := app.postService.CreatePost(r.Context(), req)
	if err != nil {
		switch {
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Fields)
		case errors.Is(err, postservice.ErrUserForeignKey):
			app.invalidAuthenticationTokenResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) getPostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	post, err := app.postService.GetPost(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, postservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Fields)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := app.readPageParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	result, err := app.postService.ListPosts(r.Context(), nil, page, pageSize)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": result}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) listPostsByUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	page, pageSize, err := app.readPageParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	result, err := app.postService.ListPosts(r.Context(), &id, page, pageSize)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": result}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	title, content, fileRef, err := app.readPostForm(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	req := &postservice.UpdatePostRequest{
		ID:          id,
		RequesterID: user.ID,
		Title:       title,
		Content:     content,
		NewFileRef:  fileRef,
	}

	post, err := app.postService.UpdatePost(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, postservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, postservice.ErrNotOwner):
			app.forbiddenErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Fields)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	post, err := app.postService.DeletePost(r.Context(), id, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, postservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, postservice.ErrNotOwner):
			app.forbiddenErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "post deleted", "post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}
