package routes

import (
	"github.com/go-chi/chi/v5"

	"Postboard/internal/api/handlers/post"
	"Postboard/internal/api/middleware"
	"Postboard/internal/core/posts"
)

// RegisterPostRoutes registers the posts REST endpoints under /api/posts
// Reads are public; every mutation requires authentication
func RegisterPostRoutes(r chi.Router, service posts.Service, validator posts.Validator, authMiddleware *middleware.AuthMiddleware) {
	// Initialize handlers
	getHandler := post.NewGetHandler(service)
	createHandler := post.NewCreateHandler(service, validator)
	deleteHandler := post.NewDeleteHandler(service)
	likeHandler := post.NewLikeHandler(service)
	commentHandler := post.NewCommentHandler(service, validator)

	r.Route("/api/posts", func(r chi.Router) {
		r.Get("/test", getHandler.HandleTest)
		r.Get("/", getHandler.HandleList)
		r.Get("/{id}", getHandler.HandleGet)

		r.With(authMiddleware.RequireAuth).Post("/", createHandler.HandleCreate)
		r.With(authMiddleware.RequireAuth).Delete("/{id}", deleteHandler.HandleDelete)

		r.With(authMiddleware.RequireAuth).Post("/like/{id}", likeHandler.HandleLike)
		r.With(authMiddleware.RequireAuth).Post("/unlike/{id}", likeHandler.HandleUnlike)

		r.With(authMiddleware.RequireAuth).Post("/comment/{id}", commentHandler.HandleAdd)
		r.With(authMiddleware.RequireAuth).Delete("/comment/{id}/{commentID}", commentHandler.HandleRemove)
	})
}
