package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// Routes registers every endpoint on r. Protected endpoints are wrapped by auth.
func (h *Handler) Routes(r *mux.Router, auth mux.MiddlewareFunc) {
	// Public routes
	handle(r, "/register/", h.Register, http.MethodPost)
	handle(r, "/login/", h.Login, http.MethodPost)
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	// Protected routes
	api := r.NewRoute().Subrouter()
	api.Use(auth)
	handle(api, "/user/tweets/feed/", h.Feed, http.MethodGet)
	handle(api, "/user/following/", h.Following, http.MethodGet)
	handle(api, "/user/followers/", h.Followers, http.MethodGet)
	handle(api, "/user/tweets/", h.UserTweets, http.MethodGet)
	handle(api, "/user/tweets/", h.CreateTweet, http.MethodPost)
	handle(api, "/tweets/{tweetId}/", h.Tweet, http.MethodGet)
	handle(api, "/tweets/{tweetId}/", h.DeleteTweet, http.MethodDelete)
	handle(api, "/tweets/{tweetId}/likes/", h.TweetLikes, http.MethodGet)
	handle(api, "/tweets/{tweetId}/replies/", h.TweetReplies, http.MethodGet)
}

// handle registers path with and without its trailing slash
func handle(r *mux.Router, path string, fn http.HandlerFunc, method string) {
	r.HandleFunc(path, fn).Methods(method)
	r.HandleFunc(strings.TrimSuffix(path, "/"), fn).Methods(method)
}
