package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Dan9191/tweet-service/internal/middleware"
	"github.com/Dan9191/tweet-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Response texts
const (
	msgUserCreated    = "User Created Successfully"
	msgUserExists     = "User already exists"
	msgInvalidRequest = "Invalid Request"
	msgTweetCreated   = "Tweet created successfully"
	msgTweetRemoved   = "Tweet Removed"
	msgInvalidBody    = "Invalid request body"
	msgInternal       = "Internal Server Error"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// LoginResponse is the body of a successful login
type LoginResponse struct {
	JWTToken string `json:"jwtToken"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createTweetRequest struct {
	Tweet string `json:"tweet"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeText(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if _, err := h.svc.Register(r.Context(), in); err != nil {
		h.fail(w, r, err)
		return
	}
	writeText(w, http.StatusOK, msgUserCreated)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeText(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	token, err := h.svc.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{JWTToken: token})
}

// Feed returns the latest tweets of the authors the caller follows
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	username, ok := h.username(w, r)
	if !ok {
		return
	}
	feed, err := h.svc.Feed(r.Context(), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// Following lists the users the caller follows
func (h *Handler) Following(w http.ResponseWriter, r *http.Request) {
	username, ok := h.username(w, r)
	if !ok {
		return
	}
	people, err := h.svc.Following(r.Context(), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}

// Followers lists the users following the caller
func (h *Handler) Followers(w http.ResponseWriter, r *http.Request) {
	username, ok := h.username(w, r)
	if !ok {
		return
	}
	people, err := h.svc.Followers(r.Context(), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}

// Tweet returns a tweet with its like and reply counts
func (h *Handler) Tweet(w http.ResponseWriter, r *http.Request) {
	username, tweetID, ok := h.tweetRequest(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.Tweet(r.Context(), username, tweetID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// TweetLikes lists the usernames that liked a tweet
func (h *Handler) TweetLikes(w http.ResponseWriter, r *http.Request) {
	username, tweetID, ok := h.tweetRequest(w, r)
	if !ok {
		return
	}
	likes, err := h.svc.TweetLikes(r.Context(), username, tweetID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, likes)
}

// TweetReplies lists the replies to a tweet
func (h *Handler) TweetReplies(w http.ResponseWriter, r *http.Request) {
	username, tweetID, ok := h.tweetRequest(w, r)
	if !ok {
		return
	}
	replies, err := h.svc.TweetReplies(r.Context(), username, tweetID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replies)
}

// UserTweets lists the caller's own tweets
func (h *Handler) UserTweets(w http.ResponseWriter, r *http.Request) {
	username, ok := h.username(w, r)
	if !ok {
		return
	}
	tweets, err := h.svc.UserTweets(r.Context(), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tweets)
}

// CreateTweet posts a tweet as the caller
func (h *Handler) CreateTweet(w http.ResponseWriter, r *http.Request) {
	username, ok := h.username(w, r)
	if !ok {
		return
	}
	var in createTweetRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeText(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if _, err := h.svc.CreateTweet(r.Context(), username, in.Tweet); err != nil {
		h.fail(w, r, err)
		return
	}
	writeText(w, http.StatusOK, msgTweetCreated)
}

// DeleteTweet removes one of the caller's tweets
func (h *Handler) DeleteTweet(w http.ResponseWriter, r *http.Request) {
	username, tweetID, ok := h.tweetRequest(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteTweet(r.Context(), username, tweetID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeText(w, http.StatusOK, msgTweetRemoved)
}

// Health reports database reachability
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Health(r.Context()); err != nil {
		h.log.WithError(err).Warn("Health check failed")
		writeText(w, http.StatusServiceUnavailable, "unavailable")
		return
	}
	writeText(w, http.StatusOK, "ok")
}

func (h *Handler) username(w http.ResponseWriter, r *http.Request) (string, bool) {
	username, ok := middleware.UsernameFromContext(r.Context())
	if !ok {
		writeText(w, http.StatusUnauthorized, middleware.InvalidTokenMessage)
	}
	return username, ok
}

func (h *Handler) tweetRequest(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	username, ok := h.username(w, r)
	if !ok {
		return "", 0, false
	}
	// an id that cannot name a tweet fails the guard like a missing one
	tweetID, err := strconv.ParseInt(mux.Vars(r)["tweetId"], 10, 64)
	if err != nil {
		writeText(w, http.StatusUnauthorized, msgInvalidRequest)
		return "", 0, false
	}
	return username, tweetID, true
}

// fail maps a service error to its status and body
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var inErr *service.InputError
	switch {
	case errors.As(err, &inErr):
		writeText(w, http.StatusBadRequest, inErr.Reason)
	case errors.Is(err, service.ErrConflict):
		writeText(w, http.StatusBadRequest, msgUserExists)
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidCredential):
		writeText(w, http.StatusUnauthorized, middleware.InvalidTokenMessage)
	case errors.Is(err, service.ErrUnauthorized):
		writeText(w, http.StatusUnauthorized, msgInvalidRequest)
	default:
		h.log.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		writeText(w, http.StatusInternalServerError, msgInternal)
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, msg)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
