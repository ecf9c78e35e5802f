// Package web exposes the request/response surface: profile lookups,
// message history reads, and the start-or-find conversation entrypoint.
// The realtime protocol lives behind /ws.
package web

import (
	"chatify/auth"
	"chatify/domain"
	"chatify/errors"
	"chatify/realtime"
	"chatify/services"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

type API struct {
	log         *slog.Logger
	coordinator services.ICoordinator
	profiles    services.IProfileService
	gateway     *realtime.Gateway
	verifier    *auth.Verifier
}

func NewAPI(log *slog.Logger, coordinator services.ICoordinator,
	profiles services.IProfileService, gateway *realtime.Gateway,
	verifier *auth.Verifier) *API {
	return &API{
		log:         log,
		coordinator: coordinator,
		profiles:    profiles,
		gateway:     gateway,
		verifier:    verifier,
	}
}

// Register wires every route. The identity middleware runs on all of
// them: requests without a token proceed as anonymous.
func (a *API) Register(router *gin.Engine) {
	router.Use(auth.IdentityMiddleware(a.verifier))

	api := router.Group("/api")
	api.GET("/search", a.search)
	api.GET("/check", a.check)
	api.GET("/user", a.user)
	api.PUT("/setup", a.setup)
	api.PUT("/edit", a.edit)
	api.GET("/messages", a.messages)
	api.PUT("/startchat", a.startChat)

	router.GET("/ws", func(c *gin.Context) {
		a.gateway.Handle(c.Writer, c.Request)
	})
}

func (a *API) search(c *gin.Context) {
	profiles, err := a.profiles.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		a.fail(c, err)
		return
	}
	if profiles == nil {
		profiles = []domain.Profile{}
	}
	// The historical response shape is a two-element array; the second
	// slot was never populated and clients index into the first.
	c.JSON(http.StatusOK, []any{profiles, []any{}})
}

func (a *API) check(c *gin.Context) {
	available, err := a.profiles.UsernameAvailable(c.Query("username"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, available)
}

type historyEntryResponse struct {
	ChatID      string `json:"chat_id"`
	LastMessage int64  `json:"last_message"`
	UID         string `json:"u_id"`
	Username    string `json:"username"`
	Name        string `json:"name,omitempty"`
	About       string `json:"about,omitempty"`
	Photo       string `json:"photo,omitempty"`
}

type userResponse struct {
	domain.Profile
	ChatHistory []historyEntryResponse `json:"chathistory"`
}

// user returns the caller's profile together with the enriched history:
// each entry joined against live conversation activity and the peer's
// public profile. Anonymous or unregistered callers get a 404.
func (a *API) user(c *gin.Context) {
	identity := auth.IdentityFrom(c)
	if identity.IsAnonymous() {
		c.Status(http.StatusNotFound)
		return
	}
	profile, err := a.profiles.Get(identity.UID)
	if err != nil {
		a.fail(c, err)
		return
	}
	summaries, err := a.coordinator.History(identity.UID)
	if err != nil {
		a.fail(c, err)
		return
	}

	history := lo.Map(summaries, func(s domain.HistorySummary, _ int) historyEntryResponse {
		return historyEntryResponse{
			ChatID:      string(s.ChatID),
			LastMessage: s.LastMessage.UnixMilli(),
			UID:         s.Peer.UID,
			Username:    s.Peer.Username,
			Name:        s.Peer.Name,
			About:       s.Peer.About,
			Photo:       s.Peer.Photo,
		}
	})
	if history == nil {
		history = []historyEntryResponse{}
	}
	c.JSON(http.StatusOK, userResponse{Profile: profile, ChatHistory: history})
}

type profileRequest struct {
	UserData domain.Profile `json:"userData" binding:"required"`
}

func (a *API) setup(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if err := a.profiles.Setup(auth.IdentityFrom(c), req.UserData); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (a *API) edit(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if err := a.profiles.Edit(auth.IdentityFrom(c), req.UserData); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (a *API) messages(c *gin.Context) {
	chatID := c.Query("chat_id")
	if chatID == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	messages, err := a.coordinator.Messages(domain.ChatID(chatID))
	if err != nil {
		a.fail(c, err)
		return
	}
	payloads := lo.Map(messages, func(m domain.Message, _ int) realtime.MessagePayload {
		return realtime.FromDomainMessage(m)
	})
	if payloads == nil {
		payloads = []realtime.MessagePayload{}
	}
	c.JSON(http.StatusOK, payloads)
}

type startChatRequest struct {
	Users []domain.Identity `json:"users" binding:"required,len=2"`
}

type startChatResponse struct {
	ChatID      string `json:"chat_id"`
	Found       bool   `json:"found"`
	LastMessage int64  `json:"last_message,omitempty"`
}

// startChat is the start-or-find entrypoint. Repeat calls for the same
// pair return found=true with the existing conversation id.
func (a *API) startChat(c *gin.Context) {
	var req startChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if req.Users[0].UID == "" || req.Users[1].UID == "" || req.Users[0].UID == req.Users[1].UID {
		c.Status(http.StatusBadRequest)
		return
	}

	result, err := a.coordinator.StartConversation(c.Request.Context(), req.Users[0], req.Users[1])
	if err != nil {
		a.fail(c, err)
		return
	}

	response := startChatResponse{ChatID: string(result.ChatID), Found: result.Found}
	if !result.Found {
		response.LastMessage = result.LastActivity.UnixMilli()
	}
	c.JSON(http.StatusOK, response)
}

func (a *API) fail(c *gin.Context, err error) {
	status := errors.MapToHTTPStatus(err)
	var validationErrs validator.ValidationErrors
	if stderrors.As(err, &validationErrs) {
		status = http.StatusBadRequest
	}
	message := err.Error()
	if status >= http.StatusInternalServerError {
		// Internal detail stays in the log; clients get the status text.
		a.log.Error("request failed", "path", c.FullPath(), "error", err)
		message = http.StatusText(status)
	}
	c.JSON(status, gin.H{"error": message})
}
