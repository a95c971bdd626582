// Package rest exposes the HTTP surface over the auth core: login,
// registration, the current-user profile, and topic subscriptions. The
// handlers are thin; all invariants live in the core packages.
package rest

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	auth "github.com/forgecrew/forum-auth"
	"github.com/forgecrew/forum-auth/middleware/authware"
)

type Controller struct {
	Debug         bool
	Logger        auth.Logger
	Auther        auth.Authenticator
	Repo          auth.RepositoryManager
	Subscriptions *auth.SubscriptionManager
	ContextKey    string
}

type ControllerOption func(*Controller)

func WithLogger(logger auth.Logger) ControllerOption {
	return func(ct *Controller) {
		ct.Logger = logger
	}
}

func WithDebug(debug bool) ControllerOption {
	return func(ct *Controller) {
		ct.Debug = debug
	}
}

// NewController wires the REST handlers over the auth core
func NewController(auther auth.Authenticator, repo auth.RepositoryManager, subs *auth.SubscriptionManager, opts ...ControllerOption) *Controller {
	ct := &Controller{
		Auther:        auther,
		Repo:          repo,
		Subscriptions: subs,
		ContextKey:    "user",
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ct)
		}
	}

	if ct.Logger == nil {
		ct.Logger = noopLogger{}
	}

	return ct
}

// RegisterRoutes mounts the middleware and the API routes on app
func (ct *Controller) RegisterRoutes(app *fiber.App, cfg auth.Config) {
	ct.ContextKey = cfg.GetContextKey()

	mw := authware.FromConfig(cfg, ct.Auther)
	mw.Logger = ct.Logger
	app.Use(authware.New(mw))

	guard := authware.RequireAuthenticated(ct.ContextKey)

	api := app.Group("/api")
	api.Post("/auth/login", ct.LoginPost)
	api.Post("/auth/register", ct.RegisterPost)
	api.Get("/auth/me", guard, ct.MeGet)

	api.Put("/users/me", guard, ct.MePut)
	api.Post("/users/me/subscriptions/:topicId", guard, ct.SubscribePost)
	api.Delete("/users/me/subscriptions/:topicId", guard, ct.SubscribeDelete)

	api.Get("/topics", ct.TopicsGet)
}

// LoginPost authenticates a credential pair and returns a bearer token
func (ct *Controller) LoginPost(c *fiber.Ctx) error {
	payload := LoginRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return ct.message(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return ct.message(c, fiber.StatusBadRequest, err.Error())
	}

	if ct.Debug {
		fmt.Println(print.MaybePrettyJSON(payload))
	}

	token, err := ct.Auther.Login(c.UserContext(), payload.Identifier, payload.Password)
	if err != nil {
		var rich *errors.Error
		if errors.As(err, &rich) && rich.Category == errors.CategoryAuth {
			// A single undifferentiated message: do not leak whether the
			// identifier exists.
			return ct.message(c, fiber.StatusUnauthorized, auth.ErrInvalidCredentials.Message)
		}
		// A credential-store fault is not an authentication outcome
		return ct.fail(c, err)
	}

	user, err := ct.Repo.Users().GetByIdentifier(c.UserContext(), payload.Identifier)
	if err != nil {
		return ct.fail(c, err)
	}

	return c.JSON(AuthResponse{Token: token, User: user})
}

// RegisterPost creates an account and logs it in
func (ct *Controller) RegisterPost(c *fiber.Ctx) error {
	payload := RegisterRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return ct.message(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return ct.message(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := ct.Repo.Users().Register(c.UserContext(), payload.Email, payload.Username, payload.Password)
	if err != nil {
		return ct.fail(c, err)
	}

	token, err := ct.Auther.Login(c.UserContext(), payload.Identifier(), payload.Password)
	if err != nil {
		return ct.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{Token: token, User: user})
}

// MeGet returns the current user with their subscriptions
func (ct *Controller) MeGet(c *fiber.Ctx) error {
	principal, ok := authware.PrincipalFromCtx(c, ct.ContextKey)
	if !ok {
		return ct.message(c, fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := ct.Repo.Users().GetByIDWithSubscriptions(c.UserContext(), principal.ID)
	if err != nil {
		return ct.fail(c, err)
	}

	return c.JSON(user)
}

// MePut applies a partial profile update to the current user
func (ct *Controller) MePut(c *fiber.Ctx) error {
	principal, ok := authware.PrincipalFromCtx(c, ct.ContextKey)
	if !ok {
		return ct.message(c, fiber.StatusUnauthorized, "unauthorized")
	}

	payload := UpdateProfileRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return ct.message(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return ct.message(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := ct.Repo.Users().UpdateProfile(c.UserContext(), principal.ID, auth.ProfileUpdate{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		return ct.fail(c, err)
	}

	return c.JSON(user)
}

// SubscribePost subscribes the current user to a topic
func (ct *Controller) SubscribePost(c *fiber.Ctx) error {
	principal, ok := authware.PrincipalFromCtx(c, ct.ContextKey)
	if !ok {
		return ct.message(c, fiber.StatusUnauthorized, "unauthorized")
	}

	topicID, err := c.ParamsInt("topicId")
	if err != nil {
		return ct.message(c, fiber.StatusBadRequest, "invalid topic id")
	}

	if err := ct.Subscriptions.Subscribe(c.UserContext(), principal.ID, int64(topicID)); err != nil {
		return ct.fail(c, err)
	}

	return ct.message(c, fiber.StatusOK, "subscribed")
}

// SubscribeDelete unsubscribes the current user from a topic
func (ct *Controller) SubscribeDelete(c *fiber.Ctx) error {
	principal, ok := authware.PrincipalFromCtx(c, ct.ContextKey)
	if !ok {
		return ct.message(c, fiber.StatusUnauthorized, "unauthorized")
	}

	topicID, err := c.ParamsInt("topicId")
	if err != nil {
		return ct.message(c, fiber.StatusBadRequest, "invalid topic id")
	}

	if err := ct.Subscriptions.Unsubscribe(c.UserContext(), principal.ID, int64(topicID)); err != nil {
		return ct.fail(c, err)
	}

	return ct.message(c, fiber.StatusOK, "unsubscribed")
}

// TopicsGet lists topics. Authenticated requests additionally get a
// per-topic subscribed flag.
func (ct *Controller) TopicsGet(c *fiber.Ctx) error {
	topics, err := ct.Repo.Topics().List(c.UserContext())
	if err != nil {
		return ct.fail(c, err)
	}

	principal, authenticated := authware.PrincipalFromCtx(c, ct.ContextKey)

	var subscribed map[int64]bool
	if authenticated {
		subscribed, err = ct.Subscriptions.SubscribedTopicIDs(c.UserContext(), principal.ID)
		if err != nil {
			return ct.fail(c, err)
		}
	}

	out := make([]TopicResponse, 0, len(topics))
	for _, topic := range topics {
		item := TopicResponse{
			ID:          topic.ID,
			Title:       topic.Title,
			Description: topic.Description,
		}
		if authenticated {
			flag := subscribed[topic.ID]
			item.Subscribed = &flag
		}
		out = append(out, item)
	}

	return c.JSON(out)
}

func (ct *Controller) message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(MessageResponse{Message: msg})
}

// fail maps core error categories to HTTP statuses deterministically
func (ct *Controller) fail(c *fiber.Ctx, err error) error {
	if ct.Debug {
		fmt.Println(print.MaybePrettyJSON(err))
	}

	var rich *errors.Error
	if !errors.As(err, &rich) {
		ct.Logger.Error("request failed", "path", c.Path(), "error", err)
		return ct.message(c, fiber.StatusInternalServerError, "internal error")
	}

	status := fiber.StatusInternalServerError
	switch rich.Category {
	case errors.CategoryAuth:
		status = fiber.StatusUnauthorized
	case errors.CategoryNotFound:
		status = fiber.StatusNotFound
	case errors.CategoryConflict, errors.CategoryValidation, errors.CategoryBadInput:
		// Client-correctable: the message stays specific and actionable.
		status = fiber.StatusBadRequest
	}

	if status == fiber.StatusInternalServerError {
		ct.Logger.Error("request failed", "path", c.Path(), "error", err)
		return ct.message(c, status, "internal error")
	}

	return ct.message(c, status, rich.Message)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
