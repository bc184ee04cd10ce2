package users

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/koraei/bank/internal/web"
)

// Handler exposes user endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a user HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	IDCard    string `json:"idCard" validate:"required"`
}

type updateRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
}

// Response is the JSON representation of a user.
type Response struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone"`
	IDCard    string    `json:"idCard"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewResponse converts a user into its JSON form.
func NewResponse(u User) Response {
	return Response{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		IDCard:    u.IDCard,
		CreatedAt: u.CreatedAt,
	}
}

// List returns every user.
func (h *Handler) List(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]Response, 0, len(users))
	for _, u := range users {
		out = append(out, NewResponse(u))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Get returns a single user.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid user id")
	}
	user, err := h.service.Get(c.UserContext(), int64(id))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(NewResponse(user))
}

// Create registers a user.
func (h *Handler) Create(c *fiber.Ctx) error {
	req, err := web.BindAndValidate[createRequest](c)
	if err != nil {
		return err
	}
	user, err := h.service.Create(c.UserContext(), CreateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		IDCard:    req.IDCard,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(NewResponse(user))
}

// Update changes the name and phone of a user.
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid user id")
	}
	req, err := web.BindAndValidate[updateRequest](c)
	if err != nil {
		return err
	}
	user, err := h.service.Update(c.UserContext(), int64(id), UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(NewResponse(user))
}
