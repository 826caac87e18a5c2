// Package httpapi exposes the REST surface: health, guest onboarding,
// profile updates, channel and presence listings, history, message
// deletion and file uploads.
package httpapi

import (
	"errors"
	"log/slog"
	"os"
	"runtime"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"github.com/shirou/gopsutil/process"

	"github.com/ItsSkellyHer3/ChatIfy/domain"
	chaterrors "github.com/ItsSkellyHer3/ChatIfy/errors"
	"github.com/ItsSkellyHer3/ChatIfy/infrastructure/storage"
	"github.com/ItsSkellyHer3/ChatIfy/services"
)

type Handler struct {
	service   services.IChatService
	artifacts storage.FileArtifactStore
	validate  *validator.Validate
	log       *slog.Logger
}

func NewHandler(service services.IChatService, artifacts storage.FileArtifactStore, log *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		artifacts: artifacts,
		validate:  validator.New(),
		log:       log,
	}
}

type GuestRequest struct {
	Username string `json:"username" validate:"required"`
	Avatar   string `json:"avatar" validate:"omitempty,url"`
}

type ProfileRequest struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar" validate:"omitempty,url"`
}

type userView struct {
	UID    string `json:"uid"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func toUserView(u domain.User) userView {
	return userView{UID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

type channelView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Health reports liveness plus coarse process stats.
func (h *Handler) Health(c *fiber.Ctx) error {
	stats := fiber.Map{"goroutines": runtime.NumGoroutine()}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := p.MemoryInfo(); err == nil {
			stats["rss_bytes"] = mem.RSS
		}
	}
	return c.JSON(fiber.Map{"status": "online", "stats": stats})
}

// CreateGuest provisions a throwaway identity for an unauthenticated visitor.
func (h *Handler) CreateGuest(c *fiber.Ctx) error {
	var req GuestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	user, err := h.service.CreateGuest(req.Username, req.Avatar)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": toUserView(user)})
}

// UpdateUser patches name and avatar; empty fields keep their value.
func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	var req ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	user, err := h.service.UpdateProfile(c.Params("uid"), req.Username, req.Avatar)
	if errors.Is(err, chaterrors.ErrUserNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(toUserView(user))
}

func (h *Handler) ListChannels(c *fiber.Ctx) error {
	channels, err := h.service.ListChannels()
	if err != nil {
		return err
	}
	return c.JSON(lo.Map(channels, func(ch domain.Channel, _ int) channelView {
		return channelView{ID: ch.ID, Name: ch.Name}
	}))
}

// ListUsers returns the recently seen users, most recent first.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListActiveUsers()
	if err != nil {
		return err
	}
	return c.JSON(lo.Map(users, func(u domain.User, _ int) userView {
		return toUserView(u)
	}))
}

// History returns a channel's backlog, oldest first, in wire shape.
func (h *Handler) History(c *fiber.Ctx) error {
	messages, err := h.service.History(c.Params("cid"))
	if err != nil {
		return err
	}
	return c.JSON(lo.Map(messages, func(m domain.Message, _ int) domain.MessagePayload {
		return m.Payload()
	}))
}

// DeleteMessage removes a message when the requester is its author.
func (h *Handler) DeleteMessage(c *fiber.Ctx) error {
	err := h.service.DeleteMessage(c.Params("mid"), c.Query("uid"))
	switch {
	case errors.Is(err, chaterrors.ErrMessageNotFound):
		return fiber.NewError(fiber.StatusNotFound, "message not found")
	case errors.Is(err, chaterrors.ErrNotAuthor):
		return fiber.NewError(fiber.StatusForbidden, "not the author")
	case err != nil:
		return err
	}
	return c.JSON(fiber.Map{"status": "success"})
}

// Upload stores a multipart file and returns the URL it is served under.
func (h *Handler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing file")
	}
	f, err := header.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable file")
	}
	defer func() {
		_ = f.Close()
	}()

	stored, err := h.artifacts.Save(header.Filename, f)
	if err != nil {
		return err
	}
	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(h.artifacts.Path(stored)); err == nil {
		contentType = mt.String()
	}
	h.log.Info("file uploaded", "name", stored, "content_type", contentType)
	return c.JSON(fiber.Map{
		"url":      "/uploads/" + stored,
		"filename": header.Filename,
	})
}
