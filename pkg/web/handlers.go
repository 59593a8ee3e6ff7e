package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/cinemate/go-cinemate/pkg/hub"
)

func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := fiber.Map{"state": s.State()}
	if s.OnStats != nil {
		resp["stats"] = s.OnStats()
	}
	return c.JSON(resp)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	logs := make([]LogEntry, len(s.logs))
	copy(logs, s.logs)
	s.logsMu.RUnlock()
	return c.JSON(logs)
}

func (s *Server) handleFallback(c *fiber.Ctx) error {
	if s.OnFallback == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "fallback control not wired",
		})
	}

	resp, err := s.OnFallback(c.Params("category"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"queued": resp})
}

func (s *Server) handleClipStart(c *fiber.Ctx) error {
	if s.OnClipStart == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "no clip timeline loaded",
		})
	}
	if err := s.OnClipStart(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"clip_active": true})
}

func (s *Server) handleClipStop(c *fiber.Ctx) error {
	if s.OnClipStop == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "no clip timeline loaded",
		})
	}
	if err := s.OnClipStop(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"clip_active": false})
}

func (s *Server) handleListEntities(c *fiber.Ctx) error {
	if s.OnListEntities == nil {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(s.OnListEntities())
}

type setEntityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleSetEntity(c *fiber.Ctx) error {
	if s.OnSetEntity == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "entity store not wired",
		})
	}

	var req setEntityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}

	if err := s.OnSetEntity(req.Name, req.Description); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"saved": req.Name})
}

func (s *Server) handleStatusWS(conn *websocket.Conn) {
	client := hub.NewClient(s.statusHub, conn)
	client.Run()
}

func (s *Server) handleLogsWS(conn *websocket.Conn) {
	client := hub.NewClient(s.logHub, conn)
	client.Run()
}

func (s *Server) handlePreviewWS(conn *websocket.Conn) {
	client := hub.NewClient(s.previewHub, conn)
	client.Run()
}
