package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/FlorianWeber/FitFox/app/repository"
)

// HandleDashboard returns the consolidated daily view for the current user.
func HandleDashboard(c *fiber.Ctx) error {
	summary := dashboardAggregator.Summary(currentUserID(c))
	return c.JSON(fiber.Map{"success": true, "dashboard": summary})
}

// HandleNotificationList returns the latest notifications for the current
// user, newest first.
func HandleNotificationList(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit <= 0 {
		limit = 20
	}

	repo := repository.GetGlobalFactory().GetNotificationRepository()
	notifications, err := repo.ListByUser(currentUserID(c), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load notifications"})
	}

	return c.JSON(fiber.Map{"success": true, "notifications": notifications})
}

// HandleNotificationRead marks one notification as read.
func HandleNotificationRead(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid notification id"})
	}

	repo := repository.GetGlobalFactory().GetNotificationRepository()
	if err := repo.MarkAsRead(uint(id)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Notification not found"})
	}

	return c.JSON(fiber.Map{"success": true})
}
