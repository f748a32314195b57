package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hoply/hoply/internal/core/domain"
)

// ListSavedHandler returns the owner's saved matches.
func ListSavedHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		saved, err := deps.Saved.List(c.UserContext(), c.Params("owner"))
		if err != nil {
			return fromDomainError(c, "list saved matches failed", err)
		}
		return c.JSON(saved)
	}
}

// ResetSavedHandler removes all of the owner's saved matches.
func ResetSavedHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Saved.Reset(c.UserContext(), c.Params("owner")); err != nil {
			return fromDomainError(c, "reset saved matches failed", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// AddSavedHandler saves a match. Repeating the call is a no-op.
func AddSavedHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseMatchID(c.Params("matchId"))
		if err != nil {
			return errBadRequest(c, "matchId must be an integer")
		}
		if err := deps.Saved.Add(c.UserContext(), c.Params("owner"), id); err != nil {
			return fromDomainError(c, "save match failed", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RemoveSavedHandler drops a saved match and its checkout progress.
func RemoveSavedHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseMatchID(c.Params("matchId"))
		if err != nil {
			return errBadRequest(c, "matchId must be an integer")
		}
		if err := deps.Saved.Remove(c.UserContext(), c.Params("owner"), id); err != nil {
			return fromDomainError(c, "remove saved match failed", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UpdateSectionsHandler replaces the checkout progress of a saved match.
func UpdateSectionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseMatchID(c.Params("matchId"))
		if err != nil {
			return errBadRequest(c, "matchId must be an integer")
		}
		var sections domain.CompletedSections
		if err := c.BodyParser(&sections); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Saved.UpdateSections(c.UserContext(), c.Params("owner"), id, sections); err != nil {
			return fromDomainError(c, "update sections failed", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
