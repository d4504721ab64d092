package http

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mgonzalezcanudas/print3dhood/internal/core/domain"
)

// GeocodeHandler resolves a free-text address query.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		results, err := deps.Geocode.Search(c.UserContext(), query)
		if err != nil {
			return mapDomainError(c, err)
		}
		if len(results) == 0 {
			return errNotFound(c, "no matches for that address")
		}

		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{"results": results})
	}
}

// CreateModelHandler builds the layer archive and streams it back as a zip.
func CreateModelHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.ModelRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}

		filename, data, meta, err := deps.Models.BuildArchive(c.UserContext(), req)
		if err != nil {
			return mapDomainError(c, err)
		}
		LoggerFromCtx(c.UserContext()).Info("model archive built",
			"radius_m", meta.RadiusMeters,
			"buildings", meta.BuildingCount,
			"bytes", len(data),
		)

		c.Set(fiber.HeaderContentType, "application/zip")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
		c.Set("X-Building-Count", strconv.Itoa(meta.BuildingCount))
		return c.Send(data)
	}
}

// PreviewModelHandler returns metadata and 2D layer previews without meshing.
func PreviewModelHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.ModelRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}

		resp, err := deps.Models.Preview(c.UserContext(), req)
		if err != nil {
			return mapDomainError(c, err)
		}
		return c.JSON(resp)
	}
}

// mapDomainError translates pipeline errors to HTTP responses: fetch errors
// carry their own status, build errors are the caller's fault.
func mapDomainError(c *fiber.Ctx, err error) error {
	switch e := err.(type) {
	case *domain.FetchError:
		switch e.StatusCode {
		case 404:
			return errNotFound(c, e.Message)
		default:
			return newError(c, e.StatusCode, "upstream_error", e.Message)
		}
	case *domain.BuildError:
		return errBadRequest(c, e.Reason)
	default:
		return errInternal(c, err.Error())
	}
}
