// Package web translates HTTP requests into shop operations.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"shopfront/ent"
	"shopfront/shop"
)

func New(catalog *shop.Catalog, ledger *shop.Ledger) *fiber.App {
	app := fiber.New()

	app.Use(recover.New(), logger.New(), cors.New())

	app.Get("/products", func(ctx *fiber.Ctx) error {
		ps, err := catalog.List(ctx.Context())
		if err != nil {
			return err
		}

		return ctx.JSON(ps)
	})

	app.Get("/product/:id", func(ctx *fiber.Ctx) error {
		id, err := parseID(ctx)
		if err != nil {
			return err
		}

		p, err := catalog.Get(ctx.Context(), id)
		if errors.Is(err, shop.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		if err != nil {
			return err
		}

		return ctx.JSON(p)
	})

	app.Post("/product", func(ctx *fiber.Ctx) error {
		var in struct {
			Name     string `json:"name"`
			Price    int64  `json:"price"`
			Quantity int64  `json:"quantity"`
		}

		err := json.Unmarshal(ctx.Body(), &in)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if in.Name == "" || in.Price < 0 || in.Quantity < 0 {
			return fiber.NewError(http.StatusBadRequest, "invalid product")
		}

		id, err := catalog.Insert(ctx.Context(), in.Name, in.Price, in.Quantity)
		if errors.Is(err, shop.ErrConflict) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		if err != nil {
			return err
		}

		return ctx.JSON(fiber.Map{"product_id": id})
	})

	app.Put("/product/:id", func(ctx *fiber.Ctx) error {
		id, err := parseID(ctx)
		if err != nil {
			return err
		}

		var patch ent.ProductPatch

		err = json.Unmarshal(ctx.Body(), &patch)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		err = catalog.Update(ctx.Context(), id, patch)
		if errors.Is(err, shop.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		if err != nil {
			return err
		}

		return ctx.SendStatus(http.StatusOK)
	})

	app.Delete("/product/:id", func(ctx *fiber.Ctx) error {
		id, err := parseID(ctx)
		if err != nil {
			return err
		}

		err = catalog.Delete(ctx.Context(), id)
		if errors.Is(err, shop.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		if err != nil {
			return err
		}

		return ctx.SendStatus(http.StatusOK)
	})

	app.Post("/buy/:id", func(ctx *fiber.Ctx) error {
		id, err := parseID(ctx)
		if err != nil {
			return err
		}

		var in struct {
			CustomerID string `json:"customer_id"`
			Quantity   int64  `json:"quantity"`
		}

		err = json.Unmarshal(ctx.Body(), &in)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if in.Quantity <= 0 {
			return fiber.NewError(http.StatusBadRequest, "quantity must be positive")
		}

		// Rejections are deliberately not surfaced: an unknown product or
		// insufficient stock answers 200 with no purchase recorded.
		_, err = ledger.Buy(ctx.Context(), id, in.CustomerID, in.Quantity)
		if err != nil {
			return err
		}

		return ctx.SendStatus(http.StatusOK)
	})

	app.Get("/generate_id", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"customer_id": shop.NewCustomerID()})
	})

	app.Get("/purchases", func(ctx *fiber.Ctx) error {
		ps, err := ledger.Purchases(ctx.Context())
		if err != nil {
			return err
		}

		return ctx.JSON(ps)
	})

	app.Get("/search/:name", func(ctx *fiber.Ctx) error {
		ps, err := catalog.SearchByName(ctx.Context(), ctx.Params("name"))
		if err != nil {
			return err
		}
		if len(ps) == 0 {
			return fiber.NewError(http.StatusNotFound, "no products found")
		}

		return ctx.JSON(ps)
	})

	return app
}

func parseID(ctx *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return id, nil
}
