package masterdata

import (
	"errors"

	"kensetsu-backend/internal/database"
	"kensetsu-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ClientRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	ClosingDay    int    `json:"closing_day"`
	PaymentDay    int    `json:"payment_day"`
	MonthOffset   *int   `json:"month_offset"` // pointer: 0 means same-month payment, nil means "use default"
}

// ClientUpdateRequest carries only the fields to change: a nil field is
// left untouched, same as the receivable/payable update handlers.
type ClientUpdateRequest struct {
	Name          *string `json:"name"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	ClosingDay    *int    `json:"closing_day"`
	PaymentDay    *int    `json:"payment_day"`
	MonthOffset   *int    `json:"month_offset"`
}

type ClientResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	ClosingDay    int    `json:"closing_day"`
	PaymentDay    int    `json:"payment_day"`
	MonthOffset   int    `json:"month_offset"`
}

func toClientResponse(cl *models.Client) ClientResponse {
	return ClientResponse{
		ID:            cl.ID,
		Name:          cl.Name,
		ContactPerson: cl.ContactPerson,
		Phone:         cl.Phone,
		Address:       cl.Address,
		ClosingDay:    cl.ClosingDay,
		PaymentDay:    cl.PaymentDay,
		MonthOffset:   cl.MonthOffset,
	}
}

func validateTerms(closingDay, paymentDay, monthOffset int) error {
	if closingDay < 1 || closingDay > 31 {
		return fiber.NewError(fiber.StatusBadRequest, "closing_day must be 1-31")
	}
	if paymentDay < 1 || paymentDay > 31 {
		return fiber.NewError(fiber.StatusBadRequest, "payment_day must be 1-31")
	}
	if monthOffset < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "month_offset must not be negative")
	}
	return nil
}

// -------------------------------------------------
// POST /api/clients
// -------------------------------------------------
func CreateClientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ClientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}
		// unset terms take the usual 25/25/1
		if body.ClosingDay == 0 {
			body.ClosingDay = 25
		}
		if body.PaymentDay == 0 {
			body.PaymentDay = 25
		}
		monthOffset := 1
		if body.MonthOffset != nil {
			monthOffset = *body.MonthOffset
		}
		if err := validateTerms(body.ClosingDay, body.PaymentDay, monthOffset); err != nil {
			return err
		}

		client := models.Client{
			Name:          body.Name,
			ContactPerson: body.ContactPerson,
			Phone:         body.Phone,
			Address:       body.Address,
			ClosingDay:    body.ClosingDay,
			PaymentDay:    body.PaymentDay,
			MonthOffset:   monthOffset,
		}
		if err := database.DB.Create(&client).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "a client with this name already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not create client")
		}

		return c.Status(fiber.StatusCreated).JSON(toClientResponse(&client))
	}
}

// -------------------------------------------------
// GET /api/clients
// -------------------------------------------------
func ListClientsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var clients []models.Client
		if err := database.DB.Order("name").Find(&clients).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch clients")
		}

		out := make([]ClientResponse, 0, len(clients))
		for i := range clients {
			out = append(out, toClientResponse(&clients[i]))
		}
		return c.JSON(out)
	}
}

// -------------------------------------------------
// PUT /api/clients/:id
// -------------------------------------------------
func UpdateClientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid client id")
		}

		var client models.Client
		if err := database.DB.First(&client, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "client not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not fetch client")
		}

		var body ClientUpdateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Name != nil {
			if *body.Name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
			}
			client.Name = *body.Name
		}
		if body.ContactPerson != nil {
			client.ContactPerson = *body.ContactPerson
		}
		if body.Phone != nil {
			client.Phone = *body.Phone
		}
		if body.Address != nil {
			client.Address = *body.Address
		}
		if body.ClosingDay != nil {
			client.ClosingDay = *body.ClosingDay
		}
		if body.PaymentDay != nil {
			client.PaymentDay = *body.PaymentDay
		}
		if body.MonthOffset != nil {
			client.MonthOffset = *body.MonthOffset
		}
		if err := validateTerms(client.ClosingDay, client.PaymentDay, client.MonthOffset); err != nil {
			return err
		}

		if err := database.DB.Save(&client).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "a client with this name already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not update client")
		}

		return c.JSON(toClientResponse(&client))
	}
}

// -------------------------------------------------
// DELETE /api/clients/:id
// -------------------------------------------------
func DeleteClientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid client id")
		}

		res := database.DB.Delete(&models.Client{}, "id = ?", id)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete client")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "client not found")
		}

		return c.JSON(fiber.Map{"ok": true})
	}
}
