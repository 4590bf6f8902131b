package utils

import (
	stderrors "errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/voxel-density-service/internal/pkg/errors"
)

// SuccessResponse - конверт успешного ответа
type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// ErrorResponse - конверт ошибки
type ErrorResponse struct {
	Error *errors.AppError `json:"error"`
}

// Meta - сведения о выдаче: число ячеек, время расчета, попадание в кеш
type Meta struct {
	Total    int     `json:"total,omitempty"`
	TimeMSec float64 `json:"time_ms,omitempty"`
	Cached   bool    `json:"cached,omitempty"`
}

// ElapsedMSec - время с start в миллисекундах (с долями)
func ElapsedMSec(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

func SendSuccess(c *fiber.Ctx, data interface{}, meta *Meta) error {
	return c.JSON(SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

// SendAccepted - 202 для задач, поставленных в очередь
func SendAccepted(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusAccepted).JSON(SuccessResponse{Data: data})
}

// SendError отдает AppError с его статусом; прочие ошибки - 500 без деталей
func SendError(c *fiber.Ctx, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return c.Status(appErr.StatusCode).JSON(ErrorResponse{
			Error: appErr,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: errors.ErrInternalServer,
	})
}
