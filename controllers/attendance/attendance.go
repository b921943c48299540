package attendance

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"

	"mora-delivery/logger"
	attendanceModel "mora-delivery/models/attendance"
	"mora-delivery/types"
	"mora-delivery/utils"
)

// AttendanceController serves the courier's attendance history.
type AttendanceController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

func NewAttendanceController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *AttendanceController {
	return &AttendanceController{
		DB:     db,
		Logger: asyncLogger,
	}
}

// Helper function to send response and log in one call
func (ac *AttendanceController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	var userID *uint
	if id, err := utils.CurrentUserID(c); err == nil {
		userID = &id
	}
	ac.Logger.Log(utils.CreateSanitizedLogEntry(c, userID))
	return result
}

// History lists the current month's attendance records in half-month periods:
// period=first covers days 1-15, period=second covers day 16 to month end.
func (ac *AttendanceController) History(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Invalid user claims",
		})
	}

	period := c.Query("period", "first")
	if period != "first" && period != "second" {
		return ac.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "period must be 'first' or 'second'",
		})
	}

	monthStart := now.BeginningOfMonth()
	monthEnd := now.EndOfMonth()

	var from, to time.Time
	if period == "first" {
		from = monthStart
		to = monthStart.AddDate(0, 0, 15).Add(-time.Nanosecond)
	} else {
		from = monthStart.AddDate(0, 0, 15)
		to = monthEnd
	}

	var records []attendanceModel.Attendance
	if err := ac.DB.
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, from, to).
		Order("date DESC").
		Find(&records).Error; err != nil {
		logger.Error("Failed to query attendance history", err)
		return ac.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to load attendance history",
		})
	}

	presentDays := 0
	lateDays := 0
	for _, r := range records {
		switch r.Status {
		case attendanceModel.StatusLate:
			lateDays++
			presentDays++
		case attendanceModel.StatusPresent:
			presentDays++
		}
	}

	return ac.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Attendance history",
		Data: fiber.Map{
			"period":       period,
			"from":         from.Format("2006-01-02"),
			"to":           to.Format("2006-01-02"),
			"present_days": presentDays,
			"late_days":    lateDays,
			"records":      records,
		},
	})
}
