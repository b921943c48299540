package shift

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"mora-delivery/logger"
	attendanceModel "mora-delivery/models/attendance"
	pkgModel "mora-delivery/models/pkg"
	shiftModel "mora-delivery/models/shift"
	"mora-delivery/services/manifest"
	"mora-delivery/services/proofstore"
	"mora-delivery/services/scanner"
	shiftService "mora-delivery/services/shift"
	"mora-delivery/services/shift_event"
	"mora-delivery/types"
	shiftTypes "mora-delivery/types/shift"
	"mora-delivery/utils"
)

// ShiftController adapts the courier shift workflow to HTTP requests. Session
// state is never touched directly: every read and mutation runs inside
// Sessions.Do, which serializes concurrent requests for the same courier, and
// anything needed for the response is copied out under that lock.
type ShiftController struct {
	DB         *gorm.DB
	Sessions   *shiftService.Manager
	Scanner    *scanner.Scanner
	Classifier manifest.Classifier
	Proofs     proofstore.Store
	Logger     *logger.AsyncLogger
}

func NewShiftController(db *gorm.DB, sessions *shiftService.Manager, sc *scanner.Scanner,
	classifier manifest.Classifier, proofs proofstore.Store, asyncLogger *logger.AsyncLogger) *ShiftController {
	return &ShiftController{
		DB:         db,
		Sessions:   sessions,
		Scanner:    sc,
		Classifier: classifier,
		Proofs:     proofs,
		Logger:     asyncLogger,
	}
}

// Helper function to send response and log in one call
func (sc *ShiftController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	var userID *uint
	if id, err := utils.CurrentUserID(c); err == nil {
		userID = &id
	}
	sc.Logger.Log(utils.CreateSanitizedLogEntry(c, userID))
	return result
}

// failWorkflow maps core workflow errors onto non-fatal HTTP responses. A 409
// with a confirmation payload means the client must repeat the request with
// confirmed=true; everything else is a blocking validation notice.
func (sc *ShiftController) failWorkflow(c *fiber.Ctx, err error) error {
	var confirmErr *shiftService.ConfirmationRequiredError
	if errors.As(err, &confirmErr) {
		data := fiber.Map{"action": confirmErr.Action, "confirmation_required": true}
		if confirmErr.Reconciliation != nil {
			data["reconciliation"] = confirmErr.Reconciliation
		}
		return sc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: confirmErr.Message,
			Data:    data,
		})
	}

	var phaseErr *shiftService.PhaseError
	if errors.As(err, &phaseErr) {
		return sc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: phaseErr.Error(),
		})
	}

	status := fiber.StatusBadRequest
	switch {
	case errors.Is(err, shiftService.ErrNotInManifest):
		status = fiber.StatusNotFound
	case errors.Is(err, shiftService.ErrDuplicateScan),
		errors.Is(err, shiftService.ErrAlreadyDelivered),
		errors.Is(err, shiftService.ErrAlreadyReturned),
		errors.Is(err, shiftService.ErrPackagesOutstanding):
		status = fiber.StatusConflict
	}
	return sc.sendResponseWithLog(c, status, types.ApiResponse{
		Status:  status,
		Message: err.Error(),
	})
}

func (sc *ShiftController) snapshotEvent(c *fiber.Ctx, s *shiftService.Session, eventType, tracking string) {
	if err := shift_event.Snapshot(sc.DB, s, eventType, tracking, utils.CurrentUsername(c)); err != nil {
		logger.Error(fmt.Sprintf("Failed to write shift event (%s)", eventType), err)
	}
}

// CheckIn opens the courier's shift and records attendance.
func (sc *ShiftController) CheckIn(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return sc.unauthorized(c)
	}

	var rec attendanceModel.Attendance
	var phase shiftService.Phase
	err = sc.Sessions.Do(userID, func(s *shiftService.Session) error {
		r, err := s.CheckIn()
		if err != nil {
			return err
		}
		rec = *r
		phase = s.Phase
		sc.snapshotEvent(c, s, "checked_in", "")
		return nil
	})
	if err != nil {
		return sc.failWorkflow(c, err)
	}

	if err := sc.DB.Create(&rec).Error; err != nil {
		logger.Error("Failed to persist attendance record", err)
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Checked in. Shift planning open.",
		Data: fiber.Map{
			"phase":      phase,
			"attendance": rec,
		},
	})
}

// State reports the live shift: phase, manifest summary, package list and
// progress counters.
func (sc *ShiftController) State(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return sc.unauthorized(c)
	}

	var data fiber.Map
	_ = sc.Sessions.Do(userID, func(s *shiftService.Session) error {
		counts := s.CountByStatus()
		packages := make([]pkgModel.Package, 0, len(s.Packages))
		for _, p := range s.Packages {
			packages = append(packages, *p)
		}
		var att *attendanceModel.Attendance
		if s.Attendance != nil {
			cp := *s.Attendance
			att = &cp
		}
		data = fiber.Map{
			"phase":      s.Phase,
			"summary":    s.Summary,
			"packages":   packages,
			"attendance": att,
			"counters": fiber.Map{
				"loaded":    counts[pkgModel.StatusLoaded],
				"delivered": counts[pkgModel.StatusDelivered],
				"failed":    counts[pkgModel.StatusFailed],
				"returned":  counts[pkgModel.StatusReturned],
				"remaining": len(s.Outstanding()),
			},
		}
		return nil
	})

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Current shift state",
		Data:    data,
	})
}

// SubmitPlan freezes the declared manifest totals and moves to loading.
// Negative counts are coerced to zero by the core; only a zero total blocks.
func (sc *ShiftController) SubmitPlan(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return sc.unauthorized(c)
	}

	var req shiftTypes.PlanRequest
	if err := c.BodyParser(&req); err != nil {
		// Non-numeric input coerces to an empty plan rather than failing hard.
		req = shiftTypes.PlanRequest{}
	}

	var phase shiftService.Phase
	var summary shiftService.Summary
	err = sc.Sessions.Do(userID, func(s *shiftService.Session) error {
		if err := s.SubmitPlan(req.TotalCod, req.TotalNonCod); err != nil {
			return err
		}
		phase = s.Phase
		summary = s.Summary
		sc.snapshotEvent(c, s, "plan_confirmed", "")
		return nil
	})
	if err != nil {
		return sc.failWorkflow(c, err)
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Manifest declared. Start scanning packages.",
		Data: fiber.Map{
			"phase":   phase,
			"summary": summary,
		},
	})
}

// Scan ingests a manually entered tracking number during loading.
func (sc *ShiftController) Scan(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return sc.unauthorized(c)
	}

	var req shiftTypes.ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := req.Validate(); err != nil {
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	return sc.ingestScan(c, userID, req.TrackingNumber)
}

// SimulateScan drives the scanner collaborator: begins one pending scan,
// waits for the produced code and ingests it like any other scan.
func (sc *ShiftController) SimulateScan(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return sc.unauthorized(c)
	}

	code, err := sc.Scanner.Begin(c.Context())
	if err != nil {
		if errors.Is(err, scanner.ErrScanInProgress) {
			return sc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
				Status:  fiber.StatusConflict,
				Message: err.Error(),
			})
		}
		// Cancelled scans end quietly with no state change.
		return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
			Status:  fiber.StatusOK,
			Message: "Scan cancelled",
		})
	}

	return sc.ingestScan(c, userID, code)
}

// CancelScan aborts the pending scan, if any.
func (sc *ShiftController) CancelScan(c *fiber.Ctx) error {
	sc.Scanner.Cancel()
	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Scan cancelled",
	})
}

func (sc *ShiftController) ingestScan(c *fiber.Ctx, userID uint, code string) error {
	var scanned pkgModel.Package
	var loaded, declared int
	err := sc.Sessions.Do(userID, func(s *shiftService.Session) error {
		p, err := s.Scan(code, sc.Classifier)
		if err != nil {
			return err
		}
		scanned = *p
		rec := s.Reconcile()
		loaded, declared = rec.Loaded, rec.Declared
		sc.snapshotEvent(c, s, "package_scanned", p.TrackingNumber)
		return nil
	})
	if err != nil {
		return sc.failWorkflow(c, err)
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: fmt.Sprintf("Package %s loaded", scanned.TrackingNumber),
		Data: fiber.Map{
			"package":  scanned,
			"loaded":   loaded,
			"declared": declared,
		},
	})
}

// Reconciliation previews the loaded-vs-declared classification without
// transitioning.
func (sc *ShiftController) Reconciliation(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return sc.unauthorized(c)
	}

	var rec shiftService.Reconciliation
	_ = sc.Sessions.Do(userID, func(s *shiftService.Session) error {
		rec = s.Reconcile()
		return nil
	})

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: rec.Message,
		Data:    rec,
	})
}

// StartDelivery ends loading. Requires confirmed=true; the unconfirmed
// request answers with the reconciliation prompt.
func (sc *ShiftController) StartDelivery(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return sc.unauthorized(c)
	}

	var req shiftTypes.ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		req = shiftTypes.ConfirmRequest{}
	}

	var phase shiftService.Phase
	var rec shiftService.Reconciliation
	err = sc.Sessions.Do(userID, func(s *shiftService.Session) error {
		r, err := s.StartDelivery(req.Confirmed)
		if err != nil {
			return err
		}
		phase = s.Phase
		rec = *r
		sc.snapshotEvent(c, s, "delivery_started", "")
		return nil
	})
	if err != nil {
		return sc.failWorkflow(c, err)
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Delivery round started",
		Data: fiber.Map{
			"phase":          phase,
			"reconciliation": rec,
		},
	})
}

// LookupPackage finds a package for delivery processing by tracking number.
func (sc *ShiftController) LookupPackage(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return sc.unauthorized(c)
	}

	var found pkgModel.Package
	err = sc.Sessions.Do(userID, func(s *shiftService.Session) error {
		p, err := s.Find(c.Params("tracking"))
		if err != nil {
			return err
		}
		found = *p
		return nil
	})
	if err != nil {
		return sc.failWorkflow(c, err)
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Package found",
		Data:    found,
	})
}

// PackageLinks builds the messaging and navigation deep links for a package.
// Opening them is the client's fire-and-forget side effect.
func (sc *ShiftController) PackageLinks(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return sc.unauthorized(c)
	}

	var whatsapp, maps string
	err = sc.Sessions.Do(userID, func(s *shiftService.Session) error {
		p, err := s.Find(c.Params("tracking"))
		if err != nil {
			return err
		}
		whatsapp = p.WhatsAppLink()
		maps = p.MapsLink()
		return nil
	})
	if err != nil {
		return sc.failWorkflow(c, err)
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "External links",
		Data: fiber.Map{
			"whatsapp": whatsapp,
			"maps":     maps,
		},
	})
}

// Deliver captures completion evidence and marks the package delivered. The
// proof photo is stored first; its object key becomes the package's proof
// reference. The package is validated before paying for the upload, and the
// completion call revalidates after it.
func (sc *ShiftController) Deliver(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return sc.unauthorized(c)
	}

	var req shiftTypes.DeliverRequest
	if err := c.BodyParser(&req); err != nil {
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := req.Validate(); err != nil {
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	tracking := shiftService.NormalizeTrackingNumber(c.Params("tracking"))

	var shiftDate string
	err = sc.Sessions.Do(userID, func(s *shiftService.Session) error {
		if _, err := s.Find(tracking); err != nil {
			return err
		}
		if s.Attendance != nil {
			shiftDate = s.Attendance.Date.Format("2006-01-02")
		}
		return nil
	})
	if err != nil {
		return sc.failWorkflow(c, err)
	}

	imageBytes, contentType, err := decodeProofImage(req.ProofImage)
	if err != nil {
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "proof_image must be base64-encoded image data",
		})
	}

	objectKey := fmt.Sprintf("proofs/%s/%s", shiftDate, tracking)
	proofRef, err := sc.Proofs.Save(c.Context(), objectKey, imageBytes, contentType)
	if err != nil {
		logger.Error("Failed to store proof image", err)
		return sc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to store proof image",
		})
	}

	var delivered pkgModel.Package
	err = sc.Sessions.Do(userID, func(s *shiftService.Session) error {
		p, err := s.CompleteDelivery(tracking, proofRef, req.ReceivedBy)
		if err != nil {
			return err
		}
		delivered = *p
		sc.snapshotEvent(c, s, "package_delivered", p.TrackingNumber)
		return nil
	})
	if err != nil {
		return sc.failWorkflow(c, err)
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: fmt.Sprintf("Package %s delivered to %s", delivered.TrackingNumber, req.ReceivedBy),
		Data:    delivered,
	})
}

// Proof streams back the stored proof-of-delivery photo for a delivered
// package.
func (sc *ShiftController) Proof(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return sc.unauthorized(c)
	}

	tracking := shiftService.NormalizeTrackingNumber(c.Params("tracking"))
	var proofRef string
	_ = sc.Sessions.Do(userID, func(s *shiftService.Session) error {
		for _, p := range s.Packages {
			if p.TrackingNumber == tracking && p.ProofImage != nil {
				proofRef = *p.ProofImage
				break
			}
		}
		return nil
	})
	if proofRef == "" {
		return sc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "No proof image recorded for this package",
		})
	}

	data, contentType, err := sc.Proofs.Load(c.Context(), proofRef)
	if err != nil {
		logger.Error("Failed to load proof image", err)
		return sc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "Proof image not found",
		})
	}

	if contentType == "" {
		contentType = "image/jpeg"
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Status(fiber.StatusOK).Send(data)
}

// FinishDelivery ends the delivery round and opens return processing. Always
// requires confirmation.
func (sc *ShiftController) FinishDelivery(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return sc.unauthorized(c)
	}

	var req shiftTypes.ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		req = shiftTypes.ConfirmRequest{}
	}

	var phase shiftService.Phase
	var remaining []pkgModel.Package
	err = sc.Sessions.Do(userID, func(s *shiftService.Session) error {
		if err := s.FinishDelivery(req.Confirmed); err != nil {
			return err
		}
		phase = s.Phase
		for _, p := range s.Outstanding() {
			remaining = append(remaining, *p)
		}
		sc.snapshotEvent(c, s, "delivery_finished", "")
		return nil
	})
	if err != nil {
		return sc.failWorkflow(c, err)
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Delivery round closed. Process remaining packages.",
		Data: fiber.Map{
			"phase":     phase,
			"remaining": remaining,
		},
	})
}

// Return hands an undelivered package back to depot custody.
func (sc *ShiftController) Return(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return sc.unauthorized(c)
	}

	var req shiftTypes.ReturnRequest
	if err := c.BodyParser(&req); err != nil {
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := req.Validate(); err != nil {
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	var returned pkgModel.Package
	err = sc.Sessions.Do(userID, func(s *shiftService.Session) error {
		p, err := s.CompleteReturn(c.Params("tracking"), req.StaffName)
		if err != nil {
			return err
		}
		returned = *p
		sc.snapshotEvent(c, s, "package_returned", p.TrackingNumber)
		return nil
	})
	if err != nil {
		return sc.failWorkflow(c, err)
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: fmt.Sprintf("Package %s returned to depot", returned.TrackingNumber),
		Data:    returned,
	})
}

// EndShift terminates the shift once every package is terminal, archives the
// closing snapshot and clears the session.
func (sc *ShiftController) EndShift(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return sc.unauthorized(c)
	}

	var closed *shiftService.Closed
	var phase shiftService.Phase
	err = sc.Sessions.Do(userID, func(s *shiftService.Session) error {
		var err error
		closed, err = s.EndShift()
		if err != nil {
			return err
		}
		phase = s.Phase
		sc.snapshotEvent(c, s, "shift_closed", "")
		return nil
	})
	if err != nil {
		return sc.failWorkflow(c, err)
	}

	// The closing snapshot is detached from the session; archiving it needs
	// no lock.
	if err := sc.archiveShift(userID, closed); err != nil {
		logger.Error("Failed to archive closed shift", err)
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Shift complete. Thank you for your hard work!",
		Data: fiber.Map{
			"phase":     phase,
			"closed_at": closed.ClosedAt,
		},
	})
}

// Performance reports the live shift's delivered vs returned/failed tallies.
func (sc *ShiftController) Performance(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return sc.unauthorized(c)
	}

	var delivered, returned int
	_ = sc.Sessions.Do(userID, func(s *shiftService.Session) error {
		counts := s.CountByStatus()
		delivered = counts[pkgModel.StatusDelivered]
		returned = counts[pkgModel.StatusReturned] + counts[pkgModel.StatusFailed]
		return nil
	})

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Shift performance",
		Data: fiber.Map{
			"delivered": delivered,
			"returned":  returned,
		},
	})
}

func (sc *ShiftController) archiveShift(userID uint, closed *shiftService.Closed) error {
	var attendanceID string
	if closed.Attendance != nil {
		attendanceID = closed.Attendance.ID
		if err := sc.DB.Model(&attendanceModel.Attendance{}).
			Where("id = ?", attendanceID).
			Update("check_out", closed.Attendance.CheckOut).Error; err != nil {
			logger.Error("Failed to record attendance check-out", err)
		}
	}

	archive := shiftModel.Archive{
		UserID:        userID,
		AttendanceID:  attendanceID,
		TotalCod:      closed.Summary.TotalCod,
		TotalNonCod:   closed.Summary.TotalNonCod,
		TotalPackages: closed.Summary.TotalPackages,
		LoadedCount:   len(closed.Packages),
		ClosedAt:      closed.ClosedAt,
	}
	for _, p := range closed.Packages {
		switch p.Status {
		case pkgModel.StatusDelivered:
			archive.DeliveredCount++
		case pkgModel.StatusReturned:
			archive.ReturnedCount++
		}
		archive.Packages = append(archive.Packages, *p)
	}

	return sc.DB.Create(&archive).Error
}

func (sc *ShiftController) unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
		Status:  fiber.StatusUnauthorized,
		Message: "Invalid user claims",
	})
}

// decodeProofImage accepts raw base64 or a data URI and returns the image
// bytes plus content type.
func decodeProofImage(encoded string) ([]byte, string, error) {
	contentType := "image/jpeg"
	if strings.HasPrefix(encoded, "data:") {
		parts := strings.SplitN(encoded, ",", 2)
		if len(parts) != 2 {
			return nil, "", fmt.Errorf("malformed data URI")
		}
		meta := strings.TrimPrefix(parts[0], "data:")
		if idx := strings.Index(meta, ";"); idx >= 0 {
			if mime := meta[:idx]; mime != "" {
				contentType = mime
			}
		}
		encoded = parts[1]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}
