package routes

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"mora-delivery/constants"
	attendanceController "mora-delivery/controllers/attendance"
	"mora-delivery/controllers/auth"
	shiftController "mora-delivery/controllers/shift"
	"mora-delivery/logger"
	"mora-delivery/middleware"
	"mora-delivery/services/manifest"
	"mora-delivery/services/proofstore"
	"mora-delivery/services/scanner"
	shiftService "mora-delivery/services/shift"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	asyncLogger := logger.NewAsyncLogger(db)

	sessions := shiftService.NewManager(os.Getenv("SHIFT_START"))
	classifier := manifest.NewMockClassifier(time.Now().UnixNano())
	barcodeScanner := scanner.New(scanner.NewSimulatedSource(2*time.Second, time.Now().UnixNano()))

	var proofs proofstore.Store
	if s3, err := proofstore.NewS3Store(); err == nil {
		if err := s3.EnsureBucket(context.Background()); err != nil {
			logger.Warning("Proof bucket unavailable, storing proofs in memory: " + err.Error())
			proofs = proofstore.NewMemoryStore()
		} else {
			proofs = s3
		}
	} else {
		logger.Warning("Proof storage falling back to memory: " + err.Error())
		proofs = proofstore.NewMemoryStore()
	}

	authController := auth.NewAuthController(db, asyncLogger)
	shiftCtrl := shiftController.NewShiftController(db, sessions, barcodeScanner, classifier, proofs, asyncLogger)
	attendanceCtrl := attendanceController.NewAttendanceController(db, asyncLogger)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	// Index route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "mora-delivery",
			"status":  "ok",
		})
	})

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	api := app.Group("/api")
	api.Post("/login", authController.Login)
	api.Get("/profile", middleware.RequireAuthentication(), authController.Profile)

	/*=============================================================================
	| Shift Workflow Routes
	===============================================================================*/
	shiftGroup := api.Group("/shift").Use(middleware.RequireRoles(constants.RoleCourier))

	shiftGroup.Get("/", shiftCtrl.State)
	shiftGroup.Post("/check-in", shiftCtrl.CheckIn)
	shiftGroup.Post("/plan", shiftCtrl.SubmitPlan)
	shiftGroup.Post("/plan/parse-slip", shiftCtrl.ParseLoadSheet)
	shiftGroup.Post("/scan", shiftCtrl.Scan)
	shiftGroup.Post("/scan/simulate", shiftCtrl.SimulateScan)
	shiftGroup.Delete("/scan", shiftCtrl.CancelScan)
	shiftGroup.Get("/reconciliation", shiftCtrl.Reconciliation)
	shiftGroup.Post("/start-delivery", shiftCtrl.StartDelivery)
	shiftGroup.Get("/packages/:tracking", shiftCtrl.LookupPackage)
	shiftGroup.Get("/packages/:tracking/links", shiftCtrl.PackageLinks)
	shiftGroup.Post("/packages/:tracking/deliver", shiftCtrl.Deliver)
	shiftGroup.Get("/packages/:tracking/proof", shiftCtrl.Proof)
	shiftGroup.Post("/finish-delivery", shiftCtrl.FinishDelivery)
	shiftGroup.Post("/packages/:tracking/return", shiftCtrl.Return)
	shiftGroup.Post("/end", shiftCtrl.EndShift)
	shiftGroup.Get("/performance", shiftCtrl.Performance)

	/*=============================================================================
	| Attendance Routes
	===============================================================================*/
	attendanceGroup := api.Group("/attendance").Use(middleware.RequireRoles(constants.RoleCourier))
	attendanceGroup.Get("/history", attendanceCtrl.History)
}
