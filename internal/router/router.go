package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"geoattendance/backend/foundation/web"
	"geoattendance/backend/internal/auth"
	"geoattendance/backend/internal/entity"
	"geoattendance/backend/internal/middleware"
	"geoattendance/backend/internal/pkg/lock"
	"geoattendance/backend/internal/pkg/repository/postgresql"
	"geoattendance/backend/internal/repository/postgres/attendance"
	"geoattendance/backend/internal/repository/postgres/user"
	"geoattendance/backend/internal/service/account"
	"geoattendance/backend/internal/service/ledger"
	"geoattendance/backend/internal/service/report"

	attendance_controller "geoattendance/backend/internal/controller/http/v1/attendance"
	auth_controller "geoattendance/backend/internal/controller/http/v1/auth"
	user_controller "geoattendance/backend/internal/controller/http/v1/user"
)

// Options carries the settings the routes depend on.
type Options struct {
	Env            string
	AllowedOrigins []string
	Policy         ledger.Policy
	// LockTTL bounds how long a crashed instance can hold a user's
	// attendance lock in Redis.
	LockTTL time.Duration
	// LockWait is how long a request waits for a busy user lock.
	LockWait time.Duration
}

type Router struct {
	*web.App
	postgresDB *postgresql.Database
	redisDB    *redis.Client
	auth       *auth.Auth
	opts       Options
}

// NewRouter builds the router. A nil redisDB keeps the attendance lock
// in-process.
func NewRouter(
	app *web.App,
	postgresDB *postgresql.Database,
	redisDB *redis.Client,
	auth *auth.Auth,
	opts Options,
) *Router {
	return &Router{
		App:        app,
		postgresDB: postgresDB,
		redisDB:    redisDB,
		auth:       auth,
		opts:       opts,
	}
}

func (r Router) locker() lock.Locker {
	if r.redisDB == nil {
		return lock.NewLocal(r.opts.LockWait)
	}
	return lock.NewRedis(r.redisDB, r.opts.LockTTL, r.opts.LockWait)
}

// Init wires repositories, services and controllers and registers every
// route. It returns the account service so callers can seed accounts.
func (r Router) Init() *account.Service {
	log := r.Log()

	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(log),
		middleware.Metrics(),
		middleware.CORSMiddleware(r.opts.AllowedOrigins),
	)

	// - postgresql
	userPostgres := user.NewRepository(r.postgresDB)
	attendancePostgres := attendance.NewRepository(r.postgresDB)

	// service
	accountService := account.NewService(userPostgres, r.auth, log)
	ledgerService := ledger.New(attendancePostgres, r.locker(), r.opts.Policy, log)
	formatter := report.NewFormatter(r.opts.Policy.Location)

	// controller
	authController := auth_controller.NewController(accountService)
	userController := user_controller.NewController(accountService)
	attendanceController := attendance_controller.NewController(ledgerService, accountService, formatter, r.opts.Policy.Location)

	authenticate := func(roles ...entity.Role) web.Middleware {
		return middleware.Authenticate(r.auth, accountService, roles...)
	}

	r.Get("/health", r.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// #auth
	r.Post("/api/auth/signup", authController.Signup)
	r.Post("/api/auth/login", authController.SignIn)
	r.Post("/api/auth/login-employee", authController.SignInEmployee)
	r.Get("/api/auth/me", authController.Me, authenticate())

	// #attendance
	r.Post("/api/attendance/check-in", attendanceController.CheckIn, authenticate())
	r.Post("/api/attendance/check-out", attendanceController.CheckOut, authenticate())
	r.Get("/api/attendance/status", attendanceController.Status, authenticate())
	r.Get("/api/attendance/me", attendanceController.GetMyHistory, authenticate())

	// #admin
	r.Get("/api/admin/employees", userController.GetList, authenticate(entity.RoleAdmin))
	r.Post("/api/admin/employees", userController.Create, authenticate(entity.RoleAdmin))
	r.Patch("/api/admin/employees/:id", userController.UpdateColumns, authenticate(entity.RoleAdmin))
	r.Delete("/api/admin/employees/:id", userController.Deactivate, authenticate(entity.RoleAdmin))
	r.Patch("/api/admin/employees/:id/activate", userController.Activate, authenticate(entity.RoleAdmin))
	r.Get("/api/admin/employees/:id/qrcode", userController.GetQrCode, authenticate(entity.RoleAdmin))

	r.Get("/api/admin/attendance", attendanceController.GetList, authenticate(entity.RoleAdmin))
	r.Get("/api/admin/attendance/export/excel", attendanceController.ExportExcel, authenticate(entity.RoleAdmin))
	r.Get("/api/admin/attendance/export/pdf", attendanceController.ExportPDF, authenticate(entity.RoleAdmin))

	return accountService
}

func (r Router) health(c *web.Context) error {
	return c.Respond(map[string]interface{}{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": r.opts.Env,
	}, http.StatusOK)
}
