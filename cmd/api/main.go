package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/config"
	"github.com/noah-isme/edutrack-api/internal/database"
	"github.com/noah-isme/edutrack-api/internal/handler"
	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/router"
	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/noah-isme/edutrack-api/internal/tenant"
	cloud "github.com/noah-isme/edutrack-api/pkg/cloudinary"
	"github.com/noah-isme/edutrack-api/pkg/mailer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, caching and pubsub disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to connect to nats, event publishing disabled")
		} else {
			defer natsConn.Close()
		}
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	mailService := mailer.New(mailer.Config{
		APIKey:    cfg.SendgridAPIKey,
		FromName:  cfg.AppName,
		FromEmail: cfg.MailFromAddress,
		ResetURL:  cfg.PasswordResetURL,
	}, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	deviceTokenRepo := repository.NewDeviceTokenRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classRepo := repository.NewClassRepository(db)
	examRepo := repository.NewExamRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	resultRepo := repository.NewResultRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	resolver := tenant.NewResolver(profileRepo)
	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.ResetTokenTTL)

	notificationService := service.NewNotificationService(notificationRepo, profileRepo, studentRepo, classRepo, redisClient, "edutrack", natsConn, validate, logger)
	authService := service.NewAuthService(userRepo, profileRepo, schoolRepo, approvalRepo, deviceTokenRepo, notificationService, tokens, mailService, validate, logger)
	userService := service.NewUserService(userRepo, profileRepo, approvalRepo, notificationService, validate, logger)
	schoolService := service.NewSchoolService(schoolRepo, validate, logger)
	studentService := service.NewStudentService(studentRepo, classRepo, profileRepo, validate, logger)
	subjectService := service.NewSubjectService(subjectRepo, validate, logger)
	classService := service.NewClassService(classRepo, studentRepo, subjectRepo, profileRepo, validate, logger)
	examService := service.NewExamService(examRepo, calendarRepo, classRepo, validate, logger)
	calendarService := service.NewCalendarService(calendarRepo, classRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, classRepo, subjectRepo, studentRepo, notificationService, uploader, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, studentRepo, notificationService, uploader, validate, logger)
	resultService := service.NewResultService(resultRepo, studentRepo, subjectRepo, calendarRepo, notificationService, validate, logger)
	dashboardService := service.NewDashboardService(dashboardRepo, redisClient, cfg.DashboardCacheTTL, logger)
	reportService := service.NewReportService(resultRepo, studentRepo, subjectRepo, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.MaxUploadSizeMB * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		UserHandler:         handler.NewUserHandler(userService, resolver, logger),
		SchoolHandler:       handler.NewSchoolHandler(schoolService, resolver, logger),
		StudentHandler:      handler.NewStudentHandler(studentService, resolver, logger),
		SubjectHandler:      handler.NewSubjectHandler(subjectService, resolver, logger),
		ClassHandler:        handler.NewClassHandler(classService, resolver, logger),
		ExamHandler:         handler.NewExamHandler(examService, resolver, logger),
		CalendarHandler:     handler.NewCalendarHandler(calendarService, resolver, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, resolver, logger),
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, resolver, logger),
		ResultHandler:       handler.NewResultHandler(resultService, resolver, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, resolver, logger),
		DashboardHandler:    handler.NewDashboardHandler(dashboardService, resolver, logger),
		ReportHandler:       handler.NewReportHandler(reportService, resolver, logger),
		JWTMiddleware:       middleware.JWTProtected(tokens),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
