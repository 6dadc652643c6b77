package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	pgRepo "github.com/harborworks/teamhq/auth-service/internal/adapters/db/postgres"
	redisRepo "github.com/harborworks/teamhq/auth-service/internal/adapters/db/redis"
	mailAdapter "github.com/harborworks/teamhq/auth-service/internal/adapters/mail"
	httpTransport "github.com/harborworks/teamhq/auth-service/internal/adapters/transport/http"
	httpmw "github.com/harborworks/teamhq/auth-service/internal/adapters/transport/http/middleware"
	"github.com/harborworks/teamhq/auth-service/internal/app/auth/password"
	authsvc "github.com/harborworks/teamhq/auth-service/internal/app/auth/service"
	"github.com/harborworks/teamhq/auth-service/internal/app/auth/session"
	apptoken "github.com/harborworks/teamhq/auth-service/internal/app/auth/token"
	usersvc "github.com/harborworks/teamhq/auth-service/internal/app/user/service"
	domainmail "github.com/harborworks/teamhq/auth-service/internal/domain/auth/mail"
	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/repo"
	"github.com/harborworks/teamhq/auth-service/internal/infra/config"
	lg "github.com/harborworks/teamhq/auth-service/internal/infra/log"
	"github.com/harborworks/teamhq/auth-service/internal/infra/migrate"
)

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(gormpostgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	validate := validator.New()
	_ = validate.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		pwd := fl.Field().String()
		var hasUpper, hasDigit bool
		for _, r := range pwd {
			if unicode.IsUpper(r) {
				hasUpper = true
			}
			if unicode.IsDigit(r) {
				hasDigit = true
			}
		}
		return utf8.RuneCountInString(pwd) >= 8 && hasUpper && hasDigit
	})

	codec, err := apptoken.NewHMACCodec(cfg)
	if err != nil {
		zapLog.Fatal("failed to init token codec", zap.Error(err))
	}
	issuer := session.NewIssuer(codec, cfg)
	hasher := password.NewHasher(cfg.PasswordPepper)

	userRepo := pgRepo.NewUserRepo(db)
	accountRepo := pgRepo.NewAccountRepo(db)
	roleRepo := pgRepo.NewRoleRepo(db)
	invitationRepo := pgRepo.NewInvitationRepo(db)

	var tokenRepo repo.TokenRepo
	if cfg.TokenStore == "redis" {
		redisCli := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisCli.Close()
		tokenRepo = redisRepo.NewTokenRepo(redisCli)
	} else {
		tokenRepo = pgRepo.NewTokenRepo(db)
	}

	var mailer domainmail.Mailer
	if cfg.MailerDriver == "smtp" {
		mailer = mailAdapter.NewSMTPMailer(cfg)
	} else {
		mailer = mailAdapter.NewLogMailer(zapLog)
	}

	authService := authsvc.New(userRepo, accountRepo, roleRepo, codec, issuer, hasher, mailer, cfg, validate)
	userService := usersvc.New(userRepo, accountRepo, roleRepo, invitationRepo, tokenRepo, codec, hasher, mailer, cfg, validate)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestLogger(zapLog))
	router.Use(httpmw.RateLimitPerIP(50, 100, 10_000, time.Hour))

	corsConfig := cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	handler := httpTransport.NewHandler(authService, userService, issuer, cfg.FederatedGatewaySecret, zapLog)
	handler.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: router}
	rootCtx, cancel := context.WithCancel(context.Background())
	g, _ := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutdown signal received")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}
	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
