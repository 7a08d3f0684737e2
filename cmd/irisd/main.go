//go:generate go run github.com/Songmu/gocredits/cmd/gocredits@v0.3.0 -w
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	configs "github.com/ai-field-tools/iris-api/pkg/configs/server"
	kpg "github.com/ai-field-tools/iris-api/pkg/db/postgres"
	"github.com/ai-field-tools/iris-api/pkg/domain/auth"
	"github.com/ai-field-tools/iris-api/pkg/domain/model"
	"github.com/ai-field-tools/iris-api/pkg/events"
	"github.com/ai-field-tools/iris-api/pkg/loop"
	"github.com/ai-field-tools/iris-api/pkg/utils/echoutil"
	"github.com/ai-field-tools/iris-api/pkg/utils/filewatch"

	"github.com/ai-field-tools/iris-api/cmd/irisd/handlers"
)

//go:embed CREDITS
var CREDITS string

func main() {

	configPath := flag.String("config-path", os.Getenv("IRISD_CONFIG"), "server config path")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	schemaRepo := flag.String("schema-repo", os.Getenv("IRIS_SCHEMA"), "schema repository path")
	plic := flag.Bool("license", false, "show licenses of dependencies")
	flag.Parse()

	if *plic {
		log.Println(CREDITS)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	conf, err := configs.LoadServerConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configuration: %s", err)
	}

	{
		// quit on config change; the supervisor restarts us with the new file.
		wctx, wcancel, err := filewatch.UntilModifyContext(ctx, *configPath)
		if err != nil {
			log.Fatalf("can not watch configuration: %s", err)
		}
		defer wcancel()
		ctx = wctx
	}

	classifier, err := model.Load(conf.Model().Path())
	if err != nil {
		log.Fatalf("can not load model artifact %s: %s", conf.Model().Path(), err)
	}

	db, err := kpg.New(ctx, conf.DBURI(), kpg.WithSchemaRepository(*schemaRepo))
	if err != nil {
		log.Fatalf("can not connect to database: %s", err)
	}
	{
		ctx_, ccan := db.Schema().Context(ctx)
		defer ccan()
		ctx = ctx_
	}

	issuer := auth.NewIssuer(
		conf.Auth().SecretKey(),
		conf.Auth().AccessTokenExpiry(),
		conf.Auth().RefreshTokenExpiry(),
	)
	throttle := auth.NewThrottle(conf.Auth().MaxLoginFailures(), conf.Auth().ThrottleWindow())

	hub := events.NewHub()
	go hub.Run(ctx)

	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	echoutil.SetLevel(e, *loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)
	e.Use(middleware.CORS())

	requireAuth := handlers.RequireAuth(issuer, db.Users(), db.Tokens())
	optionalAuth := handlers.OptionalAuth(issuer, db.Users(), db.Tokens())

	e.GET("/", handlers.RootHandler())
	e.GET("/api/health/", handlers.HealthHandler(db, classifier != nil))

	{
		e.POST("/api/predict/", handlers.PredictHandler(classifier, db.Predictions(), hub), optionalAuth)
		e.POST("/api/predict/batch/", handlers.PredictBatchHandler(classifier, db.Predictions(), hub), optionalAuth)
		e.GET("/api/model/", handlers.GetModelHandler(classifier))
		e.GET("/api/predictions/", handlers.FindPredictionHandler(db.Predictions()), requireAuth)
		e.GET("/api/events/", handlers.EventsHandler(hub))
	}

	{
		userId := "userId"
		e.POST("/api/auth/users/", handlers.RegisterUserHandler(db.Users()))
		e.GET("/api/auth/users/", handlers.FindUserHandler(db.Users()), requireAuth)
		e.PUT("/api/auth/users/password/", handlers.ChangePasswordHandler(db.Users()), requireAuth)
		e.GET("/api/auth/users/:userId/", handlers.GetUserHandler(db.Users(), userId), requireAuth)
		e.PUT("/api/auth/users/:userId/", handlers.UpdateUserHandler(db.Users(), userId), requireAuth)
		e.DELETE("/api/auth/users/:userId/", handlers.DeleteUserHandler(db.Users(), userId), requireAuth)
		e.PUT("/api/auth/users/:userId/active/", handlers.SetUserActiveHandler(db.Users(), db.Tokens(), userId, true), requireAuth)
		e.DELETE("/api/auth/users/:userId/active/", handlers.SetUserActiveHandler(db.Users(), db.Tokens(), userId, false), requireAuth)
	}

	{
		e.POST("/api/auth/login/", handlers.LoginHandler(
			db.Users(), db.Tokens(), db.Logins(), issuer, throttle,
			conf.Auth().MaxLoginFailures(), conf.Auth().LockDuration(),
		))
		e.GET("/api/auth/login/history/", handlers.GetLoginHistoryHandler(db.Logins()), requireAuth)
		e.POST("/api/auth/token/refresh/", handlers.RefreshTokenHandler(db.Users(), db.Tokens(), issuer))
		e.POST("/api/auth/logout/", handlers.LogoutHandler(db.Users(), db.Tokens(), issuer))
		e.GET("/api/auth/me/", handlers.GetMeHandler(), requireAuth)
		e.POST("/api/auth/password/reset/", handlers.RequestPasswordResetHandler(
			db.Users(), db.Resets(), conf.Auth().PasswordResetExpiry(),
		))
		e.POST("/api/auth/password/reset/confirm/", handlers.ConfirmPasswordResetHandler(
			db.Users(), db.Tokens(), db.Resets(),
		))
	}

	for _, r := range e.Routes() {
		e.Logger.Debugf("- mount handler: %s %s", strings.ToUpper(r.Method), r.Path)
	}

	// maintenance loops. each keeps its own exponential backoff while
	// the database is failing, and stops with the server context.
	purge := func(name string, every time.Duration, task func(context.Context, time.Time) (int64, error)) {
		go func() {
			_, err := loop.Start(ctx, time.Duration(0), func(ctx context.Context, backoff time.Duration) (time.Duration, loop.Next) {
				n, err := task(ctx, time.Now())
				if err != nil {
					if backoff == 0 {
						backoff = time.Second
					} else if backoff < every {
						backoff *= 2
					}
					e.Logger.Warnf("%s purge failed (retry in %s): %s", name, backoff, err)
					return backoff, loop.Continue(backoff)
				}
				if 0 < n {
					e.Logger.Infof("%s purge: %d records removed", name, n)
				}
				return 0, loop.Continue(every)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				e.Logger.Errorf("%s purge loop stopped: %s", name, err)
			}
		}()
	}
	purge("token blacklist", 15*time.Minute, db.Tokens().PurgeBlacklist)
	purge("password reset", time.Hour, db.Resets().Purge)

	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		var err error
		if cert, key := *pcert, *pkey; cert != "" && key != "" {
			err = e.StartTLS(":"+conf.Port(), cert, key)
		} else {
			err = e.Start(":" + conf.Port())
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ch <- err
		}
	}()

	exit := 0
	select {
	case <-ctx.Done():
		e.Logger.Infof("context has been done: %s, cause: %s", ctx.Err(), context.Cause(ctx))
	case err := <-ch:
		if err != nil {
			e.Logger.Error("server stops with error:", err)
			exit = 1
		}
	}

	{
		e.Logger.Info("shutting down...")
		graceful, gcancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer gcancel()
		if err := e.Shutdown(graceful); err != nil {
			e.Logger.Errorf("shutdown with error: %+v", err)
			exit = 1
		}
	}

	if err := db.Close(); err != nil {
		e.Logger.Errorf("can not close database: %s", err)
	}
	os.Exit(exit)
}
