// Package main library API.
//
// @title           Library Management API
// @version         1.0
// @description     Library backend: catalog, borrowing with fines, purchasing with installments.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/OMARxKHALID/LMS-server/app/echoServer"
	bookctrl "github.com/OMARxKHALID/LMS-server/app/echoServer/controller/book"
	borrowctrl "github.com/OMARxKHALID/LMS-server/app/echoServer/controller/borrow"
	earningsctrl "github.com/OMARxKHALID/LMS-server/app/echoServer/controller/earnings"
	installmentctrl "github.com/OMARxKHALID/LMS-server/app/echoServer/controller/installment"
	purchasectrl "github.com/OMARxKHALID/LMS-server/app/echoServer/controller/purchase"
	transactionctrl "github.com/OMARxKHALID/LMS-server/app/echoServer/controller/transaction"
	"github.com/OMARxKHALID/LMS-server/app/echoServer/validation"
	"github.com/OMARxKHALID/LMS-server/config"
	bookrepo "github.com/OMARxKHALID/LMS-server/repository/book"
	borrowrepo "github.com/OMARxKHALID/LMS-server/repository/borrow"
	earningsrepo "github.com/OMARxKHALID/LMS-server/repository/earnings"
	installmentrepo "github.com/OMARxKHALID/LMS-server/repository/installment"
	transactionrepo "github.com/OMARxKHALID/LMS-server/repository/transaction"
	userrepo "github.com/OMARxKHALID/LMS-server/repository/user"
	booksvc "github.com/OMARxKHALID/LMS-server/service/book"
	borrowsvc "github.com/OMARxKHALID/LMS-server/service/borrow"
	earningssvc "github.com/OMARxKHALID/LMS-server/service/earnings"
	installmentsvc "github.com/OMARxKHALID/LMS-server/service/installment"
	purchasesvc "github.com/OMARxKHALID/LMS-server/service/purchase"
	"github.com/OMARxKHALID/LMS-server/util/cache"
	"github.com/OMARxKHALID/LMS-server/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// earnings cache, optional
	var earningsCache earningssvc.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, earnings cache disabled", "err", err)
		} else {
			earningsCache = cache.New(rdb)
		}
	}

	// repos
	br := bookrepo.New(db)
	ur := userrepo.New(db)
	bor := borrowrepo.New(db)
	tr := transactionrepo.New(db)
	ir := installmentrepo.New(db)
	er := earningsrepo.New(db)

	// services
	bs := booksvc.New(br)
	bos := borrowsvc.New(bor, br, ur)
	ps := purchasesvc.New(tr, br, ur)
	is := installmentsvc.New(ir)
	es := earningssvc.New(er, earningsCache)

	// controllers
	v := validator.New()
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	borrowC := &borrowctrl.Controller{Svc: bos, V: v, Log: log}
	purchaseC := &purchasectrl.Controller{Svc: ps, V: v, Log: log}
	installmentC := &installmentctrl.Controller{Svc: is, Log: log}
	earningsC := &earningsctrl.Controller{Svc: es, Log: log}
	transactionC := &transactionctrl.Controller{Repo: tr, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e, log)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Book:        bookC,
		Borrow:      borrowC,
		Purchase:    purchaseC,
		Installment: installmentC,
		Earnings:    earningsC,
		Transaction: transactionC,
		JWTSecret:   cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
