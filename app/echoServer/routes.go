package echoServer

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/OMARxKHALID/LMS-server/app/echoServer/controller/book"
	"github.com/OMARxKHALID/LMS-server/app/echoServer/controller/borrow"
	"github.com/OMARxKHALID/LMS-server/app/echoServer/controller/earnings"
	"github.com/OMARxKHALID/LMS-server/app/echoServer/controller/installment"
	"github.com/OMARxKHALID/LMS-server/app/echoServer/controller/purchase"
	"github.com/OMARxKHALID/LMS-server/app/echoServer/controller/transaction"
)

type C struct {
	Book        *book.Controller
	Borrow      *borrow.Controller
	Purchase    *purchase.Controller
	Installment *installment.Controller
	Earnings    *earnings.Controller
	Transaction *transaction.Controller
	JWTSecret   string
}

func Register(e *echo.Echo, c C) {
	// Tokens are issued elsewhere; this service only verifies them.
	v1 := e.Group("/v1")
	v1.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
	}))

	// Catalog
	v1.POST("/books", c.Book.Create)
	v1.GET("/books", c.Book.List)
	v1.GET("/books/:id", c.Book.Detail)
	v1.PUT("/books/:id", c.Book.Update)
	v1.DELETE("/books/:id", c.Book.Delete)

	// Purchasing
	v1.POST("/books/purchase", c.Purchase.Purchase)
	v1.POST("/installments/:planId/pay", c.Installment.Pay)
	v1.GET("/installments/my", c.Installment.My)
	v1.GET("/installments/:planId", c.Installment.Detail)

	// Borrowing
	v1.POST("/borrow", c.Borrow.Borrow)
	v1.PUT("/borrow/return/:borrowId", c.Borrow.Return)
	v1.GET("/borrow/records", c.Borrow.Records)

	// Analytics & history
	v1.GET("/earnings", c.Earnings.Get)
	v1.GET("/transactions/my", c.Transaction.My)
	v1.GET("/transactions/:transactionId", c.Transaction.Detail)
}
