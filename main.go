package main

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/caarlos0/env/v11"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/acme/autocert"
	_ "modernc.org/sqlite"

	"gazette/handler"
	"gazette/store"
)

const DEV_ENV = "dev"
const PRO_ENV = "pro"

type Config struct {
	Env           string `env:"ENV" envDefault:"pro"`
	AddressListen string `env:"ADDRESS_LISTEN"`
	JWTSecret     string `env:"JWT_SECRET"`
	DBDriver      string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBURL         string `env:"DB_URL"`
	EnableSignup  bool   `env:"ENABLE_SIGNUP"`
	WhitelistHost string `env:"WHITELIST_HOST"`
}

func main() {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		panic(fmt.Sprintf("parse env: %v", err))
	}

	fmt.Println("Running database schema migrations...")
	db, err := setupDB(cfg)
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("No database schema migration ran. Database schema already in latest version")
		} else {
			fmt.Printf("Error during database schema migration: %v", err)
		}
	}
	JWTSecret, err := fetchSecret(cfg)
	if err != nil {
		panic(err)
	}
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(JWTSecret),
		TokenLookup: "cookie:Authorization,header:Authorization:Bearer ",
		Skipper: func(c echo.Context) bool {
			if c.Request().Method == http.MethodGet || c.Request().Method == http.MethodOptions || c.Path() == "/login" || c.Path() == "/signup" {
				return true
			}

			return false
		},
	}))

	s := &store.Store{DB: db}
	h := handler.Handler{
		Posts:        s,
		Users:        s,
		JWTSecret:    JWTSecret,
		EnableSignup: cfg.EnableSignup,
		Environment:  cfg.Env,
	}

	e.GET("/posts", h.GetPosts)
	e.GET("/posts/:slug", h.GetPostBySlug)
	e.POST("/posts", h.NewPost)
	e.POST("/signup", h.NewUser)
	e.POST("/login", h.Login)
	e.GET("/logout", h.Logout)

	addr := cfg.AddressListen
	if cfg.Env == DEV_ENV && addr == "" {
		addr = ":8080"
	}

	if addr != "" {
		e.Logger.Fatal(e.Start(addr))
	} else {
		// Cache certificates to avoid issues with rate limits (https://letsencrypt.org/docs/rate-limits)
		e.AutoTLSManager.Cache = autocert.DirCache("/var/www/.cache")
		if cfg.WhitelistHost != "" {
			e.AutoTLSManager.HostPolicy = autocert.HostWhitelist(cfg.WhitelistHost)
		}
		e.Pre(middleware.HTTPSRedirect())
		e.Logger.Fatal(e.StartAutoTLS(":443"))
	}
}

func fetchSecret(cfg Config) (string, error) {
	secret := cfg.JWTSecret
	if secret == "" && cfg.Env == DEV_ENV {
		secret = "unsecure"
	}
	if secret == "" {
		return "", errors.New("no secret defined")
	}
	return secret, nil
}

func setupDB(cfg Config) (*sql.DB, error) {
	dbDriver := cfg.DBDriver
	dataSourceName := cfg.DBURL

	var db *sql.DB
	var err error
	var driver database.Driver
	if dbDriver == "sqlite" {
		if dataSourceName == "" {
			dataSourceName = "./gazette.db?_pragma=foreign_keys(1)"
		}
		db, err = sql.Open(dbDriver, dataSourceName)
		if err != nil {
			return nil, err
		}
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			return nil, err
		}
	}
	m, err := migrate.NewWithDatabaseInstance(
		"file://db/migrations",
		dbDriver, driver)
	if err != nil {
		return nil, err
	}

	err = m.Up()

	return db, err
}
