// @title           Stock Service API
// @version         1.0
// @description     Registro, consulta y ajuste de stock por SKU (bajas y restauraciones de pedidos).
// @BasePath        /
// @securityDefinitions.apikey Bearer
// @in              header
// @name            Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhoicas/stock-service/internal/app"
	httpRouter "github.com/jhoicas/stock-service/internal/interfaces/http"

	_ "github.com/jhoicas/stock-service/docs"
)

func main() {
	ctx := context.Background()
	c, err := app.NewContainer(ctx)
	if err != nil {
		panic("iniciar aplicación: " + err.Error())
	}
	cfg := c.Config
	log := c.Log

	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Bool("auth", cfg.JWT.Enabled()).
		Msg("iniciando API")

	server := httpRouter.NewServer(httpRouter.ServerConfig{
		AppName:     cfg.App.Name,
		SwaggerFile: cfg.HTTP.SwaggerFile,
	}, httpRouter.RouterDeps{
		Stock:     c.Stock,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := server.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	c.Shutdown(shutdownCtx)

	log.Info().Msg("aplicación detenida")
}
