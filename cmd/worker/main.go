package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhoicas/stock-service/internal/app"
)

// Worker: consume eventos de pedido (order.created / order.cancelled) y ajusta el stock.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := app.NewContainer(ctx)
	if err != nil {
		panic("iniciar worker: " + err.Error())
	}
	log := c.Log

	consumer, err := c.NewOrderConsumer()
	if err != nil {
		log.Error().Err(err).Msg("consumidor de pedidos")
		shutdown(c)
		os.Exit(1)
	}

	log.Info().
		Str("topic", c.Config.Kafka.OrderTopic).
		Str("group", c.Config.Kafka.GroupID).
		Msg("iniciando worker")

	if err := consumer.Run(ctx); err != nil {
		log.Error().Err(err).Msg("consumidor de pedidos finalizado")
	}

	shutdown(c)
	log.Info().Msg("worker detenido")
}

// shutdown libera trazas, pool y clientes Kafka con un plazo acotado.
func shutdown(c *app.Container) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c.Shutdown(ctx)
}
