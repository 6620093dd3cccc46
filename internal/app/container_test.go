package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-service/pkg/config"
	"github.com/jhoicas/stock-service/pkg/logger"
)

func TestContainer_NewOrderConsumerSinBrokers(t *testing.T) {
	c := &Container{Config: &config.Config{}, Log: logger.Nop()}

	oc, err := c.NewOrderConsumer()
	require.Error(t, err)
	assert.Nil(t, oc)
	assert.Empty(t, c.closers, "sin consumidor no se registra nada que cerrar")
}

func TestContainer_ShutdownCierraEnOrdenInverso(t *testing.T) {
	var order []string
	closer := func(name string, err error) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, name)
			return err
		}
	}
	c := &Container{Config: &config.Config{}, Log: logger.Nop()}
	c.closers = append(c.closers,
		closer("tracing", nil),
		closer("pool", errors.New("ya cerrado")),
		closer("producer", nil),
	)

	c.Shutdown(context.Background())
	assert.Equal(t, []string{"producer", "pool", "tracing"}, order, "un error no interrumpe el resto")

	c.Shutdown(context.Background())
	assert.Len(t, order, 3, "un segundo Shutdown no repite cierres")
}
