package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"shopfront/docstore"
	"shopfront/shop"
	"shopfront/web"
)

func main() {
	bindAddr := os.Getenv("BIND_ADDR")
	if bindAddr == "" {
		bindAddr = ":8080"
	}
	esAddr := os.Getenv("ELASTICSEARCH_ADDR")

	var store docstore.Store

	if esAddr != "" {
		es, err := docstore.NewElastic(esAddr,
			os.Getenv("ELASTICSEARCH_USERNAME"),
			os.Getenv("ELASTICSEARCH_PASSWORD"))
		if err != nil {
			logrus.WithError(err).Fatal("failed to create elasticsearch client")
		}
		store = es
	} else {
		logrus.Warn("ELASTICSEARCH_ADDR is empty, state will not survive restarts")
		store = docstore.NewMemory()
	}

	err := shop.Bootstrap(context.Background(), store)
	if err != nil {
		logrus.WithError(err).Fatal("failed to bootstrap indices")
	}

	alloc := shop.NewAllocator(store)
	catalog := shop.NewCatalog(store, alloc)
	ledger := shop.NewLedger(store)

	ws := web.New(catalog, ledger)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		err := ws.Listen(bindAddr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("failed to start web server")
		}
	}()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit

	err = ws.Shutdown()
	if err != nil {
		logrus.WithError(err).Fatal("failed to shutdown web server")
	}

	wg.Wait()
}
