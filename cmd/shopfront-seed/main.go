// Command shopfront-seed loads a name,price,quantity CSV into the catalog.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"shopfront/docstore"
	"shopfront/shop"
)

func exitErr(err error) {
	fmt.Println(err)
	os.Exit(1)
}

func main() {
	if len(os.Args) != 2 {
		exitErr(errors.New("usage: shopfront-seed <products.csv>"))
	}

	df, err := os.Open(os.Args[1])
	if err != nil {
		exitErr(err)
	}

	defer df.Close()

	r := csv.NewReader(df)

	r.FieldsPerRecord = 3
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		exitErr(err)
	}

	es, err := docstore.NewElastic(os.Getenv("ELASTICSEARCH_ADDR"),
		os.Getenv("ELASTICSEARCH_USERNAME"),
		os.Getenv("ELASTICSEARCH_PASSWORD"))
	if err != nil {
		exitErr(err)
	}

	ctx := context.Background()

	err = shop.Bootstrap(ctx, es)
	if err != nil {
		exitErr(err)
	}

	catalog := shop.NewCatalog(es, shop.NewAllocator(es))

	for _, row := range rows {
		name := strings.TrimSpace(row[0])

		price, err := strconv.ParseInt(strings.TrimSpace(row[1]), 10, 64)
		if err != nil {
			exitErr(err)
		}

		quantity, err := strconv.ParseInt(strings.TrimSpace(row[2]), 10, 64)
		if err != nil {
			exitErr(err)
		}

		id, err := catalog.Insert(ctx, name, price, quantity)
		if errors.Is(err, shop.ErrConflict) {
			logrus.WithField("name", name).Warn("product already exists, skipping")
			continue
		}
		if err != nil {
			exitErr(err)
		}

		logrus.WithFields(logrus.Fields{
			"product_id": id,
			"name":       name,
		}).Info("product seeded")
	}
}
