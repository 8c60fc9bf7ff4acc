package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/example/reservation-service/internal/logging"
	"github.com/example/reservation-service/internal/usecase"
	"github.com/joho/godotenv"
	stan "github.com/nats-io/stan.go"
)

func main() {
	_ = godotenv.Load()
	logger := logging.New(getenv("LOG_LEVEL", "info"))

	clusterID := getenv("STAN_CLUSTER_ID", "wb-cluster")
	clientID := getenv("STAN_PUB_ID", "reservation-publisher")
	natsURL := getenv("NATS_URL", "nats://localhost:4223")
	subject := getenv("STAN_SUBJECT", "reservations")

	msgs, err := readMessages(os.Stdin)
	if err != nil {
		logger.Fatalf("read json from stdin: %v", err)
	}

	sc, err := stan.Connect(clusterID, clientID, stan.NatsURL(natsURL))
	if err != nil {
		logger.Fatalf("stan connect: %v", err)
	}
	defer sc.Close()

	for _, b := range msgs {
		if err := sc.Publish(subject, b); err != nil {
			logger.Fatalf("publish: %v", err)
		}
	}
	logger.WithField("subject", subject).Infof("published %d reservations", len(msgs))
}

// readMessages читает резервацию или массив резерваций; каждая проверяется так же, как при upsert.
func readMessages(r io.Reader) ([][]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	var items []json.RawMessage
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
	} else {
		items = []json.RawMessage{raw}
	}

	out := make([][]byte, 0, len(items))
	for i, item := range items {
		rec, err := usecase.ParseUpsertBody(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
