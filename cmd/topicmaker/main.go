package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/pkg/sigctx"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	partitions        = 3
	replicationFactor = 3
	minInsyncReplicas = "2"
	deletePolicy      = "delete"
	compactPolicy     = "compact"
)

type topicSet struct {
	cleanupPolicy string
	topics        []string
}

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()

	tlsFiles := cfg.Broker.TLS
	tlsConfig, err := adapter.MakeTLSConfig(adapter.TLSFiles{
		CA:   tlsFiles.CA,
		Cert: tlsFiles.Cert,
		Key:  tlsFiles.Key,
	})
	if err != nil {
		printFail(err)
		return
	}

	cl := createClient(cfg.Broker.SeedBrokers, tlsConfig)
	defer cl.Close()

	plan := topicPlan(cfg)
	printStart(plan)
	defer printComplete(time.Now())

	for _, set := range plan {
		if err := makeTopics(sigCtx, cl, set); err != nil {
			printFail(err)
			return
		}
	}
}

// topicPlan lists the event streams and the activity group table.
func topicPlan(cfg config.Config) []topicSet {
	return []topicSet{
		{
			cleanupPolicy: deletePolicy,
			topics: []string{
				cfg.Broker.Topics.ProductViews,
				cfg.Broker.Topics.SearchQueries,
			},
		},
		{
			cleanupPolicy: compactPolicy,
			topics:        []string{cfg.GroupTable()},
		},
	}
}

func createClient(seedBrokers []string, tlsConfig *tls.Config) *kadm.Client {
	opts := []kgo.Opt{kgo.SeedBrokers(seedBrokers...)}
	if tlsConfig != nil {
		opts = append(opts, kgo.DialTLSConfig(tlsConfig))
	}

	cl, err := kadm.NewOptClient(opts...)
	if err != nil {
		panic(err) // develop mistake
	}
	return cl
}

func topicConfig(cleanupPolicy string) map[string]*string {
	minISR := minInsyncReplicas
	return map[string]*string{
		"cleanup.policy":      &cleanupPolicy,
		"min.insync.replicas": &minISR,
	}
}

func makeTopics(ctx context.Context, cl *kadm.Client, set topicSet) error {
	responses, err := cl.CreateTopics(
		ctx,
		partitions,
		replicationFactor,
		topicConfig(set.cleanupPolicy),
		set.topics...,
	)
	if err != nil {
		return err
	}
	return collectErrs(responses.Sorted())
}

func collectErrs(responses []kadm.CreateTopicResponse) error {
	var errs []error
	for _, res := range responses {
		if res.Err != nil {
			if errors.Is(res.Err, kerr.TopicAlreadyExists) {
				fmt.Printf("topic: %q already exists\n", res.Topic)
			} else {
				errs = append(errs, fmt.Errorf("%s: %w", res.Topic, res.Err))
			}
			continue
		}
		fmt.Printf("topic: %q successfully created\n", res.Topic)
	}
	return errors.Join(errs...)
}

func printStart(plan []topicSet) {
	var b strings.Builder
	b.WriteString("initializing topics...\n")
	for _, set := range plan {
		for _, topic := range set.topics {
			fmt.Fprintf(&b, "\t- %q (%s)\n", topic, set.cleanupPolicy)
		}
	}
	fmt.Println(b.String())
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}
