package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

const jitterWindow = 250 * time.Millisecond

var errNilPublishResult = errors.New("publish result is nil")

type publisherFactory func(topic string) publisher

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

func topicPublisherFactory(client pubSubClient) publisherFactory {
	return func(topic string) publisher {
		p := client.Publisher(topic)
		if p == nil {
			return nil
		}
		return topicPublisher{p}
	}
}

type topicPublisher struct {
	p *gcppubsub.Publisher
}

func (t topicPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return topicResult{t.p.Publish(ctx, msg)}
}

type topicResult struct {
	r *gcppubsub.PublishResult
}

func (t topicResult) Get(ctx context.Context) (string, error) {
	if t.r == nil {
		return "", errNilPublishResult
	}
	return t.r.Get(ctx)
}

// nextBackoff doubles current, starting from base, capped at max.
func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	return min(current*2, max)
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}
