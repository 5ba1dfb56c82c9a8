package nats

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/avoronov/netsuite-assistant/internal/infrastructure/resilience"
)

// Queue moves ingestion work from the API process to the worker over two
// subjects: one carrying a document id per message, one signalling that a
// docs crawl should run.
type Queue struct {
	conn          *nats.Conn
	ingestSubject string
	crawlSubject  string
	executor      *resilience.Executor
	onQueueLag    func(subject string, lag time.Duration)
}

// enqueuedAtHeader carries the publish time so the consumer can report how
// long a message sat on the subject before being picked up.
const enqueuedAtHeader = "Enqueued-At"

func New(url, ingestSubject, crawlSubject string) (*Queue, error) {
	return NewWithOptions(url, ingestSubject, crawlSubject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	OnQueueLag           func(subject string, lag time.Duration)
}

func NewWithOptions(url, ingestSubject, crawlSubject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("netsuite-assistant"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected: %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:          conn,
		ingestSubject: ingestSubject,
		crawlSubject:  crawlSubject,
		executor:      options.ResilienceExecutor,
		onQueueLag:    options.OnQueueLag,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishDocumentIngested(ctx context.Context, documentID int64) error {
	payload := []byte(strconv.FormatInt(documentID, 10))
	return q.publish(ctx, q.ingestSubject, payload)
}

func (q *Queue) PublishCrawlRequested(ctx context.Context) error {
	return q.publish(ctx, q.crawlSubject, nil)
}

func (q *Queue) publish(ctx context.Context, subject string, payload []byte) error {
	call := func(_ context.Context) error {
		msg := nats.NewMsg(subject)
		msg.Data = payload
		msg.Header.Set(enqueuedAtHeader, time.Now().UTC().Format(time.RFC3339Nano))
		if err := q.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("nats publish %s: %w", subject, err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish."+subject, call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

func (q *Queue) SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, int64) error) error {
	return q.subscribe(ctx, q.ingestSubject, func(handlerCtx context.Context, data []byte) error {
		documentID, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("parse document id %q: %w", string(data), err)
		}
		return handler(handlerCtx, documentID)
	})
}

func (q *Queue) SubscribeCrawlRequested(ctx context.Context, handler func(context.Context) error) error {
	return q.subscribe(ctx, q.crawlSubject, func(handlerCtx context.Context, _ []byte) error {
		return handler(handlerCtx)
	})
}

func (q *Queue) subscribe(ctx context.Context, subject string, handler func(context.Context, []byte) error) error {
	sub, err := q.conn.QueueSubscribe(subject, "workers", func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		if q.onQueueLag != nil {
			if lag, ok := messageLag(msg.Header.Get(enqueuedAtHeader), time.Now()); ok {
				q.onQueueLag(subject, lag)
			}
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, msg.Data); err != nil {
			log.Printf("worker handler error on %s: %v", subject, err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

// messageLag turns the publish timestamp header into a non-negative wait
// duration. Messages without the header (or with a mangled one) report no lag
// rather than a bogus value.
func messageLag(enqueuedAt string, now time.Time) (time.Duration, bool) {
	if enqueuedAt == "" {
		return 0, false
	}
	publishedAt, err := time.Parse(time.RFC3339Nano, enqueuedAt)
	if err != nil {
		return 0, false
	}
	lag := now.Sub(publishedAt)
	if lag < 0 {
		lag = 0
	}
	return lag, true
}
