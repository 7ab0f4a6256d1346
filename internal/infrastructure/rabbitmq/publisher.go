// Package rabbitmq はテーブル占有イベントを RabbitMQ に発行する
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/sanosuguru/restaurant-reservation/internal/config"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/table"
	"github.com/sanosuguru/restaurant-reservation/internal/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	dialTimeout = 5 * time.Second
	heartbeat   = 10 * time.Second
)

// ErrNotConnected はブローカーへの接続を張り直している間の発行エラー
var ErrNotConnected = errors.New("RabbitMQに接続していません")

// channel は発行に使う AMQP チャネル
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// connection は AMQP 接続。チャネルを開くと exchange も宣言する。
type connection interface {
	openChannel(exchange string) (channel, error)
	IsClosed() bool
	Close() error
}

type amqpConnection struct {
	*amqp.Connection
}

func (c amqpConnection) openChannel(exchange string) (channel, error) {
	ch, err := c.Channel()
	if err != nil {
		return nil, fmt.Errorf("チャネル作成に失敗: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("exchange宣言に失敗: %w", err)
	}
	return ch, nil
}

func dialer(url string) func() (connection, error) {
	return func() (connection, error) {
		conn, err := amqp.DialConfig(url, amqp.Config{
			Heartbeat: heartbeat,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(dialTimeout),
		})
		if err != nil {
			return nil, fmt.Errorf("RabbitMQ接続に失敗: %w", err)
		}
		return amqpConnection{conn}, nil
	}
}

// Publisher は topic exchange に占有イベントを発行する。
// 接続やチャネルが閉じていたら発行は ErrNotConnected で即座に失敗し、
// 張り直しはバックグラウンドで1本だけ走る。
type Publisher struct {
	exchange string
	dial     func() (connection, error)

	mu           sync.Mutex
	conn         connection
	ch           channel
	reconnecting bool
	closed       bool
	wg           sync.WaitGroup
}

// NewPublisher はブローカーに接続して exchange を宣言する
func NewPublisher(cfg *config.RabbitMQConfig) (*Publisher, error) {
	p := &Publisher{exchange: cfg.Exchange, dial: dialer(cfg.URL)}
	conn, err := p.dial()
	if err != nil {
		return nil, err
	}
	ch, err := conn.openChannel(p.exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return p, nil
}

// PublishOccupancy はイベントを type をルーティングキーとして発行する
func (p *Publisher) PublishOccupancy(ctx context.Context, event table.OccupancyEvent) error {
	msg, err := buildPublishing(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	ch := p.ch
	if ch == nil || ch.IsClosed() {
		p.startReconnectLocked()
		p.mu.Unlock()
		return ErrNotConnected
	}
	p.mu.Unlock()

	if err := ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, msg); err != nil {
		return fmt.Errorf("イベント発行に失敗: %w", err)
	}
	logger.Debug("占有イベントを発行",
		zap.String("type", event.Type),
		zap.String("table_id", event.TableID),
		zap.String("reservation_id", event.ReservationID),
	)
	return nil
}

func (p *Publisher) startReconnectLocked() {
	if p.reconnecting || p.closed {
		return
	}
	p.reconnecting = true
	p.wg.Add(1)
	go p.reconnect()
}

// reconnect は接続が生きていればチャネルだけ、死んでいれば接続から作り直す
func (p *Publisher) reconnect() {
	defer p.wg.Done()

	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()

	if conn == nil || conn.IsClosed() {
		if conn != nil {
			_ = conn.Close()
		}
		c, err := p.dial()
		if err != nil {
			logger.Warn("RabbitMQへの再接続に失敗", zap.Error(err))
			p.finishReconnect(nil, nil)
			return
		}
		conn = c
	}

	ch, err := conn.openChannel(p.exchange)
	if err != nil {
		logger.Warn("RabbitMQチャネルの再作成に失敗", zap.Error(err))
		p.finishReconnect(conn, nil)
		return
	}
	p.finishReconnect(conn, ch)
	logger.Info("RabbitMQに再接続しました")
}

func (p *Publisher) finishReconnect(conn connection, ch channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reconnecting = false
	if p.closed {
		if ch != nil {
			_ = ch.Close()
		}
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if conn != nil {
		p.conn = conn
	}
	if ch != nil {
		p.ch = ch
	}
}

// Close はチャネルと接続を閉じ、実行中の再接続を待つ
func (p *Publisher) Close() error {
	p.mu.Lock()
	p.closed = true
	ch, conn := p.ch, p.conn
	p.mu.Unlock()

	if ch != nil {
		_ = ch.Close()
	}
	var err error
	if conn != nil && !conn.IsClosed() {
		err = conn.Close()
	}
	p.wg.Wait()
	return err
}

func buildPublishing(event table.OccupancyEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("イベントのエンコードに失敗: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         event.Type,
		Body:         body,
	}, nil
}
