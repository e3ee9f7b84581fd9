package mail

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const mailQueue = "mail.outbound"

// Mailer публикует письма в очередь почтового сервиса. Соединение с
// брокером живёт между отправками и переустанавливается при обрыве.
// Отправка best-effort: при недоступности брокера письмо теряется,
// основная операция не прерывается.
type Mailer struct {
	amqpURL string
	logger  *zap.Logger
	dial    func(url string) (*amqp.Connection, error)

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewMailer(amqpURL string, logger *zap.Logger) *Mailer {
	return &Mailer{amqpURL: amqpURL, logger: logger, dial: amqp.Dial}
}

type mailMessage struct {
	Template  string            `json:"template"`
	Recipient string            `json:"recipient"`
	Vars      map[string]string `json:"vars"`
}

// channel возвращает живой канал, переподключаясь к брокеру при
// необходимости. Вызывается под mu.
func (m *Mailer) channel() (*amqp.Channel, error) {
	if m.ch != nil && m.conn != nil && !m.conn.IsClosed() {
		return m.ch, nil
	}
	m.reset()

	conn, err := m.dial(m.amqpURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(mailQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	m.conn = conn
	m.ch = ch
	return ch, nil
}

// reset сбрасывает закэшированное соединение. Вызывается под mu.
func (m *Mailer) reset() {
	if m.ch != nil {
		_ = m.ch.Close()
		m.ch = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
}

func (m *Mailer) publish(ctx context.Context, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	ch, err := m.channel()
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx, "", mailQueue, false, false, msg); err == nil {
		return nil
	}

	// Канал мог протухнуть между проверкой и публикацией,
	// пробуем ещё раз на свежем соединении
	m.reset()
	if ch, err = m.channel(); err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", mailQueue, false, false, msg)
}

// Send публикует письмо по шаблону. Ошибки только логируются.
func (m *Mailer) Send(ctx context.Context, template, recipient string, vars map[string]string) {
	if m == nil || m.amqpURL == "" {
		return
	}

	body, err := json.Marshal(mailMessage{Template: template, Recipient: recipient, Vars: vars})
	if err != nil {
		m.logger.Warn("Не удалось сериализовать письмо", zap.Error(err))
		return
	}

	if err := m.publish(ctx, body); err != nil {
		m.logger.Warn("Не удалось опубликовать письмо",
			zap.String("template", template),
			zap.Error(err))
	}
}

// Close закрывает соединение с брокером
func (m *Mailer) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}
