package rabbitmq

import (
	"errors"
	"io"
	"log"
	"os"
	"testing"
	"time"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChannel is a mock implementation of channel
type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return m.Called(name, kind, durable).Error(0)
}

func (m *MockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	a := m.Called(name, durable)
	return a.Get(0).(amqp.Queue), a.Error(1)
}

func (m *MockChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return m.Called(name, key, exchange).Error(0)
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, msg).Error(0)
}

func (m *MockChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	a := m.Called(queue, autoAck)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(<-chan amqp.Delivery), a.Error(1)
}

func (m *MockChannel) Close() error {
	return m.Called().Error(0)
}

type recordingAcker struct {
	acked    []uint64
	nacked   []uint64
	requeued []bool
	done     chan struct{}
}

func (a *recordingAcker) Ack(tag uint64, multiple bool) error {
	a.acked = append(a.acked, tag)
	a.signal()
	return nil
}

func (a *recordingAcker) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = append(a.nacked, tag)
	a.requeued = append(a.requeued, requeue)
	a.signal()
	return nil
}

func (a *recordingAcker) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *recordingAcker) signal() {
	if a.done != nil {
		a.done <- struct{}{}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func declaredChannel() *MockChannel {
	ch := new(MockChannel)
	ch.On("ExchangeDeclare", DefaultExchange, "topic", true).Return(nil).Once()
	ch.On("QueueDeclare", DefaultQueue, true).Return(amqp.Queue{Name: DefaultQueue}, nil).Once()
	ch.On("QueueBind", DefaultQueue, DefaultBindingKey, DefaultExchange).Return(nil).Once()
	return ch
}

func TestNewClient_DeclaresTopology(t *testing.T) {
	ch := declaredChannel()

	c, err := newClient(nopCloser{}, ch, Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultQueue, c.queue)
	ch.AssertExpectations(t)
}

func TestNewClient_ExchangeFailure(t *testing.T) {
	ch := new(MockChannel)
	ch.On("ExchangeDeclare", "custom", "topic", true).Return(errors.New("access refused")).Once()

	_, err := newClient(nopCloser{}, ch, Config{Exchange: "custom"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to declare exchange custom")
	ch.AssertNotCalled(t, "QueueDeclare", mock.Anything, mock.Anything)
}

func TestClient_Publish(t *testing.T) {
	ch := declaredChannel()
	c, err := newClient(nopCloser{}, ch, Config{})
	require.NoError(t, err)
	fixed := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	body := []byte(`{"order_id":"o-1"}`)
	ch.On("Publish", "orders", "order.created", mock.MatchedBy(func(p amqp.Publishing) bool {
		return p.ContentType == "application/json" &&
			p.DeliveryMode == amqp.Persistent &&
			p.Type == "order.created" &&
			p.Timestamp.Equal(fixed) &&
			string(p.Body) == string(body)
	})).Return(nil).Once()

	require.NoError(t, c.Publish("orders", "order.created", body))
	ch.AssertExpectations(t)
}

func TestClient_PublishError(t *testing.T) {
	ch := declaredChannel()
	c, err := newClient(nopCloser{}, ch, Config{})
	require.NoError(t, err)
	ch.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(amqp.ErrClosed).Once()

	err = c.Publish("orders", "order.created", []byte("{}"))
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestClient_ConsumeOrderEvents(t *testing.T) {
	ch := declaredChannel()
	c, err := newClient(nopCloser{}, ch, Config{})
	require.NoError(t, err)

	deliveries := make(chan amqp.Delivery, 3)
	ch.On("Consume", DefaultQueue, false).Return((<-chan amqp.Delivery)(deliveries), nil).Once()

	acker := &recordingAcker{done: make(chan struct{}, 3)}
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: []byte("ok")}
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 2, Body: []byte("fail")}
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 3, Body: []byte("fail"), Redelivered: true}
	close(deliveries)

	err = c.ConsumeOrderEvents(func(msg amqp.Delivery) error {
		if string(msg.Body) == "fail" {
			return errors.New("cannot process")
		}
		return nil
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		select {
		case <-acker.done:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for deliveries")
		}
	}
	assert.Equal(t, []uint64{1}, acker.acked)
	assert.Equal(t, []uint64{2, 3}, acker.nacked)
	assert.Equal(t, []bool{true, false}, acker.requeued)
}

func TestClient_Close(t *testing.T) {
	ch := declaredChannel()
	c, err := newClient(nopCloser{}, ch, Config{})
	require.NoError(t, err)
	ch.On("Close").Return(nil).Once()

	assert.NoError(t, c.Close())
	ch.AssertExpectations(t)
}
