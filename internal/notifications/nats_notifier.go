package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
)

const SubjectPrefix = "rental.bookings."

// NATSNotifier publishes booking events on rental.bookings.<type>.
type NATSNotifier struct {
	conn *nats.Conn
}

func NewNATSNotifier(url string, opts ...nats.Option) (*NATSNotifier, error) {
	opts = append([]nats.Option{
		nats.Name("rentalhub-api"),
		nats.Timeout(2 * time.Second),
		nats.MaxReconnects(-1),
	}, opts...)

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	return &NATSNotifier{conn: nc}, nil
}

func Subject(t EventType) string {
	return SubjectPrefix + string(t)
}

func (n *NATSNotifier) PublishBookingEvent(ctx context.Context, ev BookingEvent) error {
	if n == nil || n.conn == nil {
		return errors.New("nil nats notifier")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return n.conn.Publish(Subject(ev.Type), data)
}

// Close drains pending publishes before closing the connection.
func (n *NATSNotifier) Close() {
	if n == nil || n.conn == nil {
		return
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}
