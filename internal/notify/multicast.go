// Package notify implements the share-notification fan-out: a best-effort,
// unordered, at-most-once broadcast over a UDP multicast group. Messages are
// raw UTF-8 datagrams with no framing, no acknowledgement, and no
// persistence; the store's notification log is the durable counterpart.
package notify

import (
	"fmt"
	"net"
	"sync"
)

// maxDatagramSize bounds a single notification message.
const maxDatagramSize = 512

// Publisher sends notification datagrams to the multicast group.
type Publisher struct {
	conn *net.UDPConn
	mu   sync.Mutex
}

// NewPublisher opens a UDP socket targeting the multicast group.
//
// Precondition: group must be a "host:port" multicast address.
// Postcondition: Returns a Publisher ready to Publish, or a non-nil error.
func NewPublisher(group string) (*Publisher, error) {
	addr, err := net.ResolveUDPAddr("udp4", group)
	if err != nil {
		return nil, fmt.Errorf("resolving multicast group %s: %w", group, err)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("opening multicast publisher for %s: %w", group, err)
	}
	return &Publisher{conn: conn}, nil
}

// Publish sends message as one datagram to every current group member.
// Delivery is not guaranteed; members not listening at send time miss the
// message.
func (p *Publisher) Publish(message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(message) > maxDatagramSize {
		message = message[:maxDatagramSize]
	}
	if _, err := p.conn.Write([]byte(message)); err != nil {
		return fmt.Errorf("publishing notification: %w", err)
	}
	return nil
}

// Close releases the publisher socket.
func (p *Publisher) Close() error {
	return p.conn.Close()
}

// Subscriber joins the multicast group and streams received messages on a
// channel for the lifetime of the subscription. The stream is lazy and
// non-restartable: once closed, a new Subscriber must be created.
type Subscriber struct {
	conn     *net.UDPConn
	messages chan string

	mu     sync.Mutex
	closed bool
}

// Subscribe joins the multicast group and starts the receive loop.
//
// Precondition: group must be a "host:port" multicast address.
// Postcondition: Returns a Subscriber whose Messages channel yields
// datagrams until Close, or a non-nil error if the join fails.
func Subscribe(group string) (*Subscriber, error) {
	addr, err := net.ResolveUDPAddr("udp4", group)
	if err != nil {
		return nil, fmt.Errorf("resolving multicast group %s: %w", group, err)
	}
	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("joining multicast group %s: %w", group, err)
	}
	_ = conn.SetReadBuffer(maxDatagramSize * 64)

	s := &Subscriber{
		conn:     conn,
		messages: make(chan string, 64),
	}
	go s.receive()
	return s, nil
}

// receive blocks on the group socket and forwards datagrams to the channel.
// A full channel drops the message; the fan-out makes no delivery guarantee.
func (s *Subscriber) receive() {
	defer close(s.messages)

	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		select {
		case s.messages <- string(buf[:n]):
		default:
		}
	}
}

// Messages returns the stream of received notifications. The channel is
// closed when the subscription ends.
func (s *Subscriber) Messages() <-chan string {
	return s.messages
}

// Close leaves the group and ends the message stream. Idempotent.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
