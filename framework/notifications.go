package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// NotificationPath is where the controller posts its asynchronous service notifications.
const NotificationPath = "/NotificationServer/notify"

const (
	httpListenerTimeout       = time.Second * 10
	notificationChannelSize   = 100
	notificationServerTimeout = time.Second * 5
)

// IncomingNotification is one request the controller sent to the notification sink.
type IncomingNotification struct {
	Time    time.Time
	Method  string
	Headers http.Header
	Body    []byte
}

// NotificationSink is an HTTP listener that accepts the controller's notifications. Received
// notifications are queued until someone drains them; when the queue is full the oldest ones
// are dropped rather than blocking the controller.
type NotificationSink struct {
	server   *http.Server
	listener net.Listener
	received chan IncomingNotification
	logger   Logger
	closing  sync.Once
}

// StartNotificationSink listens on the given port (0 picks a free one) and waits until the
// listener is answering before it returns.
func StartNotificationSink(port int, logger Logger) (*NotificationSink, error) {
	if logger == nil {
		logger = NullLogger()
	}
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("could not listen for notifications on port %d: %w", port, err)
	}
	s := &NotificationSink{
		listener: listener,
		received: make(chan IncomingNotification, notificationChannelSize),
		logger:   logger,
	}
	s.server = &http.Server{
		Handler:           http.HandlerFunc(s.serveHTTP),
		ReadHeaderTimeout: notificationServerTimeout,
	}
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("Notification listener stopped: %s", err)
		}
	}()

	if err := s.awaitListening(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Port returns the port the sink is actually listening on.
func (s *NotificationSink) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// URL returns the notification URL to hand to the controller.
func (s *NotificationSink) URL() string {
	return fmt.Sprintf("http://localhost:%d%s", s.Port(), NotificationPath)
}

func (s *NotificationSink) awaitListening() error {
	deadline := time.NewTimer(httpListenerTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Millisecond * 10)
	defer ticker.Stop()
	url := fmt.Sprintf("http://localhost:%d", s.Port())
	for {
		select {
		case <-deadline.C:
			return fmt.Errorf("could not detect own listener at %s", url)
		case <-ticker.C:
			resp, err := http.DefaultClient.Head(url)
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return nil
				}
			}
		}
	}
}

func (s *NotificationSink) serveHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK) // we use this to test whether our own listener is active yet
		return
	}
	if req.URL.Path != NotificationPath {
		s.logger.Printf("Received request for unrecognized URL path %s", req.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var body []byte
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			s.logger.Printf("Unexpected error trying to read notification body: %s", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body = data
	}
	n := IncomingNotification{
		Time:    time.Now(),
		Method:  req.Method,
		Headers: req.Header,
		Body:    body,
	}
	s.logger.Printf("Received notification: %s", string(body))
	for {
		select { // non-blocking push, dropping the oldest entry if full
		case s.received <- n:
			w.WriteHeader(http.StatusOK)
			return
		default:
			select {
			case <-s.received:
			default:
			}
		}
	}
}

// Drain returns every notification received so far without waiting.
func (s *NotificationSink) Drain() []IncomingNotification {
	var ret []IncomingNotification
	for {
		select {
		case n := <-s.received:
			ret = append(ret, n)
		default:
			return ret
		}
	}
}

// Await waits for the next notification.
func (s *NotificationSink) Await(timeout time.Duration) (IncomingNotification, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case n := <-s.received:
		return n, nil
	case <-deadline.C:
		return IncomingNotification{}, errors.New("timed out waiting for a notification from the controller")
	}
}

// Close stops the listener. It is safe to call more than once.
func (s *NotificationSink) Close() {
	s.closing.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notificationServerTimeout)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	})
}
