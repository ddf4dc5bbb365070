package osc

import (
	"fmt"
	"log"
	"sync"

	goosc "github.com/hypebeast/go-osc/osc"
)

// RealTransport sends chatbox messages to an actual OSC endpoint. The
// underlying client is created on first send and reused for the process
// lifetime; there is no liveness probing beyond each send's own result.
type RealTransport struct {
	host string
	port int

	mu     sync.Mutex
	client *goosc.Client
}

// NewRealTransport creates a transport for the given endpoint. No network
// resources are allocated until the first send.
func NewRealTransport(host string, port int) *RealTransport {
	return &RealTransport{host: host, port: port}
}

// Send delivers one chatbox message. The second argument asks the target to
// post the text immediately; the third disables the notification sound.
func (t *RealTransport) Send(text string) error {
	t.mu.Lock()
	if t.client == nil {
		t.client = goosc.NewClient(t.host, t.port)
		log.Printf("osc: client created for %s:%d", t.host, t.port)
	}
	client := t.client
	t.mu.Unlock()

	msg := goosc.NewMessage(PathChatbox)
	msg.Append(text)
	msg.Append(true)
	msg.Append(false)

	if err := client.Send(msg); err != nil {
		return fmt.Errorf("send to %s:%d: %w", t.host, t.port, err)
	}
	return nil
}

// Close releases the client. The OSC client is connectionless, so this only
// drops the reference; repeated calls are no-ops.
func (t *RealTransport) Close() error {
	t.mu.Lock()
	t.client = nil
	t.mu.Unlock()
	return nil
}
