package services

import (
	"fmt"
	"sync"

	"github.com/containrrr/shoutrrr"

	"github.com/Wikid82/warden/backend/internal/logger"
)

// Notifier pushes block and unblock events to external services through shoutrrr.
type Notifier struct {
	urls []string
	send func(url, message string) error
	wg   sync.WaitGroup
}

// NewNotifier returns a Notifier for the given shoutrrr URLs. With no URLs
// every call is a no-op.
func NewNotifier(urls []string) *Notifier {
	return &Notifier{urls: urls, send: shoutrrr.Send}
}

// Notify sends title and message to every configured URL in the background.
// Delivery failures are logged only.
func (n *Notifier) Notify(title, message string) {
	if n == nil || len(n.urls) == 0 {
		return
	}
	msg := fmt.Sprintf("%s\n\n%s", title, message)
	for i, url := range n.urls {
		n.wg.Add(1)
		go func(idx int, u string) {
			defer n.wg.Done()
			if err := n.send(u, msg); err != nil {
				// URLs carry credentials; log the position only.
				logger.Log().WithError(err).WithField("provider", idx).Warn("failed to send security notification")
			}
		}(i, url)
	}
}

// Wait blocks until in-flight notifications finish.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}

func notifyBlocked(n *Notifier, ip, duration string) {
	n.Notify("IP auto-blocked", fmt.Sprintf("IP %s blocked automatically for %s", ip, duration))
}

func notifyUnblocked(n *Notifier, ip, source string) {
	n.Notify("IP auto-unblocked", fmt.Sprintf("IP %s automatically unblocked (%s)", ip, source))
}
