// Package mailer handles pick sheets that arrive by email and the replies
// sent back to their senders.
package mailer

import (
	"fmt"
	"io"
	"strings"

	"github.com/jhillyerd/enmime"
)

// Inbound is the part of a received message the pool cares about
type Inbound struct {
	From string
	// To is the first address the message was sent to
	To         string
	Subject    string
	HTMLBodies []string
}

// ParseInbound reads a raw RFC 822 message. Every text/html part is
// returned, decoded to UTF-8, in message order, wherever it sits in the
// MIME tree.
func ParseInbound(r io.Reader) (Inbound, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return Inbound{}, fmt.Errorf("failed to read message: %w", err)
	}

	in := Inbound{
		From:    env.GetHeader("From"),
		To:      firstAddress(env, "To"),
		Subject: env.GetHeader("Subject"),
	}

	if env.Root != nil {
		parts := env.Root.DepthMatchAll(func(p *enmime.Part) bool {
			return p.ContentType == "text/html"
		})
		for _, part := range parts {
			if strings.TrimSpace(string(part.Content)) == "" {
				continue
			}
			in.HTMLBodies = append(in.HTMLBodies, string(part.Content))
		}
	}
	if len(in.HTMLBodies) == 0 && strings.TrimSpace(env.HTML) != "" {
		in.HTMLBodies = append(in.HTMLBodies, env.HTML)
	}

	return in, nil
}

// firstAddress returns the bare first address of an address header, or the
// raw header when it does not parse
func firstAddress(env *enmime.Envelope, header string) string {
	addrs, err := env.AddressList(header)
	if err != nil || len(addrs) == 0 {
		return strings.TrimSpace(env.GetHeader(header))
	}
	return addrs[0].Address
}
