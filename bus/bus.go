// bus.go
package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// -----------------------------------------------------------------------------
// Tokens + Topics
// -----------------------------------------------------------------------------

// Token is a single element in a topic path: a string or an int.
// Tokens are used as trie keys, so they must be comparable.
type Token = any

// Wildcard tokens, valid in subscription patterns only.
// "+" matches exactly one token; "#" matches zero or more trailing tokens.
const (
	WildcardOne  = "+"
	WildcardRest = "#"
)

// Topic is a sequence of tokens, e.g. Topic{"hal", "cap", "env", "temperature", "ntc0"}.
type Topic []Token

// T builds a Topic and validates the token types.
// It panics on anything that is not a string or an int: topics are part of the
// service contract and a bad token is a programming error.
func T(tokens ...Token) Topic {
	t := make(Topic, 0, len(tokens))
	for _, tok := range tokens {
		switch tok.(type) {
		case string, int:
		default:
			panic("bus: topic token must be a string or an int")
		}
		t = append(t, tok)
	}
	return t
}

func (t Topic) Len() int       { return len(t) }
func (t Topic) At(i int) Token { return t[i] }

// Append returns a new Topic with the extra tokens added. The receiver is not
// modified, so shared prefix topics stay safe to extend from multiple callers.
func (t Topic) Append(tokens ...Token) Topic {
	out := make(Topic, 0, len(t)+len(tokens))
	out = append(out, t...)
	return append(out, tokens...)
}

// -----------------------------------------------------------------------------
// Message
// -----------------------------------------------------------------------------

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// CanReply reports whether the publisher asked for a reply.
func (m *Message) CanReply() bool { return len(m.ReplyTo) > 0 }

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

type Subscription struct {
	pattern Topic
	ch      chan *Message
	conn    *Connection // owning connection
}

func (s *Subscription) Topic() Topic             { return s.pattern }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// -----------------------------------------------------------------------------
// Trie node
// -----------------------------------------------------------------------------

// A single trie holds both subscription patterns (which may contain wildcard
// tokens) and retained messages (stored along exact publish paths).
type node struct {
	children map[Token]*node
	subs     []*Subscription
	retained *Message
}

func (n *node) child(tok Token) *node {
	if n.children == nil {
		return nil
	}
	return n.children[tok]
}

func (n *node) ensureChild(tok Token) *node {
	if n.children == nil {
		n.children = make(map[Token]*node)
	}
	c, ok := n.children[tok]
	if !ok {
		c = &node{}
		n.children[tok] = c
	}
	return c
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

type Bus struct {
	mu       sync.Mutex
	root     *node
	qLen     int
	replySeq uint32
}

// NewBus creates a new bus with the given subscription queue length.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8 // safe default
	}
	return &Bus{
		root: &node{},
		qLen: queueLen,
	}
}

// NewMessage builds a message; topic and flags are fixed at creation.
func (b *Bus) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// addSubscription inserts a pattern into the trie and replays any retained
// messages the pattern matches.
func (b *Bus) addSubscription(pattern Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range pattern {
		n = n.ensureChild(tok)
	}
	n.subs = append(n.subs, sub)

	b.replayRetained(b.root, pattern, sub)
}

// replayRetained walks the retained store under pattern and pushes matches.
func (b *Bus) replayRetained(n *node, pattern Topic, sub *Subscription) {
	if n == nil {
		return
	}
	if len(pattern) == 0 {
		if n.retained != nil {
			push(sub, n.retained)
		}
		return
	}
	head, rest := pattern[0], pattern[1:]
	switch head {
	case WildcardRest:
		b.replaySubtree(n, sub)
	case WildcardOne:
		for _, c := range n.children {
			b.replayRetained(c, rest, sub)
		}
	default:
		b.replayRetained(n.child(head), rest, sub)
	}
}

func (b *Bus) replaySubtree(n *node, sub *Subscription) {
	if n.retained != nil {
		push(sub, n.retained)
	}
	for _, c := range n.children {
		b.replaySubtree(c, sub)
	}
}

// Publish delivers a message to every matching subscriber and updates the
// retained store. Delivery never blocks: a full subscriber queue drops its
// oldest message to make room.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.deliver(b.root, msg.Topic, msg)

	if msg.Retained {
		n := b.root
		for _, tok := range msg.Topic {
			n = n.ensureChild(tok)
		}
		if msg.Payload == nil {
			n.retained = nil // nil payload clears the retained slot
		} else {
			n.retained = msg
		}
	}
}

func (b *Bus) deliver(n *node, toks Topic, msg *Message) {
	if n == nil {
		return
	}
	if len(toks) == 0 {
		pushAll(n.subs, msg)
		// "#" also matches zero trailing tokens.
		if h := n.child(WildcardRest); h != nil {
			pushAll(h.subs, msg)
		}
		return
	}
	head, rest := toks[0], toks[1:]
	b.deliver(n.child(head), rest, msg)
	b.deliver(n.child(WildcardOne), rest, msg)
	if h := n.child(WildcardRest); h != nil {
		pushAll(h.subs, msg)
	}
}

func pushAll(subs []*Subscription, msg *Message) {
	for _, sub := range subs {
		push(sub, msg)
	}
}

func push(sub *Subscription, msg *Message) {
	select {
	case sub.ch <- msg:
	default:
		// drop oldest if queue full
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- msg:
		default:
		}
	}
}

// unsubscribe removes a subscription from the trie and prunes empty nodes.
func (b *Bus) unsubscribe(pattern Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	var stack []*node
	for _, tok := range pattern {
		child := n.child(tok)
		if child == nil {
			return
		}
		stack = append(stack, n)
		n = child
	}

	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}

	for i := len(pattern) - 1; i >= 0; i-- {
		parent := stack[i]
		key := pattern[i]
		child := parent.children[key]
		if len(child.subs) == 0 && len(child.children) == 0 && child.retained == nil {
			delete(parent.children, key)
		} else {
			break
		}
	}
}

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

var ErrClosed = errors.New("bus: subscription closed")

type Connection struct {
	bus  *Bus
	subs []*Subscription
	mu   sync.Mutex
	id   string
}

// NewConnection creates a new connection bound to this bus. The id names the
// connection in reply topics; it carries no authentication meaning.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{
		bus: b,
		id:  id,
	}
}

// NewMessage builds a message for publication via this connection.
func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return c.bus.NewMessage(topic, payload, retained)
}

// Publish sends a message via the bus.
func (c *Connection) Publish(msg *Message) {
	c.bus.Publish(msg)
}

// Subscribe registers a subscription owned by this connection. The pattern may
// contain "+" and "#" wildcards; retained matches are replayed immediately.
func (c *Connection) Subscribe(pattern Topic) *Subscription {
	sub := &Subscription{
		pattern: pattern,
		ch:      make(chan *Message, c.bus.qLen),
		conn:    c,
	}
	c.bus.addSubscription(pattern, sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscription owned by this connection.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub.pattern, sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

// Disconnect closes all subscriptions and clears them.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub.pattern, sub)
		close(sub.ch)
	}
}

// Reply publishes a response on the request's ReplyTo topic. Requests without
// a ReplyTo are fire-and-forget; Reply is then a no-op.
func (c *Connection) Reply(req *Message, payload any, retained bool) {
	if !req.CanReply() {
		return
	}
	c.bus.Publish(&Message{Topic: req.ReplyTo, Payload: payload, Retained: retained})
}

// Request publishes req with a private ReplyTo topic and returns the reply
// subscription. The caller owns the subscription and must Unsubscribe it.
func (c *Connection) Request(req *Message) *Subscription {
	if len(req.ReplyTo) == 0 {
		seq := atomic.AddUint32(&c.bus.replySeq, 1)
		req.ReplyTo = Topic{"$reply", c.id, int(seq)}
	}
	sub := c.Subscribe(req.ReplyTo)
	c.bus.Publish(req)
	return sub
}

// RequestWait performs Request and blocks for the first reply or ctx expiry.
func (c *Connection) RequestWait(ctx context.Context, req *Message) (*Message, error) {
	sub := c.Request(req)
	defer c.Unsubscribe(sub)

	select {
	case m, ok := <-sub.Channel():
		if !ok {
			return nil, ErrClosed
		}
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
