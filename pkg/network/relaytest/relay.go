// Package relaytest provides an in-memory relay for tests of code that
// talks to the cups relay over HTTP.
package relaytest

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/ZentaChain/zentalk-cups/pkg/crypto"
	"github.com/ZentaChain/zentalk-cups/pkg/network"
	"github.com/ZentaChain/zentalk-cups/pkg/protocol"
)

// Relay serves the relay HTTP surface from memory. Conversations are
// kept newest first, like the deployed relay.
type Relay struct {
	Password string
	Revision protocol.Revision

	mu       sync.Mutex
	users    []protocol.UserRecord
	messages map[crypto.PublicKey][]protocol.MessageRecord
	requests map[string]int
	failures []int // status codes to answer with, consumed in order
	gate     chan struct{}
	clock    int64

	router *gin.Engine
	server *httptest.Server
}

// New starts a relay accepting password
func New(password string, rev protocol.Revision) *Relay {
	gin.SetMode(gin.TestMode)

	r := &Relay{
		Password: password,
		Revision: rev,
		messages: make(map[crypto.PublicKey][]protocol.MessageRecord),
		requests: make(map[string]int),
		router:   gin.New(),
		clock:    1700000000,
	}

	r.router.Use(gin.Recovery())
	r.router.Use(r.faultMiddleware())

	authorized := r.router.Group("/", gin.BasicAuth(gin.Accounts{network.AuthUser: password}))
	{
		authorized.GET("/", r.handleGet)
		authorized.POST("/", r.handlePost)
	}

	r.server = httptest.NewServer(r.router)
	return r
}

// Close shuts the relay down
func (r *Relay) Close() {
	r.Release()
	r.server.Close()
}

// Credentials returns credentials pointing at the relay
func (r *Relay) Credentials() *network.Credentials {
	host, portText, _ := net.SplitHostPort(strings.TrimPrefix(r.server.URL, "http://"))
	port, _ := strconv.Atoi(portText)
	return &network.Credentials{
		Host:     host,
		Port:     port,
		Password: r.Password,
	}
}

// SetUsers replaces the contact list
func (r *Relay) SetUsers(users []protocol.UserRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append([]protocol.UserRecord(nil), users...)
}

// SetMessages replaces the conversation with peer, newest first
func (r *Relay) SetMessages(peer crypto.PublicKey, msgs []protocol.MessageRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[peer] = append([]protocol.MessageRecord(nil), msgs...)
}

// Users returns the contact list
func (r *Relay) Users() []protocol.UserRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.UserRecord(nil), r.users...)
}

// Messages returns the conversation with peer, newest first
func (r *Relay) Messages(peer crypto.PublicKey) []protocol.MessageRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.MessageRecord(nil), r.messages[peer]...)
}

// Requests returns how many requests of a kind were served: "users",
// "messages", "add" or "send"
func (r *Relay) Requests(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[kind]
}

// FailNext answers the next requests with the given status codes
func (r *Relay) FailNext(statuses ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, statuses...)
}

// Hold makes every request wait until Release is called
func (r *Relay) Hold() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gate == nil {
		r.gate = make(chan struct{})
	}
}

// Release lets held requests through
func (r *Relay) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gate != nil {
		close(r.gate)
		r.gate = nil
	}
}

func (r *Relay) faultMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		r.mu.Lock()
		gate := r.gate
		status := 0
		if len(r.failures) > 0 {
			status = r.failures[0]
			r.failures = r.failures[1:]
		}
		r.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}

		if status != 0 {
			c.AbortWithStatus(status)
			return
		}

		c.Next()
	}
}

func (r *Relay) handleGet(c *gin.Context) {
	switch c.Query(network.QueryType) {
	case network.TypeUsers:
		r.mu.Lock()
		r.requests["users"]++
		body, err := protocol.EncodeUsers(r.users)
		r.mu.Unlock()

		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, "application/octet-stream", body)

	case network.TypeMessages:
		peer, ok := parseLabel(c.Query(network.QueryPubkey))
		if !ok {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		r.mu.Lock()
		r.requests["messages"]++
		msgs := r.messages[peer]
		r.mu.Unlock()

		if limitText := c.Query(network.QueryLimit); limitText != "" {
			limit, err := strconv.Atoi(limitText)
			if err != nil || limit < 0 {
				c.AbortWithStatus(http.StatusBadRequest)
				return
			}
			if limit < len(msgs) {
				msgs = msgs[:limit]
			}
		}

		c.Data(http.StatusOK, "application/octet-stream", r.Revision.EncodeMessages(msgs))

	default:
		c.AbortWithStatus(http.StatusBadRequest)
	}
}

func (r *Relay) handlePost(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	req, err := r.Revision.DecodeRequest(body)
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch req := req.(type) {
	case *protocol.AddContactRequest:
		r.requests["add"]++
		r.addContact(req)
	case *protocol.SendMessageRequest:
		r.requests["send"]++
		r.clock++
		msg := protocol.MessageRecord{Inbound: false, Timestamp: r.clock, Content: req.Content}
		r.messages[req.To] = append([]protocol.MessageRecord{msg}, r.messages[req.To]...)
	}

	c.Status(http.StatusOK)
}

// addContact names an existing contact or appends a new one; callers hold mu
func (r *Relay) addContact(req *protocol.AddContactRequest) {
	var name *string
	if req.Name != "" {
		name = protocol.StringPtr(req.Name)
	}

	for i := range r.users {
		if r.users[i].ID == req.Key {
			r.users[i].Name = name
			return
		}
	}
	r.users = append(r.users, protocol.UserRecord{ID: req.Key, Name: name})
}

// parseLabel reverses crypto.PublicKey.Label
func parseLabel(label string) (crypto.PublicKey, bool) {
	key, err := crypto.DecodeKeyLabel(label)
	return key, err == nil
}
